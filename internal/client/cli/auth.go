package cli

import (
	"context"
	"fmt"
	"log"
)

// Register prompts for a name and password and creates a client account.
// Registering a name that already exists is harmless.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter name")
	if err != nil {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	if err := a.api.Register(ctx, userName, string(password)); err != nil {
		log.Printf("Registration unsuccessfull: %s", err.Error())
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts for credentials and authenticates. Unknown names are
// registered by the server on the fly, so first-time users can log in
// directly. On success the access token, role, and name are remembered
// for the rest of the session.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter name")
	if err != nil {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	res, err := a.api.Login(ctx, userName, string(password))
	if err != nil {
		log.Printf("Login unsuccessfull: %s", err.Error())
		return err
	}

	a.token = res.AccessToken
	a.userName = userName
	a.userRole = res.UserRole
	a.lastSeenID = 0

	log.Printf("Login successfull (%s)", res.UserRole)
	return nil
}

// Logout forgets the session token and cursor.
func (a *App) Logout(ctx context.Context) error {
	a.token = ""
	a.userName = ""
	a.userRole = ""
	a.lastSeenID = 0
	return nil
}

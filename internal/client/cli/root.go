package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName
	}
	if a.userRole != "" {
		s = s + " " + a.userRole
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", strings.TrimSpace(s))
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to medqueue CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	a.Login(ctx)

	watchCtx, stopWatcher := context.WithCancel(ctx)
	defer stopWatcher()

	for {
		fmt.Printf("mq %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				if a.isStaff() {
					fmt.Println("Available commands: send, updates, watch, answered, resolve, logout, exit")
				} else {
					fmt.Println("Available commands: send, updates, watch, logout, exit")
				}
			} else {
				fmt.Println("Available commands: register, login, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "send":
			a.Send(ctx)
		case "updates":
			a.Updates(ctx)
		case "watch":
			go a.StartUpdatesWatcher(watchCtx, a.config.PollInterval)
			fmt.Println("Watching for updates...")
		case "answered":
			if !a.isStaff() {
				fmt.Println("Unknown command:", cmd)
				continue
			}
			a.Answered(ctx)
		case "resolve":
			if !a.isStaff() {
				fmt.Println("Unknown command:", cmd)
				continue
			}
			a.Resolve(ctx)
		case "logout":
			a.Logout(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}

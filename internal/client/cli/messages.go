package cli

import (
	"context"
	"fmt"

	"github.com/okatenko/medqueue/internal/client/api"
)

// printMessage is a test seam for user-facing message output.
var printMessage = func(m api.Message) {
	sender := m.User
	if m.FromStaff {
		sender = sender + " (staff)"
	}
	fmt.Printf("#%d [%s] %s: %s\n", m.ID, m.SentDate.Format("2006-01-02 15:04"), sender, m.Text)
}

// Send prompts for message text and submits it. Staff are additionally
// asked which client thread the message belongs to.
func (a *App) Send(ctx context.Context) error {
	recipient := ""
	if a.isStaff() {
		name, err := getSimpleText(a.reader, "Enter recipient")
		if err != nil {
			return err
		}
		recipient = name
	}

	text, err := getSimpleText(a.reader, "Enter message")
	if err != nil {
		return err
	}

	if err := a.api.Send(ctx, a.token, text, recipient); err != nil {
		fmt.Println("Send failed:", err.Error())
		return err
	}

	fmt.Println("Sent!")
	return nil
}

// Updates prints everything that arrived since the last check. For staff
// that is the pending queue, for clients their own thread.
func (a *App) Updates(ctx context.Context) error {
	msgs, err := a.fetchUpdates(ctx)
	if err != nil {
		fmt.Println("Updates failed:", err.Error())
		return err
	}

	if len(msgs) == 0 {
		fmt.Println("No new messages")
		return nil
	}
	for _, m := range msgs {
		printMessage(m)
	}
	return nil
}

// Answered marks every message in a client's thread as answered.
func (a *App) Answered(ctx context.Context) error {
	author, err := getSimpleText(a.reader, "Enter client name")
	if err != nil {
		return err
	}

	if err := a.api.MarkAnswered(ctx, a.token, author); err != nil {
		fmt.Println("Operation failed:", err.Error())
		return err
	}

	fmt.Println("Done!")
	return nil
}

// Resolve posts a closing reply to a client's thread and marks it
// answered in one step.
func (a *App) Resolve(ctx context.Context) error {
	recipient, err := getSimpleText(a.reader, "Enter recipient")
	if err != nil {
		return err
	}

	text, err := getSimpleText(a.reader, "Enter closing message")
	if err != nil {
		return err
	}

	if err := a.api.Resolve(ctx, a.token, recipient, text); err != nil {
		fmt.Println("Operation failed:", err.Error())
		return err
	}

	fmt.Println("Done!")
	return nil
}

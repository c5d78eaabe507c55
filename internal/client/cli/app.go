// Package cli implements the interactive medqueue terminal client.
package cli

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/okatenko/medqueue/internal/client/api"
	"github.com/okatenko/medqueue/internal/client/config"
)

// apiClient is the slice of the API client the CLI needs. The real
// api.Client satisfies it; tests provide a stub.
type apiClient interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (api.LoginResult, error)
	Send(ctx context.Context, token, text, recipient string) error
	Updates(ctx context.Context, token string, lastID int64) ([]api.Message, error)
	MarkAnswered(ctx context.Context, token, author string) error
	Resolve(ctx context.Context, token, recipient, text string) error
	Health(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    apiClient
	reader *bufio.Reader

	token      string
	userName   string
	userRole   string
	lastSeenID int64
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := api.New(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin)}, nil
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) isStaff() bool {
	return a.userRole == "Staff"
}

// fetchUpdates pulls messages newer than the cursor and advances it past
// everything it prints.
func (a *App) fetchUpdates(ctx context.Context) ([]api.Message, error) {
	msgs, err := a.api.Updates(ctx, a.token, a.lastSeenID)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if m.ID > a.lastSeenID {
			a.lastSeenID = m.ID
		}
	}
	return msgs, nil
}

// StartUpdatesWatcher polls the server until the context is cancelled,
// printing whatever arrived since the last poll.
func (a *App) StartUpdatesWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reqCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			msgs, err := a.fetchUpdates(reqCtx)
			cancel()
			if err != nil {
				continue
			}
			for _, m := range msgs {
				printMessage(m)
			}

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

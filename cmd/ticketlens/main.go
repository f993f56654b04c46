package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/ticketlens/internal/extension/client"
	"github.com/markdave123-py/ticketlens/internal/extension/session"
)

var backendURL string

func main() {
	root := &cobra.Command{
		Use:          "ticketlens",
		Short:        "Predict which source files a ticket will touch",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&backendURL, "backend",
		envOr("TICKETLENS_BACKEND", "http://localhost:8080"), "TicketLens backend URL")

	root.AddCommand(
		loginCmd(),
		logoutCmd(),
		analyzeCmd(),
		watchCmd(),
		usageCmd(),
		feedbackCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newSession builds the session manager around the persisted token file.
// The provider only matters for login; restored sessions don't need it.
func newSession(provider session.Provider) (*session.Manager, error) {
	path, err := session.DefaultStorePath()
	if err != nil {
		return nil, err
	}
	store := session.NewFileStore(path)

	register := func(ctx context.Context, creds *session.Credentials) error {
		c := client.New(backendURL, staticToken(creds.IDToken))
		return c.Register(ctx, creds.UID, creds.Email, creds.DisplayName, creds.PhotoURL)
	}

	return session.NewManager(provider, store, register), nil
}

// restoredSession loads the persisted session and fails if nobody is signed in.
func restoredSession(ctx context.Context) (*session.Manager, error) {
	mgr, err := newSession(session.NewStaticProvider(session.Credentials{}))
	if err != nil {
		return nil, err
	}
	if err := mgr.Initialize(ctx); err != nil {
		return nil, err
	}
	if mgr.State() != session.SignedIn {
		return nil, fmt.Errorf("not signed in; run `ticketlens login` first")
	}
	return mgr, nil
}

// staticToken adapts a raw token string to the client's TokenSource.
type staticToken string

func (t staticToken) IDToken(_ context.Context, _ bool) (string, error) {
	if t == "" {
		return "", fmt.Errorf("no token")
	}
	return string(t), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/ticketlens/internal/core"
	"github.com/markdave123-py/ticketlens/internal/extension/client"
	"github.com/markdave123-py/ticketlens/internal/extension/extract"
	"github.com/markdave123-py/ticketlens/internal/extension/overlay"
	"github.com/markdave123-py/ticketlens/internal/extension/session"
	"github.com/markdave123-py/ticketlens/internal/extension/watch"
	"github.com/markdave123-py/ticketlens/internal/models"
)

func loginCmd() *cobra.Command {
	var token, uid, email, name string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a Google-issued ID token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("--token is required")
			}
			provider := session.NewStaticProvider(session.Credentials{
				UID: uid, Email: email, DisplayName: name, IDToken: token,
			})
			mgr, err := newSession(provider)
			if err != nil {
				return err
			}
			if err := mgr.SignInWithGoogle(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Signed in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "ID token from the web sign-in flow")
	cmd.Flags().StringVar(&uid, "uid", "", "identity uid")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newSession(session.NewStaticProvider(session.Credentials{}))
			if err != nil {
				return err
			}
			_ = mgr.Initialize(cmd.Context())
			if err := mgr.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	var key, output string
	cmd := &cobra.Command{
		Use:   "analyze <page-url-or-file>",
		Short: "Extract a ticket page and predict the files it will touch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := restoredSession(cmd.Context())
			if err != nil {
				return err
			}
			c := client.New(backendURL, mgr)
			overlays := overlay.NewManager()

			fragment, err := runAnalysis(cmd.Context(), c, overlays, args[0], key)
			if writeErr := writeFragment(output, fragment); writeErr != nil {
				return writeErr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "override the ticket key derived from the URL")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the overlay HTML to a file instead of stdout")
	return cmd
}

func watchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <page-url>",
		Short: "Re-run analysis whenever the page navigates to a new ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := restoredSession(cmd.Context())
			if err != nil {
				return err
			}
			c := client.New(backendURL, mgr)
			overlays := overlay.NewManager()
			pageURL := args[0]

			source := func(ctx context.Context) (string, error) {
				ticket, err := fetchTicket(ctx, pageURL)
				if err != nil {
					return "", err
				}
				return ticket.Key, nil
			}
			inject := func(ctx context.Context, state string) error {
				fragment, err := runAnalysis(ctx, c, overlays, pageURL, state)
				if err != nil && !errors.Is(err, client.ErrAnalyzePending) {
					fmt.Println(fragment)
					return err
				}
				fmt.Println(fragment)
				return nil
			}

			w := watch.New(source, inject, watch.WithInterval(interval))
			err = w.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "poll interval")
	return cmd
}

func usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show the remaining monthly quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := restoredSession(cmd.Context())
			if err != nil {
				return err
			}
			status, err := client.New(backendURL, mgr).CheckUsage(cmd.Context())
			if err != nil {
				return err
			}
			if status.MonthlyLimit < 0 {
				fmt.Printf("%s plan: %d tickets analyzed this month (unlimited)\n",
					status.SubscriptionTier, status.UsedTickets)
				return nil
			}
			fmt.Printf("%s plan: %d/%d tickets used, %d remaining\n",
				status.SubscriptionTier, status.UsedTickets, status.MonthlyLimit, status.RemainingTickets)
			return nil
		},
	}
}

func feedbackCmd() *cobra.Command {
	var accurate bool
	var rating int
	var comment string
	cmd := &cobra.Command{
		Use:   "feedback <analysis-id>",
		Short: "Rate a past analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := restoredSession(cmd.Context())
			if err != nil {
				return err
			}
			c := client.New(backendURL, mgr)
			if err := c.SubmitFeedback(cmd.Context(), args[0], accurate, rating, comment); err != nil {
				return err
			}
			fmt.Println("Feedback recorded.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&accurate, "accurate", false, "the prediction was accurate")
	cmd.Flags().IntVar(&rating, "rating", 0, "accuracy rating 1..5")
	cmd.Flags().StringVar(&comment, "comment", "", "free-text comment")
	return cmd
}

// runAnalysis is the extract -> predict -> render pipeline. It always returns
// an overlay fragment: the result view on success, the error view otherwise.
func runAnalysis(ctx context.Context, c *client.Client, overlays *overlay.Manager, page, keyOverride string) (string, error) {
	ticket, err := fetchTicket(ctx, page)
	if err != nil {
		return renderFailure(overlays, err), err
	}
	if keyOverride != "" {
		ticket.Key = keyOverride
	}

	result, err := c.Analyze(ctx, ticket.FullText(), ticket.Key)
	if err != nil {
		return renderFailure(overlays, err), err
	}

	fragment, err := overlays.RenderResult(result)
	if err != nil {
		return "", err
	}
	return fragment, nil
}

func renderFailure(overlays *overlay.Manager, err error) string {
	msg := "Analysis failed"
	var apiErr *client.APIError
	switch {
	case errors.Is(err, core.ErrExtraction):
		msg = "No ticket content found on this page"
	case errors.As(err, &apiErr):
		msg = apiErr.Error()
	case errors.Is(err, core.ErrNoUser):
		msg = "You are signed out; run `ticketlens login`"
	}
	fragment, renderErr := overlays.RenderError(msg)
	if renderErr != nil {
		return msg
	}
	return fragment
}

func fetchTicket(ctx context.Context, page string) (*models.Ticket, error) {
	var body io.ReadCloser
	pageURL := page

	if strings.HasPrefix(page, "http://") || strings.HasPrefix(page, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, page, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %d", page, resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(page)
		if err != nil {
			return nil, err
		}
		body = f
		pageURL = "file://" + strings.TrimSuffix(page, ".html")
	}
	defer body.Close()

	return extract.FromReader(body, pageURL)
}

func writeFragment(path, fragment string) error {
	if fragment == "" {
		return nil
	}
	if path == "" {
		fmt.Println(fragment)
		return nil
	}
	return os.WriteFile(path, []byte(fragment), 0o644)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/hrygo/rift/plugin/capability"
	"github.com/hrygo/rift/plugin/oauth"
)

const (
	authTimeout      = 5 * time.Minute
	authPollInterval = time.Second
)

func newAuthCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:       "auth <google|spotify>",
		Short:     "Sign in to a provider, or revoke its stored token",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(capability.ProviderGoogle), string(capability.ProviderSpotify)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			provider := capability.Provider(args[0])
			s, err := newServer(ctx, "warn")
			if err != nil {
				return err
			}
			m, ok := s.OAuth.Manager(provider)
			if !ok {
				s.Shutdown(context.Background())
				return fmt.Errorf("%w: %s is not configured", oauth.ErrUnknownProvider, provider)
			}

			if revoke {
				defer s.Shutdown(context.Background())
				if err := m.Revoke(ctx); err != nil {
					return fmt.Errorf("failed to revoke %s token: %w", provider, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed out of %s.\n", provider)
				return nil
			}

			url, err := s.OAuth.AuthURL(provider)
			if err != nil {
				s.Shutdown(context.Background())
				return err
			}

			// The consent page redirects back to the local API, so it serves
			// until the token lands in the store.
			srvCtx, stopServer := context.WithCancel(ctx)
			errCh := make(chan error, 1)
			go func() { errCh <- s.Start(srvCtx) }()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Opening %s\n", url)
			if err := browser.OpenURL(url); err != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Open the link above in a browser to continue.")
			}

			waitErr := waitForToken(ctx, m, errCh)
			stopServer()
			if err := <-errCh; err != nil && waitErr == nil {
				waitErr = err
			}
			if waitErr != nil {
				return waitErr
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s.\n", provider)
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Delete the stored token instead of signing in.")
	return cmd
}

// waitForToken polls m until it holds a token. A server failure reported on
// errCh ends the wait; errCh is then drained, so callers must not read it again.
func waitForToken(ctx context.Context, m *oauth.Manager, errCh chan error) error {
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	ticker := time.NewTicker(authPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errors.New("timed out waiting for sign-in")
			}
			return ctx.Err()
		case err := <-errCh:
			errCh <- nil
			if err != nil {
				return err
			}
			return errors.New("server stopped before sign-in completed")
		case <-ticker.C:
			if m.EnsureAuth(ctx) == nil {
				return nil
			}
		}
	}
}

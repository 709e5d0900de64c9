package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hrygo/rift/server/assistant"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Route a single prompt and print the result",
		Example: `  rift ask "what's on my calendar tomorrow"
  rift ask "play bohemian rhapsody"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := newServer(ctx, "warn")
			if err != nil {
				return err
			}
			defer s.Shutdown(context.Background())

			res, err := s.Assistant.RoutePrompt(ctx, assistant.Request{
				Text: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			if res.Failed() {
				// Already printed.
				cmd.SilenceErrors = true
				return fmt.Errorf("%s", res.Type)
			}
			return nil
		},
	}
	return cmd
}

// printResult writes the user-facing part of res.
func printResult(w io.Writer, res *assistant.Result) {
	switch {
	case res.Type == assistant.TypeAuthRequired:
		_, _ = fmt.Fprintln(w, res.Error)
		if res.AuthURL != "" {
			_, _ = fmt.Fprintf(w, "Sign in: %s\n", res.AuthURL)
		}
	case res.Error != "":
		_, _ = fmt.Fprintf(w, "Error: %s\n", res.Error)
	default:
		_, _ = fmt.Fprintln(w, strings.TrimSpace(res.Response))
	}
	if res.URL != "" {
		_, _ = fmt.Fprintf(w, "%s\n", res.URL)
	}
}

package main

import (
	"bufio"
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

const replHelp = `Commands:
  /reset    clear the pending follow-up
  /send     send the current email draft
  /history  show recent prompts of this session
  /quit     exit`

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive session that keeps follow-ups between prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := newServer(ctx, "warn")
			if err != nil {
				return err
			}
			defer s.Shutdown(context.Background())
			if err := s.StartBackground(ctx); err != nil {
				return err
			}

			r := &repl{svc: s.Assistant, in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
			return r.run(ctx)
		},
	}
}

type repl struct {
	svc       assistant.AssistantService
	in        io.Reader
	out       io.Writer
	sessionID string
}

func (r *repl) run(ctx context.Context) error {
	_, _ = fmt.Fprintln(r.out, "rift: type a request, /help for commands.")
	scanner := bufio.NewScanner(r.in)
	for {
		_, _ = fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := r.handle(ctx, line)
		if err != nil {
			_, _ = fmt.Fprintf(r.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (r *repl) handle(ctx context.Context, line string) (bool, error) {
	switch line {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		_, _ = fmt.Fprintln(r.out, replHelp)
		return false, nil
	case "/reset":
		if r.sessionID == "" {
			return false, nil
		}
		if err := r.svc.Reset(ctx, r.sessionID); err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(r.out, "Session reset.")
		return false, nil
	case "/send":
		if r.sessionID == "" {
			_, _ = fmt.Fprintln(r.out, "No draft to send.")
			return false, nil
		}
		res, err := r.svc.SendDraft(ctx, r.sessionID)
		if err != nil {
			return false, err
		}
		printResult(r.out, res)
		return false, nil
	case "/history":
		if r.sessionID == "" {
			return false, nil
		}
		rows, err := r.svc.History(ctx, r.sessionID, 10)
		if err != nil {
			return false, err
		}
		for i := len(rows) - 1; i >= 0; i-- {
			_, _ = fmt.Fprintf(r.out, "  %-16s %s\n", rows[i].ResultType, rows[i].Prompt)
		}
		return false, nil
	}

	res, err := r.svc.RoutePrompt(ctx, assistant.Request{SessionID: r.sessionID, Text: line})
	if err != nil {
		return false, err
	}
	r.sessionID = res.SessionID
	printResult(r.out, res)
	return false, nil
}

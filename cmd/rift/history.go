package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrygo/rift/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit     int
		sessionID string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently routed prompts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := setupLogger("warn"); err != nil {
				return err
			}
			p, err := profileFromViper()
			if err != nil {
				return err
			}
			st, err := openStore(ctx, p)
			if err != nil {
				return err
			}
			defer st.Close()

			find := &store.FindPromptHistory{Limit: limit}
			if sessionID != "" {
				find.SessionID = &sessionID
			}
			rows, err := st.ListPromptHistory(ctx, find)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}
			return writeHistory(cmd, rows, p.Location())
		},
	}
	cmd.Flags().IntVar(&limit, "limit", store.DefaultHistoryLimit, "Maximum number of prompts to list.")
	cmd.Flags().StringVar(&sessionID, "session", "", "Only list prompts of this session.")
	return cmd
}

func writeHistory(cmd *cobra.Command, rows []*store.PromptHistory, loc *time.Location) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No prompts yet.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tTYPE\tPROMPT")
	for _, row := range rows {
		ts := time.Unix(row.CreatedTs, 0).In(loc).Format("2006-01-02 15:04")
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", ts, row.ResultType, row.Prompt)
	}
	return tw.Flush()
}

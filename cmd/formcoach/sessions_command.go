package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"formcoach/internal/store"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			sessions, err := st.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, []string{
					shortSessionID(s.ID),
					s.StartTimestamp.Local().Format(time.DateTime),
					fmt.Sprintf("%.1fs", s.DurationSeconds),
					strconv.Itoa(s.FeedbackCount),
					fmt.Sprintf("%.1f%%", s.GoodFormPercentage),
					s.Backend,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Started", "Duration", "Verdicts", "Good Form", "Backend"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list")
	return cmd
}

func shortSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

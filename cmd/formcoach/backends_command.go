package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"formcoach/internal/notifications"
	"formcoach/internal/runner"
)

func newBackendsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List pose backends and probe which ones respond",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			registry := runner.BuildRegistry(cfg, notifications.Noop{}, logger)
			defer registry.Close()

			available := make(map[string]bool)
			for _, id := range registry.ProbeAvailability(cmd.Context()) {
				available[id] = true
			}

			rows := make([][]string, 0)
			for _, d := range registry.Registered() {
				rows = append(rows, []string{
					d.ID,
					d.DisplayName,
					yesNo(available[d.ID]),
					yesNo(d.ID == cfg.Backends.Preferred),
					yesNo(d.Fallback),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Available", "Preferred", "Fallback"},
				rows,
				nil,
			))
			return nil
		},
	}
}

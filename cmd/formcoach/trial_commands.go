package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"formcoach/internal/access"
	"formcoach/internal/store"
)

func newTrialCommand(ctx *commandContext) *cobra.Command {
	trialCmd := &cobra.Command{
		Use:   "trial",
		Short: "Inspect the anonymous trial counter",
	}
	trialCmd.AddCommand(newTrialStatusCommand(ctx))
	trialCmd.AddCommand(newTrialResetCommand(ctx))
	return trialCmd
}

func withGate(ctx *commandContext, cmd *cobra.Command, fn func(*access.Gate) error) error {
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

	gate, err := access.NewGate(cmd.Context(), st, cfg.Access.TrialLimit, logger)
	if err != nil {
		return err
	}
	return fn(gate)
}

func newTrialStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how many anonymous sessions remain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGate(ctx, cmd, func(gate *access.Gate) error {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Used", "Limit", "Remaining"},
					[][]string{{
						strconv.Itoa(gate.Count()),
						strconv.Itoa(gate.Limit()),
						strconv.Itoa(gate.Remaining()),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newTrialResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the anonymous trial counter to zero",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGate(ctx, cmd, func(gate *access.Gate) error {
				previous := gate.Count()
				if err := gate.Reset(cmd.Context()); err != nil {
					return fmt.Errorf("reset trial counter: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Trial counter reset (was %d of %d)\n", previous, gate.Limit())
				return nil
			})
		},
	}
}

package main

import (
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"formcoach/internal/engine"
	"formcoach/internal/runner"
	"formcoach/internal/sessionstats"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var duration time.Duration
	var exercise string
	var backendID string
	var authenticated bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a coaching session",
		Long: "Run a coaching session against the configured frame source. Verdicts are printed " +
			"whenever they change. The session stops after --duration or on Ctrl+C.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			renderer := newConsoleRenderer(out, shouldColorize(out))
			r, err := runner.New(signalCtx, runner.Options{
				Config:   cfg,
				Logger:   logger,
				Renderer: renderer,
				Exercise: exercise,
				Backend:  backendID,
			})
			if err != nil {
				return err
			}
			defer r.Close()

			caller := engine.Caller{Authenticated: authenticated || cfg.Access.Authenticated}
			result, err := r.Run(signalCtx, caller, duration)
			if err != nil {
				return err
			}
			if result.Outcome != engine.Started {
				if result.Message != "" {
					return fmt.Errorf("session not started: %s", result.Message)
				}
				return fmt.Errorf("session not started: %s", result.Outcome)
			}
			if name := r.Registry().ActiveDisplayName(); name != "" {
				fmt.Fprintf(out, "Backend: %s\n", name)
			}
			printSessionSummary(out, result.Snapshot)
			return nil
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop the session after this long (0 runs until interrupted)")
	cmd.Flags().StringVarP(&exercise, "exercise", "e", "", "Pin the exercise (push-up, squat, generic, or a custom name); auto classifies")
	cmd.Flags().StringVarP(&backendID, "backend", "b", "", "Preferred pose backend (subprocess, http, synthetic)")
	cmd.Flags().BoolVar(&authenticated, "authenticated", false, "Bypass the anonymous trial limit")
	return cmd
}

// consoleRenderer prints a line each time the verdict text or exercise changes.
type consoleRenderer struct {
	out      io.Writer
	colorize bool

	mu   sync.Mutex
	last string
}

func newConsoleRenderer(out io.Writer, colorize bool) *consoleRenderer {
	return &consoleRenderer{out: out, colorize: colorize}
}

func (c *consoleRenderer) Render(u engine.Update) {
	key := u.Label.String() + "|" + u.Feedback.Message
	c.mu.Lock()
	defer c.mu.Unlock()
	if key == c.last {
		return
	}
	c.last = key

	label := u.Label.DisplayName()
	message := u.Feedback.Message
	if u.Synthetic {
		message += " (synthetic)"
	}
	fmt.Fprintln(c.out, renderStatusLine(label, severityKind(u.Feedback.Severity), message, c.colorize))
}

func printSessionSummary(out io.Writer, snap sessionstats.Snapshot) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Session %s\n", snap.ID)
	fmt.Fprintln(out, renderTable(
		[]string{"Backend", "Duration", "Verdicts", "Good", "Warning", "Error", "Good Form", "Mean Confidence"},
		[][]string{{
			snap.Backend,
			fmt.Sprintf("%.1fs", snap.DurationSeconds),
			strconv.Itoa(snap.FeedbackCount),
			strconv.Itoa(snap.GoodCount),
			strconv.Itoa(snap.WarningCount),
			strconv.Itoa(snap.ErrorCount),
			fmt.Sprintf("%.1f%%", snap.GoodFormPercentage),
			fmt.Sprintf("%.2f", snap.MeanConfidence),
		}},
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}

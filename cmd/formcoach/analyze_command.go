package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"formcoach/internal/backend"
	"formcoach/internal/estimator"
	"formcoach/internal/pose"
	"formcoach/internal/runner"
)

type analyzeOutput struct {
	Exercise  string  `json:"exercise"`
	AutoGuess string  `json:"auto_guess"`
	Message   string  `json:"message"`
	Severity  string  `json:"severity"`
	Rule      string  `json:"rule"`
	Score     float64 `json:"confidence"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var exercise string
	var width, height int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <pose.json>",
		Short: "Evaluate one pose estimate offline",
		Long: "Evaluate a pose estimate saved in the backend wire format " +
			"(layout, poses, normalized) and print the verdict for the best pose.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read pose file: %w", err)
			}
			var raw backend.Output
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("decode pose file: %w", err)
			}
			if raw.Layout == "" {
				raw.Layout = backend.LayoutCOCO17
			}

			pipeline, err := runner.BuildPipeline(cfg, exercise)
			if err != nil {
				return err
			}
			frame := pose.Frame{Width: width, Height: height}
			subject, ok := estimator.Best(estimator.Normalize(raw, frame))
			if !ok {
				return fmt.Errorf("no pose found in %s", args[0])
			}
			result, ok := pipeline.Analyze(subject)
			if !ok {
				return fmt.Errorf("pose in %s has too few confident keypoints", args[0])
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(analyzeOutput{
					Exercise:  result.Label.String(),
					AutoGuess: result.AutoGuess.String(),
					Message:   result.Feedback.Message,
					Severity:  result.Feedback.Severity.String(),
					Rule:      result.Feedback.Rule,
					Score:     result.Feedback.Confidence,
				})
			}
			fmt.Fprintln(out, renderStatusLine(result.Label.DisplayName(), severityKind(result.Feedback.Severity), result.Feedback.Message, shouldColorize(out)))
			fmt.Fprintf(out, "  %-*s %s\n", statusLabelWidth, "Auto guess:", result.AutoGuess.DisplayName())
			fmt.Fprintf(out, "  %-*s %.2f\n", statusLabelWidth, "Confidence:", result.Feedback.Confidence)
			return nil
		},
	}

	cmd.Flags().StringVarP(&exercise, "exercise", "e", "", "Pin the exercise instead of classifying")
	cmd.Flags().IntVar(&width, "width", 0, "Frame width for normalized coordinates (default 640)")
	cmd.Flags().IntVar(&height, "height", 0, "Frame height for normalized coordinates (default 480)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the verdict as JSON")
	return cmd
}

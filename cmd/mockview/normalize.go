package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/mockview/internal/feedback"
	"github.com/MikeSquared-Agency/mockview/internal/transcript"
)

var normalizePrompt bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize [transcript-file]",
	Short: "Parse a transcript and report adequacy and the permitted score band",
	Long: "Reads a \"role: content\" transcript from the given file, or stdin, and prints the parsed turns " +
		"with adequacy statistics as JSON. With --prompt the scoring prompt is printed instead.",
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizePrompt, "prompt", false, "Print the scoring prompt instead of JSON")
	rootCmd.AddCommand(normalizeCmd)
}

type normalizeReport struct {
	Turns                 []transcript.NormalizedTurn `json:"turns"`
	AdequateUserResponses int                         `json:"adequate_user_responses"`
	HasInsufficientData   bool                        `json:"has_insufficient_data"`
	ScoreBand             [2]float64                  `json:"score_band"`
}

func runNormalize(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open transcript: %w", err)
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	norm := transcript.Normalize(string(raw))
	out := cmd.OutOrStdout()

	if normalizePrompt {
		_, err := fmt.Fprintln(out, feedback.BuildPrompt(norm.Turns, norm.HasInsufficientData))
		return err
	}

	band := feedback.BandFor(norm.AdequateUserResponses)
	report := normalizeReport{
		Turns:                 norm.Turns,
		AdequateUserResponses: norm.AdequateUserResponses,
		HasInsufficientData:   norm.HasInsufficientData,
		ScoreBand:             [2]float64{band.MinScore, band.MaxScore},
	}
	if report.Turns == nil {
		report.Turns = []transcript.NormalizedTurn{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/claude/liftlog/internal/training"
	"github.com/spf13/cobra"
)

// maxWeight bounds calculator inputs so results stay finite.
const maxWeight = 100_000

func parseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || w < 0 || math.IsNaN(w) || w > maxWeight {
		return 0, fmt.Errorf("invalid weight %q", s)
	}
	return w, nil
}

func newOneRepMaxCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "1rm <weight> <reps>",
		Short:   "Estimate a one-rep max",
		Example: "  liftctl 1rm 100 5",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := parseWeight(args[0])
			if err != nil {
				return err
			}
			reps, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid reps %q", args[1])
			}

			est := estimate{
				Epley:     training.Epley(weight, reps),
				Brzycki:   training.Brzycki(weight, reps),
				OneRepMax: training.OneRepMax(weight, reps),
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), est)
			}
			printEstimate(cmd.OutOrStdout(), weight, reps, est)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

type estimate struct {
	Epley     float64 `json:"epley"`
	Brzycki   float64 `json:"brzycki"`
	OneRepMax float64 `json:"one_rep_max"`
}

func printEstimate(w io.Writer, weight float64, reps int, est estimate) {
	fmt.Fprintf(w, "%s × %d\n", training.FormatWeight(weight), reps)
	fmt.Fprintf(w, "  Epley    %s\n", training.FormatWeight(est.Epley))
	fmt.Fprintf(w, "  Brzycki  %s\n", training.FormatWeight(est.Brzycki))
	fmt.Fprintf(w, "  1RM      %s\n", highlight.Render(training.FormatWeight(est.OneRepMax)))
	if est.OneRepMax == 0 {
		fmt.Fprintf(w, "  (reps must be between 1 and %d)\n", training.MaxEstimateReps)
	}
}

func newTableCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "table <one-rep-max>",
		Short:   "Print the rep-max table for a one-rep max",
		Example: "  liftctl table 140",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oneRM, err := parseWeight(args[0])
			if err != nil {
				return err
			}
			rows := training.RepPercentageTable(oneRM)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, header.Render(fmt.Sprintf("%4s  %4s  %s", "REPS", "%1RM", "WEIGHT")))
			for _, r := range rows {
				fmt.Fprintf(out, "%4d  %3d%%  %s\n", r.Reps, r.Percent, training.FormatWeight(r.Weight))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	highlight = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true)
	header    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
)

package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newReasonCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "reason [rdfs|owl-rl]...",
		Short:     "Expand the graph with inferred triples",
		Long:      "Apply rule sets to the stored graph until no new triples are inferred.\nWithout arguments RDFS runs before OWL-RL.",
		ValidArgs: []string{"rdfs", "owl-rl"},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			results, err := svc.Reason(cmd.Context(), args...)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					r.Ruleset,
					strconv.Itoa(r.Added),
					strconv.Itoa(r.Passes),
					r.Duration.Round(time.Millisecond).String(),
				})
			}
			printTable(cmd.OutOrStdout(), []string{"ruleset", "added", "passes", "duration"}, rows)
			return nil
		},
	}
}

package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"catgraph/internal/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "history [queries|imports]",
		Short:     "List the query or import history",
		Long:      "List history entries from oldest to newest. The entry under the cursor is\nmarked with *. The default is the query history.",
		ValidArgs: []string{"queries", "imports"},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			h := svc.QueryHistory()
			if len(args) == 1 && args[0] == "imports" {
				h = svc.ImportHistory()
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), historyOutput(h))
			}
			cur, _ := h.Value()
			var rows [][]string
			for i, e := range h.Entries() {
				mark := ""
				if e == cur {
					mark = "*"
				}
				rows = append(rows, []string{strconv.Itoa(i), mark, e})
			}
			printTable(cmd.OutOrStdout(), []string{"#", "", "entry"}, rows)
			return nil
		},
	}
}

type historyJSON struct {
	Position string   `json:"position"`
	Entries  []string `json:"entries"`
}

func historyOutput(h *history.History) historyJSON {
	return historyJSON{Position: h.Position(), Entries: h.Entries()}
}

package cli

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the workspace and the stored graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			st, err := svc.Status(cmd.Context())
			if err != nil {
				return err
			}
			prefixes := make([]string, 0, len(st.Namespaces))
			for p := range st.Namespaces {
				prefixes = append(prefixes, p)
			}
			sort.Strings(prefixes)
			return render(cmd, st, []field{
				{"workspace", st.Workspace},
				{"store", st.Store},
				{"triples", strconv.Itoa(st.Triples)},
				{"imports", strings.Join(st.Imports, "; ")},
				{"namespaces", strings.Join(prefixes, ", ")},
				{"query history", strconv.Itoa(st.Queries)},
				{"import history", strconv.Itoa(st.Harvests)},
				{"saved queries", strconv.Itoa(st.SavedCount)},
				{"catalog host", st.CatalogHost},
			})
		},
	}
}

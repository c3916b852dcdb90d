package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"catgraph/internal/graph"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		replace bool
		format  string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a Turtle, N-Triples or RDF/XML file into the graph",
		Long: "Load an RDF file (.ttl, .nt, .rdf, optionally zstd-compressed as .zst) into the\n" +
			"store. With --new the graph is replaced and the base ontology reloaded.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f graph.Format
			if format != "" {
				var err error
				if f, err = graph.ParseFormat(format); err != nil {
					return err
				}
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.ImportFile(cmd.Context(), args[0], f, replace)
			if err != nil {
				return err
			}
			return render(cmd, res, []field{
				{"file", res.File},
				{"format", string(res.Format)},
				{"added", strconv.Itoa(res.Added)},
				{"triples", strconv.Itoa(res.Triples)},
				{"duration", res.Duration.Round(time.Millisecond).String()},
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "new", false, "Replace the graph instead of adding to it")
	cmd.Flags().StringVar(&format, "format", "", "RDF format (turtle, nt, rdfxml); inferred from the file name when empty")

	return cmd
}

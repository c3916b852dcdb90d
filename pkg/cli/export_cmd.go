package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"catgraph/internal/graph"
	"catgraph/internal/service"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		reason bool
	)

	cmd := &cobra.Command{
		Use:   "export [destination]",
		Short: "Write the graph as Turtle or N-Triples",
		Long: "Serialize the stored graph. The destination is a local path or an\n" +
			"s3://, gs:// or az:// URL; a .zst suffix compresses the document.\n" +
			"Without a destination the graph is written to " + service.RepoFile + " in the workspace.\n" +
			"With --reason the RDFS and OWL RL closure is written; the store keeps only\n" +
			"the asserted triples.",
		Example: "  catgraph export\n  catgraph export s3://bucket/graphs/catalog.nt.zst\n  catgraph export --reason closure.ttl",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f graph.Format
			if format != "" {
				var err error
				if f, err = graph.ParseFormat(format); err != nil {
					return err
				}
			}
			req := service.ExportRequest{Format: f, Reason: reason}
			if len(args) == 1 {
				req.Dest = args[0]
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			art, err := svc.Export(cmd.Context(), req)
			if err != nil {
				return err
			}
			fields := []field{
				{"location", art.Location},
				{"triples", strconv.Itoa(art.Triples)},
			}
			if reason {
				fields = append(fields, field{"inferred", strconv.Itoa(art.Inferred)})
			}
			return render(cmd, art, append(fields,
				field{"bytes", strconv.Itoa(art.Bytes)},
				field{"compressed", strconv.FormatBool(art.Compressed)},
				field{"blake3", art.Digest},
			))
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "RDF format (turtle, nt); inferred from the destination when empty")
	cmd.Flags().BoolVar(&reason, "reason", false, "write the RDFS and OWL RL closure without storing the inferred triples")

	return cmd
}

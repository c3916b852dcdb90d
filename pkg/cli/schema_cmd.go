package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"catgraph/internal/service"
)

func newSchemaCmd(a *app) *cobra.Command {
	var req service.SchemaRequest

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Reconstruct the entity/relationship schema document",
		Long: "Run the schema queries against the graph and write the document as\n" +
			"<name>" + service.SchemaSuffix + " in the workspace, or to --dest (a path or\n" +
			"s3://, gs://, az:// URL).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.Schema(cmd.Context(), req)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), res.Artifact)
			}
			printDetail(cmd.OutOrStdout(), []field{
				{"label", res.Document.Meta.Label},
				{"tables", strconv.Itoa(res.Document.Definitions.Len())},
				{"location", res.Artifact.Location},
				{"bytes", strconv.Itoa(res.Artifact.Bytes)},
				{"blake3", res.Artifact.Digest},
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Model name (default: derived from the first import)")
	cmd.Flags().StringVar(&req.Dest, "dest", "", "Destination path or URL")

	return cmd
}

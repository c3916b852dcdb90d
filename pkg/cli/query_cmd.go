package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"catgraph/internal/service"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		file    string
		saved   string
		saveAs  string
		raw     bool
		unquote bool
	)

	cmd := &cobra.Command{
		Use:   "query [statement]",
		Short: "Run a SELECT or INSERT statement against the graph",
		Long: "Run a statement against the triples(subject, predicate, object, ...) table.\n" +
			"Namespace placeholders {DIMD}, {RDF}, {RDFS}, {OWL} and {XSD} are expanded.\n" +
			"Statements enter the query history before they run.",
		Example: "  catgraph query \"SELECT subject FROM triples WHERE predicate = '{RDF}type'\"\n" +
			"  catgraph query --saved tables\n  catgraph query -f lineage.sql --save-as lineage",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			opts := service.QueryOptions{Compact: !raw, Unquote: unquote, SaveAs: saveAs}

			var res *service.QueryResult
			switch {
			case saved != "":
				if len(args) > 0 || file != "" {
					return fmt.Errorf("--saved cannot be combined with a statement")
				}
				res, err = svc.RunSaved(cmd.Context(), saved, opts)
			default:
				stmt, serr := readStatement(cmd.InOrStdin(), file, args)
				if serr != nil {
					return serr
				}
				res, err = svc.Query(cmd.Context(), stmt, opts)
			}
			if err != nil {
				return err
			}
			return writeQueryResult(cmd.OutOrStdout(), getOutputFormat(cmd) == "json", res)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the statement from a file (- for stdin)")
	cmd.Flags().StringVar(&saved, "saved", "", "Run a saved statement")
	cmd.Flags().StringVar(&saveAs, "save-as", "", "Save the statement under a name after it ran")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print full IRIs instead of prefix:local names")
	cmd.Flags().BoolVar(&unquote, "unquote", false, "Percent-decode values")

	return cmd
}

func readStatement(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass the statement as an argument or with --file, not both")
	case file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read statement: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := os.ReadFile(file) //nolint:gosec // path is caller-controlled
		if err != nil {
			return "", fmt.Errorf("read statement: %w", err)
		}
		return string(data), nil
	case len(args) == 0:
		return "", fmt.Errorf("a statement is required")
	}
	return strings.Join(args, " "), nil
}

type queryOutput struct {
	Columns      []string   `json:"columns,omitempty"`
	Rows         [][]string `json:"rows,omitempty"`
	RowsAffected int64      `json:"rows_affected,omitempty"`
	DurationMS   int64      `json:"duration_ms"`
}

func writeQueryResult(w io.Writer, asJSON bool, res *service.QueryResult) error {
	if asJSON {
		return printJSON(w, queryOutput{
			Columns:      res.Columns,
			Rows:         res.Rows,
			RowsAffected: res.RowsAffected,
			DurationMS:   res.Duration.Milliseconds(),
		})
	}
	if res.Write {
		_, _ = fmt.Fprintf(w, "%d row(s) affected (%s)\n", res.RowsAffected, res.Duration.Round(time.Millisecond))
		return nil
	}
	printTable(w, res.Columns, res.Rows)
	_, _ = fmt.Fprintf(w, "(%d row(s), %s)\n", len(res.Rows), res.Duration.Round(time.Millisecond))
	return nil
}

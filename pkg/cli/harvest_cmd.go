package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"catgraph/internal/service"
)

func newHarvestCmd(a *app) *cobra.Command {
	var (
		replace bool
		reason  bool
		last    bool
	)

	cmd := &cobra.Command{
		Use:   "harvest <connection> <container>",
		Short: "Harvest a catalog container into the graph",
		Long: "Fetch the datasets of a catalog container, convert them into triples and\n" +
			"load them into the store. Without --new the harvest adds to the graph.",
		Example: "  catgraph harvest HANA_PROD /SALES --new\n  catgraph harvest --last --reason",
		Args: func(cmd *cobra.Command, args []string) error {
			if last {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if err := a.ensureCatalogPassword(cmd, svc); err != nil {
				return err
			}

			var res *service.HarvestResult
			if last {
				token, ok := svc.ImportHistory().Current()
				if !ok {
					return fmt.Errorf("import history is empty")
				}
				res, err = svc.HarvestToken(cmd.Context(), token, replace, reason)
			} else {
				res, err = svc.Harvest(cmd.Context(), service.HarvestRequest{
					Connection: args[0],
					Container:  args[1],
					Replace:    replace,
					Reason:     reason,
				})
			}
			if err != nil {
				return err
			}
			fields := []field{
				{"import", res.Token},
				{"namespace", res.Namespace},
				{"datasets", strconv.Itoa(res.Datasets)},
				{"skipped", strconv.Itoa(res.Skipped)},
				{"columns", strconv.Itoa(res.Columns)},
				{"triples", strconv.Itoa(res.Triples)},
				{"added", strconv.Itoa(res.Added)},
			}
			for _, r := range res.Reasoning {
				fields = append(fields, field{"inferred (" + r.Ruleset + ")", strconv.Itoa(r.Added)})
			}
			fields = append(fields, field{"duration", res.Duration.Round(time.Millisecond).String()})
			return render(cmd, res, fields)
		},
	}

	cmd.Flags().BoolVar(&replace, "new", false, "Replace the graph instead of adding to it")
	cmd.Flags().BoolVar(&reason, "reason", false, "Run the RDFS and OWL-RL rules after loading")
	cmd.Flags().BoolVar(&last, "last", false, "Repeat the most recent harvest from the import history")

	return cmd
}

// ensureCatalogPassword prompts for the catalog password when it is the only
// missing connection setting.
func (a *app) ensureCatalogPassword(cmd *cobra.Command, svc *service.Service) error {
	missing := a.cfg.Catalog(svc.Workspace()).Missing()
	if len(missing) != 1 || missing[0] != "password" {
		return nil
	}
	if _, ok := terminalFd(cmd.InOrStdin()); !ok {
		return nil
	}
	pw, err := promptPassword(cmd, "Catalog password")
	if err != nil {
		return err
	}
	a.cfg.CatalogPassword = pw
	return nil
}

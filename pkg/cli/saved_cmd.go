package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSavedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved statements",
	}
	cmd.AddCommand(newSavedListCmd(a))
	cmd.AddCommand(newSavedShowCmd(a))
	cmd.AddCommand(newSavedDeleteCmd(a))
	return cmd
}

func newSavedListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			saved := svc.Saved()
			if getOutputFormat(cmd) == "json" {
				all := make(map[string]string)
				for _, name := range saved.Names() {
					all[name], _ = saved.Get(name)
				}
				return printJSON(cmd.OutOrStdout(), all)
			}
			var rows [][]string
			for _, name := range saved.Names() {
				stmt, _ := saved.Get(name)
				rows = append(rows, []string{name, stmt})
			}
			printTable(cmd.OutOrStdout(), []string{"name", "statement"}, rows)
			return nil
		},
	}
}

func newSavedShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a saved statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			stmt, err := svc.SavedQuery(args[0])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"name": args[0], "statement": stmt})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), stmt)
			return nil
		},
	}
}

func newSavedDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if err := svc.Saved().Delete(args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted saved statement %q\n", args[0])
			return nil
		},
	}
}

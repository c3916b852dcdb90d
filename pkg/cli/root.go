// Package cli implements the catgraph command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"catgraph/internal/config"
	"catgraph/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	rootCmd := newRootCmd(a)
	err := rootCmd.ExecuteContext(ctx)
	a.close()
	if err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			if kind := errorKind(err); kind != "" {
				errObj["kind"] = kind
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// errorKind classifies the typed domain errors for JSON output.
func errorKind(err error) string {
	var (
		nf *domain.NotFoundError
		ve *domain.ValidationError
		ce *domain.ConflictError
		pe *domain.ParseError
		ie *domain.IntegrityError
	)
	switch {
	case errors.Is(err, domain.ErrEmptyCatalog):
		return "empty_catalog"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ce):
		return "conflict"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &ie):
		return "integrity"
	}
	return ""
}

func newRootCmd(a *app) *cobra.Command {
	var (
		workspace string
		storePath string
		logLevel  string
		envFile   string
		output    string
	)

	rootCmd := &cobra.Command{
		Use:   "catgraph",
		Short: "Catalog metadata graph tool",
		Long: "Harvest dataset metadata from a catalog service into a semantic graph,\n" +
			"reason over it, query it and reconstruct entity/relationship schema documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			// Apply precedence: flag > env > .env file > default
			if envFile != "" {
				if err := config.LoadDotEnv(envFile); err != nil {
					return err
				}
			}
			overrides := flagOverrides{}
			if cmd.Flags().Changed("workspace") {
				overrides.workspace = &workspace
			}
			if cmd.Flags().Changed("store") {
				overrides.store = &storePath
			}
			if cmd.Flags().Changed("log-level") {
				overrides.logLevel = &logLevel
			}
			return a.configure(cmd.ErrOrStderr(), overrides)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "data", "Workspace directory (store, histories, config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Triple store file (default <workspace>/catalog.sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before CATGRAPH_* variables are read")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	// Pipeline commands
	rootCmd.AddCommand(newHarvestCmd(a))
	rootCmd.AddCommand(newImportCmd(a))
	rootCmd.AddCommand(newReasonCmd(a))
	rootCmd.AddCommand(newQueryCmd(a))
	rootCmd.AddCommand(newSavedCmd(a))
	rootCmd.AddCommand(newSchemaCmd(a))
	rootCmd.AddCommand(newExportCmd(a))

	// Workspace commands
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newShellCmd(a))
	rootCmd.AddCommand(newScheduleCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	// Shell completions
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}

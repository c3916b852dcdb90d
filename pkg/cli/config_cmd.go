package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"catgraph/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change the workspace configuration",
	}

	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigSetCatalogCmd(a))

	return cmd
}

// configView is the effective configuration: environment overrides applied
// on top of config.yaml.
type configView struct {
	Workspace  string                 `yaml:"workspace" json:"workspace"`
	Store      string                 `yaml:"store" json:"store"`
	LogLevel   string                 `yaml:"log_level" json:"log_level"`
	Catalog    config.CatalogSettings `yaml:"catalog" json:"catalog"`
	ImportList []string               `yaml:"import_list" json:"import_list"`
	Schedules  []config.Schedule      `yaml:"schedules,omitempty" json:"schedules,omitempty"`
	Sinks      []string               `yaml:"export_sinks" json:"export_sinks"`
}

func newConfigShowCmd(a *app) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			ws := svc.Workspace()
			view := configView{
				Workspace:  a.cfg.Workspace,
				Store:      a.cfg.StorePath,
				LogLevel:   a.cfg.LogLevel,
				Catalog:    a.cfg.Catalog(ws),
				ImportList: ws.ImportList,
				Schedules:  ws.Schedules,
				Sinks:      exportSinks(a.cfg),
			}
			if !reveal {
				view.Catalog.Password = maskSecret(view.Catalog.Password)
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), view)
			}
			data, err := yaml.Marshal(view)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show the catalog password unmasked")

	return cmd
}

// exportSinks lists the destination schemes usable with the current credentials.
func exportSinks(cfg *config.Config) []string {
	sinks := []string{"file"}
	if cfg.HasS3Config() {
		sinks = append(sinks, "s3")
	}
	// gs falls back to application default credentials.
	sinks = append(sinks, "gs")
	if cfg.AzureAccount != "" {
		sinks = append(sinks, "az")
	}
	return sinks
}

// maskSecret masks a sensitive string, showing first 4 and last 4 chars.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 10 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func newConfigSetCatalogCmd(a *app) *cobra.Command {
	var settings config.CatalogSettings

	cmd := &cobra.Command{
		Use:   "set-catalog",
		Short: "Store the catalog connection in config.yaml",
		Long: "Update the catalog connection of the workspace. Only the given flags change.\n" +
			"Without --password the password is prompted for when stdin is a terminal.\n" +
			"The password is stored encrypted with CATGRAPH_ENCRYPTION_KEY.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			cur := svc.Workspace().Catalog
			flags := cmd.Flags()
			if flags.Changed("host") {
				if err := validateHostURL(settings.Host); err != nil {
					return err
				}
			}
			setIfChanged(flags, "host", &cur.Host, settings.Host)
			setIfChanged(flags, "tenant", &cur.Tenant, settings.Tenant)
			setIfChanged(flags, "user", &cur.User, settings.User)
			setIfChanged(flags, "api-path", &cur.APIPath, settings.APIPath)
			if flags.Changed("password") {
				cur.Password = settings.Password
			} else if _, ok := terminalFd(cmd.InOrStdin()); ok {
				pw, err := promptPassword(cmd, "Catalog password (empty keeps the current one)")
				if err != nil {
					return err
				}
				if pw != "" {
					cur.Password = pw
				}
			}
			if err := svc.SetCatalog(cur); err != nil {
				return err
			}
			path := a.cfg.WorkspaceFile(config.WorkspaceConfigName)
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"status": "ok",
					"path":   path,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Catalog connection saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&settings.Host, "host", "", "Catalog host URL")
	cmd.Flags().StringVar(&settings.Tenant, "tenant", "", "Catalog tenant")
	cmd.Flags().StringVar(&settings.User, "user", "", "Catalog user")
	cmd.Flags().StringVar(&settings.Password, "password", "", "Catalog password")
	cmd.Flags().StringVar(&settings.APIPath, "api-path", "", "Catalog API base path")

	return cmd
}

// setIfChanged copies src into dst when the named flag was given.
func setIfChanged(fs *pflag.FlagSet, name string, dst *string, src string) {
	if fs.Changed(name) {
		*dst = src
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WorkspaceConfigName is the file name of the workspace config.
const WorkspaceConfigName = "config.yaml"

// Workspace represents <workspace>/config.yaml.
type Workspace struct {
	Catalog    CatalogSettings `yaml:"catalog" json:"catalog"`
	ImportList []string        `yaml:"import_list" json:"import_list"`
	Schedules  []Schedule      `yaml:"schedules,omitempty" json:"schedules,omitempty"`
}

// CatalogSettings holds the catalog connection of a workspace.
type CatalogSettings struct {
	Host     string `yaml:"host,omitempty" json:"host,omitempty"`
	Tenant   string `yaml:"tenant,omitempty" json:"tenant,omitempty"`
	User     string `yaml:"user,omitempty" json:"user,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	APIPath  string `yaml:"api_path,omitempty" json:"api_path,omitempty"`
}

// Schedule is a recurring harvest of one catalog container.
type Schedule struct {
	Cron       string `yaml:"cron" json:"cron"`
	Connection string `yaml:"connection" json:"connection"`
	Container  string `yaml:"container" json:"container"`
	Reason     bool   `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// Missing returns the names of the settings a harvest needs that are unset.
func (s CatalogSettings) Missing() []string {
	var out []string
	if s.Host == "" {
		out = append(out, "host")
	}
	if s.Tenant == "" {
		out = append(out, "tenant")
	}
	if s.User == "" {
		out = append(out, "user")
	}
	if s.Password == "" {
		out = append(out, "password")
	}
	return out
}

// ImportToken returns the import list and history token of a harvest.
func ImportToken(connection, container string) string {
	return connection + "," + container
}

// ParseImportToken splits an import token into connection and container.
func ParseImportToken(token string) (connection, container string, err error) {
	connection, container, ok := strings.Cut(token, ",")
	if !ok || connection == "" || container == "" {
		return "", "", fmt.Errorf("invalid import token %q: want connection,container", token)
	}
	return connection, container, nil
}

// RecordImport resets or extends the import list with source.
func (w *Workspace) RecordImport(source string, replace bool) {
	if replace {
		w.ImportList = []string{source}
		return
	}
	w.ImportList = append(w.ImportList, source)
}

// Catalog returns the workspace catalog settings with any CATGRAPH_CATALOG_*
// overrides from c applied.
func (c *Config) Catalog(w *Workspace) CatalogSettings {
	s := w.Catalog
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&s.Host, c.CatalogHost)
	override(&s.Tenant, c.CatalogTenant)
	override(&s.User, c.CatalogUser)
	override(&s.Password, c.CatalogPassword)
	override(&s.APIPath, c.CatalogAPIPath)
	return s
}

// LoadWorkspace reads a workspace config and opens its sealed password.
// A missing file yields an empty workspace.
func LoadWorkspace(path string, box *SecretBox) (*Workspace, error) {
	w := &Workspace{}
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return w, nil
		}
		return nil, fmt.Errorf("read workspace config: %w", err)
	}
	if err := yaml.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("parse workspace config: %w", err)
	}
	if box != nil && w.Catalog.Password != "" {
		pw, err := box.Open(w.Catalog.Password)
		if err != nil {
			return nil, fmt.Errorf("open catalog password: %w", err)
		}
		w.Catalog.Password = pw
	}
	return w, nil
}

// Save writes the workspace config with the password sealed by box.
func (w *Workspace) Save(path string, box *SecretBox) error {
	out := *w
	if box != nil {
		sealed, err := box.Seal(w.Catalog.Password)
		if err != nil {
			return fmt.Errorf("seal catalog password: %w", err)
		}
		out.Catalog.Password = sealed
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal workspace config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

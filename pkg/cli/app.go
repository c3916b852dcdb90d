package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"catgraph/internal/config"
	"catgraph/internal/schema"
	"catgraph/internal/service"
	"catgraph/internal/triplestore"
)

// app holds the resolved configuration and the lazily opened workspace of
// one CLI invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *triplestore.Store
	svc    *service.Service

	// catalog overrides the HTTP catalog client; tests inject fakes here.
	catalog service.CatalogFactory
}

func newApp() *app {
	return &app{logger: slog.Default()}
}

type flagOverrides struct {
	workspace *string
	store     *string
	logLevel  *string
}

// configure loads the environment configuration and applies flag overrides.
func (a *app) configure(logOut io.Writer, o flagOverrides) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if o.workspace != nil {
		cfg.Workspace = *o.workspace
		if os.Getenv("CATGRAPH_STORE") == "" {
			cfg.StorePath = cfg.WorkspaceFile(config.DefaultStoreFile)
		}
	}
	if o.store != nil {
		cfg.StorePath = *o.store
	}
	if o.logLevel != nil {
		cfg.LogLevel = *o.logLevel
	}
	a.cfg = cfg
	a.logger = newLogger(logOut, cfg)
	for _, w := range cfg.Warnings {
		a.logger.Warn(w)
	}
	return nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// service opens the store and loads the workspace on first use.
func (a *app) service() (*service.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	if a.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	var templates *schema.Templates
	if a.cfg.TemplatesFile != "" {
		ts, err := schema.LoadTemplates(a.cfg.TemplatesFile)
		if err != nil {
			return nil, err
		}
		templates = ts
	}
	if err := os.MkdirAll(a.cfg.Workspace, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	store, err := triplestore.Open(a.cfg.StorePath, a.logger)
	if err != nil {
		return nil, err
	}
	svc, err := service.New(service.Deps{
		Config:    a.cfg,
		Store:     store,
		Catalog:   a.catalog,
		Templates: templates,
		Logger:    a.logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.store, a.svc = store, svc
	return svc, nil
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", "error", err)
	}
	a.store, a.svc = nil, nil
}

// terminalFd returns the descriptor of r when it is an interactive terminal.
func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd()) //nolint:gosec // descriptors fit in int
	return fd, term.IsTerminal(fd)
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(cmd *cobra.Command, label string) (string, error) {
	fd, ok := terminalFd(cmd.InOrStdin())
	if !ok {
		return "", fmt.Errorf("%s is required (stdin is not a terminal)", label)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	pw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return string(pw), nil
}

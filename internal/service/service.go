// Package service orchestrates the catalog pipeline: harvesting into the
// triple store, file imports, statements, reasoning, schema reconstruction
// and exports.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"catgraph/internal/catalog"
	"catgraph/internal/config"
	"catgraph/internal/domain"
	"catgraph/internal/export"
	"catgraph/internal/graph"
	"catgraph/internal/history"
	"catgraph/internal/reasoner"
	"catgraph/internal/schema"
	"catgraph/internal/triplestore"
)

// Workspace file names.
const (
	QueryHistoryFile  = "query_history.json"
	ImportHistoryFile = "import_history.json"
	SavedQueriesFile  = "queries.json"
	RepoFile          = "repo.ttl"
)

// CatalogFetcher harvests the dataset records of one catalog container.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context, connectionID, containerPath string) ([]domain.DatasetRecord, error)
}

// CatalogFactory creates a fetcher for a catalog connection.
type CatalogFactory func(settings config.CatalogSettings) (CatalogFetcher, error)

// Deps are the collaborators of a Service. Store and Config are required.
type Deps struct {
	Config    *config.Config
	Store     *triplestore.Store
	Catalog   CatalogFactory     // default: catalog.Client
	Templates *schema.Templates  // default: embedded queries.csv
	Exporter  *export.Exporter   // default: export.New(Config)
	Reasoner  *reasoner.Reasoner // default: reasoner.New
	Logger    *slog.Logger
}

// Service runs pipeline operations against one workspace. It is meant to be
// used from one goroutine at a time; the scheduler serializes its calls.
type Service struct {
	cfg      *config.Config
	store    *triplestore.Store
	catalog  CatalogFactory
	schema   *schema.Reconstructor
	exporter *export.Exporter
	reasoner *reasoner.Reasoner
	box      *config.SecretBox
	logger   *slog.Logger

	workspace *config.Workspace
	queries   *history.History
	imports   *history.History
	saved     *SavedQueries
}

// New loads the workspace state (config.yaml, histories, saved queries) and
// creates a Service.
func New(d Deps) (*Service, error) {
	if d.Config == nil || d.Store == nil {
		return nil, fmt.Errorf("service: config and store are required")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	box, err := config.NewSecretBox(d.Config.EncryptionKey)
	if err != nil {
		return nil, err
	}
	recon, err := schema.NewReconstructor(d.Templates, logger)
	if err != nil {
		return nil, err
	}
	s := &Service{
		cfg:      d.Config,
		store:    d.Store,
		catalog:  d.Catalog,
		schema:   recon,
		exporter: d.Exporter,
		reasoner: d.Reasoner,
		box:      box,
		logger:   logger,
	}
	if s.catalog == nil {
		s.catalog = s.newCatalogClient
	}
	if s.exporter == nil {
		s.exporter = export.New(d.Config, logger)
	}
	if s.reasoner == nil {
		s.reasoner = reasoner.New(logger, 0)
	}

	if s.workspace, err = config.LoadWorkspace(s.cfg.WorkspaceFile(config.WorkspaceConfigName), box); err != nil {
		return nil, err
	}
	if s.queries, err = history.Load(s.cfg.WorkspaceFile(QueryHistoryFile), s.cfg.HistorySize); err != nil {
		return nil, err
	}
	if s.imports, err = history.Load(s.cfg.WorkspaceFile(ImportHistoryFile), s.cfg.HistorySize); err != nil {
		return nil, err
	}
	if s.saved, err = LoadSavedQueries(s.cfg.WorkspaceFile(SavedQueriesFile)); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) newCatalogClient(settings config.CatalogSettings) (CatalogFetcher, error) {
	c, err := catalog.New(catalog.Config{
		Host:              settings.Host,
		Tenant:            settings.Tenant,
		User:              settings.User,
		Password:          settings.Password,
		APIPath:           settings.APIPath,
		Timeout:           s.cfg.CatalogTimeout,
		MaxRetries:        s.cfg.CatalogMaxRetries,
		RequestsPerSecond: s.cfg.CatalogRPS,
		Concurrency:       s.cfg.CatalogConcurrency,
		SkipTags:          s.cfg.SkipTags,
		SkipLineage:       s.cfg.SkipLineage,
	}, s.logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Workspace returns the loaded workspace config. Callers that modify it
// persist the change with SaveWorkspace.
func (s *Service) Workspace() *config.Workspace { return s.workspace }

// SaveWorkspace writes config.yaml.
func (s *Service) SaveWorkspace() error {
	return s.workspace.Save(s.cfg.WorkspaceFile(config.WorkspaceConfigName), s.box)
}

// SetCatalog replaces the stored catalog connection settings.
func (s *Service) SetCatalog(settings config.CatalogSettings) error {
	s.workspace.Catalog = settings
	return s.SaveWorkspace()
}

// QueryHistory returns the statement history.
func (s *Service) QueryHistory() *history.History { return s.queries }

// ImportHistory returns the harvest history ("connection,container" tokens).
func (s *Service) ImportHistory() *history.History { return s.imports }

// Saved returns the saved statements.
func (s *Service) Saved() *SavedQueries { return s.saved }

// loadGraph adds g to the store. With replace the stored graph becomes the
// base ontology plus g in one transaction, so a failed load keeps the old
// graph. It returns the number of triples of g added.
func (s *Service) loadGraph(ctx context.Context, g *graph.Graph, replace bool) (int, error) {
	if !replace {
		if err := s.ensureBaseOntology(ctx); err != nil {
			return 0, err
		}
		return s.store.Insert(ctx, g)
	}
	base, err := graph.BaseOntology()
	if err != nil {
		return 0, err
	}
	added, err := s.store.Replace(ctx, base, g)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("graph replaced", "base_triples", added[0], "added", added[1])
	return added[1], nil
}

// ensureBaseOntology loads the base ontology into an empty store.
func (s *Service) ensureBaseOntology(ctx context.Context) error {
	n, err := s.store.Len(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return s.loadBaseOntology(ctx)
}

func (s *Service) loadBaseOntology(ctx context.Context) error {
	base, err := graph.BaseOntology()
	if err != nil {
		return err
	}
	n, err := s.store.Insert(ctx, base)
	if err != nil {
		return fmt.Errorf("load base ontology: %w", err)
	}
	s.logger.Debug("base ontology loaded", "triples", n)
	return nil
}

// Status summarizes the workspace.
type Status struct {
	Workspace   string            `json:"workspace"`
	Store       string            `json:"store"`
	Triples     int               `json:"triples"`
	Imports     []string          `json:"imports"`
	Namespaces  map[string]string `json:"namespaces"`
	Queries     int               `json:"query_history"`
	Harvests    int               `json:"import_history"`
	SavedCount  int               `json:"saved_queries"`
	CatalogHost string            `json:"catalog_host,omitempty"`
}

// Status reports the store size and workspace contents.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	n, err := s.store.Len(ctx)
	if err != nil {
		return nil, err
	}
	ns, err := s.store.Namespaces(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Workspace:   s.cfg.Workspace,
		Store:       s.cfg.StorePath,
		Triples:     n,
		Imports:     append([]string{}, s.workspace.ImportList...),
		Namespaces:  ns,
		Queries:     s.queries.Len(),
		Harvests:    s.imports.Len(),
		SavedCount:  len(s.saved.Names()),
		CatalogHost: s.cfg.Catalog(s.workspace).Host,
	}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catgraph/internal/config"
	"catgraph/internal/domain"
	"catgraph/internal/graph"
	"catgraph/internal/reasoner"
)

// InstancePrefix is the display prefix bound to the instance namespace.
const InstancePrefix = "instance"

// HarvestRequest selects one catalog container to harvest.
type HarvestRequest struct {
	Connection string
	Container  string
	// Replace empties the store first; otherwise the harvest adds to it.
	Replace bool
	// Reason runs the RDFS and OWL-RL rules after loading.
	Reason bool
}

// HarvestResult reports what a harvest loaded.
type HarvestResult struct {
	Token     string            `json:"import"`
	Namespace string            `json:"namespace"`
	Datasets  int               `json:"datasets"`
	Skipped   int               `json:"skipped"`
	Columns   int               `json:"columns"`
	Triples   int               `json:"triples"`
	Added     int               `json:"added"`
	Reasoning []reasoner.Result `json:"reasoning,omitempty"`
	Duration  time.Duration     `json:"duration"`
}

// Harvest fetches a catalog container, builds its graph and loads it into
// the store. An empty container yields domain.ErrEmptyCatalog and leaves the
// store untouched. On success the import list and history record the
// container.
func (s *Service) Harvest(ctx context.Context, req HarvestRequest) (*HarvestResult, error) {
	start := time.Now()
	req.Connection = strings.TrimSpace(req.Connection)
	req.Container = strings.TrimSpace(req.Container)
	if req.Connection == "" || req.Container == "" {
		return nil, domain.ErrValidation("connection and container are required")
	}
	settings := s.cfg.Catalog(s.workspace)
	if missing := settings.Missing(); len(missing) > 0 {
		return nil, domain.ErrValidation("catalog settings missing: %s", strings.Join(missing, ", "))
	}
	fetcher, err := s.catalog(settings)
	if err != nil {
		return nil, err
	}

	s.logger.Info("harvesting catalog", "connection", req.Connection, "container", req.Container, "replace", req.Replace)
	records, err := fetcher.FetchCatalog(ctx, req.Connection, req.Container)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("harvest %s %s: %w", req.Connection, req.Container, domain.ErrEmptyCatalog)
	}

	ns := graph.InstanceNamespace(settings.Host, settings.Tenant)
	b, err := graph.NewBuilder(ns, s.logger)
	if err != nil {
		return nil, err
	}
	g := b.Build(records)
	stats := b.Stats()

	if err := s.store.BindNamespace(ctx, InstancePrefix, b.Namespace()); err != nil {
		return nil, err
	}
	added, err := s.loadGraph(ctx, g, req.Replace)
	if err != nil {
		return nil, err
	}

	res := &HarvestResult{
		Token:     config.ImportToken(req.Connection, req.Container),
		Namespace: b.Namespace(),
		Datasets:  stats.Datasets,
		Skipped:   stats.Skipped,
		Columns:   stats.Columns,
		Triples:   g.Len(),
		Added:     added,
	}
	if req.Reason {
		if res.Reasoning, err = s.reasoner.ExpandAll(ctx, s.store); err != nil {
			return nil, fmt.Errorf("reasoning after harvest: %w", err)
		}
	}

	s.workspace.RecordImport(res.Token, req.Replace)
	if err := s.SaveWorkspace(); err != nil {
		return nil, err
	}
	if err := s.imports.Append(res.Token); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	s.logger.Info("harvest finished",
		"import", res.Token,
		"datasets", res.Datasets,
		"triples", res.Triples,
		"added", res.Added,
		"duration", res.Duration,
	)
	return res, nil
}

// HarvestToken re-runs a harvest from an import history token.
func (s *Service) HarvestToken(ctx context.Context, token string, replace, reason bool) (*HarvestResult, error) {
	conn, container, err := config.ParseImportToken(token)
	if err != nil {
		return nil, domain.ErrValidation("%v", err)
	}
	return s.Harvest(ctx, HarvestRequest{Connection: conn, Container: container, Replace: replace, Reason: reason})
}

// HarvestSchedule runs a scheduled harvest, adding to the store. An empty
// container is reported in the log and is not a failure.
func (s *Service) HarvestSchedule(ctx context.Context, sc config.Schedule) error {
	_, err := s.Harvest(ctx, HarvestRequest{Connection: sc.Connection, Container: sc.Container, Reason: sc.Reason})
	if errors.Is(err, domain.ErrEmptyCatalog) {
		s.logger.Info("scheduled harvest found no datasets", "connection", sc.Connection, "container", sc.Container)
		return nil
	}
	return err
}

// AddSchedule stores a schedule in config.yaml. Identical schedules conflict.
func (s *Service) AddSchedule(sc config.Schedule) error {
	for _, existing := range s.workspace.Schedules {
		if existing == sc {
			return domain.ErrConflict("schedule %q for %s already exists", sc.Cron, config.ImportToken(sc.Connection, sc.Container))
		}
	}
	s.workspace.Schedules = append(s.workspace.Schedules, sc)
	return s.SaveWorkspace()
}

// RemoveSchedule deletes the schedules of a container.
func (s *Service) RemoveSchedule(connection, container string) (int, error) {
	kept := s.workspace.Schedules[:0]
	removed := 0
	for _, sc := range s.workspace.Schedules {
		if sc.Connection == connection && sc.Container == container {
			removed++
			continue
		}
		kept = append(kept, sc)
	}
	if removed == 0 {
		return 0, domain.ErrNotFound("no schedule for %s", config.ImportToken(connection, container))
	}
	s.workspace.Schedules = kept
	return removed, s.SaveWorkspace()
}

package service

import (
	"context"
	"strings"
	"time"

	"catgraph/internal/domain"
	"catgraph/internal/triplestore"
)

// QueryOptions control statement display and bookkeeping.
type QueryOptions struct {
	// Compact rewrites IRIs with the bound namespace prefixes.
	Compact bool
	// Unquote percent-decodes values.
	Unquote bool
	// SaveAs stores the statement under this name after it ran.
	SaveAs string
}

// QueryResult is a displayed statement result with its runtime.
type QueryResult struct {
	*domain.QueryResult
	Duration time.Duration
}

// Query runs a SELECT or INSERT statement against the store. The statement
// enters the query history before it runs, so failed statements can be
// recalled and fixed. Other statement forms fail with *domain.ParseError.
func (s *Service) Query(ctx context.Context, stmt string, opts QueryOptions) (*QueryResult, error) {
	if strings.TrimSpace(stmt) == "" {
		return nil, domain.ErrValidation("statement is required")
	}
	if err := s.queries.Append(stmt); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.store.Exec(ctx, stmt)
	if err != nil {
		s.logger.Warn("statement failed", "error", err)
		return nil, err
	}
	elapsed := time.Since(start)
	s.logger.Info("statement executed", "write", res.Write, "rows", len(res.Rows), "affected", res.RowsAffected, "duration", elapsed)

	if opts.SaveAs != "" {
		if err := s.saved.Set(opts.SaveAs, stmt); err != nil {
			return nil, err
		}
	}

	prefixes, err := s.store.Namespaces(ctx)
	if err != nil {
		return nil, err
	}
	display := triplestore.Display(res, prefixes, triplestore.DisplayOptions{Compact: opts.Compact, Unquote: opts.Unquote})
	return &QueryResult{QueryResult: display, Duration: elapsed}, nil
}

// SavedQuery returns a saved statement by name.
func (s *Service) SavedQuery(name string) (string, error) {
	stmt, ok := s.saved.Get(name)
	if !ok {
		return "", domain.ErrNotFound("saved query %q not found", name)
	}
	return stmt, nil
}

// RunSaved runs a saved statement.
func (s *Service) RunSaved(ctx context.Context, name string, opts QueryOptions) (*QueryResult, error) {
	stmt, err := s.SavedQuery(name)
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, stmt, opts)
}

package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"catgraph/internal/domain"
)

// SavedQueries is a persisted name -> statement map (queries.json).
type SavedQueries struct {
	path    string
	queries map[string]string
}

// LoadSavedQueries reads path; a missing file yields an empty set.
func LoadSavedQueries(path string) (*SavedQueries, error) {
	sq := &SavedQueries{path: path, queries: map[string]string{}}
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if os.IsNotExist(err) {
		return sq, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read saved queries: %w", err)
	}
	if len(data) == 0 {
		return sq, nil
	}
	if err := json.Unmarshal(data, &sq.queries); err != nil {
		return nil, fmt.Errorf("parse saved queries %s: %w", path, err)
	}
	return sq, nil
}

// Names returns the saved query names in sorted order.
func (q *SavedQueries) Names() []string {
	names := make([]string, 0, len(q.queries))
	for n := range q.queries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the statement saved as name.
func (q *SavedQueries) Get(name string) (string, bool) {
	stmt, ok := q.queries[name]
	return stmt, ok
}

// Set saves stmt as name, replacing an existing entry, and persists.
func (q *SavedQueries) Set(name, stmt string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrValidation("saved query name is required")
	}
	q.queries[name] = stmt
	return q.save()
}

// Delete removes name and persists.
func (q *SavedQueries) Delete(name string) error {
	if _, ok := q.queries[name]; !ok {
		return domain.ErrNotFound("saved query %q not found", name)
	}
	delete(q.queries, name)
	return q.save()
}

func (q *SavedQueries) save() error {
	if q.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(q.queries, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal saved queries: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	return os.WriteFile(q.path, data, 0o644) //nolint:gosec // statements are not secret
}

package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"catgraph/internal/config"
	"catgraph/internal/domain"
	"catgraph/internal/service"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// fakeCatalog serves dataset records per container and records the calls.
type fakeCatalog struct {
	mu      sync.Mutex
	records map[string][]domain.DatasetRecord
	calls   []string
}

func (f *fakeCatalog) FetchCatalog(_ context.Context, connectionID, containerPath string) ([]domain.DatasetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, config.ImportToken(connectionID, containerPath))
	return f.records[containerPath], nil
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func int64Ptr(v int64) *int64 { return &v }

func salesCatalog() *fakeCatalog {
	return &fakeCatalog{records: map[string][]domain.DatasetRecord{
		"/TABLES": {
			{
				Metadata: domain.DatasetMetadata{
					URI: "/TABLES/CUSTOMER", Name: "CUSTOMER", Type: "TABLE",
					UniqueKeys: []domain.UniqueKey{{AttributeReferences: []domain.AttributeReference{{Name: "ID"}}}},
				},
				Columns: []domain.ColumnRecord{
					{Name: "ID", Type: "INTEGER"},
					{Name: "NAME", Type: "STRING", Length: int64Ptr(40)},
				},
			},
			{
				Metadata: domain.DatasetMetadata{URI: "/TABLES/ORDERS", Name: "ORDERS", Type: "TABLE"},
				Columns:  []domain.ColumnRecord{{Name: "ORDER_ID", Type: "INTEGER"}},
			},
		},
	}}
}

// cliEnv is an isolated workspace the CLI runs against.
type cliEnv struct {
	dir     string
	catalog *fakeCatalog
}

// newCLIEnv isolates the process environment and, with catalogEnv, supplies
// the catalog connection through CATGRAPH_CATALOG_* variables.
func newCLIEnv(t *testing.T, catalogEnv bool) *cliEnv {
	t.Helper()
	for _, k := range []string{
		"CATGRAPH_WORKSPACE", "CATGRAPH_STORE", "CATGRAPH_LOG_LEVEL", "CATGRAPH_LOG_FORMAT",
		"CATGRAPH_CATALOG_HOST", "CATGRAPH_CATALOG_TENANT", "CATGRAPH_CATALOG_USER",
		"CATGRAPH_CATALOG_PASSWORD", "CATGRAPH_CATALOG_API_PATH", "CATGRAPH_TEMPLATES",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("CATGRAPH_ENCRYPTION_KEY", testKey)
	if catalogEnv {
		t.Setenv("CATGRAPH_CATALOG_HOST", "https://di.example.com")
		t.Setenv("CATGRAPH_CATALOG_TENANT", "acme")
		t.Setenv("CATGRAPH_CATALOG_USER", "alice")
		t.Setenv("CATGRAPH_CATALOG_PASSWORD", "pw")
	}
	return &cliEnv{dir: t.TempDir(), catalog: salesCatalog()}
}

// run executes one CLI invocation with a fresh app, like a separate process.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	a := newApp()
	a.catalog = func(config.CatalogSettings) (service.CatalogFetcher, error) { return e.catalog, nil }
	root := newRootCmd(a)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--workspace", e.dir, "--env-file", ""}, args...))
	err = root.ExecuteContext(context.Background())
	a.close()
	return out.String(), errOut.String(), err
}

// mustRun is run that fails the test on error and returns stdout.
func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := e.run(t, "", args...)
	if err != nil {
		t.Fatalf("catgraph %s: %v\nstderr: %s", strings.Join(args, " "), err, errOut)
	}
	return out
}

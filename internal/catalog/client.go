// Package catalog fetches dataset metadata (factsheets, tags and lineage)
// from the remote metadata catalog service.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"catgraph/internal/domain"
	"catgraph/internal/graph"
)

// DefaultAPIPath is the metadata API root on the catalog host.
const DefaultAPIPath = "/app/datahub-app-metadata/api/v1"

// Defaults for Config fields left at their zero value.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = 500 * time.Millisecond
	DefaultConcurrency  = 4
)

// Config configures a Client.
type Config struct {
	Host     string
	Tenant   string
	User     string
	Password string
	APIPath  string

	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// RequestsPerSecond limits outgoing calls; 0 means unlimited.
	RequestsPerSecond float64
	Concurrency       int

	SkipTags    bool
	SkipLineage bool

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// StatusError is a non-200 response of the catalog service.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog request %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client talks to the catalog service. It is safe for concurrent use.
type Client struct {
	cfg     Config
	base    string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New validates cfg and creates a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, domain.ErrValidation("catalog host is required")
	}
	host, err := url.Parse(cfg.Host)
	if err != nil || host.Scheme == "" || host.Host == "" {
		return nil, domain.ErrValidation("invalid catalog host %q", cfg.Host)
	}
	if cfg.APIPath == "" {
		cfg.APIPath = DefaultAPIPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	// The API path replaces any path of the host URL.
	base := host.ResolveReference(&url.URL{Path: cfg.APIPath})
	return &Client{
		cfg:     cfg,
		base:    strings.TrimRight(base.String(), "/"),
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// BaseURL returns the API root all requests are made against.
func (c *Client) BaseURL() string { return c.base }

// FetchCatalog lists the datasets under containerPath of a connection and
// fetches a record per importable dataset, in listing order.
//
// Items of unknown file type or zero size are skipped, as are items whose
// factsheet cannot be fetched. A failed or empty listing yields an empty
// result and no error; only context cancellation is returned.
func (c *Client) FetchCatalog(ctx context.Context, connectionID, containerPath string) ([]domain.DatasetRecord, error) {
	items, err := c.ListDatasets(ctx, connectionID, containerPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("list datasets failed", "connection", connectionID, "container", containerPath, "error", err)
		return []domain.DatasetRecord{}, nil
	}
	if len(items) == 0 {
		c.logger.Info("no datasets in container", "connection", connectionID, "container", containerPath)
		return []domain.DatasetRecord{}, nil
	}

	results := make([]*domain.DatasetRecord, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for i := range items {
		ref := items[i].RemoteObjectReference
		if !ref.Importable() {
			c.logger.Debug("skipping non-dataset item", "qualified_name", ref.QualifiedName, "type", ref.RemoteObjectType)
			continue
		}
		g.Go(func() error {
			rec, err := c.fetchRecord(gctx, connectionID, ref.QualifiedName)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.Warn("skipping dataset", "qualified_name", ref.QualifiedName, "error", err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	records := make([]domain.DatasetRecord, 0, len(results))
	for _, r := range results {
		if r != nil {
			records = append(records, *r)
		}
	}
	c.logger.Info("catalog fetched", "connection", connectionID, "container", containerPath,
		"listed", len(items), "records", len(records))
	return records, nil
}

// fetchRecord fetches the factsheet of one dataset and augments it with tags
// and lineage. Only a failed factsheet is an error.
func (c *Client) fetchRecord(ctx context.Context, connectionID, qualifiedName string) (*domain.DatasetRecord, error) {
	rec, err := c.Factsheet(ctx, connectionID, qualifiedName)
	if err != nil {
		return nil, err
	}

	if !c.cfg.SkipTags {
		tags, err := c.Tags(ctx, connectionID, qualifiedName)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("tags unavailable", "qualified_name", qualifiedName, "error", err)
		} else {
			rec.Tags = tags
		}
	}

	if !c.cfg.SkipLineage {
		lineage, err := c.Lineage(ctx, connectionID, qualifiedName)
		switch {
		case err == nil:
			rec.Lineage = lineage
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case IsNotFound(err):
			c.logger.Info("no lineage found", "qualified_name", qualifiedName)
		default:
			c.logger.Error("lineage request failed", "qualified_name", qualifiedName, "error", err)
		}
	}
	return rec, nil
}

type listResponse struct {
	Datasets []domain.CatalogItem `json:"datasets"`
}

// ListDatasets lists the items of a container.
func (c *Client) ListDatasets(ctx context.Context, connectionID, containerPath string) ([]domain.CatalogItem, error) {
	path := "/catalog/connections/" + graph.EscapeSegment(connectionID) + "/containers/" + graph.EscapeSegment(containerPath)
	var resp listResponse
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Datasets, nil
}

// Factsheet fetches the metadata and columns of a dataset.
func (c *Client) Factsheet(ctx context.Context, connectionID, qualifiedName string) (*domain.DatasetRecord, error) {
	var rec domain.DatasetRecord
	if err := c.getJSON(ctx, c.datasetPath(connectionID, qualifiedName, "factsheet"), datasetQuery(connectionID, qualifiedName), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Tags fetches the tags of a dataset and its attributes.
func (c *Client) Tags(ctx context.Context, connectionID, qualifiedName string) (*domain.TagsPayload, error) {
	var tags domain.TagsPayload
	if err := c.getJSON(ctx, c.datasetPath(connectionID, qualifiedName, "tags"), datasetQuery(connectionID, qualifiedName), &tags); err != nil {
		return nil, err
	}
	return &tags, nil
}

// Lineage fetches the lineage export of a dataset. The payload is returned
// unparsed; a missing lineage is a *StatusError with code 404.
func (c *Client) Lineage(ctx context.Context, connectionID, qualifiedName string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("connectionId", connectionID)
	q.Set("qualifiedNameFilter", qualifiedName)
	body, err := c.get(ctx, "/catalog/lineage/export", q)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("lineage of %s: invalid JSON", qualifiedName)
	}
	return json.RawMessage(body), nil
}

func (c *Client) datasetPath(connectionID, qualifiedName, resource string) string {
	return "/catalog/connections/" + graph.EscapeSegment(connectionID) +
		"/datasets/" + graph.EscapeSegment(qualifiedName) + "/" + resource
}

func datasetQuery(connectionID, qualifiedName string) url.Values {
	q := url.Values{}
	q.Set("connectionId", connectionID)
	q.Set("qualifiedName", qualifiedName)
	return q
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// get performs an authenticated GET. Transport errors and 5xx responses are
// retried with exponential backoff; other non-200 responses are returned as
// *StatusError right away.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.cfg.RetryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		body, retry, err := c.do(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		c.logger.Debug("retrying catalog request", "url", target, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, target string) (body []byte, retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.SetBasicAuth(c.cfg.Tenant+`\`+c.cfg.User, c.cfg.Password)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("catalog request", "url", target, "request_id", requestID)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		se := &StatusError{StatusCode: resp.StatusCode, URL: target, Body: truncate(string(data), 200)}
		return nil, resp.StatusCode >= 500, se
	}
	return data, false, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package export writes graph snapshots and schema documents to local files
// or object storage.
package export

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"catgraph/internal/config"
	"catgraph/internal/graph"
)

// CompressedExt marks a zstd-compressed artifact.
const CompressedExt = ".zst"

// Destination schemes.
const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
	SchemeAzure = "az"
)

// Uploader stores one object. Implementations: FileUploader, S3Uploader,
// GCSUploader, AzureUploader.
type Uploader interface {
	Put(ctx context.Context, bucket, key string, data []byte) error
}

// Target is a parsed export destination.
type Target struct {
	Scheme string
	Bucket string // bucket or container; empty for local files
	Key    string // object key or local path
}

// String renders the target as a destination string.
func (t Target) String() string {
	if t.Scheme == SchemeFile {
		return t.Key
	}
	return t.Scheme + "://" + t.Bucket + "/" + t.Key
}

// Compressed reports whether the target name carries the zstd suffix.
func (t Target) Compressed() bool {
	return strings.EqualFold(filepath.Ext(t.Key), CompressedExt)
}

// ParseTarget parses a destination: a local path, file://, s3://, gs://,
// az:// or abfss://container@account.dfs.core.windows.net/key.
func ParseTarget(dest string) (Target, error) {
	if dest == "" {
		return Target{}, fmt.Errorf("empty export destination")
	}
	if !strings.Contains(dest, "://") {
		return Target{Scheme: SchemeFile, Key: dest}, nil
	}
	u, err := url.Parse(dest)
	if err != nil {
		return Target{}, fmt.Errorf("parse destination %q: %w", dest, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	t := Target{Scheme: u.Scheme, Bucket: u.Host, Key: key}
	switch u.Scheme {
	case SchemeFile:
		t.Bucket, t.Key = "", u.Path
	case SchemeS3, SchemeGCS, SchemeAzure:
	case "abfss":
		if u.User == nil {
			return Target{}, fmt.Errorf("abfss path %q missing container@account component", dest)
		}
		t.Scheme, t.Bucket = SchemeAzure, u.User.Username()
	default:
		return Target{}, fmt.Errorf("unsupported export scheme %q in %q", u.Scheme, dest)
	}
	if t.Scheme != SchemeFile && t.Bucket == "" {
		return Target{}, fmt.Errorf("empty bucket in destination %q", dest)
	}
	if t.Key == "" {
		return Target{}, fmt.Errorf("empty key in destination %q", dest)
	}
	return t, nil
}

// Artifact describes a written export.
type Artifact struct {
	Location   string `json:"location"`
	Bytes      int    `json:"bytes"`
	Digest     string `json:"blake3"`
	Compressed bool   `json:"compressed"`
	Triples    int    `json:"triples,omitempty"`
	Inferred   int    `json:"inferred,omitempty"`
}

// Exporter routes artifacts to the uploader of their destination scheme.
// Cloud uploaders are created on first use from the process config.
type Exporter struct {
	cfg    *config.Config
	logger *slog.Logger

	mu        sync.Mutex
	uploaders map[string]Uploader
}

// New creates an Exporter. cfg may be nil when only local files are written.
func New(cfg *config.Config, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		cfg:       cfg,
		logger:    logger,
		uploaders: map[string]Uploader{SchemeFile: FileUploader{}},
	}
}

// SetUploader overrides the uploader used for scheme.
func (e *Exporter) SetUploader(scheme string, u Uploader) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.uploaders[scheme] = u
}

func (e *Exporter) uploader(ctx context.Context, scheme string) (Uploader, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if u, ok := e.uploaders[scheme]; ok {
		return u, nil
	}
	if e.cfg == nil {
		return nil, fmt.Errorf("no credentials configured for %s:// exports", scheme)
	}
	var (
		u   Uploader
		err error
	)
	switch scheme {
	case SchemeS3:
		u, err = NewS3Uploader(e.cfg)
	case SchemeGCS:
		u, err = NewGCSUploader(ctx, e.cfg.GCSCredentialsFile)
	case SchemeAzure:
		u, err = NewAzureUploader(e.cfg.AzureAccount, e.cfg.AzureKey)
	default:
		err = fmt.Errorf("unsupported export scheme %q", scheme)
	}
	if err != nil {
		return nil, err
	}
	e.uploaders[scheme] = u
	return u, nil
}

// Put writes data to dest, compressing it when dest ends in ".zst".
func (e *Exporter) Put(ctx context.Context, dest string, data []byte) (*Artifact, error) {
	t, err := ParseTarget(dest)
	if err != nil {
		return nil, err
	}
	if t.Compressed() {
		if data, err = Compress(data); err != nil {
			return nil, err
		}
	}
	u, err := e.uploader(ctx, t.Scheme)
	if err != nil {
		return nil, err
	}
	if err := u.Put(ctx, t.Bucket, t.Key, data); err != nil {
		return nil, fmt.Errorf("export to %s: %w", t, err)
	}
	a := &Artifact{Location: t.String(), Bytes: len(data), Digest: Digest(data), Compressed: t.Compressed()}
	e.logger.Info("artifact exported", "location", a.Location, "bytes", a.Bytes, "blake3", a.Digest)
	return a, nil
}

// ExportGraph serializes g and writes it to dest. An empty format is inferred
// from dest, ignoring a ".zst" suffix.
func (e *Exporter) ExportGraph(ctx context.Context, g *graph.Graph, dest string, format graph.Format) (*Artifact, error) {
	if format == "" {
		var err error
		format, err = graph.FormatFromPath(strings.TrimSuffix(dest, CompressedExt))
		if err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := graph.Encode(&buf, g, format); err != nil {
		return nil, fmt.Errorf("serialize graph: %w", err)
	}
	a, err := e.Put(ctx, dest, buf.Bytes())
	if err != nil {
		return nil, err
	}
	a.Triples = g.Len()
	return a, nil
}

// Compress zstd-compresses data.
func Compress(data []byte) ([]byte, error) {
	var compressed bytes.Buffer
	encoder, err := zstd.NewWriter(&compressed)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close() //nolint:errcheck
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("close zstd encoder: %w", err)
	}
	return compressed.Bytes(), nil
}

// Decompress reads a whole zstd stream.
func Decompress(r io.Reader) ([]byte, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()
	out, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

// Digest returns the hex blake3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"catgraph/internal/config"
	"catgraph/internal/domain"
	"catgraph/internal/export"
	"catgraph/internal/schema"
)

// SchemaSuffix is appended to the model name to form the document file name.
const SchemaSuffix = "_ER_Model.json"

// DefaultModelName is used when nothing has been imported yet.
const DefaultModelName = "catalog"

// SchemaRequest selects the model name and destination of a schema document.
type SchemaRequest struct {
	// Name is the model name; empty derives it from the first import.
	Name string
	// Dest overrides the destination; empty writes
	// <workspace>/<name>_ER_Model.json.
	Dest string
}

// SchemaResult is a reconstructed document and where it was written.
type SchemaResult struct {
	Document *domain.SchemaDocument
	Artifact *export.Artifact
}

// ModelName derives the default model name from the first import list
// entry: a file name without extension, or "<connection>_<last container
// segment>" for a harvest.
func (s *Service) ModelName() string {
	if len(s.workspace.ImportList) == 0 {
		return DefaultModelName
	}
	first := s.workspace.ImportList[0]
	if conn, container, err := config.ParseImportToken(first); err == nil {
		seg := filepath.Base(strings.TrimRight(container, "/"))
		if seg == "/" || seg == "." || seg == "" {
			return conn
		}
		return conn + "_" + seg
	}
	return schema.DocumentLabel(first)
}

// Schema reconstructs the schema document from the store and writes it as
// indented JSON.
func (s *Service) Schema(ctx context.Context, req SchemaRequest) (*SchemaResult, error) {
	name := req.Name
	if name == "" {
		name = s.ModelName()
	}
	doc, err := s.schema.Reconstruct(ctx, s.store, name)
	if err != nil {
		return nil, fmt.Errorf("reconstruct schema: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema document: %w", err)
	}

	dest := req.Dest
	if dest == "" {
		dest = s.cfg.WorkspaceFile(doc.Meta.Label + SchemaSuffix)
	}
	a, err := s.exporter.Put(ctx, dest, data)
	if err != nil {
		return nil, err
	}
	s.logger.Info("schema document written", "name", doc.Meta.Label, "tables", doc.Definitions.Len(), "location", a.Location)
	return &SchemaResult{Document: doc, Artifact: a}, nil
}

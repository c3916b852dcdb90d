package service

import (
	"context"

	"catgraph/internal/export"
	"catgraph/internal/graph"
)

// ExportRequest selects what Export writes.
type ExportRequest struct {
	Dest   string       // local path or s3://, gs://, az:// URL; default <workspace>/repo.ttl
	Format graph.Format // inferred from Dest when empty
	Reason bool         // write the RDFS and OWL RL closure; the store is not changed
}

// Export writes the whole store as an RDF document.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*export.Artifact, error) {
	dest := req.Dest
	if dest == "" {
		dest = s.cfg.WorkspaceFile(RepoFile)
	}
	g, err := s.store.Graph(ctx)
	if err != nil {
		return nil, err
	}
	inferred := 0
	if req.Reason {
		if inferred, err = s.reasoner.ExpandGraph(ctx, g); err != nil {
			return nil, err
		}
		s.logger.Debug("export closure computed", "inferred", inferred)
	}
	a, err := s.exporter.ExportGraph(ctx, g, dest, req.Format)
	if err != nil {
		return nil, err
	}
	a.Inferred = inferred
	return a, nil
}

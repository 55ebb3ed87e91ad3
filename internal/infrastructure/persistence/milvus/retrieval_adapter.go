package milvus

import (
	"context"

	"bookgen-ai-api/internal/application/retrieval"
)

// RetrievalVectorRepository 将 Milvus 仓储适配为应用层向量 port。
type RetrievalVectorRepository struct {
	repo *Repository
}

func NewRetrievalVectorRepository(repo *Repository) *RetrievalVectorRepository {
	return &RetrievalVectorRepository{repo: repo}
}

var _ retrieval.VectorRepository = (*RetrievalVectorRepository)(nil)

func (r *RetrievalVectorRepository) EnsureResearchChunksCollection(ctx context.Context) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.EnsureResearchChunksCollection(ctx)
}

func (r *RetrievalVectorRepository) SearchChunks(ctx context.Context, params *retrieval.VectorSearchParams) ([]*retrieval.VectorSearchResult, error) {
	if r == nil || r.repo == nil {
		return nil, retrieval.ErrVectorDisabled
	}
	if params == nil {
		return nil, nil
	}

	results, err := r.repo.SearchChunks(ctx, &SearchParams{
		BookID:      params.BookID,
		QueryVector: params.QueryVector,
		TopK:        params.TopK,
		Kind:        params.Kind,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*retrieval.VectorSearchResult, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		out = append(out, &retrieval.VectorSearchResult{
			ID:          res.ID,
			Score:       res.Score,
			TextContent: res.TextContent,
			URL:         res.URL,
			Title:       res.Title,
		})
	}
	return out, nil
}

func (r *RetrievalVectorRepository) InsertChunks(ctx context.Context, bookID string, chunks []*retrieval.VectorResearchChunk) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}

	rows := make([]*ResearchChunk, 0, len(chunks))
	for _, c := range chunks {
		if c == nil {
			continue
		}
		rows = append(rows, &ResearchChunk{
			ID:          c.ID,
			Vector:      c.Vector,
			BookID:      c.BookID,
			ChunkSeq:    c.ChunkSeq,
			URL:         c.URL,
			Title:       c.Title,
			Kind:        c.Kind,
			TextContent: c.TextContent,
		})
	}
	return r.repo.InsertChunks(ctx, bookID, rows)
}

func (r *RetrievalVectorRepository) DropBookPartition(ctx context.Context, bookID string) error {
	if r == nil || r.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return r.repo.DropPartition(ctx, bookID)
}

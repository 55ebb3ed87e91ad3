package retrieval

import "context"

// VectorRepository 定义应用层对“向量存储/检索”的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorRepository interface {
	EnsureResearchChunksCollection(ctx context.Context) error
	SearchChunks(ctx context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error)
	InsertChunks(ctx context.Context, bookID string, chunks []*VectorResearchChunk) error
	DropBookPartition(ctx context.Context, bookID string) error
}

type VectorSearchParams struct {
	BookID      string
	QueryVector []float32
	TopK        int
	Kind        string
}

type VectorSearchResult struct {
	ID          string
	Score       float32
	TextContent string
	URL         string
	Title       string
}

type VectorResearchChunk struct {
	ID          string
	BookID      string
	ChunkSeq    int64
	URL         string
	Title       string
	Kind        string
	TextContent string
	Vector      []float32
}

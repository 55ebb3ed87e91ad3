package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	"bookgen-ai-api/pkg/metrics"
)

const (
	defaultChunkSizeRunes    = 800
	defaultChunkOverlapRunes = 80
	defaultEmbeddingBatch    = 32
)

type Indexer struct {
	embedder embedding.Embedder
	vector   VectorRepository

	embeddingBatchSize int
	chunkSizeRunes     int
	chunkOverlapRunes  int
}

func NewIndexer(embedder embedding.Embedder, vectorRepo VectorRepository, embeddingBatchSize int) *Indexer {
	bs := embeddingBatchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Indexer{
		embedder:           embedder,
		vector:             vectorRepo,
		embeddingBatchSize: bs,
		chunkSizeRunes:     defaultChunkSizeRunes,
		chunkOverlapRunes:  defaultChunkOverlapRunes,
	}
}

func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.vector != nil
}

func (i *Indexer) ensureReady(ctx context.Context) error {
	if i == nil || i.vector == nil {
		return ErrVectorDisabled
	}
	return i.vector.EnsureResearchChunksCollection(ctx)
}

// IndexMaterials 将研究材料切块、向量化并写入书籍分区。
// 返回写入的分块数。
func (i *Indexer) IndexMaterials(ctx context.Context, bookID string, materials []IndexInput) (int, error) {
	if strings.TrimSpace(bookID) == "" {
		return 0, fmt.Errorf("book_id is required")
	}
	if !i.Enabled() {
		return 0, ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return 0, err
	}

	embedInputs := make([]string, 0, len(materials))
	chunks := make([]*VectorResearchChunk, 0, len(materials))
	var seq int64

	for _, m := range materials {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		kind := strings.TrimSpace(m.Kind)
		if kind == "" {
			kind = "web_search"
		}

		for _, chunk := range splitByRunes(text, i.chunkSizeRunes, i.chunkOverlapRunes) {
			embedText := chunk
			if t := strings.TrimSpace(m.Title); t != "" {
				embedText = t + "\n" + embedText
			}

			embedInputs = append(embedInputs, embedText)
			chunks = append(chunks, &VectorResearchChunk{
				ID:          uuid.NewString(),
				BookID:      bookID,
				ChunkSeq:    seq,
				URL:         strings.TrimSpace(m.URL),
				Title:       strings.TrimSpace(m.Title),
				Kind:        kind,
				TextContent: chunk,
			})
			seq++
		}
	}

	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := i.embedBatch(ctx, embedInputs)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for idx := range chunks {
		chunks[idx].Vector = vectors[idx]
	}

	if err := i.vector.InsertChunks(ctx, bookID, chunks); err != nil {
		return 0, err
	}

	for _, c := range chunks {
		metrics.ResearchSnippetsInserted.WithLabelValues(c.Kind).Inc()
	}
	return len(chunks), nil
}

// DropBook 删除书籍的全部索引数据
func (i *Indexer) DropBook(ctx context.Context, bookID string) error {
	if i == nil || i.vector == nil {
		return ErrVectorDisabled
	}
	return i.vector.DropBookPartition(ctx, bookID)
}

func (i *Indexer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if i == nil || i.embedder == nil {
		return nil, ErrVectorDisabled
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		v64, err := i.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for _, vec := range v64 {
			f32 := make([]float32, 0, len(vec))
			for _, x := range vec {
				f32 = append(f32, float32(x))
			}
			out = append(out, f32)
		}
	}
	return out, nil
}

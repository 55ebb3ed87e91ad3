// Package research 实现研究材料采集
package research

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookgen-ai-api/internal/application/retrieval"
	"bookgen-ai-api/internal/domain/entity"
	"bookgen-ai-api/internal/domain/repository"
	infrasearch "bookgen-ai-api/internal/infrastructure/search"
	"bookgen-ai-api/pkg/logger"
)

var tracer = otel.Tracer("research")

// Searcher 定义采集器对网络搜索的最小依赖（port）。
type Searcher interface {
	Search(ctx context.Context, query string) ([]infrasearch.Result, error)
}

// Gatherer 研究材料采集器
// 搜索结果落库为来源记录，同时写入向量索引供写作阶段检索。
type Gatherer struct {
	searcher   Searcher
	indexer    *retrieval.Indexer
	sourceRepo repository.SourceRepository
}

func NewGatherer(searcher Searcher, indexer *retrieval.Indexer, sourceRepo repository.SourceRepository) *Gatherer {
	return &Gatherer{
		searcher:   searcher,
		indexer:    indexer,
		sourceRepo: sourceRepo,
	}
}

// Output 单次采集结果
type Output struct {
	SourcesAdded   int `json:"sources_added"`
	ChunksIndexed  int `json:"chunks_indexed"`
	QueriesSkipped int `json:"queries_skipped"`
}

// Gather 按查询列表采集研究材料
// 单条查询失败不会中断整体采集，失败只记录日志。
func (g *Gatherer) Gather(ctx context.Context, bookID string, queries []string) (*Output, error) {
	if strings.TrimSpace(bookID) == "" {
		return nil, fmt.Errorf("book_id is required")
	}
	if g == nil || g.searcher == nil {
		return nil, fmt.Errorf("searcher not configured")
	}

	ctx, span := tracer.Start(ctx, "research.Gather",
		trace.WithAttributes(
			attribute.String("book_id", bookID),
			attribute.Int("query_count", len(queries)),
		))
	defer span.End()

	log := logger.FromContext(ctx)
	out := &Output{}

	var sources []*entity.Source
	var materials []retrieval.IndexInput
	seen := make(map[string]bool)

	for _, query := range queries {
		query = strings.TrimSpace(query)
		if query == "" {
			out.QueriesSkipped++
			continue
		}

		results, err := g.searcher.Search(ctx, query)
		if err != nil {
			log.Warn("search query failed", "query", query, "error", err)
			out.QueriesSkipped++
			continue
		}

		for _, r := range results {
			url := strings.TrimSpace(r.URL)
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true

			sources = append(sources, &entity.Source{
				BookID:  bookID,
				URL:     url,
				Title:   strings.TrimSpace(r.Title),
				Snippet: strings.TrimSpace(r.Content),
				Kind:    entity.SourceKindWebSearch,
			})
			materials = append(materials, retrieval.IndexInput{
				URL:   url,
				Title: strings.TrimSpace(r.Title),
				Kind:  string(entity.SourceKindWebSearch),
				Text:  strings.TrimSpace(r.Content),
			})
		}
	}

	if len(sources) > 0 && g.sourceRepo != nil {
		if err := g.sourceRepo.CreateBatch(ctx, sources); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to persist sources: %w", err)
		}
		out.SourcesAdded = len(sources)
	}

	// 向量索引失败不阻塞采集结果，写作阶段会降级为无上下文生成
	if len(materials) > 0 && g.indexer != nil && g.indexer.Enabled() {
		indexed, err := g.indexer.IndexMaterials(ctx, bookID, materials)
		if err != nil {
			log.Warn("failed to index research materials", "error", err)
		} else {
			out.ChunksIndexed = indexed
		}
	}

	span.SetAttributes(
		attribute.Int("sources_added", out.SourcesAdded),
		attribute.Int("chunks_indexed", out.ChunksIndexed),
	)
	return out, nil
}

package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
)

type Engine struct {
	embedder embedding.Embedder
	vector   VectorRepository
}

func NewEngine(emb embedding.Embedder, vectorRepo VectorRepository) *Engine {
	return &Engine{
		embedder: emb,
		vector:   vectorRepo,
	}
}

func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.vector != nil
}

// Search 检索书籍分区内与查询最相关的研究片段。
// 向量能力不可用时返回 DisabledReason，调用方做降级处理。
func (e *Engine) Search(ctx context.Context, in SearchInput) (*SearchOutput, error) {
	if in.TopK <= 0 {
		in.TopK = 5
	}
	if in.TopK > 50 {
		in.TopK = 50
	}
	in.BookID = strings.TrimSpace(in.BookID)
	in.Query = strings.TrimSpace(in.Query)
	if in.BookID == "" {
		return nil, fmt.Errorf("book_id is required")
	}
	if in.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	out := &SearchOutput{}

	if !e.Enabled() {
		out.DisabledReason = ErrVectorDisabled.Error()
		return out, nil
	}
	if err := e.vector.EnsureResearchChunksCollection(ctx); err != nil {
		out.DisabledReason = err.Error()
		return out, nil
	}

	emb, err := e.embedQuery(ctx, in.Query)
	if err != nil {
		out.DisabledReason = err.Error()
		return out, nil
	}

	results, err := e.vector.SearchChunks(ctx, &VectorSearchParams{
		BookID:      in.BookID,
		QueryVector: emb,
		TopK:        in.TopK,
		Kind:        strings.TrimSpace(in.Kind),
	})
	if err != nil {
		out.DisabledReason = err.Error()
		return out, nil
	}

	out.Snippets = make([]Snippet, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		text := strings.TrimSpace(r.TextContent)
		if text == "" {
			continue
		}
		out.Snippets = append(out.Snippets, Snippet{
			ID:    strings.TrimSpace(r.ID),
			Text:  text,
			Score: float64(r.Score),
			URL:   strings.TrimSpace(r.URL),
			Title: strings.TrimSpace(r.Title),
		})
	}
	return out, nil
}

// BuildContext 将检索片段拼接为提示词上下文，按 rune 截断。
func BuildContext(snippets []Snippet, maxRunes int) string {
	if len(snippets) == 0 {
		return ""
	}

	var b strings.Builder
	for idx, s := range snippets {
		block := s.Text
		if s.Title != "" {
			block = s.Title + "\n" + block
		}
		if idx > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
	}

	out := b.String()
	if maxRunes > 0 {
		runes := []rune(out)
		if len(runes) > maxRunes {
			out = string(runes[:maxRunes])
		}
	}
	return out
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := e.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	f32 := make([]float32, 0, len(vecs[0]))
	for _, x := range vecs[0] {
		f32 = append(f32, float32(x))
	}
	return f32, nil
}

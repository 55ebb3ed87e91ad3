package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
)

type fakeEmbedder struct {
	vectors [][]float64
	err     error
	calls   [][]string
}

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeVectorRepo struct {
	ensureErr error
	searchErr error
	insertErr error

	results  []*VectorSearchResult
	inserted []*VectorResearchChunk
	dropped  []string

	lastParams *VectorSearchParams
}

func (f *fakeVectorRepo) EnsureResearchChunksCollection(context.Context) error { return f.ensureErr }

func (f *fakeVectorRepo) SearchChunks(_ context.Context, params *VectorSearchParams) ([]*VectorSearchResult, error) {
	f.lastParams = params
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeVectorRepo) InsertChunks(_ context.Context, _ string, chunks []*VectorResearchChunk) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeVectorRepo) DropBookPartition(_ context.Context, bookID string) error {
	f.dropped = append(f.dropped, bookID)
	return nil
}

func TestEngineDisabledWhenDepsMissing(t *testing.T) {
	var nilEngine *Engine
	if nilEngine.Enabled() {
		t.Error("nil engine must report disabled")
	}

	e := NewEngine(nil, &fakeVectorRepo{})
	out, err := e.Search(context.Background(), SearchInput{BookID: "b1", Query: "topic"})
	if err != nil {
		t.Fatalf("Search() error = %v, want soft degradation", err)
	}
	if out.DisabledReason == "" {
		t.Error("DisabledReason empty, want degradation reason")
	}
	if len(out.Snippets) != 0 {
		t.Errorf("snippets = %d, want none when disabled", len(out.Snippets))
	}
}

func TestEngineSearchValidatesInput(t *testing.T) {
	e := NewEngine(&fakeEmbedder{}, &fakeVectorRepo{})
	if _, err := e.Search(context.Background(), SearchInput{Query: "q"}); err == nil {
		t.Error("Search() without book_id expected error")
	}
	if _, err := e.Search(context.Background(), SearchInput{BookID: "b1", Query: "  "}); err == nil {
		t.Error("Search() without query expected error")
	}
}

func TestEngineSearchMapsResults(t *testing.T) {
	repo := &fakeVectorRepo{results: []*VectorSearchResult{
		{ID: "c1", Score: 0.92, TextContent: "  feedback loops amplify  ", Title: " Primer ", URL: "https://example.com"},
		nil,
		{ID: "c2", Score: 0.5, TextContent: "   "},
		{ID: "c3", Score: 0.4, TextContent: "second snippet"},
	}}
	e := NewEngine(&fakeEmbedder{}, repo)

	out, err := e.Search(context.Background(), SearchInput{BookID: "b1", Query: "loops", TopK: 3})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if out.DisabledReason != "" {
		t.Fatalf("DisabledReason = %q, want empty", out.DisabledReason)
	}
	// 空文本与 nil 结果被跳过
	if len(out.Snippets) != 2 {
		t.Fatalf("snippets = %d, want 2", len(out.Snippets))
	}
	first := out.Snippets[0]
	if first.Text != "feedback loops amplify" || first.Title != "Primer" {
		t.Errorf("snippet not trimmed: %+v", first)
	}
	if repo.lastParams.TopK != 3 || repo.lastParams.BookID != "b1" {
		t.Errorf("search params = %+v", repo.lastParams)
	}
}

func TestEngineSearchTopKBounds(t *testing.T) {
	repo := &fakeVectorRepo{}
	e := NewEngine(&fakeEmbedder{}, repo)

	if _, err := e.Search(context.Background(), SearchInput{BookID: "b1", Query: "q"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if repo.lastParams.TopK != 5 {
		t.Errorf("default TopK = %d, want 5", repo.lastParams.TopK)
	}

	if _, err := e.Search(context.Background(), SearchInput{BookID: "b1", Query: "q", TopK: 500}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if repo.lastParams.TopK != 50 {
		t.Errorf("capped TopK = %d, want 50", repo.lastParams.TopK)
	}
}

func TestEngineSearchDegradesOnBackendErrors(t *testing.T) {
	tests := []struct {
		name string
		repo *fakeVectorRepo
		emb  *fakeEmbedder
	}{
		{"collection unavailable", &fakeVectorRepo{ensureErr: errors.New("milvus down")}, &fakeEmbedder{}},
		{"embedding failure", &fakeVectorRepo{}, &fakeEmbedder{err: errors.New("provider 500")}},
		{"search failure", &fakeVectorRepo{searchErr: errors.New("partition missing")}, &fakeEmbedder{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(tt.emb, tt.repo)
			out, err := e.Search(context.Background(), SearchInput{BookID: "b1", Query: "q"})
			if err != nil {
				t.Fatalf("Search() error = %v, want soft degradation", err)
			}
			if out.DisabledReason == "" {
				t.Error("DisabledReason empty, want backend error surfaced as degradation")
			}
		})
	}
}

func TestBuildContext(t *testing.T) {
	snippets := []Snippet{
		{Text: "first block", Title: "Source A"},
		{Text: "second block"},
	}
	got := BuildContext(snippets, 0)
	want := "Source A\nfirst block\n\nsecond block"
	if got != want {
		t.Errorf("BuildContext() = %q, want %q", got, want)
	}

	if BuildContext(nil, 100) != "" {
		t.Error("BuildContext(nil) should be empty")
	}
}

func TestBuildContextTruncatesByRunes(t *testing.T) {
	snippets := []Snippet{{Text: strings.Repeat("系统思维", 100)}}
	got := BuildContext(snippets, 10)
	if runes := []rune(got); len(runes) != 10 {
		t.Errorf("context runes = %d, want 10", len(runes))
	}
}

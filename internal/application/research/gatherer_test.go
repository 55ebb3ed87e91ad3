package research

import (
	"context"
	"errors"
	"testing"

	"bookgen-ai-api/internal/domain/entity"
	infrasearch "bookgen-ai-api/internal/infrastructure/search"
)

type fakeSearcher struct {
	results map[string][]infrasearch.Result
	errs    map[string]error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]infrasearch.Result, error) {
	f.queries = append(f.queries, query)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

type fakeSourceRepo struct {
	batches [][]*entity.Source
	err     error
}

func (f *fakeSourceRepo) Create(_ context.Context, _ *entity.Source) error { return nil }

func (f *fakeSourceRepo) CreateBatch(_ context.Context, sources []*entity.Source) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, sources)
	return nil
}

func (f *fakeSourceRepo) ListByBook(_ context.Context, _ string) ([]*entity.Source, error) {
	return nil, nil
}

func (f *fakeSourceRepo) CountByBook(_ context.Context, _ string) (int64, error) { return 0, nil }

func (f *fakeSourceRepo) DeleteByBook(_ context.Context, _ string) error { return nil }

func TestGatherRequiresBookID(t *testing.T) {
	g := NewGatherer(&fakeSearcher{}, nil, &fakeSourceRepo{})
	if _, err := g.Gather(context.Background(), " ", []string{"q"}); err == nil {
		t.Error("expected error for empty book_id")
	}
}

func TestGatherRequiresSearcher(t *testing.T) {
	g := NewGatherer(nil, nil, &fakeSourceRepo{})
	if _, err := g.Gather(context.Background(), "b1", []string{"q"}); err == nil {
		t.Error("expected error when searcher not configured")
	}
}

func TestGatherPersistsDedupedSources(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]infrasearch.Result{
		"systems thinking": {
			{URL: "https://a", Title: "A", Content: "alpha"},
			{URL: "https://b", Title: "B", Content: "beta"},
		},
		"feedback loops": {
			{URL: "https://b", Title: "B again", Content: "duplicate"},
			{URL: "https://c", Title: "C", Content: "gamma"},
			{URL: "  ", Title: "no url", Content: "skipped"},
		},
	}}
	repo := &fakeSourceRepo{}

	g := NewGatherer(searcher, nil, repo)
	out, err := g.Gather(context.Background(), "b1", []string{"systems thinking", "feedback loops"})
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	// 重复 URL 与空 URL 被去除
	if out.SourcesAdded != 3 {
		t.Errorf("SourcesAdded = %d, want 3", out.SourcesAdded)
	}
	if out.QueriesSkipped != 0 {
		t.Errorf("QueriesSkipped = %d, want 0", out.QueriesSkipped)
	}
	if len(repo.batches) != 1 || len(repo.batches[0]) != 3 {
		t.Fatalf("batches = %v, want one batch of 3", repo.batches)
	}
	for _, s := range repo.batches[0] {
		if s.BookID != "b1" || s.Kind != entity.SourceKindWebSearch {
			t.Errorf("source = %+v", s)
		}
	}
}

func TestGatherSkipsFailedQueries(t *testing.T) {
	searcher := &fakeSearcher{
		results: map[string][]infrasearch.Result{
			"good": {{URL: "https://a", Title: "A", Content: "alpha"}},
		},
		errs: map[string]error{"bad": errors.New("provider timeout")},
	}
	repo := &fakeSourceRepo{}

	g := NewGatherer(searcher, nil, repo)
	out, err := g.Gather(context.Background(), "b1", []string{"good", "bad", "  "})
	if err != nil {
		t.Fatalf("Gather() error = %v, single query failures must not abort", err)
	}
	if out.QueriesSkipped != 2 {
		t.Errorf("QueriesSkipped = %d, want failed and blank queries counted", out.QueriesSkipped)
	}
	if out.SourcesAdded != 1 {
		t.Errorf("SourcesAdded = %d, want 1", out.SourcesAdded)
	}
}

func TestGatherSourcePersistenceFailureIsHard(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]infrasearch.Result{
		"q": {{URL: "https://a", Title: "A", Content: "alpha"}},
	}}
	repo := &fakeSourceRepo{err: errors.New("db down")}

	g := NewGatherer(searcher, nil, repo)
	if _, err := g.Gather(context.Background(), "b1", []string{"q"}); err == nil {
		t.Error("expected error when source persistence fails")
	}
}

func TestGatherNoResults(t *testing.T) {
	g := NewGatherer(&fakeSearcher{}, nil, &fakeSourceRepo{})
	out, err := g.Gather(context.Background(), "b1", []string{"nothing"})
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if out.SourcesAdded != 0 || out.ChunksIndexed != 0 {
		t.Errorf("output = %+v, want zero counts", out)
	}
}

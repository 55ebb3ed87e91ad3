package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestIndexMaterialsDisabled(t *testing.T) {
	idx := NewIndexer(nil, nil, 0)
	_, err := idx.IndexMaterials(context.Background(), "b1", []IndexInput{{Text: "x"}})
	if !errors.Is(err, ErrVectorDisabled) {
		t.Errorf("error = %v, want ErrVectorDisabled", err)
	}
}

func TestIndexMaterialsRequiresBookID(t *testing.T) {
	idx := NewIndexer(&fakeEmbedder{}, &fakeVectorRepo{}, 0)
	if _, err := idx.IndexMaterials(context.Background(), "  ", []IndexInput{{Text: "x"}}); err == nil {
		t.Error("expected error for empty book_id")
	}
}

func TestIndexMaterialsChunksAndInserts(t *testing.T) {
	repo := &fakeVectorRepo{}
	emb := &fakeEmbedder{}
	idx := NewIndexer(emb, repo, 2)

	materials := []IndexInput{
		{URL: "https://a", Title: "Doc A", Kind: "web_search", Text: strings.Repeat("w ", 900)},
		{Text: "short note"},
		{Text: "   "},
	}
	n, err := idx.IndexMaterials(context.Background(), "b1", materials)
	if err != nil {
		t.Fatalf("IndexMaterials() error = %v", err)
	}
	if n != len(repo.inserted) {
		t.Errorf("returned count %d != inserted %d", n, len(repo.inserted))
	}
	// 长文本被切块，加上一条短文本，空白材料被跳过
	if n < 3 {
		t.Errorf("chunks = %d, want long text split plus short note", n)
	}

	seen := map[int64]bool{}
	for _, c := range repo.inserted {
		if c.BookID != "b1" {
			t.Errorf("chunk book_id = %q", c.BookID)
		}
		if c.Kind == "" {
			t.Error("chunk kind empty, want default applied")
		}
		if c.ID == "" {
			t.Error("chunk id empty")
		}
		if len(c.Vector) == 0 {
			t.Error("chunk vector empty")
		}
		if seen[c.ChunkSeq] {
			t.Errorf("duplicate chunk_seq %d", c.ChunkSeq)
		}
		seen[c.ChunkSeq] = true
	}

	// 未指定 kind 的材料落到默认来源类型
	last := repo.inserted[len(repo.inserted)-1]
	if last.Kind != "web_search" {
		t.Errorf("default kind = %q, want web_search", last.Kind)
	}

	// 向量化按批大小拆分请求
	for _, call := range emb.calls {
		if len(call) > 2 {
			t.Errorf("embedding batch size = %d, want <= 2", len(call))
		}
	}
}

func TestIndexMaterialsEmptyInput(t *testing.T) {
	repo := &fakeVectorRepo{}
	idx := NewIndexer(&fakeEmbedder{}, repo, 0)

	n, err := idx.IndexMaterials(context.Background(), "b1", nil)
	if err != nil || n != 0 {
		t.Errorf("IndexMaterials(nil) = %d, %v, want 0, nil", n, err)
	}
	if len(repo.inserted) != 0 {
		t.Error("no chunks should be inserted for empty input")
	}
}

func TestIndexMaterialsEmbeddingFailure(t *testing.T) {
	repo := &fakeVectorRepo{}
	idx := NewIndexer(&fakeEmbedder{err: errors.New("provider 500")}, repo, 0)

	_, err := idx.IndexMaterials(context.Background(), "b1", []IndexInput{{Text: "some text"}})
	if err == nil {
		t.Fatal("expected error when embedding fails")
	}
	if len(repo.inserted) != 0 {
		t.Error("no chunks should be inserted after embedding failure")
	}
}

func TestIndexMaterialsVectorCountMismatch(t *testing.T) {
	// Embedder 少返回向量时必须报错，而不是越界写入
	repo := &fakeVectorRepo{}
	idx := NewIndexer(&fakeEmbedder{vectors: [][]float64{{0.1, 0.2}}}, repo, 0)

	materials := []IndexInput{{Text: "first note"}, {Text: "second note"}}
	_, err := idx.IndexMaterials(context.Background(), "b1", materials)
	if err == nil {
		t.Fatal("expected error on vector count mismatch")
	}
	if len(repo.inserted) != 0 {
		t.Error("no chunks should be inserted on mismatch")
	}
}

func TestDropBook(t *testing.T) {
	repo := &fakeVectorRepo{}
	idx := NewIndexer(&fakeEmbedder{}, repo, 0)

	if err := idx.DropBook(context.Background(), "b1"); err != nil {
		t.Fatalf("DropBook() error = %v", err)
	}
	if len(repo.dropped) != 1 || repo.dropped[0] != "b1" {
		t.Errorf("dropped = %v, want [b1]", repo.dropped)
	}
}

func TestSplitByRunes(t *testing.T) {
	if got := splitByRunes("", 10, 2); got != nil {
		t.Errorf("splitByRunes(empty) = %v, want nil", got)
	}
	if got := splitByRunes("short", 10, 2); len(got) != 1 || got[0] != "short" {
		t.Errorf("splitByRunes(short) = %v", got)
	}

	text := strings.Repeat("abcde ", 50)
	chunks := splitByRunes(text, 40, 8)
	if len(chunks) < 2 {
		t.Fatalf("chunks = %d, want split", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 40 {
			t.Errorf("chunk %d runes = %d, want <= 40", i, n)
		}
	}
}

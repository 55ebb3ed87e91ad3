package generation

import (
	"context"
	"fmt"
	"sync"

	"bookgen-ai-api/internal/application/retrieval"
	"bookgen-ai-api/internal/domain/entity"
	"bookgen-ai-api/internal/domain/repository"
	wfmodel "bookgen-ai-api/internal/workflow/model"
	workflowprompt "bookgen-ai-api/internal/workflow/prompt"
)

type fakeCompletion struct {
	mu      sync.Mutex
	replies map[workflowprompt.PromptID]string
	errs    map[workflowprompt.PromptID]error
	calls   []*wfmodel.CompletionInput
}

func newFakeCompletion() *fakeCompletion {
	return &fakeCompletion{
		replies: map[workflowprompt.PromptID]string{},
		errs:    map[workflowprompt.PromptID]error{},
	}
}

func (f *fakeCompletion) Invoke(_ context.Context, in *wfmodel.CompletionInput) (*wfmodel.CompletionOutput, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()

	if err := f.errs[in.PromptID]; err != nil {
		return nil, err
	}
	return &wfmodel.CompletionOutput{Content: f.replies[in.PromptID]}, nil
}

type fakeRetriever struct {
	enabled bool
	out     *retrieval.SearchOutput
	err     error

	lastInput retrieval.SearchInput
}

func (f *fakeRetriever) Enabled() bool { return f.enabled }

func (f *fakeRetriever) Search(_ context.Context, in retrieval.SearchInput) (*retrieval.SearchOutput, error) {
	f.lastInput = in
	return f.out, f.err
}

type memChapterRepo struct {
	mu       sync.Mutex
	chapters map[string]*entity.Chapter
	statuses []entity.ChapterStatus
}

// newMemChapterRepo 存取都走副本，后台流水线与测试断言互不共享指针。
func newMemChapterRepo(chapters ...*entity.Chapter) *memChapterRepo {
	r := &memChapterRepo{chapters: map[string]*entity.Chapter{}}
	for _, ch := range chapters {
		cp := *ch
		r.chapters[ch.ID] = &cp
	}
	return r
}

func (r *memChapterRepo) Create(_ context.Context, ch *entity.Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ch
	r.chapters[ch.ID] = &cp
	return nil
}

func (r *memChapterRepo) CreateBatch(ctx context.Context, chapters []*entity.Chapter) error {
	for _, ch := range chapters {
		if err := r.Create(ctx, ch); err != nil {
			return err
		}
	}
	return nil
}

func (r *memChapterRepo) GetByID(_ context.Context, id string) (*entity.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.chapters[id]
	if !ok {
		return nil, nil
	}
	cp := *ch
	return &cp, nil
}

func (r *memChapterRepo) GetByBookAndNumber(_ context.Context, bookID string, number int) (*entity.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.chapters {
		if ch.BookID == bookID && ch.ChapterNumber == number {
			cp := *ch
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memChapterRepo) Update(_ context.Context, ch *entity.Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ch
	r.chapters[ch.ID] = &cp
	r.statuses = append(r.statuses, ch.Status)
	return nil
}

func (r *memChapterRepo) UpdateStatus(_ context.Context, id string, status entity.ChapterStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.chapters[id]; ok {
		ch.Status = status
	}
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *memChapterRepo) ListByBook(_ context.Context, bookID string, _ *repository.ChapterFilter) ([]*entity.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Chapter
	for _, ch := range r.chapters {
		if ch.BookID == bookID {
			cp := *ch
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memChapterRepo) CountByStatus(_ context.Context, bookID string) (map[entity.ChapterStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[entity.ChapterStatus]int64{}
	for _, ch := range r.chapters {
		if ch.BookID == bookID {
			counts[ch.Status]++
		}
	}
	return counts, nil
}

func (r *memChapterRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chapters, id)
	return nil
}

func (r *memChapterRepo) statusHistory() []entity.ChapterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.ChapterStatus, len(r.statuses))
	copy(out, r.statuses)
	return out
}

type memBookRepo struct {
	mu       sync.Mutex
	books    map[string]*entity.Book
	statuses []entity.BookStatus
}

func newMemBookRepo(books ...*entity.Book) *memBookRepo {
	r := &memBookRepo{books: map[string]*entity.Book{}}
	for _, b := range books {
		cp := *b
		r.books[b.ID] = &cp
	}
	return r
}

func (r *memBookRepo) Create(_ context.Context, b *entity.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = fmt.Sprintf("book-%d", len(r.books)+1)
	}
	cp := *b
	r.books[b.ID] = &cp
	return nil
}

func (r *memBookRepo) GetByID(_ context.Context, id string) (*entity.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *memBookRepo) GetWithChapters(ctx context.Context, id string) (*entity.Book, error) {
	return r.GetByID(ctx, id)
}

func (r *memBookRepo) Update(_ context.Context, b *entity.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.books[b.ID] = &cp
	return nil
}

func (r *memBookRepo) UpdateStatus(_ context.Context, id string, status entity.BookStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.books[id]; ok {
		b.Status = status
	}
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *memBookRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.books, id)
	return nil
}

func (r *memBookRepo) List(_ context.Context, _ *repository.BookFilter, p repository.Pagination) (*repository.PagedResult[*entity.Book], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.Book
	for _, b := range r.books {
		cp := *b
		items = append(items, &cp)
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (r *memBookRepo) statusHistory() []entity.BookStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.BookStatus, len(r.statuses))
	copy(out, r.statuses)
	return out
}

type memAgentLogRepo struct {
	mu   sync.Mutex
	logs []*entity.AgentLog
}

func (r *memAgentLogRepo) Create(_ context.Context, l *entity.AgentLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
	return nil
}

func (r *memAgentLogRepo) ListByBook(_ context.Context, _ string, p repository.Pagination) (*repository.PagedResult[*entity.AgentLog], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return repository.NewPagedResult(r.logs, int64(len(r.logs)), p), nil
}

func (r *memAgentLogRepo) ListByChapter(_ context.Context, _ string) ([]*entity.AgentLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs, nil
}

func (r *memAgentLogRepo) agentNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, l := range r.logs {
		names = append(names, l.AgentName)
	}
	return names
}

type captureNotifier struct {
	mu             sync.Mutex
	agentEvents    []AgentStatusEvent
	chapterUpdates []ChapterUpdateEvent
}

func (n *captureNotifier) NotifyAgentStatus(_ context.Context, _ string, e AgentStatusEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.agentEvents = append(n.agentEvents, e)
}

func (n *captureNotifier) NotifyChapterUpdate(_ context.Context, e ChapterUpdateEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chapterUpdates = append(n.chapterUpdates, e)
}

func (n *captureNotifier) lastChapterUpdate() (ChapterUpdateEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.chapterUpdates) == 0 {
		return ChapterUpdateEvent{}, false
	}
	return n.chapterUpdates[len(n.chapterUpdates)-1], true
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *fakeCache) InvalidateBook(_ context.Context, bookID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, bookID)
	return nil
}

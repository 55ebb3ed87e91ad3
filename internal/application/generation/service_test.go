package generation

import (
	"context"
	"testing"
	"time"

	"bookgen-ai-api/internal/domain/entity"
	apperrors "bookgen-ai-api/pkg/errors"
	wfmodel "bookgen-ai-api/internal/workflow/model"
	workflowprompt "bookgen-ai-api/internal/workflow/prompt"
)

// blockingCompletion 在首次调用时阻塞，用于在流水线执行前
// 观察派发的同步副作用。
type blockingCompletion struct {
	started chan struct{}
	release chan struct{}
	inner   *fakeCompletion
}

func newBlockingCompletion(inner *fakeCompletion) *blockingCompletion {
	return &blockingCompletion{
		started: make(chan struct{}),
		release: make(chan struct{}),
		inner:   inner,
	}
}

func (b *blockingCompletion) Invoke(ctx context.Context, in *wfmodel.CompletionInput) (*wfmodel.CompletionOutput, error) {
	select {
	case <-b.started:
	default:
		close(b.started)
		<-b.release
	}
	return b.inner.Invoke(ctx, in)
}

func newTestService(completion Completion, chapterRepo *memChapterRepo, bookRepo *memBookRepo, notifier Notifier) *Service {
	pipeline := NewPipeline(completion, nil, chapterRepo, bookRepo, nil, notifier, nil, testGenerationConfig())
	return NewService(pipeline, bookRepo, chapterRepo, notifier, nil)
}

func waitForChapterStatus(t *testing.T, repo *memChapterRepo, id string, want entity.ChapterStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ch, _ := repo.GetByID(context.Background(), id)
		if ch != nil && ch.Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("chapter %s did not reach status %q in time", id, want)
}

func TestDispatchRejectsCompleteChapter(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusComplete)
	chapterRepo := newMemChapterRepo(chapter)

	svc := newTestService(newFakeCompletion(), chapterRepo, newMemBookRepo(book), nil)
	_, err := svc.Dispatch(context.Background(), book.ID, chapter.ChapterNumber)
	if err == nil {
		t.Fatal("Dispatch() expected error for complete chapter")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidDispatch {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeInvalidDispatch)
	}
	if history := chapterRepo.statusHistory(); len(history) != 0 {
		t.Errorf("status history = %v, want no writes on rejected dispatch", history)
	}
}

func TestDispatchRejectsGeneratingChapter(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusGenerating)

	svc := newTestService(newFakeCompletion(), newMemChapterRepo(chapter), newMemBookRepo(book), nil)
	_, err := svc.Dispatch(context.Background(), book.ID, chapter.ChapterNumber)
	if err == nil {
		t.Fatal("Dispatch() expected error for generating chapter")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidDispatch {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeInvalidDispatch)
	}
}

func TestDispatchUnknownBook(t *testing.T) {
	svc := newTestService(newFakeCompletion(), newMemChapterRepo(), newMemBookRepo(), nil)
	_, err := svc.Dispatch(context.Background(), "missing", 1)
	if apperrors.AsAppError(err).Code != apperrors.CodeBookNotFound {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeBookNotFound)
	}
}

func TestDispatchUnknownChapter(t *testing.T) {
	book := testBook()
	svc := newTestService(newFakeCompletion(), newMemChapterRepo(), newMemBookRepo(book), nil)
	_, err := svc.Dispatch(context.Background(), book.ID, 42)
	if apperrors.AsAppError(err).Code != apperrors.CodeChapterNotFound {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeChapterNotFound)
	}
}

func TestDispatchPersistsGeneratingBeforeReturn(t *testing.T) {
	book := testBook()
	book.Status = entity.BookStatusInitialized
	chapter := testChapter(entity.ChapterStatusPending)

	inner := newFakeCompletion()
	inner.replies[workflowprompt.PromptWritingV1] = "draft"
	inner.replies[workflowprompt.PromptEnhanceV1] = "enhanced"
	inner.replies[workflowprompt.PromptEditV1] = "edited"
	completion := newBlockingCompletion(inner)

	chapterRepo := newMemChapterRepo(chapter)
	bookRepo := newMemBookRepo(book)
	notifier := &captureNotifier{}

	svc := newTestService(completion, chapterRepo, bookRepo, notifier)
	out, err := svc.Dispatch(context.Background(), book.ID, chapter.ChapterNumber)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out.Status != entity.ChapterStatusGenerating {
		t.Errorf("returned chapter status = %q, want generating", out.Status)
	}

	// 派发返回时 generating 状态已同步持久化
	history := chapterRepo.statusHistory()
	if len(history) == 0 || history[0] != entity.ChapterStatusGenerating {
		t.Errorf("status history = %v, want generating persisted first", history)
	}
	if bh := bookRepo.statusHistory(); len(bh) == 0 || bh[0] != entity.BookStatusGenerating {
		t.Errorf("book status history = %v, want generating", bh)
	}
	if update, ok := notifier.lastChapterUpdate(); !ok || update.Status != string(entity.ChapterStatusGenerating) {
		t.Errorf("last chapter update = %+v, want generating", update)
	}

	<-completion.started
	close(completion.release)
	waitForChapterStatus(t, chapterRepo, chapter.ID, entity.ChapterStatusComplete)
}

func TestDispatchAllowsFailedChapter(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusFailed)

	completion := newFakeCompletion()
	completion.replies[workflowprompt.PromptWritingV1] = "draft"
	completion.replies[workflowprompt.PromptEnhanceV1] = "enhanced"
	completion.replies[workflowprompt.PromptEditV1] = "edited"

	chapterRepo := newMemChapterRepo(chapter)
	svc := newTestService(completion, chapterRepo, newMemBookRepo(book), nil)
	if _, err := svc.Dispatch(context.Background(), book.ID, chapter.ChapterNumber); err != nil {
		t.Fatalf("Dispatch() error = %v, failed chapters must be re-dispatchable", err)
	}
	waitForChapterStatus(t, chapterRepo, chapter.ID, entity.ChapterStatusComplete)
}

func TestRegenerateCompleteChapter(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusComplete)
	chapter.ContentMarkdown = "old content"

	completion := newFakeCompletion()
	completion.replies[workflowprompt.PromptWritingV1] = "draft"
	completion.replies[workflowprompt.PromptEnhanceV1] = "enhanced"
	completion.replies[workflowprompt.PromptEditV1] = "new content"

	chapterRepo := newMemChapterRepo(chapter)
	svc := newTestService(completion, chapterRepo, newMemBookRepo(book), nil)

	if _, err := svc.Regenerate(context.Background(), book.ID, chapter.ChapterNumber); err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}

	if history := chapterRepo.statusHistory(); len(history) == 0 || history[0] != entity.ChapterStatusGenerating {
		t.Errorf("status history = %v, want generating first", history)
	}
	waitForChapterStatus(t, chapterRepo, chapter.ID, entity.ChapterStatusComplete)

	got, _ := chapterRepo.GetByID(context.Background(), chapter.ID)
	if got.ContentMarkdown != "new content" {
		t.Errorf("content after regenerate = %q, want new content", got.ContentMarkdown)
	}
}

type panickingCompletion struct{}

func (panickingCompletion) Invoke(context.Context, *wfmodel.CompletionInput) (*wfmodel.CompletionOutput, error) {
	panic("nil pointer in provider client")
}

func TestDispatchPanicLeavesChapterFailed(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusPending)

	chapterRepo := newMemChapterRepo(chapter)
	notifier := &captureNotifier{}

	svc := newTestService(panickingCompletion{}, chapterRepo, newMemBookRepo(book), notifier)
	if _, err := svc.Dispatch(context.Background(), book.ID, chapter.ChapterNumber); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// 流水线 panic 后章节必须落到 failed，而不是卡在 generating
	waitForChapterStatus(t, chapterRepo, chapter.ID, entity.ChapterStatusFailed)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if update, ok := notifier.lastChapterUpdate(); ok && update.Status == string(entity.ChapterStatusFailed) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("failed chapter update event was not published")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// failed 章节可以重新派发
	if _, err := svc.Dispatch(context.Background(), book.ID, chapter.ChapterNumber); err != nil {
		t.Errorf("re-dispatch after panic error = %v, want allowed", err)
	}
}

func TestRegenerateRejectsGeneratingChapter(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusGenerating)

	svc := newTestService(newFakeCompletion(), newMemChapterRepo(chapter), newMemBookRepo(book), nil)
	_, err := svc.Regenerate(context.Background(), book.ID, chapter.ChapterNumber)
	if err == nil {
		t.Fatal("Regenerate() expected error while chapter is generating")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidDispatch {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeInvalidDispatch)
	}
}

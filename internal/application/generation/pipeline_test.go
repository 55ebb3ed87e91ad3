package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bookgen-ai-api/internal/application/retrieval"
	"bookgen-ai-api/internal/config"
	"bookgen-ai-api/internal/domain/entity"
	apperrors "bookgen-ai-api/pkg/errors"
	workflowprompt "bookgen-ai-api/internal/workflow/prompt"
)

func testGenerationConfig() config.GenerationConfig {
	return config.GenerationConfig{
		RetrievalTopK:   5,
		ContextMaxRunes: 4000,
	}
}

func testBook() *entity.Book {
	return &entity.Book{
		ID:              "book-1",
		Title:           "Systems Thinking",
		Genre:           "Non-fiction",
		Tone:            entity.ToneProfessional,
		ChaptersCount:   1,
		WordsPerChapter: 2500,
		Status:          entity.BookStatusGenerating,
	}
}

func testChapter(status entity.ChapterStatus) *entity.Chapter {
	return &entity.Chapter{
		ID:            "ch-1",
		BookID:        "book-1",
		ChapterNumber: 1,
		Title:         "Feedback Loops",
		Outline:       "How reinforcing loops shape systems",
		Status:        status,
	}
}

func TestPipelineRunCompletesChapter(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusGenerating)

	completion := newFakeCompletion()
	completion.replies[workflowprompt.PromptWritingV1] = "raw draft"
	completion.replies[workflowprompt.PromptEnhanceV1] = "enhanced draft"
	completion.replies[workflowprompt.PromptEditV1] = "# Feedback Loops\nIntro paragraph\n\n\n\n- first\n- second"

	chapterRepo := newMemChapterRepo(chapter)
	bookRepo := newMemBookRepo(book)
	logRepo := &memAgentLogRepo{}
	notifier := &captureNotifier{}
	cache := &fakeCache{}

	p := NewPipeline(completion, &fakeRetriever{}, chapterRepo, bookRepo, logRepo, notifier, cache, testGenerationConfig())
	if err := p.Run(context.Background(), book, chapter); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if chapter.Status != entity.ChapterStatusComplete {
		t.Fatalf("chapter status = %q, want complete", chapter.Status)
	}
	want := FormatMarkdown("# Feedback Loops\nIntro paragraph\n\n\n\n- first\n- second")
	if chapter.ContentMarkdown != want {
		t.Errorf("content = %q, want %q", chapter.ContentMarkdown, want)
	}
	if chapter.WordCount != len(strings.Fields(want)) {
		t.Errorf("word count = %d, want %d", chapter.WordCount, len(strings.Fields(want)))
	}

	// 全部章节完成后书籍应推进为 completed
	history := bookRepo.statusHistory()
	if len(history) == 0 || history[len(history)-1] != entity.BookStatusCompleted {
		t.Errorf("book status history = %v, want completed at end", history)
	}

	update, ok := notifier.lastChapterUpdate()
	if !ok || update.Status != string(entity.ChapterStatusComplete) {
		t.Errorf("last chapter update = %+v, want complete", update)
	}
	if len(cache.invalidated) == 0 {
		t.Error("status cache was not invalidated")
	}
	if names := logRepo.agentNames(); len(names) == 0 {
		t.Error("no agent logs were written")
	}
}

func TestPipelineStageOrder(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusGenerating)

	completion := newFakeCompletion()
	completion.replies[workflowprompt.PromptWritingV1] = "draft"
	completion.replies[workflowprompt.PromptEnhanceV1] = "enhanced"
	completion.replies[workflowprompt.PromptEditV1] = "edited"

	p := NewPipeline(completion, nil, newMemChapterRepo(chapter), newMemBookRepo(book), nil, nil, nil, testGenerationConfig())
	if err := p.Run(context.Background(), book, chapter); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantOrder := []workflowprompt.PromptID{
		workflowprompt.PromptWritingV1,
		workflowprompt.PromptEnhanceV1,
		workflowprompt.PromptEditV1,
	}
	if len(completion.calls) != len(wantOrder) {
		t.Fatalf("completion calls = %d, want %d", len(completion.calls), len(wantOrder))
	}
	for i, call := range completion.calls {
		if call.PromptID != wantOrder[i] {
			t.Errorf("call %d prompt = %q, want %q", i, call.PromptID, wantOrder[i])
		}
	}

	// 增润阶段的输入是写作阶段的输出
	if got := completion.calls[1].Vars["draft"]; got != "draft" {
		t.Errorf("enhancement draft var = %v, want writing output", got)
	}
	if got := completion.calls[2].Vars["draft"]; got != "enhanced" {
		t.Errorf("editing draft var = %v, want enhancement output", got)
	}
}

func TestPipelineEmptyStageOutputFailsChapter(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusGenerating)
	chapter.ContentMarkdown = "previous version"
	chapter.WordCount = 2

	completion := newFakeCompletion()
	completion.replies[workflowprompt.PromptWritingV1] = "draft"
	completion.replies[workflowprompt.PromptEnhanceV1] = "   "

	chapterRepo := newMemChapterRepo(chapter)
	notifier := &captureNotifier{}

	p := NewPipeline(completion, nil, chapterRepo, newMemBookRepo(book), nil, notifier, nil, testGenerationConfig())
	err := p.Run(context.Background(), book, chapter)
	if err == nil {
		t.Fatal("Run() expected error for empty enhancement output")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeGenerationFailed {
		t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeGenerationFailed)
	}
	if !strings.Contains(appErr.Message, StageEnhancement) {
		t.Errorf("error message %q does not name the failed stage", appErr.Message)
	}

	if chapter.Status != entity.ChapterStatusFailed {
		t.Errorf("chapter status = %q, want failed", chapter.Status)
	}
	if chapter.ContentMarkdown != "previous version" {
		t.Errorf("failed chapter content = %q, want previous version preserved", chapter.ContentMarkdown)
	}

	history := chapterRepo.statusHistory()
	if len(history) == 0 || history[len(history)-1] != entity.ChapterStatusFailed {
		t.Errorf("chapter status history = %v, want failed at end", history)
	}
	update, ok := notifier.lastChapterUpdate()
	if !ok || update.Status != string(entity.ChapterStatusFailed) {
		t.Errorf("last chapter update = %+v, want failed", update)
	}
}

func TestPipelineCompletionErrorFailsChapter(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusGenerating)

	completion := newFakeCompletion()
	completion.errs[workflowprompt.PromptWritingV1] = errors.New("model unavailable")

	p := NewPipeline(completion, nil, newMemChapterRepo(chapter), newMemBookRepo(book), nil, nil, nil, testGenerationConfig())
	err := p.Run(context.Background(), book, chapter)
	if err == nil {
		t.Fatal("Run() expected error when completion fails")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeGenerationFailed {
		t.Errorf("error code = %s, want generation failure", apperrors.AsAppError(err).Code)
	}
	if chapter.Status != entity.ChapterStatusFailed {
		t.Errorf("chapter status = %q, want failed", chapter.Status)
	}
}

func TestPipelineRetrievalFailureIsSoft(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusGenerating)

	completion := newFakeCompletion()
	completion.replies[workflowprompt.PromptWritingV1] = "draft"
	completion.replies[workflowprompt.PromptEnhanceV1] = "enhanced"
	completion.replies[workflowprompt.PromptEditV1] = "edited"

	retriever := &fakeRetriever{enabled: true, err: errors.New("milvus down")}

	p := NewPipeline(completion, retriever, newMemChapterRepo(chapter), newMemBookRepo(book), nil, nil, nil, testGenerationConfig())
	if err := p.Run(context.Background(), book, chapter); err != nil {
		t.Fatalf("Run() error = %v, retrieval failure must not fail the chapter", err)
	}
	if chapter.Status != entity.ChapterStatusComplete {
		t.Errorf("chapter status = %q, want complete", chapter.Status)
	}
	if got := completion.calls[0].Vars["retrieved_context"]; got != "" {
		t.Errorf("retrieved_context = %v, want empty on retrieval failure", got)
	}
}

func TestPipelineRetrievalContextReachesWriter(t *testing.T) {
	book := testBook()
	chapter := testChapter(entity.ChapterStatusGenerating)

	completion := newFakeCompletion()
	completion.replies[workflowprompt.PromptWritingV1] = "draft"
	completion.replies[workflowprompt.PromptEnhanceV1] = "enhanced"
	completion.replies[workflowprompt.PromptEditV1] = "edited"

	retriever := &fakeRetriever{
		enabled: true,
		out: &retrieval.SearchOutput{Snippets: []retrieval.Snippet{
			{Text: "systems have feedback loops", Title: "Primer", URL: "https://example.com/primer"},
		}},
	}

	p := NewPipeline(completion, retriever, newMemChapterRepo(chapter), newMemBookRepo(book), nil, nil, nil, testGenerationConfig())
	if err := p.Run(context.Background(), book, chapter); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, _ := completion.calls[0].Vars["retrieved_context"].(string)
	if !strings.Contains(got, "systems have feedback loops") {
		t.Errorf("retrieved_context = %q, want snippet text included", got)
	}
}

func TestPipelineRetrievalQueryPrefersOutline(t *testing.T) {
	completion := newFakeCompletion()
	completion.replies[workflowprompt.PromptWritingV1] = "draft"
	completion.replies[workflowprompt.PromptEnhanceV1] = "enhanced"
	completion.replies[workflowprompt.PromptEditV1] = "edited"

	retriever := &fakeRetriever{enabled: true, out: &retrieval.SearchOutput{}}

	book := testBook()
	chapter := testChapter(entity.ChapterStatusGenerating)
	p := NewPipeline(completion, retriever, newMemChapterRepo(chapter), newMemBookRepo(book), nil, nil, nil, testGenerationConfig())
	if err := p.Run(context.Background(), book, chapter); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if retriever.lastInput.Query != chapter.Outline {
		t.Errorf("query = %q, want chapter outline", retriever.lastInput.Query)
	}

	// 大纲为空时退回章节标题
	chapter2 := testChapter(entity.ChapterStatusGenerating)
	chapter2.Outline = ""
	if err := p.Run(context.Background(), testBook(), chapter2); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if retriever.lastInput.Query != chapter2.Title {
		t.Errorf("fallback query = %q, want chapter title", retriever.lastInput.Query)
	}
}

package book

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookgen-ai-api/internal/application/generation"
	"bookgen-ai-api/internal/application/research"
	"bookgen-ai-api/internal/application/retrieval"
	"bookgen-ai-api/internal/config"
	"bookgen-ai-api/internal/domain/entity"
	"bookgen-ai-api/internal/domain/repository"
	wfmodel "bookgen-ai-api/internal/workflow/model"
	workflowprompt "bookgen-ai-api/internal/workflow/prompt"
	apperrors "bookgen-ai-api/pkg/errors"
	"bookgen-ai-api/pkg/logger"
)

var tracer = otel.Tracer("book")

const (
	agentIdeation = "ideation"
	agentResearch = "research_librarian"
	agentOutline  = "outline_architect"
)

// Researcher 资料采集端口，由 research.Gatherer 满足
type Researcher interface {
	Gather(ctx context.Context, bookID string, queries []string) (*research.Output, error)
}

// Initializer 新书初始化流程
//
// 创建书籍后依次执行：构思（标题与简介）、资料采集、批量建章、
// 大纲生成与解析。构思失败使初始化失败；资料采集与大纲解析
// 尽力而为，失败时章节保留默认标题。
type Initializer struct {
	completion   generation.Completion
	researcher   Researcher
	retriever    generation.Retriever
	bookRepo     repository.BookRepository
	chapterRepo  repository.ChapterRepository
	agentLogRepo repository.AgentLogRepository
	txMgr        repository.Transactor
	cfg          config.GenerationConfig
}

func NewInitializer(
	completion generation.Completion,
	researcher Researcher,
	retriever generation.Retriever,
	bookRepo repository.BookRepository,
	chapterRepo repository.ChapterRepository,
	agentLogRepo repository.AgentLogRepository,
	txMgr repository.Transactor,
	cfg config.GenerationConfig,
) *Initializer {
	return &Initializer{
		completion:   completion,
		researcher:   researcher,
		retriever:    retriever,
		bookRepo:     bookRepo,
		chapterRepo:  chapterRepo,
		agentLogRepo: agentLogRepo,
		txMgr:        txMgr,
		cfg:          cfg,
	}
}

// Initialize 执行初始化流程并把书籍推进到 initialized 状态。
// 入参书籍必须已持久化（ID 已生成）。
func (i *Initializer) Initialize(ctx context.Context, book *entity.Book) error {
	ctx, span := tracer.Start(ctx, "book.Initializer.Initialize",
		trace.WithAttributes(attribute.String("book_id", book.ID)))
	defer span.End()

	ctx = logger.WithContext(ctx, logger.BookIDKey, book.ID)
	log := logger.FromContext(ctx)

	if err := i.runIdeation(ctx, book); err != nil {
		span.RecordError(err)
		return err
	}

	i.runResearch(ctx, book)

	if err := i.createChapters(ctx, book); err != nil {
		span.RecordError(err)
		return err
	}

	// 大纲写入与状态推进放在同一事务，避免半初始化状态可见
	if err := i.finishInitialization(ctx, book); err != nil {
		span.RecordError(err)
		return err
	}

	log.Info("book initialized",
		"title", book.Title,
		"chapters_count", book.ChaptersCount,
	)
	return nil
}

func (i *Initializer) finishInitialization(ctx context.Context, book *entity.Book) error {
	apply := func(txCtx context.Context) error {
		i.runOutline(txCtx, book)
		book.MarkInitialized()
		if err := i.bookRepo.Update(txCtx, book); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to persist initialized book")
		}
		return nil
	}

	if i.txMgr == nil {
		return apply(ctx)
	}
	return i.txMgr.WithTransaction(ctx, apply)
}

// runIdeation 生成书名与简介并写回实体。
func (i *Initializer) runIdeation(ctx context.Context, book *entity.Book) error {
	out, err := i.completion.Invoke(ctx, &wfmodel.CompletionInput{
		PromptID: workflowprompt.PromptIdeationV1,
		Workflow: "book_ideation",
		Vars: map[string]any{
			"book_idea":       book.BookIdea,
			"genre":           book.Genre,
			"target_audience": book.TargetAudience,
			"tone":            string(book.Tone),
			"chapters_count":  book.ChaptersCount,
		},
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeGenerationFailed, "ideation failed")
	}

	parsed := parseIdeation(out.Content)
	if parsed.Title == "" {
		return apperrors.New(apperrors.CodeGenerationFailed, "ideation produced no title")
	}
	book.Title = parsed.Title
	if parsed.Description != "" {
		book.Description = parsed.Description
	} else {
		book.Description = book.BookIdea
	}

	i.logStep(ctx, book.ID, agentIdeation, "ideate",
		map[string]any{"genre": book.Genre},
		map[string]any{"title": book.Title, "description_chars": len(book.Description)},
	)
	return nil
}

// runResearch 围绕书籍主题采集并索引资料，失败不阻塞初始化。
func (i *Initializer) runResearch(ctx context.Context, book *entity.Book) {
	if i.researcher == nil {
		return
	}

	queries := researchQueries(book)
	out, err := i.researcher.Gather(ctx, book.ID, queries)
	if err != nil {
		logger.FromContext(ctx).Warn("research gathering failed, continuing without sources", "error", err)
		return
	}

	i.logStep(ctx, book.ID, agentResearch, "gather",
		map[string]any{"queries": len(queries)},
		map[string]any{
			"sources_added":   out.SourcesAdded,
			"chunks_indexed":  out.ChunksIndexed,
			"queries_skipped": out.QueriesSkipped,
		},
	)
}

// createChapters 按章节数批量创建占位章节。
func (i *Initializer) createChapters(ctx context.Context, book *entity.Book) error {
	chapters := make([]*entity.Chapter, 0, book.ChaptersCount)
	for n := 1; n <= book.ChaptersCount; n++ {
		chapters = append(chapters, entity.NewChapter(book.ID, n))
	}
	if err := i.chapterRepo.CreateBatch(ctx, chapters); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create chapters")
	}
	return nil
}

// runOutline 生成大纲并尽力解析，未命中的章节保留默认标题。
func (i *Initializer) runOutline(ctx context.Context, book *entity.Book) {
	log := logger.FromContext(ctx)

	out, err := i.completion.Invoke(ctx, &wfmodel.CompletionInput{
		PromptID: workflowprompt.PromptOutlineV1,
		Workflow: "book_outline",
		Vars: map[string]any{
			"title":            book.Title,
			"description":      book.Description,
			"genre":            book.Genre,
			"tone":             string(book.Tone),
			"chapters_count":   book.ChaptersCount,
			"research_context": i.outlineContext(ctx, book),
		},
	})
	if err != nil {
		log.Warn("outline generation failed, chapters keep default titles", "error", err)
		return
	}

	entries := parseOutline(out.Content)
	if len(entries) == 0 {
		log.Warn("outline output yielded no parseable entries")
		return
	}

	applied := 0
	for _, entry := range entries {
		if entry.Number < 1 || entry.Number > book.ChaptersCount {
			continue
		}
		chapter, err := i.chapterRepo.GetByBookAndNumber(ctx, book.ID, entry.Number)
		if err != nil || chapter == nil {
			log.Warn("failed to load chapter for outline entry", "chapter_number", entry.Number, "error", err)
			continue
		}
		chapter.Title = fmt.Sprintf("Chapter %d: %s", entry.Number, entry.Title)
		chapter.Outline = entry.Description
		if err := i.chapterRepo.Update(ctx, chapter); err != nil {
			log.Warn("failed to persist outline entry", "chapter_number", entry.Number, "error", err)
			continue
		}
		applied++
	}

	i.logStep(ctx, book.ID, agentOutline, "outline",
		map[string]any{"entries_parsed": len(entries)},
		map[string]any{"entries_applied": applied},
	)
}

// outlineContext 用已索引的资料拼装大纲提示词的上下文，失败返回空。
func (i *Initializer) outlineContext(ctx context.Context, book *entity.Book) string {
	if i.retriever == nil || !i.retriever.Enabled() {
		return ""
	}
	out, err := i.retriever.Search(ctx, retrieval.SearchInput{
		BookID: book.ID,
		Query:  strings.TrimSpace(book.Title + " " + book.Genre),
		TopK:   i.cfg.RetrievalTopK,
	})
	if err != nil || out == nil || out.DisabledReason != "" {
		return ""
	}
	return retrieval.BuildContext(out.Snippets, i.cfg.ContextMaxRunes)
}

func researchQueries(book *entity.Book) []string {
	queries := []string{book.BookIdea}
	if book.Title != "" {
		queries = append(queries, book.Title+" "+book.Genre)
	}
	if book.TargetAudience != "" {
		queries = append(queries, book.Genre+" for "+book.TargetAudience)
	}
	return queries
}

func (i *Initializer) logStep(ctx context.Context, bookID, agent, action string, input, output map[string]any) {
	if i.agentLogRepo == nil {
		return
	}
	entry := entity.NewAgentLog(bookID, "", agent, action).WithInput(input).WithOutput(output)
	if err := i.agentLogRepo.Create(ctx, entry); err != nil {
		logger.FromContext(ctx).Warn("failed to write agent log", "agent", agent, "error", err)
	}
}

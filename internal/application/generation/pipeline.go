package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookgen-ai-api/internal/application/retrieval"
	"bookgen-ai-api/internal/config"
	"bookgen-ai-api/internal/domain/entity"
	"bookgen-ai-api/internal/domain/repository"
	workflowprompt "bookgen-ai-api/internal/workflow/prompt"
	wfmodel "bookgen-ai-api/internal/workflow/model"
	apperrors "bookgen-ai-api/pkg/errors"
	"bookgen-ai-api/pkg/logger"
	"bookgen-ai-api/pkg/metrics"
)

var tracer = otel.Tracer("generation")

// 流水线阶段名，事件与日志中使用
const (
	StageRetrieval   = "research_librarian"
	StageWriting     = "writer"
	StageEnhancement = "content_enhancer"
	StageEditing     = "editor"
	StageFormatting  = "formatter"
)

// Pipeline 单章节生成流水线
//
// 阶段顺序固定：检索 -> 写作 -> 增润 -> 编辑 -> 格式化。
// 检索失败降级为空上下文；生成阶段（写作/增润/编辑）失败
// 则整章失败，内容保持派发前的值。
type Pipeline struct {
	completion   Completion
	retriever    Retriever
	chapterRepo  repository.ChapterRepository
	bookRepo     repository.BookRepository
	agentLogRepo repository.AgentLogRepository
	notifier     Notifier
	cache        CacheInvalidator
	cfg          config.GenerationConfig
}

func NewPipeline(
	completion Completion,
	retriever Retriever,
	chapterRepo repository.ChapterRepository,
	bookRepo repository.BookRepository,
	agentLogRepo repository.AgentLogRepository,
	notifier Notifier,
	cache CacheInvalidator,
	cfg config.GenerationConfig,
) *Pipeline {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Pipeline{
		completion:   completion,
		retriever:    retriever,
		chapterRepo:  chapterRepo,
		bookRepo:     bookRepo,
		agentLogRepo: agentLogRepo,
		notifier:     notifier,
		cache:        cache,
		cfg:          cfg,
	}
}

// Run 执行一个已处于 generating 状态章节的完整流水线。
// 调用方负责状态守卫与进入 generating 的持久化。
func (p *Pipeline) Run(ctx context.Context, book *entity.Book, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "generation.Pipeline.Run",
		trace.WithAttributes(
			attribute.String("book_id", book.ID),
			attribute.Int("chapter_number", chapter.ChapterNumber),
		))
	defer span.End()

	ctx = logger.WithContext(ctx, logger.BookIDKey, book.ID)
	ctx = logger.WithContext(ctx, logger.ChapterKey, fmt.Sprintf("%d", chapter.ChapterNumber))
	log := logger.FromContext(ctx)

	start := time.Now()

	markdown, err := p.runStages(ctx, book, chapter)
	if err != nil {
		span.RecordError(err)
		p.finishFailed(ctx, book, chapter, err)
		metrics.ChapterGenerationTotal.WithLabelValues("failed").Inc()
		metrics.ChapterGenerationDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		return err
	}

	if err := chapter.CompleteGeneration(markdown); err != nil {
		span.RecordError(err)
		p.finishFailed(ctx, book, chapter, err)
		metrics.ChapterGenerationTotal.WithLabelValues("failed").Inc()
		return apperrors.Wrap(err, apperrors.CodeGenerationFailed, "failed to complete chapter")
	}
	if err := p.chapterRepo.Update(ctx, chapter); err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to persist chapter content")
	}

	p.invalidateCache(ctx, book.ID)
	p.notifier.NotifyChapterUpdate(ctx, ChapterUpdateEvent{
		BookID:        book.ID,
		ChapterNumber: chapter.ChapterNumber,
		Status:        string(entity.ChapterStatusComplete),
	})
	p.maybeCompleteBook(ctx, book)

	metrics.ChapterGenerationTotal.WithLabelValues("complete").Inc()
	metrics.ChapterGenerationDuration.WithLabelValues("complete").Observe(time.Since(start).Seconds())
	log.Info("chapter generation completed",
		"word_count", chapter.WordCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// runStages 依次执行五个阶段，返回最终 Markdown。
func (p *Pipeline) runStages(ctx context.Context, book *entity.Book, chapter *entity.Chapter) (string, error) {
	retrieved := p.retrieveContext(ctx, book, chapter)

	draft, err := p.runGenerativeStage(ctx, StageWriting, book, chapter, &wfmodel.CompletionInput{
		PromptID: workflowprompt.PromptWritingV1,
		Workflow: "chapter_writing",
		Vars: map[string]any{
			"book_title":        book.Title,
			"book_description":  book.Description,
			"genre":             book.Genre,
			"tone":              string(book.Tone),
			"chapter_number":    chapter.ChapterNumber,
			"chapter_title":     chapter.Title,
			"chapter_outline":   chapter.Outline,
			"target_word_count": book.WordsPerChapter,
			"retrieved_context": retrieved,
		},
	})
	if err != nil {
		return "", err
	}

	enhanced, err := p.runGenerativeStage(ctx, StageEnhancement, book, chapter, &wfmodel.CompletionInput{
		PromptID: workflowprompt.PromptEnhanceV1,
		Workflow: "chapter_enhancement",
		Vars: map[string]any{
			"tone":              string(book.Tone),
			"target_word_count": book.WordsPerChapter,
			"draft":             draft,
		},
	})
	if err != nil {
		return "", err
	}

	edited, err := p.runGenerativeStage(ctx, StageEditing, book, chapter, &wfmodel.CompletionInput{
		PromptID: workflowprompt.PromptEditV1,
		Workflow: "chapter_editing",
		Vars: map[string]any{
			"tone":  string(book.Tone),
			"draft": enhanced,
		},
	})
	if err != nil {
		return "", err
	}

	return p.runFormattingStage(ctx, book, chapter, edited)
}

// retrieveContext 检索研究上下文，失败降级为空字符串。
func (p *Pipeline) retrieveContext(ctx context.Context, book *entity.Book, chapter *entity.Chapter) string {
	if p.retriever == nil || !p.retriever.Enabled() {
		return ""
	}

	p.notifyStage(ctx, book.ID, StageRetrieval, AgentStatusActive, chapter.ChapterNumber, "retrieving research context")
	defer p.notifyStage(ctx, book.ID, StageRetrieval, AgentStatusIdle, chapter.ChapterNumber, "")

	stageStart := time.Now()
	// 大纲是检索意图的主要来源，未生成大纲时退回章节标题
	query := strings.TrimSpace(chapter.Outline)
	if query == "" {
		query = strings.TrimSpace(chapter.Title)
	}
	out, err := p.retriever.Search(ctx, retrieval.SearchInput{
		BookID: book.ID,
		Query:  query,
		TopK:   p.cfg.RetrievalTopK,
	})
	if err != nil || out == nil {
		metrics.StageDuration.WithLabelValues(StageRetrieval, "failed").Observe(time.Since(stageStart).Seconds())
		logger.FromContext(ctx).Warn("retrieval failed, continuing without context", "error", err)
		return ""
	}
	if out.DisabledReason != "" {
		logger.FromContext(ctx).Debug("retrieval disabled", "reason", out.DisabledReason)
		return ""
	}

	metrics.StageDuration.WithLabelValues(StageRetrieval, "complete").Observe(time.Since(stageStart).Seconds())
	p.logStage(ctx, book.ID, chapter.ID, StageRetrieval, "retrieve_context",
		map[string]any{"query": query, "top_k": p.cfg.RetrievalTopK},
		map[string]any{"snippets": len(out.Snippets)},
	)
	return retrieval.BuildContext(out.Snippets, p.cfg.ContextMaxRunes)
}

// runGenerativeStage 执行一个生成阶段，空输出视为阶段失败。
func (p *Pipeline) runGenerativeStage(ctx context.Context, stage string, book *entity.Book, chapter *entity.Chapter, in *wfmodel.CompletionInput) (string, error) {
	ctx, span := tracer.Start(ctx, "generation.stage."+stage)
	defer span.End()

	p.notifyStage(ctx, book.ID, stage, AgentStatusActive, chapter.ChapterNumber, "generating")

	stageStart := time.Now()
	out, err := p.completion.Invoke(ctx, in)
	if err != nil {
		metrics.StageDuration.WithLabelValues(stage, "failed").Observe(time.Since(stageStart).Seconds())
		p.notifyStage(ctx, book.ID, stage, AgentStatusError, chapter.ChapterNumber, "")
		span.RecordError(err)
		return "", apperrors.Wrap(err, apperrors.CodeGenerationFailed,
			fmt.Sprintf("stage %s failed", stage))
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		metrics.StageDuration.WithLabelValues(stage, "failed").Observe(time.Since(stageStart).Seconds())
		p.notifyStage(ctx, book.ID, stage, AgentStatusError, chapter.ChapterNumber, "")
		return "", apperrors.New(apperrors.CodeGenerationFailed,
			fmt.Sprintf("stage %s returned empty output", stage))
	}

	metrics.StageDuration.WithLabelValues(stage, "complete").Observe(time.Since(stageStart).Seconds())
	p.notifyStage(ctx, book.ID, stage, AgentStatusIdle, chapter.ChapterNumber, "")
	p.logStage(ctx, book.ID, chapter.ID, stage, "generate",
		map[string]any{"prompt_id": string(in.PromptID)},
		map[string]any{"output_chars": len(out.Content)},
	)
	return out.Content, nil
}

// runFormattingStage 执行确定性的格式化阶段。
func (p *Pipeline) runFormattingStage(ctx context.Context, book *entity.Book, chapter *entity.Chapter, edited string) (string, error) {
	p.notifyStage(ctx, book.ID, StageFormatting, AgentStatusActive, chapter.ChapterNumber, "formatting")

	stageStart := time.Now()
	formatted := FormatMarkdown(edited)
	if strings.TrimSpace(formatted) == "" {
		metrics.StageDuration.WithLabelValues(StageFormatting, "failed").Observe(time.Since(stageStart).Seconds())
		p.notifyStage(ctx, book.ID, StageFormatting, AgentStatusError, chapter.ChapterNumber, "")
		return "", apperrors.New(apperrors.CodeFormattingFailed, "formatting produced empty output")
	}

	metrics.StageDuration.WithLabelValues(StageFormatting, "complete").Observe(time.Since(stageStart).Seconds())
	p.notifyStage(ctx, book.ID, StageFormatting, AgentStatusIdle, chapter.ChapterNumber, "")
	p.logStage(ctx, book.ID, chapter.ID, StageFormatting, "format",
		map[string]any{"input_chars": len(edited)},
		map[string]any{"output_chars": len(formatted)},
	)
	return formatted, nil
}

// finishFailed 将章节置为 failed 并持久化，内容保持派发前的值。
func (p *Pipeline) finishFailed(ctx context.Context, book *entity.Book, chapter *entity.Chapter, cause error) {
	log := logger.FromContext(ctx)
	log.Error("chapter generation failed", "error", cause)

	if err := chapter.FailGeneration(); err != nil {
		log.Error("failed to transition chapter to failed", "error", err)
		return
	}
	if err := p.chapterRepo.UpdateStatus(ctx, chapter.ID, entity.ChapterStatusFailed); err != nil {
		log.Error("failed to persist failed status", "error", err)
	}

	p.invalidateCache(ctx, book.ID)
	p.notifier.NotifyChapterUpdate(ctx, ChapterUpdateEvent{
		BookID:        book.ID,
		ChapterNumber: chapter.ChapterNumber,
		Status:        string(entity.ChapterStatusFailed),
	})
}

// maybeCompleteBook 全部章节完成时推进书籍状态。
func (p *Pipeline) maybeCompleteBook(ctx context.Context, book *entity.Book) {
	counts, err := p.chapterRepo.CountByStatus(ctx, book.ID)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to count chapter statuses", "error", err)
		return
	}
	if counts[entity.ChapterStatusComplete] >= int64(book.ChaptersCount) {
		if err := p.bookRepo.UpdateStatus(ctx, book.ID, entity.BookStatusCompleted); err != nil {
			logger.FromContext(ctx).Warn("failed to mark book completed", "error", err)
		}
	}
}

func (p *Pipeline) notifyStage(ctx context.Context, bookID, stage, status string, chapterNumber int, task string) {
	p.notifier.NotifyAgentStatus(ctx, bookID, AgentStatusEvent{
		AgentName:     stage,
		Status:        status,
		CurrentTask:   task,
		ChapterNumber: chapterNumber,
	})
}

// logStage 写智能体日志，失败只记录不中断。
func (p *Pipeline) logStage(ctx context.Context, bookID, chapterID, agent, action string, input, output map[string]any) {
	if p.agentLogRepo == nil {
		return
	}
	entry := entity.NewAgentLog(bookID, chapterID, agent, action).WithInput(input).WithOutput(output)
	if err := p.agentLogRepo.Create(ctx, entry); err != nil {
		logger.FromContext(ctx).Warn("failed to write agent log", "agent", agent, "error", err)
	}
}

func (p *Pipeline) invalidateCache(ctx context.Context, bookID string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.InvalidateBook(ctx, bookID); err != nil {
		logger.FromContext(ctx).Warn("failed to invalidate book cache", "error", err)
	}
}

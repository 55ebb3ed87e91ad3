package generation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookgen-ai-api/internal/domain/entity"
	"bookgen-ai-api/internal/domain/repository"
	apperrors "bookgen-ai-api/pkg/errors"
	"bookgen-ai-api/pkg/logger"
)

// 后台流水线不继承请求超时，单章生成上限
const pipelineTimeout = 15 * time.Minute

// Service 章节生成派发服务
//
// 派发是同步的状态转换加异步的流水线执行：HTTP 请求返回时
// 章节已持久化为 generating，流水线在后台 goroutine 中运行。
type Service struct {
	pipeline    *Pipeline
	bookRepo    repository.BookRepository
	chapterRepo repository.ChapterRepository
	notifier    Notifier
	cache       CacheInvalidator
}

func NewService(
	pipeline *Pipeline,
	bookRepo repository.BookRepository,
	chapterRepo repository.ChapterRepository,
	notifier Notifier,
	cache CacheInvalidator,
) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		pipeline:    pipeline,
		bookRepo:    bookRepo,
		chapterRepo: chapterRepo,
		notifier:    notifier,
		cache:       cache,
	}
}

// Dispatch 派发单章自动生成
//
// pending/failed 章节进入 generating 并启动流水线；
// complete 和 generating 章节返回派发冲突错误，状态不变。
func (s *Service) Dispatch(ctx context.Context, bookID string, chapterNumber int) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "generation.Service.Dispatch",
		trace.WithAttributes(
			attribute.String("book_id", bookID),
			attribute.Int("chapter_number", chapterNumber),
		))
	defer span.End()

	book, chapter, err := s.loadTarget(ctx, bookID, chapterNumber)
	if err != nil {
		return nil, err
	}

	if !chapter.Dispatchable() {
		return nil, apperrors.ErrInvalidDispatch.WithDetail(
			"chapter " + chapter.Title + " is " + string(chapter.Status))
	}
	return s.begin(ctx, book, chapter)
}

// Regenerate 显式重新生成章节
//
// 与 Dispatch 的区别是 complete 章节也允许进入，内容会被
// 新一轮流水线覆盖。仍在 generating 的章节拒绝。
func (s *Service) Regenerate(ctx context.Context, bookID string, chapterNumber int) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "generation.Service.Regenerate",
		trace.WithAttributes(
			attribute.String("book_id", bookID),
			attribute.Int("chapter_number", chapterNumber),
		))
	defer span.End()

	book, chapter, err := s.loadTarget(ctx, bookID, chapterNumber)
	if err != nil {
		return nil, err
	}

	if chapter.Status == entity.ChapterStatusGenerating {
		return nil, apperrors.ErrInvalidDispatch.WithDetail("chapter is already generating")
	}
	if chapter.Status == entity.ChapterStatusComplete {
		chapter.Status = entity.ChapterStatusPending
	}
	return s.begin(ctx, book, chapter)
}

func (s *Service) loadTarget(ctx context.Context, bookID string, chapterNumber int) (*entity.Book, *entity.Chapter, error) {
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return nil, nil, apperrors.ErrBookNotFound
	}

	chapter, err := s.chapterRepo.GetByBookAndNumber(ctx, bookID, chapterNumber)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load chapter")
	}
	if chapter == nil {
		return nil, nil, apperrors.ErrChapterNotFound
	}
	return book, chapter, nil
}

// begin 同步完成状态转换与持久化，然后启动后台流水线。
func (s *Service) begin(ctx context.Context, book *entity.Book, chapter *entity.Chapter) (*entity.Chapter, error) {
	if err := chapter.BeginGeneration(); err != nil {
		return nil, apperrors.ErrInvalidDispatch.WithDetail(err.Error())
	}
	if err := s.chapterRepo.UpdateStatus(ctx, chapter.ID, entity.ChapterStatusGenerating); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to persist chapter status")
	}

	if book.Status != entity.BookStatusGenerating && book.Status != entity.BookStatusCompleted {
		book.MarkGenerating()
		if err := s.bookRepo.UpdateStatus(ctx, book.ID, book.Status); err != nil {
			logger.FromContext(ctx).Warn("failed to update book status", "error", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateBook(ctx, book.ID); err != nil {
			logger.FromContext(ctx).Warn("failed to invalidate book cache", "error", err)
		}
	}
	s.notifier.NotifyChapterUpdate(ctx, ChapterUpdateEvent{
		BookID:        book.ID,
		ChapterNumber: chapter.ChapterNumber,
		Status:        string(entity.ChapterStatusGenerating),
	})

	go s.runPipeline(book, chapter)
	return chapter, nil
}

// runPipeline 在独立 context 中运行流水线，不受请求取消影响。
// panic 与普通失败同样收敛到 failed，章节保持可重新派发。
func (s *Service) runPipeline(book *entity.Book, chapter *entity.Chapter) {
	ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("pipeline panic",
				"book_id", book.ID,
				"chapter_number", chapter.ChapterNumber,
				"panic", r,
			)
			s.pipeline.finishFailed(ctx, book, chapter,
				fmt.Errorf("pipeline panic: %v", r))
		}
	}()

	if err := s.pipeline.Run(ctx, book, chapter); err != nil {
		logger.FromContext(ctx).Error("pipeline run failed",
			"book_id", book.ID,
			"chapter_number", chapter.ChapterNumber,
			"error", err,
		)
	}
}

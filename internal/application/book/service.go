package book

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookgen-ai-api/internal/application/research"
	"bookgen-ai-api/internal/domain/entity"
	"bookgen-ai-api/internal/domain/repository"
	apperrors "bookgen-ai-api/pkg/errors"
	"bookgen-ai-api/pkg/logger"
)

const statusCacheTTL = 30 * time.Second

// StatusCache 书籍状态读缓存端口，由 redis.Cache 满足
type StatusCache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
	InvalidateBook(ctx context.Context, bookID string) error
}

// VectorDropper 书籍向量分区清理端口，由 retrieval.Indexer 满足
type VectorDropper interface {
	DropBook(ctx context.Context, bookID string) error
}

// CreateInput 建书请求
type CreateInput struct {
	BookIdea         string
	Genre            string
	TargetAudience   string
	ChaptersCount    int
	WordsPerChapter  int
	Tone             string
	IncludeCitations *bool
}

// ChapterUpdateInput 手工编辑章节，nil 字段表示不修改
type ChapterUpdateInput struct {
	Title           *string
	Outline         *string
	ContentMarkdown *string
}

// StatusView 书籍进度视图
type StatusView struct {
	BookID        string           `json:"book_id"`
	Status        string           `json:"status"`
	ChaptersTotal int              `json:"chapters_total"`
	ChapterCounts map[string]int64 `json:"chapter_counts"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Service 书籍聚合的应用服务
type Service struct {
	bookRepo     repository.BookRepository
	chapterRepo  repository.ChapterRepository
	sourceRepo   repository.SourceRepository
	agentLogRepo repository.AgentLogRepository
	initializer  *Initializer
	researcher   Researcher
	vector       VectorDropper
	cache        StatusCache
}

func NewService(
	bookRepo repository.BookRepository,
	chapterRepo repository.ChapterRepository,
	sourceRepo repository.SourceRepository,
	agentLogRepo repository.AgentLogRepository,
	initializer *Initializer,
	researcher Researcher,
	vector VectorDropper,
	cache StatusCache,
) *Service {
	return &Service{
		bookRepo:     bookRepo,
		chapterRepo:  chapterRepo,
		sourceRepo:   sourceRepo,
		agentLogRepo: agentLogRepo,
		initializer:  initializer,
		researcher:   researcher,
		vector:       vector,
		cache:        cache,
	}
}

// Create 建书并同步执行初始化流程。
// 初始化失败时书籍保留在 draft 状态，错误原样返回。
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "book.Service.Create")
	defer span.End()

	book := entity.NewBook(strings.TrimSpace(in.BookIdea), strings.TrimSpace(in.Genre))
	book.TargetAudience = strings.TrimSpace(in.TargetAudience)
	if in.ChaptersCount > 0 {
		book.ChaptersCount = in.ChaptersCount
	}
	if in.WordsPerChapter > 0 {
		book.WordsPerChapter = in.WordsPerChapter
	}
	if in.Tone != "" {
		if !entity.IsValidTone(in.Tone) {
			return nil, apperrors.New(apperrors.CodeInvalidParam, "invalid tone: "+in.Tone)
		}
		book.Tone = entity.Tone(in.Tone)
	}
	if in.IncludeCitations != nil {
		book.IncludeCitations = *in.IncludeCitations
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		span.RecordError(err)
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create book")
	}
	span.SetAttributes(attribute.String("book_id", book.ID))

	if err := s.initializer.Initialize(ctx, book); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return book, nil
}

// Get 获取书籍（含按序预加载的章节）。
func (s *Service) Get(ctx context.Context, bookID string) (*entity.Book, error) {
	book, err := s.bookRepo.GetWithChapters(ctx, bookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return nil, apperrors.ErrBookNotFound
	}
	return book, nil
}

// List 分页列出书籍。
func (s *Service) List(ctx context.Context, filter repository.BookFilter, page repository.Pagination) (*repository.PagedResult[*entity.Book], error) {
	result, err := s.bookRepo.List(ctx, &filter, page)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list books")
	}
	return result, nil
}

// GetStatus 读缓存的进度视图，未命中时回源数据库。
func (s *Service) GetStatus(ctx context.Context, bookID string) (*StatusView, error) {
	load := func() (interface{}, error) {
		return s.loadStatus(ctx, bookID)
	}

	if s.cache == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return v.(*StatusView), nil
	}

	raw, err := s.cache.GetOrLoad(ctx, redisBookStatusKey(bookID), statusCacheTTL, load)
	if err != nil {
		return nil, err
	}
	var view StatusView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "corrupt cached book status")
	}
	return &view, nil
}

func (s *Service) loadStatus(ctx context.Context, bookID string) (*StatusView, error) {
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return nil, apperrors.ErrBookNotFound
	}
	counts, err := s.chapterRepo.CountByStatus(ctx, bookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to count chapters")
	}

	view := &StatusView{
		BookID:        book.ID,
		Status:        string(book.Status),
		ChaptersTotal: book.ChaptersCount,
		ChapterCounts: make(map[string]int64, len(counts)),
		UpdatedAt:     book.UpdatedAt,
	}
	for status, n := range counts {
		view.ChapterCounts[string(status)] = n
	}
	return view, nil
}

// Delete 删除书籍与其全部派生数据。
// 数据库级联删除章节/来源/日志，向量分区单独清理。
func (s *Service) Delete(ctx context.Context, bookID string) error {
	ctx, span := tracer.Start(ctx, "book.Service.Delete",
		trace.WithAttributes(attribute.String("book_id", bookID)))
	defer span.End()

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return apperrors.ErrBookNotFound
	}

	if err := s.bookRepo.Delete(ctx, bookID); err != nil {
		span.RecordError(err)
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete book")
	}

	if s.vector != nil {
		if err := s.vector.DropBook(ctx, bookID); err != nil {
			logger.FromContext(ctx).Warn("failed to drop vector partition", "book_id", bookID, "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.InvalidateBook(ctx, bookID); err != nil {
			logger.FromContext(ctx).Warn("failed to invalidate book cache", "book_id", bookID, "error", err)
		}
	}
	return nil
}

// ListChapters 按章节号升序列出章节。
func (s *Service) ListChapters(ctx context.Context, bookID string, filter repository.ChapterFilter) ([]*entity.Chapter, error) {
	if err := s.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	chapters, err := s.chapterRepo.ListByBook(ctx, bookID, &filter)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list chapters")
	}
	return chapters, nil
}

// GetChapter 按章节号获取章节。
func (s *Service) GetChapter(ctx context.Context, bookID string, chapterNumber int) (*entity.Chapter, error) {
	if err := s.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	chapter, err := s.chapterRepo.GetByBookAndNumber(ctx, bookID, chapterNumber)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load chapter")
	}
	if chapter == nil {
		return nil, apperrors.ErrChapterNotFound
	}
	return chapter, nil
}

// UpdateChapter 手工编辑章节。
// 写入非空内容会重算字数并把章节置为 complete。
func (s *Service) UpdateChapter(ctx context.Context, bookID string, chapterNumber int, in ChapterUpdateInput) (*entity.Chapter, error) {
	chapter, err := s.GetChapter(ctx, bookID, chapterNumber)
	if err != nil {
		return nil, err
	}
	if chapter.Status == entity.ChapterStatusGenerating {
		return nil, apperrors.ErrInvalidDispatch.WithDetail("chapter is generating, manual edit rejected")
	}

	if in.Title != nil {
		chapter.Title = strings.TrimSpace(*in.Title)
	}
	if in.Outline != nil {
		chapter.Outline = *in.Outline
	}
	if in.ContentMarkdown != nil {
		content := *in.ContentMarkdown
		chapter.SetContent(content)
		if strings.TrimSpace(content) != "" {
			chapter.Status = entity.ChapterStatusComplete
		}
	}

	if err := s.chapterRepo.Update(ctx, chapter); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to persist chapter")
	}
	if s.cache != nil {
		if err := s.cache.InvalidateBook(ctx, bookID); err != nil {
			logger.FromContext(ctx).Warn("failed to invalidate book cache", "error", err)
		}
	}
	return chapter, nil
}

// Research 对已有书籍追加资料采集与索引。
func (s *Service) Research(ctx context.Context, bookID string, queries []string) (*research.Output, error) {
	if s.researcher == nil {
		return nil, apperrors.New(apperrors.CodeResearchFailed, "research is not configured")
	}
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return nil, apperrors.ErrBookNotFound
	}
	if len(queries) == 0 {
		queries = researchQueries(book)
	}
	return s.researcher.Gather(ctx, bookID, queries)
}

// ListSources 列出已采集的来源。
func (s *Service) ListSources(ctx context.Context, bookID string) ([]*entity.Source, error) {
	if err := s.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	sources, err := s.sourceRepo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list sources")
	}
	return sources, nil
}

// ListAgentLogs 分页列出智能体活动日志。
func (s *Service) ListAgentLogs(ctx context.Context, bookID string, page repository.Pagination) (*repository.PagedResult[*entity.AgentLog], error) {
	if err := s.ensureBook(ctx, bookID); err != nil {
		return nil, err
	}
	logs, err := s.agentLogRepo.ListByBook(ctx, bookID, page)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list agent logs")
	}
	return logs, nil
}

// Export 导出整书 Markdown：扉页加各章内容。
// 未完成章节以占位标记出现。
func (s *Service) Export(ctx context.Context, bookID string) (string, error) {
	book, err := s.Get(ctx, bookID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# " + book.Title + "\n\n")
	if book.Description != "" {
		sb.WriteString(book.Description + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("*Genre: %s*\n\n---\n", book.Genre))

	for _, chapter := range book.Chapters {
		sb.WriteString("\n## " + chapter.Title + "\n\n")
		if chapter.Status == entity.ChapterStatusComplete && chapter.ContentMarkdown != "" {
			sb.WriteString(chapter.ContentMarkdown + "\n")
		} else {
			sb.WriteString(fmt.Sprintf("*This chapter is not yet written (status: %s).*\n", chapter.Status))
		}
	}
	return sb.String(), nil
}

func (s *Service) ensureBook(ctx context.Context, bookID string) error {
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return apperrors.ErrBookNotFound
	}
	return nil
}

// redisBookStatusKey 与缓存失效使用同一 key 约定
func redisBookStatusKey(bookID string) string {
	return "book:" + bookID + ":status"
}

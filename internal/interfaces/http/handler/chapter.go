// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	bookapp "bookgen-ai-api/internal/application/book"
	"bookgen-ai-api/internal/application/generation"
	"bookgen-ai-api/internal/domain/entity"
	"bookgen-ai-api/internal/domain/repository"
	"bookgen-ai-api/internal/interfaces/http/dto"
	"bookgen-ai-api/pkg/logger"
)

// ChapterHandler 章节处理器
type ChapterHandler struct {
	bookService *bookapp.Service
	genService  *generation.Service
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(bookService *bookapp.Service, genService *generation.Service) *ChapterHandler {
	return &ChapterHandler{
		bookService: bookService,
		genService:  genService,
	}
}

// ListChapters 按章节号升序列出章节
// @Summary 章节列表
// @Tags Chapters
// @Produce json
// @Param bid path string true "书籍 ID"
// @Param status query string false "按状态过滤"
// @Success 200 {object} dto.Response[[]dto.ChapterResponse]
// @Router /v1/books/{bid}/chapters [get]
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	filter := repository.ChapterFilter{
		Status: entity.ChapterStatus(c.Query("status")),
	}
	chapters, err := h.bookService.ListChapters(ctx, bookID, filter)
	if err != nil {
		dto.RespondError(c, err, "failed to list chapters")
		return
	}
	dto.Success(c, dto.ToChapterListResponse(chapters))
}

// GetChapter 获取章节详情
// @Summary 章节详情
// @Tags Chapters
// @Produce json
// @Param bid path string true "书籍 ID"
// @Param num path int true "章节号"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{bid}/chapters/{num} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)
	num := dto.BindChapterNumber(c)
	if num == 0 {
		dto.BadRequest(c, "invalid chapter number")
		return
	}

	chapter, err := h.bookService.GetChapter(ctx, bookID, num)
	if err != nil {
		dto.RespondError(c, err, "failed to get chapter")
		return
	}
	dto.Success(c, dto.ToChapterResponse(chapter))
}

// UpdateChapter 手工编辑章节
// @Summary 编辑章节
// @Tags Chapters
// @Accept json
// @Produce json
// @Param bid path string true "书籍 ID"
// @Param num path int true "章节号"
// @Param body body dto.UpdateChapterRequest true "编辑内容"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/books/{bid}/chapters/{num} [put]
func (h *ChapterHandler) UpdateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)
	num := dto.BindChapterNumber(c)
	if num == 0 {
		dto.BadRequest(c, "invalid chapter number")
		return
	}

	var req dto.UpdateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	chapter, err := h.bookService.UpdateChapter(ctx, bookID, num, req.ToUpdateInput())
	if err != nil {
		dto.RespondError(c, err, "failed to update chapter")
		return
	}
	dto.Success(c, dto.ToChapterResponse(chapter))
}

// GenerateChapter 派发章节自动生成
// @Summary 派发章节生成
// @Tags Chapters
// @Produce json
// @Param bid path string true "书籍 ID"
// @Param num path int true "章节号"
// @Success 202 {object} dto.Response[dto.DispatchResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/books/{bid}/chapters/{num}/generate [post]
func (h *ChapterHandler) GenerateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)
	num := dto.BindChapterNumber(c)
	if num == 0 {
		dto.BadRequest(c, "invalid chapter number")
		return
	}

	chapter, err := h.genService.Dispatch(ctx, bookID, num)
	if err != nil {
		logger.Warn(ctx, "chapter dispatch rejected", "book_id", bookID, "chapter_number", num, "error", err)
		dto.RespondError(c, err, "failed to dispatch chapter generation")
		return
	}
	dto.Accepted(c, dto.DispatchResponse{
		BookID:        bookID,
		ChapterNumber: chapter.ChapterNumber,
		Status:        string(chapter.Status),
	})
}

// RegenerateChapter 显式重新生成章节
// @Summary 重新生成章节
// @Tags Chapters
// @Produce json
// @Param bid path string true "书籍 ID"
// @Param num path int true "章节号"
// @Success 202 {object} dto.Response[dto.DispatchResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/books/{bid}/chapters/{num}/regenerate [post]
func (h *ChapterHandler) RegenerateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)
	num := dto.BindChapterNumber(c)
	if num == 0 {
		dto.BadRequest(c, "invalid chapter number")
		return
	}

	chapter, err := h.genService.Regenerate(ctx, bookID, num)
	if err != nil {
		dto.RespondError(c, err, "failed to regenerate chapter")
		return
	}
	dto.Accepted(c, dto.DispatchResponse{
		BookID:        bookID,
		ChapterNumber: chapter.ChapterNumber,
		Status:        string(chapter.Status),
	})
}

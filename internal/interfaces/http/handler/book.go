// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	bookapp "bookgen-ai-api/internal/application/book"
	"bookgen-ai-api/internal/domain/entity"
	"bookgen-ai-api/internal/domain/repository"
	"bookgen-ai-api/internal/interfaces/http/dto"
	"bookgen-ai-api/pkg/logger"
)

// BookHandler 书籍处理器
type BookHandler struct {
	bookService *bookapp.Service
}

// NewBookHandler 创建书籍处理器
func NewBookHandler(bookService *bookapp.Service) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// CreateBook 建书并执行初始化流程
// @Summary 创建书籍
// @Tags Books
// @Accept json
// @Produce json
// @Param body body dto.CreateBookRequest true "书籍设定"
// @Success 201 {object} dto.Response[dto.BookResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	book, err := h.bookService.Create(ctx, req.ToCreateInput())
	if err != nil {
		logger.Error(ctx, "failed to create book", err)
		dto.RespondError(c, err, "failed to create book")
		return
	}
	dto.Created(c, dto.ToBookResponse(book))
}

// ListBooks 分页列出书籍
// @Summary 书籍列表
// @Tags Books
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[[]dto.BookResponse]
// @Router /v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	ctx := c.Request.Context()
	pageReq := dto.BindPage(c)

	filter := repository.BookFilter{
		Status: entity.BookStatus(c.Query("status")),
		Genre:  c.Query("genre"),
	}
	result, err := h.bookService.List(ctx, filter, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list books", err)
		dto.RespondError(c, err, "failed to list books")
		return
	}

	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToBookListResponse(result.Items), meta)
}

// GetBook 获取书籍详情（含章节）
// @Summary 书籍详情
// @Tags Books
// @Produce json
// @Param bid path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.BookResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{bid} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	book, err := h.bookService.Get(ctx, bookID)
	if err != nil {
		dto.RespondError(c, err, "failed to get book")
		return
	}
	dto.Success(c, dto.ToBookResponse(book))
}

// GetBookStatus 读缓存的进度视图
// @Summary 书籍进度
// @Tags Books
// @Produce json
// @Param bid path string true "书籍 ID"
// @Success 200 {object} dto.Response[book.StatusView]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{bid}/status [get]
func (h *BookHandler) GetBookStatus(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	view, err := h.bookService.GetStatus(ctx, bookID)
	if err != nil {
		dto.RespondError(c, err, "failed to get book status")
		return
	}
	dto.Success(c, view)
}

// DeleteBook 删除书籍与全部派生数据
// @Summary 删除书籍
// @Tags Books
// @Param bid path string true "书籍 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{bid} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	if err := h.bookService.Delete(ctx, bookID); err != nil {
		logger.Error(ctx, "failed to delete book", err, "book_id", bookID)
		dto.RespondError(c, err, "failed to delete book")
		return
	}
	dto.NoContent(c)
}

// ExportBook 导出整书 Markdown
// @Summary 导出书籍
// @Tags Books
// @Produce text/markdown
// @Param bid path string true "书籍 ID"
// @Success 200 {string} string "markdown"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{bid}/export [get]
func (h *BookHandler) ExportBook(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	markdown, err := h.bookService.Export(ctx, bookID)
	if err != nil {
		dto.RespondError(c, err, "failed to export book")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="book-`+bookID+`.md"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(markdown))
}

// ListAgentLogs 分页列出智能体活动日志
// @Summary 智能体日志
// @Tags Books
// @Produce json
// @Param bid path string true "书籍 ID"
// @Success 200 {object} dto.Response[[]dto.AgentLogResponse]
// @Router /v1/books/{bid}/agent-logs [get]
func (h *BookHandler) ListAgentLogs(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)
	pageReq := dto.BindPage(c)

	result, err := h.bookService.ListAgentLogs(ctx, bookID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		dto.RespondError(c, err, "failed to list agent logs")
		return
	}

	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToAgentLogListResponse(result.Items), meta)
}

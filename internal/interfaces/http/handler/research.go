// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	bookapp "bookgen-ai-api/internal/application/book"
	"bookgen-ai-api/internal/interfaces/http/dto"
	"bookgen-ai-api/pkg/logger"
)

// ResearchHandler 资料采集处理器
type ResearchHandler struct {
	bookService *bookapp.Service
}

// NewResearchHandler 创建资料采集处理器
func NewResearchHandler(bookService *bookapp.Service) *ResearchHandler {
	return &ResearchHandler{bookService: bookService}
}

// Research 对已有书籍追加资料采集
// @Summary 追加资料采集
// @Tags Research
// @Accept json
// @Produce json
// @Param bid path string true "书籍 ID"
// @Param body body dto.ResearchRequest true "采集主题"
// @Success 200 {object} dto.Response[dto.ResearchResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{bid}/research [post]
func (h *ResearchHandler) Research(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	var req dto.ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.bookService.Research(ctx, bookID, []string{req.Topic})
	if err != nil {
		logger.Error(ctx, "research failed", err, "book_id", bookID)
		dto.RespondError(c, err, "research failed")
		return
	}
	dto.Success(c, dto.ResearchResponse{
		SourcesAdded:     out.SourcesAdded,
		SnippetsInserted: out.ChunksIndexed,
		QueriesSkipped:   out.QueriesSkipped,
	})
}

// ListSources 列出已采集来源
// @Summary 来源列表
// @Tags Research
// @Produce json
// @Param bid path string true "书籍 ID"
// @Success 200 {object} dto.Response[[]dto.SourceResponse]
// @Router /v1/books/{bid}/sources [get]
func (h *ResearchHandler) ListSources(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	sources, err := h.bookService.ListSources(ctx, bookID)
	if err != nil {
		dto.RespondError(c, err, "failed to list sources")
		return
	}
	dto.Success(c, dto.ToSourceListResponse(sources))
}

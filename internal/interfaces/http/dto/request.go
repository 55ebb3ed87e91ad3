package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageRequest 分页请求参数
type PageRequest struct {
	Page     int
	PageSize int
}

// BindPage 从查询参数解析分页
func BindPage(c *gin.Context) PageRequest {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return PageRequest{Page: page, PageSize: pageSize}
}

// BindBookID 提取路径中的书籍 ID
func BindBookID(c *gin.Context) string {
	return c.Param("bid")
}

// BindChapterNumber 提取路径中的章节号，非法返回 0
func BindChapterNumber(c *gin.Context) int {
	n, err := strconv.Atoi(c.Param("num"))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers) {
	books := v1.Group("/books")
	{
		books.POST("", h.Book.CreateBook)
		books.GET("", h.Book.ListBooks)
		books.GET("/:bid", h.Book.GetBook)
		books.GET("/:bid/status", h.Book.GetBookStatus)
		books.DELETE("/:bid", h.Book.DeleteBook)
		books.GET("/:bid/export", h.Book.ExportBook)
		books.GET("/:bid/agent-logs", h.Book.ListAgentLogs)

		// 章节
		books.GET("/:bid/chapters", h.Chapter.ListChapters)
		books.GET("/:bid/chapters/:num", h.Chapter.GetChapter)
		books.PUT("/:bid/chapters/:num", h.Chapter.UpdateChapter)
		books.POST("/:bid/chapters/:num/generate", h.Chapter.GenerateChapter)
		books.POST("/:bid/chapters/:num/regenerate", h.Chapter.RegenerateChapter)

		// 资料采集
		books.POST("/:bid/research", h.Research.Research)
		books.GET("/:bid/sources", h.Research.ListSources)

		// 进度事件（SSE）
		books.GET("/:bid/events", h.Event.StreamEvents)
	}
}

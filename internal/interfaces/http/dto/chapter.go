package dto

import (
	"time"

	"bookgen-ai-api/internal/application/book"
	"bookgen-ai-api/internal/domain/entity"
)

// ChapterResponse 章节响应
type ChapterResponse struct {
	ID              string    `json:"id"`
	BookID          string    `json:"book_id"`
	ChapterNumber   int       `json:"chapter_number"`
	Title           string    `json:"title,omitempty"`
	Outline         string    `json:"outline,omitempty"`
	ContentMarkdown string    `json:"content_markdown,omitempty"`
	Status          string    `json:"status"`
	WordCount       int       `json:"word_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpdateChapterRequest 手工编辑章节请求，缺省字段不修改
type UpdateChapterRequest struct {
	Title           *string `json:"title" binding:"omitempty,max=255"`
	Outline         *string `json:"outline"`
	ContentMarkdown *string `json:"content_markdown"`
}

// ToUpdateInput 转换为应用层输入
func (r *UpdateChapterRequest) ToUpdateInput() book.ChapterUpdateInput {
	return book.ChapterUpdateInput{
		Title:           r.Title,
		Outline:         r.Outline,
		ContentMarkdown: r.ContentMarkdown,
	}
}

// ToChapterResponse 实体转响应
func ToChapterResponse(ch *entity.Chapter) *ChapterResponse {
	return &ChapterResponse{
		ID:              ch.ID,
		BookID:          ch.BookID,
		ChapterNumber:   ch.ChapterNumber,
		Title:           ch.Title,
		Outline:         ch.Outline,
		ContentMarkdown: ch.ContentMarkdown,
		Status:          string(ch.Status),
		WordCount:       ch.WordCount,
		CreatedAt:       ch.CreatedAt,
		UpdatedAt:       ch.UpdatedAt,
	}
}

// ToChapterListResponse 实体列表转响应列表
func ToChapterListResponse(chapters []*entity.Chapter) []*ChapterResponse {
	resp := make([]*ChapterResponse, 0, len(chapters))
	for _, ch := range chapters {
		resp = append(resp, ToChapterResponse(ch))
	}
	return resp
}

// DispatchResponse 派发确认响应
type DispatchResponse struct {
	BookID        string `json:"book_id"`
	ChapterNumber int    `json:"chapter_number"`
	Status        string `json:"status"`
}

package dto

import (
	"time"

	"bookgen-ai-api/internal/application/book"
	"bookgen-ai-api/internal/domain/entity"
)

// CreateBookRequest 建书请求
type CreateBookRequest struct {
	BookIdea         string `json:"book_idea" binding:"required,min=10,max=2000"`
	Genre            string `json:"genre" binding:"required,min=2,max=128"`
	TargetAudience   string `json:"target_audience" binding:"omitempty,max=255"`
	ChaptersCount    int    `json:"chapters_count" binding:"omitempty,min=5,max=30"`
	WordsPerChapter  int    `json:"words_per_chapter" binding:"omitempty,min=1000,max=10000"`
	Tone             string `json:"tone" binding:"omitempty,oneof=professional conversational academic inspirational humorous"`
	IncludeCitations *bool  `json:"include_citations"`
}

// ToCreateInput 转换为应用层输入
func (r *CreateBookRequest) ToCreateInput() book.CreateInput {
	return book.CreateInput{
		BookIdea:         r.BookIdea,
		Genre:            r.Genre,
		TargetAudience:   r.TargetAudience,
		ChaptersCount:    r.ChaptersCount,
		WordsPerChapter:  r.WordsPerChapter,
		Tone:             r.Tone,
		IncludeCitations: r.IncludeCitations,
	}
}

// BookResponse 书籍响应
type BookResponse struct {
	ID               string             `json:"id"`
	Title            string             `json:"title,omitempty"`
	BookIdea         string             `json:"book_idea"`
	Description      string             `json:"description,omitempty"`
	Genre            string             `json:"genre"`
	TargetAudience   string             `json:"target_audience,omitempty"`
	ChaptersCount    int                `json:"chapters_count"`
	WordsPerChapter  int                `json:"words_per_chapter"`
	Tone             string             `json:"tone"`
	IncludeCitations bool               `json:"include_citations"`
	Status           string             `json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Chapters         []*ChapterResponse `json:"chapters,omitempty"`
}

// ToBookResponse 实体转响应
func ToBookResponse(b *entity.Book) *BookResponse {
	resp := &BookResponse{
		ID:               b.ID,
		Title:            b.Title,
		BookIdea:         b.BookIdea,
		Description:      b.Description,
		Genre:            b.Genre,
		TargetAudience:   b.TargetAudience,
		ChaptersCount:    b.ChaptersCount,
		WordsPerChapter:  b.WordsPerChapter,
		Tone:             string(b.Tone),
		IncludeCitations: b.IncludeCitations,
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	for _, ch := range b.Chapters {
		resp.Chapters = append(resp.Chapters, ToChapterResponse(ch))
	}
	return resp
}

// ToBookListResponse 实体列表转响应列表
func ToBookListResponse(books []*entity.Book) []*BookResponse {
	resp := make([]*BookResponse, 0, len(books))
	for _, b := range books {
		resp = append(resp, ToBookResponse(b))
	}
	return resp
}

// Package entity 定义领域实体
package entity

import (
	"time"
)

// BookStatus 书籍状态
type BookStatus string

const (
	BookStatusDraft       BookStatus = "draft"
	BookStatusInitialized BookStatus = "initialized"
	BookStatusGenerating  BookStatus = "generating"
	BookStatusCompleted   BookStatus = "completed"
)

// Tone 写作语气
type Tone string

const (
	ToneProfessional   Tone = "professional"
	ToneConversational Tone = "conversational"
	ToneAcademic       Tone = "academic"
	ToneInspirational  Tone = "inspirational"
	ToneHumorous       Tone = "humorous"
)

// Tones 合法语气集合
var Tones = []Tone{
	ToneProfessional,
	ToneConversational,
	ToneAcademic,
	ToneInspirational,
	ToneHumorous,
}

// IsValidTone 校验语气取值
func IsValidTone(t string) bool {
	for _, tone := range Tones {
		if string(tone) == t {
			return true
		}
	}
	return false
}

// Book 书籍实体
type Book struct {
	ID               string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title            string     `json:"title,omitempty" gorm:"type:varchar(255)"`
	BookIdea         string     `json:"book_idea" gorm:"type:text;not null"`
	Description      string     `json:"description,omitempty" gorm:"type:text"`
	Genre            string     `json:"genre" gorm:"type:varchar(128);not null"`
	TargetAudience   string     `json:"target_audience,omitempty" gorm:"type:varchar(255)"`
	ChaptersCount    int        `json:"chapters_count" gorm:"not null;default:10"`
	WordsPerChapter  int        `json:"words_per_chapter" gorm:"not null;default:2500"`
	Tone             Tone       `json:"tone" gorm:"type:varchar(50);not null;default:'professional'"`
	IncludeCitations bool       `json:"include_citations" gorm:"default:true"`
	Status           BookStatus `json:"status" gorm:"type:varchar(50);default:'draft'"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Chapters []*Chapter `json:"chapters,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	Sources  []*Source  `json:"sources,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// NewBook 创建新书籍
func NewBook(idea, genre string) *Book {
	now := time.Now()
	return &Book{
		BookIdea:        idea,
		Genre:           genre,
		ChaptersCount:   10,
		WordsPerChapter: 2500,
		Tone:            ToneProfessional,
		Status:          BookStatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// MarkInitialized 构思/大纲阶段完成
func (b *Book) MarkInitialized() {
	b.Status = BookStatusInitialized
	b.UpdatedAt = time.Now()
}

// MarkGenerating 至少一个章节进入生成
func (b *Book) MarkGenerating() {
	if b.Status != BookStatusCompleted {
		b.Status = BookStatusGenerating
		b.UpdatedAt = time.Now()
	}
}

// MarkCompleted 全部章节生成完成
func (b *Book) MarkCompleted() {
	b.Status = BookStatusCompleted
	b.UpdatedAt = time.Now()
}

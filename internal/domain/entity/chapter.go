// Package entity 定义领域实体
package entity

import (
	"fmt"
	"strings"
	"time"
)

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusPending    ChapterStatus = "pending"
	ChapterStatusGenerating ChapterStatus = "generating"
	ChapterStatusComplete   ChapterStatus = "complete"
	ChapterStatusFailed     ChapterStatus = "failed"
)

// Chapter 章节实体
//
// 章节状态机：pending -> generating -> {complete | failed}。
// failed 章节可以重新派发（回到 generating）；complete 章节不会被
// 自动流水线重新进入，重新生成是显式的用户操作。
type Chapter struct {
	ID              string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID          string        `json:"book_id" gorm:"type:uuid;index;not null;uniqueIndex:idx_book_chapter_number"`
	ChapterNumber   int           `json:"chapter_number" gorm:"not null;uniqueIndex:idx_book_chapter_number"`
	Title           string        `json:"title,omitempty" gorm:"type:varchar(255)"`
	Outline         string        `json:"outline,omitempty" gorm:"type:text"`
	ContentMarkdown string        `json:"content_markdown,omitempty" gorm:"type:text"`
	Status          ChapterStatus `json:"status" gorm:"type:varchar(50);default:'pending'"`
	WordCount       int           `json:"word_count" gorm:"default:0"`
	CreatedAt       time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建新章节
func NewChapter(bookID string, number int) *Chapter {
	now := time.Now()
	return &Chapter{
		BookID:        bookID,
		ChapterNumber: number,
		Title:         fmt.Sprintf("Chapter %d: To Be Determined", number),
		Status:        ChapterStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Dispatchable 当前状态是否允许派发自动生成
func (c *Chapter) Dispatchable() bool {
	return c.Status == ChapterStatusPending || c.Status == ChapterStatusFailed
}

// BeginGeneration 进入 generating 状态
// 仅允许 pending/failed -> generating；complete 和 generating 均拒绝，
// 调用方得到显式错误而不是静默空转。
func (c *Chapter) BeginGeneration() error {
	if !c.Dispatchable() {
		return fmt.Errorf("chapter %d cannot begin generation from status %q", c.ChapterNumber, c.Status)
	}
	c.Status = ChapterStatusGenerating
	c.UpdatedAt = time.Now()
	return nil
}

// CompleteGeneration 写入最终内容并进入 complete 状态
func (c *Chapter) CompleteGeneration(markdown string) error {
	if c.Status != ChapterStatusGenerating {
		return fmt.Errorf("chapter %d cannot complete from status %q", c.ChapterNumber, c.Status)
	}
	if strings.TrimSpace(markdown) == "" {
		return fmt.Errorf("chapter %d cannot complete with empty content", c.ChapterNumber)
	}
	c.SetContent(markdown)
	c.Status = ChapterStatusComplete
	return nil
}

// FailGeneration 进入 failed 状态，保留派发前的内容
func (c *Chapter) FailGeneration() error {
	if c.Status != ChapterStatusGenerating {
		return fmt.Errorf("chapter %d cannot fail from status %q", c.ChapterNumber, c.Status)
	}
	c.Status = ChapterStatusFailed
	c.UpdatedAt = time.Now()
	return nil
}

// SetContent 设置章节内容并重算字数
// 字数为空白分隔的 token 数，与 content_markdown 始终一致。
func (c *Chapter) SetContent(markdown string) {
	c.ContentMarkdown = markdown
	c.WordCount = CountWords(markdown)
	c.UpdatedAt = time.Now()
}

// CountWords 统计空白分隔的 token 数
func CountWords(s string) int {
	return len(strings.Fields(s))
}

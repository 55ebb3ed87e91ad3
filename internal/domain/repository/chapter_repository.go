// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bookgen-ai-api/internal/domain/entity"
)

// ChapterFilter 章节过滤条件
type ChapterFilter struct {
	Status entity.ChapterStatus
}

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 创建章节
	Create(ctx context.Context, chapter *entity.Chapter) error

	// CreateBatch 批量创建章节（书籍初始化时使用）
	CreateBatch(ctx context.Context, chapters []*entity.Chapter) error

	// GetByID 根据 ID 获取章节
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// GetByBookAndNumber 根据书籍和章节序号获取章节
	GetByBookAndNumber(ctx context.Context, bookID string, number int) (*entity.Chapter, error)

	// Update 更新章节
	Update(ctx context.Context, chapter *entity.Chapter) error

	// UpdateStatus 更新章节状态
	UpdateStatus(ctx context.Context, id string, status entity.ChapterStatus) error

	// ListByBook 获取书籍章节列表（按序号排序）
	ListByBook(ctx context.Context, bookID string, filter *ChapterFilter) ([]*entity.Chapter, error)

	// CountByStatus 统计书籍内各状态章节数
	CountByStatus(ctx context.Context, bookID string) (map[entity.ChapterStatus]int64, error)

	// Delete 删除章节
	Delete(ctx context.Context, id string) error
}

// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bookgen-ai-api/internal/domain/entity"
)

// BookFilter 书籍过滤条件
type BookFilter struct {
	Status entity.BookStatus
	Genre  string
}

// BookRepository 书籍仓储接口
type BookRepository interface {
	// Create 创建书籍
	Create(ctx context.Context, book *entity.Book) error

	// GetByID 根据 ID 获取书籍
	GetByID(ctx context.Context, id string) (*entity.Book, error)

	// GetWithChapters 获取书籍及其全部章节（按章节序号排序）
	GetWithChapters(ctx context.Context, id string) (*entity.Book, error)

	// Update 更新书籍
	Update(ctx context.Context, book *entity.Book) error

	// UpdateStatus 更新书籍状态
	UpdateStatus(ctx context.Context, id string, status entity.BookStatus) error

	// Delete 删除书籍（级联删除章节、来源与日志）
	Delete(ctx context.Context, id string) error

	// List 获取书籍列表
	List(ctx context.Context, filter *BookFilter, pagination Pagination) (*PagedResult[*entity.Book], error)
}

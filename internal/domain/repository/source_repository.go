// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bookgen-ai-api/internal/domain/entity"
)

// SourceRepository 研究来源仓储接口
type SourceRepository interface {
	// Create 创建来源
	Create(ctx context.Context, source *entity.Source) error

	// CreateBatch 批量创建来源
	CreateBatch(ctx context.Context, sources []*entity.Source) error

	// ListByBook 获取书籍来源列表
	ListByBook(ctx context.Context, bookID string) ([]*entity.Source, error)

	// CountByBook 统计书籍来源数量
	CountByBook(ctx context.Context, bookID string) (int64, error)

	// DeleteByBook 删除书籍全部来源
	DeleteByBook(ctx context.Context, bookID string) error
}

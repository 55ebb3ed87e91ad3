// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"bookgen-ai-api/internal/domain/entity"
)

// SourceRepository 研究来源仓储实现
type SourceRepository struct {
	client *Client
}

// NewSourceRepository 创建来源仓储
func NewSourceRepository(client *Client) *SourceRepository {
	return &SourceRepository{client: client}
}

// Create 创建来源
func (r *SourceRepository) Create(ctx context.Context, source *entity.Source) error {
	ctx, span := tracer.Start(ctx, "postgres.SourceRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(source).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create source: %w", err)
	}
	return nil
}

// CreateBatch 批量创建来源
func (r *SourceRepository) CreateBatch(ctx context.Context, sources []*entity.Source) error {
	ctx, span := tracer.Start(ctx, "postgres.SourceRepository.CreateBatch")
	defer span.End()

	if len(sources) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	if err := db.CreateInBatches(sources, 50).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create sources: %w", err)
	}
	return nil
}

// ListByBook 获取书籍来源列表
func (r *SourceRepository) ListByBook(ctx context.Context, bookID string) ([]*entity.Source, error) {
	ctx, span := tracer.Start(ctx, "postgres.SourceRepository.ListByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var sources []*entity.Source
	if err := db.Where("book_id = ?", bookID).
		Order("created_at ASC").
		Find(&sources).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// CountByBook 统计书籍来源数量
func (r *SourceRepository) CountByBook(ctx context.Context, bookID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.SourceRepository.CountByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Source{}).Where("book_id = ?", bookID).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}

// DeleteByBook 删除书籍全部来源
func (r *SourceRepository) DeleteByBook(ctx context.Context, bookID string) error {
	ctx, span := tracer.Start(ctx, "postgres.SourceRepository.DeleteByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Source{}, "book_id = ?", bookID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete sources: %w", err)
	}
	return nil
}

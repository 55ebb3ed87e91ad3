// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"bookgen-ai-api/internal/domain/entity"
	"bookgen-ai-api/internal/domain/repository"
)

// AgentLogRepository 智能体日志仓储实现
type AgentLogRepository struct {
	client *Client
}

// NewAgentLogRepository 创建日志仓储
func NewAgentLogRepository(client *Client) *AgentLogRepository {
	return &AgentLogRepository{client: client}
}

// Create 写入日志
func (r *AgentLogRepository) Create(ctx context.Context, log *entity.AgentLog) error {
	ctx, span := tracer.Start(ctx, "postgres.AgentLogRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(log).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create agent log: %w", err)
	}
	return nil
}

// ListByBook 获取书籍日志（按时间倒序）
func (r *AgentLogRepository) ListByBook(ctx context.Context, bookID string, pagination repository.Pagination) (*repository.PagedResult[*entity.AgentLog], error) {
	ctx, span := tracer.Start(ctx, "postgres.AgentLogRepository.ListByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.AgentLog{}).Where("book_id = ?", bookID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count agent logs: %w", err)
	}

	var logs []*entity.AgentLog
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&logs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list agent logs: %w", err)
	}

	return repository.NewPagedResult(logs, total, pagination), nil
}

// ListByChapter 获取章节日志（按时间正序）
func (r *AgentLogRepository) ListByChapter(ctx context.Context, chapterID string) ([]*entity.AgentLog, error) {
	ctx, span := tracer.Start(ctx, "postgres.AgentLogRepository.ListByChapter")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var logs []*entity.AgentLog
	if err := db.Where("chapter_id = ?", chapterID).
		Order("created_at ASC").
		Find(&logs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list agent logs by chapter: %w", err)
	}
	return logs, nil
}

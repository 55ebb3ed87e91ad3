// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"bookgen-ai-api/internal/domain/entity"
)

// AgentLogRepository 智能体日志仓储接口
type AgentLogRepository interface {
	// Create 写入日志
	Create(ctx context.Context, log *entity.AgentLog) error

	// ListByBook 获取书籍日志（按时间倒序）
	ListByBook(ctx context.Context, bookID string, pagination Pagination) (*PagedResult[*entity.AgentLog], error)

	// ListByChapter 获取章节日志（按时间正序）
	ListByChapter(ctx context.Context, chapterID string) ([]*entity.AgentLog, error)
}

// Package generation 实现章节生成流水线
package generation

import (
	"context"

	"bookgen-ai-api/internal/application/retrieval"
	wfmodel "bookgen-ai-api/internal/workflow/model"
)

// Completion 定义流水线对补全链的最小依赖（port）。
type Completion interface {
	Invoke(ctx context.Context, in *wfmodel.CompletionInput) (*wfmodel.CompletionOutput, error)
}

// Retriever 定义流水线对向量检索的最小依赖（port）。
type Retriever interface {
	Enabled() bool
	Search(ctx context.Context, in retrieval.SearchInput) (*retrieval.SearchOutput, error)
}

// CacheInvalidator 章节状态变化后使状态缓存失效。
type CacheInvalidator interface {
	InvalidateBook(ctx context.Context, bookID string) error
}

// AgentStatusEvent 智能体状态事件载荷
type AgentStatusEvent struct {
	AgentName     string `json:"agent_name"`
	Status        string `json:"status"`
	CurrentTask   string `json:"current_task,omitempty"`
	ChapterNumber int    `json:"chapter_number,omitempty"`
}

// ChapterUpdateEvent 章节状态事件载荷
type ChapterUpdateEvent struct {
	BookID        string `json:"book_id"`
	ChapterNumber int    `json:"chapter_number"`
	Status        string `json:"status"`
}

// 智能体状态取值
const (
	AgentStatusActive = "active"
	AgentStatusIdle   = "idle"
	AgentStatusError  = "error"
)

// Notifier 定义流水线对进度通知的最小依赖（port）。
// 通知失败不影响流水线执行。
type Notifier interface {
	NotifyAgentStatus(ctx context.Context, bookID string, event AgentStatusEvent)
	NotifyChapterUpdate(ctx context.Context, event ChapterUpdateEvent)
}

// NopNotifier 空实现
type NopNotifier struct{}

func (NopNotifier) NotifyAgentStatus(context.Context, string, AgentStatusEvent) {}
func (NopNotifier) NotifyChapterUpdate(context.Context, ChapterUpdateEvent)    {}

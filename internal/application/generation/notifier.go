package generation

import (
	"context"

	"bookgen-ai-api/internal/infrastructure/messaging"
	"bookgen-ai-api/pkg/logger"
)

// StreamNotifier 将进度事件写入事件流
// 推送中心的桥接消费者负责转发给 SSE/WebSocket 订阅者。
type StreamNotifier struct {
	producer *messaging.Producer
}

func NewStreamNotifier(producer *messaging.Producer) *StreamNotifier {
	return &StreamNotifier{producer: producer}
}

var _ Notifier = (*StreamNotifier)(nil)

func (n *StreamNotifier) NotifyAgentStatus(ctx context.Context, bookID string, event AgentStatusEvent) {
	if n == nil || n.producer == nil {
		return
	}
	if _, err := n.producer.PublishProgressEvent(ctx, bookID, messaging.TypeAgentStatus, event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish agent status event",
			"book_id", bookID, "agent", event.AgentName, "error", err)
	}
}

func (n *StreamNotifier) NotifyChapterUpdate(ctx context.Context, event ChapterUpdateEvent) {
	if n == nil || n.producer == nil {
		return
	}
	if _, err := n.producer.PublishProgressEvent(ctx, event.BookID, messaging.TypeChapterUpdate, event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish chapter update event",
			"book_id", event.BookID, "chapter", event.ChapterNumber, "error", err)
	}
}

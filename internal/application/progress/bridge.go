package progress

import (
	"context"

	"bookgen-ai-api/internal/infrastructure/messaging"
)

// Bridge 将事件流中的进度消息转发到推送中心
// 流水线写事件流，Bridge 消费后广播给本进程的 SSE/WebSocket 订阅者。
type Bridge struct {
	consumer *messaging.Consumer
	hub      *Hub
}

func NewBridge(consumer *messaging.Consumer, hub *Hub) *Bridge {
	b := &Bridge{
		consumer: consumer,
		hub:      hub,
	}
	consumer.RegisterHandler(messaging.TypeAgentStatus, b.forward)
	consumer.RegisterHandler(messaging.TypeChapterUpdate, b.forward)
	return b
}

// Start 启动桥接消费
func (b *Bridge) Start(ctx context.Context) error {
	return b.consumer.Start(ctx)
}

// Stop 停止桥接消费
func (b *Bridge) Stop() {
	b.consumer.Stop()
}

func (b *Bridge) forward(ctx context.Context, msg *messaging.Message) error {
	b.hub.Publish(Event{
		Type:      msg.Type,
		BookID:    msg.BookID,
		Payload:   msg.Payload,
		Timestamp: msg.CreatedAt,
	})
	return nil
}

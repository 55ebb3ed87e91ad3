// Package progress 实现生成进度的进程内推送中心
package progress

import (
	"encoding/json"
	"sync"
	"time"

	"bookgen-ai-api/pkg/metrics"
)

// Event 推送给订阅者的进度事件
type Event struct {
	Type      string          `json:"type"`
	BookID    string          `json:"book_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// subscriberBuffer 单个订阅者的事件缓冲大小
// 缓冲满时丢弃事件而不是阻塞流水线。
const subscriberBuffer = 32

type subscriber struct {
	ch chan Event
}

// Hub 按书籍分组的事件推送中心
// SSE 与 WebSocket 连接都以订阅者身份挂在对应书籍下。
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe 订阅某本书的进度事件
// 返回接收通道和取消函数；取消后通道会被关闭。
func (h *Hub) Subscribe(bookID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[bookID] == nil {
		h.subs[bookID] = make(map[*subscriber]struct{})
	}
	h.subs[bookID][sub] = struct{}{}
	h.mu.Unlock()

	metrics.ProgressListeners.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[bookID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, bookID)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
			metrics.ProgressListeners.Dec()
		})
	}
	return sub.ch, cancel
}

// Publish 向某本书的全部订阅者广播事件
// 发送是非阻塞的，慢订阅者的事件被丢弃并计数。
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[event.BookID] {
		select {
		case sub.ch <- event:
		default:
			metrics.ProgressEventsDropped.Inc()
		}
	}
}

// SubscriberCount 某本书当前的订阅者数量
func (h *Hub) SubscriberCount(bookID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[bookID])
}

// Package messaging 提供进度事件流实现
package messaging

import (
	"encoding/json"
	"time"
)

// Message 消息结构
type Message struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	BookID    string            `json:"book_id"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage 创建新消息
func NewMessage(id, msgType, bookID string, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        id,
		Type:      msgType,
		BookID:    bookID,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now(),
	}, nil
}

// SetMetadata 设置元数据
func (m *Message) SetMetadata(key, value string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
}

// GetMetadata 获取元数据
func (m *Message) GetMetadata(key string) string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata[key]
}

// UnmarshalPayload 解析消息载荷
func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// Stream 流定义
type Stream string

const (
	// StreamBookEvents 书籍生成进度事件流
	StreamBookEvents Stream = "book_events"
)

// ConsumerGroup 消费者组定义
type ConsumerGroup string

const (
	// ConsumerGroupEventBridge 进度事件桥接消费者组（事件流 -> 推送中心）
	ConsumerGroupEventBridge ConsumerGroup = "cg-event-bridge"
)

// 事件类型
const (
	// TypeAgentStatus 智能体状态事件
	TypeAgentStatus = "agent_status"
	// TypeChapterUpdate 章节状态事件
	TypeChapterUpdate = "chapter_update"
)

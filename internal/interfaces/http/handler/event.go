// Package handler 提供 HTTP 请求处理器
package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"bookgen-ai-api/internal/application/progress"
	"bookgen-ai-api/internal/interfaces/http/dto"
	"bookgen-ai-api/pkg/logger"
)

const (
	sseHeartbeatInterval = 15 * time.Second
	wsWriteTimeout       = 10 * time.Second
)

// EventHandler 进度事件推送处理器
//
// SSE 与 WebSocket 共用同一个 Hub 订阅；慢消费者由 Hub 静默丢弃
// 事件，连接断开即取消订阅。
type EventHandler struct {
	hub      *progress.Hub
	upgrader websocket.Upgrader
}

// NewEventHandler 创建进度事件推送处理器
func NewEventHandler(hub *progress.Hub) *EventHandler {
	return &EventHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// eventEnvelope 推送到客户端的事件结构
type eventEnvelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// StreamEvents SSE 进度事件流
// @Summary 订阅书籍进度事件（SSE）
// @Tags Events
// @Produce text/event-stream
// @Param bid path string true "书籍 ID"
// @Success 200 "SSE stream"
// @Router /v1/books/{bid}/events [get]
func (h *EventHandler) StreamEvents(c *gin.Context) {
	bookID := dto.BindBookID(c)
	if bookID == "" {
		dto.BadRequest(c, "missing book id")
		return
	}

	events, cancel := h.hub.Subscribe(bookID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, eventEnvelope{
				Type:      event.Type,
				Data:      event.Payload,
				Timestamp: event.Timestamp,
			})
			return true

		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"ts": time.Now().Unix()})
			return true

		case <-c.Request.Context().Done():
			return false
		}
	})
}

// ServeWS WebSocket 进度事件流
// @Summary 订阅书籍进度事件（WebSocket）
// @Tags Events
// @Param bid path string true "书籍 ID"
// @Success 101 "Switching Protocols"
// @Router /ws/books/{bid} [get]
func (h *EventHandler) ServeWS(c *gin.Context) {
	bookID := dto.BindBookID(c)
	if bookID == "" {
		dto.BadRequest(c, "missing book id")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe(bookID)
	defer cancel()

	// 读循环只用于感知客户端断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(eventEnvelope{
				Type:      event.Type,
				Data:      event.Payload,
				Timestamp: event.Timestamp,
			}); err != nil {
				return
			}

		case <-heartbeat.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return

		case <-c.Request.Context().Done():
			return
		}
	}
}

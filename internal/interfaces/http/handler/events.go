// Package handler 提供 HTTP 请求处理器
package handler

import (
	"io"
	"net/http"

	"mockflow-api/internal/infrastructure/messaging"
	"mockflow-api/internal/interfaces/http/middleware"
	"mockflow-api/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// EventsHandler 进度事件 SSE 处理器
// 把当前用户的 redis 事件流桥接为 text/event-stream。
// 通道是用户级的：多项目并发生成的事件会交错出现，
// 客户端按载荷里的 projectId 自行过滤。
type EventsHandler struct {
	subscriber *messaging.EventSubscriber
}

// NewEventsHandler 创建进度事件处理器
func NewEventsHandler(subscriber *messaging.EventSubscriber) *EventsHandler {
	return &EventsHandler{subscriber: subscriber}
}

// Stream 订阅当前用户的进度事件流
// 支持 Last-Event-ID 断线续读；事件 ID 即 redis stream 条目 ID。
func (h *EventsHandler) Stream(c *gin.Context) {
	userID := middleware.GetUserIDFromGin(c)
	lastID := c.GetHeader("Last-Event-ID")
	if lastID == "" {
		lastID = c.Query("last_event_id")
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	metrics.ActiveSubscribers.Inc()
	defer metrics.ActiveSubscribers.Dec()

	events := h.subscriber.Subscribe(c.Request.Context(), userID, lastID)

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.Render(-1, sseEvent{
				ID:    ev.ID,
				Event: string(ev.Topic),
				Data:  ev.Payload,
			})
			return true

		case <-c.Request.Context().Done():
			return false
		}
	})
}

// sseEvent 带 ID 的 SSE 事件渲染器。
// gin 自带的 SSEvent 不写 id 字段，断线续读需要它。
type sseEvent struct {
	ID    string
	Event string
	Data  []byte
}

func (e sseEvent) Render(w http.ResponseWriter) error {
	if _, err := io.WriteString(w, "id: "+e.ID+"\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "event: "+e.Event+"\n"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "data: "); err != nil {
		return err
	}
	if _, err := w.Write(e.Data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n\n")
	return err
}

func (e sseEvent) WriteContentType(w http.ResponseWriter) {}

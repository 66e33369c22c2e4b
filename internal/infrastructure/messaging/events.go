// Package messaging 提供每用户进度事件流实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mockflow-api/internal/domain/entity"
	"mockflow-api/pkg/logger"
	"mockflow-api/pkg/metrics"
)

// UserEventStream 构建用户事件流名称
func UserEventStream(userID string) string {
	return fmt.Sprintf("user:%s:events", userID)
}

// StreamEvent 事件流中的单条事件
type StreamEvent struct {
	ID      string            `json:"id"`
	Topic   entity.EventTopic `json:"topic"`
	Payload json.RawMessage   `json:"payload"`
}

// EventPublisher 进度事件发布者
// 同一任务的事件写入同一条用户流，天然保证发布顺序；
// 传输层是 at-least-once，订阅端需要幂等处理重复投递。
type EventPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewEventPublisher 创建进度事件发布者
func NewEventPublisher(client *redis.Client, maxLen int64) *EventPublisher {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &EventPublisher{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布进度事件到用户流
func (p *EventPublisher) Publish(ctx context.Context, userID string, topic entity.EventTopic, payload interface{}) error {
	ctx, span := tracer.Start(ctx, "events.Publish",
		trace.WithAttributes(
			attribute.String("event.topic", string(topic)),
			attribute.String("user_id", userID),
		))
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: UserEventStream(userID),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"topic":   string(topic),
			"payload": string(data),
		},
	}).Err()

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.ProgressEventsPublished.WithLabelValues(string(topic)).Inc()
	return nil
}

// EventSubscriber 进度事件订阅者，供 SSE 端点桥接
type EventSubscriber struct {
	client       *redis.Client
	blockTimeout time.Duration
}

// NewEventSubscriber 创建进度事件订阅者
func NewEventSubscriber(client *redis.Client) *EventSubscriber {
	return &EventSubscriber{
		client:       client,
		blockTimeout: 5 * time.Second,
	}
}

// Subscribe 订阅用户事件流
// lastID 为客户端最后收到的事件 ID（断线重连续读），为空时从当前位置开始。
// 返回的通道在 ctx 取消后关闭。未知主题在此边界被拒绝并记录。
func (s *EventSubscriber) Subscribe(ctx context.Context, userID, lastID string) <-chan StreamEvent {
	if lastID == "" {
		lastID = "$"
	}

	ch := make(chan StreamEvent, 16)

	go func() {
		defer close(ch)

		log := logger.FromContext(ctx)
		stream := UserEventStream(userID)
		cursor := lastID

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			streams, err := s.client.XRead(ctx, &redis.XReadArgs{
				Streams: []string{stream, cursor},
				Count:   32,
				Block:   s.blockTimeout,
			}).Result()

			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				log.Error("failed to read event stream", "error", err, "stream", stream)
				time.Sleep(time.Second)
				continue
			}

			for _, str := range streams {
				for _, xmsg := range str.Messages {
					cursor = xmsg.ID

					topicStr, _ := xmsg.Values["topic"].(string)
					topic := entity.EventTopic(topicStr)
					if !entity.KnownTopic(topic) {
						log.Warn("dropping event with unknown topic", "topic", topicStr, "event_id", xmsg.ID)
						continue
					}

					payloadStr, _ := xmsg.Values["payload"].(string)

					select {
					case ch <- StreamEvent{ID: xmsg.ID, Topic: topic, Payload: json.RawMessage(payloadStr)}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch
}

// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mockflow-api/internal/domain/entity"
)

var tracer = otel.Tracer("messaging")

// 消息类型
const (
	MsgTypeGenerate   = "generate"
	MsgTypeRegenerate = "regenerate"
)

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishGenerateJob 发布全量生成任务
func (p *Producer) PublishGenerateJob(ctx context.Context, job *GenerateJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, MsgTypeGenerate, job.UserID, job.ProjectID, job)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamMockupGen, msg)
}

// PublishRegenerateJob 发布单帧再生成任务
func (p *Producer) PublishRegenerateJob(ctx context.Context, job *RegenerateJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, MsgTypeRegenerate, job.UserID, job.ProjectID, job)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamMockupGen, msg)
}

// GenerateJobMessage 全量生成任务消息
type GenerateJobMessage struct {
	JobID       string              `json:"job_id"`
	UserID      string              `json:"user_id"`
	ProjectID   string              `json:"project_id"`
	Prompt      string              `json:"prompt"`
	Preferences *entity.Preferences `json:"preferences,omitempty"`
	Theme       string              `json:"theme,omitempty"`
	BrandKit    *entity.BrandKit    `json:"brand_kit,omitempty"`
}

// RegenerateJobMessage 单帧再生成任务消息
type RegenerateJobMessage struct {
	JobID           string           `json:"job_id"`
	UserID          string           `json:"user_id"`
	ProjectID       string           `json:"project_id"`
	FrameID         string           `json:"frame_id"`
	Prompt          string           `json:"prompt"`
	Theme           string           `json:"theme"`
	TargetOuterHTML string           `json:"target_outer_html,omitempty"`
	BrandKit        *entity.BrandKit `json:"brand_kit,omitempty"`
}

package mockup

import (
	"context"

	"mockflow-api/internal/domain/entity"
	"mockflow-api/pkg/logger"
)

// EventSink 进度事件出口，由 redis stream 发布器实现。
type EventSink interface {
	Publish(ctx context.Context, userID string, topic entity.EventTopic, payload interface{}) error
}

// Progress 把流水线生命周期翻译为固定词汇表的进度事件。
// 事件发布失败只记录警告，不中断生成：进度是尽力而为的旁路信号，
// 持久化状态才是事实来源。
type Progress struct {
	sink EventSink
}

func NewProgress(sink EventSink) *Progress {
	return &Progress{sink: sink}
}

func (p *Progress) Start(ctx context.Context, userID, projectID string) {
	p.emit(ctx, userID, entity.TopicGenerationStart, entity.StatusPayload{
		Status:    "started",
		ProjectID: projectID,
	})
}

func (p *Progress) AnalysisStart(ctx context.Context, userID, projectID string) {
	p.emit(ctx, userID, entity.TopicAnalysisStart, entity.StatusPayload{
		Status:    "analyzing",
		ProjectID: projectID,
	})
}

func (p *Progress) AnalysisComplete(ctx context.Context, userID, projectID string, plan *entity.ScreenPlan) {
	p.emit(ctx, userID, entity.TopicAnalysisComplete, entity.AnalysisCompletePayload{
		Status:       "generating",
		Theme:        plan.Theme,
		TotalScreens: len(plan.Screens),
		Screens:      plan.Screens,
		ProjectID:    projectID,
	})
}

func (p *Progress) FrameCreated(ctx context.Context, userID, projectID, screenID string, frame *entity.Frame) {
	p.emit(ctx, userID, entity.TopicFrameCreated, entity.FrameCreatedPayload{
		Frame:     frame,
		ScreenID:  screenID,
		ProjectID: projectID,
	})
}

func (p *Progress) Complete(ctx context.Context, userID, projectID string) {
	p.emit(ctx, userID, entity.TopicGenerationComplete, entity.StatusPayload{
		Status:    "completed",
		ProjectID: projectID,
	})
}

func (p *Progress) ScreenFailed(ctx context.Context, userID, projectID, screenID, reason string) {
	p.emit(ctx, userID, entity.TopicScreenFailed, entity.ScreenFailedPayload{
		ScreenID:  screenID,
		Reason:    reason,
		ProjectID: projectID,
	})
}

func (p *Progress) emit(ctx context.Context, userID string, topic entity.EventTopic, payload interface{}) {
	if p == nil || p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, userID, topic, payload); err != nil {
		logger.Warn(ctx, "failed to publish progress event",
			"topic", string(topic),
			"user_id", userID,
			"error", err.Error(),
		)
	}
}

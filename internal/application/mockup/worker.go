package mockup

import (
	"context"

	"mockflow-api/internal/domain/entity"
	"mockflow-api/internal/domain/repository"
	"mockflow-api/internal/infrastructure/messaging"
	"mockflow-api/pkg/logger"
)

// Worker 把生成流水线挂接到消息消费者上。
type Worker struct {
	pipeline    *Pipeline
	regenerator *Regenerator
	progress    *Progress
	jobs        repository.JobRepository
}

func NewWorker(pipeline *Pipeline, regenerator *Regenerator, progress *Progress, jobs repository.JobRepository) *Worker {
	return &Worker{
		pipeline:    pipeline,
		regenerator: regenerator,
		progress:    progress,
		jobs:        jobs,
	}
}

// Register 注册消息处理器和重试耗尽回调。
func (w *Worker) Register(consumer *messaging.Consumer) {
	consumer.RegisterHandler(messaging.MsgTypeGenerate, w.handleGenerate)
	consumer.RegisterHandler(messaging.MsgTypeRegenerate, w.handleRegenerate)
	consumer.OnExhausted(w.handleExhausted)
}

func (w *Worker) handleGenerate(ctx context.Context, msg *messaging.Message) error {
	var job messaging.GenerateJobMessage
	if err := msg.UnmarshalPayload(&job); err != nil {
		return err
	}
	ctx = logger.WithContext(ctx, logger.JobIDKey, job.JobID)
	ctx = logger.WithContext(ctx, logger.ProjectIDKey, job.ProjectID)
	ctx = logger.WithContext(ctx, logger.UserIDKey, job.UserID)
	return w.pipeline.RunGenerate(ctx, &job)
}

func (w *Worker) handleRegenerate(ctx context.Context, msg *messaging.Message) error {
	var job messaging.RegenerateJobMessage
	if err := msg.UnmarshalPayload(&job); err != nil {
		return err
	}
	ctx = logger.WithContext(ctx, logger.JobIDKey, job.JobID)
	ctx = logger.WithContext(ctx, logger.ProjectIDKey, job.ProjectID)
	ctx = logger.WithContext(ctx, logger.UserIDKey, job.UserID)
	return w.regenerator.RunRegenerate(ctx, &job)
}

// handleExhausted 在消息重试耗尽、移入死信队列前触发：
// 把任务标记为失败，并向客户端补发 screen.failed，
// 避免订阅端只能看到进度停滞。
func (w *Worker) handleExhausted(ctx context.Context, msg *messaging.Message, cause error) {
	reason := "generation failed after retries"
	if cause != nil {
		reason = cause.Error()
	}

	if err := w.jobs.UpdateStatus(ctx, msg.ID, entity.JobStatusFailed, reason); err != nil {
		logger.Error(ctx, "failed to mark job failed", err, "job_id", msg.ID)
	}

	screenID := w.pendingScreenID(ctx, msg.ID)
	w.progress.ScreenFailed(ctx, msg.UserID, msg.ProjectID, screenID, reason)
}

// pendingScreenID 从检查点推断最先未完成的屏幕 ID，推断不出时返回空。
func (w *Worker) pendingScreenID(ctx context.Context, jobID string) string {
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil || job == nil || job.Checkpoint == nil || job.Checkpoint.Plan == nil {
		return ""
	}
	cp := job.Checkpoint
	for i, spec := range cp.Plan.Screens {
		if !cp.StepDone(stepGenerateScreen(i)) {
			return spec.ID
		}
	}
	return ""
}

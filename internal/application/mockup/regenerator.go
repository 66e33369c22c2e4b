package mockup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mockflow-api/internal/application/mockup/theme"
	"mockflow-api/internal/domain/entity"
	"mockflow-api/internal/domain/repository"
	"mockflow-api/internal/infrastructure/messaging"
	apperrors "mockflow-api/pkg/errors"
	"mockflow-api/pkg/logger"
	"mockflow-api/pkg/metrics"
)

// Regenerator 单帧再生成：跳过规划，对一个已有屏幕重新调用生成阶段，
// 可选地把修改限定在一个子片段内。
type Regenerator struct {
	generator    *Generator
	progress     *Progress
	projects     repository.ProjectRepository
	frames       repository.FrameRepository
	jobs         repository.JobRepository
	lock         JobLock
	cache        CacheInvalidator
	siblingLimit int
}

func NewRegenerator(
	generator *Generator,
	progress *Progress,
	projects repository.ProjectRepository,
	frames repository.FrameRepository,
	jobs repository.JobRepository,
	lock JobLock,
	cache CacheInvalidator,
	siblingLimit int,
) *Regenerator {
	if siblingLimit <= 0 {
		siblingLimit = 6
	}
	return &Regenerator{
		generator:    generator,
		progress:     progress,
		projects:     projects,
		frames:       frames,
		jobs:         jobs,
		lock:         lock,
		cache:        cache,
		siblingLimit: siblingLimit,
	}
}

// RunRegenerate 执行一次单帧再生成任务。
// 主题永远沿用项目当前主题，不重新选择；一致性上下文只取最近创建的
// 若干同项目帧，比全量生成的窗口小。
// 片段定位失败是软失败：保留原内容、记录警告并正常收尾，
// 客户端收到内容未变的 frame.created 以清除加载态。
func (r *Regenerator) RunRegenerate(ctx context.Context, msg *messaging.RegenerateJobMessage) error {
	if msg == nil {
		return apperrors.New(apperrors.CodeInvalidParam, "job message is nil")
	}

	start := time.Now()

	job, err := r.jobs.GetByID(ctx, msg.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", msg.JobID, err)
	}
	if job == nil {
		return apperrors.ErrJobNotFound
	}

	project, err := r.projects.GetByID(ctx, msg.ProjectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", msg.ProjectID, err)
	}
	if project == nil {
		return apperrors.ErrProjectNotFound
	}

	target, err := r.frames.GetByID(ctx, msg.FrameID)
	if err != nil {
		return fmt.Errorf("load frame %s: %w", msg.FrameID, err)
	}
	if target == nil {
		return apperrors.ErrFrameNotFound
	}

	if r.lock != nil {
		ok, err := r.lock.Acquire(ctx, msg.ProjectID, msg.JobID)
		if err != nil {
			return fmt.Errorf("acquire project lock: %w", err)
		}
		if !ok {
			return apperrors.ErrProjectBusy
		}
		defer func() {
			if err := r.lock.Release(ctx, msg.ProjectID, msg.JobID); err != nil {
				logger.Warn(ctx, "failed to release project lock", "project_id", msg.ProjectID, "error", err.Error())
			}
		}()
	}

	if job.Status != entity.JobStatusRunning {
		job.Start()
		if err := r.jobs.UpdateStatus(ctx, job.ID, entity.JobStatusRunning, ""); err != nil {
			return fmt.Errorf("mark job running: %w", err)
		}
	}

	r.progress.Start(ctx, msg.UserID, msg.ProjectID)

	cp := job.EnsureCheckpoint()
	resultFrame := target
	if !cp.StepDone(stepRegenerateScreen) {
		siblings, err := r.frames.ListRecentSiblings(ctx, msg.ProjectID, msg.FrameID, r.siblingLimit)
		if err != nil {
			return fmt.Errorf("list sibling frames: %w", err)
		}

		prior := make([]PriorScreen, 0, len(siblings)+1)
		prior = append(prior, PriorScreen{Title: target.Title, HTML: target.HTMLContent})
		for _, f := range siblings {
			prior = append(prior, PriorScreen{Title: f.Title, HTML: f.HTMLContent})
		}

		currentTheme := strings.TrimSpace(msg.Theme)
		if currentTheme == "" {
			currentTheme = project.Theme
		}
		resolvedTheme := theme.Resolve(currentTheme, project.Platform)
		brand := pickBrand(msg.BrandKit, project)

		frame, err := r.generator.GenerateScreen(ctx, &GenerateScreenInput{
			ProjectID: msg.ProjectID,
			Spec: entity.ScreenSpec{
				ID:                target.ID,
				Name:              target.Title,
				Purpose:           "Apply the requested edit to this existing screen.",
				VisualDescription: msg.Prompt,
			},
			Index:           0,
			Total:           1,
			Platform:        project.Platform,
			Prior:           prior,
			ThemeCSS:        BuildThemeCSS(resolvedTheme, brand),
			Brand:           brand,
			TargetFrame:     target,
			TargetOuterHTML: msg.TargetOuterHTML,
		})
		switch {
		case err == nil:
			resultFrame = frame
		case isFragmentNotFound(err):
			logger.Warn(ctx, "fragment edit abandoned, frame left unchanged",
				"frame_id", msg.FrameID,
				"job_id", msg.JobID,
			)
		default:
			metrics.MockupGenerationTotal.WithLabelValues("regenerate", "error").Inc()
			return fmt.Errorf("regenerate frame %s: %w", msg.FrameID, err)
		}

		cp.MarkStepDone(stepRegenerateScreen)
		if err := r.jobs.SaveCheckpoint(ctx, job.ID, cp); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}

	r.progress.FrameCreated(ctx, msg.UserID, msg.ProjectID, resultFrame.ID, resultFrame)
	r.progress.Complete(ctx, msg.UserID, msg.ProjectID)

	if err := r.jobs.UpdateStatus(ctx, job.ID, entity.JobStatusCompleted, ""); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	if r.cache != nil {
		if err := r.cache.InvalidateProject(ctx, msg.ProjectID); err != nil {
			logger.Warn(ctx, "failed to invalidate project cache", "project_id", msg.ProjectID, "error", err.Error())
		}
	}

	metrics.MockupGenerationTotal.WithLabelValues("regenerate", "ok").Inc()
	metrics.MockupGenerationDuration.WithLabelValues("regenerate").Observe(time.Since(start).Seconds())
	logger.Info(ctx, "regeneration job completed",
		"job_id", job.ID,
		"frame_id", msg.FrameID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func isFragmentNotFound(err error) bool {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code == apperrors.CodeFragmentNotFound
	}
	return false
}

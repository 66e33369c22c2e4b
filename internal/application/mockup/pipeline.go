package mockup

import (
	"context"
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

// 流水线步骤名。检查点按步骤名记录完成情况，重投递时跳过已完成步骤。
const (
	stepAnalyzeAndPlan   = "analyze-and-plan"
	stepRegenerateScreen = "regenerate-screen"
)

func stepGenerateScreen(i int) string {
	return fmt.Sprintf("generate-screen-%d", i)
}

// JobLock 项目级生成锁：同一项目上的全量生成与单帧再生成不允许并发。
type JobLock interface {
	Acquire(ctx context.Context, projectID, token string) (bool, error)
	Release(ctx context.Context, projectID, token string) error
	Extend(ctx context.Context, projectID string) error
}

// CacheInvalidator 项目缓存失效出口。
type CacheInvalidator interface {
	InvalidateProject(ctx context.Context, projectID string) error
}

// Pipeline 全量生成流水线：规划一次，随后逐屏顺序生成。
// 屏幕间存在刻意的顺序依赖（每屏的提示词携带此前所有屏幕的标记），
// 不可并行化。
type Pipeline struct {
	planner   *Planner
	generator *Generator
	progress  *Progress
	projects  repository.ProjectRepository
	frames    repository.FrameRepository
	jobs      repository.JobRepository
	lock      JobLock
	cache     CacheInvalidator
}

func NewPipeline(
	planner *Planner,
	generator *Generator,
	progress *Progress,
	projects repository.ProjectRepository,
	frames repository.FrameRepository,
	jobs repository.JobRepository,
	lock JobLock,
	cache CacheInvalidator,
) *Pipeline {
	return &Pipeline{
		planner:   planner,
		generator: generator,
		progress:  progress,
		projects:  projects,
		frames:    frames,
		jobs:      jobs,
		lock:      lock,
		cache:     cache,
	}
}

// RunGenerate 执行一次全量生成任务。
// 返回错误表示当前步骤失败，消息会按退避策略重投递；
// 已完成步骤由检查点保证不重复执行，已落库的帧不受影响。
func (p *Pipeline) RunGenerate(ctx context.Context, msg *messaging.GenerateJobMessage) error {
	if msg == nil {
		return apperrors.New(apperrors.CodeInvalidParam, "job message is nil")
	}

	start := time.Now()

	job, err := p.jobs.GetByID(ctx, msg.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", msg.JobID, err)
	}
	if job == nil {
		return apperrors.ErrJobNotFound
	}

	project, err := p.projects.GetByID(ctx, msg.ProjectID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", msg.ProjectID, err)
	}
	if project == nil {
		return apperrors.ErrProjectNotFound
	}

	if p.lock != nil {
		ok, err := p.lock.Acquire(ctx, msg.ProjectID, msg.JobID)
		if err != nil {
			return fmt.Errorf("acquire project lock: %w", err)
		}
		if !ok {
			return apperrors.ErrProjectBusy
		}
		defer func() {
			if err := p.lock.Release(ctx, msg.ProjectID, msg.JobID); err != nil {
				logger.Warn(ctx, "failed to release project lock", "project_id", msg.ProjectID, "error", err.Error())
			}
		}()
	}

	if job.Status != entity.JobStatusRunning {
		job.Start()
		if err := p.jobs.UpdateStatus(ctx, job.ID, entity.JobStatusRunning, ""); err != nil {
			return fmt.Errorf("mark job running: %w", err)
		}
	}

	existing, err := p.frames.ListByProject(ctx, msg.ProjectID)
	if err != nil {
		return fmt.Errorf("list existing frames: %w", err)
	}

	p.progress.Start(ctx, msg.UserID, msg.ProjectID)

	constraints := DeriveConstraints(msg.Preferences)
	var negative []string
	var preset string
	if msg.Preferences != nil {
		negative = msg.Preferences.NegativePrompts
		preset = msg.Preferences.StylePreset
	}

	cp := job.EnsureCheckpoint()
	plan, err := p.planStep(ctx, msg, job, cp, project, existing, constraints, negative, preset)
	if err != nil {
		metrics.MockupGenerationTotal.WithLabelValues("generate", "error").Inc()
		return err
	}

	resolvedTheme := theme.Resolve(plan.Theme, project.Platform)
	brand := pickBrand(msg.BrandKit, project)
	themeCSS := BuildThemeCSS(resolvedTheme, brand)

	byTitle := make(map[string]*entity.Frame, len(existing))
	for _, f := range existing {
		byTitle[f.Title] = f
	}

	prior := make([]PriorScreen, 0, len(plan.Screens))
	for i, spec := range plan.Screens {
		step := stepGenerateScreen(i)
		if cp.StepDone(step) {
			// 崩溃恢复：已生成的帧从库里捞回来补进上下文。
			if f, ok := byTitle[spec.Name]; ok {
				prior = append(prior, PriorScreen{Title: f.Title, HTML: f.HTMLContent})
			}
			continue
		}

		frame, err := p.generator.GenerateScreen(ctx, &GenerateScreenInput{
			ProjectID:      msg.ProjectID,
			Spec:           spec,
			Index:          i,
			Total:          len(plan.Screens),
			IsOnboarding:   i < constraints.Onboarding,
			Platform:       project.Platform,
			Prior:          prior,
			ThemeCSS:       themeCSS,
			Brand:          brand,
			NegativeLines:  negative,
			StylePreset:    preset,
			IncludePaywall: constraints.IncludePaywall,
		})
		if err != nil {
			metrics.MockupGenerationTotal.WithLabelValues("generate", "error").Inc()
			return fmt.Errorf("generate screen %s: %w", spec.ID, err)
		}

		cp.MarkStepDone(step)
		if err := p.jobs.SaveCheckpoint(ctx, job.ID, cp); err != nil {
			return fmt.Errorf("save checkpoint after %s: %w", step, err)
		}

		// 多屏生成可能超过锁的初始 TTL，每屏续期一次。
		if p.lock != nil {
			if err := p.lock.Extend(ctx, msg.ProjectID); err != nil {
				logger.Warn(ctx, "failed to extend project lock", "project_id", msg.ProjectID, "error", err.Error())
			}
		}

		prior = append(prior, PriorScreen{Title: frame.Title, HTML: frame.HTMLContent})
		p.progress.FrameCreated(ctx, msg.UserID, msg.ProjectID, spec.ID, frame)
	}

	p.progress.Complete(ctx, msg.UserID, msg.ProjectID)

	if err := p.jobs.UpdateStatus(ctx, job.ID, entity.JobStatusCompleted, ""); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	if p.cache != nil {
		if err := p.cache.InvalidateProject(ctx, msg.ProjectID); err != nil {
			logger.Warn(ctx, "failed to invalidate project cache", "project_id", msg.ProjectID, "error", err.Error())
		}
	}

	metrics.MockupGenerationTotal.WithLabelValues("generate", "ok").Inc()
	metrics.MockupGenerationDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	logger.Info(ctx, "generation job completed",
		"job_id", job.ID,
		"project_id", msg.ProjectID,
		"screens", len(plan.Screens),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// planStep 执行（或从检查点恢复）规划步骤。
// 首次生成时把选出的主题先写回项目，再开始逐屏生成。
func (p *Pipeline) planStep(
	ctx context.Context,
	msg *messaging.GenerateJobMessage,
	job *entity.GenerationJob,
	cp *entity.JobCheckpoint,
	project *entity.Project,
	existing []*entity.Frame,
	constraints Constraints,
	negative []string,
	preset string,
) (*entity.ScreenPlan, error) {
	if cp.StepDone(stepAnalyzeAndPlan) {
		if cp.Plan == nil || len(cp.Plan.Screens) == 0 {
			return nil, fmt.Errorf("checkpoint marks planning done but carries no plan")
		}
		return cp.Plan, nil
	}

	p.progress.AnalysisStart(ctx, msg.UserID, msg.ProjectID)

	currentTheme := strings.TrimSpace(msg.Theme)
	if currentTheme == "" {
		currentTheme = project.Theme
	}

	plan, err := p.planner.Plan(ctx, &PlanRequest{
		Prompt:         msg.Prompt,
		Platform:       project.Platform,
		CurrentTheme:   currentTheme,
		ExistingFrames: existing,
		Constraints:    constraints,
		NegativeLines:  negative,
		StylePreset:    preset,
	})
	if err != nil {
		return nil, fmt.Errorf("plan screens: %w", err)
	}

	if len(existing) == 0 {
		if err := p.projects.UpdateTheme(ctx, msg.ProjectID, plan.Theme); err != nil {
			return nil, fmt.Errorf("persist selected theme: %w", err)
		}
		project.Theme = plan.Theme
	}

	cp.Plan = plan
	cp.MarkStepDone(stepAnalyzeAndPlan)
	if err := p.jobs.SaveCheckpoint(ctx, job.ID, cp); err != nil {
		return nil, fmt.Errorf("save planning checkpoint: %w", err)
	}

	p.progress.AnalysisComplete(ctx, msg.UserID, msg.ProjectID, plan)
	return plan, nil
}

func pickBrand(fromMsg *entity.BrandKit, project *entity.Project) *entity.BrandKit {
	if fromMsg != nil && !fromMsg.IsEmpty() {
		return fromMsg
	}
	if project != nil && !project.BrandKit.IsEmpty() {
		return project.BrandKit
	}
	return nil
}

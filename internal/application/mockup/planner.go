package mockup

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"

	"mockflow-api/internal/application/mockup/theme"
	"mockflow-api/internal/domain/entity"
	wfmodel "mockflow-api/internal/workflow/model"
	wfnode "mockflow-api/internal/workflow/node"
	apperrors "mockflow-api/pkg/errors"
	"mockflow-api/pkg/logger"
)

// PlanInvoker 规划链入口。
type PlanInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.PlanInput) (*schema.Message, error)
}

// Planner 分析阶段：把自由文本需求转成有序屏幕计划和主题选择。
type Planner struct {
	chain    PlanInvoker
	provider string
	model    string
}

func NewPlanner(chain PlanInvoker, provider, model string) *Planner {
	return &Planner{chain: chain, provider: provider, model: model}
}

// PlanRequest 一次规划调用的输入。
type PlanRequest struct {
	Prompt         string
	Platform       entity.Platform
	CurrentTheme   string
	ExistingFrames []*entity.Frame
	Constraints    Constraints
	NegativeLines  []string
	StylePreset    string
}

// Plan 调用结构化输出模型产出屏幕计划。
// 已有屏幕时主题强制沿用项目当前主题（模型的建议被忽略）；
// 首次生成时对模型选出的主题做硬校验，未知 ID 回退平台默认主题。
// 模型调用失败或输出不合 schema 时整步失败，由队列重试，不提交部分计划。
func (p *Planner) Plan(ctx context.Context, req *PlanRequest) (*entity.ScreenPlan, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "prompt is required")
	}

	in := &wfmodel.PlanInput{
		Provider:         p.provider,
		Model:            p.model,
		Prompt:           req.Prompt,
		ContextBlock:     BuildPlanContextBlock(req.ExistingFrames),
		ConstraintsBlock: BuildConstraintLines(req.Constraints, req.NegativeLines, req.StylePreset),
	}
	if len(req.ExistingFrames) == 0 {
		in.ThemeOptionsBlock = BuildThemeOptionsBlock()
	}

	outMsg, err := p.chain.Invoke(ctx, in)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMCallFailed, "screen planning call failed")
	}

	plan, err := ParseScreenPlan(outMsg.Content)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlanInvalid, "screen plan output invalid")
	}

	if len(req.ExistingFrames) > 0 {
		plan.Theme = req.CurrentTheme
	} else {
		resolved := theme.Resolve(plan.Theme, req.Platform)
		if resolved.ID != plan.Theme {
			logger.Warn(ctx, "planner picked unknown theme, falling back to platform default",
				"picked", plan.Theme,
				"fallback", resolved.ID,
			)
		}
		plan.Theme = resolved.ID
	}

	return plan, nil
}

var kebabIDRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ParseScreenPlan 从模型输出中解析并校验屏幕计划。
func ParseScreenPlan(rawText string) (*entity.ScreenPlan, error) {
	jsonText := wfnode.ExtractJSONObject(rawText)
	if strings.TrimSpace(jsonText) == "" {
		return nil, fmt.Errorf("empty plan output")
	}

	var result wfmodel.PlanResult
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, fmt.Errorf("failed to parse plan json: %w", err)
	}

	if len(result.Screens) < 1 || len(result.Screens) > 10 {
		return nil, fmt.Errorf("plan must contain 1-10 screens, got %d", len(result.Screens))
	}

	seen := make(map[string]struct{}, len(result.Screens))
	screens := make([]entity.ScreenSpec, 0, len(result.Screens))
	for i, s := range result.Screens {
		id := strings.TrimSpace(s.ID)
		name := strings.TrimSpace(s.Name)
		if id == "" || !kebabIDRe.MatchString(id) {
			return nil, fmt.Errorf("screen %d has invalid id %q", i, s.ID)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate screen id %q", id)
		}
		seen[id] = struct{}{}
		if name == "" {
			return nil, fmt.Errorf("screen %q has empty name", id)
		}
		if strings.TrimSpace(s.Purpose) == "" {
			return nil, fmt.Errorf("screen %q has empty purpose", id)
		}
		if strings.TrimSpace(s.VisualDescription) == "" {
			return nil, fmt.Errorf("screen %q has empty visual description", id)
		}
		screens = append(screens, entity.ScreenSpec{
			ID:                id,
			Name:              name,
			Purpose:           strings.TrimSpace(s.Purpose),
			VisualDescription: strings.TrimSpace(s.VisualDescription),
		})
	}

	return &entity.ScreenPlan{
		Theme:   strings.TrimSpace(result.Theme),
		Screens: screens,
	}, nil
}

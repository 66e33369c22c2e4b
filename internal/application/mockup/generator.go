package mockup

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"mockflow-api/internal/application/mockup/fragment"
	"mockflow-api/internal/domain/entity"
	"mockflow-api/internal/domain/repository"
	wfmodel "mockflow-api/internal/workflow/model"
	wfnode "mockflow-api/internal/workflow/node"
	apperrors "mockflow-api/pkg/errors"
	"mockflow-api/pkg/logger"
	"mockflow-api/pkg/metrics"
)

// ScreenInvoker 屏幕生成链入口。
type ScreenInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.ScreenGenerateInput) (*schema.Message, error)
}

// Generator 生成阶段：单屏调用模型产出 HTML 并落库。
type Generator struct {
	chain        ScreenInvoker
	frames       repository.FrameRepository
	provider     string
	model        string
	maxToolSteps int
}

func NewGenerator(chain ScreenInvoker, frames repository.FrameRepository, provider, model string, maxToolSteps int) *Generator {
	return &Generator{
		chain:        chain,
		frames:       frames,
		provider:     provider,
		model:        model,
		maxToolSteps: maxToolSteps,
	}
}

// GenerateScreenInput 单屏生成输入。
// TargetFrame 非空表示编辑已有屏幕；TargetOuterHTML 再非空则是片段级局部重绘。
type GenerateScreenInput struct {
	ProjectID      string
	Spec           entity.ScreenSpec
	Index          int
	Total          int
	IsOnboarding   bool
	Platform       entity.Platform
	Prior          []PriorScreen
	ThemeCSS       string
	Brand          *entity.BrandKit
	NegativeLines  []string
	StylePreset    string
	IncludePaywall bool

	TargetFrame     *entity.Frame
	TargetOuterHTML string
}

// GenerateScreen 执行一次屏幕生成并持久化结果。
//
// 整屏模式：按 (project_id, title) upsert，同名帧内容整体替换。
// 局部重绘模式：模型只产出替换片段，经片段定位器合入原文档；
// 定位失败时放弃本次修改、保留原内容，返回包装后的软失败。
func (g *Generator) GenerateScreen(ctx context.Context, in *GenerateScreenInput) (*entity.Frame, error) {
	if in == nil {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "generate input is nil")
	}

	partial := strings.TrimSpace(in.TargetOuterHTML) != ""
	start := time.Now()

	wfIn := &wfmodel.ScreenGenerateInput{
		Provider:        g.provider,
		Model:           g.model,
		ScreenSpecBlock: BuildScreenSpecBlock(in.Spec, in.Index, in.Total, in.Platform, in.IsOnboarding),
		ContextBlock:    BuildGenerationContextBlock(in.Prior),
		ThemeCSSBlock:   in.ThemeCSS,
		BrandBlock:      BuildBrandBlock(in.Brand),
		NegativeBlock:   BuildNegativeBlock(in.NegativeLines),
		PresetBlock:     BuildPresetBlock(in.StylePreset),
		PaywallLine:     BuildPaywallLine(in.Spec, in.IncludePaywall),
		TargetBlock:     BuildTargetBlock(in.TargetOuterHTML),
		PartialEdit:     partial,
		MaxToolSteps:    g.maxToolSteps,
	}

	outMsg, err := g.chain.Invoke(ctx, wfIn)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMCallFailed, "screen generation call failed")
	}

	html := wfnode.ExtractHTMLFragment(outMsg.Content, partial)
	if strings.TrimSpace(html) == "" {
		return nil, apperrors.New(apperrors.CodeGenerationFailed, "model returned empty markup")
	}

	var frame *entity.Frame
	if in.TargetFrame != nil {
		frame, err = g.persistEdit(ctx, in, html, partial)
	} else {
		frame, err = g.persistNew(ctx, in, html)
	}
	if err != nil {
		return nil, err
	}

	metrics.ScreensGenerated.WithLabelValues(string(in.Platform)).Inc()
	logger.Info(ctx, "screen generated",
		"screen_id", in.Spec.ID,
		"frame_id", frame.ID,
		"partial", partial,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return frame, nil
}

func (g *Generator) persistNew(ctx context.Context, in *GenerateScreenInput, html string) (*entity.Frame, error) {
	frame := entity.NewFrame(in.ProjectID, in.Spec.Name, html)
	if err := g.frames.Upsert(ctx, frame); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to persist frame")
	}
	return frame, nil
}

func (g *Generator) persistEdit(ctx context.Context, in *GenerateScreenInput, html string, partial bool) (*entity.Frame, error) {
	frame := in.TargetFrame

	content := html
	if partial {
		merged, err := fragment.Replace(frame.HTMLContent, in.TargetOuterHTML, html)
		if err != nil {
			if errors.Is(err, fragment.ErrFragmentNotFound) {
				logger.Warn(ctx, "target fragment not found, keeping document unchanged",
					"frame_id", frame.ID,
				)
				return nil, apperrors.Wrap(err, apperrors.CodeFragmentNotFound, "target fragment not found")
			}
			return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "fragment merge failed")
		}
		content = merged
	}

	if err := g.frames.UpdateContent(ctx, frame.ID, content); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update frame content")
	}
	frame.ReplaceContent(content)
	return frame, nil
}

package mockup

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockflow-api/internal/domain/entity"
	wfmodel "mockflow-api/internal/workflow/model"
	apperrors "mockflow-api/pkg/errors"
)

func TestParseScreenPlan(t *testing.T) {
	raw := "```json\n" + `{
  "theme": "midnight",
  "screens": [
    {"id": "welcome", "name": "Welcome", "purpose": "greet", "visual_description": "hero"},
    {"id": "home-feed", "name": "Home", "purpose": "browse", "visual_description": "cards"}
  ]
}` + "\n```"

	plan, err := ParseScreenPlan(raw)
	require.NoError(t, err)
	assert.Equal(t, "midnight", plan.Theme)
	require.Len(t, plan.Screens, 2)
	assert.Equal(t, "welcome", plan.Screens[0].ID)
	assert.Equal(t, "Home", plan.Screens[1].Name)
}

func TestParseScreenPlanRejectsInvalidOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty output", "   "},
		{"no json object", "sure, here is your plan"},
		{"zero screens", `{"theme":"mono","screens":[]}`},
		{"invalid id", `{"theme":"mono","screens":[{"id":"Home Feed","name":"Home","visual_description":"x"}]}`},
		{"duplicate id", `{"theme":"mono","screens":[
			{"id":"home","name":"Home","visual_description":"x"},
			{"id":"home","name":"Home 2","visual_description":"y"}]}`},
		{"empty name", `{"theme":"mono","screens":[{"id":"home","name":"","visual_description":"x"}]}`},
		{"empty purpose", `{"theme":"mono","screens":[{"id":"home","name":"Home","purpose":" ","visual_description":"x"}]}`},
		{"empty visual description", `{"theme":"mono","screens":[{"id":"home","name":"Home","purpose":"p","visual_description":" "}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScreenPlan(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestParseScreenPlanRejectsTooManyScreens(t *testing.T) {
	raw := `{"theme":"mono","screens":[`
	for i := 0; i < 11; i++ {
		if i > 0 {
			raw += ","
		}
		raw += `{"id":"screen-` + string(rune('a'+i)) + `","name":"S","visual_description":"x"}`
	}
	raw += `]}`

	_, err := ParseScreenPlan(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1-10 screens")
}

type fakePlanInvoker struct {
	lastInput *wfmodel.PlanInput
	content   string
	err       error
}

func (f *fakePlanInvoker) Invoke(_ context.Context, in *wfmodel.PlanInput) (*schema.Message, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

func TestPlannerFirstGenerationResolvesTheme(t *testing.T) {
	fake := &fakePlanInvoker{content: `{"theme":"not-a-theme","screens":[{"id":"welcome","name":"Welcome","purpose":"greet","visual_description":"x"}]}`}
	p := NewPlanner(fake, "openai", "gpt-4o")

	plan, err := p.Plan(context.Background(), &PlanRequest{
		Prompt:      "a meditation app",
		Platform:    entity.PlatformMobile,
		Constraints: DeriveConstraints(nil),
	})
	require.NoError(t, err)
	// 未知主题被硬校验回退到平台默认。
	assert.Equal(t, "clean-light", plan.Theme)
	// 首次生成时向模型展示主题清单。
	require.NotNil(t, fake.lastInput)
	assert.NotEmpty(t, fake.lastInput.ThemeOptionsBlock)
}

func TestPlannerExistingFramesKeepCurrentTheme(t *testing.T) {
	fake := &fakePlanInvoker{content: `{"theme":"crimson","screens":[{"id":"settings","name":"Settings","purpose":"configure","visual_description":"x"}]}`}
	p := NewPlanner(fake, "openai", "gpt-4o")

	plan, err := p.Plan(context.Background(), &PlanRequest{
		Prompt:         "add a settings screen",
		Platform:       entity.PlatformMobile,
		CurrentTheme:   "forest",
		ExistingFrames: []*entity.Frame{{Title: "Home", HTMLContent: "<div>home</div>"}},
		Constraints:    DeriveConstraints(nil),
	})
	require.NoError(t, err)
	// 已有屏幕时忽略模型的主题建议，沿用项目主题。
	assert.Equal(t, "forest", plan.Theme)
	// 不再展示主题清单，但携带已有屏幕上下文。
	assert.Empty(t, fake.lastInput.ThemeOptionsBlock)
	assert.Contains(t, fake.lastInput.ContextBlock, "=== Home ===")
}

func TestPlannerErrors(t *testing.T) {
	p := NewPlanner(&fakePlanInvoker{}, "openai", "gpt-4o")
	_, err := p.Plan(context.Background(), &PlanRequest{Prompt: "   "})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)

	p = NewPlanner(&fakePlanInvoker{err: errors.New("upstream boom")}, "openai", "gpt-4o")
	_, err = p.Plan(context.Background(), &PlanRequest{Prompt: "an app", Platform: entity.PlatformMobile})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeLLMCallFailed, apperrors.AsAppError(err).Code)

	p = NewPlanner(&fakePlanInvoker{content: "not json at all"}, "openai", "gpt-4o")
	_, err = p.Plan(context.Background(), &PlanRequest{Prompt: "an app", Platform: entity.PlatformMobile})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePlanInvalid, apperrors.AsAppError(err).Code)
}

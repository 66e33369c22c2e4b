package mockup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockflow-api/internal/domain/entity"
	"mockflow-api/internal/infrastructure/messaging"
)

type regenFixture struct {
	regen   *Regenerator
	genFake *fakeScreenInvoker
	frames  *fakeFrameRepo
	jobs    *fakeJobRepo
	sink    *fakeSink
	target  *entity.Frame
}

func newRegenFixture(reply string) *regenFixture {
	f := &regenFixture{
		genFake: &fakeScreenInvoker{reply: func(int) string { return reply }},
		frames:  &fakeFrameRepo{},
		jobs:    &fakeJobRepo{job: &entity.GenerationJob{ID: "job-2", UserID: "user-1", ProjectID: "proj-1", JobType: entity.JobTypeRegenerate, Status: entity.JobStatusPending, Checkpoint: &entity.JobCheckpoint{}}},
		sink:    &fakeSink{},
	}

	projects := &fakeProjectRepo{project: &entity.Project{ID: "proj-1", UserID: "user-1", Platform: entity.PlatformMobile, Theme: "forest"}}

	ctx := context.Background()
	_ = f.frames.Upsert(ctx, entity.NewFrame("proj-1", "Home", `<div class="screen"><header id="top">Home</header><p>body</p></div>`))
	_ = f.frames.Upsert(ctx, entity.NewFrame("proj-1", "Profile", `<div class="screen">profile</div>`))
	f.target = f.frames.frames[0]

	generator := NewGenerator(f.genFake, f.frames, "openai", "gpt-4o", 5)
	progress := NewProgress(f.sink)
	f.regen = NewRegenerator(generator, progress, projects, f.frames, f.jobs, &fakeLock{}, &fakeCache{}, 6)
	return f
}

func regenerateMsg(frameID, targetHTML string) *messaging.RegenerateJobMessage {
	return &messaging.RegenerateJobMessage{
		JobID:           "job-2",
		UserID:          "user-1",
		ProjectID:       "proj-1",
		FrameID:         frameID,
		Prompt:          "make the header bolder",
		TargetOuterHTML: targetHTML,
	}
}

func TestRunRegenerateFullFrame(t *testing.T) {
	f := newRegenFixture(`<div class="screen">redesigned</div>`)

	err := f.regen.RunRegenerate(context.Background(), regenerateMsg(f.target.ID, ""))
	require.NoError(t, err)

	assert.Equal(t, `<div class="screen">redesigned</div>`, f.target.HTMLContent)
	assert.Equal(t, entity.JobStatusCompleted, f.jobs.job.Status)
	assertTopicOrder(t, f.sink.topics,
		entity.TopicGenerationStart,
		entity.TopicFrameCreated,
		entity.TopicGenerationComplete,
	)

	// 一致性上下文包含目标帧自身和兄弟帧。
	require.Len(t, f.genFake.inputs, 1)
	assert.Contains(t, f.genFake.inputs[0].ContextBlock, "=== Home ===")
	assert.Contains(t, f.genFake.inputs[0].ContextBlock, "=== Profile ===")
	// 主题沿用项目主题，不重新规划。
	assert.Contains(t, f.genFake.inputs[0].ThemeCSSBlock, "--primary: #16a34a;")
}

func TestRunRegeneratePartialEdit(t *testing.T) {
	f := newRegenFixture(`<header id="top">HOME!</header>`)

	err := f.regen.RunRegenerate(context.Background(), regenerateMsg(f.target.ID, `<header id="top">Home</header>`))
	require.NoError(t, err)

	assert.Equal(t, `<div class="screen"><header id="top">HOME!</header><p>body</p></div>`, f.target.HTMLContent)
	require.Len(t, f.genFake.inputs, 1)
	assert.True(t, f.genFake.inputs[0].PartialEdit)
	assert.Contains(t, f.genFake.inputs[0].TargetBlock, `<header id="top">Home</header>`)
}

func TestRunRegenerateFragmentNotFoundIsSoftFailure(t *testing.T) {
	f := newRegenFixture(`<footer id="bottom">new</footer>`)
	original := f.target.HTMLContent

	// 目标片段在文档里不存在：保留原内容、任务照常完结。
	err := f.regen.RunRegenerate(context.Background(), regenerateMsg(f.target.ID, `<footer id="bottom">stale</footer>`))
	require.NoError(t, err)

	assert.Equal(t, original, f.target.HTMLContent)
	assert.Equal(t, entity.JobStatusCompleted, f.jobs.job.Status)

	// 客户端仍收到 frame.created（内容未变）以清除加载态。
	assertTopicOrder(t, f.sink.topics,
		entity.TopicFrameCreated,
		entity.TopicGenerationComplete,
	)
}

func TestRunRegenerateUnknownFrame(t *testing.T) {
	f := newRegenFixture(`<div>x</div>`)

	err := f.regen.RunRegenerate(context.Background(), regenerateMsg("no-such-frame", ""))
	assert.Error(t, err)
	assert.Empty(t, f.genFake.inputs)
}

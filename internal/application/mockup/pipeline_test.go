package mockup

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockflow-api/internal/domain/entity"
	"mockflow-api/internal/domain/repository"
	"mockflow-api/internal/infrastructure/messaging"
	wfmodel "mockflow-api/internal/workflow/model"
	apperrors "mockflow-api/pkg/errors"
)

// ---- 测试替身 ----

type fakeScreenInvoker struct {
	mu     sync.Mutex
	inputs []*wfmodel.ScreenGenerateInput
	reply  func(call int) string
	err    error
}

func (f *fakeScreenInvoker) Invoke(_ context.Context, in *wfmodel.ScreenGenerateInput) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply(len(f.inputs)-1), nil), nil
}

type fakeProjectRepo struct {
	project *entity.Project
	themes  []string
}

func (f *fakeProjectRepo) Create(context.Context, *entity.Project) error { return nil }
func (f *fakeProjectRepo) GetByID(_ context.Context, id string) (*entity.Project, error) {
	if f.project != nil && f.project.ID == id {
		return f.project, nil
	}
	return nil, nil
}
func (f *fakeProjectRepo) Update(context.Context, *entity.Project) error { return nil }
func (f *fakeProjectRepo) UpdateTheme(_ context.Context, _ string, theme string) error {
	f.themes = append(f.themes, theme)
	return nil
}
func (f *fakeProjectRepo) Delete(context.Context, string) error { return nil }
func (f *fakeProjectRepo) ListByUser(context.Context, string, repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return &repository.PagedResult[*entity.Project]{}, nil
}

type fakeFrameRepo struct {
	frames []*entity.Frame
	nextID int
}

func (f *fakeFrameRepo) Upsert(_ context.Context, frame *entity.Frame) error {
	for _, existing := range f.frames {
		if existing.ProjectID == frame.ProjectID && existing.Title == frame.Title {
			existing.HTMLContent = frame.HTMLContent
			frame.ID = existing.ID
			return nil
		}
	}
	f.nextID++
	frame.ID = fmt.Sprintf("frame-%d", f.nextID)
	f.frames = append(f.frames, frame)
	return nil
}
func (f *fakeFrameRepo) GetByID(_ context.Context, id string) (*entity.Frame, error) {
	for _, fr := range f.frames {
		if fr.ID == id {
			return fr, nil
		}
	}
	return nil, nil
}
func (f *fakeFrameRepo) UpdateContent(_ context.Context, id, htmlContent string) error {
	for _, fr := range f.frames {
		if fr.ID == id {
			fr.HTMLContent = htmlContent
			return nil
		}
	}
	return fmt.Errorf("frame %s not found", id)
}
func (f *fakeFrameRepo) ListByProject(_ context.Context, projectID string) ([]*entity.Frame, error) {
	var out []*entity.Frame
	for _, fr := range f.frames {
		if fr.ProjectID == projectID {
			out = append(out, fr)
		}
	}
	return out, nil
}
func (f *fakeFrameRepo) ListRecentSiblings(_ context.Context, projectID, excludeFrameID string, limit int) ([]*entity.Frame, error) {
	var out []*entity.Frame
	for i := len(f.frames) - 1; i >= 0 && len(out) < limit; i-- {
		fr := f.frames[i]
		if fr.ProjectID == projectID && fr.ID != excludeFrameID {
			out = append(out, fr)
		}
	}
	return out, nil
}
func (f *fakeFrameRepo) Delete(context.Context, string) error          { return nil }
func (f *fakeFrameRepo) DeleteByProject(context.Context, string) error { return nil }

type fakeJobRepo struct {
	job         *entity.GenerationJob
	statuses    []entity.JobStatus
	checkpoints int
}

func (f *fakeJobRepo) Create(context.Context, *entity.GenerationJob) error { return nil }
func (f *fakeJobRepo) GetByID(_ context.Context, id string) (*entity.GenerationJob, error) {
	if f.job != nil && f.job.ID == id {
		return f.job, nil
	}
	return nil, nil
}
func (f *fakeJobRepo) UpdateStatus(_ context.Context, _ string, status entity.JobStatus, errMsg string) error {
	f.statuses = append(f.statuses, status)
	f.job.Status = status
	f.job.ErrorMessage = errMsg
	return nil
}
func (f *fakeJobRepo) SaveCheckpoint(_ context.Context, _ string, cp *entity.JobCheckpoint) error {
	f.checkpoints++
	f.job.Checkpoint = cp
	return nil
}
func (f *fakeJobRepo) IncrRetry(context.Context, string) error { return nil }
func (f *fakeJobRepo) ListByProject(context.Context, string, repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	return &repository.PagedResult[*entity.GenerationJob]{}, nil
}

type fakeSink struct {
	mu     sync.Mutex
	topics []entity.EventTopic
}

func (f *fakeSink) Publish(_ context.Context, _ string, topic entity.EventTopic, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	return nil
}

type fakeLock struct {
	denied   bool
	acquired int
	released int
	extended int
}

func (f *fakeLock) Acquire(context.Context, string, string) (bool, error) {
	if f.denied {
		return false, nil
	}
	f.acquired++
	return true, nil
}
func (f *fakeLock) Release(context.Context, string, string) error {
	f.released++
	return nil
}
func (f *fakeLock) Extend(context.Context, string) error {
	f.extended++
	return nil
}

type fakeCache struct{ invalidated []string }

func (f *fakeCache) InvalidateProject(_ context.Context, projectID string) error {
	f.invalidated = append(f.invalidated, projectID)
	return nil
}

// ---- 测试装配 ----

const twoScreenPlanJSON = `{
  "theme": "midnight",
  "screens": [
    {"id": "welcome", "name": "Welcome", "purpose": "greet", "visual_description": "hero"},
    {"id": "home-feed", "name": "Home", "purpose": "browse", "visual_description": "cards"}
  ]
}`

type pipelineFixture struct {
	pipeline *Pipeline
	planFake *fakePlanInvoker
	genFake  *fakeScreenInvoker
	projects *fakeProjectRepo
	frames   *fakeFrameRepo
	jobs     *fakeJobRepo
	sink     *fakeSink
	lock     *fakeLock
	cache    *fakeCache
}

func newPipelineFixture(planContent string) *pipelineFixture {
	f := &pipelineFixture{
		planFake: &fakePlanInvoker{content: planContent},
		genFake: &fakeScreenInvoker{reply: func(call int) string {
			return fmt.Sprintf(`<div class="screen">screen-%d</div>`, call)
		}},
		projects: &fakeProjectRepo{project: &entity.Project{ID: "proj-1", UserID: "user-1", Name: "Demo", Platform: entity.PlatformMobile}},
		frames:   &fakeFrameRepo{},
		jobs:     &fakeJobRepo{job: &entity.GenerationJob{ID: "job-1", UserID: "user-1", ProjectID: "proj-1", JobType: entity.JobTypeGenerate, Status: entity.JobStatusPending, Checkpoint: &entity.JobCheckpoint{}}},
		sink:     &fakeSink{},
		lock:     &fakeLock{},
		cache:    &fakeCache{},
	}

	planner := NewPlanner(f.planFake, "openai", "gpt-4o")
	generator := NewGenerator(f.genFake, f.frames, "openai", "gpt-4o", 5)
	progress := NewProgress(f.sink)
	f.pipeline = NewPipeline(planner, generator, progress, f.projects, f.frames, f.jobs, f.lock, f.cache)
	return f
}

func generateMsg() *messaging.GenerateJobMessage {
	return &messaging.GenerateJobMessage{
		JobID:     "job-1",
		UserID:    "user-1",
		ProjectID: "proj-1",
		Prompt:    "a meditation app",
	}
}

// assertTopicOrder 校验 got 中依次出现 want 的每个主题（允许夹杂其它事件）。
func assertTopicOrder(t *testing.T, got []entity.EventTopic, want ...entity.EventTopic) {
	t.Helper()
	i := 0
	for _, topic := range got {
		if i < len(want) && topic == want[i] {
			i++
		}
	}
	require.Equal(t, len(want), i, "expected ordered subsequence %v in %v", want, got)
}

// ---- 用例 ----

func TestRunGenerateHappyPath(t *testing.T) {
	f := newPipelineFixture(twoScreenPlanJSON)

	err := f.pipeline.RunGenerate(context.Background(), generateMsg())
	require.NoError(t, err)

	// 事件按生命周期顺序发布。
	assertTopicOrder(t, f.sink.topics,
		entity.TopicGenerationStart,
		entity.TopicAnalysisStart,
		entity.TopicAnalysisComplete,
		entity.TopicFrameCreated,
		entity.TopicFrameCreated,
		entity.TopicGenerationComplete,
	)

	// 两屏落库，标题来自计划。
	require.Len(t, f.frames.frames, 2)
	assert.Equal(t, "Welcome", f.frames.frames[0].Title)
	assert.Equal(t, "Home", f.frames.frames[1].Title)
	assert.Contains(t, f.frames.frames[0].HTMLContent, "screen-0")

	// 首次生成把选出的主题写回项目。
	assert.Equal(t, []string{"midnight"}, f.projects.themes)

	// 第二屏的上下文携带第一屏的标记。
	require.Len(t, f.genFake.inputs, 2)
	assert.Contains(t, f.genFake.inputs[0].ContextBlock, "No prior screens")
	assert.Contains(t, f.genFake.inputs[1].ContextBlock, "=== Welcome ===")
	assert.Contains(t, f.genFake.inputs[1].ContextBlock, "screen-0")

	// 任务完结、锁释放、缓存失效。
	assert.Equal(t, entity.JobStatusCompleted, f.jobs.job.Status)
	assert.Equal(t, 1, f.lock.released)
	// 每生成一屏锁续期一次。
	assert.Equal(t, 2, f.lock.extended)
	assert.Equal(t, []string{"proj-1"}, f.cache.invalidated)
}

func TestRunGenerateThemeCSSInjected(t *testing.T) {
	f := newPipelineFixture(twoScreenPlanJSON)

	err := f.pipeline.RunGenerate(context.Background(), generateMsg())
	require.NoError(t, err)

	// 主题变量随每次屏幕生成注入。
	for _, in := range f.genFake.inputs {
		assert.Contains(t, in.ThemeCSSBlock, "--primary:")
		assert.Contains(t, in.ThemeCSSBlock, "--font-body:")
	}
}

func TestRunGenerateResumeSkipsDoneSteps(t *testing.T) {
	f := newPipelineFixture(twoScreenPlanJSON)

	// 模拟上次执行：规划完成、第一屏已生成并落库。
	plan, err := ParseScreenPlan(twoScreenPlanJSON)
	require.NoError(t, err)
	f.jobs.job.Checkpoint = &entity.JobCheckpoint{
		Plan:           plan,
		CompletedSteps: []string{"analyze-and-plan", "generate-screen-0"},
	}
	require.NoError(t, f.frames.Upsert(context.Background(), entity.NewFrame("proj-1", "Welcome", `<div class="screen">screen-0</div>`)))

	// 规划器若被再次调用会失败，证明检查点生效。
	f.planFake.err = fmt.Errorf("planner must not be called on resume")

	err = f.pipeline.RunGenerate(context.Background(), generateMsg())
	require.NoError(t, err)

	// 只生成了剩下的一屏，且上下文从库里补齐了第一屏。
	require.Len(t, f.genFake.inputs, 1)
	assert.Contains(t, f.genFake.inputs[0].ContextBlock, "=== Welcome ===")
	require.Len(t, f.frames.frames, 2)

	// 重复投递不会重发已完成屏幕的 frame.created。
	created := 0
	for _, topic := range f.sink.topics {
		if topic == entity.TopicFrameCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

func TestRunGenerateUpsertByTitleDoesNotDuplicate(t *testing.T) {
	f := newPipelineFixture(twoScreenPlanJSON)
	require.NoError(t, f.pipeline.RunGenerate(context.Background(), generateMsg()))
	require.Len(t, f.frames.frames, 2)

	// 同一计划重跑：同名帧内容整体替换，不新增行。
	f.jobs.job.Checkpoint = &entity.JobCheckpoint{}
	f.jobs.job.Status = entity.JobStatusPending
	require.NoError(t, f.pipeline.RunGenerate(context.Background(), generateMsg()))
	assert.Len(t, f.frames.frames, 2)
}

func TestRunGenerateProjectBusy(t *testing.T) {
	f := newPipelineFixture(twoScreenPlanJSON)
	f.lock.denied = true

	err := f.pipeline.RunGenerate(context.Background(), generateMsg())
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeProjectBusy, appErr.Code)
	assert.Empty(t, f.genFake.inputs)
}

func TestRunGenerateUnknownJob(t *testing.T) {
	f := newPipelineFixture(twoScreenPlanJSON)
	msg := generateMsg()
	msg.JobID = "missing"

	err := f.pipeline.RunGenerate(context.Background(), msg)
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)
}

func TestRunGenerateScreenFailurePropagates(t *testing.T) {
	f := newPipelineFixture(twoScreenPlanJSON)
	f.genFake.err = fmt.Errorf("model unavailable")

	err := f.pipeline.RunGenerate(context.Background(), generateMsg())
	require.Error(t, err)

	// 规划检查点已保存：重投递可跳过规划直接重试屏幕。
	require.NotNil(t, f.jobs.job.Checkpoint)
	assert.True(t, f.jobs.job.Checkpoint.StepDone("analyze-and-plan"))
	assert.False(t, f.jobs.job.Checkpoint.StepDone("generate-screen-0"))
	// 失败路径不发 generation.complete。
	for _, topic := range f.sink.topics {
		assert.NotEqual(t, entity.TopicGenerationComplete, topic)
	}
}

package mockup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockflow-api/internal/domain/entity"
	"mockflow-api/internal/infrastructure/messaging"
)

func TestHandleExhaustedMarksJobFailedAndEmitsScreenFailed(t *testing.T) {
	plan, err := ParseScreenPlan(twoScreenPlanJSON)
	require.NoError(t, err)

	jobs := &fakeJobRepo{job: &entity.GenerationJob{
		ID:        "job-1",
		UserID:    "user-1",
		ProjectID: "proj-1",
		Status:    entity.JobStatusRunning,
		Checkpoint: &entity.JobCheckpoint{
			Plan:           plan,
			CompletedSteps: []string{"analyze-and-plan", "generate-screen-0"},
		},
	}}
	sink := &fakeSink{}
	w := NewWorker(nil, nil, NewProgress(sink), jobs)

	msg := &messaging.Message{ID: "job-1", UserID: "user-1", ProjectID: "proj-1"}
	w.handleExhausted(context.Background(), msg, errors.New("model unavailable"))

	assert.Equal(t, entity.JobStatusFailed, jobs.job.Status)
	assert.Equal(t, "model unavailable", jobs.job.ErrorMessage)
	// 第一个未完成的屏幕被标记失败。
	require.Len(t, sink.topics, 1)
	assert.Equal(t, entity.TopicScreenFailed, sink.topics[0])
}

func TestPendingScreenIDWithoutCheckpoint(t *testing.T) {
	jobs := &fakeJobRepo{job: &entity.GenerationJob{ID: "job-1"}}
	w := NewWorker(nil, nil, NewProgress(&fakeSink{}), jobs)

	assert.Empty(t, w.pendingScreenID(context.Background(), "job-1"))
	assert.Empty(t, w.pendingScreenID(context.Background(), "missing"))
}

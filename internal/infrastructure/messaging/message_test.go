package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageRoundTrip(t *testing.T) {
	job := &GenerateJobMessage{
		JobID:     "job-1",
		UserID:    "user-1",
		ProjectID: "proj-1",
		Prompt:    "a habit tracker",
	}

	msg, err := NewMessage(job.JobID, MsgTypeGenerate, job.UserID, job.ProjectID, job)
	require.NoError(t, err)
	assert.Equal(t, "job-1", msg.ID)
	assert.Equal(t, MsgTypeGenerate, msg.Type)

	var decoded GenerateJobMessage
	require.NoError(t, msg.UnmarshalPayload(&decoded))
	assert.Equal(t, *job, decoded)
}

func TestMessageMetadata(t *testing.T) {
	msg := &Message{}
	assert.Empty(t, msg.GetMetadata("retry"))
	msg.SetMetadata("retry", "2")
	assert.Equal(t, "2", msg.GetMetadata("retry"))
}

func TestDLQStream(t *testing.T) {
	assert.Equal(t, "dlq:stream:mockup:gen", StreamMockupGen.DLQStream())
}

func TestCalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	assert.Equal(t, 8*time.Second, cfg.CalculateBackoff(3))
	// 超过上限后封顶。
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(4))
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(50))
}

func TestUserEventStream(t *testing.T) {
	assert.Equal(t, "user:u-42:events", UserEventStream("u-42"))
}

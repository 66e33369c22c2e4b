// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// JobType 任务类型
type JobType string

const (
	JobTypeGenerate   JobType = "generate"
	JobTypeRegenerate JobType = "regenerate"
)

// JobStatus 任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobCheckpoint 任务检查点
// 持久化已完成的步骤名和规划结果，重投递的消息据此跳过已完成步骤。
type JobCheckpoint struct {
	Plan           *ScreenPlan `json:"plan,omitempty"`
	CompletedSteps []string    `json:"completed_steps,omitempty"`
}

// StepDone 检查某步骤是否已完成
func (c *JobCheckpoint) StepDone(step string) bool {
	for _, s := range c.CompletedSteps {
		if s == step {
			return true
		}
	}
	return false
}

// MarkStepDone 标记步骤完成（幂等）
func (c *JobCheckpoint) MarkStepDone(step string) {
	if c.StepDone(step) {
		return
	}
	c.CompletedSteps = append(c.CompletedSteps, step)
}

// GenerationJob 生成任务
type GenerationJob struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	ProjectID    string          `json:"project_id"`
	JobType      JobType         `json:"job_type"`
	Status       JobStatus       `json:"status"`
	InputParams  json.RawMessage `json:"input_params"`
	Checkpoint   *JobCheckpoint  `json:"checkpoint,omitempty"`
	RetryCount   int             `json:"retry_count"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// NewGenerationJob 创建新任务
func NewGenerationJob(userID, projectID string, jobType JobType, inputParams json.RawMessage) *GenerationJob {
	now := time.Now()
	return &GenerationJob{
		UserID:      userID,
		ProjectID:   projectID,
		JobType:     jobType,
		Status:      JobStatusPending,
		InputParams: inputParams,
		Checkpoint:  &JobCheckpoint{},
		RetryCount:  0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Start 开始执行任务
func (j *GenerationJob) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
}

// Complete 完成任务
func (j *GenerationJob) Complete() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Fail 任务失败
func (j *GenerationJob) Fail(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// Retry 重试任务
func (j *GenerationJob) Retry() {
	j.RetryCount++
	j.Status = JobStatusPending
	j.StartedAt = nil
	j.CompletedAt = nil
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now()
}

// EnsureCheckpoint 返回非 nil 的检查点
func (j *GenerationJob) EnsureCheckpoint() *JobCheckpoint {
	if j.Checkpoint == nil {
		j.Checkpoint = &JobCheckpoint{}
	}
	return j.Checkpoint
}

// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"mockflow-api/internal/domain/entity"
)

// PreferencesBody 生成偏好请求体
type PreferencesBody struct {
	TotalScreens      int      `json:"total_screens,omitempty"`
	OnboardingScreens int      `json:"onboarding_screens,omitempty"`
	IncludePaywall    bool     `json:"include_paywall,omitempty"`
	NegativePrompts   []string `json:"negative_prompts,omitempty"`
	StylePreset       string   `json:"style_preset,omitempty"`
}

// ToEntity 转换为偏好实体
func (p *PreferencesBody) ToEntity(platform entity.Platform) *entity.Preferences {
	if p == nil {
		return nil
	}
	return &entity.Preferences{
		Platform:          platform,
		TotalScreens:      p.TotalScreens,
		OnboardingScreens: p.OnboardingScreens,
		IncludePaywall:    p.IncludePaywall,
		NegativePrompts:   p.NegativePrompts,
		StylePreset:       p.StylePreset,
	}
}

// GenerateRequest 全量生成请求
type GenerateRequest struct {
	Prompt      string           `json:"prompt" binding:"required"`
	Preferences *PreferencesBody `json:"preferences,omitempty"`
	Theme       string           `json:"theme,omitempty"`
	BrandKit    *BrandKitBody    `json:"brand_kit,omitempty"`
}

// RegenerateRequest 单帧再生成请求
type RegenerateRequest struct {
	Prompt          string        `json:"prompt" binding:"required"`
	TargetOuterHTML string        `json:"target_outer_html,omitempty"`
	BrandKit        *BrandKitBody `json:"brand_kit,omitempty"`
}

// JobResponse 生成任务响应
type JobResponse struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"project_id"`
	JobType      string     `json:"job_type"`
	Status       string     `json:"status"`
	RetryCount   int        `json:"retry_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ToJobResponse 转换任务响应
func ToJobResponse(j *entity.GenerationJob) *JobResponse {
	if j == nil {
		return nil
	}
	return &JobResponse{
		ID:           j.ID,
		ProjectID:    j.ProjectID,
		JobType:      string(j.JobType),
		Status:       string(j.Status),
		RetryCount:   j.RetryCount,
		ErrorMessage: j.ErrorMessage,
		CreatedAt:    j.CreatedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
}

// JobListResponse 任务列表响应
type JobListResponse struct {
	Jobs []*JobResponse `json:"jobs"`
}

// ToJobListResponse 转换任务列表响应
func ToJobListResponse(items []*entity.GenerationJob) *JobListResponse {
	out := make([]*JobResponse, 0, len(items))
	for _, j := range items {
		out = append(out, ToJobResponse(j))
	}
	return &JobListResponse{Jobs: out}
}

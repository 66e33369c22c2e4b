// Package handler 提供 HTTP 请求处理器
package handler

import (
	"encoding/json"
	"strings"

	"mockflow-api/internal/domain/entity"
	"mockflow-api/internal/domain/repository"
	"mockflow-api/internal/infrastructure/messaging"
	"mockflow-api/internal/interfaces/http/dto"
	"mockflow-api/internal/interfaces/http/middleware"
	"mockflow-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// GenerationHandler 生成任务处理器
// 请求校验通过后创建持久化任务并投递到生成队列，立即返回 202；
// 实际生成由 worker 异步执行，进度经用户事件流推送。
type GenerationHandler struct {
	projectRepo repository.ProjectRepository
	frameRepo   repository.FrameRepository
	jobRepo     repository.JobRepository
	producer    *messaging.Producer
}

// NewGenerationHandler 创建生成任务处理器
func NewGenerationHandler(
	projectRepo repository.ProjectRepository,
	frameRepo repository.FrameRepository,
	jobRepo repository.JobRepository,
	producer *messaging.Producer,
) *GenerationHandler {
	return &GenerationHandler{
		projectRepo: projectRepo,
		frameRepo:   frameRepo,
		jobRepo:     jobRepo,
		producer:    producer,
	}
}

// Generate 触发项目全量生成
func (h *GenerationHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	projectID := dto.BindProjectID(c)

	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		dto.BadRequest(c, "prompt is required")
		return
	}

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to get project", err)
		dto.InternalError(c, "failed to get project")
		return
	}
	if project == nil {
		dto.NotFound(c, "project not found")
		return
	}
	if project.UserID != userID {
		dto.Forbidden(c, "project belongs to another user")
		return
	}

	inputParams, _ := json.Marshal(req)
	job := entity.NewGenerationJob(userID, projectID, entity.JobTypeGenerate, inputParams)
	if err := h.jobRepo.Create(ctx, job); err != nil {
		logger.Error(ctx, "failed to create generation job", err)
		dto.InternalError(c, "failed to create generation job")
		return
	}

	msg := &messaging.GenerateJobMessage{
		JobID:       job.ID,
		UserID:      userID,
		ProjectID:   projectID,
		Prompt:      strings.TrimSpace(req.Prompt),
		Preferences: req.Preferences.ToEntity(project.Platform),
		Theme:       strings.TrimSpace(req.Theme),
		BrandKit:    req.BrandKit.ToEntity(),
	}
	if _, err := h.producer.PublishGenerateJob(ctx, msg); err != nil {
		logger.Error(ctx, "failed to enqueue generation job", err, "job_id", job.ID)
		dto.InternalError(c, "failed to enqueue generation job")
		return
	}

	dto.Accepted(c, dto.ToJobResponse(job))
}

// RegenerateFrame 触发单帧再生成，可选限定到帧内某个子片段
func (h *GenerationHandler) RegenerateFrame(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)
	frameID := dto.BindFrameID(c)

	var req dto.RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		dto.BadRequest(c, "prompt is required")
		return
	}

	frame, err := h.frameRepo.GetByID(ctx, frameID)
	if err != nil {
		logger.Error(ctx, "failed to get frame", err)
		dto.InternalError(c, "failed to get frame")
		return
	}
	if frame == nil {
		dto.NotFound(c, "frame not found")
		return
	}

	project, err := h.projectRepo.GetByID(ctx, frame.ProjectID)
	if err != nil {
		logger.Error(ctx, "failed to get project", err)
		dto.InternalError(c, "failed to get project")
		return
	}
	if project == nil {
		dto.NotFound(c, "project not found")
		return
	}
	if project.UserID != userID {
		dto.Forbidden(c, "project belongs to another user")
		return
	}

	inputParams, _ := json.Marshal(req)
	job := entity.NewGenerationJob(userID, project.ID, entity.JobTypeRegenerate, inputParams)
	if err := h.jobRepo.Create(ctx, job); err != nil {
		logger.Error(ctx, "failed to create regeneration job", err)
		dto.InternalError(c, "failed to create regeneration job")
		return
	}

	msg := &messaging.RegenerateJobMessage{
		JobID:           job.ID,
		UserID:          userID,
		ProjectID:       project.ID,
		FrameID:         frameID,
		Prompt:          strings.TrimSpace(req.Prompt),
		Theme:           project.Theme,
		TargetOuterHTML: req.TargetOuterHTML,
		BrandKit:        req.BrandKit.ToEntity(),
	}
	if _, err := h.producer.PublishRegenerateJob(ctx, msg); err != nil {
		logger.Error(ctx, "failed to enqueue regeneration job", err, "job_id", job.ID)
		dto.InternalError(c, "failed to enqueue regeneration job")
		return
	}

	dto.Accepted(c, dto.ToJobResponse(job))
}

// GetJob 获取任务详情
func (h *GenerationHandler) GetJob(c *gin.Context) {
	ctx := c.Request.Context()
	jobID := dto.BindJobID(c)

	job, err := h.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		logger.Error(ctx, "failed to get job", err)
		dto.InternalError(c, "failed to get job")
		return
	}
	if job == nil {
		dto.NotFound(c, "job not found")
		return
	}

	dto.Success(c, dto.ToJobResponse(job))
}

// ListJobs 获取项目任务列表
func (h *GenerationHandler) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)
	pageReq := dto.BindPage(c)

	result, err := h.jobRepo.ListByProject(ctx, projectID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list jobs", err)
		dto.InternalError(c, "failed to list jobs")
		return
	}

	resp := dto.ToJobListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"mockflow-api/internal/domain/entity"
	"mockflow-api/internal/domain/repository"
	rediscache "mockflow-api/internal/infrastructure/persistence/redis"
	"mockflow-api/internal/interfaces/http/dto"
	"mockflow-api/internal/interfaces/http/middleware"
	"mockflow-api/pkg/errors"
	"mockflow-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// 帧列表读缓存的过期时间。生成流水线完成时会主动失效，
// TTL 只兜底失效消息丢失的情况。
const frameListCacheTTL = 30 * time.Second

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectRepo repository.ProjectRepository
	frameRepo   repository.FrameRepository
	tx          repository.Transactor
	cache       *rediscache.Cache
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectRepo repository.ProjectRepository, frameRepo repository.FrameRepository, tx repository.Transactor, cache *rediscache.Cache) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
		frameRepo:   frameRepo,
		tx:          tx,
		cache:       cache,
	}
}

// ListProjects 获取当前用户的项目列表
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)

	pageReq := dto.BindPage(c)

	result, err := h.projectRepo.ListByUser(ctx, userID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list projects", err)
		dto.InternalError(c, "failed to list projects")
		return
	}

	resp := dto.ToProjectListResponse(result.Items)
	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, resp, meta)
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserIDFromGin(c)

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !entity.Platform(req.Platform).IsValid() {
		dto.BadRequest(c, "platform must be mobile or website")
		return
	}

	project := req.ToProjectEntity(userID)

	if err := h.projectRepo.Create(ctx, project); err != nil {
		logger.Error(ctx, "failed to create project", err)
		dto.InternalError(c, "failed to create project")
		return
	}

	dto.Created(c, dto.ToProjectResponse(project))
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	project, err := h.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.IsAppError(err) {
			appErr := errors.AsAppError(err)
			c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
				Code:    appErr.HTTPStatus,
				Message: appErr.Message,
				TraceID: c.GetString("trace_id"),
			})
			return
		}
		logger.Error(ctx, "failed to get project", err)
		dto.InternalError(c, "failed to get project")
		return
	}

	if project == nil {
		dto.NotFound(c, "project not found")
		return
	}

	dto.Success(c, dto.ToProjectResponse(project))
}

// UpdateProject 更新项目（名称 / 主题 / 品牌配置均可独立更新）
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
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

	req.ApplyToProject(project)

	if err := h.projectRepo.Update(ctx, project); err != nil {
		logger.Error(ctx, "failed to update project", err)
		dto.InternalError(c, "failed to update project")
		return
	}

	dto.Success(c, dto.ToProjectResponse(project))
}

// DeleteProject 删除项目。帧与项目行在同一事务里删除。
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	err := h.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := h.frameRepo.DeleteByProject(txCtx, projectID); err != nil {
			return err
		}
		return h.projectRepo.Delete(txCtx, projectID)
	})
	if err != nil {
		if errors.IsAppError(err) {
			appErr := errors.AsAppError(err)
			c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
				Code:    appErr.HTTPStatus,
				Message: appErr.Message,
				TraceID: c.GetString("trace_id"),
			})
			return
		}
		logger.Error(ctx, "failed to delete project", err)
		dto.InternalError(c, "failed to delete project")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListFrames 按创建顺序获取项目全部帧。
// 走读缓存（singleflight 合并并发回源），生成完成时由流水线失效。
func (h *ProjectHandler) ListFrames(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := dto.BindProjectID(c)

	frames, err := h.loadFrames(ctx, projectID)
	if err != nil {
		logger.Error(ctx, "failed to list frames", err)
		dto.InternalError(c, "failed to list frames")
		return
	}

	dto.Success(c, dto.ToFrameListResponse(frames))
}

func (h *ProjectHandler) loadFrames(ctx context.Context, projectID string) ([]*entity.Frame, error) {
	if h.cache == nil {
		return h.frameRepo.ListByProject(ctx, projectID)
	}

	raw, err := h.cache.GetOrLoadSafe(ctx, rediscache.BuildProjectFramesKey(projectID), frameListCacheTTL, func() (interface{}, error) {
		return h.frameRepo.ListByProject(ctx, projectID)
	})
	if err != nil {
		// 缓存层故障时降级为直读数据库。
		logger.Warn(ctx, "frame cache unavailable, falling back to db", "project_id", projectID, "error", err.Error())
		return h.frameRepo.ListByProject(ctx, projectID)
	}

	var frames []*entity.Frame
	if err := json.Unmarshal(raw, &frames); err != nil {
		return h.frameRepo.ListByProject(ctx, projectID)
	}
	return frames, nil
}

// GetFrame 获取帧详情
func (h *ProjectHandler) GetFrame(c *gin.Context) {
	ctx := c.Request.Context()
	frameID := dto.BindFrameID(c)

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

	dto.Success(c, dto.ToFrameResponse(frame))
}

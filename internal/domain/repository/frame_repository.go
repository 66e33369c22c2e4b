// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"mockflow-api/internal/domain/entity"
)

// FrameRepository 屏幕帧仓储接口
type FrameRepository interface {
	// Upsert 按 (project_id, title) 自然键插入或整体替换内容
	Upsert(ctx context.Context, frame *entity.Frame) error

	// GetByID 根据 ID 获取帧
	GetByID(ctx context.Context, id string) (*entity.Frame, error)

	// UpdateContent 整体替换帧内容
	UpdateContent(ctx context.Context, id string, htmlContent string) error

	// ListByProject 按创建顺序获取项目全部帧
	ListByProject(ctx context.Context, projectID string) ([]*entity.Frame, error)

	// ListRecentSiblings 获取同项目中最近创建的帧（排除目标帧）
	ListRecentSiblings(ctx context.Context, projectID, excludeFrameID string, limit int) ([]*entity.Frame, error)

	// Delete 删除帧
	Delete(ctx context.Context, id string) error

	// DeleteByProject 删除项目下全部帧
	DeleteByProject(ctx context.Context, projectID string) error
}

// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"mockflow-api/internal/domain/entity"
)

// JobRepository 生成任务仓储接口
type JobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.GenerationJob) error

	// GetByID 根据 ID 获取任务
	GetByID(ctx context.Context, id string) (*entity.GenerationJob, error)

	// UpdateStatus 更新任务状态
	UpdateStatus(ctx context.Context, id string, status entity.JobStatus, errMsg string) error

	// SaveCheckpoint 持久化任务检查点
	SaveCheckpoint(ctx context.Context, id string, checkpoint *entity.JobCheckpoint) error

	// IncrRetry 递增重试计数
	IncrRetry(ctx context.Context, id string) error

	// ListByProject 获取项目任务列表
	ListByProject(ctx context.Context, projectID string, pagination Pagination) (*PagedResult[*entity.GenerationJob], error)
}

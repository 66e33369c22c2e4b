// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"mockflow-api/internal/domain/entity"
	"mockflow-api/internal/domain/repository"
)

// JobRepository 生成任务仓储实现
type JobRepository struct {
	client *Client
}

// NewJobRepository 创建生成任务仓储
func NewJobRepository(client *Client) *JobRepository {
	return &JobRepository{client: client}
}

// Create 创建任务
func (r *JobRepository) Create(ctx context.Context, job *entity.GenerationJob) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.Create")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	checkpointJSON, _ := json.Marshal(job.Checkpoint)

	query := `
		INSERT INTO generation_jobs (id, user_id, project_id, job_type, status,
			input_params, checkpoint, retry_count, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query,
		job.UserID, job.ProjectID, job.JobType, job.Status,
		[]byte(job.InputParams), checkpointJSON, job.RetryCount,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create generation job: %w", err)
	}

	return nil
}

// GetByID 根据 ID 获取任务
func (r *JobRepository) GetByID(ctx context.Context, id string) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.GetByID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, user_id, project_id, job_type, status, input_params, checkpoint,
			retry_count, error_message, created_at, updated_at, started_at, completed_at
		FROM generation_jobs
		WHERE id = $1
	`

	job, err := scanJob(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get generation job: %w", err)
	}

	return job, nil
}

// UpdateStatus 更新任务状态
func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status entity.JobStatus, errMsg string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.UpdateStatus")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	var query string
	switch status {
	case entity.JobStatusRunning:
		query = `UPDATE generation_jobs SET status = $1, error_message = $2, started_at = NOW(), updated_at = NOW() WHERE id = $3`
	case entity.JobStatusCompleted, entity.JobStatusFailed:
		query = `UPDATE generation_jobs SET status = $1, error_message = $2, completed_at = NOW(), updated_at = NOW() WHERE id = $3`
	default:
		query = `UPDATE generation_jobs SET status = $1, error_message = $2, updated_at = NOW() WHERE id = $3`
	}

	var msg sql.NullString
	if errMsg != "" {
		msg = sql.NullString{String: errMsg, Valid: true}
	}

	if _, err := q.ExecContext(ctx, query, status, msg, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update job status: %w", err)
	}

	return nil
}

// SaveCheckpoint 持久化任务检查点
func (r *JobRepository) SaveCheckpoint(ctx context.Context, id string, checkpoint *entity.JobCheckpoint) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.SaveCheckpoint")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	checkpointJSON, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	query := `UPDATE generation_jobs SET checkpoint = $1, updated_at = NOW() WHERE id = $2`
	if _, err := q.ExecContext(ctx, query, checkpointJSON, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save job checkpoint: %w", err)
	}

	return nil
}

// IncrRetry 递增重试计数
func (r *JobRepository) IncrRetry(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.IncrRetry")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `UPDATE generation_jobs SET retry_count = retry_count + 1, updated_at = NOW() WHERE id = $1`
	if _, err := q.ExecContext(ctx, query, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to increment job retry count: %w", err)
	}

	return nil
}

// ListByProject 获取项目任务列表
func (r *JobRepository) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationJob], error) {
	ctx, span := tracer.Start(ctx, "postgres.JobRepository.ListByProject")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	var total int64
	countQuery := `SELECT COUNT(*) FROM generation_jobs WHERE project_id = $1`
	if err := q.QueryRowContext(ctx, countQuery, projectID).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count generation jobs: %w", err)
	}

	query := `
		SELECT id, user_id, project_id, job_type, status, input_params, checkpoint,
			retry_count, error_message, created_at, updated_at, started_at, completed_at
		FROM generation_jobs
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.QueryContext(ctx, query, projectID, pagination.Limit(), pagination.Offset())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list generation jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*entity.GenerationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan generation job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return repository.NewPagedResult(jobs, total, pagination), nil
}

// rowScanner 兼容 *sql.Row 和 *sql.Rows 的扫描接口
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanJob 扫描单条任务记录
func scanJob(row rowScanner) (*entity.GenerationJob, error) {
	var job entity.GenerationJob
	var inputParams, checkpointJSON []byte
	var errMsg sql.NullString
	var startedAt, completedAt sql.NullTime

	if err := row.Scan(
		&job.ID, &job.UserID, &job.ProjectID, &job.JobType, &job.Status,
		&inputParams, &checkpointJSON, &job.RetryCount, &errMsg,
		&job.CreatedAt, &job.UpdatedAt, &startedAt, &completedAt,
	); err != nil {
		return nil, err
	}

	job.InputParams = json.RawMessage(inputParams)
	if len(checkpointJSON) > 0 {
		json.Unmarshal(checkpointJSON, &job.Checkpoint)
	}
	if errMsg.Valid {
		job.ErrorMessage = errMsg.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}

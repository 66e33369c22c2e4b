// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"mockflow-api/internal/domain/entity"
)

// FrameRepository 屏幕帧仓储实现
type FrameRepository struct {
	client *Client
}

// NewFrameRepository 创建屏幕帧仓储
func NewFrameRepository(client *Client) *FrameRepository {
	return &FrameRepository{client: client}
}

// Upsert 按 (project_id, title) 自然键插入或整体替换内容
func (r *FrameRepository) Upsert(ctx context.Context, frame *entity.Frame) error {
	ctx, span := tracer.Start(ctx, "postgres.FrameRepository.Upsert")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		INSERT INTO frames (id, project_id, title, html_content, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, NOW(), NOW())
		ON CONFLICT (project_id, title)
		DO UPDATE SET html_content = EXCLUDED.html_content, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query,
		frame.ProjectID, frame.Title, frame.HTMLContent,
	).Scan(&frame.ID, &frame.CreatedAt, &frame.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert frame: %w", err)
	}

	return nil
}

// GetByID 根据 ID 获取帧
func (r *FrameRepository) GetByID(ctx context.Context, id string) (*entity.Frame, error) {
	ctx, span := tracer.Start(ctx, "postgres.FrameRepository.GetByID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, project_id, title, html_content, created_at, updated_at
		FROM frames
		WHERE id = $1
	`

	var frame entity.Frame
	err := q.QueryRowContext(ctx, query, id).Scan(
		&frame.ID, &frame.ProjectID, &frame.Title, &frame.HTMLContent,
		&frame.CreatedAt, &frame.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get frame: %w", err)
	}

	return &frame, nil
}

// UpdateContent 整体替换帧内容
func (r *FrameRepository) UpdateContent(ctx context.Context, id string, htmlContent string) error {
	ctx, span := tracer.Start(ctx, "postgres.FrameRepository.UpdateContent")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `UPDATE frames SET html_content = $1, updated_at = NOW() WHERE id = $2`
	result, err := q.ExecContext(ctx, query, htmlContent, id)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update frame content: %w", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("frame %s not found", id)
	}

	return nil
}

// ListByProject 按创建顺序获取项目全部帧
func (r *FrameRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.Frame, error) {
	ctx, span := tracer.Start(ctx, "postgres.FrameRepository.ListByProject")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, project_id, title, html_content, created_at, updated_at
		FROM frames
		WHERE project_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	defer rows.Close()

	return scanFrames(rows)
}

// ListRecentSiblings 获取同项目中最近创建的帧（排除目标帧）
func (r *FrameRepository) ListRecentSiblings(ctx context.Context, projectID, excludeFrameID string, limit int) ([]*entity.Frame, error) {
	ctx, span := tracer.Start(ctx, "postgres.FrameRepository.ListRecentSiblings")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, project_id, title, html_content, created_at, updated_at
		FROM frames
		WHERE project_id = $1 AND id <> $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := q.QueryContext(ctx, query, projectID, excludeFrameID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list sibling frames: %w", err)
	}
	defer rows.Close()

	return scanFrames(rows)
}

// Delete 删除帧
func (r *FrameRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.FrameRepository.Delete")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `DELETE FROM frames WHERE id = $1`
	_, err := q.ExecContext(ctx, query, id)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete frame: %w", err)
	}

	return nil
}

// DeleteByProject 删除项目下全部帧
func (r *FrameRepository) DeleteByProject(ctx context.Context, projectID string) error {
	ctx, span := tracer.Start(ctx, "postgres.FrameRepository.DeleteByProject")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `DELETE FROM frames WHERE project_id = $1`
	_, err := q.ExecContext(ctx, query, projectID)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project frames: %w", err)
	}

	return nil
}

// scanFrames 扫描帧结果集
func scanFrames(rows *sql.Rows) ([]*entity.Frame, error) {
	var frames []*entity.Frame
	for rows.Next() {
		var frame entity.Frame
		if err := rows.Scan(
			&frame.ID, &frame.ProjectID, &frame.Title, &frame.HTMLContent,
			&frame.CreatedAt, &frame.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		frames = append(frames, &frame)
	}
	return frames, rows.Err()
}

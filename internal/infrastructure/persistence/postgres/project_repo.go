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

// ProjectRepository 项目仓储实现
type ProjectRepository struct {
	client *Client
}

// NewProjectRepository 创建项目仓储
func NewProjectRepository(client *Client) *ProjectRepository {
	return &ProjectRepository{client: client}
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Create")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	brandKitJSON, _ := json.Marshal(project.BrandKit)

	query := `
		INSERT INTO projects (id, user_id, name, platform, theme, brand_kit, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	var theme sql.NullString
	if project.Theme != "" {
		theme = sql.NullString{String: project.Theme, Valid: true}
	}

	err := q.QueryRowContext(ctx, query,
		project.UserID, project.Name, project.Platform, theme, brandKitJSON,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID 根据 ID 获取项目
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.GetByID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, user_id, name, platform, theme, brand_kit, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var project entity.Project
	var theme sql.NullString
	var brandKitJSON []byte

	err := q.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.UserID, &project.Name, &project.Platform,
		&theme, &brandKitJSON, &project.CreatedAt, &project.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if theme.Valid {
		project.Theme = theme.String
	}
	json.Unmarshal(brandKitJSON, &project.BrandKit)

	return &project, nil
}

// Update 更新项目
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Update")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	brandKitJSON, _ := json.Marshal(project.BrandKit)

	query := `
		UPDATE projects
		SET name = $1, platform = $2, theme = $3, brand_kit = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	var theme sql.NullString
	if project.Theme != "" {
		theme = sql.NullString{String: project.Theme, Valid: true}
	}

	err := q.QueryRowContext(ctx, query,
		project.Name, project.Platform, theme, brandKitJSON, project.ID,
	).Scan(&project.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// UpdateTheme 更新项目主题
func (r *ProjectRepository) UpdateTheme(ctx context.Context, id string, theme string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateTheme")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `UPDATE projects SET theme = $1, updated_at = NOW() WHERE id = $2`
	_, err := q.ExecContext(ctx, query, theme, id)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update project theme: %w", err)
	}

	return nil
}

// Delete 删除项目
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Delete")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `DELETE FROM projects WHERE id = $1`
	_, err := q.ExecContext(ctx, query, id)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// ListByUser 获取用户项目列表
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.ListByUser")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	var total int64
	countQuery := `SELECT COUNT(*) FROM projects WHERE user_id = $1`
	if err := q.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	query := `
		SELECT id, user_id, name, platform, theme, brand_kit, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.QueryContext(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*entity.Project
	for rows.Next() {
		var project entity.Project
		var theme sql.NullString
		var brandKitJSON []byte

		if err := rows.Scan(
			&project.ID, &project.UserID, &project.Name, &project.Platform,
			&theme, &brandKitJSON, &project.CreatedAt, &project.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}

		if theme.Valid {
			project.Theme = theme.String
		}
		json.Unmarshal(brandKitJSON, &project.BrandKit)
		projects = append(projects, &project)
	}

	return repository.NewPagedResult(projects, total, pagination), nil
}

// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"strings"
	"time"

	"mockflow-api/internal/domain/entity"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name     string        `json:"name" binding:"required"`
	Platform string        `json:"platform" binding:"required"`
	BrandKit *BrandKitBody `json:"brand_kit,omitempty"`
}

// ToProjectEntity 转换为项目实体
func (r *CreateProjectRequest) ToProjectEntity(userID string) *entity.Project {
	project := entity.NewProject(userID, strings.TrimSpace(r.Name), entity.Platform(r.Platform))
	if r.BrandKit != nil {
		project.SetBrandKit(r.BrandKit.ToEntity())
	}
	return project
}

// UpdateProjectRequest 更新项目请求，字段均可独立设置
type UpdateProjectRequest struct {
	Name     *string       `json:"name,omitempty"`
	Theme    *string       `json:"theme,omitempty"`
	BrandKit *BrandKitBody `json:"brand_kit,omitempty"`
}

// ApplyToProject 把更新应用到项目实体
func (r *UpdateProjectRequest) ApplyToProject(project *entity.Project) {
	if r.Name != nil {
		project.Name = strings.TrimSpace(*r.Name)
	}
	if r.Theme != nil {
		project.SetTheme(strings.TrimSpace(*r.Theme))
	}
	if r.BrandKit != nil {
		project.SetBrandKit(r.BrandKit.ToEntity())
	}
}

// BrandKitBody 品牌配置请求体
type BrandKitBody struct {
	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
	FontFamily   string `json:"font_family,omitempty"`
}

// ToEntity 转换为品牌配置实体
func (b *BrandKitBody) ToEntity() *entity.BrandKit {
	if b == nil {
		return nil
	}
	return &entity.BrandKit{
		LogoURL:      strings.TrimSpace(b.LogoURL),
		PrimaryColor: strings.TrimSpace(b.PrimaryColor),
		FontFamily:   strings.TrimSpace(b.FontFamily),
	}
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Platform  string           `json:"platform"`
	Theme     string           `json:"theme,omitempty"`
	BrandKit  *entity.BrandKit `json:"brand_kit,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ToProjectResponse 转换项目响应
func ToProjectResponse(p *entity.Project) *ProjectResponse {
	if p == nil {
		return nil
	}
	return &ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Platform:  string(p.Platform),
		Theme:     p.Theme,
		BrandKit:  p.BrandKit,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
}

// ToProjectListResponse 转换项目列表响应
func ToProjectListResponse(items []*entity.Project) *ProjectListResponse {
	out := make([]*ProjectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, ToProjectResponse(p))
	}
	return &ProjectListResponse{Projects: out}
}

// FrameResponse 屏幕帧响应
type FrameResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	HTMLContent string    `json:"html_content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToFrameResponse 转换帧响应
func ToFrameResponse(f *entity.Frame) *FrameResponse {
	if f == nil {
		return nil
	}
	return &FrameResponse{
		ID:          f.ID,
		ProjectID:   f.ProjectID,
		Title:       f.Title,
		HTMLContent: f.HTMLContent,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// FrameListResponse 帧列表响应
type FrameListResponse struct {
	Frames []*FrameResponse `json:"frames"`
}

// ToFrameListResponse 转换帧列表响应
func ToFrameListResponse(items []*entity.Frame) *FrameListResponse {
	out := make([]*FrameResponse, 0, len(items))
	for _, f := range items {
		out = append(out, ToFrameResponse(f))
	}
	return &FrameListResponse{Frames: out}
}

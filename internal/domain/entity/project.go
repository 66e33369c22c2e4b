// Package entity 定义领域实体
package entity

import (
	"time"
)

// Platform 目标平台
type Platform string

const (
	PlatformMobile  Platform = "mobile"
	PlatformWebsite Platform = "website"
)

// IsValid 检查平台取值是否合法
func (p Platform) IsValid() bool {
	return p == PlatformMobile || p == PlatformWebsite
}

// BrandKit 品牌配置，所有字段均可独立设置
type BrandKit struct {
	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
	FontFamily   string `json:"font_family,omitempty"`
}

// IsEmpty 检查品牌配置是否为空
func (b *BrandKit) IsEmpty() bool {
	return b == nil || (b.LogoURL == "" && b.PrimaryColor == "" && b.FontFamily == "")
}

// Project 原型项目实体
type Project struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Platform  Platform  `json:"platform"`
	Theme     string    `json:"theme,omitempty"`
	BrandKit  *BrandKit `json:"brand_kit,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject 创建新项目
func NewProject(userID, name string, platform Platform) *Project {
	now := time.Now()
	return &Project{
		UserID:    userID,
		Name:      name,
		Platform:  platform,
		BrandKit:  &BrandKit{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetTheme 更新项目主题
func (p *Project) SetTheme(theme string) {
	p.Theme = theme
	p.UpdatedAt = time.Now()
}

// SetBrandKit 更新品牌配置
func (p *Project) SetBrandKit(kit *BrandKit) {
	p.BrandKit = kit
	p.UpdatedAt = time.Now()
}

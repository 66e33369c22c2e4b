// Package entity 定义领域实体
package entity

import (
	"time"
)

// Frame 屏幕帧实体
// (project_id, title) 在项目内作为自然键用于 upsert。
// HTMLContent 要么为空（仍在生成中），要么是单根元素的完整标记，
// 每次生成步骤整体替换，从不部分写入。
type Frame struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	HTMLContent string    `json:"html_content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewFrame 创建新屏幕帧
func NewFrame(projectID, title, htmlContent string) *Frame {
	now := time.Now()
	return &Frame{
		ProjectID:   projectID,
		Title:       title,
		HTMLContent: htmlContent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ReplaceContent 整体替换屏幕标记
func (f *Frame) ReplaceContent(htmlContent string) {
	f.HTMLContent = htmlContent
	f.UpdatedAt = time.Now()
}

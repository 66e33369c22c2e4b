// Package entity 定义领域实体
package entity

// Preferences 生成偏好，随触发消息传入，不单独持久化
type Preferences struct {
	Platform          Platform `json:"platform"`
	TotalScreens      int      `json:"total_screens,omitempty"`
	OnboardingScreens int      `json:"onboarding_screens,omitempty"`
	IncludePaywall    bool     `json:"include_paywall,omitempty"`
	NegativePrompts   []string `json:"negative_prompts,omitempty"`
	StylePreset       string   `json:"style_preset,omitempty"`
}

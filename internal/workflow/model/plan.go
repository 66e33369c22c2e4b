package model

// PlanInput 规划链输入
type PlanInput struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// Prompt 用户原始描述
	Prompt string `json:"prompt"`
	// ContextBlock 既有屏幕上下文块，为空表示首次生成
	ContextBlock string `json:"context_block"`
	// ConstraintsBlock 屏幕数量/付费墙/排除项/风格预设约束块
	ConstraintsBlock string `json:"constraints_block"`
	// ThemeOptionsBlock 可选主题清单块（仅首次生成时提供）
	ThemeOptionsBlock string `json:"theme_options_block"`

	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// PlanResult 规划链解析后的输出
type PlanResult struct {
	Theme   string           `json:"theme"`
	Screens []PlanScreenSpec `json:"screens"`
}

// PlanScreenSpec 规划输出中的单个屏幕条目
type PlanScreenSpec struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Purpose           string `json:"purpose"`
	VisualDescription string `json:"visual_description"`
}

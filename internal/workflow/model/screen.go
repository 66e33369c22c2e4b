package model

// ScreenGenerateInput 屏幕生成链输入
// 各 Block 由上层 Prompt 编译器组装，模板只负责拼接。
type ScreenGenerateInput struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// ScreenSpecBlock 屏幕的视觉规格说明块
	ScreenSpecBlock string `json:"screen_spec_block"`
	// ContextBlock 先前屏幕的只读一致性上下文块
	ContextBlock string `json:"context_block"`
	// ThemeCSSBlock 主题变量（只读，模型禁止重新声明）
	ThemeCSSBlock string `json:"theme_css_block"`
	// BrandBlock 品牌配置块
	BrandBlock string `json:"brand_block"`
	// NegativeBlock 负面提示排除块（始终覆盖预设样式）
	NegativeBlock string `json:"negative_block"`
	// PresetBlock 风格预设规则块
	PresetBlock string `json:"preset_block"`
	// PaywallLine 付费墙包含/排除指令
	PaywallLine string `json:"paywall_line"`
	// TargetBlock 局部再设计目标片段块，为空表示整屏生成
	TargetBlock string `json:"target_block"`

	// PartialEdit 局部编辑模式：模型只输出替换片段
	PartialEdit bool `json:"partial_edit"`
	// MaxToolSteps 工具调用轮数上限
	MaxToolSteps int `json:"max_tool_steps"`

	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

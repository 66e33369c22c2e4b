// Package entity 定义领域实体
package entity

// ScreenSpec 单个屏幕的规划条目
// 由规划阶段产出，生成阶段立即消费，不单独持久化。
type ScreenSpec struct {
	// ID kebab-case，计划内唯一
	ID string `json:"id"`
	// Name Title Case 屏幕名，同时作为 Frame 标题
	Name string `json:"name"`
	// Purpose 一句话描述屏幕用途
	Purpose string `json:"purpose"`
	// VisualDescription 稠密的自然语言渲染说明
	VisualDescription string `json:"visual_description"`
}

// ScreenPlan 规划阶段的完整输出
type ScreenPlan struct {
	Theme   string       `json:"theme"`
	Screens []ScreenSpec `json:"screens"`
}

// ScreenTitles 返回所有屏幕名
func (p *ScreenPlan) ScreenTitles() []string {
	titles := make([]string, 0, len(p.Screens))
	for _, s := range p.Screens {
		titles = append(titles, s.Name)
	}
	return titles
}

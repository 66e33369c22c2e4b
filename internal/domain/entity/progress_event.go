// Package entity 定义领域实体
package entity

// EventTopic 进度事件主题
type EventTopic string

const (
	TopicGenerationStart    EventTopic = "generation.start"
	TopicAnalysisStart      EventTopic = "analysis.start"
	TopicAnalysisComplete   EventTopic = "analysis.complete"
	TopicFrameCreated       EventTopic = "frame.created"
	TopicGenerationComplete EventTopic = "generation.complete"
	TopicScreenFailed       EventTopic = "screen.failed"
)

// KnownTopic 检查主题是否属于封闭集合
// 订阅端据此拒绝并记录未知主题，而非静默忽略。
func KnownTopic(t EventTopic) bool {
	switch t {
	case TopicGenerationStart, TopicAnalysisStart, TopicAnalysisComplete,
		TopicFrameCreated, TopicGenerationComplete, TopicScreenFailed:
		return true
	}
	return false
}

// StatusPayload start/complete 类事件载荷
type StatusPayload struct {
	Status    string `json:"status"`
	ProjectID string `json:"projectId"`
}

// AnalysisCompletePayload 规划完成事件载荷
type AnalysisCompletePayload struct {
	Status       string       `json:"status"`
	Theme        string       `json:"theme"`
	TotalScreens int          `json:"totalScreens"`
	Screens      []ScreenSpec `json:"screens"`
	ProjectID    string       `json:"projectId"`
}

// FrameCreatedPayload 帧落库事件载荷
type FrameCreatedPayload struct {
	Frame     *Frame `json:"frame"`
	ScreenID  string `json:"screenId"`
	ProjectID string `json:"projectId"`
}

// ScreenFailedPayload 屏幕生成最终失败事件载荷
type ScreenFailedPayload struct {
	ScreenID  string `json:"screenId"`
	Reason    string `json:"reason"`
	ProjectID string `json:"projectId"`
}

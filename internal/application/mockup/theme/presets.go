package theme

import "strings"

// StylePreset 风格预设：将一个名字映射为具体的排版/阴影/圆角约定，
// 以规则块形式拼入生成提示词。
type StylePreset struct {
	ID    string
	Rules string
}

var presets = map[string]StylePreset{
	"minimal": {
		ID: "minimal",
		Rules: `Style preset "minimal":
- Generous whitespace, max two font sizes per screen.
- Flat surfaces, hairline 1px borders, no drop shadows.
- Radius var(--radius-sm) everywhere; no gradients.`,
	},
	"glass": {
		ID: "glass",
		Rules: `Style preset "glass":
- Frosted panels: rgba(var(--surface-rgb), 0.6) backgrounds with backdrop-blur.
- Soft large shadows, radius var(--radius-lg).
- Subtle gradient washes built from rgba(var(--primary-rgb), ...) stops.`,
	},
	"neubrutalism": {
		ID: "neubrutalism",
		Rules: `Style preset "neubrutalism":
- Thick 2-3px solid borders in var(--text), hard offset shadows (4px 4px 0).
- Flat saturated fills, radius var(--radius-sm) or none.
- Oversized bold headings, visible grid alignment.`,
	},
	"soft": {
		ID: "soft",
		Rules: `Style preset "soft":
- Pillowy cards: radius var(--radius-lg), diffuse low-opacity shadows.
- Tinted section backgrounds from rgba(var(--primary-rgb), 0.06).
- Rounded-full buttons and chips, friendly iconography.`,
	},
	"material": {
		ID: "material",
		Rules: `Style preset "material":
- Elevation via layered shadows (--shadow-card for resting, stronger on emphasis).
- Radius var(--radius-md), filled primary buttons, tonal secondary buttons.
- 8px spacing grid, floating action button where the screen's purpose calls for one.`,
	},
}

const defaultPreset = "minimal"

// ResolvePreset 返回预设规则；未知或空的预设名回退到默认预设。
func ResolvePreset(id string) StylePreset {
	if p, ok := presets[strings.TrimSpace(strings.ToLower(id))]; ok {
		return p
	}
	return presets[defaultPreset]
}

// KnownPreset 判断预设名是否有效。
func KnownPreset(id string) bool {
	_, ok := presets[strings.TrimSpace(strings.ToLower(id))]
	return ok
}

package theme

import (
	"strings"

	"mockflow-api/internal/domain/entity"
)

// Theme 一套固定的设计令牌，以 CSS 自定义属性形式注入生成提示词。
// 屏幕生成只允许引用这些变量，不得自行声明颜色。
type Theme struct {
	ID          string
	Name        string
	Description string
	CSS         string
}

const baseCSS = `:root {
  --font-body: 'Inter', system-ui, sans-serif;
  --font-heading: 'Inter', system-ui, sans-serif;
  --radius-sm: 8px;
  --radius-md: 14px;
  --radius-lg: 22px;
  --shadow-card: 0 1px 3px rgba(0, 0, 0, 0.08);
}`

var themes = map[string]Theme{
	"clean-light": {
		ID:          "clean-light",
		Name:        "Clean Light",
		Description: "airy white surfaces, soft gray dividers, a single calm accent",
		CSS: `:root {
  --primary: #2563eb;
  --primary-rgb: 37, 99, 235;
  --bg: #f8fafc;
  --bg-rgb: 248, 250, 252;
  --surface: #ffffff;
  --surface-rgb: 255, 255, 255;
  --text: #0f172a;
  --muted: #64748b;
  --accent: #38bdf8;
  --accent-rgb: 56, 189, 248;
}`,
	},
	"midnight": {
		ID:          "midnight",
		Name:        "Midnight",
		Description: "deep navy dark mode with luminous blue highlights",
		CSS: `:root {
  --primary: #60a5fa;
  --primary-rgb: 96, 165, 250;
  --bg: #0b1120;
  --bg-rgb: 11, 17, 32;
  --surface: #151d31;
  --surface-rgb: 21, 29, 49;
  --text: #e2e8f0;
  --muted: #7c8aa5;
  --accent: #818cf8;
  --accent-rgb: 129, 140, 248;
}`,
	},
	"forest": {
		ID:          "forest",
		Name:        "Forest",
		Description: "organic greens on warm off-white, wellness and outdoors mood",
		CSS: `:root {
  --primary: #16a34a;
  --primary-rgb: 22, 163, 74;
  --bg: #f7f9f4;
  --bg-rgb: 247, 249, 244;
  --surface: #ffffff;
  --surface-rgb: 255, 255, 255;
  --text: #1a2e1f;
  --muted: #6b7f70;
  --accent: #84cc16;
  --accent-rgb: 132, 204, 22;
}`,
	},
	"sunset": {
		ID:          "sunset",
		Name:        "Sunset",
		Description: "warm coral and amber, energetic consumer-social feel",
		CSS: `:root {
  --primary: #f97316;
  --primary-rgb: 249, 115, 22;
  --bg: #fffaf5;
  --bg-rgb: 255, 250, 245;
  --surface: #ffffff;
  --surface-rgb: 255, 255, 255;
  --text: #2b1a10;
  --muted: #9c7b63;
  --accent: #f43f5e;
  --accent-rgb: 244, 63, 94;
}`,
	},
	"lavender": {
		ID:          "lavender",
		Name:        "Lavender",
		Description: "soft violet pastels, calm productivity and journaling",
		CSS: `:root {
  --primary: #8b5cf6;
  --primary-rgb: 139, 92, 246;
  --bg: #faf8ff;
  --bg-rgb: 250, 248, 255;
  --surface: #ffffff;
  --surface-rgb: 255, 255, 255;
  --text: #241b3a;
  --muted: #8a7fa8;
  --accent: #ec4899;
  --accent-rgb: 236, 72, 153;
}`,
	},
	"mono": {
		ID:          "mono",
		Name:        "Mono",
		Description: "strict black and white with one near-black accent, editorial",
		CSS: `:root {
  --primary: #111111;
  --primary-rgb: 17, 17, 17;
  --bg: #ffffff;
  --bg-rgb: 255, 255, 255;
  --surface: #f5f5f5;
  --surface-rgb: 245, 245, 245;
  --text: #111111;
  --muted: #737373;
  --accent: #404040;
  --accent-rgb: 64, 64, 64;
}`,
	},
	"ocean": {
		ID:          "ocean",
		Name:        "Ocean",
		Description: "teal and aqua on cool white, fintech and data products",
		CSS: `:root {
  --primary: #0d9488;
  --primary-rgb: 13, 148, 136;
  --bg: #f4fafa;
  --bg-rgb: 244, 250, 250;
  --surface: #ffffff;
  --surface-rgb: 255, 255, 255;
  --text: #0c2a28;
  --muted: #5f8d89;
  --accent: #06b6d4;
  --accent-rgb: 6, 182, 212;
}`,
	},
	"crimson": {
		ID:          "crimson",
		Name:        "Crimson",
		Description: "bold red on charcoal dark mode, gaming and media",
		CSS: `:root {
  --primary: #ef4444;
  --primary-rgb: 239, 68, 68;
  --bg: #17181c;
  --bg-rgb: 23, 24, 28;
  --surface: #222329;
  --surface-rgb: 34, 35, 41;
  --text: #f4f4f5;
  --muted: #8f9099;
  --accent: #fbbf24;
  --accent-rgb: 251, 191, 36;
}`,
	},
}

const (
	defaultMobileTheme  = "clean-light"
	defaultWebsiteTheme = "mono"
)

// Get 返回主题定义；未知 ID 返回 false。
func Get(id string) (Theme, bool) {
	t, ok := themes[strings.TrimSpace(strings.ToLower(id))]
	return t, ok
}

// IsKnown 判断主题 ID 是否在固定集合内。
func IsKnown(id string) bool {
	_, ok := Get(id)
	return ok
}

// Resolve 对模型选出的主题做硬校验：未知 ID 回退到平台默认主题，
// 避免下游拿到未定义样式。返回最终生效的主题。
func Resolve(id string, platform entity.Platform) Theme {
	if t, ok := Get(id); ok {
		return t
	}
	return Default(platform)
}

// Default 返回平台默认主题。
func Default(platform entity.Platform) Theme {
	if platform == entity.PlatformWebsite {
		return themes[defaultWebsiteTheme]
	}
	return themes[defaultMobileTheme]
}

// BaseCSS 返回所有主题共享的基础令牌。
func BaseCSS() string {
	return baseCSS
}

// Options 返回主题选择列表，供规划提示词展示给模型。
func Options() []Theme {
	ids := []string{"clean-light", "midnight", "forest", "sunset", "lavender", "mono", "ocean", "crimson"}
	out := make([]Theme, 0, len(ids))
	for _, id := range ids {
		out = append(out, themes[id])
	}
	return out
}

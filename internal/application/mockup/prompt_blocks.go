package mockup

import (
	"fmt"
	"strconv"
	"strings"

	"mockflow-api/internal/application/mockup/theme"
	"mockflow-api/internal/domain/entity"
)

// 本文件是提示词编译器：一组纯函数，把约束、主题、品牌、负面提示
// 组装为模型可消费的文本块。不做任何 IO。

// Constraints 经过钳位的屏幕数量约束。推导是确定性的，总数不会低于 1。
type Constraints struct {
	Total          int
	Onboarding     int
	Main           int
	IncludePaywall bool
}

const (
	defaultTotalScreens      = 6
	defaultOnboardingScreens = 2

	maxTotalScreens      = 15
	maxOnboardingScreens = 5
	maxMainScreens       = 10
)

// DeriveConstraints 把用户偏好钳位为合法的屏幕数量约束：
// 总数 [1,15]，引导屏 [1,5] 且不超过总数-1，主流程屏 [1,10] 且至少 1。
func DeriveConstraints(prefs *entity.Preferences) Constraints {
	total := defaultTotalScreens
	onboarding := defaultOnboardingScreens
	includePaywall := false

	if prefs != nil {
		if prefs.TotalScreens > 0 {
			total = prefs.TotalScreens
		}
		if prefs.OnboardingScreens > 0 {
			onboarding = prefs.OnboardingScreens
		}
		includePaywall = prefs.IncludePaywall
	}

	total = clamp(total, 1, maxTotalScreens)
	onboarding = clamp(onboarding, 1, maxOnboardingScreens)
	if onboarding > total-1 {
		onboarding = total - 1
	}
	main := clamp(total-onboarding, 1, maxMainScreens)

	return Constraints{
		Total:          onboarding + main,
		Onboarding:     onboarding,
		Main:           main,
		IncludePaywall: includePaywall,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BuildConstraintLines 渲染约束文本块：屏幕数量、付费墙开关、
// 负面提示排除列表与风格预设名。
func BuildConstraintLines(c Constraints, negativePrompts []string, stylePreset string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Total screens: exactly %d (%d onboarding, %d main flow).\n", c.Total, c.Onboarding, c.Main)
	if c.IncludePaywall {
		b.WriteString("- Include exactly one paywall/subscription screen in the plan.\n")
	} else {
		b.WriteString("- Do NOT include any paywall or subscription screen.\n")
	}
	if lines := cleanLines(negativePrompts); len(lines) > 0 {
		b.WriteString("- The user forbids the following; never include them: ")
		b.WriteString(strings.Join(lines, "; "))
		b.WriteString(".\n")
	}
	preset := theme.ResolvePreset(stylePreset)
	fmt.Fprintf(&b, "- Visual style preset: %s.", preset.ID)
	return b.String()
}

// BuildThemeOptionsBlock 渲染主题候选列表，供规划阶段的模型选择。
func BuildThemeOptionsBlock() string {
	var b strings.Builder
	b.WriteString("Available themes (pick exactly one id):\n")
	for _, t := range theme.Options() {
		fmt.Fprintf(&b, "- %s: %s\n", t.ID, t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildPlanContextBlock 已有屏幕的规划上下文：要求模型原样复用导航与结构。
func BuildPlanContextBlock(frames []*entity.Frame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Existing screens in this project (extract their navigation and shared structure; your plan must reuse both verbatim):\n")
	for _, f := range frames {
		if f == nil {
			continue
		}
		fmt.Fprintf(&b, "=== %s ===\n%s\n", f.Title, strings.TrimSpace(f.HTMLContent))
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildThemeCSS 拼接基础令牌、主题 CSS 与品牌覆盖。
// 品牌主色归一化为 6 位 hex，并额外导出 RGB 通道变量用于透明度合成；
// 品牌字体同时覆盖正文与标题字体变量。缺失的品牌字段不产生覆盖。
func BuildThemeCSS(t theme.Theme, brand *entity.BrandKit) string {
	parts := []string{theme.BaseCSS(), t.CSS}

	if override := buildBrandOverride(brand); override != "" {
		parts = append(parts, override)
	}
	return strings.Join(parts, "\n")
}

func buildBrandOverride(brand *entity.BrandKit) string {
	if brand == nil || brand.IsEmpty() {
		return ""
	}

	var rules []string
	if hex, ok := NormalizeHexColor(brand.PrimaryColor); ok {
		rules = append(rules, fmt.Sprintf("  --primary: %s;", hex))
		rules = append(rules, fmt.Sprintf("  --primary-rgb: %s;", hexToRGBChannels(hex)))
	}
	if font := strings.TrimSpace(brand.FontFamily); font != "" {
		rules = append(rules, fmt.Sprintf("  --font-body: '%s', system-ui, sans-serif;", font))
		rules = append(rules, fmt.Sprintf("  --font-heading: '%s', system-ui, sans-serif;", font))
	}
	if len(rules) == 0 {
		return ""
	}
	return ":root {\n" + strings.Join(rules, "\n") + "\n}"
}

// NormalizeHexColor 接受 3 位或 6 位 hex（带不带 # 均可），
// 归一化为小写 6 位形式（如 "#abc" -> "#aabbcc"）。非法输入返回 false。
func NormalizeHexColor(s string) (string, bool) {
	h := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	switch len(h) {
	case 3:
		var b strings.Builder
		for i := 0; i < 3; i++ {
			b.WriteByte(h[i])
			b.WriteByte(h[i])
		}
		h = b.String()
	case 6:
	default:
		return "", false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return "#" + h, true
}

// hexToRGBChannels 把 6 位 hex 转为 "r, g, b" 形式的通道值文本。
func hexToRGBChannels(hex string) string {
	h := strings.TrimPrefix(hex, "#")
	r, _ := strconv.ParseInt(h[0:2], 16, 0)
	g, _ := strconv.ParseInt(h[2:4], 16, 0)
	b, _ := strconv.ParseInt(h[4:6], 16, 0)
	return fmt.Sprintf("%d, %d, %d", r, g, b)
}

// BuildScreenSpecBlock 单个屏幕的渲染任务描述。
func BuildScreenSpecBlock(spec entity.ScreenSpec, index, total int, platform entity.Platform, isOnboarding bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Screen %d of %d — %q (id: %s, platform: %s)\n", index+1, total, spec.Name, spec.ID, platform)
	fmt.Fprintf(&b, "Purpose: %s\n", strings.TrimSpace(spec.Purpose))
	fmt.Fprintf(&b, "Visual spec: %s", strings.TrimSpace(spec.VisualDescription))
	if isOnboarding {
		b.WriteString("\nThis is an onboarding screen: no bottom navigation bar.")
	}
	return b.String()
}

// PriorScreen 作为一致性上下文的已生成屏幕。
type PriorScreen struct {
	Title string
	HTML  string
}

// BuildGenerationContextBlock 已生成屏幕的只读上下文，要求精确复用组件。
func BuildGenerationContextBlock(prior []PriorScreen) string {
	if len(prior) == 0 {
		return "No prior screens exist yet; establish the navigation and component system for the whole app on this screen."
	}
	var b strings.Builder
	b.WriteString("Previously generated screens (read-only context — copy their navigation markup and component styling EXACTLY, do not reinvent):\n")
	for _, p := range prior {
		fmt.Fprintf(&b, "=== %s ===\n%s\n", p.Title, strings.TrimSpace(p.HTML))
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildBrandBlock 品牌说明块。
func BuildBrandBlock(brand *entity.BrandKit) string {
	if brand == nil || brand.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("Brand kit:\n")
	if logo := strings.TrimSpace(brand.LogoURL); logo != "" {
		fmt.Fprintf(&b, "- Logo image URL (use in headers where a logo fits): %s\n", logo)
	}
	if hex, ok := NormalizeHexColor(brand.PrimaryColor); ok {
		fmt.Fprintf(&b, "- Primary brand color %s is already injected as var(--primary); use the variable, not the literal.\n", hex)
	}
	if font := strings.TrimSpace(brand.FontFamily); font != "" {
		fmt.Fprintf(&b, "- Brand font %q is injected as var(--font-body) and var(--font-heading).\n", font)
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildNegativeBlock 负面提示块。负面提示始终压过预设与默认样式。
func BuildNegativeBlock(negativePrompts []string) string {
	lines := cleanLines(negativePrompts)
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Hard exclusions (these OVERRIDE the style preset and any default styling — if a rule above conflicts, the exclusion wins):\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s\n", l)
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildPresetBlock 预设规则块。
func BuildPresetBlock(stylePreset string) string {
	return theme.ResolvePreset(stylePreset).Rules
}

// BuildPaywallLine 付费墙指令。
func BuildPaywallLine(spec entity.ScreenSpec, includePaywall bool) string {
	if includePaywall && isPaywallScreen(spec) {
		return "This screen IS the paywall: present subscription tiers with prices, a highlighted recommended plan, and a restore-purchases link."
	}
	if !includePaywall {
		return "Never render paywall, pricing, or subscription upsell content on this screen."
	}
	return ""
}

func isPaywallScreen(spec entity.ScreenSpec) bool {
	s := strings.ToLower(spec.ID + " " + spec.Name + " " + spec.Purpose)
	return strings.Contains(s, "paywall") || strings.Contains(s, "subscription") || strings.Contains(s, "pricing")
}

// BuildTargetBlock 局部重绘时的目标片段说明：模型只输出替换片段。
func BuildTargetBlock(targetOuterHTML string) string {
	target := strings.TrimSpace(targetOuterHTML)
	if target == "" {
		return ""
	}
	return "Redesign ONLY this fragment of the screen. Output ONLY the replacement fragment, keeping the same root tag and structural role:\n" + target
}

func cleanLines(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

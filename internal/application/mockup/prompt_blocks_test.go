package mockup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockflow-api/internal/application/mockup/theme"
	"mockflow-api/internal/domain/entity"
)

func TestDeriveConstraintsDefaults(t *testing.T) {
	c := DeriveConstraints(nil)
	assert.Equal(t, 6, c.Total)
	assert.Equal(t, 2, c.Onboarding)
	assert.Equal(t, 4, c.Main)
	assert.False(t, c.IncludePaywall)
}

func TestDeriveConstraintsClamps(t *testing.T) {
	tests := []struct {
		name       string
		prefs      *entity.Preferences
		total      int
		onboarding int
		main       int
	}{
		{
			name:       "explicit values pass through",
			prefs:      &entity.Preferences{TotalScreens: 9, OnboardingScreens: 2},
			total:      9,
			onboarding: 2,
			main:       7,
		},
		{
			name:       "total above cap",
			prefs:      &entity.Preferences{TotalScreens: 40, OnboardingScreens: 3},
			total:      13,
			onboarding: 3,
			main:       10,
		},
		{
			name:       "onboarding above cap",
			prefs:      &entity.Preferences{TotalScreens: 8, OnboardingScreens: 9},
			total:      8,
			onboarding: 5,
			main:       3,
		},
		{
			name:       "onboarding leaves at least one main screen",
			prefs:      &entity.Preferences{TotalScreens: 3, OnboardingScreens: 5},
			total:      3,
			onboarding: 2,
			main:       1,
		},
		{
			name:       "total of one still yields a main screen",
			prefs:      &entity.Preferences{TotalScreens: 1, OnboardingScreens: 1},
			total:      1,
			onboarding: 0,
			main:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DeriveConstraints(tt.prefs)
			assert.Equal(t, tt.total, c.Total, "total")
			assert.Equal(t, tt.onboarding, c.Onboarding, "onboarding")
			assert.Equal(t, tt.main, c.Main, "main")
			assert.Equal(t, c.Onboarding+c.Main, c.Total, "total must equal onboarding+main")
		})
	}
}

func TestNormalizeHexColor(t *testing.T) {
	out, ok := NormalizeHexColor("#abc")
	require.True(t, ok)
	assert.Equal(t, "#aabbcc", out)

	out, ok = NormalizeHexColor("FF8800")
	require.True(t, ok)
	assert.Equal(t, "#ff8800", out)

	out, ok = NormalizeHexColor("  #1E90FF ")
	require.True(t, ok)
	assert.Equal(t, "#1e90ff", out)

	for _, bad := range []string{"", "#ab", "#abcd", "#gggggg", "red"} {
		_, ok := NormalizeHexColor(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestBuildThemeCSSBrandOverride(t *testing.T) {
	th := theme.Resolve("clean-light", entity.PlatformMobile)
	css := BuildThemeCSS(th, &entity.BrandKit{PrimaryColor: "#abc", FontFamily: "Sora"})

	// 品牌覆盖追加在主题之后，级联中后者生效。
	brandIdx := strings.LastIndex(css, "--primary: #aabbcc;")
	themeIdx := strings.Index(css, "--primary: #2563eb;")
	require.Greater(t, brandIdx, themeIdx)

	assert.Contains(t, css, "--primary-rgb: 170, 187, 204;")
	assert.Contains(t, css, "--font-body: 'Sora'")
	assert.Contains(t, css, "--font-heading: 'Sora'")
}

func TestBuildThemeCSSWithoutBrand(t *testing.T) {
	th := theme.Resolve("midnight", entity.PlatformMobile)

	plain := BuildThemeCSS(th, nil)
	empty := BuildThemeCSS(th, &entity.BrandKit{})
	assert.Equal(t, plain, empty)
	assert.Contains(t, plain, theme.BaseCSS())
	assert.Contains(t, plain, th.CSS)
}

func TestBuildThemeCSSIgnoresInvalidBrandColor(t *testing.T) {
	th := theme.Resolve("clean-light", entity.PlatformMobile)
	css := BuildThemeCSS(th, &entity.BrandKit{PrimaryColor: "cornflower"})
	assert.Equal(t, 1, strings.Count(css, "--primary:"))
}

func TestBuildConstraintLines(t *testing.T) {
	c := Constraints{Total: 7, Onboarding: 2, Main: 5, IncludePaywall: true}
	out := BuildConstraintLines(c, []string{" no dark patterns ", ""}, "glass")

	assert.Contains(t, out, "exactly 7 (2 onboarding, 5 main flow)")
	assert.Contains(t, out, "exactly one paywall/subscription screen")
	assert.Contains(t, out, "no dark patterns")
	assert.Contains(t, out, "preset: glass")

	noPaywall := BuildConstraintLines(Constraints{Total: 4, Onboarding: 1, Main: 3}, nil, "")
	assert.Contains(t, noPaywall, "Do NOT include any paywall")
	assert.Contains(t, noPaywall, "preset: minimal")
}

func TestBuildNegativeBlockOverridesWording(t *testing.T) {
	assert.Empty(t, BuildNegativeBlock(nil))
	assert.Empty(t, BuildNegativeBlock([]string{"", "  "}))

	out := BuildNegativeBlock([]string{"no gradients", "no stock photos"})
	assert.Contains(t, out, "the exclusion wins")
	assert.Contains(t, out, "- no gradients")
	assert.Contains(t, out, "- no stock photos")
}

func TestBuildPaywallLine(t *testing.T) {
	paywall := entity.ScreenSpec{ID: "paywall", Name: "Go Premium", Purpose: "subscription upsell"}
	regular := entity.ScreenSpec{ID: "home-feed", Name: "Home", Purpose: "main feed"}

	assert.Contains(t, BuildPaywallLine(paywall, true), "IS the paywall")
	assert.Empty(t, BuildPaywallLine(regular, true))
	assert.Contains(t, BuildPaywallLine(regular, false), "Never render paywall")
}

func TestBuildScreenSpecBlock(t *testing.T) {
	spec := entity.ScreenSpec{ID: "welcome", Name: "Welcome", Purpose: "greet", VisualDescription: "hero art"}
	out := BuildScreenSpecBlock(spec, 0, 5, entity.PlatformMobile, true)
	assert.Contains(t, out, "Screen 1 of 5")
	assert.Contains(t, out, `"Welcome"`)
	assert.Contains(t, out, "onboarding screen: no bottom navigation")

	out = BuildScreenSpecBlock(spec, 3, 5, entity.PlatformWebsite, false)
	assert.Contains(t, out, "Screen 4 of 5")
	assert.NotContains(t, out, "onboarding")
}

func TestBuildGenerationContextBlock(t *testing.T) {
	empty := BuildGenerationContextBlock(nil)
	assert.Contains(t, empty, "No prior screens")

	out := BuildGenerationContextBlock([]PriorScreen{
		{Title: "Home", HTML: "<div>home</div>"},
		{Title: "Profile", HTML: "<div>profile</div>"},
	})
	assert.Contains(t, out, "=== Home ===")
	assert.Contains(t, out, "=== Profile ===")
	assert.Contains(t, out, "EXACTLY")
}

func TestBuildPlanContextBlock(t *testing.T) {
	assert.Empty(t, BuildPlanContextBlock(nil))

	out := BuildPlanContextBlock([]*entity.Frame{
		{Title: "Home", HTMLContent: "<div>home</div>"},
		nil,
	})
	assert.Contains(t, out, "=== Home ===")
	assert.Contains(t, out, "reuse both verbatim")
}

func TestBuildBrandBlock(t *testing.T) {
	assert.Empty(t, BuildBrandBlock(nil))
	assert.Empty(t, BuildBrandBlock(&entity.BrandKit{}))

	out := BuildBrandBlock(&entity.BrandKit{
		LogoURL:      "https://cdn.example.com/logo.svg",
		PrimaryColor: "#F60",
		FontFamily:   "Sora",
	})
	assert.Contains(t, out, "https://cdn.example.com/logo.svg")
	assert.Contains(t, out, "#ff6600")
	assert.Contains(t, out, "var(--primary)")
	assert.Contains(t, out, `"Sora"`)
}

func TestBuildTargetBlock(t *testing.T) {
	assert.Empty(t, BuildTargetBlock("  "))
	out := BuildTargetBlock(`<button class="cta">Buy</button>`)
	assert.Contains(t, out, "ONLY this fragment")
	assert.Contains(t, out, `<button class="cta">Buy</button>`)
}

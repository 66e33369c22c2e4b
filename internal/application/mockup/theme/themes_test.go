package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockflow-api/internal/domain/entity"
)

func TestGetKnownTheme(t *testing.T) {
	th, ok := Get("midnight")
	require.True(t, ok)
	assert.Equal(t, "midnight", th.ID)
	assert.Contains(t, th.CSS, "--primary:")
	assert.Contains(t, th.CSS, "--primary-rgb:")

	// 大小写与空白不敏感。
	th2, ok := Get("  Midnight ")
	require.True(t, ok)
	assert.Equal(t, th.ID, th2.ID)

	_, ok = Get("vaporwave")
	assert.False(t, ok)
}

func TestResolveFallsBackToPlatformDefault(t *testing.T) {
	assert.Equal(t, "clean-light", Resolve("no-such-theme", entity.PlatformMobile).ID)
	assert.Equal(t, "mono", Resolve("", entity.PlatformWebsite).ID)
	// 已知主题原样返回，与平台无关。
	assert.Equal(t, "forest", Resolve("forest", entity.PlatformWebsite).ID)
}

func TestOptionsCoverAllThemes(t *testing.T) {
	opts := Options()
	require.Len(t, opts, len(themes))
	seen := make(map[string]bool)
	for _, o := range opts {
		assert.NotEmpty(t, o.ID)
		assert.NotEmpty(t, o.Description)
		assert.False(t, seen[o.ID], "duplicate option %s", o.ID)
		seen[o.ID] = true
	}
}

func TestEveryThemeDeclaresFullPalette(t *testing.T) {
	vars := []string{
		"--primary:", "--primary-rgb:",
		"--bg:", "--bg-rgb:",
		"--surface:", "--surface-rgb:",
		"--text:", "--muted:",
		"--accent:", "--accent-rgb:",
	}
	for id, th := range themes {
		for _, v := range vars {
			assert.Contains(t, th.CSS, v, "theme %s missing %s", id, v)
		}
		assert.True(t, strings.HasPrefix(th.CSS, ":root {"), "theme %s css must target :root", id)
	}
}

func TestResolvePreset(t *testing.T) {
	p := ResolvePreset("glass")
	assert.Equal(t, "glass", p.ID)
	assert.NotEmpty(t, p.Rules)

	// 未知或空预设回退默认。
	assert.Equal(t, defaultPreset, ResolvePreset("").ID)
	assert.Equal(t, defaultPreset, ResolvePreset("brutal-mode").ID)

	assert.True(t, KnownPreset("neubrutalism"))
	assert.False(t, KnownPreset("swiss"))
}

package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "<div>x</div>", StripCodeFences("```html\n<div>x</div>\n```"))
	assert.Equal(t, "<div>x</div>", StripCodeFences("```\n<div>x</div>\n```"))
	assert.Equal(t, "<div>x</div>", StripCodeFences("  <div>x</div>  "))
	assert.Equal(t, "", StripCodeFences(""))
}

func TestExtractHTMLFragmentFullScreen(t *testing.T) {
	raw := "Here is your screen:\n```html\n<div class=\"screen\"><p>hi</p></div>\n```\nLet me know!"
	// 贪婪截取第一个 <div 到最后一个 </div>。
	got := ExtractHTMLFragment(raw, false)
	assert.Equal(t, `<div class="screen"><p>hi</p></div>`, got)
}

func TestExtractHTMLFragmentGreedySpansNestedDivs(t *testing.T) {
	raw := `prefix <div id="a"><div id="b">x</div></div> suffix`
	got := ExtractHTMLFragment(raw, false)
	assert.Equal(t, `<div id="a"><div id="b">x</div></div>`, got)
}

func TestExtractHTMLFragmentPartialKeepsNonDivRoot(t *testing.T) {
	raw := "```html\n<button class=\"cta\">Buy</button>\n```"
	// 局部编辑模式下根标签不限于 div，只去围栏。
	got := ExtractHTMLFragment(raw, true)
	assert.Equal(t, `<button class="cta">Buy</button>`, got)
}

func TestExtractHTMLFragmentNoDivFallsBackToRaw(t *testing.T) {
	got := ExtractHTMLFragment("<section>x</section>", false)
	assert.Equal(t, "<section>x</section>", got)
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSONObject("Sure! Here you go: {\"a\":1} hope that helps"))
	assert.Equal(t, `{"a":1}`, ExtractJSONObject("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1,2]`, ExtractJSONObject("the list is [1,2]"))
	assert.Equal(t, "", ExtractJSONObject("   "))
}

func TestTruncateByRunes(t *testing.T) {
	assert.Equal(t, "", TruncateByRunes("abc", 0))
	assert.Equal(t, "abc", TruncateByRunes("abc", 5))
	assert.Equal(t, "ab", TruncateByRunes("abcd", 2))
	// 不截断多字节字符的中间。
	assert.Equal(t, "中文", TruncateByRunes("中文字符", 2))
}

package fragment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceExactMatch(t *testing.T) {
	doc := `<div class="screen"><header>App</header><button class="cta">Buy</button></div>`

	out, err := Replace(doc, `<button class="cta">Buy</button>`, `<button class="cta">Subscribe</button>`)
	require.NoError(t, err)
	assert.Equal(t, `<div class="screen"><header>App</header><button class="cta">Subscribe</button></div>`, out)
}

func TestReplaceNormalizedWhitespace(t *testing.T) {
	doc := "<div class=\"screen\">\n  <header>\n    App\n  </header>\n  <p>hello   world</p>\n</div>"
	// 片段来自另一次序列化，空白风格不同。
	frag := `<p>hello world</p>`

	out, err := Replace(doc, frag, `<p>bye</p>`)
	require.NoError(t, err)
	assert.Contains(t, out, `<p>bye</p>`)
	assert.NotContains(t, out, "hello")
	// 片段之外的原文空白保持原样。
	assert.Contains(t, out, "<header>\n    App\n  </header>")
}

func TestReplaceNormalizedReplacesAllOccurrences(t *testing.T) {
	// 两处出现的空白都与片段不同，走归一化匹配。
	doc := "<div><span class=\"tag\">a\n b</span><p>x</p><span class=\"tag\">a  b</span></div>"

	out, err := Replace(doc, `<span class="tag">a b</span>`, `<em>c</em>`)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "<em>c</em>"))
	assert.NotContains(t, out, "span")
}

func TestReplaceStructuralByID(t *testing.T) {
	doc := `<div class="screen"><nav id="bottom-nav" class="nav dark"><div class="item">Home</div><div class="item">Profile</div></nav><main>body</main></div>`
	// 内容已经漂移，但根标签和 id 还在。
	frag := `<nav id="bottom-nav" class="nav"><div class="item">Feed</div></nav>`

	out, err := Replace(doc, frag, `<nav id="bottom-nav">NEW</nav>`)
	require.NoError(t, err)
	assert.Contains(t, out, `<nav id="bottom-nav">NEW</nav>`)
	assert.NotContains(t, out, "Profile")
	assert.Contains(t, out, "<main>body</main>")
}

func TestReplaceStructuralByIDHandlesNestedSameTag(t *testing.T) {
	doc := `<div id="outer"><div id="card"><div class="inner">deep</div></div><footer>f</footer></div>`
	frag := `<div id="card">stale content</div>`

	out, err := Replace(doc, frag, `<div id="card">fresh</div>`)
	require.NoError(t, err)
	assert.Equal(t, `<div id="outer"><div id="card">fresh</div><footer>f</footer></div>`, out)
}

func TestReplaceStructuralByClassSuperset(t *testing.T) {
	doc := `<div class="screen"><button class="btn btn-primary large">Go</button></div>`
	// 片段的 class 集合是候选元素 class 的子集。
	frag := `<button class="btn btn-primary">Start</button>`

	out, err := Replace(doc, frag, `<button class="btn">Done</button>`)
	require.NoError(t, err)
	assert.Contains(t, out, `<button class="btn">Done</button>`)
	assert.NotContains(t, out, "large")
}

func TestReplaceClassSubsetDoesNotMatch(t *testing.T) {
	doc := `<div class="screen"><button class="btn">Go</button></div>`
	// 片段要求的 class 比文档里的多，不构成超集。
	frag := `<button class="btn btn-primary">Go!</button>`

	_, err := Replace(doc, frag, `<button>x</button>`)
	assert.ErrorIs(t, err, ErrFragmentNotFound)
}

func TestReplaceNotFound(t *testing.T) {
	doc := `<div class="screen"><p>hello</p></div>`

	_, err := Replace(doc, `<section id="missing">gone</section>`, `<section>new</section>`)
	assert.ErrorIs(t, err, ErrFragmentNotFound)

	_, err = Replace(doc, "   ", "<p>x</p>")
	assert.ErrorIs(t, err, ErrFragmentNotFound)
}

func TestReplaceIgnoresTagNamePrefixHit(t *testing.T) {
	// 找 <nav id="n"> 时不能撞上 <navbar>。
	doc := `<div><navbar id="n">wrong</navbar><nav id="n">right</nav></div>`
	frag := `<nav id="n">old</nav>`

	out, err := Replace(doc, frag, `<nav id="n">X</nav>`)
	require.NoError(t, err)
	assert.Contains(t, out, `<navbar id="n">wrong</navbar>`)
	assert.Contains(t, out, `<nav id="n">X</nav>`)
}

func TestReplaceIgnoresCloseTagNamePrefixHit(t *testing.T) {
	// 目标元素内嵌着标签名是其前缀延伸的元素：
	// </navbar> 不能当成 </nav> 提前归零深度。
	doc := `<div><nav id="menu"><navbar>inner</navbar><span>tail</span></nav><main>m</main></div>`
	frag := `<nav id="menu">stale</nav>`

	out, err := Replace(doc, frag, `<nav id="menu">NEW</nav>`)
	require.NoError(t, err)
	assert.Equal(t, `<div><nav id="menu">NEW</nav><main>m</main></div>`, out)
}

func TestReplaceSelfClosingTagsDoNotBreakDepth(t *testing.T) {
	doc := `<div id="hero"><img src="a.png"/><br/><p>text</p></div><div id="next">n</div>`
	frag := `<div id="hero">old</div>`

	out, err := Replace(doc, frag, `<div id="hero">new</div>`)
	require.NoError(t, err)
	assert.Equal(t, `<div id="hero">new</div><div id="next">n</div>`, out)
}

func TestNormalizeHTMLIndexMap(t *testing.T) {
	in := "  <div>\n   a  b\t</div>  "
	norm, idx := normalizeHTML(in)
	assert.Equal(t, "<div>a b</div>", norm)
	require.Len(t, idx, len(norm))
	// 每个归一化字节都映射回原文中的真实位置。
	for i := range norm {
		require.Less(t, idx[i], len(in))
	}
	assert.Equal(t, byte('<'), in[idx[0]])
	assert.Equal(t, byte('a'), in[idx[5]])
}

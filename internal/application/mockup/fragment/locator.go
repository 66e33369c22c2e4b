package fragment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"mockflow-api/pkg/metrics"
)

// ErrFragmentNotFound 四级匹配全部失败。调用方必须保留原文档并记录警告，
// 不得悄悄丢弃内容。
var ErrFragmentNotFound = errors.New("fragment not found in document")

// Replace 在 fullHTML 中定位 originalFragment 并替换为 replacement。
// 匹配按从严到宽的顺序尝试：
//  1. 精确子串；
//  2. 空白归一化匹配（替换全部出现位置，索引映射回原文）；
//  3. 结构匹配：同名根标签 + 相同 id，按嵌套深度找到闭合位置；
//  4. 结构匹配：同名根标签 + class 超集。
//
// 模型产出的 HTML 不保证严格合法，这里刻意用字符串扫描而非 DOM 解析，
// 自闭合/畸形标签只做尽力而为处理。
func Replace(fullHTML, originalFragment, replacement string) (string, error) {
	original := strings.TrimSpace(originalFragment)
	if original == "" {
		return "", fmt.Errorf("original fragment is empty: %w", ErrFragmentNotFound)
	}

	// 第一级：精确子串。
	if idx := strings.Index(fullHTML, original); idx >= 0 {
		metrics.FragmentReplaceTotal.WithLabelValues("exact", "ok").Inc()
		return fullHTML[:idx] + replacement + fullHTML[idx+len(original):], nil
	}

	// 第二级：空白归一化后匹配，替换所有出现位置。
	if out, ok := replaceNormalized(fullHTML, original, replacement); ok {
		metrics.FragmentReplaceTotal.WithLabelValues("normalized", "ok").Inc()
		return out, nil
	}

	tag, id, classes := parseRootTag(original)
	if tag == "" {
		metrics.FragmentReplaceTotal.WithLabelValues("structural", "not_found").Inc()
		return "", ErrFragmentNotFound
	}

	// 第三级：根标签 + id。
	if id != "" {
		if start, end, ok := locateByAttr(fullHTML, tag, func(attrs string) bool {
			return attrValue(attrs, "id") == id
		}); ok {
			metrics.FragmentReplaceTotal.WithLabelValues("structural_id", "ok").Inc()
			return fullHTML[:start] + replacement + fullHTML[end:], nil
		}
	}

	// 第四级：根标签 + class 超集。
	if len(classes) > 0 {
		if start, end, ok := locateByAttr(fullHTML, tag, func(attrs string) bool {
			return classSuperset(attrValue(attrs, "class"), classes)
		}); ok {
			metrics.FragmentReplaceTotal.WithLabelValues("structural_class", "ok").Inc()
			return fullHTML[:start] + replacement + fullHTML[end:], nil
		}
	}

	metrics.FragmentReplaceTotal.WithLabelValues("structural", "not_found").Inc()
	return "", ErrFragmentNotFound
}

// normalizeHTML 把连续空白压成单个空格并去掉标签相邻的空白，
// 同时返回归一化串每个字节在原文中的索引，用于把匹配范围映射回原文。
func normalizeHTML(s string) (string, []int) {
	var b strings.Builder
	idxMap := make([]int, 0, len(s))

	i := 0
	for i < len(s) {
		c := s[i]
		if !isSpace(c) {
			b.WriteByte(c)
			idxMap = append(idxMap, i)
			i++
			continue
		}

		// 空白段：记录起点，跳到下一个非空白字符。
		start := i
		for i < len(s) && isSpace(s[i]) {
			i++
		}

		// 标签相邻空白直接丢弃；其余压成一个空格。
		prevIsTag := b.Len() > 0 && b.String()[b.Len()-1] == '>'
		nextIsTag := i < len(s) && s[i] == '<'
		if b.Len() == 0 || i >= len(s) || prevIsTag || nextIsTag {
			continue
		}
		b.WriteByte(' ')
		idxMap = append(idxMap, start)
	}

	return b.String(), idxMap
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// replaceNormalized 在归一化空间内查找全部出现位置，
// 再按索引映射回原文做替换。从后往前替换以保持前面的索引有效。
func replaceNormalized(fullHTML, original, replacement string) (string, bool) {
	normDoc, idxMap := normalizeHTML(fullHTML)
	normFrag, _ := normalizeHTML(original)
	if normFrag == "" {
		return "", false
	}

	type span struct{ start, end int }
	var spans []span
	offset := 0
	for {
		rel := strings.Index(normDoc[offset:], normFrag)
		if rel < 0 {
			break
		}
		ns := offset + rel
		ne := ns + len(normFrag)
		origStart := idxMap[ns]
		origEnd := idxMap[ne-1] + 1
		spans = append(spans, span{origStart, origEnd})
		offset = ne
	}
	if len(spans) == 0 {
		return "", false
	}

	out := fullHTML
	for i := len(spans) - 1; i >= 0; i-- {
		sp := spans[i]
		out = out[:sp.start] + replacement + out[sp.end:]
	}
	return out, true
}

var (
	rootTagRe = regexp.MustCompile(`(?s)^\s*<([a-zA-Z][a-zA-Z0-9-]*)([^>]*)>`)
	idAttrRe  = regexp.MustCompile(`\bid\s*=\s*["']([^"']*)["']`)
	clsAttrRe = regexp.MustCompile(`\bclass\s*=\s*["']([^"']*)["']`)
)

// parseRootTag 解析片段根元素的标签名、id 和 class 集合。
func parseRootTag(fragment string) (tag string, id string, classes []string) {
	m := rootTagRe.FindStringSubmatch(fragment)
	if m == nil {
		return "", "", nil
	}
	tag = strings.ToLower(m[1])
	attrs := m[2]
	id = attrValue(attrs, "id")
	if cls := attrValue(attrs, "class"); cls != "" {
		classes = strings.Fields(cls)
	}
	return tag, id, classes
}

func attrValue(attrs, name string) string {
	var re *regexp.Regexp
	switch name {
	case "id":
		re = idAttrRe
	case "class":
		re = clsAttrRe
	default:
		return ""
	}
	m := re.FindStringSubmatch(attrs)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// classSuperset 判断候选元素的 class 是否包含目标 class 集合的全部 token。
func classSuperset(candidate string, want []string) bool {
	if candidate == "" {
		return false
	}
	have := make(map[string]struct{})
	for _, c := range strings.Fields(candidate) {
		have[c] = struct{}{}
	}
	for _, w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}

// locateByAttr 扫描 fullHTML 中所有同名开标签，对属性段做谓词匹配；
// 命中后按同名标签嵌套深度向前扫描，返回整个元素的字节范围。
func locateByAttr(fullHTML, tag string, match func(attrs string) bool) (start, end int, ok bool) {
	lower := strings.ToLower(fullHTML)
	open := "<" + tag
	offset := 0
	for {
		rel := strings.Index(lower[offset:], open)
		if rel < 0 {
			return 0, 0, false
		}
		pos := offset + rel
		offset = pos + len(open)

		// 排除前缀命中（如找 <div 时撞到 <dive）。
		after := pos + len(open)
		if after < len(fullHTML) {
			c := fullHTML[after]
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '>' && c != '/' {
				continue
			}
		}

		gtIdx := strings.IndexByte(fullHTML[pos:], '>')
		if gtIdx < 0 {
			return 0, 0, false
		}
		attrs := fullHTML[after : pos+gtIdx]
		if !match(attrs) {
			continue
		}

		if elemEnd, found := scanElementEnd(lower, tag, pos); found {
			return pos, elemEnd, true
		}
		return 0, 0, false
	}
}

// scanElementEnd 从开标签位置起，按同名标签计数嵌套深度，
// 返回深度归零处闭标签之后的索引。嵌套同名标签不会提前终止。
func scanElementEnd(lowerHTML, tag string, openPos int) (int, bool) {
	open := "<" + tag
	close := "</" + tag
	depth := 0
	i := openPos
	for i < len(lowerHTML) {
		if strings.HasPrefix(lowerHTML[i:], close) {
			// 排除闭标签前缀命中（如找 </nav 时撞到 </navbar）。
			after := i + len(close)
			if after < len(lowerHTML) {
				c := lowerHTML[after]
				if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '>' {
					i++
					continue
				}
			}
			gt := strings.IndexByte(lowerHTML[i:], '>')
			if gt < 0 {
				return 0, false
			}
			depth--
			i += gt + 1
			if depth == 0 {
				return i, true
			}
			continue
		}
		if strings.HasPrefix(lowerHTML[i:], open) {
			after := i + len(open)
			if after < len(lowerHTML) {
				c := lowerHTML[after]
				if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '>' && c != '/' {
					i++
					continue
				}
			}
			gt := strings.IndexByte(lowerHTML[i:], '>')
			if gt < 0 {
				return 0, false
			}
			// 自闭合标签不增加深度。
			if lowerHTML[i+gt-1] != '/' {
				depth++
			}
			i += gt + 1
			continue
		}
		i++
	}
	return 0, false
}

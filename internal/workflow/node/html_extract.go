package node

import "strings"

// StripCodeFences 去掉模型输出残留的 Markdown 代码围栏。
func StripCodeFences(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}

	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw, "\n"); idx >= 0 {
			raw = raw[idx+1:]
		} else {
			raw = strings.TrimPrefix(raw, "```")
		}
	}
	if strings.HasSuffix(strings.TrimSpace(raw), "```") {
		trimmed := strings.TrimSpace(raw)
		raw = trimmed[:len(trimmed)-3]
	}

	return strings.TrimSpace(raw)
}

// ExtractHTMLFragment 从模型输出中提取屏幕标记。
// 整屏模式：贪婪截取第一个 "<div" 到最后一个 "</div>" 的区域；
// 局部编辑模式（partial=true）：模型被要求只输出替换片段，仅去围栏后原样返回。
func ExtractHTMLFragment(s string, partial bool) string {
	raw := StripCodeFences(s)
	if partial {
		return raw
	}

	start := strings.Index(raw, "<div")
	end := strings.LastIndex(raw, "</div>")
	if start >= 0 && end > start {
		return raw[start : end+len("</div>")]
	}

	return raw
}

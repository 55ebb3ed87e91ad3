package retrieval

import "strings"

// splitByRunes 将文本按 rune 数切块，相邻块之间保留 overlapRunes 的重叠。
// 边界按 rune 计算，多字节文本不会被截断在字节中间。
func splitByRunes(s string, maxRunes int, overlapRunes int) []string {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return []string{text}
	}

	step := maxRunes
	if overlapRunes > 0 && overlapRunes < maxRunes {
		step = maxRunes - overlapRunes
	}

	var out []string
	for start := 0; ; start += step {
		end := start + maxRunes
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			return out
		}
	}
}

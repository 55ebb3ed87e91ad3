package generation

import (
	"regexp"
	"strings"
)

var listItemRe = regexp.MustCompile(`^(?:[-*]|\d+\.)(?:\s+|$)`)

func isHeadingLine(line string) bool {
	return strings.HasPrefix(line, "#")
}

func isListItemLine(line string) bool {
	return listItemRe.MatchString(line)
}

// FormatMarkdown 规范化章节 Markdown，流水线的最后一个阶段。
// 规则：
//   - 连续空行折叠为一个空行
//   - 标题行（非文档首行）之前保证恰好一个空行
//   - 列表块起始行之前插入空行（前一行为非空且非列表项时）
//   - 去除每行行尾空白
//   - 去除文档首尾空行
//
// 纯函数且幂等：format(format(x)) == format(x)。
func FormatMarkdown(in string) string {
	lines := strings.Split(in, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")

		if line == "" {
			// 折叠空行并去除文档起始处的空行
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}

		if isHeadingLine(line) {
			if len(out) > 0 && out[len(out)-1] != "" {
				out = append(out, "")
			}
		} else if isListItemLine(line) {
			if prev := lastLine(out); prev != "" && !isListItemLine(prev) {
				out = append(out, "")
			}
		}

		out = append(out, line)
	}

	// 去除文档末尾空行
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}

	return strings.Join(out, "\n")
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

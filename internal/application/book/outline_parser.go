package book

import (
	"regexp"
	"strconv"
	"strings"
)

// ideationResult 构思阶段的解析结果
type ideationResult struct {
	Title       string
	Description string
}

// outlineEntry 大纲中一个章节条目
type outlineEntry struct {
	Number      int
	Title       string
	Description string
}

var outlineLineRe = regexp.MustCompile(`^(\d+)[:.)]\s*(.+)$`)

// parseIdeation 从模型输出中提取书名与简介。
// 解析尽力而为：缺失的字段保持零值，由调用方决定兜底。
func parseIdeation(raw string) ideationResult {
	var out ideationResult
	var descLines []string
	inDesc := false

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case hasFieldPrefix(trimmed, "Title"):
			out.Title = fieldValue(trimmed, "Title")
			inDesc = false
		case hasFieldPrefix(trimmed, "Description"):
			if v := fieldValue(trimmed, "Description"); v != "" {
				descLines = append(descLines, v)
			}
			inDesc = true
		case hasFieldPrefix(trimmed, "Key Takeaways"):
			inDesc = false
		case inDesc && trimmed != "":
			descLines = append(descLines, trimmed)
		}
	}

	out.Title = strings.Trim(out.Title, `"“”`)
	out.Description = strings.Join(descLines, " ")
	return out
}

// parseOutline 解析 "N: 标题" 加可选 "Description: ..." 形式的大纲。
// 无法识别的行跳过，只返回解析成功的条目。
func parseOutline(raw string) []outlineEntry {
	var entries []outlineEntry

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := outlineLineRe.FindStringSubmatch(trimmed); m != nil {
			num, err := strconv.Atoi(m[1])
			if err != nil || num < 1 {
				continue
			}
			entries = append(entries, outlineEntry{
				Number: num,
				Title:  strings.Trim(strings.TrimSpace(m[2]), `"“”`),
			})
			continue
		}
		if hasFieldPrefix(trimmed, "Description") && len(entries) > 0 {
			last := &entries[len(entries)-1]
			v := fieldValue(trimmed, "Description")
			if last.Description == "" {
				last.Description = v
			} else {
				last.Description += " " + v
			}
		}
	}
	return entries
}

func hasFieldPrefix(line, field string) bool {
	lower := strings.ToLower(line)
	prefix := strings.ToLower(field)
	lower = strings.TrimPrefix(lower, "**")
	lower = strings.TrimPrefix(lower, "#")
	lower = strings.TrimSpace(lower)
	return strings.HasPrefix(lower, prefix+":")
}

func fieldValue(line, field string) string {
	idx := strings.Index(strings.ToLower(line), strings.ToLower(field)+":")
	if idx < 0 {
		return ""
	}
	// 粗体字段形如 **Title:** value，冒号后残留的 ** 一并去掉
	v := strings.TrimSpace(line[idx+len(field)+1:])
	v = strings.TrimPrefix(v, "**")
	v = strings.TrimSuffix(v, "**")
	return strings.TrimSpace(v)
}

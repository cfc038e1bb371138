package notifier

import (
	"strings"
	"time"
)

// Telegram 文本上限 4096，留出渲染余量。
const maxSummaryLen = 3800

// Summary 是一次模拟结果的推送文本：标题、等宽指标块、时间戳。
// 引擎每次模拟只发一条，不需要多段落拼装。
type Summary struct {
	Title string
	Lines []string
	At    time.Time
}

// RenderMarkdown 生成 Markdown 文本：指标行包在代码块里对齐展示，
// 内嵌的 ``` 会被替换以免截断代码块，超长时整体裁剪。
func (s Summary) RenderMarkdown() string {
	var b strings.Builder
	if title := strings.TrimSpace(s.Title); title != "" {
		b.WriteString(neutralize(title))
		b.WriteString("\n")
	}

	lines := make([]string, 0, len(s.Lines))
	for _, line := range s.Lines {
		if text := strings.TrimSpace(line); text != "" {
			lines = append(lines, neutralize(text))
		}
	}
	if len(lines) > 0 {
		b.WriteString("```\n")
		for _, line := range lines {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}

	if !s.At.IsZero() {
		b.WriteString(s.At.Format("2006-01-02 15:04:05 MST"))
	}

	body := strings.TrimSpace(b.String())
	if len(body) > maxSummaryLen {
		body = body[:maxSummaryLen] + "..."
	}
	return body
}

func neutralize(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}

package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryRenderMarkdown(t *testing.T) {
	t.Run("full summary", func(t *testing.T) {
		msg := Summary{
			Title: "📊 DCA simulation BTCUSDT",
			Lines: []string{"ROI: 20.81%", "", "  invested: 1000.00  "},
			At:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		out := msg.RenderMarkdown()
		assert.True(t, strings.HasPrefix(out, "📊 DCA simulation BTCUSDT"))
		assert.Contains(t, out, "```\nROI: 20.81%\ninvested: 1000.00\n```")
		assert.Contains(t, out, "2024-01-02 03:04:05 UTC")
	})

	t.Run("blank lines drop the code block", func(t *testing.T) {
		out := Summary{Title: "ping", Lines: []string{" ", ""}}.RenderMarkdown()
		assert.Equal(t, "ping", out)
	})

	t.Run("backticks are neutralized", func(t *testing.T) {
		out := Summary{Lines: []string{"code ``` fence"}}.RenderMarkdown()
		assert.Contains(t, out, "'''")
		assert.NotContains(t, out, "code ``` fence")
	})

	t.Run("overlong body is truncated", func(t *testing.T) {
		lines := make([]string, 0, 400)
		for i := 0; i < 400; i++ {
			lines = append(lines, strings.Repeat("x", 40))
		}
		out := Summary{Lines: lines}.RenderMarkdown()
		assert.LessOrEqual(t, len(out), maxSummaryLen+3)
		assert.True(t, strings.HasSuffix(out, "..."))
	})
}

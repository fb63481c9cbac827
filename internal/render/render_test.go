package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const report = "## Weather\n\nIt is **5 degrees Celsius**.\n\n## News\n\n- [Headline one](https://yle.fi/a/1)\n- [Headline two](https://yle.fi/a/2)\n"

func TestHTML(t *testing.T) {
	html := string(HTML(report))
	assert.Contains(t, html, "<h2")
	assert.Contains(t, html, `<a href="https://yle.fi/a/1">Headline one</a>`)
	assert.Contains(t, html, "<strong>5 degrees Celsius</strong>")
}

func TestPlainText(t *testing.T) {
	got := PlainText(report)
	assert.Equal(t, "Weather\n\nIt is 5 degrees Celsius.\n\nNews\n\nHeadline one\nHeadline two", got)
	assert.NotContains(t, got, "https://")
}

func TestTerminal(t *testing.T) {
	out := Terminal(report, 0)
	assert.Contains(t, out, "Weather")
	assert.Contains(t, out, "Headline one")
	assert.False(t, strings.Contains(out, "**"))
}

func TestHTMLDropsScriptsAndUnsafeLinks(t *testing.T) {
	md := "## News\n\n<script>alert(document.cookie)</script>\n\n[x](javascript:alert(1))\n\n[ok](https://yle.fi/a/3)\n"
	html := string(HTML(md))
	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, `<a href="https://yle.fi/a/3">ok</a>`)
}

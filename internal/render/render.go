// Package render turns report markdown into HTML, terminal output, or plain
// text for speech.
package render

import (
	"bytes"
	"regexp"
	"strings"

	termmd "github.com/MichaelMure/go-term-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// HTML renders md as an HTML fragment. Raw HTML in md is dropped and only
// safe link schemes are emitted as links.
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML | html.Safelink})
	return markdown.ToHTML([]byte(md), p, r)
}

// Terminal renders md with ANSI styling, wrapped at width.
func Terminal(md string, width int) string {
	if width < 20 {
		width = 80
	}
	return string(termmd.Render(md, width, 2))
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// PlainText strips markup so the text reads well aloud. Link targets are dropped.
func PlainText(md string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(HTML(md)))
	if err != nil {
		return md
	}
	var b strings.Builder
	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		if s.Is("ul, ol") {
			s.Find("li").Each(func(_ int, li *goquery.Selection) {
				b.WriteString(strings.TrimSpace(li.Text()) + "\n")
			})
		} else {
			b.WriteString(strings.TrimSpace(s.Text()) + "\n")
		}
		b.WriteString("\n")
	})
	return strings.TrimSpace(blankRuns.ReplaceAllString(b.String(), "\n\n"))
}

package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Excerpt returns the first non-empty paragraph of an HTML body as plain
// text, cut to at most limit runes on a word boundary. limit <= 0 disables
// truncation.
func Excerpt(body string, limit int) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse body: %w", err)
	}
	doc.Find("script, style").Remove()

	var text string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text = collapseSpace(p.Text())
		return text == ""
	})
	if text == "" {
		text = collapseSpace(doc.Text())
	}

	return truncate(text, limit), nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

package api

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxMessageLen = 300

// plainText turns an error body into a one-line message. HTML error pages
// (IIS, reverse proxies) are reduced to their title or visible text.
func plainText(contentType, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(contentType, "html") || strings.HasPrefix(raw, "<") {
		raw = HTMLText(raw)
	}
	raw = strings.Trim(raw, `"`)
	return truncate(collapseSpace(raw), maxMessageLen)
}

// HTMLText extracts readable text from an HTML fragment or page.
func HTMLText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h := strings.TrimSpace(doc.Find("h1, h2").First().Text()); h != "" {
		return h
	}
	return collapseSpace(doc.Find("body").Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

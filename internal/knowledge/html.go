package knowledge

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AddHTMLDocument strips markup and boilerplate sections from an HTML
// page, then indexes the remaining text. The page title is used when
// no title is supplied.
func (d *DocumentIndex) AddHTMLDocument(docID, html, title string, tags []string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, header, aside, noscript").Remove()

	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
		if title == "" {
			title = strings.TrimSpace(doc.Find("h1").First().Text())
		}
	}

	text := normalizeWhitespace(doc.Find("body").Text())
	if text == "" {
		text = normalizeWhitespace(doc.Text())
	}
	if text == "" {
		return 0, nil
	}

	return d.AddDocument(docID, text, title, tags), nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

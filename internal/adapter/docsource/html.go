package docsource

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractHTML converts an HTML document to plain text suitable for chunking.
// Headings become markdown headers so section extraction keeps working
// downstream. It returns the page title and the extracted text.
func ExtractHTML(html string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", err
	}

	doc.Find("script, style, nav, header, footer, aside, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	var blocks []string
	doc.Find("h1, h2, h3, h4, p, li, pre, blockquote").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		switch goquery.NodeName(sel) {
		case "h1":
			text = "# " + text
		case "h2":
			text = "## " + text
		case "h3":
			text = "### " + text
		case "h4":
			text = "#### " + text
		case "li":
			text = "- " + text
		}
		blocks = append(blocks, text)
	})

	return title, strings.Join(blocks, "\n\n"), nil
}

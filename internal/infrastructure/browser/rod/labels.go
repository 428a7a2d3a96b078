package rod

import (
	"strings"

	"golang.org/x/net/html"
)

// extractFieldLabels parses page HTML and maps <label for="..."> targets to
// the label's visible text. Used to backfill field labels the DOM scan could
// not get from aria-label.
func extractFieldLabels(rawHTML string) map[string]string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	labels := make(map[string]string)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "label" {
			for _, attr := range n.Attr {
				if attr.Key == "for" && attr.Val != "" {
					if text := nodeText(n); text != "" {
						labels[attr.Val] = text
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return labels
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

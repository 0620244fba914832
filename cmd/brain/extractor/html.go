package extractor

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const (
	defaultDescription = "No description available"
	bodyFallbackRunes  = 1000
)

type page struct {
	Title       string
	Description string
	Body        string
}

// parsePage pulls the title, meta description and main text out of an HTML document
func parsePage(r io.Reader) (*page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &page{Description: defaultDescription}

	if n := findElement(doc, func(n *html.Node) bool { return n.Data == "title" }); n != nil {
		p.Title = textOf(n)
	}

	if n := findElement(doc, isMetaDescription); n != nil {
		if content := strings.TrimSpace(attr(n, "content")); content != "" {
			p.Description = content
		}
	}

	if n := findElement(doc, func(n *html.Node) bool { return n.Data == "article" }); n != nil {
		p.Body = textOf(n)
	} else if n := findElement(doc, func(n *html.Node) bool { return n.Data == "body" }); n != nil {
		p.Body = truncateRunes(textOf(n), bodyFallbackRunes)
	}

	return p, nil
}

func isMetaDescription(n *html.Node) bool {
	return n.Data == "meta" && strings.EqualFold(attr(n, "name"), "description")
}

// findElement returns the first element node in document order matching match
func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var buf strings.Builder
	extractText(n, &buf)
	return strings.TrimSpace(collapseWhitespace(buf.String()))
}

// extractText recursively extracts text content from HTML nodes.
func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}

	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}

	// Add space around block elements
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6", "section", "tr":
			buf.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "h1", "h2", "h3", "h4", "h5", "h6", "section", "tr":
			buf.WriteString(" ")
		}
	}
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(s, " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

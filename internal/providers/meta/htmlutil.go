package meta

import (
	"strings"

	"golang.org/x/net/html"
)

// parseHTML parses a full document with golang.org/x/net/html, the same
// tokenizer-backed parser the example extractor uses, just driven through
// its tree-building API instead of the raw token stream.
func parseHTML(raw string) (*html.Node, error) {
	return html.Parse(strings.NewReader(raw))
}

// findAll walks n depth-first collecting every element node named tag.
func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// findFirst returns the first descendant element named tag, depth-first.
func findFirst(n *html.Node, tag string) (*html.Node, bool) {
	all := findAll(n, tag)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// findFirstWithClass returns the first descendant element named tag whose
// class attribute contains classToken as one of its space-separated tokens.
func findFirstWithClass(n *html.Node, tag, classToken string) (*html.Node, bool) {
	for _, el := range findAll(n, tag) {
		if hasClass(el, classToken) {
			return el, true
		}
	}
	return nil, false
}

func hasClass(n *html.Node, token string) bool {
	classAttr, ok := attrVal(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classAttr) {
		if c == token {
			return true
		}
	}
	return false
}

func attrVal(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// textContent concatenates every text node under n, depth-first.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// innerHTML renders n's children back to markup, used to capture a dd's
// raw content before any extraction happens.
func innerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&sb, c)
	}
	return sb.String()
}

// nextSiblingElement returns the next sibling that is itself an element
// node, skipping whitespace text nodes in between.
func nextSiblingElement(n *html.Node) (*html.Node, bool) {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s, true
		}
	}
	return nil, false
}

// collectUntilNextSibling walks forward from start (exclusive) collecting
// every sibling element whose tag is not stopTag, stopping as soon as one
// is found.
func collectUntilNextSibling(start *html.Node, stopTag string) []*html.Node {
	var out []*html.Node
	cur := start
	for {
		next, ok := nextSiblingElement(cur)
		if !ok || next.Data == stopTag {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out
}

// findFirstLinkHref returns the href of the first <a> descendant of n.
func findFirstLinkHref(n *html.Node) (string, bool) {
	for _, a := range findAll(n, "a") {
		if href, ok := attrVal(a, "href"); ok {
			return href, true
		}
	}
	return "", false
}

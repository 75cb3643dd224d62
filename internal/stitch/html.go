package stitch

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/anthropics/ngl/internal/ngldata"
)

// HTMLExtractor tokenizes with golang.org/x/net/html looking for
// <pre><code class="...">...</code></pre> blocks. Anything outside a
// matching block passes through byte-for-byte.
type HTMLExtractor struct{}

func NewHTMLExtractor() *HTMLExtractor { return &HTMLExtractor{} }

func (h *HTMLExtractor) Extract(content string, counter *int) (string, []ExtractedExample) {
	z := html.NewTokenizer(strings.NewReader(content))
	var out strings.Builder
	var examples []ExtractedExample

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break // EOF (z.Err() == io.EOF) or a tokenizer error; either way, stop
		}

		if tt == html.StartTagToken {
			tok := z.Token()
			if tok.Data == "pre" {
				var buf bytes.Buffer
				buf.Write(z.Raw())

				lang, code, matched := captureCodeBlock(z, &buf)
				if matched {
					key := nextPlaceholder(counter)
					out.WriteString(fmt.Sprintf("{{NGL_EX:%s}}", key))
					ex := ExtractedExample{PlaceholderKey: key, Data: code}
					if l, ok := ngldata.ParseLanguage(lang); ok {
						ex.Language = &l
					}
					examples = append(examples, ex)
				} else {
					out.Write(buf.Bytes())
				}
				continue
			}
		}

		out.Write(z.Raw())
	}

	return out.String(), examples
}

// captureCodeBlock is called right after a <pre> start tag has been
// consumed (and written to buf). It tries to match <code class="...">, the
// code body, </code>, </pre> — buffering every raw token it reads along the
// way so the caller can fall back to verbatim passthrough on a mismatch.
func captureCodeBlock(z *html.Tokenizer, buf *bytes.Buffer) (language, code string, matched bool) {
	// Skip whitespace-only text before <code>, then require the tag itself.
	var codeTag html.Token
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return "", "", false
		}
		raw := z.Raw()
		if tt == html.TextToken && strings.TrimSpace(string(z.Text())) == "" {
			buf.Write(raw)
			continue
		}
		if tt != html.StartTagToken {
			buf.Write(raw)
			return "", "", false
		}
		codeTag = z.Token()
		buf.Write(raw)
		if codeTag.Data != "code" {
			return "", "", false
		}
		break
	}
	language = languageFromClassAttr(codeTag)

	var body strings.Builder
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return "", "", false
		}
		raw := z.Raw()
		switch tt {
		case html.TextToken:
			body.Write(z.Text())
			buf.Write(raw)
		case html.EndTagToken:
			buf.Write(raw)
			if z.Token().Data == "code" {
				matched = true
			}
		default:
			buf.Write(raw)
			return "", "", false
		}
		if matched {
			break
		}
	}

	// Skip whitespace-only text before </pre>, then require the end tag.
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return "", "", false
		}
		raw := z.Raw()
		if tt == html.TextToken && strings.TrimSpace(string(z.Text())) == "" {
			buf.Write(raw)
			continue
		}
		buf.Write(raw)
		if tt == html.EndTagToken && z.Token().Data == "pre" {
			return language, body.String(), true
		}
		return "", "", false
	}
}

// languageFromClassAttr reads a <code> tag's class attribute looking for a
// "language-<lang>" token, falling back to any bare token that parses as a
// known language.
func languageFromClassAttr(tok html.Token) string {
	for _, attr := range tok.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, token := range strings.Fields(attr.Val) {
			if lang, ok := strings.CutPrefix(token, "language-"); ok {
				return lang
			}
			if _, ok := ngldata.ParseLanguage(token); ok {
				return token
			}
		}
	}
	return ""
}

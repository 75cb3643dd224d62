package stitch

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/anthropics/ngl/internal/ngldata"
)

// MarkdownExtractor walks a goldmark-parsed AST looking for fenced code
// blocks, rather than regexing triple-backtick fences directly.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{md: goldmark.New()}
}

type fencedSpan struct {
	start, end int // byte range covering the fence lines and the body
	language   string
	data       string
}

func (m *MarkdownExtractor) Extract(content string, counter *int) (string, []ExtractedExample) {
	source := []byte(content)
	doc := m.md.Parser().Parse(text.NewReader(source))

	var spans []fencedSpan
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		spans = append(spans, fencedCodeSpan(block, source))
		return ast.WalkContinue, nil
	})

	if len(spans) == 0 {
		return content, nil
	}

	var out strings.Builder
	var examples []ExtractedExample
	cursor := 0
	for _, span := range spans {
		if span.start < cursor {
			continue // overlapping/nested fence inside another block's body; skip
		}
		out.Write(source[cursor:span.start])

		key := nextPlaceholder(counter)
		out.WriteString(fmt.Sprintf("{{NGL_EX:%s}}", key))

		ex := ExtractedExample{PlaceholderKey: key, Data: span.data}
		if lang, ok := ngldata.ParseLanguage(span.language); ok {
			ex.Language = &lang
		}
		examples = append(examples, ex)

		cursor = span.end
	}
	out.Write(source[cursor:])

	return out.String(), examples
}

// fencedCodeSpan recovers the full source span of a fenced block, including
// its opening and closing fence lines, from the content-only line segments
// goldmark exposes via Lines().
func fencedCodeSpan(block *ast.FencedCodeBlock, source []byte) fencedSpan {
	lang := ""
	if info := block.Info; info != nil {
		if fields := strings.Fields(string(info.Segment.Value(source))); len(fields) > 0 {
			lang = strings.ToLower(fields[0])
		}
	}

	lines := block.Lines()
	var data strings.Builder
	contentStart, contentEnd := len(source), 0
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		data.Write(seg.Value(source))
		if seg.Start < contentStart {
			contentStart = seg.Start
		}
		if seg.Stop > contentEnd {
			contentEnd = seg.Stop
		}
	}
	if lines.Len() == 0 {
		contentStart, contentEnd = 0, 0
	}

	start := contentStart
	if start > 0 {
		start = lineStartContaining(source, start-1)
	}
	end := contentEnd
	if end < len(source) {
		end = lineEndContaining(source, end)
	}

	return fencedSpan{start: start, end: end, language: lang, data: data.String()}
}

func lineStartContaining(b []byte, pos int) int {
	i := pos
	for i > 0 && b[i-1] != '\n' {
		i--
	}
	return i
}

func lineEndContaining(b []byte, pos int) int {
	i := pos
	for i < len(b) && b[i] != '\n' {
		i++
	}
	if i < len(b) {
		i++
	}
	return i
}

// Package stitch extracts fenced code blocks out of host documentation
// content, replacing each with a unique placeholder token, and restores
// (stitches) or removes (strips) those placeholders on read.
package stitch

import (
	"fmt"

	"github.com/anthropics/ngl/internal/ngldata"
)

// ExtractedExample is one code block pulled out of a host document: the
// placeholder token it was replaced with, its detected language (if any),
// and its raw code.
type ExtractedExample struct {
	PlaceholderKey string
	Language       *ngldata.Language
	Data           string
}

// Extractor is the shared contract both format-specific extractors satisfy.
type Extractor interface {
	// Extract scans content for code blocks, replacing each with
	// {{NGL_EX:ex<n>}} where n starts at *counter and increments per block
	// found (shared across calls so placeholder keys stay unique within
	// one provider's refresh).
	Extract(content string, counter *int) (rewritten string, examples []ExtractedExample)
}

func nextPlaceholder(counter *int) string {
	key := fmt.Sprintf("ex%d", *counter)
	*counter++
	return key
}

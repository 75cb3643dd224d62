package stitch

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches any remaining {{NGL_EX:<key>}} token, used by
// Strip to clean up content that was fetched without examples.
var placeholderPattern = regexp.MustCompile(`\{\{NGL_EX:[^}]+\}\}`)

// Pair is one resolved placeholder substitution: the key a host's content
// references, and the code to substitute in its place.
type Pair struct {
	PlaceholderKey string
	Code           string
}

// Stitch replaces every {{NGL_EX:<key>}} token in content with its matching
// pair's code. Unmatched placeholders are left as-is. Idempotent: stitching
// the same pair set into already-stitched content (which no longer contains
// the tokens) is a no-op.
func Stitch(content string, pairs []Pair) string {
	if len(pairs) == 0 {
		return content
	}
	replacer := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		replacer = append(replacer, fmt.Sprintf("{{NGL_EX:%s}}", p.PlaceholderKey), p.Code)
	}
	return strings.NewReplacer(replacer...).Replace(content)
}

// Strip removes every remaining placeholder token, for hosts fetched with
// include_examples=false.
func Strip(content string) string {
	return placeholderPattern.ReplaceAllString(content, "")
}

package security

import (
	"regexp"
	"strings"
)

var (
	scriptTagPattern  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	htmlTagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	disallowedPattern = regexp.MustCompile(`[^\w\s@.\-]`)
)

// Sanitize strips script elements (tag and body), then any remaining HTML
// tags, then every character outside [word, whitespace, @ . -], and trims.
// Script removal must run before generic tag stripping, otherwise the script
// body would survive as plain text.
func Sanitize(input string) string {
	out := scriptTagPattern.ReplaceAllString(input, "")
	out = htmlTagPattern.ReplaceAllString(out, "")
	out = disallowedPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

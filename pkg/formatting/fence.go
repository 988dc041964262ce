package formatting

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)^```[A-Za-z]*[ \t]*\n(.*?)\n?```$")

// Unfence returns the body of content when the whole of it is a single
// markdown code fence, and content unchanged otherwise. Fences embedded in
// surrounding text are left alone.
func Unfence(content string) string {
	trimmed := strings.TrimSpace(content)

	matches := fencePattern.FindStringSubmatch(trimmed)
	if matches == nil || strings.Contains(matches[1], "```") {
		return content
	}

	return matches[1]
}

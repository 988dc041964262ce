package redline

import (
	"html"
	"strings"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
	`[`, `\[`, `]`, `\]`, `#`, `\#`, `+`, `\+`,
	`-`, `\-`, `.`, `\.`, `!`, `\!`, `|`, `\|`,
	`~`, `\~`, `(`, `\(`, `)`, `\)`, `{`, `\{`, `}`, `\}`,
)

// toMarkdown emits one markdown paragraph per line. Changed spans are wrapped
// in inline styled HTML; a span never crosses a line break. Added and removed
// line breaks show as a pilcrow, and empty lines keep a paragraph of their own.
func toMarkdown(ops []Op) string {
	var b strings.Builder
	lineStart := true

	breakLine := func() {
		if lineStart {
			b.WriteString("&nbsp;")
		}
		b.WriteString("\n\n")
		lineStart = true
	}

	for _, op := range ops {
		for i, segment := range strings.Split(op.Text, "\n") {
			if i > 0 {
				switch op.Kind {
				case Delete:
					b.WriteString(span(deleteStyle, "¶"))
					lineStart = false
				case Insert:
					b.WriteString(span(insertStyle, "¶"))
					lineStart = false
					breakLine()
				default:
					breakLine()
				}
			}
			if segment == "" {
				continue
			}

			text := escape(segment, lineStart)
			lineStart = false

			switch op.Kind {
			case Insert:
				b.WriteString(span(insertStyle, text))
			case Delete:
				b.WriteString(span(deleteStyle, text))
			default:
				b.WriteString(text)
			}
		}
	}

	return b.String()
}

func span(style, text string) string {
	return "<span style='" + style + "'>" + text + "</span>"
}

// escape neutralizes HTML and markdown syntax in document text. Leading
// blanks become non-breaking spaces so indented lines never turn into code
// blocks.
func escape(s string, lineStart bool) string {
	var lead string
	if lineStart {
		trimmed := strings.TrimLeft(s, " \t")
		lead = strings.Repeat("&nbsp;", len(s)-len(trimmed))
		s = trimmed
	}
	return lead + html.EscapeString(markdownEscaper.Replace(s))
}

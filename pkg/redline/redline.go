// Package redline computes word-level differences between two versions of a
// text and renders them as track-changes style markup.
//
// Texts are split into word tokens (a word plus its trailing blanks) and
// newline tokens. Each distinct token is mapped to a single rune so the
// diff-match-patch engine diffs whole words instead of characters. Texts with
// more distinct words than runes fall back to line tokens.
package redline

import (
	"bytes"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Kind classifies a span of a rendering.
type Kind string

const (
	Equal  Kind = "equal"
	Insert Kind = "insert"
	Delete Kind = "delete"
)

const (
	deleteStyle = "color:red;font-weight:700;text-decoration:line-through;"
	insertStyle = "color:green;font-weight:700;"
)

// Op is a contiguous span of tokens sharing the same Kind.
type Op struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Rendering is the difference between a source and an updated text.
type Rendering struct {
	Ops        []Op   `json:"ops"`
	Markdown   string `json:"markdown"`
	HTML       string `json:"html"`
	Insertions int    `json:"insertions"`
	Deletions  int    `json:"deletions"`
}

// Changed reports whether the two texts differ.
func (r Rendering) Changed() bool {
	return r.Insertions > 0 || r.Deletions > 0
}

var tokenPattern = regexp.MustCompile(`\n|[^\s]+[^\S\n]*|[^\S\n]+`)

var markdown = goldmark.New(
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// Render diffs source against updated. It holds no state: identical inputs
// always produce byte-identical output.
func Render(source, updated string) Rendering {
	ops := Diff(source, updated)

	r := Rendering{Ops: ops}
	for _, op := range ops {
		switch op.Kind {
		case Insert:
			r.Insertions++
		case Delete:
			r.Deletions++
		}
	}

	r.Markdown = toMarkdown(ops)

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(r.Markdown), &buf); err != nil {
		r.HTML = "<pre>" + html.EscapeString(updated) + "</pre>"
	} else {
		r.HTML = buf.String()
	}

	return r
}

// Diff returns the ordered word-level operations that turn source into updated.
// When the two texts hold more distinct words than the rune alphabet can
// encode, it diffs whole lines instead, and characters as a last resort.
func Diff(source, updated string) []Op {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	updated = strings.ReplaceAll(updated, "\r\n", "\n")

	if ops, ok := diffTokens(tokenize(source), tokenize(updated)); ok {
		return ops
	}
	if ops, ok := diffTokens(splitLines(source), splitLines(updated)); ok {
		return ops
	}
	return diffChars(source, updated)
}

// maxVocab is the number of distinct tokens tokenRune can encode.
var maxVocab = int(unicode.MaxRune) - 0x800

// diffTokens encodes each distinct token as one rune and diffs the rune
// sequences. It reports false when the vocabulary exceeds maxVocab.
func diffTokens(a, b []string) ([]Op, bool) {
	index := make(map[string]rune)
	var vocab []string
	encode := func(tokens []string) ([]rune, bool) {
		out := make([]rune, len(tokens))
		for i, tok := range tokens {
			r, ok := index[tok]
			if !ok {
				if len(vocab) >= maxVocab {
					return nil, false
				}
				r = tokenRune(len(vocab))
				index[tok] = r
				vocab = append(vocab, tok)
			}
			out[i] = r
		}
		return out, true
	}

	ra, ok := encode(a)
	if !ok {
		return nil, false
	}
	rb, ok := encode(b)
	if !ok {
		return nil, false
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	diffs := dmp.DiffMainRunes(ra, rb, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCleanupMerge(diffs)

	return collect(diffs, func(text string) string {
		var sb strings.Builder
		for _, r := range text {
			sb.WriteString(vocab[runeIndex(r)])
		}
		return sb.String()
	}), true
}

// diffChars diffs the raw characters. It keeps the default diff timeout:
// past it the remaining span is reported as one delete and one insert.
func diffChars(source, updated string) []Op {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(source, updated, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return collect(diffs, func(text string) string { return text })
}

func collect(diffs []diffmatchpatch.Diff, decode func(string) string) []Op {
	ops := make([]Op, 0, len(diffs))
	for _, d := range diffs {
		text := decode(d.Text)
		if text == "" {
			continue
		}

		kind := kindOf(d.Type)
		if n := len(ops); n > 0 && ops[n-1].Kind == kind {
			ops[n-1].Text += text
			continue
		}
		ops = append(ops, Op{Kind: kind, Text: text})
	}
	return ops
}

func tokenize(s string) []string {
	return tokenPattern.FindAllString(s, -1)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// tokenRune maps a vocabulary index to a rune outside the surrogate range so
// diff texts survive the string conversions done by diffmatchpatch.
func tokenRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func runeIndex(r rune) int {
	if r >= 0xE000 {
		r -= 0x800
	}
	return int(r) - 1
}

func kindOf(op diffmatchpatch.Operation) Kind {
	switch op {
	case diffmatchpatch.DiffInsert:
		return Insert
	case diffmatchpatch.DiffDelete:
		return Delete
	default:
		return Equal
	}
}

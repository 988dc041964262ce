package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Read extracts the text of every body paragraph and joins them with a newline,
// preserving document order. Empty paragraphs contribute an empty line.
func Read(r io.ReaderAt, size int64) (string, error) {
	paragraphs, err := paragraphs(r, size)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

// ReadBytes is Read over an in-memory document.
func ReadBytes(data []byte) (string, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Paragraphs returns the text of each body paragraph in document order.
func Paragraphs(data []byte) ([]string, error) {
	return paragraphs(bytes.NewReader(data), int64(len(data)))
}

func paragraphs(r io.ReaderAt, size int64) ([]string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrParse, documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrParse, documentPart, err)
	}
	defer rc.Close()

	return decodeBody(io.LimitReader(rc, maxPartLength))
}

// decodeBody walks document.xml and collects the direct w:p children of w:body.
func decodeBody(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack   []string
		result  []string
		current strings.Builder
		inPara  bool
		inText  bool
		sawBody bool
		skip    int
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := local(t.Name)
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, name)

			switch {
			case name == "body":
				sawBody = true
			case name == "p" && parent == "body":
				inPara = true
				current.Reset()
			case !inPara:
			case name == "txbxContent" || name == "delText":
				skip++
			case skip > 0:
			case name == "t":
				inText = true
			case name == "tab":
				current.WriteByte('\t')
			case name == "br" || name == "cr":
				current.WriteByte('\n')
			}

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unbalanced element %s", ErrParse, t.Name.Local)
			}
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			switch {
			case name == "t":
				inText = false
			case name == "txbxContent" || name == "delText":
				if inPara && skip > 0 {
					skip--
				}
			case name == "p" && inPara && len(stack) > 0 && stack[len(stack)-1] == "body":
				result = append(result, current.String())
				inPara = false
			}

		case xml.CharData:
			if inPara && inText && skip == 0 {
				current.Write(t)
			}
		}
	}

	if !sawBody {
		return nil, fmt.Errorf("%w: missing document body", ErrParse)
	}

	return result, nil
}

// local returns the element's local name when it belongs to the
// WordprocessingML namespace and a prefixed marker otherwise, so foreign
// elements named "p" or "t" never match.
func local(n xml.Name) string {
	if n.Space == wordNS || n.Space == "" {
		return n.Local
	}
	return "ext:" + n.Local
}

// Package docx reads and writes the paragraph content of Office Open XML
// WordprocessingML (.docx) documents.
//
// Only body paragraphs are supported. Tables, headers, footers and embedded
// objects are ignored on read and never produced on write.
package docx

import "errors"

// ContentType is the MIME type of a .docx package.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	wordNS        = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	documentPart  = "word/document.xml"
	maxPartLength = 256 << 20
)

// ErrParse indicates the input is not a well-formed .docx document.
var ErrParse = errors.New("invalid docx document")

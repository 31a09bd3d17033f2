package normalizer

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// docxText returns the body-level paragraphs of a DOCX package joined with
// "\n". Empty paragraphs are kept as empty lines. Paragraphs nested in
// tables or content controls are not part of the body sequence.
func docxText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("missing %s", docxBodyPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	paragraphs, err := bodyParagraphs(rc)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

// bodyParagraphs walks document.xml tracking the element path so run text,
// tabs and breaks are only taken from w:p elements directly under w:body.
// Paragraphs nested inside a body paragraph (text boxes, including both
// branches of mc:AlternateContent) contribute nothing.
func bodyParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
		paraDepth  int
		nestedP    int
		sawBody    bool
	)

	parent := func() string {
		if len(stack) == 0 {
			return ""
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "body":
				sawBody = true
			case name == "p" && parent() == "body":
				inPara = true
				paraDepth = len(stack) + 1
				nestedP = 0
				current.Reset()
			case inPara && name == "p":
				nestedP++
			case inPara && nestedP == 0 && parent() == "r" && name == "tab":
				current.WriteByte('\t')
			case inPara && nestedP == 0 && parent() == "r" && (name == "br" || name == "cr"):
				current.WriteByte('\n')
			}
			stack = append(stack, name)

		case xml.EndElement:
			if inPara && t.Name.Local == "p" {
				if len(stack) == paraDepth {
					paragraphs = append(paragraphs, current.String())
					inPara = false
				} else if nestedP > 0 {
					nestedP--
				}
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if inPara && nestedP == 0 && parent() == "t" && len(stack) >= 2 && stack[len(stack)-2] == "r" {
				current.Write(t)
			}
		}
	}

	if !sawBody {
		return nil, errors.New("document has no body")
	}
	return paragraphs, nil
}

// Package normalizer turns uploaded syllabus documents into plain UTF-8 text.
//
// Dispatch is by declared file extension only; the bytes are never sniffed.
package normalizer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat is returned for extensions outside the allow-list.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrCorruptDocument is returned when a parser cannot produce text.
	ErrCorruptDocument = errors.New("corrupt document")
)

// RawDocument is an uploaded file as received. It is not retained after
// Normalize returns.
type RawDocument struct {
	Bytes     []byte
	Extension string // "pdf", ".PDF", "docx", ...
}

type extractFunc func(content []byte) (string, error)

var extractors = map[string]extractFunc{
	"pdf":  pdfText,
	"docx": docxText,
	"txt":  plainText,
}

// Normalize extracts the text of raw according to its extension.
func Normalize(raw RawDocument) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw.Extension), "."))
	extract, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	text, err := extract(raw.Bytes)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCorruptDocument, ext, err)
	}
	return text, nil
}

// ExtensionOf returns the lower-cased suffix after the last dot of filename,
// or "" when there is none.
func ExtensionOf(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// Allowed reports whether filename carries a supported extension.
func Allowed(filename string) bool {
	_, ok := extractors[ExtensionOf(filename)]
	return ok
}

// SupportedExtensions lists the allow-list in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func plainText(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", errors.New("text is not valid UTF-8")
	}
	return string(content), nil
}

// Package extract turns uploaded bytes into plain text for analysis.
//
// Only UTF-8 text formats are handled here. Rich formats (PDF, Office, OCR)
// are expected to be extracted upstream and submitted as text, or plugged
// in through Register.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// ErrUnsupported is returned for file types without a registered extractor.
var ErrUnsupported = errors.New("unsupported file type")

// ErrBinary is returned when a plain text file contains NUL bytes.
var ErrBinary = errors.New("content is not text")

// Func extracts text from the raw bytes of one file.
type Func func(data []byte) (string, error)

// Extractor dispatches on the lowercased file extension.
type Extractor struct {
	mu    sync.RWMutex
	byExt map[string]Func
}

// New returns an Extractor with the built-in plain text formats registered.
func New() *Extractor {
	e := &Extractor{byExt: map[string]Func{}}
	for _, ext := range []string{".txt", ".text", ".md", ".csv", ".log", ".json", ".xml", ".yaml", ".yml"} {
		e.byExt[ext] = PlainText
	}
	return e
}

// Register adds or replaces the extractor for ext (for example ".pdf").
func (e *Extractor) Register(ext string, fn Func) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byExt[strings.ToLower(ext)] = fn
}

// Supports reports whether filename has a registered extractor.
func (e *Extractor) Supports(filename string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.byExt[Ext(filename)]
	return ok
}

// Extract returns the text of filename. Every failure is an *domain.ExtractionError.
func (e *Extractor) Extract(filename string, data []byte) (string, error) {
	e.mu.RLock()
	fn, ok := e.byExt[Ext(filename)]
	e.mu.RUnlock()
	if !ok {
		return "", &domain.ExtractionError{Filename: filename, Err: fmt.Errorf("%w %q", ErrUnsupported, Ext(filename))}
	}
	text, err := fn(data)
	if err != nil {
		return "", &domain.ExtractionError{Filename: filename, Err: err}
	}
	return text, nil
}

// PlainText decodes UTF-8 bytes, dropping invalid sequences and a leading BOM.
func PlainText(data []byte) (string, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return "", ErrBinary
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return strings.ToValidUTF8(string(data), ""), nil
}

// Ext returns the lowercased extension of filename including the dot.
func Ext(filename string) string {
	return strings.ToLower(path.Ext(strings.ReplaceAll(filename, `\`, "/")))
}

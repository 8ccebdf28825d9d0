// Package fingerprint derives the canonical content digest that identifies a document.
//
// Only extractable text takes part in the digest. PDF documents are reduced to
// the plain text of their pages; anything else must be UTF-8 text, which is
// normalized (BOM removed, line endings folded to LF). File names, timestamps
// and container metadata never reach the hash, so the same logical content
// yields the same fingerprint however it was packaged.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Size is the length of a fingerprint in bytes.
const Size = sha256.Size

// ErrExtraction is returned when no canonical content can be derived from a document.
// Callers must reject the request instead of fingerprinting empty content.
var ErrExtraction = errors.New("content extraction failed")

var pdfMagic = []byte("%PDF-")

// Fingerprint is the SHA-256 digest of a document's canonical content.
type Fingerprint [Size]byte

// String returns the lowercase hex form, which is also the message that gets signed.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// IsZero reports whether f is the zero value.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// Parse decodes a 64 character hex fingerprint.
func Parse(s string) (Fingerprint, error) {
	var f Fingerprint
	if len(s) != hex.EncodedLen(Size) {
		return f, fmt.Errorf("invalid fingerprint length %d", len(s))
	}
	if _, err := hex.Decode(f[:], []byte(s)); err != nil {
		return f, fmt.Errorf("invalid fingerprint: %w", err)
	}
	return f, nil
}

// Fingerprinter computes fingerprints. The zero value is ready to use and safe for concurrent use.
type Fingerprinter struct{}

// New returns a Fingerprinter.
func New() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint extracts the canonical content of a document and hashes it.
func (fp *Fingerprinter) Fingerprint(content []byte) (Fingerprint, error) {
	canonical, err := Canonicalize(content)
	if err != nil {
		return Fingerprint{}, err
	}
	return sha256.Sum256(canonical), nil
}

// Canonicalize returns the byte form that Fingerprint hashes.
func Canonicalize(content []byte) ([]byte, error) {
	var (
		text []byte
		err  error
	)
	if bytes.HasPrefix(content, pdfMagic) {
		text, err = pdfText(content)
	} else {
		text, err = plainText(content)
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, fmt.Errorf("%w: document has no text content", ErrExtraction)
	}
	return text, nil
}

func plainText(content []byte) ([]byte, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is neither PDF nor UTF-8 text", ErrExtraction)
	}
	text := bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	text = bytes.ReplaceAll(text, []byte("\r\n"), []byte("\n"))
	text = bytes.ReplaceAll(text, []byte("\r"), []byte("\n"))
	return text, nil
}

// pdfText concatenates the plain text of every page. The parser panics on some
// malformed inputs, so panics are turned into extraction errors.
func pdfText(content []byte) (text []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = nil
			err = fmt.Errorf("%w: malformed pdf: %v", ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrExtraction, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf text: %v", ErrExtraction, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return nil, fmt.Errorf("%w: read pdf text: %v", ErrExtraction, err)
	}
	return buf.Bytes(), nil
}

// Package proof builds the compact proof token handed out with every signature
// and renders it (or a verification link) as a QR code.
package proof

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/multiformats/go-multibase"
	qrcode "github.com/skip2/go-qrcode"

	"esign/internal/model"
)

// ErrInvalidToken is returned when a token string cannot be decoded.
var ErrInvalidToken = errors.New("invalid proof token")

// DefaultQRSize is the PNG edge length used when none is configured.
const DefaultQRSize = 256

// Token ties a ledger identifier to the fingerprint and signature it was issued for.
type Token struct {
	ID          int64  `json:"id"`
	Fingerprint string `json:"fp"`
	Signature   string `json:"sig"`
}

// FromRecord returns the token for a stored record.
func FromRecord(rec *model.SignatureRecord) Token {
	return Token{
		ID:          rec.ID,
		Fingerprint: rec.Fingerprint,
		Signature:   rec.Signature,
	}
}

// Encode serializes t as multibase base64url JSON.
func (t Token) Encode() (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal proof token: %w", err)
	}
	return multibase.Encode(multibase.Base64url, raw)
}

// Decode parses a string produced by Token.Encode.
func Decode(s string) (Token, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Token{}, fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	enc, raw, err := multibase.Decode(s)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if enc != multibase.Base64url {
		return Token{}, fmt.Errorf("%w: unexpected multibase encoding %q", ErrInvalidToken, rune(enc))
	}

	var t Token
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if t.ID <= 0 || t.Fingerprint == "" || t.Signature == "" {
		return Token{}, fmt.Errorf("%w: missing fields", ErrInvalidToken)
	}
	return t, nil
}

// VerifyURL returns the landing URL that verifies record id, e.g.
// https://sign.example.com/verify?doc_id=42. An empty base yields a relative URL.
func VerifyURL(base string, id int64) string {
	q := url.Values{}
	q.Set("doc_id", strconv.FormatInt(id, 10))
	return strings.TrimRight(base, "/") + "/verify?" + q.Encode()
}

// QRCode renders content as a PNG of size x size pixels.
func QRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}

package proof

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/multiformats/go-multibase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esign/internal/model"
)

func TestToken_EncodeDecode(t *testing.T) {
	rec := &model.SignatureRecord{
		ID:          7,
		Fingerprint: "0f3c",
		Signature:   "MEUCIQ==",
	}
	tok := FromRecord(rec)

	s, err := tok.Encode()
	require.NoError(t, err)
	assert.Equal(t, byte('u'), s[0])

	got, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, tok, got)
}

func TestDecode_Invalid(t *testing.T) {
	b64 := func(s string) string {
		return "u" + base64.RawURLEncoding.EncodeToString([]byte(s))
	}
	hexEnc, err := multibase.Encode(multibase.Base16, []byte(`{"id":1,"fp":"a","sig":"b"}`))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"no multibase prefix", "!!!!"},
		{"wrong encoding", hexEnc},
		{"not json", b64("hello")},
		{"missing id", b64(`{"fp":"a","sig":"b"}`)},
		{"missing signature", b64(`{"id":1,"fp":"a"}`)},
		{"unknown field", b64(`{"id":1,"fp":"a","sig":"b","x":1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyURL(t *testing.T) {
	assert.Equal(t, "https://sign.example.com/verify?doc_id=42", VerifyURL("https://sign.example.com/", 42))
	assert.Equal(t, "/verify?doc_id=1", VerifyURL("", 1))
}

func TestQRCode(t *testing.T) {
	png, err := QRCode(VerifyURL("http://localhost:8080", 3), 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
}

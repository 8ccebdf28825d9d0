package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esign/internal/config"
	"esign/internal/fingerprint"
	"esign/internal/proof"
	"esign/internal/signer"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// issueToken signs content with the keys in dir and returns the proof token.
func issueToken(t *testing.T, dir string, id int64, content string) string {
	t.Helper()
	kp, err := signer.Load(config.KeysConfig{
		PrivateKeyPath: filepath.Join(dir, "private.pem"),
		PublicKeyPath:  filepath.Join(dir, "public.pem"),
	})
	require.NoError(t, err)

	fp, err := fingerprint.New().Fingerprint([]byte(content))
	require.NoError(t, err)
	sig, err := kp.Sign(fp)
	require.NoError(t, err)

	tok, err := proof.Token{ID: id, Fingerprint: fp.String(), Signature: signer.EncodeSignature(sig)}.Encode()
	require.NoError(t, err)
	return tok
}

func TestKeygen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")

	out, err := execute(t, "keygen", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "private.pem")

	info, err := os.Stat(filepath.Join(dir, "private.pem"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	kp, err := signer.Load(config.KeysConfig{
		PrivateKeyPath: filepath.Join(dir, "private.pem"),
		PublicKeyPath:  filepath.Join(dir, "public.pem"),
	})
	require.NoError(t, err)
	assert.True(t, kp.CanSign())

	_, err = execute(t, "keygen", "--out", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "keygen", "--out", dir, "--force")
	require.NoError(t, err)
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	crlf := writeFile(t, dir, "crlf.txt", "line one\r\nline two\r\n")
	lf := writeFile(t, dir, "lf.txt", "line one\nline two\n")

	a, err := execute(t, "fingerprint", crlf)
	require.NoError(t, err)
	b, err := execute(t, "fingerprint", lf)
	require.NoError(t, err)

	assert.Len(t, strings.TrimSpace(a), 64)
	assert.Equal(t, a, b)

	_, err = execute(t, "fingerprint", writeFile(t, dir, "blank.txt", "  \n"))
	assert.ErrorIs(t, err, fingerprint.ErrExtraction)
}

func TestTokenDecode(t *testing.T) {
	tok, err := proof.Token{ID: 42, Fingerprint: "ab", Signature: "c2ln"}.Encode()
	require.NoError(t, err)

	out, err := execute(t, "token", "decode", tok)
	require.NoError(t, err)
	assert.Contains(t, out, `"id": 42`)
	assert.Contains(t, out, `"sig": "c2ln"`)

	_, err = execute(t, "token", "decode", "not-a-token")
	assert.ErrorIs(t, err, proof.ErrInvalidToken)
}

func TestTokenVerify(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "keygen", "--out", dir)
	require.NoError(t, err)
	pub := filepath.Join(dir, "public.pem")

	tok := issueToken(t, dir, 7, "the agreement\n")

	t.Run("signature only", func(t *testing.T) {
		out, err := execute(t, "token", "verify", tok, "--pub", pub)
		require.NoError(t, err)
		assert.Equal(t, "OK record 7\n", out)
	})

	t.Run("matching document", func(t *testing.T) {
		doc := writeFile(t, t.TempDir(), "doc.txt", "the agreement\r\n")
		_, err := execute(t, "token", "verify", tok, "--pub", pub, "--file", doc)
		require.NoError(t, err)
	})

	t.Run("altered document", func(t *testing.T) {
		doc := writeFile(t, t.TempDir(), "doc.txt", "the agreement, amended")
		_, err := execute(t, "token", "verify", tok, "--pub", pub, "--file", doc)
		assert.ErrorIs(t, err, errFingerprintMismatch)
	})

	t.Run("other key", func(t *testing.T) {
		other := t.TempDir()
		_, err := execute(t, "keygen", "--out", other)
		require.NoError(t, err)

		_, err = execute(t, "token", "verify", tok, "--pub", filepath.Join(other, "public.pem"))
		assert.ErrorIs(t, err, errSignatureInvalid)
	})
}

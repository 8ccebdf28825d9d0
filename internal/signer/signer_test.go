package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esign/internal/config"
	"esign/internal/fingerprint"
)

func mustFingerprint(t *testing.T, s string) fingerprint.Fingerprint {
	t.Helper()
	f, err := fingerprint.New().Fingerprint([]byte(s))
	require.NoError(t, err)
	return f
}

func TestKeyPair_RoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	for _, content := range []string{"Contract A", "Contract B", "a", "Ünïcödé"} {
		f := mustFingerprint(t, content)
		sig, err := kp.Sign(f)
		require.NoError(t, err)
		assert.True(t, kp.Verify(f, sig), content)
		assert.True(t, kp.VerifyEncoded(f, EncodeSignature(sig)), content)
	}
}

func TestKeyPair_TamperDetection(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	f1 := mustFingerprint(t, "Contract A")
	f2 := mustFingerprint(t, "Contract A.")
	sig, err := kp.Sign(f2)
	require.NoError(t, err)

	assert.False(t, kp.Verify(f1, sig))

	flipped := append([]byte(nil), sig...)
	flipped[len(flipped)-1] ^= 0x01
	assert.False(t, kp.Verify(f2, flipped))
}

func TestKeyPair_MalformedSignature(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	f := mustFingerprint(t, "Contract A")

	assert.False(t, kp.Verify(f, nil))
	assert.False(t, kp.Verify(f, []byte{}))
	assert.False(t, kp.VerifyEncoded(f, "%%% not base64 %%%"))
	assert.False(t, kp.VerifyEncoded(f, ""))

	for i := 0; i < 200; i++ {
		junk := make([]byte, 1+i%96)
		_, err := rand.Read(junk)
		require.NoError(t, err)
		assert.NotPanics(t, func() {
			assert.False(t, kp.Verify(f, junk))
		})
	}

	var nilPair *KeyPair
	assert.False(t, nilPair.Verify(f, []byte{1, 2, 3}))
}

func TestKeyPair_KeyMismatch(t *testing.T) {
	signing, err := GenerateKeyPair()
	require.NoError(t, err)
	other, err := GenerateKeyPair()
	require.NoError(t, err)

	wrongVerifier, err := NewVerifyOnly(other.PublicKey())
	require.NoError(t, err)

	for _, content := range []string{"Contract A", "Contract B", "Contract C"} {
		f := mustFingerprint(t, content)
		sig, err := signing.Sign(f)
		require.NoError(t, err)
		assert.True(t, signing.Verify(f, sig))
		assert.False(t, wrongVerifier.Verify(f, sig), content)
	}

	_, err = NewKeyPair(signing.private, other.PublicKey())
	assert.ErrorIs(t, err, ErrKeyMismatch)
}

func TestKeyPair_VerifyOnly(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	vo, err := NewVerifyOnly(kp.PublicKey())
	require.NoError(t, err)

	f := mustFingerprint(t, "Contract A")
	_, err = vo.Sign(f)
	assert.ErrorIs(t, err, ErrKeyUnavailable)
	assert.False(t, vo.CanSign())

	sig, err := kp.Sign(f)
	require.NoError(t, err)
	assert.True(t, vo.Verify(f, sig))

	_, err = NewVerifyOnly(nil)
	assert.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestNewKeyPair_RejectsOtherCurves(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	_, err = NewKeyPair(priv, nil)
	assert.ErrorIs(t, err, ErrKeyUnavailable)

	_, err = NewKeyPair(nil, nil)
	assert.ErrorIs(t, err, ErrKeyUnavailable)
}

func TestPEM_RoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	privPEM, err := kp.MarshalPrivatePEM()
	require.NoError(t, err)
	pubPEM, err := kp.MarshalPublicPEM()
	require.NoError(t, err)

	priv, err := ParsePrivateKeyPEM(privPEM)
	require.NoError(t, err)
	pub, err := ParsePublicKeyPEM(pubPEM)
	require.NoError(t, err)

	loaded, err := NewKeyPair(priv, pub)
	require.NoError(t, err)

	f := mustFingerprint(t, "Contract A")
	sig, err := loaded.Sign(f)
	require.NoError(t, err)
	assert.True(t, kp.Verify(f, sig))
}

func TestParsePrivateKeyPEM_PKCS8(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)

	got, err := ParsePrivateKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	require.NoError(t, err)
	assert.True(t, priv.Equal(got))
}

func TestParsePEM_Errors(t *testing.T) {
	_, err := ParsePrivateKeyPEM([]byte("not pem"))
	assert.ErrorIs(t, err, ErrKeyUnavailable)

	_, err = ParsePrivateKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1}}))
	assert.ErrorIs(t, err, ErrKeyUnavailable)

	_, err = ParsePublicKeyPEM(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte{1, 2}}))
	assert.ErrorIs(t, err, ErrKeyUnavailable)
}

func writeKeys(t *testing.T, kp *KeyPair, withPrivate, withPublic bool) config.KeysConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.KeysConfig{
		PrivateKeyPath: filepath.Join(dir, "private.pem"),
		PublicKeyPath:  filepath.Join(dir, "public.pem"),
	}
	if withPrivate {
		b, err := kp.MarshalPrivatePEM()
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(cfg.PrivateKeyPath, b, 0o600))
	}
	if withPublic {
		b, err := kp.MarshalPublicPEM()
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(cfg.PublicKeyPath, b, 0o644))
	}
	return cfg
}

func TestLoad(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	t.Run("both keys", func(t *testing.T) {
		loaded, err := Load(writeKeys(t, kp, true, true))
		require.NoError(t, err)
		assert.True(t, loaded.CanSign())
	})

	t.Run("public only is verify-only", func(t *testing.T) {
		loaded, err := Load(writeKeys(t, kp, false, true))
		require.NoError(t, err)
		assert.False(t, loaded.CanSign())
	})

	t.Run("private only derives public", func(t *testing.T) {
		loaded, err := Load(writeKeys(t, kp, true, false))
		require.NoError(t, err)
		assert.True(t, loaded.CanSign())
		assert.True(t, kp.PublicKey().Equal(loaded.PublicKey()))
	})

	t.Run("no keys", func(t *testing.T) {
		_, err := Load(writeKeys(t, kp, false, false))
		assert.ErrorIs(t, err, ErrKeyUnavailable)
	})

	t.Run("mismatched files", func(t *testing.T) {
		other, err := GenerateKeyPair()
		require.NoError(t, err)
		cfg := writeKeys(t, kp, true, false)
		b, err := other.MarshalPublicPEM()
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(cfg.PublicKeyPath, b, 0o644))

		_, err = Load(cfg)
		assert.ErrorIs(t, err, ErrKeyMismatch)
	})

	t.Run("corrupt private key", func(t *testing.T) {
		cfg := writeKeys(t, kp, false, true)
		require.NoError(t, os.WriteFile(cfg.PrivateKeyPath, []byte("garbage"), 0o600))
		_, err := Load(cfg)
		assert.ErrorIs(t, err, ErrKeyUnavailable)
	})
}

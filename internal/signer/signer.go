// Package signer wraps the ECDSA P-256 key pair that signs and verifies fingerprints.
//
// A KeyPair is built once at startup and never changes afterwards; it can be
// shared between goroutines without locking. The message that gets signed is
// the lowercase hex form of the fingerprint, hashed with SHA-256.
package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"esign/internal/fingerprint"
)

var (
	// ErrKeyUnavailable is returned when key material is missing, unreadable or on the wrong curve.
	ErrKeyUnavailable = errors.New("signing key unavailable")
	// ErrKeyMismatch is returned when the public key is not the one paired to the private key.
	ErrKeyMismatch = errors.New("public key does not match private key")
)

// CurveName is the only curve keys are accepted on.
const CurveName = "P-256"

// KeyPair holds the signing key and its verification key.
// A pair without a private key is verify-only.
type KeyPair struct {
	private *ecdsa.PrivateKey
	public  *ecdsa.PublicKey
}

// NewKeyPair validates and pairs the given keys. When pub is nil it is derived from priv.
func NewKeyPair(priv *ecdsa.PrivateKey, pub *ecdsa.PublicKey) (*KeyPair, error) {
	if priv == nil && pub == nil {
		return nil, fmt.Errorf("%w: no key material", ErrKeyUnavailable)
	}
	if pub == nil {
		pub = &priv.PublicKey
	}
	if err := checkCurve(pub); err != nil {
		return nil, err
	}
	if priv != nil {
		if err := checkCurve(&priv.PublicKey); err != nil {
			return nil, err
		}
		if !priv.PublicKey.Equal(pub) {
			return nil, ErrKeyMismatch
		}
	}
	return &KeyPair{private: priv, public: pub}, nil
}

// NewVerifyOnly returns a KeyPair that can only verify.
func NewVerifyOnly(pub *ecdsa.PublicKey) (*KeyPair, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: no public key", ErrKeyUnavailable)
	}
	return NewKeyPair(nil, pub)
}

// GenerateKeyPair creates a fresh P-256 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &KeyPair{private: priv, public: &priv.PublicKey}, nil
}

// CanSign reports whether a private key is loaded.
func (k *KeyPair) CanSign() bool {
	return k != nil && k.private != nil
}

// PublicKey returns the verification key.
func (k *KeyPair) PublicKey() *ecdsa.PublicKey {
	return k.public
}

// Sign produces an ASN.1 DER ECDSA signature over the fingerprint.
func (k *KeyPair) Sign(fp fingerprint.Fingerprint) ([]byte, error) {
	if !k.CanSign() {
		return nil, ErrKeyUnavailable
	}
	digest := messageDigest(fp)
	sig, err := ecdsa.SignASN1(rand.Reader, k.private, digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign fingerprint: %w", err)
	}
	return sig, nil
}

// Verify reports whether sig is a valid signature by this key pair over fp.
// Malformed input is simply invalid; Verify never panics.
func (k *KeyPair) Verify(fp fingerprint.Fingerprint, sig []byte) (ok bool) {
	if k == nil || k.public == nil || len(sig) == 0 {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	digest := messageDigest(fp)
	return ecdsa.VerifyASN1(k.public, digest[:], sig)
}

// VerifyEncoded is Verify for a base64 encoded signature.
func (k *KeyPair) VerifyEncoded(fp fingerprint.Fingerprint, sig string) bool {
	raw, err := DecodeSignature(sig)
	if err != nil {
		return false
	}
	return k.Verify(fp, raw)
}

// EncodeSignature renders signature bytes the way the ledger stores them.
func EncodeSignature(sig []byte) string {
	return base64.StdEncoding.EncodeToString(sig)
}

// DecodeSignature parses a stored signature.
func DecodeSignature(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func messageDigest(fp fingerprint.Fingerprint) [sha256.Size]byte {
	return sha256.Sum256([]byte(fp.String()))
}

func checkCurve(pub *ecdsa.PublicKey) error {
	if pub.Curve == nil || pub.Curve.Params().Name != CurveName {
		return fmt.Errorf("%w: key is not on curve %s", ErrKeyUnavailable, CurveName)
	}
	return nil
}

package signer

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"esign/internal/config"
)

const (
	pemTypeECPrivate    = "EC PRIVATE KEY"
	pemTypePKCS8Private = "PRIVATE KEY"
	pemTypePublic       = "PUBLIC KEY"
)

// ParsePrivateKeyPEM accepts SEC 1 ("EC PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") blocks.
func ParsePrivateKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyUnavailable)
	}
	switch block.Type {
	case pemTypeECPrivate:
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
		}
		return key, nil
	case pemTypePKCS8Private:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
		}
		ec, ok := key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private key is %T, want ECDSA", ErrKeyUnavailable, key)
		}
		return ec, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrKeyUnavailable, block.Type)
	}
}

// ParsePublicKeyPEM accepts a PKIX "PUBLIC KEY" block holding an ECDSA key.
func ParsePublicKeyPEM(data []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyUnavailable)
	}
	if block.Type != pemTypePublic {
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrKeyUnavailable, block.Type)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}
	ec, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, want ECDSA", ErrKeyUnavailable, key)
	}
	return ec, nil
}

// MarshalPrivatePEM encodes the private key as a SEC 1 PEM block.
func (k *KeyPair) MarshalPrivatePEM() ([]byte, error) {
	if !k.CanSign() {
		return nil, ErrKeyUnavailable
	}
	der, err := x509.MarshalECPrivateKey(k.private)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypeECPrivate, Bytes: der}), nil
}

// MarshalPublicPEM encodes the public key as a PKIX PEM block.
func (k *KeyPair) MarshalPublicPEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(k.public)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublic, Bytes: der}), nil
}

// Load reads the key files named by cfg.
//
// A missing private key yields a verify-only pair. A missing public key is
// derived from the private key. Both missing, unreadable files, or a
// mismatched pair are errors.
func Load(cfg config.KeysConfig) (*KeyPair, error) {
	priv, err := readOptional(cfg.PrivateKeyPath, ParsePrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	pub, err := readOptional(cfg.PublicKeyPath, ParsePublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("load public key: %w", err)
	}
	return NewKeyPair(priv, pub)
}

func readOptional[T any](path string, parse func([]byte) (*T, error)) (*T, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrKeyUnavailable, err)
	}
	return parse(data)
}

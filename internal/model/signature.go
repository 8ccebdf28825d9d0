package model

import "time"

// Status is the lifecycle state of a signature record.
type Status string

const (
	StatusValid Status = "Valid"
	// StatusRevoked and StatusSuperseded are reserved; nothing in this codebase writes them.
	StatusRevoked    Status = "Revoked"
	StatusSuperseded Status = "Superseded"
)

// SignatureRecord is one entry of the append-only signing ledger.
// ID is assigned by the ledger on insert and is the only stable external reference.
// Fingerprint is the lowercase hex SHA-256 of the document's canonical content and
// Signature is the standard base64 encoding of the ASN.1 ECDSA signature over it.
type SignatureRecord struct {
	ID          int64     `json:"id"`
	Claimant    string    `json:"claimant"`
	Filename    string    `json:"filename"`
	Fingerprint string    `json:"fingerprint"`
	Signature   string    `json:"signature"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

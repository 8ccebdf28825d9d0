// Package reconcile decides whether a presented document, identifier or proof
// token matches a signature recorded in the ledger.
//
// Every call resolves to exactly one Outcome:
//
//	Start -> by identifier | by token | by recompute -> Confirmed | Rejected | NotFound
//
// A token takes precedence over an identifier, and an identifier over a bare
// document. No state survives between calls.
package reconcile

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"esign/internal/fingerprint"
	"esign/internal/model"
	"esign/internal/proof"
	"esign/internal/repository"
	"esign/internal/signer"
)

// ErrEmptyClaim is returned when a claim carries no identifier, content or token.
var ErrEmptyClaim = errors.New("claim needs an id, a document or a proof token")

type Outcome string

const (
	Confirmed Outcome = "CONFIRMED"
	Rejected  Outcome = "REJECTED"
	NotFound  Outcome = "NOT_FOUND"
)

// Code is the machine-readable reason attached to an outcome.
type Code string

const (
	CodeOK                  Code = "OK"
	CodeNotFound            Code = "NOT_FOUND"
	CodeSignatureInvalid    Code = "SIGNATURE_INVALID"
	CodeStatusNotValid      Code = "STATUS_NOT_VALID"
	CodeIDMismatch          Code = "ID_MISMATCH"
	CodeTokenInvalid        Code = "TOKEN_INVALID"
	CodeTokenMismatch       Code = "TOKEN_MISMATCH"
	CodeExtractionFailed    Code = "EXTRACTION_FAILED"
	CodeFingerprintMismatch Code = "FINGERPRINT_MISMATCH"
	CodeStorageError        Code = "STORAGE_ERROR"
)

// Fingerprinter derives the canonical fingerprint of a document.
type Fingerprinter interface {
	Fingerprint(content []byte) (fingerprint.Fingerprint, error)
}

// Verifier checks a raw signature over a fingerprint.
type Verifier interface {
	Verify(fp fingerprint.Fingerprint, sig []byte) bool
}

// Claim is what a verifier presents. At least one of ID, Content or Token must be set.
type Claim struct {
	ID       *int64
	Content  []byte
	Filename string
	Token    string
}

func (c Claim) empty() bool {
	return c.ID == nil && len(c.Content) == 0 && strings.TrimSpace(c.Token) == ""
}

// Result is the outcome of one reconciliation. Record details are only set when Confirmed.
type Result struct {
	Outcome  Outcome    `json:"outcome"`
	Code     Code       `json:"code"`
	RecordID int64      `json:"record_id,omitempty"`
	Claimant string     `json:"claimant,omitempty"`
	Filename string     `json:"filename,omitempty"`
	SignedAt *time.Time `json:"signed_at,omitempty"`

	err error
}

// Err returns the storage or decoding error behind a Rejected result, if any.
func (r *Result) Err() error {
	return r.err
}

func rejected(code Code, err error) *Result {
	return &Result{Outcome: Rejected, Code: code, err: err}
}

func notFound() *Result {
	return &Result{Outcome: NotFound, Code: CodeNotFound}
}

func confirmed(rec *model.SignatureRecord) *Result {
	signedAt := rec.CreatedAt
	return &Result{
		Outcome:  Confirmed,
		Code:     CodeOK,
		RecordID: rec.ID,
		Claimant: rec.Claimant,
		Filename: rec.Filename,
		SignedAt: &signedAt,
	}
}

// Reconciler runs claims against the ledger.
type Reconciler struct {
	ledger   repository.SignatureRepository
	fp       Fingerprinter
	verifier Verifier
}

func New(ledger repository.SignatureRepository, fp Fingerprinter, verifier Verifier) *Reconciler {
	return &Reconciler{ledger: ledger, fp: fp, verifier: verifier}
}

// Reconcile resolves c to an outcome. The only error is ErrEmptyClaim (or a
// cancelled context); every other failure is reported as a Rejected result.
func (r *Reconciler) Reconcile(ctx context.Context, c Claim) (*Result, error) {
	if c.empty() {
		return nil, ErrEmptyClaim
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.TrimSpace(c.Token) != "":
		return r.byToken(ctx, c), nil
	case c.ID != nil:
		return r.byIdentifier(ctx, *c.ID, c.Content), nil
	default:
		return r.byRecompute(ctx, c.Content, CanonicalFilename(c.Filename)), nil
	}
}

func (r *Reconciler) byIdentifier(ctx context.Context, id int64, content []byte) *Result {
	rec, res := r.load(ctx, id)
	if res != nil {
		return res
	}
	if len(content) > 0 {
		fp, err := r.fp.Fingerprint(content)
		if err != nil {
			return rejected(CodeExtractionFailed, err)
		}
		if fp.String() != rec.Fingerprint {
			return rejected(CodeIDMismatch, nil)
		}
	}
	return r.check(rec)
}

func (r *Reconciler) byToken(ctx context.Context, c Claim) *Result {
	tok, err := proof.Decode(c.Token)
	if err != nil {
		return rejected(CodeTokenInvalid, err)
	}
	if !r.verifyEncoded(tok.Fingerprint, tok.Signature) {
		return rejected(CodeSignatureInvalid, nil)
	}

	rec, res := r.load(ctx, tok.ID)
	if res != nil {
		return res
	}
	if rec.Fingerprint != tok.Fingerprint || rec.Signature != tok.Signature {
		return rejected(CodeTokenMismatch, nil)
	}
	return r.byIdentifier(ctx, tok.ID, c.Content)
}

// byRecompute matches on content. The filename first narrows the search to the
// copy issued under that name, then only decides between NotFound and
// FINGERPRINT_MISMATCH when no record carries the fingerprint at all.
func (r *Reconciler) byRecompute(ctx context.Context, content []byte, filename string) *Result {
	fp, err := r.fp.Fingerprint(content)
	if err != nil {
		return rejected(CodeExtractionFailed, err)
	}

	queries := []repository.RecordQuery{{Fingerprint: fp.String()}}
	if filename != "" {
		queries = append([]repository.RecordQuery{{Fingerprint: fp.String(), Filename: filename}}, queries...)
	}
	for _, q := range queries {
		rec, err := r.ledger.FindLatest(ctx, q)
		switch {
		case err == nil:
			return r.check(rec)
		case !errors.Is(err, repository.ErrNotFound):
			return rejected(CodeStorageError, err)
		}
	}

	if filename == "" {
		return notFound()
	}
	_, err = r.ledger.FindLatest(ctx, repository.RecordQuery{Filename: filename})
	switch {
	case err == nil:
		return rejected(CodeFingerprintMismatch, nil)
	case errors.Is(err, repository.ErrNotFound):
		return notFound()
	default:
		return rejected(CodeStorageError, err)
	}
}

func (r *Reconciler) load(ctx context.Context, id int64) (*model.SignatureRecord, *Result) {
	rec, err := r.ledger.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, rejected(CodeStorageError, err)
	}
	return rec, nil
}

// check re-verifies the stored signature and the record status.
func (r *Reconciler) check(rec *model.SignatureRecord) *Result {
	if !r.verifyEncoded(rec.Fingerprint, rec.Signature) {
		return rejected(CodeSignatureInvalid, nil)
	}
	if rec.Status != model.StatusValid {
		return rejected(CodeStatusNotValid, nil)
	}
	return confirmed(rec)
}

func (r *Reconciler) verifyEncoded(fpHex, sigB64 string) bool {
	fp, err := fingerprint.Parse(fpHex)
	if err != nil {
		return false
	}
	sig, err := signer.DecodeSignature(sigB64)
	if err != nil {
		return false
	}
	return r.verifier.Verify(fp, sig)
}

// CanonicalFilename reduces an uploaded name to the form stored in the ledger:
// directory components and the "signed_" prefix of issued copies are removed.
func CanonicalFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimPrefix(name, "signed_")
}

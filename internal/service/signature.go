package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"esign/internal/fingerprint"
	"esign/internal/logging"
	"esign/internal/model"
	"esign/internal/proof"
	"esign/internal/reconcile"
	"esign/internal/repository"
	"esign/internal/signer"
	"esign/internal/storage"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrStorage         = errors.New("storage failure")
	ErrArchiveDisabled = errors.New("document archive is not configured")
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	defaultFilename  = "document"
)

// SignRequest is a document submitted for signing.
type SignRequest struct {
	Content     []byte
	Claimant    string
	Filename    string
	ContentType string
}

// SignResult is returned after a document has been signed and recorded.
type SignResult struct {
	Record      *model.SignatureRecord `json:"record"`
	Fingerprint string                 `json:"fingerprint"`
	Signature   string                 `json:"signature"`
	Token       string                 `json:"token"`
}

// VerifyRequest is a verification claim. At least one of ID, Content or Token must be set.
type VerifyRequest struct {
	ID       *int64
	Content  []byte
	Filename string
	Token    string
}

// ListResult is the service-level DTO for paginated history.
type ListResult struct {
	Items []model.SignatureRecord `json:"data"`
	Total int                     `json:"total"`
}

// ProofResult is the proof of one record in its transportable forms.
type ProofResult struct {
	Proof     proof.Token `json:"proof"`
	Token     string      `json:"token"`
	VerifyURL string      `json:"verify_url"`
}

// SignatureService defines the signing and verification use cases.
type SignatureService interface {
	// Sign fingerprints and signs the content, archives the original when an
	// archive is configured, and appends the record to the ledger.
	// Nothing is recorded when any step fails.
	Sign(ctx context.Context, req SignRequest) (*SignResult, error)

	// Verify resolves a claim to Confirmed, Rejected or NotFound.
	Verify(ctx context.Context, req VerifyRequest) (*reconcile.Result, error)

	Get(ctx context.Context, id int64) (*model.SignatureRecord, error)

	// List returns history using limit/offset and a total count.
	List(ctx context.Context, limit, offset int, order repository.Order) (*ListResult, error)

	Proof(ctx context.Context, id int64) (*ProofResult, error)

	// ProofQR renders the verification URL (or the raw token when no public
	// base URL is configured) as a PNG QR code.
	ProofQR(ctx context.Context, id int64) ([]byte, error)

	// DocumentURL returns a time-limited download link to the archived original.
	DocumentURL(ctx context.Context, id int64) (string, error)
}

// Signer signs fingerprints and verifies signatures. *signer.KeyPair implements it.
type Signer interface {
	Sign(fp fingerprint.Fingerprint) ([]byte, error)
	Verify(fp fingerprint.Fingerprint, sig []byte) bool
}

// Option configures a signatureService.
type Option func(*signatureService)

// WithArchive stores signed originals in store.
func WithArchive(store storage.Storage, presignExpiry time.Duration) Option {
	return func(s *signatureService) {
		s.store = store
		if presignExpiry > 0 {
			s.presignExpiry = presignExpiry
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *signatureService) {
		s.log = log.With(zap.String("component", "signature_service"))
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *signatureService) { s.metrics = m }
}

// WithProof sets the public base URL embedded in QR codes and their size.
func WithProof(verifyBaseURL string, qrSize int) Option {
	return func(s *signatureService) {
		s.verifyBaseURL = verifyBaseURL
		s.qrSize = qrSize
	}
}

type signatureService struct {
	repo          repository.SignatureRepository
	signer        Signer
	fp            reconcile.Fingerprinter
	reconciler    *reconcile.Reconciler
	store         storage.Storage
	presignExpiry time.Duration
	log           *zap.Logger
	metrics       *Metrics
	tracer        trace.Tracer
	verifyBaseURL string
	qrSize        int
}

// NewSignatureService constructs a SignatureService over the given ledger and key pair.
func NewSignatureService(repo repository.SignatureRepository, keys Signer, opts ...Option) SignatureService {
	s := &signatureService{
		repo:          repo,
		signer:        keys,
		fp:            fingerprint.New(),
		presignExpiry: 15 * time.Minute,
		log:           zap.NewNop(),
		tracer:        otel.Tracer("esign/internal/service"),
		qrSize:        proof.DefaultQRSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reconciler = reconcile.New(repo, s.fp, keys)
	return s
}

func (s *signatureService) Sign(ctx context.Context, req SignRequest) (res *SignResult, err error) {
	ctx, span := s.tracer.Start(ctx, "SignatureService.Sign")
	defer func() {
		s.metrics.signed(err)
		endSpan(span, err)
	}()

	claimant := strings.TrimSpace(req.Claimant)
	if claimant == "" {
		return nil, fmt.Errorf("%w: claimant is required", ErrInvalidInput)
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidInput)
	}
	filename := reconcile.CanonicalFilename(req.Filename)
	if filename == "" {
		filename = defaultFilename
	}

	fp, err := s.fp.Fingerprint(req.Content)
	if err != nil {
		return nil, fmt.Errorf("fingerprint document: %w", err)
	}
	span.SetAttributes(attribute.String("esign.fingerprint", fp.String()))

	sig, err := s.signer.Sign(fp)
	if err != nil {
		return nil, fmt.Errorf("sign fingerprint: %w", err)
	}
	encodedSig := signer.EncodeSignature(sig)

	if err := s.archive(ctx, fp.String(), filename, claimant, req); err != nil {
		return nil, err
	}

	rec, err := s.repo.Append(ctx, &model.SignatureRecord{
		Claimant:    claimant,
		Filename:    filename,
		Fingerprint: fp.String(),
		Signature:   encodedSig,
		Status:      model.StatusValid,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: append record: %w", ErrStorage, err)
	}
	span.SetAttributes(attribute.Int64("esign.record_id", rec.ID))

	token, err := proof.FromRecord(rec).Encode()
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info("document signed",
		zap.Int64("record_id", rec.ID),
		zap.String("fingerprint", rec.Fingerprint),
		zap.String("filename", rec.Filename),
	)
	return &SignResult{
		Record:      rec,
		Fingerprint: rec.Fingerprint,
		Signature:   rec.Signature,
		Token:       token,
	}, nil
}

// archive uploads the original once per fingerprint. The object is not removed
// if the ledger append fails afterwards; a retry reuses it.
func (s *signatureService) archive(ctx context.Context, fp, filename, claimant string, req SignRequest) error {
	if s.store == nil {
		return nil
	}
	key := storage.DocumentKey(fp)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: stat archived document: %w", ErrStorage, err)
	}
	if exists {
		return nil
	}
	_, err = s.store.Put(ctx, key, bytes.NewReader(req.Content), storage.PutObjectOptions{
		Size:        int64(len(req.Content)),
		ContentType: req.ContentType,
		Metadata: map[string]string{
			"original-filename": filename,
			"claimant":          claimant,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: archive document: %w", ErrStorage, err)
	}
	return nil
}

func (s *signatureService) Verify(ctx context.Context, req VerifyRequest) (*reconcile.Result, error) {
	ctx, span := s.tracer.Start(ctx, "SignatureService.Verify")
	defer span.End()

	res, err := s.reconciler.Reconcile(ctx, reconcile.Claim{
		ID:       req.ID,
		Content:  req.Content,
		Filename: req.Filename,
		Token:    req.Token,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("esign.outcome", string(res.Outcome)),
		attribute.String("esign.code", string(res.Code)),
	)
	s.metrics.verified(res)

	fields := []zap.Field{
		zap.String("outcome", string(res.Outcome)),
		zap.String("code", string(res.Code)),
	}
	if res.RecordID != 0 {
		fields = append(fields, zap.Int64("record_id", res.RecordID))
	}
	log := logging.FromContext(ctx, s.log)
	if cause := res.Err(); cause != nil && res.Code == reconcile.CodeStorageError {
		log.Error("verification storage error", append(fields, zap.Error(cause))...)
	} else {
		log.Info("verification completed", fields...)
	}
	return res, nil
}

func (s *signatureService) Get(ctx context.Context, id int64) (*model.SignatureRecord, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidInput)
	}
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rec, nil
}

func (s *signatureService) List(ctx context.Context, limit, offset int, order repository.Order) (*ListResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	if order == "" {
		order = repository.OrderDesc
	}

	res, err := s.repo.List(ctx, repository.ListQuery{Limit: limit, Offset: offset, Order: order})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return &ListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *signatureService) Proof(ctx context.Context, id int64) (*ProofResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tok := proof.FromRecord(rec)
	encoded, err := tok.Encode()
	if err != nil {
		return nil, err
	}
	return &ProofResult{
		Proof:     tok,
		Token:     encoded,
		VerifyURL: proof.VerifyURL(s.verifyBaseURL, rec.ID),
	}, nil
}

func (s *signatureService) ProofQR(ctx context.Context, id int64) ([]byte, error) {
	p, err := s.Proof(ctx, id)
	if err != nil {
		return nil, err
	}
	content := p.Token
	if s.verifyBaseURL != "" {
		content = p.VerifyURL
	}
	return proof.QRCode(content, s.qrSize)
}

func (s *signatureService) DocumentURL(ctx context.Context, id int64) (string, error) {
	if s.store == nil {
		return "", ErrArchiveDisabled
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	key := storage.DocumentKey(rec.Fingerprint)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("%w: stat archived document: %w", ErrStorage, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: document %d was not archived", repository.ErrNotFound, id)
	}
	u, err := s.store.PresignGet(ctx, key, s.presignExpiry)
	if err != nil {
		return "", fmt.Errorf("%w: presign document: %w", ErrStorage, err)
	}
	return u, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

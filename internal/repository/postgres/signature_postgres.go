package postgres

import (
	"context"
	"database/sql"
	"errors"

	"esign/internal/model"
	"esign/internal/repository"
)

// SignaturePostgres is a PostgreSQL implementation of repository.SignatureRepository.
// Identifiers come from the table's BIGSERIAL sequence, which serializes allocation
// across concurrent writers. Updates and deletes are rejected by a trigger (see migration).
type SignaturePostgres struct {
	db *sql.DB
}

// NewSignaturePostgres creates a new SignaturePostgres repository.
func NewSignaturePostgres(db *sql.DB) *SignaturePostgres {
	return &SignaturePostgres{db: db}
}

var _ repository.SignatureRepository = (*SignaturePostgres)(nil)

const recordColumns = `id, claimant, filename, fingerprint, signature, status, signed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.SignatureRecord, error) {
	var (
		rec    model.SignatureRecord
		status string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Claimant,
		&rec.Filename,
		&rec.Fingerprint,
		&rec.Signature,
		&status,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	rec.Status = model.Status(status)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

// Append inserts a new row; the id and signed_at come from column defaults.
func (r *SignaturePostgres) Append(ctx context.Context, rec *model.SignatureRecord) (*model.SignatureRecord, error) {
	const q = `
		INSERT INTO signature_records (claimant, filename, fingerprint, signature, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + recordColumns
	row := r.db.QueryRowContext(ctx, q,
		rec.Claimant,
		rec.Filename,
		rec.Fingerprint,
		rec.Signature,
		string(rec.Status),
	)
	return scanRecord(row)
}

// FindByID fetches a single record by its identifier.
func (r *SignaturePostgres) FindByID(ctx context.Context, id int64) (*model.SignatureRecord, error) {
	const q = `
		SELECT ` + recordColumns + `
		FROM signature_records
		WHERE id = $1
	`
	return scanRecord(r.db.QueryRowContext(ctx, q, id))
}

// FindLatest applies the latest-signature-wins policy: newest signed_at first, id breaks ties.
func (r *SignaturePostgres) FindLatest(ctx context.Context, rq repository.RecordQuery) (*model.SignatureRecord, error) {
	if err := rq.Validate(); err != nil {
		return nil, err
	}
	const q = `
		SELECT ` + recordColumns + `
		FROM signature_records
		WHERE ($1::text = '' OR filename = $1)
		  AND ($2::text = '' OR fingerprint = $2)
		ORDER BY signed_at DESC, id DESC
		LIMIT 1
	`
	return scanRecord(r.db.QueryRowContext(ctx, q, rq.Filename, rq.Fingerprint))
}

// List returns records using LIMIT/OFFSET pagination and a total count.
func (r *SignaturePostgres) List(ctx context.Context, lq repository.ListQuery) (*repository.PageResult[model.SignatureRecord], error) {
	const qCount = `SELECT COUNT(*) FROM signature_records`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const (
		qDesc = `
		SELECT ` + recordColumns + `
		FROM signature_records
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`
		qAsc = `
		SELECT ` + recordColumns + `
		FROM signature_records
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`
	)
	q := qDesc
	if lq.Order == repository.OrderAsc {
		q = qAsc
	}

	rows, err := r.db.QueryContext(ctx, q, lq.Limit, lq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SignatureRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.SignatureRecord]{
		Items: items,
		Total: total,
	}, nil
}

// PingContext reports database reachability for health checks.
func (r *SignaturePostgres) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

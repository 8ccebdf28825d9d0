package repository

import (
	"context"
	"errors"

	"esign/internal/model"
)

var (
	// ErrNotFound is returned when no record matches a lookup.
	ErrNotFound = errors.New("signature record not found")
	// ErrInvalidQuery is returned for a FindLatest query with no criteria.
	ErrInvalidQuery = errors.New("record query needs a filename or a fingerprint")
)

// SignatureRepository is the append-only signing ledger.
// Records are never updated or deleted; identifiers are assigned by the
// implementation, increase monotonically and are never reused.
type SignatureRepository interface {
	// Append assigns the next identifier and durably stores the record before returning.
	// ID and CreatedAt on the input are ignored; the stored record is returned.
	Append(ctx context.Context, rec *model.SignatureRecord) (*model.SignatureRecord, error)

	// FindByID returns the record with the given identifier or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*model.SignatureRecord, error)

	// FindLatest returns the most recent record matching every non-empty field of q,
	// ordered by creation time then identifier, newest first.
	FindLatest(ctx context.Context, q RecordQuery) (*model.SignatureRecord, error)

	// List returns a page of records and the total number of records.
	List(ctx context.Context, q ListQuery) (*PageResult[model.SignatureRecord], error)
}

// RecordQuery selects records for FindLatest. Empty fields match anything.
type RecordQuery struct {
	Filename    string
	Fingerprint string
}

// Validate reports ErrInvalidQuery when q has no criteria.
func (q RecordQuery) Validate() error {
	if q.Filename == "" && q.Fingerprint == "" {
		return ErrInvalidQuery
	}
	return nil
}

// Matches reports whether rec satisfies q.
func (q RecordQuery) Matches(rec *model.SignatureRecord) bool {
	if q.Filename != "" && rec.Filename != q.Filename {
		return false
	}
	if q.Fingerprint != "" && rec.Fingerprint != q.Fingerprint {
		return false
	}
	return true
}

// Order is the sort direction of a listing, by identifier.
type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// ParseOrder maps user input to an Order, defaulting to newest first.
func ParseOrder(s string) (Order, bool) {
	switch Order(s) {
	case "", OrderDesc:
		return OrderDesc, true
	case OrderAsc:
		return OrderAsc, true
	default:
		return "", false
	}
}

// ListQuery holds limit/offset pagination parameters and the sort order.
type ListQuery struct {
	Limit  int
	Offset int
	Order  Order
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// Package badger stores the signing ledger in an embedded BadgerDB.
//
// Key layout:
//
//	meta/seq                          last assigned id (big-endian uint64)
//	rec/<id>                          JSON encoded model.SignatureRecord
//	idx/fp/<fingerprint>/<id>         fingerprint index, empty value
//	idx/fn/<hex(filename)>/<id>       filename index, empty value
//
// Ids are allocated under a single writer lock inside the same transaction that
// writes the record, so ids are gap-free and creation times never decrease
// with id. Reverse iteration over an index therefore yields newest first.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"esign/internal/model"
	"esign/internal/repository"
)

var (
	seqKey            = []byte("meta/seq")
	recordPrefix      = []byte("rec/")
	fingerprintPrefix = []byte("idx/fp/")
	filenamePrefix    = []byte("idx/fn/")
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("ledger store closed")

// Options configures Open.
type Options struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *zap.Logger
}

// SignatureBadger is a BadgerDB implementation of repository.SignatureRepository.
type SignatureBadger struct {
	db  *badgerdb.DB
	mu  sync.Mutex
	now func() time.Time
}

var _ repository.SignatureRepository = (*SignatureBadger)(nil)

// Open opens (or creates) the ledger store.
func Open(o Options) (*SignatureBadger, error) {
	opts := badgerdb.DefaultOptions(o.Path).WithSyncWrites(o.SyncWrites)
	if o.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	if o.Logger != nil {
		opts = opts.WithLogger(badgerLogger{o.Logger.Sugar().With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger ledger: %w", err)
	}
	return &SignatureBadger{db: db, now: time.Now}, nil
}

// Close flushes and closes the underlying database.
func (s *SignatureBadger) Close() error {
	return s.db.Close()
}

// PingContext reports whether the store is open.
func (s *SignatureBadger) PingContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// Append stores rec under the next id.
func (s *SignatureBadger) Append(ctx context.Context, rec *model.SignatureRecord) (*model.SignatureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored model.SignatureRecord
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		last, err := readSeq(txn)
		if err != nil {
			return err
		}

		created := s.now().UTC()
		if last > 0 {
			prev, err := getRecord(txn, last)
			if err != nil {
				return fmt.Errorf("read record %d: %w", last, err)
			}
			if created.Before(prev.CreatedAt) {
				created = prev.CreatedAt
			}
		}

		next := last + 1
		stored = *rec
		stored.ID = int64(next)
		stored.CreatedAt = created

		val, err := json.Marshal(&stored)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}

		if err := txn.Set(seqKey, encodeID(next)); err != nil {
			return err
		}
		if err := txn.Set(recordKey(next), val); err != nil {
			return err
		}
		if err := txn.Set(fingerprintKey(stored.Fingerprint, next), nil); err != nil {
			return err
		}
		return txn.Set(filenameKey(stored.Filename, next), nil)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindByID fetches a single record by its identifier.
func (s *SignatureBadger) FindByID(ctx context.Context, id int64) (*model.SignatureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, repository.ErrNotFound
	}

	var rec *model.SignatureRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		var err error
		rec, err = getRecord(txn, uint64(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindLatest walks the narrowest index newest first and returns the first full match.
func (s *SignatureBadger) FindLatest(ctx context.Context, q repository.RecordQuery) (*model.SignatureRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := filenameIndexPrefix(q.Filename)
	if q.Fingerprint != "" {
		prefix = fingerprintIndexPrefix(q.Fingerprint)
	}

	var found *model.SignatureRecord
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := it.Item().Key()
			if len(key) != len(prefix)+8 {
				continue
			}
			rec, err := getRecord(txn, binary.BigEndian.Uint64(key[len(prefix):]))
			if err != nil {
				return err
			}
			if q.Matches(rec) {
				found = rec
				return nil
			}
		}
		return repository.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// List returns a page of records. Ids are gap-free, so the total equals the last id.
func (s *SignatureBadger) List(ctx context.Context, q repository.ListQuery) (*repository.PageResult[model.SignatureRecord], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &repository.PageResult[model.SignatureRecord]{Items: make([]model.SignatureRecord, 0)}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		last, err := readSeq(txn)
		if err != nil {
			return err
		}
		res.Total = int(last)

		offset := uint64(max(q.Offset, 0))
		limit := uint64(max(q.Limit, 0))
		for i := uint64(0); i < limit && offset+i < last; i++ {
			id := offset + i + 1
			if q.Order != repository.OrderAsc {
				id = last - offset - i
			}
			rec, err := getRecord(txn, id)
			if err != nil {
				return fmt.Errorf("read record %d: %w", id, err)
			}
			res.Items = append(res.Items, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func readSeq(txn *badgerdb.Txn) (uint64, error) {
	item, err := txn.Get(seqKey)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("corrupt sequence value of %d bytes", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

func getRecord(txn *badgerdb.Txn, id uint64) (*model.SignatureRecord, error) {
	item, err := txn.Get(recordKey(id))
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec model.SignatureRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("decode record %d: %w", id, err)
	}
	return &rec, nil
}

func encodeID(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func recordKey(id uint64) []byte {
	return append(append([]byte{}, recordPrefix...), encodeID(id)...)
}

func fingerprintIndexPrefix(fp string) []byte {
	k := append(append([]byte{}, fingerprintPrefix...), fp...)
	return append(k, '/')
}

func filenameIndexPrefix(name string) []byte {
	k := append(append([]byte{}, filenamePrefix...), hex.EncodeToString([]byte(name))...)
	return append(k, '/')
}

func fingerprintKey(fp string, id uint64) []byte {
	return append(fingerprintIndexPrefix(fp), encodeID(id)...)
}

func filenameKey(name string, id uint64) []byte {
	return append(filenameIndexPrefix(name), encodeID(id)...)
}

// badgerLogger adapts zap to badger's logger interface.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.s.Infof(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(f, v...) }

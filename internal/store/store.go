// Package store is the relational data layer of the blog. Every method takes
// a context and runs a single logical action against the database.
package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/beesaferoot/yatube/internal/database"
	"github.com/beesaferoot/yatube/internal/util"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type Store struct {
	db    *gorm.DB
	Clock util.Clock
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		Clock: util.NewRealClock(),
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithTx runs fn with a Store bound to a single transaction.
func (s *Store) WithTx(ctx context.Context, reason string, fn func(tx *Store) error) error {
	return database.WithTx(ctx, s.db, reason, func(tx *gorm.DB) error {
		return fn(&Store{db: tx, Clock: s.Clock})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps driver errors onto the package's sentinel errors.
func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrap(ErrNotFound, msg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(ErrDuplicate, msg)
	}
	return errors.Wrap(err, msg)
}

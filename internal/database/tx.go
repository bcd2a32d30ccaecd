package database

import (
	"context"
	"log"
	"runtime/debug"

	"gorm.io/gorm"
)

// WithTx runs fn inside a transaction, rolling back when fn returns an error
// or panics. reason only shows up in the logs.
func WithTx(ctx context.Context, db *gorm.DB, reason string, fn func(tx *gorm.DB) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in WithTx (%s): %v\n%s", reason, r, debug.Stack())
			panic(r)
		}
	}()

	err = db.WithContext(ctx).Transaction(fn)
	if err != nil {
		log.Printf("transaction rolled back (%s): %v", reason, err)
	}
	return err
}

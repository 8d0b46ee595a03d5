package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrRetriesExhausted wraps the last retryable failure once every attempt is used.
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

// IsRetryable reports whether err is a postgres serialization failure or
// deadlock, after which the whole transaction may be replayed.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// Transact runs fn in a transaction, replaying it up to attempts times while
// it fails with a retryable error. fn must be safe to re-run.
func Transact(ctx context.Context, db *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		log.Printf("Transaction attempt %d/%d hit %v", attempt, attempts, err)
	}
	return fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
}

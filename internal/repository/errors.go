package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswapper/internal/lifecycle"
)

// notFound переводит gorm.ErrRecordNotFound в доменную ошибку.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", lifecycle.ErrNotFound, what)
	}
	return err
}

// Коды Postgres: serialization_failure и deadlock_detected.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// ConflictError переводит ошибки блокировок хранилища (deadlock в Postgres,
// SQLITE_BUSY/SQLITE_LOCKED в SQLite) в ErrConcurrencyConflict.
// Остальные ошибки возвращаются как есть.
func ConflictError(err error) error {
	if err == nil || errors.Is(err, lifecycle.ErrConcurrencyConflict) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %v", lifecycle.ErrConcurrencyConflict, err)
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %v", lifecycle.ErrConcurrencyConflict, err)
		}
	}
	return err
}

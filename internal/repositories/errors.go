package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means no row matched the requested key.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a unique constraint (title, slug, username, email) was violated.
	ErrConflict = errors.New("conflict")
	// ErrInternal is the opaque error returned for any other persistence failure.
	// The cause is logged, never returned.
	ErrInternal = errors.New("unexpected error, check server logs")
)

// isUniqueViolation reports whether err comes from a unique constraint.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "23505")
}

// classify maps a store error to ErrConflict or ErrInternal, logging the
// latter with its cause. ErrNotFound and nil pass through unchanged.
func classify(log zerolog.Logger, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrInternal):
		return err
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s", ErrConflict, conflictDetail(err))
	default:
		log.Error().Err(err).Str("op", op).Msg("persistence failure")
		return ErrInternal
	}
}

func conflictDetail(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return pgErr.Detail
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "a record with the same unique value already exists"
	}
	return err.Error()
}

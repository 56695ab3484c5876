package repositories

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	assert.NoError(t, classify(log, "op", nil))

	notFound := fmt.Errorf("%w: product with x", ErrNotFound)
	assert.Equal(t, notFound, classify(log, "op", notFound))

	err := classify(log, "op", gorm.ErrDuplicatedKey)
	assert.ErrorIs(t, err, ErrConflict)

	pgErr := &pgconn.PgError{Code: "23505", Detail: "Key (title)=(Tee) already exists."}
	err = classify(log, "op", fmt.Errorf("failed to save product: %w", pgErr))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "Key (title)=(Tee) already exists.")

	assert.Empty(t, buf.String())

	err = classify(log, "update product", errors.New("connection reset by peer"))
	assert.Equal(t, ErrInternal, err)
	assert.NotContains(t, err.Error(), "connection reset")
	assert.Contains(t, buf.String(), "connection reset by peer")
	assert.Contains(t, buf.String(), `"op":"update product"`)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: products.slug")))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("no such table: product_stocks")))
}

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx embeds pgx.Tx so only Commit/Rollback need implementations.
type fakeTx struct {
	pgx.Tx
	committed  *int
	rolledBack *int
}

func (t fakeTx) Commit(ctx context.Context) error {
	*t.committed++
	return nil
}

func (t fakeTx) Rollback(ctx context.Context) error {
	*t.rolledBack++
	return nil
}

type fakeBeginner struct {
	begins     int
	committed  int
	rolledBack int
}

func (b *fakeBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.begins++
	if opts.IsoLevel != pgx.RepeatableRead {
		return nil, errors.New("unexpected isolation level")
	}
	return fakeTx{committed: &b.committed, rolledBack: &b.rolledBack}, nil
}

func TestWithTxRetriesSerializationFailure(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := WithTx(context.Background(), b, func(pgx.Tx) error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, b.begins)
	assert.Equal(t, 1, b.committed)
}

func TestWithTxDoesNotRetryDomainErrors(t *testing.T) {
	b := &fakeBeginner{}
	boom := errors.New("unbalanced")
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, b.begins)
	assert.Equal(t, 0, b.committed)
	assert.Equal(t, 1, b.rolledBack)
}

func TestWithTxGivesUpAfterBudget(t *testing.T) {
	b := &fakeBeginner{}
	err := WithTxRetries(context.Background(), b, 1, func(pgx.Tx) error {
		return &pgconn.PgError{Code: "40P01"}
	})
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 2, b.begins)
}

func TestSchemaWidePercentageColumn(t *testing.T) {
	assert.Contains(t, Schema, "variance_percentage NUMERIC(24,4) NOT NULL")
	assert.Contains(t, Schema, "ALTER COLUMN variance_percentage TYPE NUMERIC(24,4)")
	assert.NotContains(t, Schema, "NUMERIC(12,4)")
}

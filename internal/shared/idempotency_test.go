package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	err  error
	sql  []string
	tag  pgconn.CommandTag
	args [][]any
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = append(f.sql, sql)
	f.args = append(f.args, args)
	return f.tag, f.err
}

func TestCheckAndInsertMapsUniqueViolation(t *testing.T) {
	db := &fakeExecer{err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})}
	err := NewIdempotencyStore(db).CheckAndInsert(context.Background(), "k1", "billing")
	require.ErrorIs(t, err, ErrIdempotencyConflict)

	db.err = errors.New("connection reset")
	err = NewIdempotencyStore(db).CheckAndInsert(context.Background(), "k1", "billing")
	require.EqualError(t, err, "connection reset")
}

func TestCheckAndInsertRequiresKeyAndModule(t *testing.T) {
	store := NewIdempotencyStore(&fakeExecer{})
	require.Error(t, store.CheckAndInsert(context.Background(), "", "billing"))
	require.Error(t, store.CheckAndInsert(context.Background(), "k", ""))
	var nilStore *IdempotencyStore
	require.Error(t, nilStore.CheckAndInsert(context.Background(), "k", "billing"))
}

func TestCleanupReturnsRowsAffected(t *testing.T) {
	db := &fakeExecer{tag: pgconn.NewCommandTag("DELETE 4")}
	n, err := NewIdempotencyStore(db).Cleanup(context.Background(), time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
	require.Len(t, db.args, 1)
	cutoff, ok := db.args[0][0].(time.Time)
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(-time.Hour), cutoff, time.Minute)
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("boom")))
}

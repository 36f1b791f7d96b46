// Package testdb opens an isolated in-memory database with the schema applied.
package testdb

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"soundcrew/internal/repositories"
)

func New(t testing.TB) *repositories.DB {
	t.Helper()
	ctx := context.Background()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_time_format=sqlite"
	db, err := repositories.Open(ctx, repositories.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, repositories.Migrate(ctx, db))
	return db
}

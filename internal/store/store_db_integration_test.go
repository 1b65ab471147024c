//go:build integration
// +build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	runContract(t, func(t *testing.T) Store {
		t.Helper()
		ctx := context.Background()

		db, err := OpenPostgres(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		s := NewPostgresStore(db)
		require.NoError(t, s.Migrate(ctx))
		_, err = db.ExecContext(ctx, `TRUNCATE cocktails`)
		require.NoError(t, err)
		return s
	})
}

package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Cocktails/internal/cocktail"
)

func TestColumns_MirrorRow(t *testing.T) {
	require.Len(t, columns, 9+2*cocktail.MaxIngredients+1)
	assert.Equal(t, "id", columns[0])
	assert.Equal(t, "ingredient1", columns[9])
	assert.Equal(t, "measure15", columns[len(columns)-2])
	assert.Equal(t, "is_favorite", columns[len(columns)-1])

	var r cocktail.Row
	assert.Len(t, rowDest(&r), len(columns))
	assert.Len(t, rowArgs(r), len(columns))
}

func TestUpsertQuery_ReplacesEveryColumnButID(t *testing.T) {
	q := upsertQuery()

	assert.True(t, strings.HasPrefix(q, "INSERT INTO cocktails (id, name, tags"))
	assert.Contains(t, q, "$40")
	assert.NotContains(t, q, "$41")
	assert.Contains(t, q, "ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name")
	assert.Contains(t, q, "is_favorite = EXCLUDED.is_favorite")
	assert.NotContains(t, q, "id = EXCLUDED.id")
}

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements()
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0], "id TEXT PRIMARY KEY")
	assert.Contains(t, stmts[0], "measure15 TEXT,")
	assert.Contains(t, stmts[0], "is_favorite BOOLEAN NOT NULL DEFAULT FALSE")
	assert.Contains(t, stmts[2], "CREATE TABLE IF NOT EXISTS meta (")
	assert.Contains(t, stmts[3], "INSERT INTO meta (key, value) VALUES ('schema_version', '1')")
}

func TestStorageErr(t *testing.T) {
	assert.NoError(t, storageErr("x", nil))

	pg := &pgconn.PgError{Code: "08006"}
	err := storageErr("upsert "+describe(pg), pg)
	require.ErrorIs(t, err, cocktail.ErrLocalStorage)
	assert.Contains(t, err.Error(), "sqlstate=08006")

	var got *pgconn.PgError
	assert.True(t, errors.As(err, &got))
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"Cocktails/internal/cocktail"
	"Cocktails/pkg/watch"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	writeTimeout = 5 * time.Second

	SchemaVersion = 1
)

var columns = buildColumns()

type PostgresStore struct {
	db  *sql.DB
	Log *zap.Logger

	// mu orders a write with the emissions it causes.
	mu    sync.Mutex
	feeds *feeds
}

// OpenPostgres opens a pool through the pgx stdlib driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, storageErr("open", err)
	}
	if err := withTimeout(ctx, pingTimeout, db.PingContext); err != nil {
		_ = db.Close()
		return nil, storageErr("ping", err)
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, feeds: newFeeds()}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return storageErr("ping", withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	}))
}

// Migrate creates the schema if it does not exist. There is only one version.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return storageErr("migrate", withTimeout(ctx, writeTimeout, func(ctx context.Context) error {
		for _, stmt := range schemaStatements() {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}))
}

// Upsert writes r and, when the favorite subset changes under a live favorites view, reads
// the new subset in the same transaction. A failed read rolls the write back.
func (s *PostgresStore) Upsert(ctx context.Context, r cocktail.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		favs    []cocktail.Row
		refresh bool
	)

	err := withTimeout(ctx, writeTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var prev cocktail.Row
		existed := true
		err = tx.QueryRowContext(ctx, `SELECT is_favorite FROM cocktails WHERE id = $1 FOR UPDATE`, r.ID).
			Scan(&prev.IsFavorite)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			existed = false
		case err != nil:
			return err
		}

		if _, err := tx.ExecContext(ctx, upsertQuery(), rowArgs(r)...); err != nil {
			return err
		}

		if touchesFavorites(prev, existed, r) && s.feeds.watchingFavorites() {
			refresh = true
			if favs, err = selectFavorites(ctx, tx); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return storageErr("upsert "+describe(err), err)
	}

	s.feeds.publishID(r)
	if refresh {
		if s.Log != nil {
			s.Log.Debug("favorites changed", zap.String("id", r.ID), zap.Int("count", len(favs)))
		}
		s.feeds.publishFavorites(favs)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM cocktails WHERE id = $1)`, id).Scan(&ok)
	})
	if err != nil {
		return false, storageErr("exists", err)
	}
	return ok, nil
}

func (s *PostgresStore) WatchByID(ctx context.Context, id string) (*watch.Subscription[Lookup], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.feeds.subscribeID(ctx, id, Lookup{Row: r, Found: ok}), nil
}

func (s *PostgresStore) WatchFavorites(ctx context.Context) (*watch.Subscription[[]cocktail.Row], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favs, err := s.favorites(ctx)
	if err != nil {
		return nil, err
	}
	return s.feeds.favorites.Subscribe(ctx, favs), nil
}

func (s *PostgresStore) get(ctx context.Context, id string) (cocktail.Row, bool, error) {
	var r cocktail.Row

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx,
			`SELECT `+strings.Join(columns, ", ")+` FROM cocktails WHERE id = $1`, id).
			Scan(rowDest(&r)...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return cocktail.Row{}, false, nil
	}
	if err != nil {
		return cocktail.Row{}, false, storageErr("get", err)
	}
	return r, true, nil
}

func (s *PostgresStore) favorites(ctx context.Context) ([]cocktail.Row, error) {
	var out []cocktail.Row

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		out, err = selectFavorites(ctx, s.db)
		return err
	})
	if err != nil {
		return nil, storageErr("favorites", err)
	}
	return out, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func selectFavorites(ctx context.Context, q queryer) ([]cocktail.Row, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+strings.Join(columns, ", ")+`
		FROM cocktails
		WHERE is_favorite
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]cocktail.Row, 0, 16)
	for rows.Next() {
		var r cocktail.Row
		if err := rows.Scan(rowDest(&r)...); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func buildColumns() []string {
	cols := []string{
		"id", "name", "tags", "category", "type", "glass_type",
		"instructions", "thumbnail_img", "image_source",
	}
	for i := 1; i <= cocktail.MaxIngredients; i++ {
		cols = append(cols, "ingredient"+strconv.Itoa(i))
	}
	for i := 1; i <= cocktail.MaxIngredients; i++ {
		cols = append(cols, "measure"+strconv.Itoa(i))
	}
	return append(cols, "is_favorite")
}

func rowDest(r *cocktail.Row) []any {
	dest := []any{
		&r.ID, &r.Name, &r.Tags, &r.Category, &r.Type, &r.GlassType,
		&r.Instructions, &r.ThumbnailImg, &r.ImageSource,
	}
	for i := range r.Ingredients {
		dest = append(dest, &r.Ingredients[i])
	}
	for i := range r.Measures {
		dest = append(dest, &r.Measures[i])
	}
	return append(dest, &r.IsFavorite)
}

func rowArgs(r cocktail.Row) []any {
	args := []any{
		r.ID, r.Name, r.Tags, r.Category, r.Type, r.GlassType,
		r.Instructions, r.ThumbnailImg, r.ImageSource,
	}
	for _, v := range r.Ingredients {
		args = append(args, v)
	}
	for _, v := range r.Measures {
		args = append(args, v)
	}
	return append(args, r.IsFavorite)
}

// upsertQuery replaces every column on conflict; rows are never partially updated.
func upsertQuery() string {
	var b strings.Builder
	b.WriteString("INSERT INTO cocktails (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("$" + strconv.Itoa(i+1))
	}
	b.WriteString(") ON CONFLICT (id) DO UPDATE SET ")
	for i, c := range columns[1:] {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c + " = EXCLUDED." + c)
	}
	return b.String()
}

func schemaStatements() []string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS cocktails (\n")
	b.WriteString("\tid TEXT PRIMARY KEY,\n")
	b.WriteString("\tname TEXT NOT NULL,\n")
	b.WriteString("\ttags TEXT,\n")
	b.WriteString("\tcategory TEXT NOT NULL,\n")
	b.WriteString("\ttype TEXT NOT NULL,\n")
	b.WriteString("\tglass_type TEXT NOT NULL,\n")
	b.WriteString("\tinstructions TEXT NOT NULL,\n")
	b.WriteString("\tthumbnail_img TEXT NOT NULL,\n")
	b.WriteString("\timage_source TEXT,\n")
	for _, c := range columns[9 : len(columns)-1] {
		b.WriteString("\t" + c + " TEXT,\n")
	}
	b.WriteString("\tis_favorite BOOLEAN NOT NULL DEFAULT FALSE\n)")

	return []string{
		b.String(),
		`CREATE INDEX IF NOT EXISTS cocktails_favorite_idx ON cocktails (id) WHERE is_favorite`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		fmt.Sprintf(`INSERT INTO meta (key, value) VALUES ('schema_version', '%d') ON CONFLICT (key) DO NOTHING`, SchemaVersion),
	}
}

// describe adds the SQLSTATE to storage errors raised by the server.
func describe(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return "sqlstate=" + pgErr.Code
	}
	return "failed"
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

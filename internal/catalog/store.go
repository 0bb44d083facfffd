package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"phiextract/internal/gamedata"
	"phiextract/internal/normalize"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is recorded in catalog_meta. Tables are rebuilt on every
// export, so a version change needs no migration.
const schemaVersion = 1

// Tables lists the record tables in creation order.
var Tables = []string{"songs", "charts", "keys", "collections", "avatars", "tips"}

// Store writes normalized records to a SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// Snapshot is one run's worth of normalized records.
type Snapshot struct {
	RunID         string
	Songs         []gamedata.Song
	Singles       []string
	Illustrations []string
	Collections   []normalize.CollectionEntry
	Avatars       []normalize.AvatarEntry
	Tips          []string
}

// Open creates or connects to the catalog database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Replace drops and recreates every table, then inserts snap, all in one
// transaction.
func (s *Store) Replace(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	drops := append([]string{"catalog_meta"}, Tables...)
	for i := len(drops) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+drops[i]); err != nil {
			return fmt.Errorf("drop %s: %w", drops[i], err)
		}
	}
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	meta := [][2]string{
		{"schema_version", strconv.Itoa(schemaVersion)},
		{"run_id", snap.RunID},
		{"exported_at", time.Now().UTC().Format(time.RFC3339)},
	}
	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO catalog_meta (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return fmt.Errorf("insert catalog meta: %w", err)
		}
	}

	if err := insertSongs(ctx, tx, snap.Songs); err != nil {
		return err
	}
	if err := insertKeys(ctx, tx, snap.Singles, snap.Illustrations); err != nil {
		return err
	}
	for i, c := range snap.Collections {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO collections (position, key, title, sub_index) VALUES (?, ?, ?, ?)",
			i, c.Key, c.Title, c.SubIndex,
		); err != nil {
			return fmt.Errorf("insert collection %s: %w", c.Key, err)
		}
	}
	for i, a := range snap.Avatars {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO avatars (position, name, suffix) VALUES (?, ?, ?)",
			i, a.Name, a.Suffix,
		); err != nil {
			return fmt.Errorf("insert avatar %s: %w", a.Name, err)
		}
	}
	for i, tip := range snap.Tips {
		if _, err := tx.ExecContext(ctx, "INSERT INTO tips (position, text) VALUES (?, ?)", i, tip); err != nil {
			return fmt.Errorf("insert tip %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

func insertSongs(ctx context.Context, tx *sql.Tx, songs []gamedata.Song) error {
	for i, song := range songs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO songs (position, id, raw_id, category, title, composer, illustrator)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, song.ID, song.RawID, song.Category, song.Title, song.Composer, song.Illustrator,
		); err != nil {
			return fmt.Errorf("insert song %s: %w", song.RawID, err)
		}
		for _, chart := range song.Charts {
			if !chart.HasRating {
				continue
			}
			var charter sql.NullString
			if chart.HasCharter {
				charter = sql.NullString{String: chart.Charter, Valid: true}
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO charts (song_position, tier, rating, rating_text, charter) VALUES (?, ?, ?, ?, ?)",
				i, chart.Tier.String(), chart.Rating, normalize.FormatRating(chart.Rating), charter,
			); err != nil {
				return fmt.Errorf("insert chart %s %s: %w", song.RawID, chart.Tier, err)
			}
		}
	}
	return nil
}

func insertKeys(ctx context.Context, tx *sql.Tx, singles, illustrations []string) error {
	position := 0
	insert := func(name, kind string) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO keys (position, name, kind) VALUES (?, ?, ?)", position, name, kind)
		position++
		if err != nil {
			return fmt.Errorf("insert key %s: %w", name, err)
		}
		return nil
	}
	for _, name := range singles {
		if err := insert(name, "single"); err != nil {
			return err
		}
	}
	for _, name := range illustrations {
		if err := insert(name, "illustration"); err != nil {
			return err
		}
	}
	return nil
}

// Counts reports the row count of each record table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}

// Meta returns a catalog_meta value.
func (s *Store) Meta(ctx context.Context, key string) (string, error) {
	var value string
	if err := s.db.QueryRowContext(ctx, "SELECT value FROM catalog_meta WHERE key = ?", key).Scan(&value); err != nil {
		return "", fmt.Errorf("read catalog meta %s: %w", key, err)
	}
	return value, nil
}

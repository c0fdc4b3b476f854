package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/didi/gendry/builder"
	_ "modernc.org/sqlite"

	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	ctime INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	collection TEXT NOT NULL,
	chunk_id TEXT NOT NULL,
	document TEXT NOT NULL,
	video_title TEXT NOT NULL,
	uploader TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	embedding BLOB NOT NULL,
	PRIMARY KEY (collection, chunk_id)
);
`

type sqliteConfig struct {
	Path string `json:"path"`
}

// sqliteStore keeps embeddings as JSON blobs and ranks by cosine distance
// computed in process. Collections for a single session stay small enough
// that a linear scan beats maintaining an index.
type sqliteStore struct {
	db    *sql.DB
	locks *nameLocks
}

func init() {
	Register("sqlite", createSqliteStore)
}

func createSqliteStore(args interface{}) (Store, error) {
	cfg := &sqliteConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store path is required")
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &sqliteStore{db: db, locks: newNameLocks()}, nil
}

func (s *sqliteStore) CreateOrReplace(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	lock := s.locks.get(name)
	lock.Lock()
	defer lock.Unlock()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return recreateCollection(ctx, tx, name)
	})
}

func (s *sqliteStore) Add(ctx context.Context, name string, entries []Entry) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateEntries(entries); err != nil {
		return err
	}
	lock := s.locks.get(name)
	lock.Lock()
	defer lock.Unlock()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireCollection(ctx, tx, name); err != nil {
			return err
		}
		return insertChunks(ctx, tx, name, entries)
	})
}

func (s *sqliteStore) Replace(ctx context.Context, name string, entries []Entry) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateEntries(entries); err != nil {
		return err
	}
	lock := s.locks.get(name)
	lock.Lock()
	defer lock.Unlock()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := recreateCollection(ctx, tx, name); err != nil {
			return err
		}
		return insertChunks(ctx, tx, name, entries)
	})
}

func (s *sqliteStore) Query(ctx context.Context, name string, vector []float32, k int) ([]Hit, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 3
	}
	lock := s.locks.get(name)
	lock.RLock()
	defer lock.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM collections WHERE name = ?`, name)
	var exists int
	if err := row.Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, appErr.ErrNotFound
	}

	where := map[string]interface{}{"collection": name}
	fields := []string{"document", "video_title", "uploader", "chunk_index", "embedding"}
	sqlStr, args, err := builder.BuildSelect("chunks", where, fields)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		var blob []byte
		if err := rows.Scan(&hit.Document, &hit.Meta.VideoTitle, &hit.Meta.Uploader, &hit.Meta.ChunkIndex, &blob); err != nil {
			return nil, err
		}
		var emb []float32
		if err := json.Unmarshal(blob, &emb); err != nil {
			return nil, err
		}
		hit.Distance = 1 - cosineSimilarity(vector, emb)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *sqliteStore) Delete(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	lock := s.locks.get(name)
	lock.Lock()
	defer lock.Unlock()
	var removed bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, name); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = affected > 0
		return nil
	})
	return removed, err
}

func (s *sqliteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY ctime, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func recreateCollection(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO collections (name, ctime) VALUES (?, ?)`, name, time.Now().UnixMilli())
	return err
}

func requireCollection(ctx context.Context, tx *sql.Tx, name string) error {
	row := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM collections WHERE name = ?`, name)
	var exists int
	if err := row.Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, name string, entries []Entry) error {
	for _, entry := range entries {
		blob, err := json.Marshal(entry.Vector)
		if err != nil {
			return err
		}
		data := map[string]interface{}{
			"collection":  name,
			"chunk_id":    entry.ID,
			"document":    entry.Document,
			"video_title": entry.Meta.VideoTitle,
			"uploader":    entry.Meta.Uploader,
			"chunk_index": entry.Meta.ChunkIndex,
			"embedding":   blob,
		}
		sqlStr, args, err := builder.BuildInsert("chunks", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				return fmt.Errorf("%w: duplicate chunk id %q", appErr.ErrInvalid, entry.ID)
			}
			return err
		}
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: collection name is required", appErr.ErrInvalid)
	}
	return nil
}

func validateEntries(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.ID) == "" {
			return fmt.Errorf("%w: chunk id is required", appErr.ErrInvalid)
		}
		if strings.TrimSpace(entry.Document) == "" {
			return fmt.Errorf("%w: chunk document is required", appErr.ErrInvalid)
		}
		if _, ok := seen[entry.ID]; ok {
			return fmt.Errorf("%w: duplicate chunk id %q", appErr.ErrInvalid, entry.ID)
		}
		seen[entry.ID] = struct{}{}
	}
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

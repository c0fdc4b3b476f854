package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/vidrag/vidrag/internal/pkg/dbutil"
	appErr "github.com/vidrag/vidrag/internal/pkg/errors"
)

const postgresSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	ctime BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	collection TEXT NOT NULL,
	chunk_id TEXT NOT NULL,
	document TEXT NOT NULL,
	video_title TEXT NOT NULL,
	uploader TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	embedding vector NOT NULL,
	PRIMARY KEY (collection, chunk_id)
);
`

type postgresConfig struct {
	DSN string `json:"dsn"`
}

// postgresStore ranks with the pgvector cosine operator instead of the
// in-process scan the sqlite backend does. The embedding column is left
// undimensioned so switching embedding models needs no migration.
type postgresStore struct {
	db    *sql.DB
	locks *nameLocks
}

func init() {
	Register("postgres", createPostgresStore)
}

func createPostgresStore(args interface{}) (Store, error) {
	cfg := &postgresConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres store dsn is required")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &postgresStore{db: db, locks: newNameLocks()}, nil
}

func (s *postgresStore) CreateOrReplace(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	lock := s.locks.get(name)
	lock.Lock()
	defer lock.Unlock()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.recreate(ctx, tx, name)
	})
}

func (s *postgresStore) Add(ctx context.Context, name string, entries []Entry) error {
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
		if err := s.require(ctx, tx, name); err != nil {
			return err
		}
		return s.insert(ctx, tx, name, entries)
	})
}

func (s *postgresStore) Replace(ctx context.Context, name string, entries []Entry) error {
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
		if err := s.recreate(ctx, tx, name); err != nil {
			return err
		}
		return s.insert(ctx, tx, name, entries)
	})
}

func (s *postgresStore) Query(ctx context.Context, name string, vector []float32, k int) ([]Hit, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 3
	}
	lock := s.locks.get(name)
	lock.RLock()
	defer lock.RUnlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM collections WHERE name = $1`, name).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, appErr.ErrNotFound
	}

	query := `SELECT document, video_title, uploader, chunk_index, embedding <=> $1 AS distance
		FROM chunks WHERE collection = $2 ORDER BY distance LIMIT $3`
	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), name, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		if err := rows.Scan(&hit.Document, &hit.Meta.VideoTitle, &hit.Meta.Uploader, &hit.Meta.ChunkIndex, &hit.Distance); err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *postgresStore) Delete(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	lock := s.locks.get(name)
	lock.Lock()
	defer lock.Unlock()
	var removed bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = $1`, name); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = $1`, name)
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

func (s *postgresStore) List(ctx context.Context) ([]string, error) {
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

func (s *postgresStore) Close() error {
	return s.db.Close()
}

func (s *postgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
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

func (s *postgresStore) recreate(ctx context.Context, tx *sql.Tx, name string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = $1`, name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = $1`, name); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO collections (name, ctime) VALUES ($1, $2)`, name, time.Now().UnixMilli())
	return err
}

func (s *postgresStore) require(ctx context.Context, tx *sql.Tx, name string) error {
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM collections WHERE name = $1`, name).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (s *postgresStore) insert(ctx context.Context, tx *sql.Tx, name string, entries []Entry) error {
	for _, entry := range entries {
		data := map[string]interface{}{
			"collection":  name,
			"chunk_id":    entry.ID,
			"document":    entry.Document,
			"video_title": entry.Meta.VideoTitle,
			"uploader":    entry.Meta.Uploader,
			"chunk_index": entry.Meta.ChunkIndex,
			"embedding":   pgvector.NewVector(entry.Vector),
		}
		sqlStr, args, err := builder.BuildInsert("chunks", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			if dbutil.IsConflict(err) {
				return fmt.Errorf("%w: duplicate chunk id %q", appErr.ErrInvalid, entry.ID)
			}
			return err
		}
	}
	return nil
}

// Package sqlite persists strategies in a SQLite database and mirrors the
// table into memory so queries stay live.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"algocrafter/internal/domain/model"
	"algocrafter/internal/domain/repository"
	"algocrafter/internal/flow"
	"algocrafter/internal/store"
	"algocrafter/logger"
)

type Options struct {
	Path        string
	SeedSamples bool
	Now         func() time.Time
}

// Repository writes through to SQLite and publishes the resulting
// collection. Writes are serialized by mu; each one commits before the
// in-memory state is updated.
type Repository struct {
	db    *sql.DB
	mu    sync.Mutex
	state *flow.MutableState[[]model.Strategy]
	views store.Views
	now   func() time.Time
	log   *logger.Entry
}

var _ repository.StrategyRepository = (*Repository)(nil)

// Open opens (or creates) the database, runs migrations and loads every row.
func Open(ctx context.Context, opts Options) (*Repository, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases stable across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &Repository{
		db:  db,
		now: opts.Now,
		log: logger.GetLogger().WithComponent("strategy_sqlite_store"),
	}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	rows, err := r.load(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load strategies: %w", err)
	}
	if len(rows) == 0 && opts.SeedSamples {
		if err := r.insertAll(ctx, store.SampleStrategies(opts.Now())); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed strategies: %w", err)
		}
		// Read the seed back so the mirror holds the decoded form.
		if rows, err = r.load(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("load seeded strategies: %w", err)
		}
	}

	r.state = flow.NewMutableState(rows)
	r.views = store.NewViews(r.state)
	r.log.WithFields(logger.Fields{"path": opts.Path, "strategies": len(rows)}).Info("sqlite strategy store opened")
	return r, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS strategies (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type        TEXT NOT NULL,
			is_active   INTEGER NOT NULL DEFAULT 1,
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL,
			parameters  TEXT NOT NULL DEFAULT '{}',
			tags        TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_strategies_active ON strategies(is_active)`,
	}
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

const selectStrategies = `SELECT id, name, description, type, is_active, created_at, updated_at, parameters, tags
	FROM strategies ORDER BY rowid`

func (r *Repository) load(ctx context.Context) ([]model.Strategy, error) {
	rows, err := r.db.QueryContext(ctx, selectStrategies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Strategy{}
	for rows.Next() {
		var (
			s                  model.Strategy
			active             int
			created, updated   int64
			params, tags, kind string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &kind, &active, &created, &updated, &params, &tags); err != nil {
			return nil, err
		}
		s.Type = model.StrategyType(kind)
		s.IsActive = active != 0
		s.CreatedAt = time.Unix(0, created).UTC()
		s.UpdatedAt = time.Unix(0, updated).UTC()
		if s.Parameters, err = decodeParams(params); err != nil {
			return nil, fmt.Errorf("decode parameters of %s: %w", s.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const upsertStrategy = `INSERT INTO strategies
	(id, name, description, type, is_active, created_at, updated_at, parameters, tags)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		type = excluded.type,
		is_active = excluded.is_active,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		parameters = excluded.parameters,
		tags = excluded.tags`

func upsert(ctx context.Context, tx *sql.Tx, s model.Strategy) error {
	params, err := json.Marshal(nonNilParams(s.Parameters))
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	tags, err := json.Marshal(nonNilTags(s.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	active := 0
	if s.IsActive {
		active = 1
	}
	_, err = tx.ExecContext(ctx, upsertStrategy,
		s.ID, s.Name, s.Description, string(s.Type), active,
		s.CreatedAt.UnixNano(), s.UpdatedAt.UnixNano(), string(params), string(tags))
	return err
}

// decodeParams reads integral numbers back as int and every other number as
// float64, so a value saved as 20 does not return as 20.0.
func decodeParams(raw string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var params map[string]interface{}
	if err := dec.Decode(&params); err != nil {
		return nil, err
	}
	for k, v := range params {
		params[k] = normalizeNumbers(v)
	}
	return params, nil
}

func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	default:
		return v
	}
}

// canonicalParams is p as it will read back from the table.
func canonicalParams(p map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(nonNilParams(p))
	if err != nil {
		return nil, fmt.Errorf("encode parameters: %w", err)
	}
	return decodeParams(string(raw))
}

func nonNilParams(p map[string]interface{}) map[string]interface{} {
	if p == nil {
		return map[string]interface{}{}
	}
	return p
}

func nonNilTags(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}

// applyFunc derives the next collection after a commit. It reports false
// when the write changed nothing, and then no value is published.
type applyFunc func([]model.Strategy) ([]model.Strategy, bool)

// inTx runs fn in a transaction under the writer lock and, after commit,
// publishes apply(current) as the new collection.
func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error, apply applyFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inTxLocked(ctx, fn, apply)
}

func (r *Repository) inTxLocked(ctx context.Context, fn func(tx *sql.Tx) error, apply applyFunc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if apply != nil {
		r.state.TryUpdate(apply)
	}
	return nil
}

func (r *Repository) insertAll(ctx context.Context, strategies []model.Strategy) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, s := range strategies {
			if err := upsert(ctx, tx, s); err != nil {
				return err
			}
		}
		return nil
	}, nil)
}

func (r *Repository) Strategies() flow.Observable[[]model.Strategy] { return r.views.All() }

func (r *Repository) ActiveStrategies() flow.Observable[[]model.Strategy] { return r.views.Active() }

func (r *Repository) StrategiesByType(t model.StrategyType) flow.Observable[[]model.Strategy] {
	return r.views.ByType(t)
}

func (r *Repository) Search(query string) flow.Observable[[]model.Strategy] {
	return r.views.Search(query)
}

func (r *Repository) WithTags(tags []string) flow.Observable[[]model.Strategy] {
	return r.views.WithTags(tags)
}

func (r *Repository) StrategyByID(_ context.Context, id string) (*model.Strategy, error) {
	return r.views.Find(id), nil
}

func (r *Repository) Save(ctx context.Context, s model.Strategy) (model.Strategy, error) {
	stored := s.Clone()
	params, err := canonicalParams(stored.Parameters)
	if err != nil {
		return model.Strategy{}, fmt.Errorf("save strategy %s: %w", s.ID, err)
	}
	stored.Parameters = params
	err = r.inTx(ctx, func(tx *sql.Tx) error {
		return upsert(ctx, tx, stored)
	}, func(all []model.Strategy) ([]model.Strategy, bool) {
		return store.Upsert(all, stored), true
	})
	if err != nil {
		return model.Strategy{}, fmt.Errorf("save strategy %s: %w", s.ID, err)
	}
	return stored.Clone(), nil
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM strategies WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	}, func(all []model.Strategy) ([]model.Strategy, bool) {
		if affected == 0 {
			return all, false
		}
		next, _ := store.Remove(all, id)
		return next, true
	})
	if err != nil {
		return false, fmt.Errorf("delete strategy %s: %w", id, err)
	}
	return affected > 0, nil
}

func (r *Repository) Activate(ctx context.Context, id string) (bool, error) {
	return r.setActive(ctx, id, true)
}

func (r *Repository) Deactivate(ctx context.Context, id string) (bool, error) {
	return r.setActive(ctx, id, false)
}

func (r *Repository) setActive(ctx context.Context, id string, active bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.views.Find(id)
	if current == nil {
		return false, nil
	}
	next := current.Deactivate(r.now())
	if active {
		next = current.Activate(r.now())
	}
	err := r.inTxLocked(ctx, func(tx *sql.Tx) error {
		return upsert(ctx, tx, next)
	}, func(all []model.Strategy) ([]model.Strategy, bool) {
		return store.Upsert(all, next), true
	})
	if err != nil {
		return false, fmt.Errorf("update strategy %s: %w", id, err)
	}
	return true, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM strategies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count strategies: %w", err)
	}
	return n, nil
}

func (r *Repository) ActiveCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM strategies WHERE is_active = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active strategies: %w", err)
	}
	return n, nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/vitos/hyper_copy_trade/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sync_cycles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at DATETIME NOT NULL,
			scale_ratio TEXT NOT NULL,
			executed BOOLEAN NOT NULL DEFAULT 0,
			orders_placed INTEGER NOT NULL DEFAULT 0,
			orders_cancelled INTEGER NOT NULL DEFAULT 0,
			errors INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS sync_actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			coin TEXT NOT NULL,
			side TEXT,
			size TEXT,
			order_id INTEGER,
			error TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sync_actions_cycle ON sync_actions(cycle_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

// SyncRepository implementation

func (s *SQLiteStore) SaveCycle(ctx context.Context, cycle *domain.SyncCycle) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_cycles (started_at, scale_ratio, executed, orders_placed, orders_cancelled, errors)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cycle.StartedAt, cycle.ScaleRatio.String(), cycle.Executed,
		cycle.OrdersPlaced, cycle.OrdersCancelled, cycle.Errors)
	if err != nil {
		return err
	}

	cycleID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cycle.ID = cycleID

	for i := range cycle.Actions {
		a := &cycle.Actions[i]
		a.CycleID = cycleID
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO sync_actions (cycle_id, kind, coin, side, size, order_id, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			cycleID, a.Kind, a.Coin, string(a.Side), a.Size.String(), a.OrderID, a.Err); err != nil {
			return err
		}
	}

	return nil
}

func (s *SQLiteStore) ListCycles(ctx context.Context, limit int) ([]*domain.SyncCycle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, scale_ratio, executed, orders_placed, orders_cancelled, errors
		 FROM sync_cycles ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []*domain.SyncCycle
	for rows.Next() {
		var c domain.SyncCycle
		var startedAt time.Time
		var ratio string
		if err := rows.Scan(&c.ID, &startedAt, &ratio, &c.Executed,
			&c.OrdersPlaced, &c.OrdersCancelled, &c.Errors); err != nil {
			return nil, err
		}
		c.StartedAt = startedAt
		c.ScaleRatio, err = decimal.NewFromString(ratio)
		if err != nil {
			return nil, fmt.Errorf("bad scale_ratio %q: %w", ratio, err)
		}
		cycles = append(cycles, &c)
	}
	return cycles, rows.Err()
}

// ListActions returns the executed actions of one cycle.
func (s *SQLiteStore) ListActions(ctx context.Context, cycleID int64) ([]domain.SyncAction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cycle_id, kind, coin, side, size, order_id, error
		 FROM sync_actions WHERE cycle_id = ? ORDER BY id`, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []domain.SyncAction
	for rows.Next() {
		var a domain.SyncAction
		var side, size string
		if err := rows.Scan(&a.ID, &a.CycleID, &a.Kind, &a.Coin, &side, &size, &a.OrderID, &a.Err); err != nil {
			return nil, err
		}
		a.Side = domain.Side(side)
		if size != "" {
			a.Size, err = decimal.NewFromString(size)
			if err != nil {
				return nil, fmt.Errorf("bad size %q: %w", size, err)
			}
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

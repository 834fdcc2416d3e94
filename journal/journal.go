// Package journal 将成交回报与紧急平仓记录写入 SQLite，便于盘后复盘。
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"penny-mm/market"
)

// FillRecord 为一条成交记录。
type FillRecord struct {
	At               time.Time
	Ticker           market.Ticker
	Side             market.Side
	Price            float64
	Quantity         float64
	CapitalRemaining float64
	PnLDelta         float64
	Inventory        float64
}

// UnwindRecord 为一条紧急平仓记录。
type UnwindRecord struct {
	At        time.Time
	Ticker    market.Ticker
	Side      market.Side
	Size      float64
	Price     float64
	Inventory float64
	OrderID   int64
}

type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// Open 打开（或创建）日志库；path 可为 ":memory:"。
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// 内存库每个连接独立，限制为单连接
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Store{db: db, timeout: 2 * time.Second}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS fills (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at_ns INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	capital REAL NOT NULL,
	pnl_delta REAL NOT NULL,
	inventory REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS unwinds (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at_ns INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	size REAL NOT NULL,
	price REAL NOT NULL,
	inventory REAL NOT NULL,
	order_id INTEGER NOT NULL
);`)
	return err
}

// RecordFill 写入成交记录。策略回调内同步调用，使用内置超时。
func (s *Store) RecordFill(f FillRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fills (at_ns, ticker, side, price, quantity, capital, pnl_delta, inventory) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		stamp(f.At), f.Ticker.String(), f.Side.String(), f.Price, f.Quantity, f.CapitalRemaining, f.PnLDelta, f.Inventory)
	return err
}

// RecordUnwind 写入紧急平仓记录。
func (s *Store) RecordUnwind(u UnwindRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO unwinds (at_ns, ticker, side, size, price, inventory, order_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		stamp(u.At), u.Ticker.String(), u.Side.String(), u.Size, u.Price, u.Inventory, u.OrderID)
	return err
}

// Fills 按写入顺序返回某品种的成交记录。
func (s *Store) Fills(ctx context.Context, ticker market.Ticker) ([]FillRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at_ns, side, price, quantity, capital, pnl_delta, inventory FROM fills WHERE ticker = ? ORDER BY id ASC`,
		ticker.String())
	if err != nil {
		return nil, fmt.Errorf("query fills: %w", err)
	}
	defer rows.Close()

	var out []FillRecord
	for rows.Next() {
		var (
			ns   int64
			side string
			f    = FillRecord{Ticker: ticker}
		)
		if err := rows.Scan(&ns, &side, &f.Price, &f.Quantity, &f.CapitalRemaining, &f.PnLDelta, &f.Inventory); err != nil {
			return nil, err
		}
		if f.Side, err = market.ParseSide(side); err != nil {
			return nil, err
		}
		f.At = time.Unix(0, ns).UTC()
		out = append(out, f)
	}
	return out, rows.Err()
}

// Unwinds 按写入顺序返回某品种的紧急平仓记录。
func (s *Store) Unwinds(ctx context.Context, ticker market.Ticker) ([]UnwindRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT at_ns, side, size, price, inventory, order_id FROM unwinds WHERE ticker = ? ORDER BY id ASC`,
		ticker.String())
	if err != nil {
		return nil, fmt.Errorf("query unwinds: %w", err)
	}
	defer rows.Close()

	var out []UnwindRecord
	for rows.Next() {
		var (
			ns   int64
			side string
			u    = UnwindRecord{Ticker: ticker}
		)
		if err := rows.Scan(&ns, &side, &u.Size, &u.Price, &u.Inventory, &u.OrderID); err != nil {
			return nil, err
		}
		if u.Side, err = market.ParseSide(side); err != nil {
			return nil, err
		}
		u.At = time.Unix(0, ns).UTC()
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixNano()
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Handle bundles the read-only connection with per-table caches for the
// currently open database. Cache entries are written once and never
// change; the Manager discards the whole handle on swap, which is the
// only purge. Counts and rowid facts are therefore snapshots taken at
// first observation — acceptable for a read-only viewer, even if an
// external process writes the file underneath.
type Handle struct {
	db   *sql.DB
	path string

	mu        sync.Mutex
	rowCounts map[string]int64
	tableSQL  map[string]string
	hasRowid  map[string]bool
}

func newHandle(conn *sql.DB, path string) *Handle {
	return &Handle{
		db:        conn,
		path:      path,
		rowCounts: make(map[string]int64),
		tableSQL:  make(map[string]string),
		hasRowid:  make(map[string]bool),
	}
}

// Path returns the absolute path of the open database file.
func (h *Handle) Path() string { return h.path }

// Table is one entry of the sqlite_master listing.
type Table struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // "table" or "view"
	RowCount *int64 `json:"rowCount,omitempty"`
}

// Column mirrors one row of the table-info pragma.
type Column struct {
	CID       int     `json:"cid"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	NotNull   int     `json:"notnull"`
	DfltValue *string `json:"dflt_value"`
	PK        int     `json:"pk"`
}

// ListTables returns all user tables and views, tables first, each group
// sorted by name. Row counts are attached for tables only.
func (h *Handle) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY type = 'table' DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]Table, 0)
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, fmt.Errorf("scan table entry: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	for i := range tables {
		if tables[i].Type != "table" {
			continue
		}
		if n, ok := h.RowCount(ctx, tables[i].Name); ok {
			tables[i].RowCount = &n
		}
	}
	return tables, nil
}

// ValidateTable returns name iff it exists as a table or view. Every name
// spliced into SQL must pass through here first; quoting alone is not a
// whitelist.
func (h *Handle) ValidateTable(ctx context.Context, name string) (string, error) {
	var one int
	err := h.db.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE name = ? AND type IN ('table', 'view')`,
		name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return "", badRequestf("Table or view not found: %s", name)
	}
	if err != nil {
		return "", fmt.Errorf("validate table: %w", err)
	}
	return name, nil
}

// Columns returns the declared columns of a validated table, in order.
// Not cached: the pragma is cheap and keeping it fresh costs nothing.
func (h *Handle) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := h.db.QueryContext(ctx, "PRAGMA table_info("+QuoteIdentifier(table)+")")
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := make([]Column, 0)
	for rows.Next() {
		var c Column
		var dflt sql.NullString
		if err := rows.Scan(&c.CID, &c.Name, &c.Type, &c.NotNull, &dflt, &c.PK); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		if dflt.Valid {
			c.DfltValue = &dflt.String
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	return cols, nil
}

// HasRowid reports whether table carries an implicit rowid, detected by
// the WITHOUT ROWID token in its creation SQL. Views report true, which
// is harmless: callers consult this only when building rowid-keyed
// lookups, and those are gated elsewhere.
func (h *Handle) HasRowid(ctx context.Context, table string) (bool, error) {
	h.mu.Lock()
	cached, ok := h.hasRowid[table]
	h.mu.Unlock()
	if ok {
		return cached, nil
	}

	ddl, err := h.creationSQL(ctx, table)
	if err != nil {
		return false, err
	}
	result := ddl == "" || !strings.Contains(strings.ToUpper(ddl), "WITHOUT ROWID")

	h.mu.Lock()
	h.hasRowid[table] = result
	h.mu.Unlock()
	return result, nil
}

// RowCount returns the row count for table, computing it on first use.
// A failing count (a view whose body errors at runtime, say) is reported
// as absent and left uncached, so a later request may still succeed.
func (h *Handle) RowCount(ctx context.Context, table string) (int64, bool) {
	h.mu.Lock()
	cached, ok := h.rowCounts[table]
	h.mu.Unlock()
	if ok {
		return cached, true
	}

	var n int64
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdentifier(table)).Scan(&n); err != nil {
		return 0, false
	}

	h.mu.Lock()
	h.rowCounts[table] = n
	h.mu.Unlock()
	return n, true
}

// creationSQL returns the CREATE statement recorded in sqlite_master for
// table, "" when none exists. Cached, including the negative result.
func (h *Handle) creationSQL(ctx context.Context, table string) (string, error) {
	h.mu.Lock()
	cached, ok := h.tableSQL[table]
	h.mu.Unlock()
	if ok {
		return cached, nil
	}

	var ddl sql.NullString
	err := h.db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE name = ? AND type IN ('table', 'view')`,
		table).Scan(&ddl)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("creation sql: %w", err)
	}

	h.mu.Lock()
	h.tableSQL[table] = ddl.String
	h.mu.Unlock()
	return ddl.String, nil
}

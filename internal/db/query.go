package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PageRequest names the inputs of a rows-page query. Limit, offset and
// direction arrive already coerced by the HTTP layer; table and order
// column are validated here before any SQL is composed.
type PageRequest struct {
	Table   string
	OrderBy string
	Dir     string // "asc" or "desc"
	Limit   int
	Offset  int
}

// Row is one result row of a page query. Rowid is nil for tables
// declared WITHOUT ROWID.
type Row struct {
	Offset int              `json:"offset"`
	Rowid  *int64           `json:"rowid"`
	Cells  map[string]Value `json:"cells"`
}

// PageResult echoes the effective ordering, limit and offset alongside
// the rows so the UI need not re-derive them.
type PageResult struct {
	Table    string   `json:"table"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
	Limit    int      `json:"limit"`
	Offset   int      `json:"offset"`
	OrderBy  *string  `json:"orderBy"`
	OrderDir string   `json:"orderDir"`
	RowCount *int64   `json:"rowCount"`
	HasRowid bool     `json:"hasRowid"`
}

// CellRequest addresses a single cell either by result offset under the
// given ordering, or by rowid for tables that have one. Exactly one of
// Offset and Rowid must be set; Offset wins when both are.
type CellRequest struct {
	Table   string
	Column  string
	OrderBy string
	Dir     string
	Offset  *int
	Rowid   *int64
}

// CellResult carries the fully serialized value of one cell.
type CellResult struct {
	Column string `json:"column"`
	Value  Value  `json:"value"`
}

// Summary describes a table for the detail view.
type Summary struct {
	Name        string   `json:"name"`
	Columns     []Column `json:"columns"`
	HasRowid    bool     `json:"hasRowid"`
	PrimaryKeys []string `json:"primaryKeys"`
	RowCount    *int64   `json:"rowCount"`
}

// Page runs a bounded SELECT over the table and preview-serializes every
// cell. Identifiers flow only through validation and quoting; limit and
// offset are bound parameters.
func (h *Handle) Page(ctx context.Context, req PageRequest) (*PageResult, error) {
	table, err := h.ValidateTable(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	cols, err := h.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	hasRowid, err := h.HasRowid(ctx, table)
	if err != nil {
		return nil, err
	}

	orderBy, orderClause, err := resolveOrder(cols, hasRowid, req.OrderBy, req.Dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(cols))
	quoted := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		quoted[i] = QuoteIdentifier(c.Name)
	}
	selectList := strings.Join(quoted, ", ")
	if hasRowid {
		selectList = "rowid AS __rowid__, " + selectList
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + selectList + " FROM " + QuoteIdentifier(table))
	if orderClause != "" {
		sb.WriteString(" " + orderClause)
	}
	sb.WriteString(" LIMIT ? OFFSET ?")

	rows, err := h.db.QueryContext(ctx, sb.String(), req.Limit, req.Offset)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	scanWidth := len(cols)
	if hasRowid {
		scanWidth++
	}
	out := make([]Row, 0, req.Limit)
	for i := 0; rows.Next(); i++ {
		values := make([]any, scanWidth)
		ptrs := make([]any, scanWidth)
		for j := range values {
			ptrs[j] = &values[j]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := Row{Offset: req.Offset + i, Cells: make(map[string]Value, len(cols))}
		cells := values
		if hasRowid {
			if id, ok := values[0].(int64); ok {
				row.Rowid = &id
			}
			cells = values[1:]
		}
		for j, c := range cols {
			row.Cells[c.Name] = Preview(cells[j])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	result := &PageResult{
		Table:    table,
		Columns:  names,
		Rows:     out,
		Limit:    req.Limit,
		Offset:   req.Offset,
		OrderBy:  orderBy,
		OrderDir: req.Dir,
		HasRowid: hasRowid,
	}
	if n, ok := h.RowCount(ctx, table); ok {
		result.RowCount = &n
	}
	return result, nil
}

// Cell fetches one cell in its entirety. Previews truncate, so the UI
// uses this as a second round-trip to read a large text or blob whole.
func (h *Handle) Cell(ctx context.Context, req CellRequest) (*CellResult, error) {
	table, err := h.ValidateTable(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	cols, err := h.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	hasRowid, err := h.HasRowid(ctx, table)
	if err != nil {
		return nil, err
	}

	if req.Column == "" {
		return nil, badRequestf("Missing column parameter")
	}
	column, err := validateColumn(cols, req.Column)
	if err != nil {
		return nil, err
	}
	_, orderClause, err := resolveOrder(cols, hasRowid, req.OrderBy, req.Dir)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + QuoteIdentifier(column) + " FROM " + QuoteIdentifier(table))

	var arg any
	switch {
	case req.Offset != nil:
		if orderClause != "" {
			sb.WriteString(" " + orderClause)
		}
		sb.WriteString(" LIMIT 1 OFFSET ?")
		arg = *req.Offset
	case hasRowid && req.Rowid != nil:
		sb.WriteString(" WHERE rowid = ?")
		arg = *req.Rowid
	default:
		return nil, badRequestf("Missing offset or rowid parameter")
	}

	var value any
	err = h.db.QueryRowContext(ctx, sb.String(), arg).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundf("Cell not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query cell: %w", err)
	}
	return &CellResult{Column: column, Value: Full(value)}, nil
}

// TableSummary assembles the detail-view description of a table.
func (h *Handle) TableSummary(ctx context.Context, name string) (*Summary, error) {
	table, err := h.ValidateTable(ctx, name)
	if err != nil {
		return nil, err
	}
	cols, err := h.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	hasRowid, err := h.HasRowid(ctx, table)
	if err != nil {
		return nil, err
	}

	pks := make([]string, 0)
	for _, c := range cols {
		if c.PK > 0 {
			pks = append(pks, c.Name)
		}
	}

	summary := &Summary{
		Name:        table,
		Columns:     cols,
		HasRowid:    hasRowid,
		PrimaryKeys: pks,
	}
	if n, ok := h.RowCount(ctx, table); ok {
		summary.RowCount = &n
	}
	return summary, nil
}

// resolveOrder picks the effective ordering: the caller's column when
// given, the rowid when the table has one, the first declared column
// otherwise, and none at all for a column-less result. The returned name
// is echoed back to the client; the clause is ready-made SQL text.
func resolveOrder(cols []Column, hasRowid bool, orderBy, dir string) (*string, string, error) {
	direction := "ASC"
	if dir == "desc" {
		direction = "DESC"
	}

	if orderBy != "" {
		col, err := validateColumn(cols, orderBy)
		if err != nil {
			return nil, "", err
		}
		return &col, "ORDER BY " + QuoteIdentifier(col) + " " + direction, nil
	}
	if hasRowid {
		name := "rowid"
		return &name, "ORDER BY rowid " + direction, nil
	}
	if len(cols) > 0 {
		name := cols[0].Name
		return &name, "ORDER BY " + QuoteIdentifier(name) + " " + direction, nil
	}
	return nil, "", nil
}

func validateColumn(cols []Column, name string) (string, error) {
	for _, c := range cols {
		if c.Name == name {
			return name, nil
		}
	}
	return "", badRequestf("Column not found: %s", name)
}

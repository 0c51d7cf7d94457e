package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTablesOrderingAndCounts(t *testing.T) {
	h := openTestHandle(t,
		`CREATE TABLE zebra (id INTEGER)`,
		`CREATE TABLE apple (id INTEGER)`,
		`CREATE VIEW beta AS SELECT * FROM apple`,
		`CREATE VIEW alpha AS SELECT * FROM zebra`,
		`INSERT INTO apple VALUES (1), (2)`,
	)

	tables, err := h.ListTables(t.Context())
	require.NoError(t, err)

	names := make([]string, len(tables))
	for i, tb := range tables {
		names[i] = tb.Name
	}
	// Tables before views, each group by name.
	assert.Equal(t, []string{"apple", "zebra", "alpha", "beta"}, names)

	require.NotNil(t, tables[0].RowCount)
	assert.Equal(t, int64(2), *tables[0].RowCount)
	require.NotNil(t, tables[1].RowCount)
	assert.Equal(t, int64(0), *tables[1].RowCount)

	// Views carry no count.
	assert.Nil(t, tables[2].RowCount)
	assert.Nil(t, tables[3].RowCount)
}

func TestListTablesExcludesInternal(t *testing.T) {
	h := openTestHandle(t,
		`CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, v TEXT)`,
		`INSERT INTO t (v) VALUES ('x')`,
	)

	// AUTOINCREMENT creates sqlite_sequence; it must not be listed.
	tables, err := h.ListTables(t.Context())
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "t", tables[0].Name)
}

func TestValidateTable(t *testing.T) {
	h := openTestHandle(t,
		`CREATE TABLE t (id INTEGER)`,
		`CREATE VIEW v AS SELECT * FROM t`,
	)

	name, err := h.ValidateTable(t.Context(), "t")
	require.NoError(t, err)
	assert.Equal(t, "t", name)

	name, err = h.ValidateTable(t.Context(), "v")
	require.NoError(t, err)
	assert.Equal(t, "v", name)

	_, err = h.ValidateTable(t.Context(), "does_not_exist")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "Table or view not found: does_not_exist", reqErr.Msg)
}

func TestColumns(t *testing.T) {
	h := openTestHandle(t,
		`CREATE TABLE notes (
			id INTEGER PRIMARY KEY,
			body TEXT NOT NULL,
			score REAL DEFAULT 1.5
		)`,
	)

	cols, err := h.Columns(t.Context(), "notes")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, Column{CID: 0, Name: "id", Type: "INTEGER", NotNull: 0, PK: 1}, cols[0])
	assert.Equal(t, "body", cols[1].Name)
	assert.Equal(t, 1, cols[1].NotNull)
	assert.Nil(t, cols[1].DfltValue)

	require.NotNil(t, cols[2].DfltValue)
	assert.Equal(t, "1.5", *cols[2].DfltValue)
	assert.Equal(t, 0, cols[2].PK)
}

func TestHasRowid(t *testing.T) {
	h := openTestHandle(t,
		`CREATE TABLE plain (id INTEGER)`,
		`CREATE TABLE keyed (k TEXT PRIMARY KEY) WITHOUT ROWID`,
		`CREATE TABLE keyed_lower (k TEXT PRIMARY KEY) without rowid`,
		`CREATE VIEW v AS SELECT * FROM plain`,
	)

	for name, want := range map[string]bool{
		"plain":       true,
		"keyed":       false,
		"keyed_lower": false,
		"v":           true,
	} {
		got, err := h.HasRowid(t.Context(), name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestRowCountIsASnapshot(t *testing.T) {
	path := createTestDB(t,
		`CREATE TABLE t (id INTEGER)`,
		`INSERT INTO t VALUES (1)`,
	)
	h := openHandleAt(t, path)

	n, ok := h.RowCount(t.Context(), "t")
	require.True(t, ok)
	assert.Equal(t, int64(1), n)

	// An external writer grows the table; the cached count stays put
	// until the next open.
	seedDB(t, path, func(conn *sql.DB) {
		_, err := conn.Exec(`INSERT INTO t VALUES (2)`)
		require.NoError(t, err)
	})

	n, ok = h.RowCount(t.Context(), "t")
	require.True(t, ok)
	assert.Equal(t, int64(1), n)
}

func TestRowCountAbsentForBrokenView(t *testing.T) {
	path := createTestDB(t,
		`CREATE TABLE src (id INTEGER)`,
		`CREATE VIEW broken AS SELECT * FROM src`,
		`DROP TABLE src`,
	)
	h := openHandleAt(t, path)

	_, ok := h.RowCount(t.Context(), "broken")
	assert.False(t, ok)
}

package export

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
)

func setupTestAdapter(t *testing.T) (*adapter.MySQLAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := adapter.NewMySQLAdapter()
	a.SetDB(db)
	return a, mock
}

func actorRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("actor_id").OfType("INT", 0),
		sqlmock.NewColumn("first_name").OfType("VARCHAR", ""),
	).
		AddRow(1, "PENELOPE").
		AddRow(2, nil)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "sql"}, List())

	for _, name := range List() {
		e, ok := Get(name)
		require.True(t, ok, name)
		assert.Equal(t, name, e.Name())
		assert.NotEmpty(t, e.ContentType())
	}

	_, ok := Get("xml")
	assert.False(t, ok)
}

func TestSQLExporter(t *testing.T) {
	a, mock := setupTestAdapter(t)

	// Views are skipped when the table list is resolved from the catalog.
	mock.ExpectQuery(regexp.QuoteMeta("SHOW FULL TABLES FROM `sakila`")).
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_sakila", "Table_type"}).
			AddRow("actor", "BASE TABLE").
			AddRow("actor_info", "VIEW"))
	mock.ExpectQuery(regexp.QuoteMeta("SHOW CREATE TABLE `sakila`.`actor`")).
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).
			AddRow("actor", "CREATE TABLE `actor` (`actor_id` int)"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `sakila`.`actor`")).
		WillReturnRows(actorRows())

	e, ok := Get("sql")
	require.True(t, ok)

	var buf bytes.Buffer
	err := e.Export(context.Background(), &buf, a, Options{Database: "sakila"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "SET SQL_MODE = \"NO_AUTO_VALUE_ON_ZERO\";")
	assert.Contains(t, out, "SET FOREIGN_KEY_CHECKS = 0;")
	assert.Contains(t, out, "DROP TABLE IF EXISTS `actor`;")
	assert.Contains(t, out, "CREATE TABLE `actor` (`actor_id` int);")
	assert.Contains(t, out, "INSERT INTO `actor` (`actor_id`, `first_name`) VALUES\n(1, 'PENELOPE'),\n(2, NULL);")
	assert.Contains(t, out, "SET FOREIGN_KEY_CHECKS = 1;")
	assert.NotContains(t, out, "actor_info")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLExporter_EmptyTable(t *testing.T) {
	a, mock := setupTestAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SHOW CREATE TABLE `sakila`.`empty`")).
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).
			AddRow("empty", "CREATE TABLE `empty` (`id` int)"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `sakila`.`empty`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	e, _ := Get("sql")
	var buf bytes.Buffer
	err := e.Export(context.Background(), &buf, a, Options{Database: "sakila", Tables: []string{"empty"}})
	require.NoError(t, err)

	// Structure is dumped, no data section appears.
	assert.Contains(t, buf.String(), "DROP TABLE IF EXISTS `empty`;")
	assert.NotContains(t, buf.String(), "INSERT INTO")
	assert.NotContains(t, buf.String(), "Dumping data")
}

func TestCSVExporter(t *testing.T) {
	a, mock := setupTestAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `sakila`.`actor`")).
		WillReturnRows(actorRows())

	e, ok := Get("csv")
	require.True(t, ok)

	var buf bytes.Buffer
	err := e.Export(context.Background(), &buf, a, Options{Database: "sakila", Tables: []string{"actor"}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "actor_id,first_name", lines[0])
	assert.Equal(t, "1,PENELOPE", lines[1])
	assert.Equal(t, "2,NULL", lines[2])
}

func TestCSVExporter_RequiresOneTable(t *testing.T) {
	a, _ := setupTestAdapter(t)

	e, _ := Get("csv")
	err := e.Export(context.Background(), &bytes.Buffer{}, a, Options{
		Database: "sakila",
		Tables:   []string{"actor", "film"},
	})
	assert.ErrorContains(t, err, "exactly one table")
}

func TestJSONExporter(t *testing.T) {
	a, mock := setupTestAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `sakila`.`actor`")).
		WillReturnRows(actorRows())

	e, ok := Get("json")
	require.True(t, ok)

	var buf bytes.Buffer
	err := e.Export(context.Background(), &buf, a, Options{Database: "sakila", Tables: []string{"actor"}})
	require.NoError(t, err)

	var dump struct {
		Database string `json:"database"`
		Tables   []struct {
			Name string           `json:"name"`
			Rows []map[string]any `json:"rows"`
		} `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dump))

	assert.Equal(t, "sakila", dump.Database)
	require.Len(t, dump.Tables, 1)
	assert.Equal(t, "actor", dump.Tables[0].Name)
	require.Len(t, dump.Tables[0].Rows, 2)
	assert.Equal(t, "PENELOPE", dump.Tables[0].Rows[0]["first_name"])
	assert.Nil(t, dump.Tables[0].Rows[1]["first_name"])
}

func TestNewCharsetWriter(t *testing.T) {
	t.Run("utf-8 passthrough", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := NewCharsetWriter(&buf, "")
		require.NoError(t, err)
		_, err = w.Write([]byte("héllo"))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		assert.Equal(t, "héllo", buf.String())
	})

	t.Run("latin1 re-encodes", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := NewCharsetWriter(&buf, "latin1")
		require.NoError(t, err)
		_, err = w.Write([]byte("héllo"))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		assert.Equal(t, []byte{'h', 0xE9, 'l', 'l', 'o'}, buf.Bytes())
	})

	t.Run("unknown charset", func(t *testing.T) {
		_, err := NewCharsetWriter(&bytes.Buffer{}, "ebcdic")
		assert.ErrorContains(t, err, "unsupported output charset")
	})
}

package adapter

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestAdapter(t *testing.T) (*MySQLAdapter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := NewMySQLAdapter()
	a.SetDB(db)
	return a, mock
}

func TestBuildMySQLDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "tcp with defaults",
			cfg:  Config{Username: "root", Password: "pw"},
			want: "root:pw@tcp(localhost:3306)/?parseTime=true",
		},
		{
			name: "tcp with host port and database",
			cfg:  Config{Host: "db.example.com", Port: 3307, Username: "app", Password: "s3cret", Database: "shop"},
			want: "app:s3cret@tcp(db.example.com:3307)/shop?parseTime=true",
		},
		{
			name: "unix socket",
			cfg:  Config{Socket: "/var/run/mysqld/mysqld.sock", Username: "root"},
			want: "root@unix(/var/run/mysqld/mysqld.sock)/?parseTime=true",
		},
		{
			name: "extra options",
			cfg:  Config{Username: "root", Options: map[string]string{"charset": "utf8mb4"}},
			want: "root@tcp(localhost:3306)/?parseTime=true&charset=utf8mb4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildMySQLDSN(tt.cfg))
		})
	}
}

func TestMySQLAdapter_NotConnected(t *testing.T) {
	a := NewMySQLAdapter()
	ctx := context.Background()

	assert.Error(t, a.Exec(ctx, "SELECT 1"))
	_, err := a.Query(ctx, "SELECT 1")
	assert.Error(t, err)
	_, err = a.ListTables(ctx, "sakila")
	assert.Error(t, err)
	assert.NoError(t, a.Close())
}

func TestMySQLAdapter_QueryStrings(t *testing.T) {
	a, mock := setupTestAdapter(t)

	mock.ExpectQuery("SHOW DATABASES").
		WillReturnRows(sqlmock.NewRows([]string{"Database"}).
			AddRow("mysql").AddRow("sakila"))

	names, err := a.QueryStrings(context.Background(), "SHOW DATABASES")
	require.NoError(t, err)
	assert.Equal(t, []string{"mysql", "sakila"}, names)
}

func TestMySQLAdapter_QueryStrings_MultiColumn(t *testing.T) {
	a, mock := setupTestAdapter(t)

	// Only the first column is collected.
	mock.ExpectQuery("SHOW FULL TABLES").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_sakila", "Table_type"}).
			AddRow("actor", "BASE TABLE"))

	names, err := a.QueryStrings(context.Background(), "SHOW FULL TABLES FROM `sakila`")
	require.NoError(t, err)
	assert.Equal(t, []string{"actor"}, names)
}

func TestMySQLAdapter_ServerVersionAndUser(t *testing.T) {
	a, mock := setupTestAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT VERSION()")).
		WillReturnRows(sqlmock.NewRows([]string{"VERSION()"}).AddRow("8.0.36"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT CURRENT_USER()")).
		WillReturnRows(sqlmock.NewRows([]string{"CURRENT_USER()"}).AddRow("root@localhost"))

	version, err := a.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8.0.36", version)

	user, err := a.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "root@localhost", user)
}

func TestMySQLAdapter_ListTables(t *testing.T) {
	a, mock := setupTestAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta("SHOW FULL TABLES FROM `sakila`")).
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_sakila", "Table_type"}).
			AddRow("actor", "BASE TABLE").
			AddRow("actor_info", "VIEW"))

	tables, err := a.ListTables(context.Background(), "sakila")
	require.NoError(t, err)
	assert.Equal(t, []Table{
		{Name: "actor", Type: "BASE TABLE"},
		{Name: "actor_info", Type: "VIEW"},
	}, tables)
}

func TestMySQLAdapter_TableColumns(t *testing.T) {
	a, mock := setupTestAdapter(t)

	cols := []string{"Field", "Type", "Collation", "Null", "Key", "Default", "Extra", "Privileges", "Comment"}
	mock.ExpectQuery(regexp.QuoteMeta("SHOW FULL COLUMNS FROM `actor` FROM `sakila`")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("actor_id", "smallint unsigned", nil, "NO", "PRI", nil, "auto_increment", "select", "").
			AddRow("first_name", "varchar(45)", "utf8mb4_general_ci", "NO", "", nil, "", "select", "").
			AddRow("last_update", "timestamp", nil, "YES", "", "CURRENT_TIMESTAMP", "", "select", "when"))

	columns, err := a.TableColumns(context.Background(), "sakila", "actor")
	require.NoError(t, err)
	require.Len(t, columns, 3)

	assert.Equal(t, "actor_id", columns[0].Name)
	assert.Equal(t, "PRI", columns[0].Key)
	assert.Equal(t, "auto_increment", columns[0].Extra)
	assert.False(t, columns[0].Nullable)
	assert.Nil(t, columns[0].Default)

	assert.Equal(t, "utf8mb4_general_ci", columns[1].Collation)

	assert.True(t, columns[2].Nullable)
	require.NotNil(t, columns[2].Default)
	assert.Equal(t, "CURRENT_TIMESTAMP", *columns[2].Default)
	assert.Equal(t, "when", columns[2].Comment)
}

func TestMySQLAdapter_TableColumns_NotFound(t *testing.T) {
	a, mock := setupTestAdapter(t)

	cols := []string{"Field", "Type", "Collation", "Null", "Key", "Default", "Extra", "Privileges", "Comment"}
	mock.ExpectQuery("SHOW FULL COLUMNS").
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := a.TableColumns(context.Background(), "sakila", "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestMySQLAdapter_TableStatus(t *testing.T) {
	a, mock := setupTestAdapter(t)

	// Column picking by name handles the version-dependent layout.
	mock.ExpectQuery(regexp.QuoteMeta("SHOW TABLE STATUS FROM `sakila` LIKE 'actor'")).
		WillReturnRows(sqlmock.NewRows([]string{"Name", "Engine", "Version", "Rows", "Data_length", "Collation", "Comment"}).
			AddRow("actor", "InnoDB", "10", "200", "16384", "utf8mb4_general_ci", ""))

	status, err := a.TableStatus(context.Background(), "sakila", "actor")
	require.NoError(t, err)
	assert.Equal(t, &TableStatus{
		Name:       "actor",
		Engine:     "InnoDB",
		Rows:       200,
		DataLength: 16384,
		Collation:  "utf8mb4_general_ci",
	}, status)
}

func TestMySQLAdapter_TableStatus_EscapesWildcards(t *testing.T) {
	a, mock := setupTestAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SHOW TABLE STATUS FROM ` + "`shop`" + ` LIKE 'order\\_items'`)).
		WillReturnRows(sqlmock.NewRows([]string{"Name", "Engine"}).
			AddRow("order_items", "InnoDB"))

	status, err := a.TableStatus(context.Background(), "shop", "order_items")
	require.NoError(t, err)
	assert.Equal(t, "order_items", status.Name)
}

func TestMySQLAdapter_ShowCreateTable(t *testing.T) {
	a, mock := setupTestAdapter(t)

	create := "CREATE TABLE `actor` (\n  `actor_id` smallint unsigned NOT NULL\n)"
	mock.ExpectQuery(regexp.QuoteMeta("SHOW CREATE TABLE `sakila`.`actor`")).
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).
			AddRow("actor", create))

	got, err := a.ShowCreateTable(context.Background(), "sakila", "actor")
	require.NoError(t, err)
	assert.Equal(t, create, got)
}

func TestRegistry(t *testing.T) {
	assert.True(t, IsRegistered("mysql"))
	assert.Contains(t, List(), "mysql")

	a, err := New("mysql")
	require.NoError(t, err)
	assert.IsType(t, &MySQLAdapter{}, a)

	_, err = New("oracle")
	require.Error(t, err)
	var unknown *UnknownAdapterError
	assert.ErrorAs(t, err, &unknown)
}

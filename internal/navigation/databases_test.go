package navigation

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
	"github.com/MysticExotic/phpmyadmin/internal/config"
)

func defaultNav() config.NavigationConfig {
	return config.NavigationConfig{
		TreeEnableGrouping: true,
		TreeDbSeparator:    "_",
		MaxNavigationItems: 50,
	}
}

func setupTestLister(t *testing.T, server *config.ServerConfig, nav config.NavigationConfig) (*DatabaseLister, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := adapter.NewMySQLAdapter()
	a.SetDB(db)

	lister, err := NewDatabaseLister(a, server, nav)
	require.NoError(t, err)
	return lister, mock
}

func nameRows(names ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"Database"})
	for _, n := range names {
		rows.AddRow(n)
	}
	return rows
}

func TestDatabaseLister_WhereClause(t *testing.T) {
	tests := []struct {
		name        string
		hideDB      string
		search      string
		includeHide bool
		want        string
	}{
		{
			name: "no filters",
			want: "TRUE",
		},
		{
			name:   "search only",
			search: "shop",
			want:   "TRUE AND `SCHEMA_NAME` LIKE '%shop%'",
		},
		{
			name:   "search with wildcards escaped",
			search: "my_db",
			want:   `TRUE AND ` + "`SCHEMA_NAME`" + ` LIKE '%my\\_db%'`,
		},
		{
			name:        "hide only",
			hideDB:      "^secret",
			includeHide: true,
			want:        "TRUE AND NOT (`SCHEMA_NAME` REGEXP '^secret')",
		},
		{
			name:   "hide not requested",
			hideDB: "^secret",
			want:   "TRUE",
		},
		{
			name:        "search and hide",
			search:      "shop",
			hideDB:      "^secret",
			includeHide: true,
			want:        "TRUE AND `SCHEMA_NAME` LIKE '%shop%' AND NOT (`SCHEMA_NAME` REGEXP '^secret')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &config.ServerConfig{Host: "localhost", HideDB: tt.hideDB}
			lister, _ := setupTestLister(t, server, defaultNav())

			got := lister.whereClause("SCHEMA_NAME", tt.search, tt.includeHide)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseLister_InformationSchema_Ungrouped(t *testing.T) {
	nav := defaultNav()
	nav.TreeEnableGrouping = false
	server := &config.ServerConfig{Host: "localhost"}
	lister, mock := setupTestLister(t, server, nav)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `SCHEMA_NAME` FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE TRUE ORDER BY `SCHEMA_NAME` ASC LIMIT 0, 50")).
		WillReturnRows(nameRows("mysql", "sakila"))

	entries, err := lister.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "mysql"}, {Name: "sakila"}}, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseLister_InformationSchema_Grouped(t *testing.T) {
	server := &config.ServerConfig{Host: "localhost"}
	lister, mock := setupTestLister(t, server, defaultNav())

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `DB_first_level` FROM (SELECT DISTINCT SUBSTRING_INDEX(`SCHEMA_NAME`, '_', 1) `DB_first_level` FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE TRUE) t ORDER BY `DB_first_level` ASC LIMIT 0, 50")).
		WillReturnRows(nameRows("app", "mysql", "test"))

	mock.ExpectQuery(regexp.QuoteMeta(
		"IN ('app', 'mysql', 'test') GROUP BY `DB_first_level` ORDER BY `DB_first_level` ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"DB_first_level", "COUNT(*)", "MIN(`SCHEMA_NAME`)"}).
			AddRow("app", 2, "app_crm").
			AddRow("mysql", 1, "mysql").
			AddRow("test", 1, "test_old"))

	entries, err := lister.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		// two members fold into a group
		{Name: "app", IsGroup: true, Count: 2},
		// a database spelled exactly like its prefix stays plain
		{Name: "mysql"},
		// one member that is not the prefix itself still groups
		{Name: "test", IsGroup: true, Count: 1},
	}, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseLister_InformationSchema_Count(t *testing.T) {
	tests := []struct {
		name     string
		grouping bool
		query    string
	}{
		{
			name:     "grouped counts distinct prefixes",
			grouping: true,
			query:    "SELECT COUNT(DISTINCT SUBSTRING_INDEX(`SCHEMA_NAME`, '_', 1)) FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE TRUE",
		},
		{
			name:  "ungrouped counts rows",
			query: "SELECT COUNT(*) FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE TRUE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := defaultNav()
			nav.TreeEnableGrouping = tt.grouping
			server := &config.ServerConfig{Host: "localhost"}
			lister, mock := setupTestLister(t, server, nav)

			mock.ExpectQuery(regexp.QuoteMeta(tt.query)).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

			total, err := lister.Count(context.Background(), "")
			require.NoError(t, err)
			assert.Equal(t, 7, total)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDatabaseLister_ShowDatabases(t *testing.T) {
	nav := defaultNav()
	nav.TreeEnableGrouping = false
	nav.MaxNavigationItems = 2
	server := &config.ServerConfig{Host: "localhost", DisableIS: true, HideDB: "^hidden"}
	lister, mock := setupTestLister(t, server, nav)

	// The hide filter rides along in the WHERE clause here.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SHOW DATABASES WHERE TRUE AND NOT (`Database` REGEXP '^hidden')")).
		WillReturnRows(nameRows("delta", "alpha", "charlie", "bravo"))

	entries, err := lister.List(context.Background(), "", 2)
	require.NoError(t, err)
	// Sorted in memory, second page of two.
	assert.Equal(t, []Entry{{Name: "charlie"}, {Name: "delta"}}, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseLister_ShowDatabases_PastEnd(t *testing.T) {
	nav := defaultNav()
	nav.TreeEnableGrouping = false
	server := &config.ServerConfig{Host: "localhost", DisableIS: true}
	lister, mock := setupTestLister(t, server, nav)

	mock.ExpectQuery("SHOW DATABASES WHERE TRUE").
		WillReturnRows(nameRows("only"))

	entries, err := lister.List(context.Background(), "", 100)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDatabaseLister_OnlyDB(t *testing.T) {
	nav := defaultNav()
	nav.TreeEnableGrouping = false
	server := &config.ServerConfig{
		Host:   "localhost",
		OnlyDB: []string{"app\\_%", "legacy"},
		HideDB: "_old$",
	}
	lister, mock := setupTestLister(t, server, nav)

	// One enumerate per allow-list pattern, in order.
	mock.ExpectQuery(regexp.QuoteMeta(`SHOW DATABASES LIKE 'app\\_%'`)).
		WillReturnRows(nameRows("app_crm", "app_shop", "app_crm_old"))
	mock.ExpectQuery(regexp.QuoteMeta("SHOW DATABASES LIKE 'legacy'")).
		WillReturnRows(nameRows("legacy", "app_crm"))

	entries, err := lister.List(context.Background(), "", 0)
	require.NoError(t, err)
	// app_crm_old removed by the post-fetch hide filter, the duplicate
	// app_crm from the second pattern deduplicated.
	assert.Equal(t, []Entry{{Name: "app_crm"}, {Name: "app_shop"}, {Name: "legacy"}}, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseLister_OnlyDB_Search(t *testing.T) {
	nav := defaultNav()
	nav.TreeEnableGrouping = false
	server := &config.ServerConfig{Host: "localhost", OnlyDB: []string{"%"}}
	lister, mock := setupTestLister(t, server, nav)

	mock.ExpectQuery(regexp.QuoteMeta("SHOW DATABASES LIKE '%'")).
		WillReturnRows(nameRows("Sales", "warehouse", "salad"))

	// Search is applied after fetching, case-insensitive.
	entries, err := lister.List(context.Background(), "SAL", 0)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Name: "Sales"}, {Name: "salad"}}, entries)
}

func TestDatabaseLister_CountInMemory(t *testing.T) {
	server := &config.ServerConfig{Host: "localhost", DisableIS: true}
	lister, mock := setupTestLister(t, server, defaultNav())

	mock.ExpectQuery("SHOW DATABASES WHERE TRUE").
		WillReturnRows(nameRows("app_crm", "app_shop", "mysql", "test"))

	total, err := lister.Count(context.Background(), "")
	require.NoError(t, err)
	// app folds into one group; mysql and test stay separate.
	assert.Equal(t, 3, total)
}

func TestFirstLevelPrefix(t *testing.T) {
	tests := []struct {
		name string
		sep  string
		want string
	}{
		{name: "app_crm", sep: "_", want: "app"},
		{name: "plain", sep: "_", want: "plain"},
		{name: "a__b", sep: "__", want: "a"},
		{name: "_leading", sep: "_", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, firstLevelPrefix(tt.name, tt.sep), tt.name)
	}
}

func TestGroupEntry(t *testing.T) {
	assert.Equal(t, Entry{Name: "app", IsGroup: true, Count: 3}, groupEntry("app", 3, "app_a"))
	assert.Equal(t, Entry{Name: "solo", IsGroup: true, Count: 1}, groupEntry("solo", 1, "solo_x"))
	assert.Equal(t, Entry{Name: "mysql"}, groupEntry("mysql", 1, "mysql"))
}

func TestAttachEntries(t *testing.T) {
	root := New("root", Container)
	AttachEntries(root, []Entry{
		{Name: "app", IsGroup: true, Count: 2},
		{Name: "mysql"},
	})

	require.Len(t, root.Children(), 2)
	assert.True(t, root.Children()[0].IsGroup)
	assert.Equal(t, "app", root.Children()[0].Name)
	assert.False(t, root.Children()[1].IsGroup)
	assert.Equal(t, "database", root.Children()[1].Icon)
}

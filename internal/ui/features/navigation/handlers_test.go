package navigation

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
	"github.com/MysticExotic/phpmyadmin/internal/auth"
	"github.com/MysticExotic/phpmyadmin/internal/config"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

func setupTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	a := adapter.NewMySQLAdapter()
	a.SetDB(db)

	orig := common.Connect
	common.Connect = func(_ context.Context, _ *common.RequestAuth) (adapter.Adapter, error) {
		return a, nil
	}
	t.Cleanup(func() { common.Connect = orig })

	settings := common.NewSettings(&config.Config{
		Servers: []config.ServerConfig{
			{Name: "primary", Host: "localhost", AuthType: config.AuthTypeCookie},
		},
		Navigation: config.NavigationConfig{
			TreeEnableGrouping: true,
			TreeDbSeparator:    "_",
			MaxNavigationItems: 50,
		},
	})
	return NewHandlers(settings, slog.New(slog.DiscardHandler)), mock
}

func authedRequest(target string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	ra := &common.RequestAuth{
		ServerID: 1,
		Server:   &config.ServerConfig{Name: "primary", Host: "localhost"},
		Creds:    auth.Credentials{Username: "root"},
	}
	return r.WithContext(common.WithAuth(r.Context(), ra))
}

func TestDatabases(t *testing.T) {
	h, mock := setupTestHandlers(t)

	firstLevel := "SUBSTRING_INDEX(`SCHEMA_NAME`, '_', 1)"
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `DB_first_level` FROM (SELECT DISTINCT " + firstLevel +
			" `DB_first_level` FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE TRUE) t" +
			" ORDER BY `DB_first_level` ASC LIMIT 0, 50")).
		WillReturnRows(sqlmock.NewRows([]string{"DB_first_level"}).
			AddRow("app").AddRow("mysql"))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT " + firstLevel + " `DB_first_level`, COUNT(*), MIN(`SCHEMA_NAME`)" +
			" FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE TRUE AND " + firstLevel +
			" IN ('app', 'mysql') GROUP BY `DB_first_level` ORDER BY `DB_first_level` ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"DB_first_level", "COUNT(*)", "MIN(`SCHEMA_NAME`)"}).
			AddRow("app", 2, "app_crm").
			AddRow("mysql", 1, "mysql"))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(DISTINCT " + firstLevel + ") FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectClose()

	rec := httptest.NewRecorder()
	h.Databases(rec, authedRequest("/api/navigation/databases"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DatabasesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "app", resp.Items[0].Name)
	assert.True(t, resp.Items[0].IsGroup)
	assert.Equal(t, 2, resp.Items[0].Count)
	assert.Equal(t, "mysql", resp.Items[1].Name)
	assert.False(t, resp.Items[1].IsGroup)
	assert.NotEmpty(t, resp.Items[1].Real)

	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 0, resp.Pos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabases_Unauthenticated(t *testing.T) {
	settings := common.NewSettings(&config.Config{
		Servers: []config.ServerConfig{
			{Name: "primary", Host: "localhost", AuthType: config.AuthTypeCookie},
		},
	})
	h := NewHandlers(settings, slog.New(slog.DiscardHandler))

	rec := httptest.NewRecorder()
	h.Databases(rec, httptest.NewRequest(http.MethodGet, "/api/navigation/databases", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not authenticated", body.Error)
}

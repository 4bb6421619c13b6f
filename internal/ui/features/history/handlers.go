package history

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MysticExotic/phpmyadmin/internal/state"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

// Handlers provides HTTP handlers for per-user state.
type Handlers struct {
	store  state.Store
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store state.Store, logger *slog.Logger) *Handlers {
	return &Handlers{store: store, logger: logger}
}

// Entry is one history item in responses.
type Entry struct {
	Database  string    `json:"db"`
	SQL       string    `json:"sql"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the query history, newest first.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.store.ListHistory(ra.ServerID, ra.Creds.Username, limit)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Database: e.Database, SQL: e.SQL, CreatedAt: e.CreatedAt}
	}
	common.WriteJSON(w, http.StatusOK, out)
}

// Clear drops the query history of the authenticated user.
func (h *Handlers) Clear(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.store.ClearHistory(ra.ServerID, ra.Creds.Username); err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// Recent returns the recently used tables.
func (h *Handlers) Recent(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	refs, err := h.store.RecentTables(ra.ServerID, ra.Creds.Username)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	common.WriteJSON(w, http.StatusOK, refs)
}

// Favorites returns the favorite tables.
func (h *Handlers) Favorites(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	refs, err := h.store.FavoriteTables(ra.ServerID, ra.Creds.Username)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	common.WriteJSON(w, http.StatusOK, refs)
}

// AddFavorite adds a table to the favorites.
func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.modifyFavorite(w, r, h.store.AddFavoriteTable)
}

// RemoveFavorite removes a table from the favorites.
func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.modifyFavorite(w, r, h.store.RemoveFavoriteTable)
}

func (h *Handlers) modifyFavorite(w http.ResponseWriter, r *http.Request, op func(int, string, state.TableRef) error) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var ref state.TableRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ref.Database == "" || ref.Table == "" {
		common.WriteError(w, http.StatusBadRequest, "db and table are required")
		return
	}
	if err := op(ra.ServerID, ra.Creds.Username, ref); err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	common.WriteJSON(w, http.StatusOK, ref)
}

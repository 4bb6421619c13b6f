package navigation

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MysticExotic/phpmyadmin/internal/navigation"
	"github.com/MysticExotic/phpmyadmin/internal/ui/features/common"
)

// Handlers provides HTTP handlers for the navigation tree.
type Handlers struct {
	settings *common.Settings
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(settings *common.Settings, logger *slog.Logger) *Handlers {
	return &Handlers{settings: settings, logger: logger}
}

// Item is one rendered tree entry.
type Item struct {
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`
	Count   int    `json:"count,omitempty"`

	// Real and Virtual are the node path encodings the UI echoes back
	// when expanding or paginating below this node.
	Real    string `json:"real_path"`
	Virtual string `json:"virtual_path"`
}

// DatabasesResponse is one page of the database level of the tree.
type DatabasesResponse struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
	Pos   int    `json:"pos"`
}

// Databases returns one page of database entries, grouped according to the
// navigation settings.
func (h *Handlers) Databases(w http.ResponseWriter, r *http.Request) {
	ra, ok := common.AuthFrom(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	search := r.URL.Query().Get("search")
	pos, _ := strconv.Atoi(r.URL.Query().Get("pos"))
	if pos < 0 {
		pos = 0
	}

	conn, err := common.Connect(r.Context(), ra)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer func() { _ = conn.Close() }()

	lister, err := navigation.NewDatabaseLister(conn, ra.Server, h.settings.Get().Navigation)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entries, err := lister.List(r.Context(), search, pos)
	if err != nil {
		h.logger.Error("database listing failed", "error", err)
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := lister.Count(r.Context(), search)
	if err != nil {
		h.logger.Error("database count failed", "error", err)
		common.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	root := navigation.New("root", navigation.Container)
	navigation.AttachEntries(root, entries)

	items := make([]Item, 0, len(entries))
	for i, node := range root.Children() {
		paths := node.GetPaths()
		items = append(items, Item{
			Name:    node.Name,
			IsGroup: node.IsGroup,
			Count:   entries[i].Count,
			Real:    paths.Real,
			Virtual: paths.Virtual,
		})
	}

	common.WriteJSON(w, http.StatusOK, DatabasesResponse{Items: items, Total: total, Pos: pos})
}

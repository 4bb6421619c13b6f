package navigation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/MysticExotic/phpmyadmin/internal/adapter"
	"github.com/MysticExotic/phpmyadmin/internal/config"
)

// Entry is one item on a page of database listings: either a concrete
// database or a group prefix folding several databases.
type Entry struct {
	// Name is the database name, or the group prefix for groups.
	Name string

	// IsGroup marks a prefix folding one or more databases.
	IsGroup bool

	// Count is the number of databases folded into a group, zero for
	// plain databases.
	Count int
}

// DatabaseLister returns pages of database names for the navigation tree.
// Three mutually exclusive strategies are selected from configuration:
//
//   - INFORMATION_SCHEMA.SCHEMATA when the catalog views are usable
//   - a single SHOW DATABASES with a composed WHERE clause when they are
//     disabled and no allow-list is configured
//   - one SHOW DATABASES LIKE per allow-list pattern otherwise
//
// The hide_db filter is injected into the WHERE clause for the first two
// strategies but applied after fetching for the per-pattern strategy. The
// asymmetry is intentional and mirrors how the filter has always behaved.
type DatabaseLister struct {
	adapter adapter.Adapter
	server  *config.ServerConfig
	nav     config.NavigationConfig
	hide    *regexp.Regexp
}

// NewDatabaseLister builds a lister for one server. The server's hide_db
// pattern must have been validated beforehand.
func NewDatabaseLister(a adapter.Adapter, server *config.ServerConfig, nav config.NavigationConfig) (*DatabaseLister, error) {
	hide, err := server.HideDBRegexp()
	if err != nil {
		return nil, fmt.Errorf("invalid hide_db pattern: %w", err)
	}
	return &DatabaseLister{adapter: a, server: server, nav: nav, hide: hide}, nil
}

// grouping reports whether prefix grouping applies.
func (l *DatabaseLister) grouping() bool {
	return l.nav.TreeEnableGrouping && l.nav.TreeDbSeparator != ""
}

// whereClause composes the filter applied to catalog queries. search
// matches as a literal substring; the hide_db regexp is injected when
// includeHide is set.
func (l *DatabaseLister) whereClause(column, search string, includeHide bool) string {
	parts := []string{"TRUE"}
	if search != "" {
		parts = append(parts, adapter.Backquote(column)+" LIKE "+
			adapter.QuoteString("%"+adapter.EscapeMysqlWildcards(search)+"%"))
	}
	if includeHide && l.server.HideDB != "" {
		parts = append(parts, "NOT ("+adapter.Backquote(column)+" REGEXP "+
			adapter.QuoteString(l.server.HideDB)+")")
	}
	return strings.Join(parts, " AND ")
}

// List returns one page of entries starting at offset pos.
func (l *DatabaseLister) List(ctx context.Context, search string, pos int) ([]Entry, error) {
	switch {
	case len(l.server.OnlyDB) > 0:
		names, err := l.fetchOnlyDB(ctx, search)
		if err != nil {
			return nil, err
		}
		return l.pageOf(names, pos), nil
	case l.server.DisableIS:
		names, err := l.fetchShowDatabases(ctx, search)
		if err != nil {
			return nil, err
		}
		return l.pageOf(names, pos), nil
	default:
		return l.listInformationSchema(ctx, search, pos)
	}
}

// Count returns the total number of entries matching search, for
// pagination.
func (l *DatabaseLister) Count(ctx context.Context, search string) (int, error) {
	switch {
	case len(l.server.OnlyDB) > 0:
		names, err := l.fetchOnlyDB(ctx, search)
		if err != nil {
			return 0, err
		}
		return len(l.allEntries(names)), nil
	case l.server.DisableIS:
		names, err := l.fetchShowDatabases(ctx, search)
		if err != nil {
			return 0, err
		}
		return len(l.allEntries(names)), nil
	default:
		return l.countInformationSchema(ctx, search)
	}
}

// listInformationSchema pages directly in SQL. With grouping enabled the
// page is computed over distinct first-level prefixes.
func (l *DatabaseLister) listInformationSchema(ctx context.Context, search string, pos int) ([]Entry, error) {
	clause := l.whereClause("SCHEMA_NAME", search, true)

	if !l.grouping() {
		query := fmt.Sprintf(
			"SELECT `SCHEMA_NAME` FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE %s ORDER BY `SCHEMA_NAME` ASC LIMIT %d, %d",
			clause, pos, l.nav.MaxNavigationItems)
		names, err := l.adapter.QueryStrings(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list databases: %w", err)
		}
		entries := make([]Entry, len(names))
		for i, name := range names {
			entries[i] = Entry{Name: name}
		}
		return entries, nil
	}

	sep := adapter.QuoteString(l.nav.TreeDbSeparator)
	firstLevel := "SUBSTRING_INDEX(`SCHEMA_NAME`, " + sep + ", 1)"

	query := fmt.Sprintf(
		"SELECT `DB_first_level` FROM (SELECT DISTINCT %s `DB_first_level` FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE %s) t ORDER BY `DB_first_level` ASC LIMIT %d, %d",
		firstLevel, clause, pos, l.nav.MaxNavigationItems)
	prefixes, err := l.adapter.QueryStrings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list database groups: %w", err)
	}
	if len(prefixes) == 0 {
		return nil, nil
	}

	// A second pass resolves which prefixes on the page fold several
	// databases and which are plain names.
	quoted := make([]string, len(prefixes))
	for i, p := range prefixes {
		quoted[i] = adapter.QuoteString(p)
	}
	countQuery := fmt.Sprintf(
		"SELECT %s `DB_first_level`, COUNT(*), MIN(`SCHEMA_NAME`) FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE %s AND %s IN (%s) GROUP BY `DB_first_level` ORDER BY `DB_first_level` ASC",
		firstLevel, clause, firstLevel, strings.Join(quoted, ", "))

	rows, err := l.adapter.Query(ctx, countQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count database groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0, len(prefixes))
	for rows.Next() {
		var (
			prefix string
			count  int
			first  string
		)
		if err := rows.Scan(&prefix, &count, &first); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		entries = append(entries, groupEntry(prefix, count, first))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return entries, nil
}

func (l *DatabaseLister) countInformationSchema(ctx context.Context, search string) (int, error) {
	clause := l.whereClause("SCHEMA_NAME", search, true)

	expr := "COUNT(*)"
	if l.grouping() {
		expr = "COUNT(DISTINCT SUBSTRING_INDEX(`SCHEMA_NAME`, " +
			adapter.QuoteString(l.nav.TreeDbSeparator) + ", 1))"
	}
	query := fmt.Sprintf("SELECT %s FROM `INFORMATION_SCHEMA`.`SCHEMATA` WHERE %s", expr, clause)

	rows, err := l.adapter.Query(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count databases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var total int
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, fmt.Errorf("failed to scan count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error reading count: %w", err)
	}
	return total, nil
}

// fetchShowDatabases enumerates everything in one command; paging happens
// in memory. The hide_db filter rides along in the WHERE clause.
func (l *DatabaseLister) fetchShowDatabases(ctx context.Context, search string) ([]string, error) {
	query := "SHOW DATABASES WHERE " + l.whereClause("Database", search, true)
	names, err := l.adapter.QueryStrings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate databases: %w", err)
	}
	return names, nil
}

// fetchOnlyDB issues one enumerate command per allow-list pattern. Search
// and hide_db are applied after fetching, hide_db deliberately so.
func (l *DatabaseLister) fetchOnlyDB(ctx context.Context, search string) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	lowered := strings.ToLower(search)

	for _, pattern := range l.server.OnlyDB {
		query := "SHOW DATABASES LIKE " + adapter.QuoteString(pattern)
		matched, err := l.adapter.QueryStrings(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate databases for pattern %q: %w", pattern, err)
		}
		for _, name := range matched {
			if _, dup := seen[name]; dup {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(name), lowered) {
				continue
			}
			if l.hide != nil && l.hide.MatchString(name) {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names, nil
}

// pageOf groups and paginates an in-memory name list.
func (l *DatabaseLister) pageOf(names []string, pos int) []Entry {
	entries := l.allEntries(names)
	if pos >= len(entries) {
		return nil
	}
	end := pos + l.nav.MaxNavigationItems
	if end > len(entries) {
		end = len(entries)
	}
	return entries[pos:end]
}

// allEntries folds a name list into its full ordered entry list.
func (l *DatabaseLister) allEntries(names []string) []Entry {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	if !l.grouping() {
		entries := make([]Entry, len(sorted))
		for i, name := range sorted {
			entries[i] = Entry{Name: name}
		}
		return entries
	}

	var (
		order  []string
		counts = make(map[string]int)
		firsts = make(map[string]string)
	)
	for _, name := range sorted {
		prefix := firstLevelPrefix(name, l.nav.TreeDbSeparator)
		if _, ok := counts[prefix]; !ok {
			order = append(order, prefix)
			firsts[prefix] = name
		}
		counts[prefix]++
	}

	entries := make([]Entry, len(order))
	for i, prefix := range order {
		entries[i] = groupEntry(prefix, counts[prefix], firsts[prefix])
	}
	return entries
}

// firstLevelPrefix mirrors SUBSTRING_INDEX(name, sep, 1): the part before
// the first separator, or the whole name when the separator is absent.
func firstLevelPrefix(name, sep string) string {
	if i := strings.Index(name, sep); i >= 0 {
		return name[:i]
	}
	return name
}

// groupEntry decides whether a prefix stands for a group or for the single
// database spelled exactly like it.
func groupEntry(prefix string, count int, firstMember string) Entry {
	if count > 1 || firstMember != prefix {
		return Entry{Name: prefix, IsGroup: true, Count: count}
	}
	return Entry{Name: prefix}
}

// AttachEntries builds child nodes for a page of entries under root.
func AttachEntries(root *Node, entries []Entry) {
	for _, e := range entries {
		if e.IsGroup {
			root.AddChild(NewGroup(e.Name))
			continue
		}
		n := New(e.Name, Object)
		n.Icon = "database"
		root.AddChild(n)
	}
}

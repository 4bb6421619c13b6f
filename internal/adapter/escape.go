package adapter

import "strings"

// Backquote quotes an identifier for inclusion in SQL text. Embedded
// backquotes are doubled.
func Backquote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QuoteString quotes a string literal for inclusion in SQL text. Catalog
// statements here are composed as text, so literal escaping stands in for
// parameter binding.
func QuoteString(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		"\x00", `\0`,
		"\n", `\n`,
		"\r", `\r`,
		"\x1a", `\Z`,
	)
	return "'" + r.Replace(s) + "'"
}

// EscapeMysqlWildcards escapes the LIKE wildcard characters so a value can
// be matched literally inside a LIKE pattern.
func EscapeMysqlWildcards(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `_`, `\_`, `%`, `\%`)
	return r.Replace(s)
}

// UnescapeMysqlWildcards reverses EscapeMysqlWildcards.
func UnescapeMysqlWildcards(s string) string {
	r := strings.NewReplacer(`\\`, `\`, `\_`, `_`, `\%`, `%`)
	return r.Replace(s)
}

// Package urlcipher hides sensitive query parameters. Database and table
// names, SQL text, and WHERE clauses otherwise appear verbatim in URLs,
// proxy logs, and browser history; when enabled, those parameters travel
// JSON-packed inside a single sealed parameter instead.
package urlcipher

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/MysticExotic/phpmyadmin/internal/secret"
)

// ParamName is the query parameter carrying the sealed payload.
const ParamName = "eq"

// encryptedParams is the fixed allow-list of parameter names that are
// hidden. Everything else stays plaintext.
var encryptedParams = []string{
	"db",
	"table",
	"field",
	"fields",
	"sql_query",
	"sql_signature",
	"where_clause",
	"checked_fields",
}

// Cipher seals and opens query strings with a dedicated key, separate from
// the cookie secret.
type Cipher struct {
	key *secret.Key
}

// New builds a Cipher from the configured secret. An empty secret yields a
// disabled cipher: both directions pass queries through unchanged.
func New(secretKey string) *Cipher {
	return &Cipher{key: secret.NormalizeKey(secretKey)}
}

// Enabled reports whether a key is available.
func (c *Cipher) Enabled() bool {
	return c != nil && c.key != nil
}

// EncryptQuery moves the allow-listed parameters of q into the sealed
// parameter. Parameters outside the allow-list are untouched. With no
// sensitive parameters present, q is returned as-is.
func (c *Cipher) EncryptQuery(q url.Values) (url.Values, error) {
	if !c.Enabled() {
		return q, nil
	}

	packed := make(map[string]string)
	out := url.Values{}
	for name, values := range q {
		if isEncrypted(name) && len(values) > 0 {
			packed[name] = values[0]
			continue
		}
		out[name] = values
	}
	if len(packed) == 0 {
		return q, nil
	}

	plain, err := json.Marshal(packed)
	if err != nil {
		return nil, err
	}
	sealed, err := secret.Seal(plain, c.key)
	if err != nil {
		return nil, err
	}
	out.Set(ParamName, sealed)
	return out, nil
}

// DecryptQuery restores parameters hidden by EncryptQuery. A payload that
// fails to open is dropped silently: the request proceeds without the
// hidden parameters, exactly as if they were never sent.
func (c *Cipher) DecryptQuery(q url.Values) url.Values {
	payload := q.Get(ParamName)
	if payload == "" {
		return q
	}

	out := url.Values{}
	for name, values := range q {
		if name == ParamName {
			continue
		}
		out[name] = values
	}

	if !c.Enabled() {
		return out
	}
	plain := secret.Open(payload, c.key)
	if plain == nil {
		return out
	}
	var packed map[string]string
	if err := json.Unmarshal(plain, &packed); err != nil {
		return out
	}
	for name, value := range packed {
		if isEncrypted(name) {
			out.Set(name, value)
		}
	}
	return out
}

// Middleware transparently restores hidden parameters on inbound requests.
func Middleware(c *Cipher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Has(ParamName) {
				q := c.DecryptQuery(r.URL.Query())
				r.URL.RawQuery = q.Encode()
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isEncrypted(name string) bool {
	for _, p := range encryptedParams {
		if p == name {
			return true
		}
	}
	return false
}

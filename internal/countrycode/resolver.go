// Package countrycode maps free-form destination text to ISO 3166-1 alpha-2
// country codes.
package countrycode

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/iago/trip-planner-back/internal/extract"
)

// Lookup resolves a country name remotely. An empty code with a nil error
// means the service does not know the name.
type Lookup interface {
	Lookup(ctx context.Context, name string) (string, error)
}

//go:embed countries.yaml
var countriesYAML []byte

type staticEntry struct {
	key     string
	code    string
	pattern *regexp.Regexp
}

type staticTable struct {
	exact   map[string]string
	entries []staticEntry
}

func loadStaticTable(raw []byte) (*staticTable, error) {
	var document struct {
		Countries map[string]string `yaml:"countries"`
		Cities    map[string]string `yaml:"cities"`
	}
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("decode country table: %w", err)
	}

	table := &staticTable{exact: make(map[string]string, len(document.Countries)+len(document.Cities))}
	for _, group := range []map[string]string{document.Cities, document.Countries} {
		for key, code := range group {
			normalized := strings.ToLower(strings.TrimSpace(key))
			if normalized == "" || len(code) != 2 {
				continue
			}
			table.exact[normalized] = strings.ToUpper(code)
		}
	}
	for key, code := range table.exact {
		table.entries = append(table.entries, staticEntry{
			key:     key,
			code:    code,
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`),
		})
	}
	// Longer keys first so "south korea" beats "korea".
	sort.Slice(table.entries, func(i, j int) bool {
		if len(table.entries[i].key) != len(table.entries[j].key) {
			return len(table.entries[i].key) > len(table.entries[j].key)
		}
		return table.entries[i].key < table.entries[j].key
	})
	return table, nil
}

func (t *staticTable) find(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if code, ok := t.exact[normalized]; ok {
		return code
	}
	for _, entry := range t.entries {
		if entry.pattern.MatchString(normalized) {
			return entry.code
		}
	}
	return ""
}

// Resolver memoises every resolution, misses included, for its lifetime.
type Resolver struct {
	remote Lookup
	static *staticTable
	logger *zap.SugaredLogger

	mu    sync.Mutex
	cache map[string]string
}

func NewResolver(remote Lookup, logger *zap.SugaredLogger) (*Resolver, error) {
	table, err := loadStaticTable(countriesYAML)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		remote: remote,
		static: table,
		logger: logger,
		cache:  make(map[string]string),
	}, nil
}

// Resolve returns the two-letter code for a destination such as "Tokyo, Japan".
func (r *Resolver) Resolve(ctx context.Context, location string) (string, bool) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return "", false
	}
	if isAlphaCode(trimmed) {
		return strings.ToUpper(trimmed), true
	}

	country := extract.CountryPart(trimmed)
	if country == "" {
		return "", false
	}
	key := strings.ToLower(country)

	r.mu.Lock()
	code, cached := r.cache[key]
	r.mu.Unlock()
	if cached {
		return code, code != ""
	}

	code = r.lookupRemote(ctx, country)
	if code == "" {
		code = r.static.find(country)
	}

	r.mu.Lock()
	r.cache[key] = code
	r.mu.Unlock()

	if code == "" && r.logger != nil {
		r.logger.Warnw("country code not resolved", "location", trimmed, "country", country)
	}
	return code, code != ""
}

func (r *Resolver) lookupRemote(ctx context.Context, country string) string {
	if r.remote == nil {
		return ""
	}
	code, err := r.remote.Lookup(ctx, country)
	if err != nil {
		if r.logger != nil {
			r.logger.Warnw("country api lookup failed", "country", country, "error", err)
		}
		return ""
	}
	code = strings.TrimSpace(code)
	if !isAlphaCode(code) {
		return ""
	}
	return strings.ToUpper(code)
}

func isAlphaCode(value string) bool {
	if len(value) != 2 {
		return false
	}
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

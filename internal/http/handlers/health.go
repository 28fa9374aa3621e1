package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Health pings every registered component; any failure answers 503.
func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(api.Checks))
	for name := range api.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := api.Checks[name].Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": overall, "checks": checks})
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestVisitorsAllowBurstThenThrottle(t *testing.T) {
	clients := newVisitors(1, 2)
	now := time.Now()

	if !clients.allow("10.0.0.1", now) || !clients.allow("10.0.0.1", now) {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if clients.allow("10.0.0.1", now) {
		t.Fatalf("expected third request in the same instant to be throttled")
	}
	if !clients.allow("10.0.0.2", now) {
		t.Fatalf("expected other clients to keep their own bucket")
	}
	if !clients.allow("10.0.0.1", now.Add(1100*time.Millisecond)) {
		t.Fatalf("expected token to refill after one second")
	}
}

func TestVisitorsSweepIdleClients(t *testing.T) {
	clients := newVisitors(1, 1)
	now := time.Now()
	clients.allow("old", now.Add(-10*time.Minute))
	clients.allow("fresh", now)

	clients.sweep(now)

	if _, ok := clients.items["old"]; ok {
		t.Fatalf("expected idle client to be removed")
	}
	if _, ok := clients.items["fresh"]; !ok {
		t.Fatalf("expected active client to be kept")
	}
}

func TestRateLimitWritesErrorPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := RequestID(RateLimit(ctx, 1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	for attempt, expected := range []int{http.StatusOK, http.StatusTooManyRequests} {
		request := httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil)
		request.RemoteAddr = "192.0.2.7:5555"
		request.Header.Set("X-Request-Id", "req-1")
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		if recorder.Code != expected {
			t.Fatalf("attempt %d: expected status %d, got %d", attempt, expected, recorder.Code)
		}
		if expected == http.StatusTooManyRequests {
			body := recorder.Body.String()
			if !strings.Contains(body, `"code":"rate_limited"`) || !strings.Contains(body, `"request_id":"req-1"`) {
				t.Fatalf("unexpected error body %s", body)
			}
		}
	}
}

func TestAuthRequiresBearerOnAPIRoutes(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		path   string
		header string
		status int
	}{
		{path: "/healthz", status: http.StatusNoContent},
		{path: "/v1/trips", status: http.StatusUnauthorized},
		{path: "/v1/trips", header: "Bearer wrong", status: http.StatusUnauthorized},
		{path: "/v1/trips", header: "Bearer secret", status: http.StatusNoContent},
	}
	for _, tc := range cases {
		request := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			request.Header.Set("Authorization", tc.header)
		}
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		if recorder.Code != tc.status {
			t.Fatalf("%s %q: expected status %d, got %d", tc.path, tc.header, tc.status, recorder.Code)
		}
	}
}

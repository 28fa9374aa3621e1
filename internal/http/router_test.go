package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/http/handlers"
	"github.com/iago/trip-planner-back/internal/metrics"
	"github.com/iago/trip-planner-back/internal/queue"
	"github.com/iago/trip-planner-back/internal/repository"
	"github.com/iago/trip-planner-back/internal/service"
	"github.com/iago/trip-planner-back/internal/worker"
)

type testRuntime struct {
	server *httptest.Server
	store  *repository.MemoryStore
}

// startRuntime wires the whole API on memory backends with no AI
// capabilities configured, so every pipeline takes its fallback path.
func startRuntime(t *testing.T, queueCapacity int, startWorkers bool) testRuntime {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	store := repository.NewMemoryStore()
	jobs := repository.NewMemoryJobsRepository(nil)
	recorder := metrics.New()
	deps := service.Dependencies{Jobs: jobs, Store: store, Metrics: recorder}

	local := queue.NewLocalQueue(queueCapacity)
	processor := worker.NewProcessor(local, local, jobs, worker.Config{Workers: 2}, recorder, nil)
	processor.Register(domain.JobKindItineraryGeneration, service.NewItineraryPipeline(deps))
	processor.Register(domain.JobKindItineraryModification, service.NewModificationPipeline(deps))
	processor.Register(domain.JobKindTaskGeneration, service.NewTaskPipeline(deps))
	if startWorkers {
		processor.Start(ctx)
	}

	api := handlers.NewAPI(handlers.Services{
		Jobs:           service.NewJobsService(jobs, processor, nil),
		Trips:          service.NewTripsService(store),
		Accommodations: service.NewAccommodationService(deps),
		TripNames:      service.NewTripNameService(deps),
		Capabilities:   deps.Capabilities(),
		Checks:         map[string]handlers.Pinger{"store": store, "jobs": jobs},
	}, nil)
	server := httptest.NewServer(NewRouter(ctx, RouterDependencies{
		API:            api,
		Metrics:        recorder.Handler(),
		RateLimitRPS:   20000,
		RateLimitBurst: 20000,
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
		processor.Wait()
	})
	return testRuntime{server: server, store: store}
}

func call(t *testing.T, method, url string, payload any) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}
	request, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return response.StatusCode, decoded
}

func waitForTerminal(t *testing.T, baseURL, jobID string) map[string]any {
	t.Helper()

	var body map[string]any
	require.Eventually(t, func() bool {
		var status int
		status, body = call(t, http.MethodGet, fmt.Sprintf("%s/v1/jobs/%s", baseURL, jobID), nil)
		if status != http.StatusOK {
			return false
		}
		return body["status"] == "completed" || body["status"] == "failed"
	}, 5*time.Second, 20*time.Millisecond)
	return body
}

func createTrip(t *testing.T, baseURL string) string {
	t.Helper()

	status, trip := call(t, http.MethodPost, baseURL+"/v1/trips", map[string]any{
		"destinations": []string{"Tokyo, Japan"},
		"start_date":   "2024-06-01",
		"end_date":     "2024-06-03",
		"adults_count": 2,
		"budget":       900,
		"currency":     "USD",
	})
	require.Equal(t, http.StatusCreated, status)
	tripID, _ := trip["id"].(string)
	require.NotEmpty(t, tripID)
	return tripID
}

func TestItineraryAndTaskFlows(t *testing.T) {
	runtime := startRuntime(t, 16, true)
	baseURL := runtime.server.URL
	tripID := createTrip(t, baseURL)

	status, started := call(t, http.MethodPost, baseURL+"/v1/itinerary/generate", map[string]any{"trip_id": tripID})
	require.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, "pending", started["status"])
	assert.Equal(t, "Job created", started["message"])

	job := waitForTerminal(t, baseURL, started["job_id"].(string))
	assert.Equal(t, "completed", job["status"])
	assert.Equal(t, float64(100), job["progress"])

	status, itinerary := call(t, http.MethodGet, baseURL+"/v1/trips/"+tripID+"/itinerary", nil)
	require.Equal(t, http.StatusOK, status)
	items, _ := itinerary["items"].([]any)
	require.Len(t, items, 3)
	assert.Equal(t, float64(3), items[2].(map[string]any)["day_number"])

	status, started = call(t, http.MethodPost, baseURL+"/v1/tasks/generate", map[string]any{"trip_id": tripID})
	require.Equal(t, http.StatusAccepted, status)
	job = waitForTerminal(t, baseURL, started["job_id"].(string))
	assert.Equal(t, "completed", job["status"])

	status, tasks := call(t, http.MethodGet, baseURL+"/v1/tasks/status/"+started["job_id"].(string), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Tasks generated successfully", tasks["message"])

	status, modified := call(t, http.MethodPost, baseURL+"/v1/itinerary/modify", map[string]any{
		"trip_id":      tripID,
		"modification": "make day two slower",
	})
	require.Equal(t, http.StatusAccepted, status)
	job = waitForTerminal(t, baseURL, modified["job_id"].(string))
	assert.Equal(t, "failed", job["status"])

	_, itinerary = call(t, http.MethodGet, baseURL+"/v1/trips/"+tripID+"/itinerary", nil)
	assert.Len(t, itinerary["items"], 3)
}

func TestErrorResponses(t *testing.T) {
	runtime := startRuntime(t, 4, true)
	baseURL := runtime.server.URL

	status, body := call(t, http.MethodGet, baseURL+"/v1/jobs/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)
	errorBody, _ := body["error"].(map[string]any)
	assert.Equal(t, "not_found", errorBody["code"])
	assert.NotEmpty(t, body["request_id"])

	status, _ = call(t, http.MethodPost, baseURL+"/v1/itinerary/generate", map[string]any{"trip": "x"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, http.MethodPost, baseURL+"/v1/accommodations/recommend", map[string]any{
		"trip_id":     "missing",
		"destination": "Tokyo",
	})
	assert.Equal(t, http.StatusNotFound, status)

	tripID := createTrip(t, baseURL)
	status, _ = call(t, http.MethodPost, baseURL+"/v1/accommodations/recommend", map[string]any{
		"trip_id":    tripID,
		"range_type": "cheapest",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, recommendations := call(t, http.MethodPost, baseURL+"/v1/accommodations/recommend", map[string]any{
		"trip_id":     tripID,
		"destination": "Tokyo",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, recommendations["recommendations"])
	assert.Equal(t, float64(2), recommendations["nights_count"])
}

func TestLauncherSaturation(t *testing.T) {
	runtime := startRuntime(t, 1, false)
	baseURL := runtime.server.URL
	tripID := createTrip(t, baseURL)

	status, _ := call(t, http.MethodPost, baseURL+"/v1/tasks/generate", map[string]any{"trip_id": tripID})
	require.Equal(t, http.StatusAccepted, status)

	status, body := call(t, http.MethodPost, baseURL+"/v1/tasks/generate", map[string]any{"trip_id": tripID})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	errorBody, _ := body["error"].(map[string]any)
	assert.Equal(t, "launcher_saturated", errorBody["code"])
}

func TestAgentsAndObservability(t *testing.T) {
	runtime := startRuntime(t, 4, true)
	baseURL := runtime.server.URL

	status, name := call(t, http.MethodPost, baseURL+"/v1/agents/trip-name", map[string]any{
		"destinations": []string{"Lisbon, Portugal"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Trip to Lisbon, Portugal", name["name"])
	assert.Equal(t, "An amazing adventure awaits!", name["description"])

	status, health := call(t, http.MethodGet, baseURL+"/v1/agents/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"text_generation": false, "research": false, "visa": false}, health["capabilities"])

	status, healthz := call(t, http.MethodGet, baseURL+"/healthz", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", healthz["status"])

	status, user := call(t, http.MethodPut, baseURL+"/v1/users/user-9", map[string]any{"citizenship": "PT"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PT", user["citizenship"])

	response, err := http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	defer response.Body.Close()
	raw, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, string(raw), "tripplanner_capability_fallbacks_total")
}

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config centralizes runtime settings for the API and workers.
type Config struct {
	Port   string
	AppEnv string

	AuthToken      string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int

	DatabaseURL         string
	DatabaseAutoMigrate bool

	JobRegistry      string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisJobPrefix   string
	RedisJobTTLHours int

	AIProvider        string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterSiteURL string
	OpenRouterAppName string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	AITimeoutMS       int
	AIMaxRetries      int

	ModelItineraryPrimary  string
	ModelItineraryFallback string
	ModelModifyPrimary     string
	ModelModifyFallback    string
	ModelTasksPrimary      string
	ModelTasksFallback     string
	ModelTripNamePrimary   string
	ModelTripNameFallback  string

	PerplexityAPIKey        string
	PerplexityBaseURL       string
	PerplexityModel         string
	ResearchTimeoutMS       int
	ResearchCacheTTLSeconds int
	ResearchCacheMaxEntries int

	RapidAPIKey   string
	VisaAPIURL    string
	VisaAPIHost   string
	VisaTimeoutMS int
	VisaRPS       float64

	CountryAPIURL    string
	CountryTimeoutMS int

	WorkerCount         int
	WorkerQueueCapacity int
	WorkerQueue         string
	RedisStream         string
	PromptsDir          string
}

var defaults = map[string]any{
	"PORT":    "8080",
	"APP_ENV": "production",

	"API_AUTH_TOKEN":       "",
	"CORS_ALLOWED_ORIGINS": "",
	"RATE_LIMIT_RPS":       20.0,
	"RATE_LIMIT_BURST":     40,

	"DATABASE_URL":          "",
	"DATABASE_AUTO_MIGRATE": false,

	"JOB_REGISTRY":        "",
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"REDIS_JOB_PREFIX":    "trip_jobs:",
	"REDIS_JOB_TTL_HOURS": 72,

	"AI_PROVIDER":         "openrouter",
	"OPENROUTER_API_KEY":  "",
	"OPENROUTER_BASE_URL": "https://openrouter.ai/api/v1",
	"OPENROUTER_SITE_URL": "",
	"OPENROUTER_APP_NAME": "Trip Planner",
	"OPENAI_API_KEY":      "",
	"OPENAI_BASE_URL":     "https://api.openai.com/v1",
	"AI_TIMEOUT_MS":       60000,
	"AI_MAX_RETRIES":      2,

	"MODEL_ITINERARY_PRIMARY":  "google/gemini-2.5-flash",
	"MODEL_ITINERARY_FALLBACK": "openai/gpt-4.1-mini",
	"MODEL_MODIFY_PRIMARY":     "google/gemini-2.5-flash",
	"MODEL_MODIFY_FALLBACK":    "openai/gpt-4.1-mini",
	"MODEL_TASKS_PRIMARY":      "google/gemini-2.5-flash",
	"MODEL_TASKS_FALLBACK":     "openai/gpt-4.1-mini",
	"MODEL_TRIP_NAME_PRIMARY":  "google/gemini-2.0-flash-001",
	"MODEL_TRIP_NAME_FALLBACK": "openai/gpt-4.1-nano",

	"PERPLEXITY_API_KEY":         "",
	"PERPLEXITY_BASE_URL":        "https://api.perplexity.ai",
	"PERPLEXITY_MODEL":           "sonar",
	"RESEARCH_TIMEOUT_MS":        30000,
	"RESEARCH_CACHE_TTL_SECONDS": 1800,
	"RESEARCH_CACHE_MAX_ENTRIES": 500,

	"RAPIDAPI_KEY":    "",
	"VISA_API_URL":    "https://visa-requirement.p.rapidapi.com/v2/visa/check",
	"VISA_API_HOST":   "visa-requirement.p.rapidapi.com",
	"VISA_TIMEOUT_MS": 10000,
	"VISA_RPS":        2.0,

	"COUNTRY_API_URL":    "https://restcountries.com/v3.1",
	"COUNTRY_TIMEOUT_MS": 5000,

	"WORKER_COUNT":          4,
	"WORKER_QUEUE_CAPACITY": 256,
	"WORKER_QUEUE":          "local",
	"REDIS_STREAM":          "trip_jobs",
	"PROMPTS_DIR":           "",
}

// Load reads settings from the environment, falling back to the given
// dotenv-style files. Process environment variables keep precedence.
func Load(envFiles ...string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	for _, path := range envFiles {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, err := os.Stat(trimmed); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, err
		}
		v.SetConfigFile(trimmed)
		v.SetConfigType("env")
		if err := v.MergeInConfig(); err != nil {
			return Config{}, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port:   v.GetString("PORT"),
		AppEnv: v.GetString("APP_ENV"),

		AuthToken:      v.GetString("API_AUTH_TOKEN"),
		CORSOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),

		DatabaseURL:         v.GetString("DATABASE_URL"),
		DatabaseAutoMigrate: v.GetBool("DATABASE_AUTO_MIGRATE"),

		JobRegistry:      strings.ToLower(v.GetString("JOB_REGISTRY")),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		RedisJobPrefix:   v.GetString("REDIS_JOB_PREFIX"),
		RedisJobTTLHours: v.GetInt("REDIS_JOB_TTL_HOURS"),

		AIProvider:        strings.ToLower(v.GetString("AI_PROVIDER")),
		OpenRouterAPIKey:  v.GetString("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: v.GetString("OPENROUTER_BASE_URL"),
		OpenRouterSiteURL: v.GetString("OPENROUTER_SITE_URL"),
		OpenRouterAppName: v.GetString("OPENROUTER_APP_NAME"),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:     v.GetString("OPENAI_BASE_URL"),
		AITimeoutMS:       v.GetInt("AI_TIMEOUT_MS"),
		AIMaxRetries:      v.GetInt("AI_MAX_RETRIES"),

		ModelItineraryPrimary:  v.GetString("MODEL_ITINERARY_PRIMARY"),
		ModelItineraryFallback: v.GetString("MODEL_ITINERARY_FALLBACK"),
		ModelModifyPrimary:     v.GetString("MODEL_MODIFY_PRIMARY"),
		ModelModifyFallback:    v.GetString("MODEL_MODIFY_FALLBACK"),
		ModelTasksPrimary:      v.GetString("MODEL_TASKS_PRIMARY"),
		ModelTasksFallback:     v.GetString("MODEL_TASKS_FALLBACK"),
		ModelTripNamePrimary:   v.GetString("MODEL_TRIP_NAME_PRIMARY"),
		ModelTripNameFallback:  v.GetString("MODEL_TRIP_NAME_FALLBACK"),

		PerplexityAPIKey:        v.GetString("PERPLEXITY_API_KEY"),
		PerplexityBaseURL:       v.GetString("PERPLEXITY_BASE_URL"),
		PerplexityModel:         v.GetString("PERPLEXITY_MODEL"),
		ResearchTimeoutMS:       v.GetInt("RESEARCH_TIMEOUT_MS"),
		ResearchCacheTTLSeconds: v.GetInt("RESEARCH_CACHE_TTL_SECONDS"),
		ResearchCacheMaxEntries: v.GetInt("RESEARCH_CACHE_MAX_ENTRIES"),

		RapidAPIKey:   v.GetString("RAPIDAPI_KEY"),
		VisaAPIURL:    v.GetString("VISA_API_URL"),
		VisaAPIHost:   v.GetString("VISA_API_HOST"),
		VisaTimeoutMS: v.GetInt("VISA_TIMEOUT_MS"),
		VisaRPS:       v.GetFloat64("VISA_RPS"),

		CountryAPIURL:    v.GetString("COUNTRY_API_URL"),
		CountryTimeoutMS: v.GetInt("COUNTRY_TIMEOUT_MS"),

		WorkerCount:         v.GetInt("WORKER_COUNT"),
		WorkerQueueCapacity: v.GetInt("WORKER_QUEUE_CAPACITY"),
		WorkerQueue:         strings.ToLower(strings.TrimSpace(v.GetString("WORKER_QUEUE"))),
		RedisStream:         v.GetString("REDIS_STREAM"),
		PromptsDir:          v.GetString("PROMPTS_DIR"),
	}
}

// RegistryBackend resolves which job registry implementation to build.
func (c Config) RegistryBackend() string {
	switch c.JobRegistry {
	case "memory", "postgres", "redis":
		return c.JobRegistry
	}
	if c.DatabaseURL != "" {
		return "postgres"
	}
	return "memory"
}

func (c Config) Development() bool {
	return strings.EqualFold(c.AppEnv, "development") || strings.EqualFold(c.AppEnv, "dev")
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"github.com/iago/trip-planner-back/internal/cache"
)

type ResearchRequest struct {
	// Purpose namespaces cache entries, e.g. "vaccines" or "accommodation".
	Purpose string
	Query   string
}

type ResearchResult struct {
	Text      string   `json:"text"`
	Citations []string `json:"citations,omitempty"`
}

// Researcher answers a web-grounded question with free text and citations.
type Researcher interface {
	Research(ctx context.Context, request ResearchRequest) (ResearchResult, error)
	Available() bool
}

type PerplexityClientConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

type PerplexityClient struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	converter  *md.Converter
}

func NewPerplexityClient(config PerplexityClientConfig) *PerplexityClient {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "https://api.perplexity.ai"
	}
	if strings.TrimSpace(config.Model) == "" {
		config.Model = "sonar"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &PerplexityClient{
		apiKey:     strings.TrimSpace(config.APIKey),
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		model:      strings.TrimSpace(config.Model),
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		httpClient: config.HTTPClient,
		converter:  converter,
	}
}

func (c *PerplexityClient) Available() bool {
	return c.apiKey != ""
}

func (c *PerplexityClient) Research(ctx context.Context, request ResearchRequest) (ResearchResult, error) {
	if !c.Available() {
		return ResearchResult{}, ErrProviderUnavailable
	}
	if strings.TrimSpace(request.Query) == "" {
		return ResearchResult{}, errors.New("query is required")
	}

	encoded, err := json.Marshal(map[string]any{
		"model":    c.model,
		"messages": chatMessages("", request.Query),
	})
	if err != nil {
		return ResearchResult{}, fmt.Errorf("marshal perplexity payload: %w", err)
	}

	return withRetry(ctx, c.maxRetries, "perplexity", func() (ResearchResult, error) {
		body, err := postJSON(ctx, c.httpClient, c.timeout, "perplexity", c.baseURL+"/chat/completions", map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		}, encoded)
		if err != nil {
			return ResearchResult{}, err
		}

		var raw chatCompletionsResponse
		if err := json.Unmarshal(body, &raw); err != nil {
			return ResearchResult{}, fmt.Errorf("decode perplexity response: %w", err)
		}
		text := raw.text()
		if text == "" {
			return ResearchResult{}, errors.New("perplexity response without text output")
		}

		citations := append([]string(nil), raw.Citations...)
		if len(citations) == 0 {
			for _, result := range raw.SearchResults {
				if result.URL != "" {
					citations = append(citations, result.URL)
				}
			}
		}
		return ResearchResult{Text: c.normalize(text), Citations: citations}, nil
	})
}

var htmlTagPattern = regexp.MustCompile(`(?i)</?(p|div|br|ul|ol|li|table|tr|td|th|h[1-6]|strong|em|b|i|a)\b[^>]*>`)

// normalize converts answers that came back as HTML into markdown so the
// text miners only ever see one format.
func (c *PerplexityClient) normalize(text string) string {
	if !htmlTagPattern.MatchString(text) {
		return text
	}
	converted, err := c.converter.ConvertString(text)
	if err != nil || strings.TrimSpace(converted) == "" {
		return text
	}
	return strings.TrimSpace(converted)
}

// CachedResearcher memoises answers per (purpose, query) for the cache TTL.
type CachedResearcher struct {
	next  Researcher
	cache *cache.ResponseCache
}

func NewCachedResearcher(next Researcher, responses *cache.ResponseCache) *CachedResearcher {
	return &CachedResearcher{next: next, cache: responses}
}

func (r *CachedResearcher) Available() bool {
	return r.next != nil && r.next.Available()
}

func (r *CachedResearcher) Research(ctx context.Context, request ResearchRequest) (ResearchResult, error) {
	if r.next == nil {
		return ResearchResult{}, ErrProviderUnavailable
	}
	if r.cache == nil {
		return r.next.Research(ctx, request)
	}

	signature := cache.BuildSignature(request.Purpose, request.Query)
	if entry, ok := r.cache.Get(signature); ok {
		var cached ResearchResult
		if err := json.Unmarshal(entry.Value, &cached); err == nil {
			return cached, nil
		}
	}

	result, err := r.next.Research(ctx, request)
	if err != nil {
		return ResearchResult{}, err
	}
	if encoded, err := json.Marshal(result); err == nil {
		r.cache.Set(signature, cache.Entry{Value: encoded, Source: request.Purpose})
	}
	return result, nil
}

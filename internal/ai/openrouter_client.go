package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type OpenRouterClientConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	SiteURL    string
	AppName    string
}

// OpenRouterClient talks to an OpenAI-compatible chat completions endpoint.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
	siteURL    string
	appName    string
}

func NewOpenRouterClient(config OpenRouterClientConfig) *OpenRouterClient {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "https://openrouter.ai/api/v1"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 2
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if strings.TrimSpace(config.AppName) == "" {
		config.AppName = "Trip Planner"
	}

	return &OpenRouterClient{
		apiKey:     strings.TrimSpace(config.APIKey),
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		httpClient: config.HTTPClient,
		siteURL:    strings.TrimSpace(config.SiteURL),
		appName:    strings.TrimSpace(config.AppName),
	}
}

func (c *OpenRouterClient) Available() bool {
	return c.apiKey != ""
}

func (c *OpenRouterClient) Generate(ctx context.Context, request GenerateRequest) (GenerateResult, error) {
	if !c.Available() {
		return GenerateResult{}, ErrProviderUnavailable
	}
	if strings.TrimSpace(request.Model) == "" {
		return GenerateResult{}, errors.New("model is required")
	}
	if strings.TrimSpace(request.Input) == "" {
		return GenerateResult{}, errors.New("input is required")
	}

	payload := map[string]any{
		"model":       request.Model,
		"messages":    chatMessages(request.Instructions, request.Input),
		"temperature": request.Temperature,
		"max_tokens":  request.MaxOutputTokens,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("marshal openrouter payload: %w", err)
	}

	return withRetry(ctx, c.maxRetries, "openrouter", func() (GenerateResult, error) {
		return c.callChatCompletionsAPI(ctx, encoded, request.Model)
	})
}

func (c *OpenRouterClient) callChatCompletionsAPI(
	ctx context.Context,
	payload []byte,
	requestedModel string,
) (GenerateResult, error) {
	body, err := postJSON(ctx, c.httpClient, c.timeout, "openrouter", c.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"HTTP-Referer":  c.siteURL,
		"X-Title":       c.appName,
	}, payload)
	if err != nil {
		return GenerateResult{}, err
	}

	var raw chatCompletionsResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return GenerateResult{}, fmt.Errorf("decode openrouter response: %w", err)
	}

	text := raw.text()
	if text == "" {
		return GenerateResult{}, errors.New("openrouter response without text output")
	}

	return GenerateResult{
		Text:    text,
		ModelID: firstNonEmpty(raw.Model, requestedModel),
		Usage: TokenUsage{
			InputTokens:  raw.Usage.PromptTokens,
			OutputTokens: raw.Usage.CompletionTokens,
			TotalTokens:  raw.Usage.TotalTokens,
		},
	}, nil
}

func chatMessages(instructions, input string) []map[string]string {
	messages := make([]map[string]string, 0, 2)
	if strings.TrimSpace(instructions) != "" {
		messages = append(messages, map[string]string{
			"role":    "system",
			"content": strings.TrimSpace(instructions),
		})
	}
	return append(messages, map[string]string{
		"role":    "user",
		"content": input,
	})
}

type chatCompletionsResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Citations     []string `json:"citations"`
	SearchResults []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"search_results"`
}

func (r chatCompletionsResponse) text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	switch typed := r.Choices[0].Message.Content.(type) {
	case string:
		return strings.TrimSpace(typed)
	case []any:
		fragments := make([]string, 0, len(typed))
		for _, item := range typed {
			fragment, ok := item.(map[string]any)
			if !ok {
				continue
			}
			textValue, _ := fragment["text"].(string)
			if strings.TrimSpace(textValue) == "" {
				continue
			}
			fragments = append(fragments, strings.TrimSpace(textValue))
		}
		return strings.TrimSpace(strings.Join(fragments, "\n"))
	default:
		return ""
	}
}

package countrycode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type RestCountriesConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// RestCountriesClient resolves names against the restcountries v3.1 API.
type RestCountriesClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewRestCountriesClient(config RestCountriesConfig) *RestCountriesClient {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "https://restcountries.com/v3.1"
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	return &RestCountriesClient{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		timeout:    config.Timeout,
		httpClient: config.HTTPClient,
	}
}

// Lookup tries an exact full-text match first and then a partial match.
func (c *RestCountriesClient) Lookup(ctx context.Context, name string) (string, error) {
	code, err := c.query(ctx, name, true)
	if err != nil || code != "" {
		return code, err
	}
	return c.query(ctx, name, false)
}

func (c *RestCountriesClient) query(ctx context.Context, name string, fullText bool) (string, error) {
	params := url.Values{}
	params.Set("fields", "cca2")
	if fullText {
		params.Set("fullText", "true")
	}
	endpoint := c.baseURL + "/name/" + url.PathEscape(name) + "?" + params.Encode()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build country request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call country api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read country response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("country api status %d", resp.StatusCode)
	}

	var results []struct {
		CCA2 string `json:"cca2"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("decode country response: %w", err)
	}
	for _, result := range results {
		if code := strings.TrimSpace(result.CCA2); code != "" {
			return strings.ToUpper(code), nil
		}
	}
	return "", nil
}

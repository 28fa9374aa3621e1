// Package visa queries the entry-requirement service for a passport and
// destination country pair.
package visa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrUnavailable = errors.New("visa requirement service is not configured")

type Rule struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
	Link     string `json:"link"`
}

type Registration struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Requirement is the subset of the service answer that tasks are built from.
type Requirement struct {
	PrimaryRule           Rule
	SecondaryRule         Rule
	MandatoryRegistration Registration
	PassportValidity      string
	EmbassyURL            string
}

type RuleKind int

const (
	RuleUnknown RuleKind = iota
	RuleVisaFree
	RuleVisaRequired
	RuleExpedited
)

// Kind classifies the primary rule by keyword.
func (r Requirement) Kind() RuleKind {
	name := strings.ToLower(r.PrimaryRule.Name)
	switch {
	case strings.Contains(name, "visa-free") || strings.Contains(name, "visa free"):
		return RuleVisaFree
	case strings.Contains(name, "visa required"):
		return RuleVisaRequired
	case strings.Contains(name, "visa on arrival") || strings.Contains(name, "e-visa") || strings.Contains(name, "evisa"):
		return RuleExpedited
	default:
		return RuleUnknown
	}
}

// Checker looks up the entry rules for travelling on a passport to a country.
// Both arguments are ISO 3166-1 alpha-2 codes.
type Checker interface {
	Check(ctx context.Context, passport, destination string) (Requirement, error)
	Available() bool
}

type ClientConfig struct {
	APIKey     string
	URL        string
	Host       string
	Timeout    time.Duration
	RPS        float64
	HTTPClient *http.Client
}

// Client calls the RapidAPI visa-requirement endpoint.
type Client struct {
	apiKey     string
	url        string
	host       string
	timeout    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
}

func NewClient(config ClientConfig) *Client {
	if strings.TrimSpace(config.URL) == "" {
		config.URL = "https://visa-requirement.p.rapidapi.com/v2/visa/check"
	}
	if strings.TrimSpace(config.Host) == "" {
		config.Host = "visa-requirement.p.rapidapi.com"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RPS <= 0 {
		config.RPS = 2
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	return &Client{
		apiKey:     strings.TrimSpace(config.APIKey),
		url:        strings.TrimSpace(config.URL),
		host:       strings.TrimSpace(config.Host),
		timeout:    config.Timeout,
		limiter:    rate.NewLimiter(rate.Limit(config.RPS), 1),
		httpClient: config.HTTPClient,
	}
}

func (c *Client) Available() bool {
	return c.apiKey != ""
}

func (c *Client) Check(ctx context.Context, passport, destination string) (Requirement, error) {
	if !c.Available() {
		return Requirement{}, ErrUnavailable
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Requirement{}, fmt.Errorf("visa rate limiter: %w", err)
	}

	encoded, err := json.Marshal(map[string]string{
		"passport":    strings.ToUpper(passport),
		"destination": strings.ToUpper(destination),
	})
	if err != nil {
		return Requirement{}, fmt.Errorf("marshal visa payload: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.url, bytes.NewReader(encoded))
	if err != nil {
		return Requirement{}, fmt.Errorf("build visa request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	// The service rejects Go's default user agent.
	req.Header.Set("User-Agent", "curl/8.7.1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Requirement{}, fmt.Errorf("call visa api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Requirement{}, fmt.Errorf("read visa response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Requirement{}, fmt.Errorf("visa api status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}
	return parseRequirement(body)
}

type checkResponse struct {
	Data *struct {
		Destination struct {
			PassportValidity string `json:"passport_validity"`
			EmbassyURL       string `json:"embassy_url"`
		} `json:"destination"`
		MandatoryRegistration *Registration `json:"mandatory_registration"`
		VisaRules             struct {
			PrimaryRule   *Rule `json:"primary_rule"`
			SecondaryRule *Rule `json:"secondary_rule"`
		} `json:"visa_rules"`
	} `json:"data"`
}

func parseRequirement(body []byte) (Requirement, error) {
	var raw checkResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return Requirement{}, fmt.Errorf("decode visa response: %w", err)
	}
	if raw.Data == nil {
		return Requirement{}, errors.New("visa response without data")
	}

	requirement := Requirement{
		PassportValidity: strings.TrimSpace(raw.Data.Destination.PassportValidity),
		EmbassyURL:       strings.TrimSpace(raw.Data.Destination.EmbassyURL),
	}
	if rule := raw.Data.VisaRules.PrimaryRule; rule != nil {
		requirement.PrimaryRule = trimRule(*rule)
	}
	if rule := raw.Data.VisaRules.SecondaryRule; rule != nil {
		requirement.SecondaryRule = trimRule(*rule)
	}
	if registration := raw.Data.MandatoryRegistration; registration != nil {
		requirement.MandatoryRegistration = Registration{
			Name: strings.TrimSpace(registration.Name),
			Link: strings.TrimSpace(registration.Link),
		}
	}
	return requirement, nil
}

func trimRule(rule Rule) Rule {
	return Rule{
		Name:     strings.TrimSpace(rule.Name),
		Duration: strings.TrimSpace(rule.Duration),
		Link:     strings.TrimSpace(rule.Link),
	}
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}

// Package mymemory translates through the MyMemory public API, which accepts
// at most 500 bytes of text per request.
package mymemory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	// DefaultBaseURL is the MyMemory translation endpoint.
	DefaultBaseURL = "https://api.mymemory.translated.net/get"
	// MaxQueryBytes is the largest q parameter MyMemory accepts.
	MaxQueryBytes = 500
)

// Engine calls MyMemory.
type Engine struct {
	baseURL    string
	email      string
	httpClient *http.Client
}

// Option customizes the engine.
type Option func(*Engine)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// New returns an engine. email, when set, raises the anonymous daily quota.
func New(baseURL, email string, timeout time.Duration, opts ...Option) *Engine {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	e := &Engine{baseURL: baseURL, email: strings.TrimSpace(email), httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the engine in logs.
func (e *Engine) Name() string { return "mymemory" }

type response struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// MyMemory reports the status as a number or a quoted number.
	ResponseStatus  json.RawMessage `json:"responseStatus"`
	ResponseDetails string          `json:"responseDetails"`
	QuotaFinished   bool            `json:"quotaFinished"`
}

// MaxBytes reports the per-request byte limit so callers chunk accordingly.
func (e *Engine) MaxBytes() int { return MaxQueryBytes }

// Translate issues one GET request for text.
func (e *Engine) Translate(ctx context.Context, text string, source, target language.Tag) (string, error) {
	if len(text) > MaxQueryBytes {
		return "", fmt.Errorf("mymemory: query is %d bytes, limit %d", len(text), MaxQueryBytes)
	}
	query := url.Values{
		"q":        {text},
		"langpair": {code(source) + "|" + code(target)},
	}
	if e.email != "" {
		query.Set("de", e.email)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("mymemory: build request: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mymemory: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mymemory: http %d", resp.StatusCode)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("mymemory: decode: %w", err)
	}
	if payload.QuotaFinished {
		return "", errors.New("mymemory: daily quota exhausted")
	}
	if status := parseStatus(payload.ResponseStatus); status != http.StatusOK {
		return "", fmt.Errorf("mymemory: status %d: %s", status, strings.TrimSpace(payload.ResponseDetails))
	}
	out := strings.TrimSpace(payload.ResponseData.TranslatedText)
	if out == "" {
		return "", errors.New("mymemory: empty translation")
	}
	return out, nil
}

func parseStatus(raw json.RawMessage) int {
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	status, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return status
}

func code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

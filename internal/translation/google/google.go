// Package google translates through the public Google Translate "gtx"
// endpoint. The endpoint returns a nested JSON array whose first element
// lists translated segments.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// DefaultBaseURL is the gtx single-translation endpoint.
const DefaultBaseURL = "https://translate.googleapis.com/translate_a/single"

const defaultTimeout = 30 * time.Second

// Engine calls the gtx endpoint.
type Engine struct {
	baseURL    string
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

// New returns an engine for baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Engine {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	e := &Engine{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the engine in logs.
func (e *Engine) Name() string { return "google" }

// Translate sends text as a form body so long chunks do not hit URL limits.
func (e *Engine) Translate(ctx context.Context, text string, source, target language.Tag) (string, error) {
	query := url.Values{
		"client": {"gtx"},
		"sl":     {baseCode(source)},
		"tl":     {baseCode(target)},
		"dt":     {"t"},
	}
	form := url.Values{"q": {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"?"+query.Encode(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("google translate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("google translate: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("google translate: http %d: %s", resp.StatusCode, snippet(body))
	}
	return parseResponse(body)
}

func parseResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("google translate: decode: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("google translate: empty response")
	}
	var segments [][]any
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("google translate: decode segments: %w", err)
	}
	var b strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		if piece, ok := segment[0].(string); ok {
			b.WriteString(piece)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errors.New("google translate: no translated segments")
	}
	return out, nil
}

func baseCode(tag language.Tag) string {
	if tag == language.Und {
		return "auto"
	}
	base, _ := tag.Base()
	return base.String()
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// Package openai translates with an OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DefaultModel is used when the configuration names none.
const DefaultModel = "gpt-4o-mini"

// Config holds the API settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Engine wraps a chat completion client.
type Engine struct {
	client *goopenai.Client
	model  string
}

// New returns an engine. The API key is required.
func New(cfg Config) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai translate: api key required")
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = base
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Engine{client: goopenai.NewClientWithConfig(clientCfg), model: model}, nil
}

// Name identifies the engine in logs.
func (e *Engine) Name() string { return "openai" }

// Translate asks the model for a translation of text and nothing else.
func (e *Engine) Translate(ctx context.Context, text string, source, target language.Tag) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: SystemPrompt(source, target)},
			{Role: goopenai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai translate: no choices returned")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("openai translate: empty content (finish_reason=%q)", resp.Choices[0].FinishReason)
	}
	return out, nil
}

// SystemPrompt instructs the model to translate between the named languages.
func SystemPrompt(source, target language.Tag) string {
	namer := display.English.Languages()
	return fmt.Sprintf(
		"You translate spoken dialogue from %s to %s for voice dubbing. "+
			"Reply with the translation only. Never answer questions, add notes or transliterate.",
		namer.Name(source), namer.Name(target),
	)
}

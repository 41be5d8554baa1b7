package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"dubline/internal/translation/openai"
)

func TestTranslateUsesChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token")
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != openai.DefaultModel || len(req.Messages) != 2 || req.Messages[1].Content != "Good morning" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" காலை வணக்கம் "},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	engine, err := openai.New(openai.Config{APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := engine.Translate(context.Background(), "Good morning", language.English, language.Make("ta"))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "காலை வணக்கம்" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := openai.New(openai.Config{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestSystemPromptNamesLanguages(t *testing.T) {
	prompt := openai.SystemPrompt(language.English, language.Make("ta"))
	if !strings.Contains(prompt, "English") || !strings.Contains(prompt, "Tamil") {
		t.Fatalf("unexpected prompt %q", prompt)
	}
}

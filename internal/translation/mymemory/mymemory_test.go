package mymemory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"dubline/internal/translation/mymemory"
)

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("langpair") != "en|ta" || q.Get("de") != "ops@example.com" || q.Get("q") != "hello" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"responseData":{"translatedText":"வணக்கம்","match":1},"responseStatus":200,"responseDetails":""}`))
	}))
	defer server.Close()

	got, err := mymemory.New(server.URL, "ops@example.com", 0).Translate(context.Background(), "hello", language.English, language.Make("ta"))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "வணக்கம்" {
		t.Fatalf("unexpected translation %q", got)
	}
}

func TestTranslateRejectsErrorStatus(t *testing.T) {
	bodies := []string{
		`{"responseData":{"translatedText":"QUERY LENGTH LIMIT EXCEEDED"},"responseStatus":"403","responseDetails":"QUERY LENGTH LIMIT EXCEEDED"}`,
		`{"responseData":{"translatedText":"x"},"responseStatus":200,"quotaFinished":true}`,
		`{"responseData":{"translatedText":""},"responseStatus":200}`,
		`not json`,
	}
	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		_, err := mymemory.New(server.URL, "", 0).Translate(context.Background(), "hello", language.English, language.Make("ta"))
		server.Close()
		if err == nil {
			t.Fatalf("expected error for body %s", body)
		}
	}
}

func TestTranslateRefusesOversizedQuery(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	engine := mymemory.New(server.URL, "", 0)
	if engine.MaxBytes() != mymemory.MaxQueryBytes {
		t.Fatalf("unexpected byte limit %d", engine.MaxBytes())
	}
	// 260 runes but 520 bytes.
	text := strings.Repeat("ж", 260)
	if _, err := engine.Translate(context.Background(), text, language.Russian, language.English); err == nil {
		t.Fatal("expected oversized query to be refused")
	}
	if called {
		t.Fatal("oversized query must not reach the API")
	}
}

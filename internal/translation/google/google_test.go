package google_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"

	"dubline/internal/translation/google"
)

func TestTranslateJoinsSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("client") != "gtx" || r.URL.Query().Get("sl") != "en" || r.URL.Query().Get("tl") != "ta" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("q") != "Hello. World." {
			t.Errorf("unexpected form: %v %v", r.PostForm, err)
		}
		_, _ = w.Write([]byte(`[[["வணக்கம். ","Hello. ",null,null,10],["உலகம்.","World.",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	engine := google.New(server.URL, 0)
	got, err := engine.Translate(context.Background(), "Hello. World.", language.English, language.Make("ta"))
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "வணக்கம். உலகம்." {
		t.Fatalf("unexpected translation %q", got)
	}
	if engine.Name() != "google" {
		t.Fatalf("unexpected name %q", engine.Name())
	}
}

func TestTranslateErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"quota": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		},
		"malformed": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		},
		"empty": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[[],null,"en"]`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()
			if _, err := google.New(server.URL, 0).Translate(context.Background(), "x", language.English, language.Make("ta")); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

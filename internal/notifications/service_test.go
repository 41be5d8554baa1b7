package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dubline/internal/config"
	"dubline/internal/notifications"
)

type captured struct {
	title, tags, priority, body string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
		_, _ = w.Write([]byte("topic says no"))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventJobFailed, notifications.Payload{"jobId": "x"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     []string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "completed",
			event: notifications.EventJobCompleted,
			payload: notifications.Payload{
				"input":  "/videos/Holiday Clip.mp4",
				"output": "/results/j1/Holiday Clip.ta.mp4",
			},
			expectTitle: "dubline - Job Complete",
			expectBody:  []string{"Dubbed Holiday Clip.mp4", "Holiday Clip.ta.mp4"},
			expectTags:  "dubline,job,completed",
		},
		{
			name:  "failed",
			event: notifications.EventJobFailed,
			payload: notifications.Payload{
				"jobId": "j2",
				"input": "/videos/talk.mkv",
				"error": "lip-sync failed: face not detected",
			},
			expectTitle:    "dubline - Job Failed",
			expectBody:     []string{"talk.mkv (job j2)", "face not detected"},
			expectTags:     "dubline,job,failed",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "dubline - Test",
			expectBody:     []string{"Notification system test"},
			expectTags:     "dubline,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, got := newNtfyServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = srv.URL
			svc := notifications.NewService(&cfg)

			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			if len(*got) != 1 {
				t.Fatalf("expected one request, got %d", len(*got))
			}
			req := (*got)[0]
			if req.title != tc.expectTitle || req.tags != tc.expectTags || req.priority != tc.expectPriority {
				t.Fatalf("unexpected headers %+v", req)
			}
			for _, fragment := range tc.expectBody {
				if !strings.Contains(req.body, fragment) {
					t.Fatalf("body %q missing %q", req.body, fragment)
				}
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil)
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic says no") {
		t.Fatalf("expected 403 error with body, got %v", err)
	}
}

func TestUnknownEventRejected(t *testing.T) {
	srv, got := newNtfyServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), "bogus", nil); err == nil {
		t.Fatal("expected error for unknown event")
	}
	if len(*got) != 0 {
		t.Fatalf("unknown events must not be sent, got %d requests", len(*got))
	}
}

package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"dubline/internal/config"
)

const userAgent = "dubline/0.1"

// Event identifies the kind of notification being published.
type Event string

const (
	EventJobCompleted Event = "job_completed"
	EventJobFailed    Event = "job_failed"
	EventTest         Event = "test"
)

// Payload carries event fields such as "jobId", "input", "output" and "error".
type Payload map[string]string

// Service publishes workflow events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

func format(event Event, payload Payload) (message, error) {
	input := filepath.Base(strings.TrimSpace(payload["input"]))
	switch event {
	case EventJobCompleted:
		body := fmt.Sprintf("Dubbed %s", input)
		if out := strings.TrimSpace(payload["output"]); out != "" {
			body += "\n" + out
		}
		return message{
			title: "dubline - Job Complete",
			body:  body,
			tags:  []string{"dubline", "job", "completed"},
		}, nil
	case EventJobFailed:
		var b strings.Builder
		fmt.Fprintf(&b, "Dubbing failed: %s", input)
		if id := strings.TrimSpace(payload["jobId"]); id != "" {
			fmt.Fprintf(&b, " (job %s)", id)
		}
		if detail := strings.TrimSpace(payload["error"]); detail != "" {
			b.WriteString("\n" + detail)
		}
		return message{
			title:    "dubline - Job Failed",
			body:     b.String(),
			tags:     []string{"dubline", "job", "failed"},
			priority: "high",
		}, nil
	case EventTest:
		return message{
			title:    "dubline - Test",
			body:     "Notification system test",
			tags:     []string{"dubline", "test"},
			priority: "low",
		}, nil
	default:
		return message{}, fmt.Errorf("unknown notification event %q", event)
	}
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, err := format(event, payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", msg.title)
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

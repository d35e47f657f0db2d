package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tidy/internal/config"
	"tidy/internal/runs"
)

const userAgent = "Tidy-Go/0.1.0"

// Service defines the notification surface exposed to the engine.
type Service interface {
	NotifyRunCompleted(ctx context.Context, report runs.ExecutionReport) error
	NotifyUndoCompleted(ctx context.Context, report runs.ExecutionReport) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		sendRuns:   cfg.Notifications.Runs,
		sendUndo:   cfg.Notifications.Undo,
		sendErrors: cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	sendRuns   bool
	sendUndo   bool
	sendErrors bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, report runs.ExecutionReport) error {
	if !n.sendRuns || report.Empty() || report.DryRun {
		return nil
	}

	duration := report.Duration.Round(time.Second)
	if duration <= 0 {
		duration = time.Second
	}

	var title, message string
	if report.FailedCount() == 0 {
		title = "Tidy - Run Complete"
		message = fmt.Sprintf("Organized %d files in %s", report.SucceededCount(), duration)
	} else {
		title = "Tidy - Run Complete (with errors)"
		message = fmt.Sprintf("Organized %d files, %d failed in %s",
			report.SucceededCount(), report.FailedCount(), duration)
	}

	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"tidy", string(report.Trigger), "completed"},
	})
}

func (n *ntfyService) NotifyUndoCompleted(ctx context.Context, report runs.ExecutionReport) error {
	if !n.sendUndo {
		return nil
	}

	var title, message string
	if report.FailedCount() == 0 {
		title = "Tidy - Undo Complete"
		message = fmt.Sprintf("Restored %d files", report.SucceededCount())
	} else {
		title = "Tidy - Undo Complete (with conflicts)"
		message = fmt.Sprintf("Restored %d files, %d could not be restored",
			report.SucceededCount(), report.FailedCount())
	}

	return n.send(ctx, payload{
		title:   title,
		message: message,
		tags:    []string{"tidy", "undo", "completed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "Tidy - Error",
		message:  builder.String(),
		tags:     []string{"tidy", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Tidy - Test",
		message:  "Notification system test",
		tags:     []string{"tidy", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

func (noopService) NotifyRunCompleted(context.Context, runs.ExecutionReport) error  { return nil }
func (noopService) NotifyUndoCompleted(context.Context, runs.ExecutionReport) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }

package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"formcoach/internal/config"
	"formcoach/internal/logging"
)

const userAgent = "formcoach/0.1.0"

// NewSink builds a sink backed by ntfy when a topic is configured. Without a
// topic a noop sink is returned.
func NewSink(cfg *config.Config, logger *slog.Logger) Sink {
	if cfg == nil {
		return Noop{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Noop{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Ntfy{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		logger:   logging.NewComponentLogger(logger, "notifications"),
	}
}

// Ntfy posts notices to an ntfy topic URL.
type Ntfy struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// Push delivers in the background; failures are logged.
func (n *Ntfy) Push(message string, kind Kind) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.Send(ctx, message, kind); err != nil {
			logging.WarnWithContext(n.logger, "ntfy delivery failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "notice was not delivered"),
			)
		}
	}()
}

// Flush blocks until background deliveries finish.
func (n *Ntfy) Flush() {
	n.wg.Wait()
}

type payload struct {
	title    string
	tags     []string
	priority string
}

func payloadFor(kind Kind) payload {
	switch kind {
	case KindSuccess:
		return payload{title: "FormCoach", tags: []string{"formcoach", "white_check_mark"}}
	case KindWarning:
		return payload{title: "FormCoach - Warning", tags: []string{"formcoach", "warning"}}
	case KindError:
		return payload{title: "FormCoach - Error", tags: []string{"formcoach", "rotating_light"}, priority: "high"}
	default:
		return payload{title: "FormCoach", tags: []string{"formcoach"}}
	}
}

// Send delivers one notice synchronously.
func (n *Ntfy) Send(ctx context.Context, message string, kind Kind) error {
	if n == nil || n.client == nil {
		return nil
	}
	data := payloadFor(kind)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(strings.TrimSpace(message)))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", data.title)
	req.Header.Set("Tags", strings.Join(data.tags, ","))
	if data.priority != "" {
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

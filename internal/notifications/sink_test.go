package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"formcoach/internal/config"
	"formcoach/internal/logging"
	"formcoach/internal/notifications"
)

func TestNewSinkReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	sink := notifications.NewSink(&cfg, logging.NewNop())
	if _, ok := sink.(notifications.Noop); !ok {
		t.Fatalf("expected noop sink, got %T", sink)
	}
	sink.Push("ignored", notifications.KindInfo)
	notifications.Flush(sink)
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func TestNtfyPushFormatsByKind(t *testing.T) {
	tests := []struct {
		kind     notifications.Kind
		title    string
		tags     string
		priority string
	}{
		{notifications.KindInfo, "FormCoach", "formcoach", ""},
		{notifications.KindSuccess, "FormCoach", "formcoach,white_check_mark", ""},
		{notifications.KindWarning, "FormCoach - Warning", "formcoach,warning", ""},
		{notifications.KindError, "FormCoach - Error", "formcoach,rotating_light", "high"},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			var (
				mu  sync.Mutex
				got captured
			)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				body, _ := io.ReadAll(r.Body)
				mu.Lock()
				got = captured{
					title:    r.Header.Get("Title"),
					tags:     r.Header.Get("Tags"),
					priority: r.Header.Get("Priority"),
					body:     string(body),
				}
				mu.Unlock()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			sink := notifications.NewSink(&cfg, logging.NewNop())
			sink.Push("  Camera not available  ", tc.kind)
			notifications.Flush(sink)

			mu.Lock()
			defer mu.Unlock()
			if got.title != tc.title || got.tags != tc.tags || got.priority != tc.priority {
				t.Fatalf("unexpected headers %+v", got)
			}
			if got.body != "Camera not available" {
				t.Fatalf("unexpected body %q", got.body)
			}
		})
	}
}

func TestNtfySendReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic disabled", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	sink, ok := notifications.NewSink(&cfg, logging.NewNop()).(*notifications.Ntfy)
	if !ok {
		t.Fatal("expected ntfy sink")
	}
	if err := sink.Send(context.Background(), "hello", notifications.KindInfo); err == nil {
		t.Fatal("expected error for forbidden response")
	}
}

type recordingSink struct {
	mu    sync.Mutex
	items []string
}

func (r *recordingSink) Push(message string, kind notifications.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, string(kind)+":"+message)
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	sink := notifications.Multi(a, nil, b)
	sink.Push("limit reached", notifications.KindWarning)
	notifications.Flush(sink)

	for _, r := range []*recordingSink{a, b} {
		if len(r.items) != 1 || r.items[0] != "warning:limit reached" {
			t.Fatalf("unexpected items %v", r.items)
		}
	}
	if single := notifications.Multi(nil, a); single != notifications.Sink(a) {
		t.Fatal("expected single sink to be returned unwrapped")
	}
	if _, ok := notifications.Multi().(notifications.Noop); !ok {
		t.Fatal("expected noop for empty fanout")
	}
}

package notifications

import (
	"log/slog"
	"strings"

	"formcoach/internal/logging"
)

// Kind grades a notice.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Sink receives notices. Push must return without waiting for delivery.
type Sink interface {
	Push(message string, kind Kind)
}

// Flusher is implemented by sinks that deliver asynchronously.
type Flusher interface {
	Flush()
}

// Flush waits for pending deliveries when sink supports it.
func Flush(sink Sink) {
	if f, ok := sink.(Flusher); ok {
		f.Flush()
	}
}

// Noop drops every notice.
type Noop struct{}

func (Noop) Push(string, Kind) {}

// LogSink mirrors notices into the structured log.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Push(message string, kind Kind) {
	logger := s.Logger
	if logger == nil {
		return
	}
	attrs := logging.Args(logging.String("notice_kind", string(kind)))
	message = strings.TrimSpace(message)
	switch kind {
	case KindError:
		logger.Error(message, attrs...)
	case KindWarning:
		logger.Warn(message, attrs...)
	default:
		logger.Info(message, attrs...)
	}
}

type multi []Sink

// Multi fans a notice out to every non-nil sink.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Noop{}
	case 1:
		return out[0]
	}
	return out
}

func (m multi) Push(message string, kind Kind) {
	for _, s := range m {
		s.Push(message, kind)
	}
}

func (m multi) Flush() {
	for _, s := range m {
		Flush(s)
	}
}

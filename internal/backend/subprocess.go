package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"formcoach/internal/deps"
	"formcoach/internal/logging"
	"formcoach/internal/pose"
)

// SubprocessID identifies the external worker backend.
const SubprocessID = "subprocess"

const (
	defaultStartupTimeout = 20 * time.Second
	stopGracePeriod       = 2 * time.Second
	maxResponseBytes      = 8 << 20
)

// errWorkerExited is returned when the worker process is gone.
var errWorkerExited = errors.New("pose worker exited")

// SubprocessOptions configures the external worker.
type SubprocessOptions struct {
	Command        string
	Args           []string
	StartupTimeout time.Duration
	Logger         *slog.Logger
}

// Subprocess runs pose inference in a child process. Frames are written to
// its stdin as one JSON object per line; the worker answers each with one
// JSON line on stdout carrying the same id. Worker stderr is forwarded to
// the log.
type Subprocess struct {
	command        string
	args           []string
	startupTimeout time.Duration
	logger         *slog.Logger

	// callMu keeps one request in flight.
	callMu sync.Mutex
	nextID atomic.Uint64

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	encoder   *json.Encoder
	responses chan workerResponse
	exited    chan struct{}
	cancel    context.CancelFunc
}

type workerResponse struct {
	ID         uint64    `json:"id"`
	Layout     Layout    `json:"layout"`
	Poses      []RawPose `json:"poses"`
	Normalized bool      `json:"normalized"`
	Error      string    `json:"error,omitempty"`
}

// NewSubprocess constructs the backend without starting the worker.
func NewSubprocess(opts SubprocessOptions) *Subprocess {
	timeout := opts.StartupTimeout
	if timeout <= 0 {
		timeout = defaultStartupTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Subprocess{
		command:        strings.TrimSpace(opts.Command),
		args:           append([]string(nil), opts.Args...),
		startupTimeout: timeout,
		logger:         logging.NewComponentLogger(logger, "pose-worker"),
	}
}

func (s *Subprocess) ID() string { return SubprocessID }

func (s *Subprocess) DisplayName() string { return "Local pose worker" }

// Probe reports whether the worker command resolves.
func (s *Subprocess) Probe(context.Context) error {
	_, err := deps.Resolve(s.command)
	return err
}

// Initialize starts the worker and waits for it to answer a blank frame.
func (s *Subprocess) Initialize(ctx context.Context, cfg Config) error {
	if err := s.Close(); err != nil {
		s.logger.Debug("closing previous worker", logging.Error(err))
	}

	path, err := deps.Resolve(s.command)
	if err != nil {
		return err
	}
	if err := s.spawn(path); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, s.startupTimeout)
	defer cancel()
	handshake := pose.Frame{Width: cfg.FrameWidth, Height: cfg.FrameHeight}
	if _, err := s.roundTrip(startCtx, handshake); err != nil {
		_ = s.Close()
		return fmt.Errorf("pose worker handshake: %w", err)
	}

	s.logger.Info("pose worker started",
		logging.String("command", path),
		logging.Int("args", len(s.args)),
	)
	return nil
}

func (s *Subprocess) spawn(path string) error {
	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, path, s.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("pose worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("pose worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("pose worker stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start pose worker: %w", err)
	}

	responses := make(chan workerResponse, 4)
	exited := make(chan struct{})

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		s.readResponses(procCtx, stdout, responses)
	}()
	go func() {
		defer readers.Done()
		s.logStderr(stderr)
	}()
	go func() {
		readers.Wait()
		err := cmd.Wait()
		if err != nil && procCtx.Err() == nil {
			s.logger.Warn("pose worker exited unexpectedly", logging.Error(err))
		} else {
			s.logger.Debug("pose worker exited")
		}
		close(exited)
	}()

	s.mu.Lock()
	s.cmd = cmd
	s.stdin = stdin
	s.encoder = json.NewEncoder(stdin)
	s.responses = responses
	s.exited = exited
	s.cancel = cancel
	s.mu.Unlock()
	return nil
}

func (s *Subprocess) readResponses(ctx context.Context, stdout io.Reader, out chan<- workerResponse) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxResponseBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var resp workerResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			s.logger.Debug("discarding malformed worker output",
				logging.Error(err),
				logging.String("line", truncate(string(line), 200)),
			)
			continue
		}
		select {
		case out <- resp:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Subprocess) logStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.Contains(line, "[ERROR]"), strings.Contains(line, "[CRITICAL]"):
			s.logger.Error(line)
		case strings.Contains(line, "[WARNING]"), strings.Contains(line, "[WARN]"):
			s.logger.Warn(line)
		default:
			s.logger.Debug(line)
		}
	}
}

// Estimate sends frame to the worker and waits for the matching response.
func (s *Subprocess) Estimate(ctx context.Context, frame pose.Frame) (Output, error) {
	return s.roundTrip(ctx, frame)
}

func (s *Subprocess) roundTrip(ctx context.Context, frame pose.Frame) (Output, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	s.mu.Lock()
	encoder, responses, exited := s.encoder, s.responses, s.exited
	s.mu.Unlock()
	if encoder == nil {
		return Output{}, ErrNotReady
	}

	id := s.nextID.Add(1)
	if err := encoder.Encode(newFrameRequest(id, frame)); err != nil {
		return Output{}, fmt.Errorf("write frame to pose worker: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		case <-exited:
			return Output{}, errWorkerExited
		case resp := <-responses:
			if resp.ID != id {
				// Answer to a request whose caller already gave up.
				continue
			}
			if resp.Error != "" {
				return Output{}, fmt.Errorf("pose worker: %s", resp.Error)
			}
			layout := resp.Layout
			if layout == "" {
				layout = LayoutCOCO17
			}
			return Output{Layout: layout, Poses: resp.Poses, Normalized: resp.Normalized}, nil
		}
	}
}

// Close stops the worker, killing it if it ignores stdin closing.
func (s *Subprocess) Close() error {
	s.mu.Lock()
	stdin, exited, cancel := s.stdin, s.exited, s.cancel
	s.cmd = nil
	s.stdin = nil
	s.encoder = nil
	s.responses = nil
	s.exited = nil
	s.cancel = nil
	s.mu.Unlock()

	if stdin == nil {
		return nil
	}
	_ = stdin.Close()
	select {
	case <-exited:
	case <-time.After(stopGracePeriod):
		s.logger.Warn("pose worker did not exit, killing")
		cancel()
		<-exited
	}
	cancel()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

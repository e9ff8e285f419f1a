package framesource

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"formcoach/internal/logging"
	"formcoach/internal/pose"
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
}

// DirectoryOptions configures directory replay.
type DirectoryOptions struct {
	Dir string
	// Loop restarts from the first image after the last one.
	Loop bool
	// FPS is the capture rate. Non-positive selects 30.
	FPS    int
	Logger *slog.Logger
}

// Directory replays the images in a directory in name order, as if they
// came from a camera running at FPS.
type Directory struct {
	opts   DirectoryOptions
	logger *slog.Logger
}

// NewDirectory returns a replay provider.
func NewDirectory(opts DirectoryOptions) *Directory {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Directory{opts: opts, logger: logging.NewComponentLogger(logger, "framesource")}
}

// List returns the replayable files in order.
func (d *Directory) List() ([]string, error) {
	entries, err := os.ReadDir(d.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			files = append(files, filepath.Join(d.opts.Dir, entry.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", d.opts.Dir, ErrNoFrames)
	}
	return files, nil
}

// Acquire publishes the first decodable image before returning, then keeps
// publishing at the configured rate until the source is closed.
func (d *Directory) Acquire(ctx context.Context) (Source, error) {
	files, err := d.List()
	if err != nil {
		return nil, err
	}

	r := &replay{
		files:   files,
		loop:    d.opts.Loop,
		mailbox: NewMailbox(),
		logger:  d.logger,
		done:    make(chan struct{}),
	}
	if !r.publishNext() {
		return nil, fmt.Errorf("%s: no decodable images: %w", d.opts.Dir, ErrNoFrames)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	go r.run(runCtx, time.Second/time.Duration(d.opts.FPS))
	return r, nil
}

type replay struct {
	files   []string
	loop    bool
	next    int
	seq     uint64
	mailbox *Mailbox
	logger  *slog.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func (r *replay) run(ctx context.Context, interval time.Duration) {
	defer close(r.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.publishNext() {
				r.mailbox.Finish()
				r.logger.Debug("frame replay finished", logging.Uint64(logging.FieldFrameSeq, r.seq))
				return
			}
		}
	}
}

// publishNext decodes files until one succeeds. Returns false when the
// sequence is exhausted.
func (r *replay) publishNext() bool {
	for attempts := 0; attempts < len(r.files); attempts++ {
		if r.next >= len(r.files) {
			if !r.loop {
				return false
			}
			r.next = 0
		}
		path := r.files[r.next]
		r.next++

		frame, err := readFrame(path)
		if err != nil {
			r.logger.Debug("skipping unreadable frame",
				logging.String("path", path),
				logging.Error(err),
			)
			continue
		}
		r.seq++
		frame.Seq = r.seq
		return r.mailbox.Publish(frame)
	}
	return false
}

func readFrame(path string) (pose.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pose.Frame{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return pose.Frame{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return pose.Frame{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Timestamp: time.Now(),
		Format:    format,
		Data:      data,
	}, nil
}

func (r *replay) Current() (pose.Frame, bool) {
	return r.mailbox.Current()
}

func (r *replay) Close() error {
	r.closeOnce.Do(func() {
		r.cancel()
		<-r.done
		_ = r.mailbox.Close()
	})
	return nil
}

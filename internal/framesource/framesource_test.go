package framesource

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"formcoach/internal/pose"
)

func TestMailboxKeepsLatest(t *testing.T) {
	m := NewMailbox()
	_, ok := m.Current()
	assert.False(t, ok)

	m.Publish(pose.Frame{Seq: 1})
	m.Publish(pose.Frame{Seq: 2})
	frame, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(2), frame.Seq)

	again, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(2), again.Seq, "latest frame stays readable")

	assert.Equal(t, MailboxStats{Published: 2, Consumed: 1, Dropped: 1}, m.Stats())

	require.NoError(t, m.Close())
	assert.False(t, m.Publish(pose.Frame{Seq: 3}))
	_, ok = m.Current()
	assert.False(t, ok)
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeBMP(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, bmp.Encode(f, image.NewGray(image.Rect(0, 0, w, h))))
}

func TestDirectoryListFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "002.png"), 4, 3)
	writeBMP(t, filepath.Join(dir, "001.BMP"), 4, 3)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	files, err := NewDirectory(DirectoryOptions{Dir: dir}).List()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "001.BMP"), filepath.Join(dir, "002.png")}, files)
}

func TestDirectoryAcquireEmpty(t *testing.T) {
	_, err := NewDirectory(DirectoryOptions{Dir: t.TempDir()}).Acquire(context.Background())
	assert.True(t, errors.Is(err, ErrNoFrames))

	_, err = NewDirectory(DirectoryOptions{Dir: filepath.Join(t.TempDir(), "missing")}).Acquire(context.Background())
	assert.Error(t, err)
}

func TestDirectoryAcquireSkipsUndecodable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000.jpg"), []byte("not a jpeg"), 0o644))
	writePNG(t, filepath.Join(dir, "001.png"), 8, 6)

	src, err := NewDirectory(DirectoryOptions{Dir: dir, FPS: 1}).Acquire(context.Background())
	require.NoError(t, err)
	defer src.Close()

	frame, ok := src.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(1), frame.Seq)
	assert.Equal(t, "png", frame.Format)
	assert.Equal(t, 8, frame.Width)
	assert.Equal(t, 6, frame.Height)
	assert.NotEmpty(t, frame.Data)
}

func TestDirectoryReplayAdvancesAndLoops(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 2, 2)
	writeBMP(t, filepath.Join(dir, "b.bmp"), 3, 3)

	src, err := NewDirectory(DirectoryOptions{Dir: dir, Loop: true, FPS: 200}).Acquire(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		frame, ok := src.Current()
		return ok && frame.Seq >= 4
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	_, ok := src.Current()
	assert.False(t, ok)
}

func TestDirectoryReplayStopsWithoutLoop(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "only.png"), 2, 2)

	src, err := NewDirectory(DirectoryOptions{Dir: dir, FPS: 500}).Acquire(context.Background())
	require.NoError(t, err)
	defer src.Close()

	time.Sleep(20 * time.Millisecond)
	frame, ok := src.Current()
	require.True(t, ok, "an unread last frame is still delivered")
	assert.Equal(t, uint64(1), frame.Seq)

	_, ok = src.Current()
	assert.False(t, ok, "replay has ended")
}

func TestMailboxFinishDeliversUnreadFrameOnce(t *testing.T) {
	m := NewMailbox()
	require.True(t, m.Publish(pose.Frame{Seq: 1}))
	frame, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(1), frame.Seq)

	require.True(t, m.Publish(pose.Frame{Seq: 2}))
	m.Finish()
	assert.False(t, m.Publish(pose.Frame{Seq: 3}))

	frame, ok = m.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(2), frame.Seq)
	_, ok = m.Current()
	assert.False(t, ok)
}

func TestBlankSourceNumbersFrames(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	src, err := Blank{Width: 320, Height: 240, Now: func() time.Time { return fixed }}.Acquire(context.Background())
	require.NoError(t, err)

	for want := uint64(0); want < 3; want++ {
		frame, ok := src.Current()
		require.True(t, ok)
		assert.Equal(t, want, frame.Seq)
		assert.Equal(t, 320, frame.Width)
		assert.Equal(t, fixed, frame.Timestamp)
	}
	require.NoError(t, src.Close())
	_, ok := src.Current()
	assert.False(t, ok)
}

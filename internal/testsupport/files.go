package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// WriteFrames fills dir with count numbered PNG images of the given size and
// returns their paths in replay order.
func WriteFrames(t testing.TB, dir string, count, width, height int) []string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		img := image.NewGray(image.Rect(0, 0, width, height))
		img.SetGray(i%width, 0, color.Gray{Y: 0xff})

		path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", i))
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create %s: %v", path, err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			t.Fatalf("encode %s: %v", path, err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close %s: %v", path, err)
		}
		paths = append(paths, path)
	}
	return paths
}

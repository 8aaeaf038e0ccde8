package figures

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeImage(t *testing.T, path string, encode func(*os.File, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "Fig 1A.png"), func(f *os.File, img image.Image) error {
		return png.Encode(f, img)
	})
	writeImage(t, filepath.Join(dir, "figure-2.jpg"), func(f *os.File, img image.Image) error {
		return jpeg.Encode(f, img, nil)
	})
	if err := os.WriteFile(filepath.Join(dir, "fig3.png"), []byte("not a png"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0600); err != nil {
		t.Fatal(err)
	}

	set, err := LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 figures, got %d: %v", len(set), set)
	}
	one, ok := set["1a"]
	if !ok {
		t.Fatalf("missing key 1a")
	}
	if one.Width != 4 || one.Height != 3 || one.Name != "Fig 1A.png" {
		t.Fatalf("unexpected image metadata: %+v", one)
	}
	if !bytes.HasPrefix(one.PNG, []byte("\x89PNG")) {
		t.Fatalf("expected PNG payload")
	}
	two, ok := set.Lookup("2")
	if !ok || !bytes.HasPrefix(two.PNG, []byte("\x89PNG")) {
		t.Fatalf("jpeg figure not re-encoded as png")
	}
	if _, ok := set["3"]; ok {
		t.Fatalf("corrupt figure should be skipped")
	}
}

func TestLoadDir_MissingDir(t *testing.T) {
	if _, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

package figures

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/oukeidos/vertaal/internal/apperrors"
	"github.com/oukeidos/vertaal/internal/logger"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// Image is a decoded drawing, re-encoded as PNG so every provider receives
// the same media type.
type Image struct {
	Key    string
	Name   string
	PNG    []byte
	Width  int
	Height int
}

// MediaType is the MIME type of Image.PNG.
const MediaType = "image/png"

// Set maps normalized figure keys to images. It is read-only once loaded.
type Set map[string]*Image

// Lookup resolves a raw reference found by FindRefs.
func (s Set) Lookup(ref string) (*Image, bool) {
	if len(s) == 0 {
		return nil, false
	}
	key := RefKey(ref)
	if key == "" {
		return nil, false
	}
	img, ok := s[key]
	return img, ok
}

// LoadDir decodes every png/jpg/jpeg/webp file in dir. Files that cannot be
// decoded or normalized are logged and skipped; only an unreadable dir is
// an error. When two files share a key, the later name in sort order wins.
func LoadDir(ctx context.Context, dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Parse(dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	decoded := make([]*Image, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			key := Normalize(strings.TrimSuffix(name, filepath.Ext(name)))
			if key == "" {
				logger.Warn("Could not derive figure key from filename", "file", name)
				return nil
			}
			img, err := decodeFile(filepath.Join(dir, name))
			if err != nil {
				logger.Warn("Skipping undecodable figure", "file", name, "error", err)
				return nil
			}
			img.Key = key
			img.Name = name
			decoded[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := make(Set, len(names))
	for _, img := range decoded {
		if img == nil {
			continue
		}
		if prev, ok := set[img.Key]; ok {
			logger.Warn("Figure key collision", "figure", img.Key, "replaced", prev.Name, "file", img.Name)
		}
		set[img.Key] = img
		logger.Debug("Loaded figure", "file", img.Name, "figure", img.Key)
	}
	logger.Info("Figures loaded", "count", len(set), "dir", dir)
	return set, nil
}

var pngBuffers = sync.Pool{New: func() any { return new(bytes.Buffer) }}

func decodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()

	buf := pngBuffers.Get().(*bytes.Buffer)
	buf.Reset()
	defer pngBuffers.Put(buf)
	if err := png.Encode(buf, src); err != nil {
		return nil, fmt.Errorf("re-encode %s as png: %w", format, err)
	}
	return &Image{
		PNG:    bytes.Clone(buf.Bytes()),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

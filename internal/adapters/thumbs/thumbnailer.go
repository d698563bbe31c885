package thumbs

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Thumbnailer renders fixed-size PNG previews keyed by content checksum.
// Because the key is the checksum, a thumbnail never goes stale: a changed
// file gets a new checksum and therefore a new thumbnail.
type Thumbnailer struct {
	dir  string
	size uint
}

// New creates a Thumbnailer writing into dir with the given max edge size
func New(dir string, size int) *Thumbnailer {
	if size <= 0 {
		size = 256
	}
	return &Thumbnailer{dir: dir, size: uint(size)}
}

// Path returns where the thumbnail for a checksum lives
func (t *Thumbnailer) Path(checksum string) string {
	return filepath.Join(t.dir, checksum+".png")
}

// Generate renders a thumbnail for the image at path. An existing
// thumbnail for the same checksum is reused without re-decoding.
func (t *Thumbnailer) Generate(ctx context.Context, path, checksum string) (string, error) {
	out := t.Path(checksum)
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}

	thumb := resize.Thumbnail(t.size, t.size, img, resize.Lanczos3)

	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return "", fmt.Errorf("creating thumbnail directory: %w", err)
	}

	tmp, err := os.CreateTemp(t.dir, ".thumb-*")
	if err != nil {
		return "", fmt.Errorf("creating thumbnail temp file: %w", err)
	}
	if err := png.Encode(tmp, thumb); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("encoding thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing thumbnail: %w", err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("placing thumbnail: %w", err)
	}

	return out, nil
}

// Package debug provides screenshot capture of the main view and of
// offscreen reflection targets.
package debug

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
)

// ErrFormat is returned for an image format Capture cannot encode.
var ErrFormat = errors.New("debug: unsupported capture format")

// Capture writes images into a directory, one subdirectory per shot.
type Capture struct {
	outputDir string
	format    string
	encode    func(io.Writer, image.Image) error

	now func() time.Time
}

// NewCapture creates a capture writing format ("png" or "bmp") files
// under outputDir.
func NewCapture(outputDir, format string) (*Capture, error) {
	c := &Capture{outputDir: outputDir, format: strings.ToLower(format), now: time.Now}
	switch c.format {
	case "png":
		c.encode = png.Encode
	case "bmp":
		c.encode = bmp.Encode
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	return c, nil
}

// Shot is one capture: every image saved through it lands in the same
// timestamped directory.
type Shot struct {
	c   *Capture
	dir string
}

// Begin starts a new shot.
func (c *Capture) Begin() (*Shot, error) {
	dir := filepath.Join(c.outputDir, c.now().Format("2006-01-02_15-04-05.000"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	return &Shot{c: c, dir: dir}, nil
}

// Dir returns the directory images of the shot are written to.
func (s *Shot) Dir() string { return s.dir }

// SavePixels saves bottom-up RGBA rows, as read back from OpenGL, under
// name. The image is flipped so the file is top-down.
func (s *Shot) SavePixels(name string, pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcOffset := (height - 1 - y) * rowSize
		dstOffset := y * img.Stride
		copy(img.Pix[dstOffset:dstOffset+rowSize], pixels[srcOffset:srcOffset+rowSize])
	}
	return s.Save(name, img)
}

// Save encodes img under name.
func (s *Shot) Save(name string, img image.Image) (string, error) {
	filename := filepath.Join(s.dir, sanitize(name)+"."+s.c.format)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := s.c.encode(file, img); err != nil {
		return "", fmt.Errorf("encoding %s: %w", s.c.format, err)
	}
	return filename, nil
}

// sanitize maps a camera or surface name to a file name.
func sanitize(name string) string {
	name = strings.TrimLeft(name, "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, name)
}

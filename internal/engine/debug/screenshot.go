// Package debug provides viewport capture for bug reports and preset
// thumbnails.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
)

// Screenshots writes timestamped captures into a directory.
type Screenshots struct {
	dir    string
	prefix string
	format string // "png" or "bmp"
	now    func() time.Time
}

// NewScreenshots returns a capturer writing <prefix>_<timestamp>.<format>
// files into dir. An unknown format falls back to png.
func NewScreenshots(dir, prefix, format string) *Screenshots {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format != "bmp" {
		format = "png"
	}
	return &Screenshots{dir: dir, prefix: prefix, format: format, now: time.Now}
}

// Filename returns the path the next capture would be written to.
func (s *Screenshots) Filename() string {
	name := fmt.Sprintf("%s_%s.%s", s.prefix, s.now().Format("2006-01-02_15-04-05.000"), s.format)
	if s.dir != "" {
		name = filepath.Join(s.dir, name)
	}
	return name
}

// Save writes img and returns the file path.
func (s *Screenshots) Save(img image.Image) (string, error) {
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return "", fmt.Errorf("creating screenshot dir: %w", err)
		}
	}
	path := s.Filename()
	return path, WriteImage(path, img)
}

// WriteImage encodes img by the path's extension: .bmp or PNG otherwise.
func WriteImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".bmp") {
		err = bmp.Encode(f, img)
	} else {
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

package intensity

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var frameExts = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}

// DirSource replays the image files of a directory, in name order, as a
// looping frame sequence.
type DirSource struct {
	paths []string
	next  int
	ex    Extractor
}

// NewDirSource lists the frames in dir. ex defaults to Luma.
func NewDirSource(dir string, ex Extractor) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("intensity: read frame dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(frameExts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("intensity: no frames in %s", dir)
	}
	slices.Sort(paths)

	if ex == nil {
		ex = Luma{}
	}
	return &DirSource{paths: paths, ex: ex}, nil
}

func (s *DirSource) Len() int { return len(s.paths) }

// Next decodes the next frame and returns its intensity.
func (s *DirSource) Next() (float64, error) {
	path := s.paths[s.next]
	s.next = (s.next + 1) % len(s.paths)

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("intensity: open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("intensity: decode %s: %w", filepath.Base(path), err)
	}
	return s.ex.Intensity(img)
}

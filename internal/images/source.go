// Package images assembles the candidate stimulus list for a category from
// the local image tree: <root>/<label>/real and <root>/<label>/fake.
package images

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vtt-go/internal/models"

	"go.uber.org/zap"
)

// FallbackPath is the sentinel path used when the image tree cannot be read.
// Consumers can recognize a degraded set by it, and the store records the
// degraded flag alongside.
const FallbackPath = "/fallback-image.jpg"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Source selects and shuffles stimulus images for a category.
type Source struct {
	root        string
	perCategory int
	rng         *rand.Rand
	log         *zap.Logger
}

// NewSource returns a source reading from root, producing n images per
// category. rng may be nil, in which case a time-seeded generator is used;
// tests pass a fixed seed for reproducible shuffles.
func NewSource(root string, n int, rng *rand.Rand, log *zap.Logger) *Source {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Source{root: root, perCategory: n, rng: rng, log: log}
}

// ListForCategory returns n images for the category, half real and half
// fake when both pools are large enough, in uniformly shuffled order. The
// second return value reports degraded mode: on any filesystem error the
// source falls back to a fixed-length placeholder list instead of failing,
// so the test flow stays navigable.
func (s *Source) ListForCategory(label string) ([]models.ImageItem, bool) {
	real, err := s.listDir(label, "real")
	if err != nil {
		s.log.Warn("Falling back to placeholder images", zap.String("category", label), zap.Error(err))
		return s.fallback(), true
	}
	fake, err := s.listDir(label, "fake")
	if err != nil {
		s.log.Warn("Falling back to placeholder images", zap.String("category", label), zap.Error(err))
		return s.fallback(), true
	}
	if len(real) == 0 && len(fake) == 0 {
		s.log.Warn("No images found, falling back to placeholders", zap.String("category", label))
		return s.fallback(), true
	}

	// Half per class, or as many as a short pool has. A short pool is not
	// topped up from the other class; balance beats length.
	half := s.perCategory / 2
	items := make([]models.ImageItem, 0, s.perCategory)
	for _, path := range take(real, half) {
		items = append(items, models.ImageItem{Path: path, IsReal: true})
	}
	for _, path := range take(fake, s.perCategory-half) {
		items = append(items, models.ImageItem{Path: path, IsReal: false})
	}

	s.shuffle(items)
	return items, false
}

// listDir lists the image files under <root>/<label>/<class>, sorted so the
// selection is deterministic for a given tree.
func (s *Source) listDir(label, class string) ([]string, error) {
	dir := filepath.Join(s.root, label, class)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		// Web path; the router serves the image tree under /images.
		paths = append(paths, "/images/"+filepath.ToSlash(filepath.Join(label, class, entry.Name())))
	}
	sort.Strings(paths)
	return paths, nil
}

// shuffle applies an unbiased Fisher-Yates shuffle so the real/fake label is
// not positionally predictable.
func (s *Source) shuffle(items []models.ImageItem) {
	for i := len(items) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// fallback builds the degraded-mode placeholder list: a fixed-length set of
// a single sentinel path with randomized ground truth per slot.
func (s *Source) fallback() []models.ImageItem {
	items := make([]models.ImageItem, s.perCategory)
	for i := range items {
		items[i] = models.ImageItem{
			Path:   FallbackPath,
			IsReal: s.rng.Intn(2) == 0,
		}
	}
	return items
}

func take(paths []string, n int) []string {
	if len(paths) > n {
		return paths[:n]
	}
	return paths
}

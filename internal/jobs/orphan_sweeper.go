package jobs

import (
	"context"
	"fmt"
	"time"

	"cardapio/internal/media"
	"cardapio/internal/metrics"
	"cardapio/internal/storage"

	"github.com/rs/zerolog/log"
)

const sweepBatchSize = 500

// FileLister lists the files in the upload directory.
type FileLister interface {
	List() ([]storage.FileInfo, error)
}

// ReferenceChecker reports which stored names still have an image row.
type ReferenceChecker interface {
	ReferencedStoredNames(ctx context.Context, names []string) (map[string]bool, error)
}

// Purger removes a main file together with its thumbnail.
type Purger interface {
	Purge(ctx context.Context, storedName string)
}

// OrphanSweeper removes files that no product image references: leftovers of
// a crash between writing an upload and saving its row, and thumbnails whose
// main file is gone. Files younger than the grace period are never touched so
// in-flight requests keep their uploads.
type OrphanSweeper struct {
	files   FileLister
	refs    ReferenceChecker
	purger  Purger
	grace   time.Duration
	metrics *metrics.ImageMetrics
	now     func() time.Time
}

func NewOrphanSweeper(files FileLister, refs ReferenceChecker, purger Purger, grace time.Duration, m *metrics.ImageMetrics) *OrphanSweeper {
	return &OrphanSweeper{
		files:   files,
		refs:    refs,
		purger:  purger,
		grace:   grace,
		metrics: m,
		now:     time.Now,
	}
}

// Sweep runs one pass and returns the number of stored names purged.
func (s *OrphanSweeper) Sweep(ctx context.Context) (int, error) {
	files, err := s.files.List()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.grace)
	present := make(map[string]bool, len(files))
	var candidates []string
	var thumbs []storage.FileInfo
	for _, f := range files {
		present[f.Name] = true
		if f.ModTime.After(cutoff) {
			continue
		}
		if media.IsThumbnailName(f.Name) {
			thumbs = append(thumbs, f)
			continue
		}
		candidates = append(candidates, f.Name)
	}

	purged := 0
	removed := make(map[string]bool)
	for start := 0; start < len(candidates); start += sweepBatchSize {
		end := min(start+sweepBatchSize, len(candidates))
		batch := candidates[start:end]

		referenced, err := s.refs.ReferencedStoredNames(ctx, batch)
		if err != nil {
			s.metrics.RecordSwept(purged)
			return purged, fmt.Errorf("check image references: %w", err)
		}
		for _, name := range batch {
			if referenced[name] {
				continue
			}
			s.purger.Purge(ctx, name)
			removed[name] = true
			purged++
		}
	}

	for _, thumb := range thumbs {
		main, ok := media.MainName(thumb.Name)
		// removed mains took their thumbnails with them
		if !ok || present[main] || removed[main] {
			continue
		}
		s.purger.Purge(ctx, main)
		purged++
	}

	s.metrics.RecordSwept(purged)
	if purged > 0 {
		log.Info().Str("component", "orphan-sweeper").Int("purged", purged).Msg("orphaned images removed")
	}
	return purged, nil
}

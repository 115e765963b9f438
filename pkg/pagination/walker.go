package pagination

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/rs/zerolog/log"
)

// WalkConfig holds walker configuration.
type WalkConfig struct {
	// PageSize is the number of records per page. Required.
	PageSize int

	// Reuse is an already loaded page served from memory instead of being
	// fetched again. Ignored when its size differs from PageSize.
	Reuse *Page

	// Total is a known total record count. When zero and Reuse is nil, page 1
	// is fetched to learn it.
	Total int
}

// Walker visits the pages of a dataset in order.
type Walker struct {
	loader PageLoader
	config WalkConfig
}

// NewWalker creates a new walker.
func NewWalker(loader PageLoader, config WalkConfig) *Walker {
	if config.Reuse != nil && config.Reuse.Size != config.PageSize {
		config.Reuse = nil
	}
	return &Walker{
		loader: loader,
		config: config,
	}
}

// Pages returns a lazy sequence of pages 1..N. The page count is recomputed
// from every fetched page so the latest total wins. The sequence ends after
// the first error, which is yielded with a nil page. Every call starts a new
// walk.
func (w *Walker) Pages(ctx context.Context) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		start := time.Now()
		size := w.config.PageSize
		if err := ValidateRequest(1, size); err != nil {
			yield(nil, err)
			return
		}

		totalPages := 1
		switch {
		case w.config.Reuse != nil:
			totalPages = w.config.Reuse.TotalPages()
		case w.config.Total > 0:
			totalPages = TotalPages(w.config.Total, size)
		}

		fetched := 0
		visited := 0
		for pageNum := 1; pageNum <= totalPages; pageNum++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page := w.config.Reuse
			fromMemory := page != nil && page.Number == pageNum
			if !fromMemory {
				loaded, err := w.loader.LoadPage(ctx, pageNum, size)
				if err != nil {
					log.Warn().
						Err(err).
						Int("page", pageNum).
						Int("fetched_pages", fetched).
						Msg("Page walk stopped")
					yield(nil, fmt.Errorf("load page %d: %w", pageNum, err))
					return
				}
				page = loaded
				fetched++
				totalPages = page.TotalPages()
			}

			log.Debug().
				Int("page", pageNum).
				Int("records", page.Len()).
				Int("total_pages", totalPages).
				Bool("from_memory", fromMemory).
				Msg("Page walked")

			visited++
			if !yield(page, nil) {
				break
			}
		}

		log.Debug().
			Int("visited", visited).
			Int("fetched", fetched).
			Dur("duration", time.Since(start)).
			Msg("Page walk complete")
	}
}

// UniqueIDs flattens a page sequence into record identifiers in page/record
// order, skipping identifiers already produced. An error from the page
// sequence is passed through and ends the sequence.
func UniqueIDs(pages iter.Seq2[*Page, error]) iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		seen := make(map[int64]struct{})
		for page, err := range pages {
			if err != nil {
				yield(0, err)
				return
			}
			for _, r := range page.Records {
				if _, dup := seen[r.ID]; dup {
					continue
				}
				seen[r.ID] = struct{}{}
				if !yield(r.ID, nil) {
					return
				}
			}
		}
	}
}

// FirstN collects at most n identifiers from ids. It stops pulling as soon as
// n have been collected, so no further pages are fetched.
func FirstN(ids iter.Seq2[int64, error], n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}
	out := make([]int64, 0, min(n, 1024))
	for id, err := range ids {
		if err != nil {
			return nil, err
		}
		out = append(out, id)
		if len(out) >= n {
			break
		}
	}
	return out, nil
}

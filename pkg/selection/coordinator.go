package selection

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/paged-select/pkg/pagination"
)

// DefaultPageSize matches the page size of the artworks table.
const DefaultPageSize = 12

// Config holds coordinator configuration.
type Config struct {
	// PageSize is the number of records per page for navigation and walks.
	PageSize int
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: DefaultPageSize,
	}
}

// Coordinator reconciles a cross-page selection with the displayed page.
// It is safe for concurrent use; loads run without holding the lock.
type Coordinator struct {
	loader   pagination.PageLoader
	pageSize int
	logger   zerolog.Logger

	mu       sync.Mutex
	selected map[int64]struct{}
	current  *pagination.Page
	visible  []int64
	total    int

	// navToken is the latest navigation issued; navPending is true until
	// the response for that token arrives.
	navToken   uint64
	navPending bool

	// bulkGen is the latest bulk selection issued.
	bulkGen      uint64
	bulkInFlight bool
}

// Snapshot is a consistent view of the coordinator state.
type Snapshot struct {
	Page          *pagination.Page
	Visible       []int64
	SelectedCount int
	TotalRecords  int
	TotalPages    int
	Loading       bool
}

// New creates a coordinator reading pages from loader.
func New(loader pagination.PageLoader, cfg Config) (*Coordinator, error) {
	if loader == nil {
		return nil, fmt.Errorf("page loader is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be > 0 (got %d)", cfg.PageSize)
	}

	return &Coordinator{
		loader:   loader,
		pageSize: cfg.PageSize,
		logger: log.With().
			Str("component", "selection").
			Str("session", uuid.NewString()).
			Logger(),
		selected: make(map[int64]struct{}),
	}, nil
}

// Navigate displays page. The selection set is never modified. On a fetch
// failure the error is returned and the displayed page, visible selection and
// selection set stay as they were. If another navigation was issued while
// this one was loading, ErrSuperseded is returned and nothing changes.
func (c *Coordinator) Navigate(ctx context.Context, page int) error {
	if err := pagination.ValidateRequest(page, c.pageSize); err != nil {
		return err
	}

	c.mu.Lock()
	c.navToken++
	token := c.navToken
	c.navPending = true
	c.mu.Unlock()

	loaded, err := c.loader.LoadPage(ctx, page, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.navToken {
		staleResponsesTotal.WithLabelValues("navigate").Inc()
		c.logger.Debug().
			Int("page", page).
			Uint64("token", token).
			Uint64("latest", c.navToken).
			Msg("Dropping superseded page response")
		return ErrSuperseded
	}
	c.navPending = false

	if err != nil {
		c.logger.Warn().Err(err).Int("page", page).Msg("Navigation failed")
		return fmt.Errorf("navigate to page %d: %w", page, err)
	}

	c.current = loaded
	c.total = loaded.Total
	c.visible = c.visibleLocked()

	c.logger.Debug().
		Int("page", page).
		Int("records", loaded.Len()).
		Int("visible_selected", len(c.visible)).
		Msg("Page displayed")

	return nil
}

// NavigateOffset displays the page holding row firstIndex for a table showing
// rows rows per page.
func (c *Coordinator) NavigateOffset(ctx context.Context, firstIndex, rows int) error {
	return c.Navigate(ctx, pagination.PageForOffset(firstIndex, rows))
}

// Toggle applies the checked rows of the displayed page: checked ids on the
// page are added, every other id on the page is removed, and the visible
// selection becomes the checked rows. Ids that are not on the page are
// ignored. Returns ErrStalePage when pageNumber is not the displayed page or a
// navigation is pending.
func (c *Coordinator) Toggle(pageNumber int, checked []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.Number != pageNumber || c.navPending {
		staleResponsesTotal.WithLabelValues("toggle").Inc()
		return ErrStalePage
	}

	want := make(map[int64]struct{}, len(checked))
	for _, id := range checked {
		want[id] = struct{}{}
	}

	visible := make([]int64, 0, len(checked))
	for _, r := range c.current.Records {
		if _, ok := want[r.ID]; ok {
			c.selected[r.ID] = struct{}{}
			visible = append(visible, r.ID)
			continue
		}
		delete(c.selected, r.ID)
	}
	c.visible = visible
	selectionSize.Set(float64(len(c.selected)))

	c.logger.Debug().
		Int("page", pageNumber).
		Int("checked", len(visible)).
		Int("selected", len(c.selected)).
		Msg("Rows toggled")

	return nil
}

// SelectFirst replaces the selection with the first n records in global page
// order. Pages are walked from 1, reusing the displayed page, and fetching
// stops once n unique ids are collected or the dataset is exhausted. n <= 0
// does nothing.
//
// A later SelectFirst supersedes this one, which then returns ErrSuperseded
// and starts no further fetches. On any fetch failure the selection set is
// left exactly as before.
func (c *Coordinator) SelectFirst(ctx context.Context, n int) error {
	_, err := c.SelectFirstIDs(ctx, n)
	return err
}

// SelectFirstIDs is SelectFirst returning the committed ids in the order the
// walk found them.
func (c *Coordinator) SelectFirstIDs(ctx context.Context, n int) ([]int64, error) {
	if n <= 0 {
		bulkSelectTotal.WithLabelValues(resultNoop).Inc()
		return nil, nil
	}

	start := time.Now()

	c.mu.Lock()
	c.bulkGen++
	gen := c.bulkGen
	c.bulkInFlight = true
	reuse := c.current
	total := c.total
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.bulkGen == gen {
			c.bulkInFlight = false
		}
		c.mu.Unlock()
	}()

	fastPath := reuse != nil && reuse.Number == 1 && reuse.Size == c.pageSize && n <= reuse.Len()

	var (
		fetched     int
		latestTotal = -1
	)
	counting := pagination.LoaderFunc(func(ctx context.Context, page, pageSize int) (*pagination.Page, error) {
		c.mu.Lock()
		stale := gen != c.bulkGen
		c.mu.Unlock()
		if stale {
			return nil, ErrSuperseded
		}

		p, err := c.loader.LoadPage(ctx, page, pageSize)
		if err == nil {
			fetched++
			latestTotal = p.Total
		}
		return p, err
	})

	walker := pagination.NewWalker(counting, pagination.WalkConfig{
		PageSize: c.pageSize,
		Reuse:    reuse,
		Total:    total,
	})
	ids, err := pagination.FirstN(pagination.UniqueIDs(walker.Pages(ctx)), n)

	bulkSelectPagesFetched.Observe(float64(fetched))

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.bulkGen {
		bulkSelectTotal.WithLabelValues(resultSuperseded).Inc()
		staleResponsesTotal.WithLabelValues("select_first").Inc()
		c.logger.Debug().
			Int("n", n).
			Uint64("generation", gen).
			Int("fetched_pages", fetched).
			Msg("Dropping superseded bulk selection")
		return nil, ErrSuperseded
	}

	if err != nil {
		bulkSelectTotal.WithLabelValues(resultFailure).Inc()
		c.logger.Warn().
			Err(err).
			Int("n", n).
			Int("fetched_pages", fetched).
			Msg("Bulk selection aborted")
		return nil, fmt.Errorf("select first %d: %w", n, err)
	}

	selected := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	c.selected = selected
	if latestTotal >= 0 {
		c.total = latestTotal
	}
	c.visible = c.visibleLocked()
	selectionSize.Set(float64(len(c.selected)))
	bulkSelectTotal.WithLabelValues(resultSuccess).Inc()

	c.logger.Info().
		Int("n", n).
		Int("selected", len(ids)).
		Int("fetched_pages", fetched).
		Bool("fast_path", fastPath).
		Dur("duration", time.Since(start)).
		Msg("Bulk selection committed")

	return ids, nil
}

// ClearSelection empties the selection set.
func (c *Coordinator) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = make(map[int64]struct{})
	c.visible = nil
	selectionSize.Set(0)
}

// Selection returns the selected ids in ascending order.
func (c *Coordinator) Selection() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.selected))
}

// SelectedCount returns the size of the selection set.
func (c *Coordinator) SelectedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selected)
}

// IsSelected reports whether id is in the selection set.
func (c *Coordinator) IsSelected(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selected[id]
	return ok
}

// Visible returns the selected ids of the displayed page in page order.
func (c *Coordinator) Visible() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.visible)
}

// Current returns the displayed page, nil before the first navigation.
func (c *Coordinator) Current() *pagination.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// TotalRecords returns the latest total reported by the source.
func (c *Coordinator) TotalRecords() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// TotalPages returns the page count for the latest total.
func (c *Coordinator) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return pagination.TotalPages(c.total, c.pageSize)
}

// PageSize returns the configured page size.
func (c *Coordinator) PageSize() int {
	return c.pageSize
}

// Loading reports whether a navigation or bulk selection is in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.navPending || c.bulkInFlight
}

// Snapshot returns the displayed state under a single lock.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Page:          c.current,
		Visible:       slices.Clone(c.visible),
		SelectedCount: len(c.selected),
		TotalRecords:  c.total,
		TotalPages:    pagination.TotalPages(c.total, c.pageSize),
		Loading:       c.navPending || c.bulkInFlight,
	}
}

// visibleLocked intersects the displayed page with the selection set.
func (c *Coordinator) visibleLocked() []int64 {
	if c.current == nil {
		return nil
	}
	visible := make([]int64, 0, c.current.Len())
	for _, r := range c.current.Records {
		if _, ok := c.selected[r.ID]; ok {
			visible = append(visible, r.ID)
		}
	}
	return visible
}

package pagination

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidPageRequest is returned for a page < 1 or a page size <= 0.
var ErrInvalidPageRequest = errors.New("invalid page request")

// PageLoader fetches a single page from a paged data source.
//
// Implementations must not retry: a failed fetch is reported to the caller,
// which decides whether to re-issue it.
type PageLoader interface {
	// LoadPage fetches page (1-based) with pageSize records per page.
	LoadPage(ctx context.Context, page, pageSize int) (*Page, error)
}

// LoaderFunc adapts a function to the PageLoader interface.
type LoaderFunc func(ctx context.Context, page, pageSize int) (*Page, error)

// LoadPage calls f(ctx, page, pageSize).
func (f LoaderFunc) LoadPage(ctx context.Context, page, pageSize int) (*Page, error) {
	return f(ctx, page, pageSize)
}

// ValidateRequest checks the page loader preconditions.
func ValidateRequest(page, pageSize int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be >= 1 (got %d)", ErrInvalidPageRequest, page)
	}
	if pageSize <= 0 {
		return fmt.Errorf("%w: page size must be > 0 (got %d)", ErrInvalidPageRequest, pageSize)
	}
	return nil
}

// Package selection keeps a cross-page record selection for a paged data
// source.
//
// A Coordinator owns two pieces of state. The selection set holds every
// selected record id regardless of which page it lives on. The visible
// selection is the part of the set that belongs to the page currently on
// display, kept in page order for rendering. The two are reconciled only when
// a page is displayed (Navigate), when rows on the displayed page are toggled
// (Toggle), and when a bulk selection commits (SelectFirst).
//
// Responses are applied in issue order. Every navigation takes a token from a
// monotonically increasing counter and a response whose token is no longer the
// latest is dropped with ErrSuperseded. A newer SelectFirst supersedes an
// older one the same way; the older walk may finish its current fetch but
// never commits.
//
// Usage:
//
//	coord, err := selection.New(pageClient, selection.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	if err := coord.Navigate(ctx, 1); err != nil {
//	    return err
//	}
//	if err := coord.SelectFirst(ctx, 15); err != nil {
//	    return err
//	}
//	fmt.Println(coord.Selection())
package selection

// Package pagination defines the paged-dataset model shared by the loader and
// the selection coordinator.
//
// A data source is exposed as a PageLoader returning one Page at a time. Pages
// carry the authoritative total record count, so the number of pages is always
// derived from the most recent fetch.
//
// Example usage:
//
//	walker := pagination.NewWalker(loader, pagination.WalkConfig{
//		PageSize: 12,
//		Reuse:    current, // already displayed, not fetched again
//	})
//	for page, err := range walker.Pages(ctx) {
//		if err != nil {
//			return err
//		}
//		// consume page.Records in order
//	}
//
// The walker:
//   - Visits pages 1..N strictly in order
//   - Fetches lazily, only when the consumer asks for the next page
//   - Serves the Reuse page from memory
//   - Stops at the first fetch error
package pagination

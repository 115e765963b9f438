package selection

import "errors"

var (
	// ErrSuperseded is returned when a newer navigation or bulk selection
	// replaced the operation before its result could be applied. Nothing was
	// changed.
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrStalePage is returned for a toggle that refers to a page which is no
	// longer displayed, or while a navigation is pending. Nothing was changed.
	ErrStalePage = errors.New("page is not the displayed page")
)

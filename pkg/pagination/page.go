package pagination

// Record is a single dataset item. Only ID takes part in selection; the
// remaining fields are for display.
type Record struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	PlaceOfOrigin string `json:"place_of_origin"`
	ArtistDisplay string `json:"artist_display"`
	Inscriptions  string `json:"inscriptions"`
	DateStart     int    `json:"date_start"`
	DateEnd       int    `json:"date_end"`
}

// Page is one fetched batch of records plus pagination metadata.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Size is the requested page size (records per page).
	Size int

	// Total is the total record count reported by the source. It may exceed
	// what has been fetched so far.
	Total int

	// Records in source order.
	Records []Record
}

// Len returns the number of records on the page.
func (p *Page) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Records)
}

// IDs returns the record identifiers in page order.
func (p *Page) IDs() []int64 {
	if p == nil {
		return nil
	}
	ids := make([]int64, len(p.Records))
	for i, r := range p.Records {
		ids[i] = r.ID
	}
	return ids
}

// TotalPages returns the page count implied by this page's total and size.
func (p *Page) TotalPages() int {
	if p == nil {
		return 0
	}
	return TotalPages(p.Total, p.Size)
}

// Contains reports whether id is one of the page's records.
func (p *Page) Contains(id int64) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Records {
		if r.ID == id {
			return true
		}
	}
	return false
}

// TotalPages computes ceil(total / pageSize). Returns 0 when either argument
// is not positive.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// PageForOffset converts a table navigation event (index of the first row and
// rows per page) into a 1-based page number.
func PageForOffset(firstIndex, rows int) int {
	if rows <= 0 || firstIndex < 0 {
		return 1
	}
	return firstIndex/rows + 1
}

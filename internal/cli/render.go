package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Sternrassler/paged-select/pkg/selection"
)

// Table rendering constants.
const (
	maxTitleWidth  = 48
	maxArtistWidth = 32
	checkedMark    = "[x]"
	uncheckedMark  = "[ ]"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("42"))
	summaryStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	borderColor   = lipgloss.Color("240")
)

// renderPage writes the displayed page as a table with selection markers and
// a summary line.
func renderPage(w io.Writer, snap selection.Snapshot) {
	if snap.Page == nil {
		fmt.Fprintln(w, "no page loaded")
		return
	}

	visible := make(map[int64]bool, len(snap.Visible))
	for _, id := range snap.Visible {
		visible[id] = true
	}

	rows := make([][]string, 0, snap.Page.Len())
	for _, r := range snap.Page.Records {
		mark := uncheckedMark
		if visible[r.ID] {
			mark = checkedMark
		}
		rows = append(rows, []string{
			mark,
			strconv.FormatInt(r.ID, 10),
			truncate(r.Title, maxTitleWidth),
			r.PlaceOfOrigin,
			truncate(firstLine(r.ArtistDisplay), maxArtistWidth),
			formatDates(r.DateStart, r.DateEnd),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(borderColor)).
		Headers("", "ID", "TITLE", "ORIGIN", "ARTIST", "DATES").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(rows) && rows[row][0] == checkedMark:
				return selectedStyle
			default:
				return cellStyle
			}
		})

	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, summaryStyle.Render(summary(snap)))
}

// summary describes the position and selection size.
func summary(snap selection.Snapshot) string {
	page := 0
	if snap.Page != nil {
		page = snap.Page.Number
	}
	return fmt.Sprintf("page %d/%d | %d records | %d selected (%d on this page)",
		page, snap.TotalPages, snap.TotalRecords, snap.SelectedCount, len(snap.Visible))
}

// renderSelection writes selected ids as a comma separated list.
func renderSelection(w io.Writer, ids []int64) {
	if len(ids) == 0 {
		fmt.Fprintln(w, "nothing selected")
		return
	}
	fmt.Fprintf(w, "%d selected: %s\n", len(ids), joinIDs(ids))
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func formatDates(start, end int) string {
	switch {
	case start == 0 && end == 0:
		return ""
	case start == end || end == 0:
		return strconv.Itoa(start)
	default:
		return fmt.Sprintf("%d-%d", start, end)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/paged-select/pkg/client"
	"github.com/Sternrassler/paged-select/pkg/selection"
)

const browseHelp = `commands:
  page N        show page N
  next, prev    move one page
  check ID...   set the checked rows of this page (unlisted rows are unchecked)
  select N      select the first N records across all pages
  clear         clear the selection
  show          list selected ids
  help          show this help
  quit          exit`

func newBrowseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactively page through the listing and select records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			return runBrowse(cmd.Context(), s.coord, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runBrowse shows page 1 and then executes commands from in until quit or EOF.
func runBrowse(ctx context.Context, coord *selection.Coordinator, in io.Reader, out io.Writer) error {
	if err := coord.Navigate(ctx, 1); err != nil {
		reportError(out, err)
	} else {
		renderPage(out, coord.Snapshot())
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		quit := execute(ctx, coord, out, strings.ToLower(fields[0]), fields[1:])
		if quit {
			return nil
		}
	}
}

// execute runs one browse command and reports whether the loop should end.
func execute(ctx context.Context, coord *selection.Coordinator, out io.Writer, name string, args []string) bool {
	switch name {
	case "quit", "exit", "q":
		return true

	case "help", "?":
		fmt.Fprintln(out, browseHelp)

	case "page", "p":
		if len(args) != 1 {
			fmt.Fprintln(out, "usage: page N")
			return false
		}
		page, err := strconv.Atoi(args[0])
		if err != nil || page < 1 {
			fmt.Fprintf(out, "invalid page %q\n", args[0])
			return false
		}
		navigate(ctx, coord, out, page)

	case "next", "n":
		current := coord.Current()
		if current == nil {
			navigate(ctx, coord, out, 1)
			return false
		}
		if current.Number >= coord.TotalPages() {
			fmt.Fprintln(out, "already on the last page")
			return false
		}
		navigate(ctx, coord, out, current.Number+1)

	case "prev":
		current := coord.Current()
		if current == nil || current.Number <= 1 {
			fmt.Fprintln(out, "already on the first page")
			return false
		}
		navigate(ctx, coord, out, current.Number-1)

	case "check", "c":
		current := coord.Current()
		if current == nil {
			fmt.Fprintln(out, "no page loaded")
			return false
		}
		ids, err := parseIDs(args)
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		if err := coord.Toggle(current.Number, ids); err != nil {
			reportError(out, err)
			return false
		}
		renderPage(out, coord.Snapshot())

	case "select", "s":
		n, ok := parseCount(args)
		if !ok {
			// the bulk-select prompt ignores non-numeric and non-positive input
			fmt.Fprintln(out, "select needs a positive number, ignored")
			return false
		}
		if err := coord.SelectFirst(ctx, n); err != nil {
			reportError(out, err)
			return false
		}
		renderPage(out, coord.Snapshot())

	case "clear":
		coord.ClearSelection()
		renderPage(out, coord.Snapshot())

	case "show":
		renderSelection(out, coord.Selection())

	default:
		fmt.Fprintf(out, "unknown command %q, type help\n", name)
	}

	return false
}

func navigate(ctx context.Context, coord *selection.Coordinator, out io.Writer, page int) {
	if err := coord.Navigate(ctx, page); err != nil {
		reportError(out, err)
		return
	}
	renderPage(out, coord.Snapshot())
}

// parseCount reads the bulk-select count. Only a single positive integer is
// accepted.
func parseCount(args []string) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseIDs reads record ids separated by spaces or commas.
func parseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid record id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// reportError prints a failed operation. State is unchanged in every case.
func reportError(out io.Writer, err error) {
	var fe *client.FetchError
	switch {
	case errors.Is(err, selection.ErrStalePage):
		fmt.Fprintln(out, "page changed, toggle ignored")
	case errors.Is(err, selection.ErrSuperseded):
		fmt.Fprintln(out, "superseded by a newer request")
	case errors.Is(err, client.ErrCooldownActive):
		fmt.Fprintln(out, "source is rate limiting requests, try again later")
	case errors.As(err, &fe):
		fmt.Fprintf(out, "fetch failed (%s): %v\n", fe.Class, err)
	default:
		fmt.Fprintf(out, "error: %v\n", err)
	}
	logger.Warn().Err(err).Msg("Operation failed")
}

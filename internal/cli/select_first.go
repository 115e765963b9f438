package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSelectFirstCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "select-first N",
		Short: "Select the first N records in listing order and print their ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid count %q", args[0])
			}

			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ids, err := s.coord.SelectFirstIDs(cmd.Context(), n)
			if err != nil {
				return err
			}

			logger.Info().
				Int("n", n).
				Int("selected", s.coord.SelectedCount()).
				Int("total_records", s.coord.TotalRecords()).
				Msg("Selection complete")

			// listing order, so the output shows which records came first
			renderSelection(cmd.OutOrStdout(), ids)
			return nil
		},
	}
}

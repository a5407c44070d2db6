package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_ytsum/internal/history"
	"github.com/anatolykoptev/go_ytsum/internal/videoref"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [url-or-id]",
		Short: "List recent runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.config()
			store, err := history.Open(cmd.Context(), cfg.DatabaseURL, cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()

			var runs []history.Run
			if len(args) == 1 {
				ref, err := videoref.Normalize(args[0])
				if err != nil {
					return err
				}
				runs, err = store.ForVideo(cmd.Context(), ref.String(), limit)
				if err != nil {
					return err
				}
			} else if runs, err = store.Recent(cmd.Context(), limit); err != nil {
				return err
			}

			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tVIDEO\tSTRATEGY\tLANG\tMODE\tCHARS")
			for _, r := range runs {
				mode := r.Mode
				if mode == "" {
					mode = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
					r.CreatedAt.Local().Format(time.DateTime), r.VideoID, r.Strategy, r.Language, mode, r.Chars)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/chris/briefing/internal/render"
	"github.com/chris/briefing/internal/reports"
	"github.com/spf13/cobra"
)

func newShowCmd(get func() *app) *cobra.Command {
	var (
		width int
		raw   bool
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "show [report]",
		Short: "Print a stored report, the latest by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := get().reports
			out := cmd.OutOrStdout()

			if list {
				names, err := store.List()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(out, n)
				}
				return nil
			}

			var (
				r   *reports.Report
				err error
			)
			if len(args) == 1 {
				r, err = store.Read(args[0])
			} else {
				r, err = store.Latest()
			}
			if err != nil {
				return err
			}

			if raw {
				fmt.Fprint(out, r.Content())
				return nil
			}
			fmt.Fprintf(out, "%s\n\n", r.Header())
			fmt.Fprint(out, render.Terminal(r.Body, width))
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 100, "Wrap width for terminal rendering")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored file unchanged")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List stored reports, newest first")
	return cmd
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/chris/briefing/internal/tools"
	"github.com/spf13/cobra"
)

func newToolsCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List or invoke the report tools directly",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := get().tools
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range reg.Names() {
				t, _ := reg.Get(name)
				fmt.Fprintf(tw, "%s\t%s\n", name, firstLine(t.Description()))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "run <name> [json-args]",
		Short: "Invoke one tool and print its JSON result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := get().tools
			raw := "{}"
			if len(args) == 2 {
				raw = args[1]
			}
			out, err := reg.Invoke(cmd.Context(), args[0], raw)
			if errors.Is(err, tools.ErrToolNotPermitted) {
				if hints := reg.Suggest(args[0]); len(hints) > 0 {
					return fmt.Errorf("unknown tool %q; did you mean %s?", args[0], strings.Join(hints, ", "))
				}
				return fmt.Errorf("unknown tool %q", args[0])
			}
			if err != nil {
				return err
			}
			var pretty bytes.Buffer
			if json.Indent(&pretty, []byte(out), "", "  ") != nil {
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		},
	})
	return cmd
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

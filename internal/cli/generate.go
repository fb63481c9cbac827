package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/chris/briefing/internal/render"
	"github.com/chris/briefing/internal/speech"
	"github.com/spf13/cobra"
)

func newGenerateCmd(get func() *app) *cobra.Command {
	var speak bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one report and print where it was written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			ctx, cancel := context.WithTimeout(cmd.Context(), generateTimeout)
			defer cancel()

			r, err := a.agent.Generate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Path)

			if !speak {
				return nil
			}
			if !a.speech.Enabled() {
				return speech.ErrNotConfigured
			}
			path := filepath.Join(a.cfg.AudioDir, speech.AudioName(r.Name))
			if err := a.speech.SaveFile(ctx, render.PlainText(r.Body), "", path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&speak, "speak", false, "Also save an MP3 reading of the report")
	return cmd
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/birdayz/procnet/doc"
)

func newMigrateCmd(a *app) *cobra.Command {
	var inPlace bool
	cmd := &cobra.Command{
		Use:   "migrate <workspace> [output]",
		Short: "Upgrade a workspace document to the current module versions",
		Long: `Upgrade a workspace document to the current module versions.

The result is written to output, back to the input with --in-place, or to
stdout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			d, err := doc.Read(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			ws, err := a.newWorkspace(io.Discard)
			if err != nil {
				return err
			}
			changed, err := ws.Migrate(d)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := ""
			switch {
			case len(args) == 2:
				out = args[1]
			case inPlace:
				out = args[0]
			}
			if out == "" {
				_, err := d.WriteTo(cmd.OutOrStdout())
				return err
			}

			b, err := d.Bytes()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return err
			}
			a.log.Info("migrated workspace", "input", args[0], "output", out, "changed", changed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "Overwrite the input file")
	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/birdayz/procnet/doc"
	"github.com/birdayz/procnet/store"
)

func newStoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage workspaces in the configured store",
	}

	withStore := func(cmd *cobra.Command, fn func(s store.Store) error) error {
		s, err := openStore(cmd.Context(), a.cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(s)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "put <key> <file>",
			Short: "Store a workspace file under key",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := os.ReadFile(args[1])
				if err != nil {
					return err
				}
				if _, err := doc.ReadBytes(b); err != nil {
					return fmt.Errorf("%s: %w", args[1], err)
				}
				return withStore(cmd, func(s store.Store) error {
					return s.Set(cmd.Context(), args[0], b)
				})
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the workspace stored under key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, func(s store.Store) error {
					b, err := s.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(b)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "list [prefix]",
			Short: "List stored keys",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				prefix := ""
				if len(args) == 1 {
					prefix = args[0]
				}
				return withStore(cmd, func(s store.Store) error {
					keys, err := s.List(cmd.Context(), prefix)
					if err != nil {
						return err
					}
					for _, k := range keys {
						fmt.Fprintln(cmd.OutOrStdout(), k)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete <key>",
			Short: "Delete a stored workspace",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, func(s store.Store) error {
					return s.Delete(cmd.Context(), args[0])
				})
			},
		},
	)
	return cmd
}

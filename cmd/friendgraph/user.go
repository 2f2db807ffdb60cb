package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd, func(ctx context.Context, store friendgraph.Store) error {
					if err := store.AddNode(ctx, args[0]); err != nil {
						return err
					}
					return a.printMessage(cmd, "created user "+args[0])
				})
			},
		},
		&cobra.Command{
			Use:     "delete <name>",
			Aliases: []string{"rm"},
			Short:   "Delete a user and all of its friendships",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd, func(ctx context.Context, store friendgraph.Store) error {
					if err := store.RemoveNode(ctx, args[0]); err != nil {
						return err
					}
					return a.printMessage(cmd, "deleted user "+args[0])
				})
			},
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List every user",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd, func(ctx context.Context, store friendgraph.Store) error {
					names, err := store.ListNodes(ctx)
					if err != nil {
						return err
					}
					return a.printNames(cmd, names)
				})
			},
		},
	)
	return cmd
}

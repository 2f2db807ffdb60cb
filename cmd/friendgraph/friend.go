package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
)

func newFriendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friend",
		Short: "Manage friendships",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <user1> <user2>",
			Short: "Befriend two users",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd, func(ctx context.Context, store friendgraph.Store) error {
					if err := store.AddEdge(ctx, args[0], args[1]); err != nil {
						return err
					}
					return a.printMessage(cmd, fmt.Sprintf("%s and %s are now friends", args[0], args[1]))
				})
			},
		},
		&cobra.Command{
			Use:     "remove <user1> <user2>",
			Aliases: []string{"rm"},
			Short:   "End the friendship between two users",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withStore(cmd, func(ctx context.Context, store friendgraph.Store) error {
					if err := store.RemoveEdge(ctx, args[0], args[1]); err != nil {
						return err
					}
					return a.printMessage(cmd, fmt.Sprintf("%s and %s are no longer friends", args[0], args[1]))
				})
			},
		},
	)
	return cmd
}

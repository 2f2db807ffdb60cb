package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/traversal"
)

func newFriendsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "friends <name>",
		Short: "Show a user's friends and friends-of-friends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, store friendgraph.Store) error {
				result, err := traversal.NewEngine(store, a.logger).Friends(ctx, args[0])
				if err != nil {
					return err
				}
				return a.printFriends(cmd, result)
			})
		},
	}
}

func newPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Show the shortest chain of friendships between two users",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, store friendgraph.Store) error {
				path, err := traversal.NewEngine(store, a.logger).ShortestPath(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return a.printPath(cmd, models.NewPathResult(path))
			})
		},
	}
}

func newGraphCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Dump every user and friendship",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, store friendgraph.Store) error {
				graph, err := traversal.NewEngine(store, a.logger).Snapshot(ctx)
				if err != nil {
					return err
				}
				return a.printGraph(cmd, graph)
			})
		},
	}
}

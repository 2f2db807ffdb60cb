package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
)

func (a *app) printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func (a *app) printMessage(cmd *cobra.Command, msg string) error {
	if a.jsonOutput {
		return a.printJSON(cmd, map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), msg)
	return err
}

func (a *app) printNames(cmd *cobra.Command, names []string) error {
	if a.jsonOutput {
		return a.printJSON(cmd, names)
	}
	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}

func (a *app) printFriends(cmd *cobra.Command, result *models.FriendsResult) error {
	if a.jsonOutput {
		return a.printJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Friends:            %s\n", joinOrNone(result.Friends))
	fmt.Fprintf(out, "Friends of friends: %s\n", joinOrNone(result.FriendsOfFriends))
	return nil
}

func (a *app) printPath(cmd *cobra.Command, result models.PathResult) error {
	if a.jsonOutput {
		return a.printJSON(cmd, result)
	}
	out := cmd.OutOrStdout()
	if len(result.Path) == 0 {
		fmt.Fprintln(out, "no path")
		return nil
	}
	fmt.Fprintf(out, "%s (%d hops)\n", strings.Join(result.Path, " -> "), result.Hops)
	return nil
}

func (a *app) printGraph(cmd *cobra.Command, graph *models.GraphResult) error {
	if a.jsonOutput {
		return a.printJSON(cmd, graph)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "USERS\t%d\n", len(graph.Nodes))
	for _, n := range graph.Nodes {
		fmt.Fprintf(w, "\t%s\n", n.ID)
	}
	fmt.Fprintf(w, "FRIENDSHIPS\t%d\n", len(graph.Edges))
	for _, e := range graph.Edges {
		fmt.Fprintf(w, "\t%s\t%s\n", e.Source, e.Target)
	}
	return w.Flush()
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

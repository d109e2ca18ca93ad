package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/triplestore/internal/props"
)

// NodeOptions holds flags for the node commands.
type NodeOptions struct {
	*RootOptions
	Properties string
}

// NewNodeCommand creates the node command group.
func NewNodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "node",
		Short: "Create, read and delete nodes",
	}

	create := &cobra.Command{
		Use:   "create <label>",
		Short: "Create a node",
		Long: `Create a node with a label and an optional JSON object payload.

Examples:
  triplestore node create Boris --props '{"nickname":"The Blade"}'
  triplestore node create Knows`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeCreate(opts, args[0], cmd)
		},
	}
	create.Flags().StringVar(&opts.Properties, "props", "{}", "node payload as a JSON object")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a node by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeGet(opts, args[0], cmd)
		},
	}

	find := &cobra.Command{
		Use:   "find <label>",
		Short: "Show the node with a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeFind(opts, args[0], cmd)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an unreferenced node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodeDelete(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(create, get, find, del)
	return cmd
}

func runNodeCreate(opts *NodeOptions, label string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	properties, err := props.ParseObject([]byte(opts.Properties))
	if err != nil {
		return fail(f, "invalid --props", WrapExitError(ExitCommandError, "parse JSON", err))
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	node, err := s.nodes.Create(context.Background(), label, properties)
	if err != nil {
		return fail(f, "failed to create node", err)
	}
	return f.Success(nodeView{node})
}

func runNodeGet(opts *NodeOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	id, err := parseID("node", arg)
	if err != nil {
		return fail(f, "invalid argument", err)
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	node, found, err := s.nodes.Get(context.Background(), id)
	if err != nil {
		return fail(f, "failed to get node", err)
	}
	if !found {
		return fail(f, fmt.Sprintf("node %d", id), errNotFound)
	}
	return f.Success(nodeView{node})
}

func runNodeFind(opts *NodeOptions, label string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	node, found, err := s.nodes.FindByLabel(context.Background(), label)
	if err != nil {
		return fail(f, "failed to find node", err)
	}
	if !found {
		return fail(f, fmt.Sprintf("node labelled %q", label), errNotFound)
	}
	return f.Success(nodeView{node})
}

func runNodeDelete(opts *NodeOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	id, err := parseID("node", arg)
	if err != nil {
		return fail(f, "invalid argument", err)
	}

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	deleted, err := s.nodes.Delete(context.Background(), id)
	if err != nil {
		return fail(f, "failed to delete node", err)
	}
	if !deleted {
		return fail(f, fmt.Sprintf("node %d", id), errNotFound)
	}
	return f.Success(deleteResult{Kind: "node", ID: id, Deleted: true})
}

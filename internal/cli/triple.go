package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewTripleCommand creates the triple command group.
func NewTripleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triple",
		Short: "Create, read and delete triples",
	}

	create := &cobra.Command{
		Use:   "create <subject-id> <predicate-id> <object-id>",
		Short: "Create a triple between existing nodes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTripleCreate(rootOpts, args, cmd)
		},
	}

	link := &cobra.Command{
		Use:   "link <subject-id> <predicate-label> <object-id>",
		Short: "Create a triple, naming the predicate by label",
		Long: `Create a triple whose predicate is named by label.

The predicate node is created with an empty payload if no node has that
label yet.

Example:
  triplestore triple link 1 knows 2`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTripleLink(rootOpts, args, cmd)
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a triple by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTripleGet(rootOpts, args[0], cmd)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a triple",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTripleDelete(rootOpts, args[0], cmd)
		},
	}

	cmd.AddCommand(create, link, get, del)
	return cmd
}

func runTripleCreate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	var ids [3]int64
	for i, role := range []string{"subject", "predicate", "object"} {
		id, err := parseID(role, args[i])
		if err != nil {
			return fail(f, "invalid argument", err)
		}
		ids[i] = id
	}

	s, err := openSession(opts, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	triple, err := s.triples.Create(context.Background(), ids[0], ids[1], ids[2])
	if err != nil {
		return fail(f, "failed to create triple", err)
	}
	return f.Success(tripleView{triple})
}

func runTripleLink(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	subjectID, err := parseID("subject", args[0])
	if err != nil {
		return fail(f, "invalid argument", err)
	}
	objectID, err := parseID("object", args[2])
	if err != nil {
		return fail(f, "invalid argument", err)
	}

	s, err := openSession(opts, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	triple, err := s.triples.Link(context.Background(), subjectID, args[1], objectID)
	if err != nil {
		return fail(f, "failed to link", err)
	}
	return f.Success(tripleView{triple})
}

func runTripleGet(opts *RootOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	id, err := parseID("triple", arg)
	if err != nil {
		return fail(f, "invalid argument", err)
	}

	s, err := openSession(opts, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	triple, found, err := s.triples.Get(context.Background(), id)
	if err != nil {
		return fail(f, "failed to get triple", err)
	}
	if !found {
		return fail(f, fmt.Sprintf("triple %d", id), errNotFound)
	}
	return f.Success(tripleView{triple})
}

func runTripleDelete(opts *RootOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	id, err := parseID("triple", arg)
	if err != nil {
		return fail(f, "invalid argument", err)
	}

	s, err := openSession(opts, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	deleted, err := s.triples.Delete(context.Background(), id)
	if err != nil {
		return fail(f, "failed to delete triple", err)
	}
	if !deleted {
		return fail(f, fmt.Sprintf("triple %d", id), errNotFound)
	}
	return f.Success(deleteResult{Kind: "triple", ID: id, Deleted: true})
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/triplestore/internal/fixture"
)

// LoadResult summarises a loaded fixture.
type LoadResult struct {
	Name     string          `json:"name"`
	Nodes    int             `json:"nodes"`
	Triples  int             `json:"triples"`
	Snapshot json.RawMessage `json:"snapshot"`
}

func (r LoadResult) String() string {
	return fmt.Sprintf("loaded %s: %d nodes, %d triples", r.Name, r.Nodes, r.Triples)
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <fixture.yaml>",
		Short: "Load nodes and triples from a YAML fixture",
		Long: `Load nodes and triples from a YAML fixture.

Entries are created in file order and loading stops at the first failure;
anything created before it stays in the store.

Example:
  triplestore load --db ./graph.db ./testdata/heist.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args[0], cmd)
		},
	}
}

func runLoad(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	fx, err := fixture.Load(path)
	if err != nil {
		return fail(f, "failed to read fixture", WrapExitError(ExitCommandError, path, err))
	}

	s, err := openSession(opts, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	res, err := fixture.Apply(context.Background(), s.nodes, s.triples, fx)
	if err != nil {
		f.VerboseLog("created %d nodes and %d triples before failing", len(res.Keys), len(res.Triples))
		return fail(f, "failed to load fixture", err)
	}

	snapshot, err := res.Snapshot()
	if err != nil {
		return fail(f, "failed to render snapshot", err)
	}

	return f.Success(LoadResult{
		Name:     res.Name,
		Nodes:    len(res.Keys),
		Triples:  len(res.Triples),
		Snapshot: snapshot,
	})
}

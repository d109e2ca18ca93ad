package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	WriteConfig string
}

// InitResult describes an initialised store.
type InitResult struct {
	Location     string `json:"location"`
	Driver       string `json:"driver"`
	ForeignKeys  bool   `json:"foreign_keys"`
	UniqueLabels bool   `json:"unique_labels"`
	Nodes        int64  `json:"nodes"`
	Triples      int64  `json:"triples"`
	ConfigPath   string `json:"config_path,omitempty"`
}

func (r InitResult) String() string {
	s := fmt.Sprintf("store ready at %s (driver %s, foreign keys %v, unique labels %v): %d nodes, %d triples",
		r.Location, r.Driver, r.ForeignKeys, r.UniqueLabels, r.Nodes, r.Triples)
	if r.ConfigPath != "" {
		s += "\nconfig written to " + r.ConfigPath
	}
	return s
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the database",
		Long: `Create the database if needed and bring its schema up to date.

Opening is idempotent; running init against an existing database only
reports its contents. With --write-config the effective configuration is
saved for later commands.

Examples:
  triplestore init --db ./graph.db
  triplestore init --db ./graph.db --write-config ./triplestore.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.WriteConfig, "write-config", "", "save the effective config to this path")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return fail(f, "failed to open store", err)
	}
	defer s.Close()

	nodes, err := s.nodes.Count(ctx)
	if err != nil {
		return fail(f, "failed to count nodes", err)
	}
	triples, err := s.triples.Count(ctx)
	if err != nil {
		return fail(f, "failed to count triples", err)
	}

	result := InitResult{
		Location:     s.st.Location(),
		Driver:       s.cfg.Database.Driver,
		ForeignKeys:  s.st.ForeignKeys(),
		UniqueLabels: s.st.UniqueLabels(),
		Nodes:        nodes,
		Triples:      triples,
	}

	if opts.WriteConfig != "" {
		if err := s.cfg.Save(opts.WriteConfig); err != nil {
			return fail(f, "failed to write config", WrapExitError(ExitCommandError, "save", err))
		}
		result.ConfigPath = opts.WriteConfig
	}

	f.VerboseLog("initialised %s", result.Location)
	return f.Success(result)
}

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/triplestore/internal/config"
	"github.com/roach88/triplestore/internal/cueschema"
	"github.com/roach88/triplestore/internal/graph"
	"github.com/roach88/triplestore/internal/store"
)

// session is an open store plus the graph stores over it.
type session struct {
	cfg     *config.Config
	st      *store.Store
	nodes   *graph.NodeStore
	triples *graph.TripleStore
}

func (s *session) Close() error {
	return s.st.Close()
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger logs to w at Debug with --verbose and at Warn otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config, or searches the default locations, and
// applies --db on top.
func loadConfig(opts *RootOptions) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if opts.ConfigPath != "" {
		cfg, path, err = config.LoadFromPath(opts.ConfigPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	return cfg, path, nil
}

func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, cfgPath, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}

	var nodeOpts []graph.NodeOption
	if schemaPath := cfg.Schema.Properties; schemaPath != "" {
		if !filepath.IsAbs(schemaPath) && cfgPath != "" {
			schemaPath = filepath.Join(filepath.Dir(cfgPath), schemaPath)
		}
		schema, err := cueschema.Load(schemaPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load properties schema", err)
		}
		nodeOpts = append(nodeOpts, graph.WithValidator(schema))
	}

	st, err := store.OpenWith(cfg.StoreOptions(logger))
	if err != nil {
		return nil, err
	}

	nodes := graph.NewNodeStore(st, nodeOpts...)
	return &session{
		cfg:     cfg,
		st:      st,
		nodes:   nodes,
		triples: graph.NewTripleStore(st, nodes),
	}, nil
}

// parseID parses a positional record id.
func parseID(what, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid %s id %q", what, arg), err)
	}
	return id, nil
}

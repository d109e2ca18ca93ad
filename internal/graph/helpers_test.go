package graph

import (
	"testing"

	"github.com/roach88/triplestore/internal/store"
	"github.com/roach88/triplestore/internal/testutil"
)

type fixture struct {
	st      *store.Store
	nodes   *NodeStore
	triples *TripleStore
}

func newFixture(t *testing.T, opts store.Options, nodeOpts ...NodeOption) fixture {
	t.Helper()
	st := testutil.OpenStore(t, opts)
	nodes := NewNodeStore(st, nodeOpts...)
	return fixture{st: st, nodes: nodes, triples: NewTripleStore(st, nodes)}
}

// forEachDriver runs fn against a fresh file-backed store per driver.
func forEachDriver(t *testing.T, fn func(t *testing.T, f fixture)) {
	t.Helper()
	testutil.ForEachDriver(t, func(t *testing.T, d store.Driver) {
		fn(t, newFixture(t, store.Options{Driver: d}))
	})
}

// Package graph implements the node and triple stores of the triple-store.
//
// NodeStore persists entities; TripleStore persists directed edges
// (subject, predicate, object) whose three ends are node identities.
// Predicates are nodes too, so they can carry their own properties;
// TripleStore.Link covers the common case of naming a predicate by label.
//
// Both stores share one *store.Store handle passed in by the caller:
//
//	st, err := store.Open("graph.db")
//	if err != nil { ... }
//	defer st.Close()
//
//	nodes := graph.NewNodeStore(st)
//	triples := graph.NewTripleStore(st, nodes)
//
// Every create and delete is a single write transaction: uniqueness and
// reference checks happen atomically with the insert. Get returns a
// detached copy and reports absence with found=false, never an error.
//
// Nodes and triples are immutable once created. Deleting a node that any
// triple still references fails with an integrity violation while foreign
// keys are enforced.
package graph

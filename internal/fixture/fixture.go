// Package fixture loads YAML graph fixtures into a store.
//
// A fixture lists nodes, each with a key local to the file, and triples
// that refer to nodes by key:
//
//	name: heist
//	nodes:
//	  - key: boris
//	    label: Boris
//	    properties: {nickname: The Blade}
//	  - key: knows
//	    label: Knows
//	triples:
//	  - {subject: boris, predicate: knows, object: boris}
//
// Apply creates everything in file order through the graph stores and
// stops at the first failure.
package fixture

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/triplestore/internal/graph"
	"github.com/roach88/triplestore/internal/props"
)

// Fixture is a parsed fixture file.
type Fixture struct {
	// Name identifies the fixture in snapshots.
	Name string `yaml:"name"`

	Description string `yaml:"description,omitempty"`

	Nodes   []NodeSpec   `yaml:"nodes"`
	Triples []TripleSpec `yaml:"triples,omitempty"`
}

// NodeSpec describes a node to create. Key defaults to Label.
type NodeSpec struct {
	Key        string         `yaml:"key,omitempty"`
	Label      string         `yaml:"label"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// TripleSpec describes a triple by node keys.
type TripleSpec struct {
	Subject   string `yaml:"subject"`
	Predicate string `yaml:"predicate"`
	Object    string `yaml:"object"`
}

// Load reads and parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture, rejecting unknown fields and dangling keys.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}

	keys := make(map[string]bool, len(f.Nodes))
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.Label == "" {
			return fmt.Errorf("nodes[%d]: label is required", i)
		}
		if n.Key == "" {
			n.Key = n.Label
		}
		if keys[n.Key] {
			return fmt.Errorf("nodes[%d]: duplicate key %q", i, n.Key)
		}
		keys[n.Key] = true
	}

	for i, t := range f.Triples {
		refs := [...]struct{ role, key string }{
			{"subject", t.Subject},
			{"predicate", t.Predicate},
			{"object", t.Object},
		}
		for _, ref := range refs {
			if !keys[ref.key] {
				return fmt.Errorf("triples[%d]: %s %q is not a node key", i, ref.role, ref.key)
			}
		}
	}
	return nil
}

// Result holds what Apply created, in creation order.
type Result struct {
	Name    string
	Keys    []string
	Nodes   map[string]graph.Node
	Triples []graph.Triple
}

// Apply creates the fixture's nodes and then its triples. On failure it
// returns what was created so far and an error naming the failing entry;
// the store's typed error stays reachable through errors.As.
func Apply(ctx context.Context, nodes *graph.NodeStore, triples *graph.TripleStore, f *Fixture) (*Result, error) {
	res := &Result{
		Name:  f.Name,
		Nodes: make(map[string]graph.Node, len(f.Nodes)),
	}

	for i, spec := range f.Nodes {
		properties, err := props.ObjectFromMap(spec.Properties)
		if err != nil {
			return res, fmt.Errorf("nodes[%d] %q: properties: %w", i, spec.Key, err)
		}
		node, err := nodes.Create(ctx, spec.Label, properties)
		if err != nil {
			return res, fmt.Errorf("nodes[%d] %q: %w", i, spec.Key, err)
		}
		res.Keys = append(res.Keys, spec.Key)
		res.Nodes[spec.Key] = node
	}

	for i, spec := range f.Triples {
		triple, err := triples.Create(ctx,
			res.Nodes[spec.Subject].ID,
			res.Nodes[spec.Predicate].ID,
			res.Nodes[spec.Object].ID,
		)
		if err != nil {
			return res, fmt.Errorf("triples[%d] (%s %s %s): %w", i, spec.Subject, spec.Predicate, spec.Object, err)
		}
		res.Triples = append(res.Triples, triple)
	}

	return res, nil
}

// Snapshot renders the result as canonical JSON.
func (r *Result) Snapshot() ([]byte, error) {
	nodeList := make(props.Array, 0, len(r.Keys))
	for _, key := range r.Keys {
		n := r.Nodes[key]
		nodeList = append(nodeList, props.New(
			props.P("id", props.Int(n.ID)),
			props.P("key", props.String(key)),
			props.P("label", props.String(n.Label)),
			props.P("properties", n.Properties),
		))
	}

	tripleList := make(props.Array, 0, len(r.Triples))
	for _, t := range r.Triples {
		tripleList = append(tripleList, props.New(
			props.P("id", props.Int(t.ID)),
			props.P("subject", props.Int(t.SubjectID)),
			props.P("predicate", props.Int(t.PredicateID)),
			props.P("object", props.Int(t.ObjectID)),
		))
	}

	return props.MarshalCanonical(props.New(
		props.P("name", props.String(r.Name)),
		props.P("nodes", nodeList),
		props.P("triples", tripleList),
	))
}

package cli

import (
	"fmt"

	"github.com/roach88/triplestore/internal/graph"
)

// nodeView prints a node in text mode and marshals as the node itself.
type nodeView struct {
	graph.Node
}

func (v nodeView) String() string {
	payload, err := v.Properties.MarshalJSON()
	if err != nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf("node %d %q %s", v.ID, v.Label, payload)
}

type tripleView struct {
	graph.Triple
}

func (v tripleView) String() string {
	return fmt.Sprintf("triple %d (%d %d %d)", v.ID, v.SubjectID, v.PredicateID, v.ObjectID)
}

// deleteResult reports a delete.
type deleteResult struct {
	Kind    string `json:"kind"`
	ID      int64  `json:"id"`
	Deleted bool   `json:"deleted"`
}

func (r deleteResult) String() string {
	return fmt.Sprintf("%s %d deleted", r.Kind, r.ID)
}

package graph

import (
	"context"
	"database/sql"

	"github.com/roach88/triplestore/internal/props"
)

// Node is a persisted entity.
type Node struct {
	// ID is assigned by the store on create. Zero means not yet persisted.
	ID int64 `json:"id"`

	// Label is the node's name, NFC normalised.
	Label string `json:"label"`

	// Properties is the node's structured payload. Never nil on nodes
	// returned by the store.
	Properties props.Object `json:"properties"`
}

// Triple is a persisted directed edge between three nodes.
type Triple struct {
	ID          int64 `json:"id"`
	SubjectID   int64 `json:"subject_id"`
	PredicateID int64 `json:"predicate_id"`
	ObjectID    int64 `json:"object_id"`
}

// Validator checks a node payload before it is written.
type Validator interface {
	Validate(label string, properties props.Object) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

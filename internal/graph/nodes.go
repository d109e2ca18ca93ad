package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/triplestore/internal/props"
	"github.com/roach88/triplestore/internal/store"
)

// NodeStore creates and looks up nodes.
type NodeStore struct {
	st        *store.Store
	validator Validator
}

// NodeOption configures a NodeStore.
type NodeOption func(*NodeStore)

// WithValidator rejects node payloads that v refuses.
func WithValidator(v Validator) NodeOption {
	return func(n *NodeStore) {
		n.validator = v
	}
}

// NewNodeStore returns a NodeStore backed by st.
func NewNodeStore(st *store.Store, opts ...NodeOption) *NodeStore {
	n := &NodeStore{st: st}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Create inserts a node and returns it with its assigned ID.
//
// The label is NFC normalised; an empty label is rejected. A nil payload
// is stored as an empty object. The returned node carries the payload as
// it will be read back, so Create followed by Get yields equal nodes.
//
// With label uniqueness enforced, a label already in use fails with a
// Conflict error and nothing is written.
func (n *NodeStore) Create(ctx context.Context, label string, properties props.Object) (Node, error) {
	const op = "create node"

	label, data, err := n.prepare(op, label, properties)
	if err != nil {
		return Node{}, err
	}

	var id int64
	err = n.st.WriteTx(ctx, op, func(tx *sql.Tx) error {
		id, err = n.insertTx(ctx, tx, op, label, data)
		return err
	})
	if err != nil {
		return Node{}, err
	}

	node, err := decodeNode(id, label, data)
	if err != nil {
		return Node{}, store.Classify(op, err)
	}

	n.st.Logger().Debug("node created", "id", id, "label", label)
	return node, nil
}

// Get returns the node with the given ID. found is false, with a nil
// error, when no such node exists.
func (n *NodeStore) Get(ctx context.Context, id int64) (node Node, found bool, err error) {
	if id <= 0 {
		return Node{}, false, nil
	}

	row := n.st.DB().QueryRowContext(ctx, `
		SELECT id, label, properties
		FROM node
		WHERE id = ?
	`, id)

	return scanNodeRow(row, "get node")
}

// FindByLabel returns the node with the given label. When duplicate
// labels are allowed the lowest ID wins.
func (n *NodeStore) FindByLabel(ctx context.Context, label string) (Node, bool, error) {
	return findByLabel(ctx, n.st.DB(), norm.NFC.String(label))
}

// Delete removes a node and reports whether it existed.
//
// While foreign keys are enforced a node referenced by any triple cannot
// be deleted: the call fails with an integrity violation and the node is
// kept. Delete the triples first.
func (n *NodeStore) Delete(ctx context.Context, id int64) (bool, error) {
	const op = "delete node"

	if id <= 0 {
		return false, nil
	}

	var deleted bool
	err := n.st.WriteTx(ctx, op, func(tx *sql.Tx) error {
		if n.st.ForeignKeys() {
			var refs int64
			err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM triple
				WHERE subject_id = ? OR predicate_id = ? OR object_id = ?
			`, id, id, id).Scan(&refs)
			if err != nil {
				return store.Classify(op, fmt.Errorf("count references: %w", err))
			}
			if refs > 0 {
				return store.NewIntegrity(op,
					fmt.Sprintf("node %d is referenced by %d triple(s)", id, refs), nil, nil)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM node WHERE id = ?`, id)
		if err != nil {
			return store.Classify(op, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return store.Classify(op, fmt.Errorf("rows affected: %w", err))
		}
		deleted = affected > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		n.st.Logger().Debug("node deleted", "id", id)
	}
	return deleted, nil
}

// Count returns the number of nodes.
func (n *NodeStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := n.st.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM node`).Scan(&count); err != nil {
		return 0, store.Classify("count nodes", err)
	}
	return count, nil
}

// prepare normalises and validates a node before insert, returning the
// label to store and the canonical payload bytes. The validator sees the
// payload decoded from those bytes.
func (n *NodeStore) prepare(op, label string, properties props.Object) (string, []byte, error) {
	label = norm.NFC.String(label)
	if label == "" {
		return "", nil, store.NewInvalid(op, "label must not be empty", nil)
	}

	if properties == nil {
		properties = props.Object{}
	}

	data, err := props.MarshalCanonical(properties)
	if err != nil {
		return "", nil, store.NewInvalid(op, "properties cannot be encoded", err)
	}

	if n.validator != nil {
		// Validate the stored form, not the caller's spelling of it.
		stored, err := props.ParseObject(data)
		if err != nil {
			return "", nil, store.NewInvalid(op, "properties cannot be encoded", err)
		}
		if err := n.validator.Validate(label, stored); err != nil {
			return "", nil, store.NewInvalid(op, "properties rejected by schema", err)
		}
	}
	return label, data, nil
}

// insertTx writes a prepared node inside tx. A unique-label violation is
// reported as a Conflict naming the node that already holds the label.
func (n *NodeStore) insertTx(ctx context.Context, tx *sql.Tx, op, label string, data []byte) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO node (label, properties)
		VALUES (?, ?)
	`, label, string(data))
	if err != nil {
		err = store.Classify(op, err)
		if store.IsConflict(err) {
			if existing, found, ferr := findByLabel(ctx, tx, label); ferr == nil && found {
				return 0, store.NewConflict(op,
					fmt.Sprintf("label %q already used by node %d", label, existing.ID), errors.Unwrap(err))
			}
		}
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, store.Classify(op, fmt.Errorf("last insert id: %w", err))
	}
	return id, nil
}

func findByLabel(ctx context.Context, q querier, label string) (Node, bool, error) {
	if label == "" {
		return Node{}, false, nil
	}

	row := q.QueryRowContext(ctx, `
		SELECT id, label, properties
		FROM node
		WHERE label = ?
		ORDER BY id ASC
		LIMIT 1
	`, label)

	return scanNodeRow(row, "find node")
}

// scanNodeRow scans a single node row, mapping sql.ErrNoRows to absence.
func scanNodeRow(row *sql.Row, op string) (Node, bool, error) {
	var (
		id    int64
		label string
		data  string
	)
	if err := row.Scan(&id, &label, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Node{}, false, nil
		}
		return Node{}, false, store.Classify(op, err)
	}

	node, err := decodeNode(id, label, []byte(data))
	if err != nil {
		return Node{}, false, store.Classify(op, err)
	}
	return node, true, nil
}

func decodeNode(id int64, label string, data []byte) (Node, error) {
	properties, err := props.ParseObject(data)
	if err != nil {
		return Node{}, fmt.Errorf("decode properties of node %d: %w", id, err)
	}
	return Node{ID: id, Label: label, Properties: properties}, nil
}

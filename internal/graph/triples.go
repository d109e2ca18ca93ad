package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/triplestore/internal/props"
	"github.com/roach88/triplestore/internal/store"
)

// TripleStore creates and looks up triples.
type TripleStore struct {
	st    *store.Store
	nodes *NodeStore
}

// NewTripleStore returns a TripleStore backed by st. nodes is used when
// Link has to create a predicate node; nil means a NodeStore without a
// validator.
func NewTripleStore(st *store.Store, nodes *NodeStore) *TripleStore {
	if nodes == nil {
		nodes = NewNodeStore(st)
	}
	return &TripleStore{st: st, nodes: nodes}
}

// Create inserts the edge subject -predicate-> object.
//
// Fails with:
//   - Invalid if any id is not positive
//   - IntegrityViolation, listing the missing ids, if a referenced node
//     does not exist (only while foreign keys are enforced)
//   - Conflict if the exact tuple already exists
//
// The reference check and the insert run in one write transaction.
func (t *TripleStore) Create(ctx context.Context, subjectID, predicateID, objectID int64) (Triple, error) {
	const op = "create triple"

	if err := checkIDs(op, subjectID, predicateID, objectID); err != nil {
		return Triple{}, err
	}

	var triple Triple
	err := t.st.WriteTx(ctx, op, func(tx *sql.Tx) error {
		var err error
		triple, err = t.insertTx(ctx, tx, op, subjectID, predicateID, objectID)
		return err
	})
	if err != nil {
		return Triple{}, err
	}

	t.st.Logger().Debug("triple created",
		"id", triple.ID,
		"subject_id", subjectID,
		"predicate_id", predicateID,
		"object_id", objectID,
	)
	return triple, nil
}

// Link inserts subject -predicate-> object where the predicate is named by
// label. The predicate node is looked up by label and created, with an
// empty payload, when absent. Lookup, creation and insert share one
// transaction, so a failed insert leaves no orphan predicate behind.
func (t *TripleStore) Link(ctx context.Context, subjectID int64, predicateLabel string, objectID int64) (Triple, error) {
	const op = "link"

	if err := checkIDs(op, subjectID, objectID); err != nil {
		return Triple{}, err
	}

	predicateLabel = norm.NFC.String(predicateLabel)
	if predicateLabel == "" {
		return Triple{}, store.NewInvalid(op, "predicate label must not be empty", nil)
	}

	var (
		triple  Triple
		created bool
	)
	err := t.st.WriteTx(ctx, op, func(tx *sql.Tx) error {
		predicate, found, err := findByLabel(ctx, tx, predicateLabel)
		if err != nil {
			return err
		}

		predicateID := predicate.ID
		if !found {
			label, data, err := t.nodes.prepare(op, predicateLabel, props.Object{})
			if err != nil {
				return err
			}
			predicateID, err = t.nodes.insertTx(ctx, tx, op, label, data)
			if err != nil {
				return err
			}
			created = true
		}

		triple, err = t.insertTx(ctx, tx, op, subjectID, predicateID, objectID)
		return err
	})
	if err != nil {
		return Triple{}, err
	}

	t.st.Logger().Debug("triple linked",
		"id", triple.ID,
		"predicate", predicateLabel,
		"predicate_id", triple.PredicateID,
		"predicate_created", created,
	)
	return triple, nil
}

// Get returns the triple with the given ID. found is false, with a nil
// error, when no such triple exists.
func (t *TripleStore) Get(ctx context.Context, id int64) (triple Triple, found bool, err error) {
	if id <= 0 {
		return Triple{}, false, nil
	}

	err = t.st.DB().QueryRowContext(ctx, `
		SELECT id, subject_id, predicate_id, object_id
		FROM triple
		WHERE id = ?
	`, id).Scan(&triple.ID, &triple.SubjectID, &triple.PredicateID, &triple.ObjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Triple{}, false, nil
		}
		return Triple{}, false, store.Classify("get triple", err)
	}
	return triple, true, nil
}

// Delete removes a triple and reports whether it existed.
func (t *TripleStore) Delete(ctx context.Context, id int64) (bool, error) {
	const op = "delete triple"

	if id <= 0 {
		return false, nil
	}

	var deleted bool
	err := t.st.WriteTx(ctx, op, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM triple WHERE id = ?`, id)
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
		t.st.Logger().Debug("triple deleted", "id", id)
	}
	return deleted, nil
}

// Count returns the number of triples.
func (t *TripleStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := t.st.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM triple`).Scan(&count); err != nil {
		return 0, store.Classify("count triples", err)
	}
	return count, nil
}

// insertTx checks references and inserts the tuple inside tx.
func (t *TripleStore) insertTx(ctx context.Context, tx *sql.Tx, op string, subjectID, predicateID, objectID int64) (Triple, error) {
	if t.st.ForeignKeys() {
		missing, err := missingNodes(ctx, tx, subjectID, predicateID, objectID)
		if err != nil {
			return Triple{}, store.Classify(op, err)
		}
		if len(missing) > 0 {
			return Triple{}, store.NewIntegrity(op, "referenced nodes do not exist", missing, nil)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO triple (subject_id, predicate_id, object_id)
		VALUES (?, ?, ?)
	`, subjectID, predicateID, objectID)
	if err != nil {
		err = store.Classify(op, err)
		if store.IsConflict(err) {
			var existing int64
			if qerr := tx.QueryRowContext(ctx, `
				SELECT id FROM triple
				WHERE subject_id = ? AND predicate_id = ? AND object_id = ?
			`, subjectID, predicateID, objectID).Scan(&existing); qerr == nil {
				return Triple{}, store.NewConflict(op,
					fmt.Sprintf("triple (%d, %d, %d) already exists as %d", subjectID, predicateID, objectID, existing),
					errors.Unwrap(err))
			}
		}
		return Triple{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Triple{}, store.Classify(op, fmt.Errorf("last insert id: %w", err))
	}

	return Triple{
		ID:          id,
		SubjectID:   subjectID,
		PredicateID: predicateID,
		ObjectID:    objectID,
	}, nil
}

// missingNodes returns, in ascending order and without duplicates, the ids
// that have no node row.
func missingNodes(ctx context.Context, q querier, ids ...int64) ([]int64, error) {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(unique)), ",")
	args := make([]any, len(unique))
	for i, id := range unique {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id FROM node WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query referenced nodes: %w", err)
	}
	defer rows.Close()

	present := make(map[int64]bool, len(unique))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan referenced node: %w", err)
		}
		present[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referenced nodes: %w", err)
	}

	var missing []int64
	for _, id := range unique {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func checkIDs(op string, ids ...int64) error {
	for _, id := range ids {
		if id <= 0 {
			return store.NewInvalid(op, fmt.Sprintf("node id must be positive, got %d", id), nil)
		}
	}
	return nil
}

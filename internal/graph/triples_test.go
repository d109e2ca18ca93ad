package graph

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/triplestore/internal/props"
	"github.com/roach88/triplestore/internal/store"
)

func nan() float64 { return math.NaN() }

// createSPO creates three distinct nodes for use as subject, predicate, object.
func createSPO(t *testing.T, f fixture) (s, p, o Node) {
	t.Helper()
	ctx := context.Background()

	var err error
	s, err = f.nodes.Create(ctx, "Boris the", props.New(props.P("name", props.String("Boris the"))))
	require.NoError(t, err)
	p, err = f.nodes.Create(ctx, "Knows", nil)
	require.NoError(t, err)
	o, err = f.nodes.Create(ctx, "Brick Top", props.New(props.P("name", props.String("Brick Top"))))
	require.NoError(t, err)
	return s, p, o
}

func TestScenario_BorisKnowsBrickTop(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		ctx := context.Background()

		boris, err := f.nodes.Create(ctx, "Boris", nil)
		require.NoError(t, err)
		brickTop, err := f.nodes.Create(ctx, "BrickTop", nil)
		require.NoError(t, err)
		knows, err := f.nodes.Create(ctx, "Knows", nil)
		require.NoError(t, err)

		assert.Equal(t, []int64{1, 2, 3}, []int64{boris.ID, brickTop.ID, knows.ID})

		created, err := f.triples.Create(ctx, boris.ID, knows.ID, brickTop.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)

		got, found, err := f.triples.Get(ctx, 1)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, Triple{ID: 1, SubjectID: 1, PredicateID: 3, ObjectID: 2}, got)
	})
}

func TestTripleCreateThenGet_Identical(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		s, p, o := createSPO(t, f)

		tuples := [][3]int64{
			{s.ID, p.ID, o.ID},
			{o.ID, p.ID, s.ID},
			{s.ID, p.ID, s.ID}, // self-loop
			{p.ID, p.ID, p.ID},
		}
		for _, tu := range tuples {
			created, err := f.triples.Create(ctx, tu[0], tu[1], tu[2])
			require.NoError(t, err)

			got, found, err := f.triples.Get(ctx, created.ID)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, created, got)
		}
	})
}

func TestTripleCreate_DuplicateConflict(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		s, p, o := createSPO(t, f)

		first, err := f.triples.Create(ctx, s.ID, p.ID, o.ID)
		require.NoError(t, err)

		_, err = f.triples.Create(ctx, s.ID, p.ID, o.ID)
		require.Error(t, err)
		assert.True(t, store.IsConflict(err), "want conflict, got %v", err)
		assert.Contains(t, err.Error(), "already exists as 1")

		count, err := f.triples.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		got, found, err := f.triples.Get(ctx, first.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, first, got)
	})
}

func TestTripleCreate_MissingObjectIntegrityViolation(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		s, p, _ := createSPO(t, f)

		_, err := f.triples.Create(ctx, s.ID, p.ID, 999)
		require.Error(t, err)
		assert.True(t, store.IsIntegrityViolation(err), "want integrity violation, got %v", err)

		var se *store.Error
		require.ErrorAs(t, err, &se)
		assert.Equal(t, []int64{999}, se.Missing)

		count, err := f.triples.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestTripleCreate_ReportsEveryMissingID(t *testing.T) {
	f := newFixture(t, store.Options{})
	ctx := context.Background()
	s, _, _ := createSPO(t, f)

	_, err := f.triples.Create(ctx, 77, 50, 77)
	var se *store.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, store.CodeIntegrity, se.Code)
	assert.Equal(t, []int64{50, 77}, se.Missing)

	_, err = f.triples.Create(ctx, s.ID, 50, s.ID)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []int64{50}, se.Missing)
}

func TestTripleCreate_DeletedNodeIsMissing(t *testing.T) {
	f := newFixture(t, store.Options{})
	ctx := context.Background()
	s, p, o := createSPO(t, f)

	deleted, err := f.nodes.Delete(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = f.triples.Create(ctx, s.ID, p.ID, o.ID)
	assert.True(t, store.IsIntegrityViolation(err), "want integrity violation, got %v", err)
}

func TestTripleCreate_ForeignKeysDisabledAcceptsDangling(t *testing.T) {
	f := newFixture(t, store.Options{DisableForeignKeys: true})
	ctx := context.Background()

	tr, err := f.triples.Create(ctx, 10, 20, 30)
	require.NoError(t, err)

	got, found, err := f.triples.Get(ctx, tr.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Triple{ID: tr.ID, SubjectID: 10, PredicateID: 20, ObjectID: 30}, got)

	// Uniqueness still holds without foreign keys.
	_, err = f.triples.Create(ctx, 10, 20, 30)
	assert.True(t, store.IsConflict(err), "want conflict, got %v", err)
}

func TestTripleCreate_NonPositiveIDsInvalid(t *testing.T) {
	f := newFixture(t, store.Options{})
	ctx := context.Background()

	for _, tu := range [][3]int64{{0, 1, 1}, {1, -1, 1}, {1, 1, 0}} {
		_, err := f.triples.Create(ctx, tu[0], tu[1], tu[2])
		assert.True(t, store.IsInvalid(err), "want invalid for %v, got %v", tu, err)
	}
}

func TestTripleGet_UnknownIDIsAbsent(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		for _, id := range []int64{1, 1000, 0, -5} {
			tr, found, err := f.triples.Get(context.Background(), id)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Equal(t, Triple{}, tr)
		}
	})
}

func TestTripleDelete(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		ctx := context.Background()
		s, p, o := createSPO(t, f)

		tr, err := f.triples.Create(ctx, s.ID, p.ID, o.ID)
		require.NoError(t, err)

		deleted, err := f.triples.Delete(ctx, tr.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = f.triples.Delete(ctx, tr.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		// Once unreferenced the nodes can go.
		for _, id := range []int64{s.ID, p.ID, o.ID} {
			deleted, err := f.nodes.Delete(ctx, id)
			require.NoError(t, err)
			assert.True(t, deleted)
		}

		// The tuple is free again, under a new identity.
		s2, p2, o2 := createSPO(t, f)
		again, err := f.triples.Create(ctx, s2.ID, p2.ID, o2.ID)
		require.NoError(t, err)
		assert.Greater(t, again.ID, tr.ID)
	})
}

func TestTripleLink_CreatesPredicate(t *testing.T) {
	forEachDriver(t, func(t *testing.T, f fixture) {
		ctx := context.Background()

		tommy, err := f.nodes.Create(ctx, "Tommy", nil)
		require.NoError(t, err)
		turkish, err := f.nodes.Create(ctx, "Turkish", nil)
		require.NoError(t, err)

		tr, err := f.triples.Link(ctx, tommy.ID, "partners with", turkish.ID)
		require.NoError(t, err)

		pred, found, err := f.nodes.FindByLabel(ctx, "partners with")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, pred.ID, tr.PredicateID)
		assert.Equal(t, props.Object{}, pred.Properties)

		// A second link reuses the predicate.
		tr2, err := f.triples.Link(ctx, turkish.ID, "partners with", tommy.ID)
		require.NoError(t, err)
		assert.Equal(t, pred.ID, tr2.PredicateID)

		count, err := f.nodes.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}

func TestTripleLink_ReusesPredicateWithProperties(t *testing.T) {
	f := newFixture(t, store.Options{})
	ctx := context.Background()

	s, p, o := createSPO(t, f)

	tr, err := f.triples.Link(ctx, s.ID, p.Label, o.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, tr.PredicateID)
}

func TestTripleLink_FailureLeavesNoPredicate(t *testing.T) {
	f := newFixture(t, store.Options{})
	ctx := context.Background()

	n, err := f.nodes.Create(ctx, "Mullet", nil)
	require.NoError(t, err)

	_, err = f.triples.Link(ctx, n.ID, "owes", 404)
	assert.True(t, store.IsIntegrityViolation(err), "want integrity violation, got %v", err)

	_, found, err := f.nodes.FindByLabel(ctx, "owes")
	require.NoError(t, err)
	assert.False(t, found, "predicate creation must roll back with the failed insert")
}

func TestTripleLink_DuplicateConflict(t *testing.T) {
	f := newFixture(t, store.Options{})
	ctx := context.Background()
	s, _, o := createSPO(t, f)

	_, err := f.triples.Link(ctx, s.ID, "fears", o.ID)
	require.NoError(t, err)

	_, err = f.triples.Link(ctx, s.ID, "fears", o.ID)
	assert.True(t, store.IsConflict(err), "want conflict, got %v", err)
}

func TestTripleLink_EmptyPredicateInvalid(t *testing.T) {
	f := newFixture(t, store.Options{})
	s, _, o := createSPO(t, f)

	_, err := f.triples.Link(context.Background(), s.ID, "", o.ID)
	assert.True(t, store.IsInvalid(err), "want invalid, got %v", err)
}

func TestTripleStore_InMemory(t *testing.T) {
	for _, d := range []store.Driver{store.DriverCGO, store.DriverPureGo} {
		t.Run(string(d), func(t *testing.T) {
			f := newFixture(t, store.Options{Path: store.MemoryPath, Driver: d})
			ctx := context.Background()

			s, p, o := createSPO(t, f)
			tr, err := f.triples.Create(ctx, s.ID, p.ID, o.ID)
			require.NoError(t, err)

			got, found, err := f.triples.Get(ctx, tr.ID)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tr, got)

			_, err = f.triples.Create(ctx, s.ID, p.ID, 99)
			assert.True(t, store.IsIntegrityViolation(err))
		})
	}
}

package fixture

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares the result's snapshot against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/fixture -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	snapshot, err := result.Snapshot()
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
}

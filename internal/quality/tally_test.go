package quality

import (
	"reflect"
	"testing"
)

// TestTallyAdd checks counter accumulation and that bad inputs are ignored.
func TestTallyAdd(t *testing.T) {
	t.Parallel()

	tl := NewTally()
	tl.Add(DuplicateOrders, 3)
	tl.Add(DuplicateOrders, 2)
	if got := tl.Count(DuplicateOrders); got != 5 {
		t.Fatalf("Count(DuplicateOrders) = %d, want 5", got)
	}

	tl.Add(DuplicateOrders, 0)
	tl.Add(DuplicateOrders, -7)
	if got := tl.Count(DuplicateOrders); got != 5 {
		t.Fatalf("Count after non-positive deltas = %d, want 5", got)
	}

	tl.Add(Issue("made_up_counter"), 9)
	if got := tl.Count(Issue("made_up_counter")); got != 0 {
		t.Fatalf("unknown issue counted: %d", got)
	}
}

// TestSnapshotScore verifies the quality score derivation, including the
// zero-processed edge case.
func TestSnapshotScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		processed int64
		cleaned   int64
		want      float64
	}{
		{"nothing processed", 0, 0, 0},
		{"all clean", 100, 100, 100},
		{"two thirds", 3, 2, 66.67},
		{"most dropped", 1000, 7, 0.7},
	}
	for _, c := range cases {
		tl := NewTally()
		tl.Add(RowsProcessed, c.processed)
		tl.Add(RowsCleaned, c.cleaned)
		rep := tl.Snapshot()
		if rep.QualityScore != c.want {
			t.Errorf("%s: QualityScore = %v, want %v", c.name, rep.QualityScore, c.want)
		}
		if rep.RowsRemoved != c.processed-c.cleaned {
			t.Errorf("%s: RowsRemoved = %d, want %d", c.name, rep.RowsRemoved, c.processed-c.cleaned)
		}
	}
}

// TestSnapshotFields checks that every tallied category lands in its report
// field.
func TestSnapshotFields(t *testing.T) {
	t.Parallel()

	tl := NewTally()
	for i, is := range Issues {
		tl.Add(is, int64(i+1))
	}
	got := tl.Snapshot()
	want := Report{
		DuplicateOrders:      1,
		InvalidQuantity:      2,
		InvalidPrice:         3,
		InvalidDiscount:      4,
		InvalidDate:          5,
		MissingValues:        6,
		NormalizedRegions:    7,
		NormalizedCategories: 8,
		TotalRowsProcessed:   9,
		TotalRowsCleaned:     10,
		RowsRemoved:          -1,
		QualityScore:         111.11,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Snapshot() = %+v, want %+v", got, want)
	}
}

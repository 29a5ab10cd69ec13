package booking

import (
	"reflect"
	"testing"
)

func TestSnapshotLookup(t *testing.T) {
	snap := NewSnapshot([]BookingRange{
		{PropertyID: 1, CheckIn: "2025-01-30", CheckOut: "2025-02-02"},
	}, 1, 2025)

	if days := snap.Lookup(Key{PropertyID: 1, Year: 2025, Month: 1}); !days.Has(30) || !days.Has(31) || days.Has(1) {
		t.Errorf("unexpected days %v", days.Sorted())
	}
	if days := snap.Lookup(Key{PropertyID: 1, Year: 2025, Month: 2}); days != nil {
		t.Errorf("other month should miss, got %v", days.Sorted())
	}
	if got := snap.Lookup(Key{PropertyID: 99, Year: 2025, Month: 1}).Sorted(); got == nil || len(got) != 0 {
		t.Errorf("unknown property should have an empty day list, got %v", got)
	}
}

func TestSnapshotView(t *testing.T) {
	snap := NewSnapshot([]BookingRange{
		{PropertyID: 2, CheckIn: "2025-03-03", CheckOut: "2025-03-05"},
	}, 3, 2025)

	v := snap.View()
	if v.Month != 3 || v.Year != 2025 {
		t.Fatalf("period: %d/%d", v.Month, v.Year)
	}
	if !reflect.DeepEqual(v.Properties["2"], []int{3, 4}) {
		t.Errorf("got %v", v.Properties)
	}
}

func TestIndexSwap(t *testing.T) {
	var idx Index
	if idx.Current() != nil {
		t.Fatal("new index should be empty")
	}

	first := NewSnapshot(nil, 1, 2025)
	idx.Swap(first)
	second := NewSnapshot(nil, 2, 2025)
	idx.Swap(second)

	if idx.Current() != second {
		t.Fatal("swap should replace the snapshot wholesale")
	}
	if !idx.Current().Covers(2, 2025) || idx.Current().Covers(1, 2025) {
		t.Fatal("covers reports the wrong period")
	}

	idx.Reset()
	if idx.Current() != nil {
		t.Fatal("reset should drop the snapshot")
	}
}

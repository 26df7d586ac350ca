package watcher

import (
	"reflect"
	"testing"
)

func TestCatchUpRanges(t *testing.T) {
	got := catchUpRanges(100, 105, 2)
	want := []blockRange{
		{from: 100, to: 101},
		{from: 102, to: 103},
		{from: 104, to: 105},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestCatchUpRangesPartialLastWindow(t *testing.T) {
	got := catchUpRanges(10, 14, 4)
	want := []blockRange{{from: 10, to: 13}, {from: 14, to: 14}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestCatchUpRangesSingleBlock(t *testing.T) {
	got := catchUpRanges(5, 5, 2000)
	want := []blockRange{{from: 5, to: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestCatchUpRangesNothingNew(t *testing.T) {
	if got := catchUpRanges(11, 10, 5); got != nil {
		t.Fatalf("expected no ranges behind head, got %+v", got)
	}
	if got := catchUpRanges(1, 10, 0); got != nil {
		t.Fatalf("expected no ranges for zero batch, got %+v", got)
	}
}

func TestCatchUpRangesNearMaxUint64(t *testing.T) {
	const max = ^uint64(0)
	got := catchUpRanges(max-2, max, 2)
	want := []blockRange{{from: max - 2, to: max - 1}, {from: max, to: max}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

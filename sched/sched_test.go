package sched

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestEachDeterministicPreservesOrder(t *testing.T) {
	var order []int
	r := Runner{Deterministic: true}
	if err := r.Each(5, func(i int) error {
		order = append(order, i)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestEachConcurrentVisitsAll(t *testing.T) {
	var count int64
	r := Runner{}
	if err := r.Each(1000, func(i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if count != 1000 {
		t.Errorf("count = %d, want 1000", count)
	}
}

func TestEachPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	r := Runner{Deterministic: true}
	err := r.Each(3, func(i int) error {
		if i == 1 {
			return wantErr
		}
		return nil
	})
	if err != wantErr {
		t.Errorf("Each() error = %v, want %v", err, wantErr)
	}
}

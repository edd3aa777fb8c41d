package store

import (
	"sync/atomic"
	"testing"
)

func TestTxn_RollbackRestores(t *testing.T) {
	state := []string{"7"}
	txn := Begin(append([]string(nil), state...), func() {
		state = append(state, "42")
	}, func(prev []string) {
		state = prev
	})

	if len(state) != 2 {
		t.Fatalf("apply not run: %v", state)
	}
	if !txn.Rollback() {
		t.Fatal("first Rollback reported no restore")
	}
	if len(state) != 1 || state[0] != "7" {
		t.Errorf("state after rollback = %v", state)
	}
	if txn.Rollback() {
		t.Error("second Rollback restored again")
	}
}

func TestTxn_CommitPreventsRollback(t *testing.T) {
	n := 1
	txn := Begin(n, func() { n = 2 }, func(prev int) { n = prev })
	txn.Commit()
	if txn.Rollback() {
		t.Error("Rollback after Commit restored")
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	if txn.Previous() != 1 {
		t.Errorf("Previous = %d", txn.Previous())
	}
}

func TestSequence(t *testing.T) {
	seq := sequence{}
	first := seq.next("listings")
	second := seq.next("listings")
	other := seq.next("favorites")

	if seq.current("listings", first) {
		t.Error("older token still current")
	}
	if !seq.current("listings", second) || !seq.current("favorites", other) {
		t.Error("latest tokens not current")
	}
	seq.invalidate("favorites")
	if seq.current("favorites", other) {
		t.Error("token current after invalidate")
	}
}

func TestSubscribers(t *testing.T) {
	var subs subscribers
	var a, b atomic.Int32
	unsubA := subs.add(func() { a.Add(1) })
	subs.add(func() { b.Add(1) })

	subs.notify()
	unsubA()
	unsubA()
	subs.notify()

	if a.Load() != 1 || b.Load() != 2 {
		t.Errorf("a=%d b=%d, want 1 and 2", a.Load(), b.Load())
	}
}

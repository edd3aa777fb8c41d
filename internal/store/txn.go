package store

// Txn is an optimistic local mutation that can be undone. Begin applies the
// change immediately; Rollback restores the captured state unless Commit was
// called first. Both are idempotent. Callers hold the store lock around
// Begin and Rollback.
type Txn[S any] struct {
	previous S
	restore  func(S)
	done     bool
}

// Begin records previous, runs apply and returns the open transaction.
func Begin[S any](previous S, apply func(), restore func(S)) *Txn[S] {
	apply()
	return &Txn[S]{previous: previous, restore: restore}
}

// Previous returns the state captured before the mutation.
func (t *Txn[S]) Previous() S {
	return t.previous
}

// Commit keeps the mutation.
func (t *Txn[S]) Commit() {
	t.done = true
}

// Rollback restores the captured state. It reports whether a restore happened.
func (t *Txn[S]) Rollback() bool {
	if t.done {
		return false
	}
	t.done = true
	t.restore(t.previous)
	return true
}

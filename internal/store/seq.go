package store

// sequence issues per-slice request tokens. Only the response carrying the
// latest token for its slice may be applied. Guarded by the owning store's lock.
type sequence map[string]uint64

func (s sequence) next(slice string) uint64 {
	s[slice]++
	return s[slice]
}

func (s sequence) current(slice string, token uint64) bool {
	return s[slice] == token
}

// invalidate makes every outstanding token for slice stale.
func (s sequence) invalidate(slice string) {
	s[slice]++
}

package panel

// LockGate decides when a keyring lock deserves a notification. The first observation after creation never notifies,
// later observations notify once per transition into the locked state.
type LockGate struct {
	observed bool
	locked   bool
}

// Observe records the lock state and reports whether a notification must be shown.
func (g *LockGate) Observe(locked bool) bool {
	if !g.observed {
		g.observed = true
		g.locked = locked

		return false
	}

	fire := locked && !g.locked
	g.locked = locked

	return fire
}

// Locked returns the last observed state. It is false until the first observation.
func (g *LockGate) Locked() bool {
	return g.locked
}

// Observed reports whether at least one state has been observed.
func (g *LockGate) Observed() bool {
	return g.observed
}

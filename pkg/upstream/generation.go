package upstream

import "sync/atomic"

// Generation guards against stale async completions. Each piece of async
// work records the generation current when it started; whoever changes the
// inputs the work depended on (month, city, auth state, teardown) bumps the
// generation, and late completions see their token is no longer current and
// drop their result instead of applying it. Requests themselves are not
// aborted; the guard only suppresses the state update.
type Generation struct {
	current atomic.Uint64
}

// Current returns the token async work should capture before starting.
func (g *Generation) Current() uint64 {
	return g.current.Load()
}

// Bump invalidates all work started under earlier tokens.
func (g *Generation) Bump() uint64 {
	return g.current.Add(1)
}

// Still reports whether a captured token is still the current one.
func (g *Generation) Still(token uint64) bool {
	return g.current.Load() == token
}

// Package lifetime keeps values derived from related entities up to date.
//
// A Classifier inspects the mutations pending in a unit of work and names the
// owners whose derived value may have changed. A Queue collects those owners,
// deduplicated by identity, and recomputes them once the unit of work has
// committed. Recomputation never runs inside the transaction that triggered it,
// and changed owners are saved in a single batch.
//
// Lifecycle per unit of work:
//
//	Idle -> Collecting (pre-commit: classify, enqueue)
//	     -> Draining   (post-commit: recompute, persist changed owners)
//	     -> Idle
//
// A drain that is re-entered from its own persist step is a no-op.
package lifetime

// Package engine implements weft's incremental tree reconciliation: it
// turns successive immutable vdom descriptions into the minimal set of
// renderer mutations, slicing the work cooperatively so large updates never
// monopolize the host's loop.
//
// # Generations
//
// The engine keeps two fiber trees: current, the generation whose effects
// were last committed, and wip, the generation being built. Each wip fiber
// points at its previous incarnation through alternate; the commit phase
// severs those links as it promotes wip to current, so alternates span
// exactly two generations and never chain.
//
// # Render passes
//
// Render (or a hook state write) derives a fresh wip from current and seeds
// the unit-of-work cursor. A Scheduler then delivers time slices to the work
// loop, which processes one fiber per unit and yields when less than
// MinBudget of the slice remains. A new render request while a pass is in
// flight supersedes it: the partial wip is dropped and re-derived, and
// pending hook writes survive because their queues live on current's hook
// records.
//
// When the cursor is exhausted the commit phase applies every tagged fiber
// through the renderer, deletions first, then an explicit-stack pre-order
// walk. Renderer failures abort the commit immediately and surface through
// the render completion callback.
//
// # Concurrency
//
// An Engine is confined to one goroutine: Render, the work loop, the commit
// phase, and every SetState call must run on it. The engine takes no locks.
// Hosts that receive input elsewhere route it onto the owning goroutine, as
// pkg/server does with its session loop.
package engine

package rendergraph

import (
	"fmt"
	"log"

	"github.com/emberforge/emberforge/rhi"
)

// SetupFunc declares a pass's resource usage via b and returns the
// closure that actually records GPU commands once the graph is executed.
type SetupFunc func(b *Builder) ExecuteFunc

// ExecuteFunc records one pass's GPU commands.
type ExecuteFunc func(ctx *ExecuteContext)

type passRecord struct {
	name     string
	accesses []access
	execute  ExecuteFunc
}

// Graph accumulates passes and their declared resource usage across one
// AddPass sequence, then compiles them into an executable frame.
// Single-threaded by design — spec.md §6 is explicit that pass execution
// order is authoritative and not itself parallelized; parallelism lives
// inside a pass's own work (e.g. a pass spawning scheduler.ParallelFor
// over its draw list), not across passes.
type Graph struct {
	passes   []*passRecord
	versions []*resourceVersion

	order       []int // compiled pass execution order, filled by Compile
	compiled    bool
	barriersFor map[int][]pendingBarrier // passIndex -> barriers to insert before it
	lifetime    map[int]passLifetime     // base resource index -> first/last use in order
}

// pendingBarrier names the resource by its base (logical) index rather
// than a physical handle, since the physical allocation isn't chosen
// until Execute acquires it from the transient pool.
type pendingBarrier struct {
	base   int
	before rhi.ResourceState
	after  rhi.ResourceState
}

type passLifetime struct {
	firstOrderPos int
	lastOrderPos  int
}

// New returns an empty graph, ready to accept AddPass calls. versions[0]
// is pre-seeded with a sentinel entry so every real resource's version
// index starts at 1 — ResourceHandle's zero value (version 0) can never
// alias a resource a pass actually created, matching spec.md §3's "id 0
// is reserved as invalid" invariant.
func New() *Graph {
	return &Graph{
		versions:    []*resourceVersion{{name: "invalid", base: 0, producedBy: -1}},
		barriersFor: map[int][]pendingBarrier{},
		lifetime:    map[int]passLifetime{},
	}
}

// AddPass registers a pass named name. setup runs immediately, recording
// the pass's resource creates/reads/writes and returning the function
// that will later record its GPU commands.
func (g *Graph) AddPass(name string, setup SetupFunc) {
	g.passes = append(g.passes, &passRecord{name: name})
	idx := len(g.passes) - 1
	execute := setup(&Builder{graph: g, passIndex: idx})
	g.passes[idx].execute = execute
}

// Compile derives a dependency-respecting execution order via Kahn's
// algorithm and computes each non-imported resource's first/last use for
// transient allocation. Must be called once after all passes have been
// added and before Execute.
//
// A cycle among the declared accesses is a programmer error (spec.md
// §4.7/§8 scenario S6): Compile reports it but does not refuse to run —
// kahnSort's partial, deterministic prefix (every pass reachable before
// the cycle blocked further progress) is kept as g.order, barriers and
// transient lifetimes are computed over that reachable subset, and
// Execute runs exactly that subset. Passes inside or downstream of the
// cycle are simply never scheduled.
func (g *Graph) Compile() error {
	n := len(g.passes)
	deps := make([]map[int]bool, n) // deps[p] = set of passes p must run after
	for i := range deps {
		deps[i] = map[int]bool{}
	}

	for p, pass := range g.passes {
		for _, a := range pass.accesses {
			v := g.versions[a.version]
			if a.kind == accessRead {
				if v.producedBy >= 0 && v.producedBy != p {
					deps[p][v.producedBy] = true
				}
			}
		}
	}

	order, err := kahnSort(deps)
	g.order = order
	g.computeBarriers()
	g.computeLifetimes()
	g.compiled = true

	if err != nil {
		log.Printf("rendergraph: compile: %v; running %d/%d reachable passes", err, len(order), n)
		return fmt.Errorf("rendergraph: compile failed: %w", err)
	}
	return nil
}

// kahnSort returns a topological order of [0, len(deps)) respecting the
// "must run after" sets in deps, breaking ties by ascending index so that
// independent passes keep their AddPass registration order — render
// graphs benefit from stable, predictable scheduling for debugging and
// for barrier batching across adjacent passes with no real dependency.
//
// If deps contains a cycle, the returned order is still the partial
// prefix Kahn's algorithm managed to produce before every remaining
// index's indegree got stuck above zero — the caller (Compile) uses that
// prefix rather than discarding it, per spec.md §8 scenario S6.
func kahnSort(deps []map[int]bool) ([]int, error) {
	n := len(deps)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	for p, set := range deps {
		indegree[p] = len(set)
		for q := range set {
			dependents[q] = append(dependents[q], p)
		}
	}

	ready := make([]int, 0, n)
	for p := 0; p < n; p++ {
		if indegree[p] == 0 {
			ready = append(ready, p)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		// Smallest-index-first keeps the sort stable and deterministic.
		minIdx := 0
		for i := 1; i < len(ready); i++ {
			if ready[i] < ready[minIdx] {
				minIdx = i
			}
		}
		p := ready[minIdx]
		ready = append(ready[:minIdx], ready[minIdx+1:]...)
		order = append(order, p)

		for _, q := range dependents[p] {
			indegree[q]--
			if indegree[q] == 0 {
				ready = append(ready, q)
			}
		}
	}

	if len(order) != n {
		return order, fmt.Errorf("cycle detected among %d passes", n-len(order))
	}
	return order, nil
}

// computeBarriers walks the compiled order tracking each resource's
// current GPU state and records the transitions (spec.md §6's automatic
// barrier placement) needed before each pass can safely access it.
func (g *Graph) computeBarriers() {
	state := map[int]rhi.ResourceState{} // base resource index -> current state
	for _, p := range g.order {
		pass := g.passes[p]
		var barriers []pendingBarrier
		for _, a := range pass.accesses {
			v := g.versions[a.version]
			cur, ok := state[v.base]
			if !ok {
				cur = rhi.StateUndefined
			}
			if cur != a.state {
				barriers = append(barriers, pendingBarrier{base: v.base, before: cur, after: a.state})
				state[v.base] = a.state
			}
		}
		if len(barriers) > 0 {
			g.barriersFor[p] = barriers
		}
	}
}

// computeLifetimes records, for every non-imported base resource, the
// first and last position in the compiled order at which any of its
// versions are accessed — the window the transient pool must keep a
// physical allocation alive for.
func (g *Graph) computeLifetimes() {
	posOf := make(map[int]int, len(g.order))
	for pos, p := range g.order {
		posOf[p] = pos
	}
	for _, p := range g.order {
		pos := posOf[p]
		for _, a := range g.passes[p].accesses {
			v := g.versions[a.version]
			if v.imported {
				continue
			}
			lt, ok := g.lifetime[v.base]
			if !ok {
				lt = passLifetime{firstOrderPos: pos, lastOrderPos: pos}
			} else {
				if pos < lt.firstOrderPos {
					lt.firstOrderPos = pos
				}
				if pos > lt.lastOrderPos {
					lt.lastOrderPos = pos
				}
			}
			g.lifetime[v.base] = lt
		}
	}
}

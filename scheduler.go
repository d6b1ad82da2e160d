package sceneflow

import "sort"

// scheduler computes and caches the topological execution order over the
// node graph induced by links (spec §4.3). It is invalidated by any
// structural change (node creation/destruction, link/unlink).
type scheduler struct {
	order []*Node
	valid bool
}

func newScheduler() *scheduler {
	return &scheduler{}
}

func (s *scheduler) invalidate() {
	s.valid = false
	s.order = nil
}

// edge is a collapsed A->B dependency: some link has its source property on
// node A and its target property on node B.
func computeEdges(nodes []*Node, links *linkRegistry) map[NodeHandle]map[NodeHandle]bool {
	edges := map[NodeHandle]map[NodeHandle]bool{}
	for _, n := range nodes {
		edges[n.handle] = map[NodeHandle]bool{}
	}
	for _, l := range links.all() {
		if l.src.node == nil || l.dst.node == nil || l.src.node.handle == l.dst.node.handle {
			continue
		}
		edges[l.src.node.handle][l.dst.node.handle] = true
	}
	return edges
}

// recompute runs Kahn's algorithm with deterministic tie-breaking by
// (kind-order, creation-id) (spec §4.3). Returns CycleDetected if not all
// nodes could be consumed.
func (s *scheduler) recompute(nodes []*Node, links *linkRegistry) error {
	edges := computeEdges(nodes, links)
	indeg := map[NodeHandle]int{}
	for _, n := range nodes {
		indeg[n.handle] = 0
	}
	for _, targets := range edges {
		for t := range targets {
			indeg[t]++
		}
	}

	byHandle := map[NodeHandle]*Node{}
	for _, n := range nodes {
		byHandle[n.handle] = n
	}

	ready := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if indeg[n.handle] == 0 {
			ready = append(ready, n)
		}
	}
	sortReady(ready)

	var order []*Node
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		var newlyReady []*Node
		for t := range edges[n.handle] {
			indeg[t]--
			if indeg[t] == 0 {
				newlyReady = append(newlyReady, byHandle[t])
			}
		}
		sortReady(newlyReady)
		ready = mergeReady(ready, newlyReady)
	}

	if len(order) != len(nodes) {
		s.valid = false
		return newErr(KindCycle, 0, "update: dependency graph has a cycle, %d of %d nodes reachable", len(order), len(nodes))
	}

	s.order = order
	s.valid = true
	return nil
}

func sortReady(ns []*Node) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].kind.kindOrder() != ns[j].kind.kindOrder() {
			return ns[i].kind.kindOrder() < ns[j].kind.kindOrder()
		}
		return ns[i].handle < ns[j].handle
	})
}

// mergeReady inserts newlyReady into the still-sorted ready queue,
// preserving (kind-order, creation-id) order overall.
func mergeReady(ready, newlyReady []*Node) []*Node {
	if len(newlyReady) == 0 {
		return ready
	}
	merged := make([]*Node, 0, len(ready)+len(newlyReady))
	i, j := 0, 0
	less := func(a, b *Node) bool {
		if a.kind.kindOrder() != b.kind.kindOrder() {
			return a.kind.kindOrder() < b.kind.kindOrder()
		}
		return a.handle < b.handle
	}
	for i < len(ready) && j < len(newlyReady) {
		if less(ready[i], newlyReady[j]) {
			merged = append(merged, ready[i])
			i++
		} else {
			merged = append(merged, newlyReady[j])
			j++
		}
	}
	merged = append(merged, ready[i:]...)
	merged = append(merged, newlyReady[j:]...)
	return merged
}

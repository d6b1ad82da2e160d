package sceneflow

// Link is a directed relation from an output property to an input
// property, identified by the pair of property identities (spec §3).
type Link struct {
	Source PropertyHandle
	Target PropertyHandle
}

// linkRegistry maps target-input -> source-output (spec §4.2); the
// per-source fan-out list lives on each source Property's outgoing
// field. Keyed by
// property pointer rather than handle: runtime lookups never need a
// handle round-trip, since every Property already carries its owning
// Node.
type linkRegistry struct {
	incoming map[*Property]*Property // target property -> source property
}

func newLinkRegistry() *linkRegistry {
	return &linkRegistry{incoming: map[*Property]*Property{}}
}

// all returns every active link as a (source, target) property pair.
func (r *linkRegistry) all() []struct{ src, dst *Property } {
	out := make([]struct{ src, dst *Property }, 0, len(r.incoming))
	for dst, src := range r.incoming {
		out = append(out, struct{ src, dst *Property }{src: src, dst: dst})
	}
	return out
}

// Link connects src (an output) to dst (an input). On success the cached
// topological order is invalidated and both nodes are marked dirty (spec
// §4.2).
func (e *Engine) Link(src, dst *Property) (bool, error) {
	e.clearErrors()
	if src == nil || dst == nil {
		return false, e.record(newErr(KindLookup, 0, "link: nil property"))
	}
	if src.eng() != e || dst.eng() != e {
		return false, e.record(newErr(KindLookup, 0, "link: property belongs to a different engine"))
	}
	if src.semantics != SemanticsScriptOutput {
		return false, e.record(newErr(KindValidation, src.nodeID(), "link: %q is not an output", src.path()))
	}
	if !dst.semantics.isInput() {
		return false, e.record(newErr(KindValidation, dst.nodeID(), "link: %q is not an input", dst.path()))
	}
	if dst.semantics == SemanticsScriptOutput || src.semantics.isInput() {
		return false, e.record(newErr(KindValidation, 0, "link: wrong direction (%q -> %q)", src.path(), dst.path()))
	}
	if src.typ.IsContainer() || dst.typ.IsContainer() {
		return false, e.record(newErr(KindValidation, 0, "link: containers cannot be linked (%q -> %q)", src.path(), dst.path()))
	}
	if src.typ != dst.typ {
		return false, e.record(newErr(KindValidation, 0, "link: type mismatch (%s -> %s) for %q -> %q", src.typ, dst.typ, src.path(), dst.path()))
	}
	if src.node == dst.node {
		return false, e.record(newErr(KindValidation, src.nodeID(), "link: source and target belong to the same node"))
	}
	if existing, ok := e.links.incoming[dst]; ok {
		return false, e.record(newErr(KindValidation, dst.nodeID(), "link: %q is already linked from %q", dst.path(), existing.path()))
	}

	e.links.incoming[dst] = src
	src.outgoing = append(src.outgoing, dst)
	dst.incoming = src

	if isBindingKind(dst.node.kind) {
		dst.node.markInputWriteBackNeeded(dst.handle)
	}
	src.node.markDirty()
	dst.node.markDirty()
	e.invalidateTopology()
	return true, nil
}

// Unlink removes the active link between src and dst. Fails with
// NotCurrentlyLinked if the pair is not an active link.
func (e *Engine) Unlink(src, dst *Property) (bool, error) {
	e.clearErrors()
	if src == nil || dst == nil {
		return false, e.record(newErr(KindLookup, 0, "unlink: nil property"))
	}
	cur, ok := e.links.incoming[dst]
	if !ok || cur != src {
		return false, e.record(newErr(KindValidation, dst.nodeID(), "unlink: %q is not currently linked from %q", dst.path(), src.path()))
	}
	delete(e.links.incoming, dst)
	dst.incoming = nil
	for i, t := range src.outgoing {
		if t == dst {
			src.outgoing = append(src.outgoing[:i], src.outgoing[i+1:]...)
			break
		}
	}
	src.node.markDirty()
	dst.node.markDirty()
	e.invalidateTopology()
	return true, nil
}

// IsLinked reports whether any property belonging to n participates in a
// link, as either source or target.
func (e *Engine) IsLinked(n *Node) bool {
	if n == nil {
		return false
	}
	found := false
	check := func(p *Property) {
		if p.IsLinked() || len(p.outgoing) > 0 {
			found = true
		}
	}
	walkPrimitives(n.in, check)
	walkPrimitives(n.out, check)
	return found
}

func (p *Property) eng() *Engine {
	if p.node == nil {
		return nil
	}
	return p.node.eng
}

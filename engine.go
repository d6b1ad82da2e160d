package sceneflow

import (
	"time"

	"github.com/rs/zerolog"
)

// UpdateReport records which nodes executed during the last [Engine.Update]
// and how long each took, when enabled via [Engine.EnableUpdateReport]
// (spec §4.7).
type UpdateReport struct {
	Executed []NodeExecution
	Total    time.Duration
}

// NodeExecution is one node's contribution to an [UpdateReport].
type NodeExecution struct {
	NodeID   uint64
	Name     string
	Kind     NodeKind
	Duration time.Duration
}

// Config carries the engine's ambient collaborators: a logger and a host
// scene resolver for binding write-back. Both are optional; a nil Logger
// falls back to a disabled (no-op) logger and a nil Resolver leaves
// bindings without a host object, so their update writes nothing and
// records no error.
type Config struct {
	Logger   *zerolog.Logger
	Resolver HostResolver
	// HostVersion stamps the host scene's own version into any document
	// this engine later saves (spec §6: "the host-scene's own version,
	// same shape as the tool version"). Zero value if the caller doesn't
	// track one.
	HostVersion Version
}

// Engine is the single process-local dataflow aggregate (spec §2/§3). It
// owns every node, every property, the link registry, and the scripting
// runtime used by script nodes. An Engine is not safe for concurrent use
// (spec §5): every method must be called from one goroutine at a time.
type Engine struct {
	log zerolog.Logger

	nextID     NodeHandle
	nextPropID PropertyHandle
	nodes      []*Node
	byName     map[string]*Node

	nextModuleID uint64
	modules      []*ModuleObject

	dataArrays       []*DataArray
	dataArraysByName map[string]*DataArray

	links *linkRegistry
	sched *scheduler

	errors []*EngineError

	reportEnabled bool
	lastReport    UpdateReport

	dirtyTrackingDisabled bool

	resolver    HostResolver
	script      scriptRuntime
	hostVersion Version
}

// NewEngine constructs an empty Engine. A zero Config is valid and
// defaults to a disabled logger, with no host resolver.
func NewEngine(cfg Config) *Engine {
	var log zerolog.Logger
	if cfg.Logger != nil {
		log = *cfg.Logger
	} else {
		log = zerolog.Nop()
	}
	e := &Engine{
		log:              log,
		nextID:           1,
		nextPropID:       1,
		nextModuleID:     1,
		byName:           map[string]*Node{},
		dataArraysByName: map[string]*DataArray{},
		links:            newLinkRegistry(),
		sched:            newScheduler(),
		resolver:         cfg.Resolver,
		hostVersion:      cfg.HostVersion,
	}
	e.script = newScriptRuntime()
	return e
}

func (e *Engine) allocID() NodeHandle {
	id := e.nextID
	e.nextID++
	return id
}

func (e *Engine) allocPropertyHandle() PropertyHandle {
	id := e.nextPropID
	e.nextPropID++
	return id
}

func (e *Engine) allocModuleID() uint64 {
	id := e.nextModuleID
	e.nextModuleID++
	return id
}

// adoptNodeHandle bumps the node id allocator past id and returns id as a
// NodeHandle, used when reconstructing a node from a saved document so it
// keeps its saved identity instead of being assigned a fresh one.
func (e *Engine) adoptNodeHandle(id uint64) NodeHandle {
	h := NodeHandle(id)
	if h >= e.nextID {
		e.nextID = h + 1
	}
	return h
}

// registerNode finalizes a newly-built node: it assigns a stable handle to
// every property in the node's IN/OUT trees (containers included, so a
// struct or array itself can be addressed by handle too), then indexes the
// node and invalidates the cached schedule.
func (e *Engine) registerNode(n *Node) {
	n.eng = e
	assign := func(p *Property) { p.handle = e.allocPropertyHandle() }
	walkAllProperties(n.in, assign)
	walkAllProperties(n.out, assign)
	e.nodes = append(e.nodes, n)
	if n.name != "" {
		e.byName[n.name] = n
	}
	e.sched.invalidate()
}

func (e *Engine) invalidateTopology() {
	e.sched.invalidate()
}

// FindByName returns the node of the given kind and name, or nil.
func (e *Engine) FindByName(kind NodeKind, name string) *Node {
	n, ok := e.byName[name]
	if !ok || n.kind != kind || n.destroyed {
		return nil
	}
	return n
}

// FindByID returns the node with the given id, or nil.
func (e *Engine) FindByID(id uint64) *Node {
	for _, n := range e.nodes {
		if n.ID() == id && !n.destroyed {
			return n
		}
	}
	return nil
}

// Nodes returns every live node, in creation order.
func (e *Engine) Nodes() []*Node {
	out := make([]*Node, 0, len(e.nodes))
	for _, n := range e.nodes {
		if !n.destroyed {
			out = append(out, n)
		}
	}
	return out
}

// Destroy removes a node from the engine: every link touching any of its
// properties is removed, and the node is marked destroyed. Fails if n was
// not created by this engine.
func (e *Engine) Destroy(n *Node) (bool, error) {
	e.clearErrors()
	if n == nil || n.eng != e {
		return false, e.record(newErr(KindLookup, 0, "destroy: node was not created by this engine"))
	}
	if n.destroyed {
		return true, nil
	}
	var toUnlink []struct{ src, dst *Property }
	for _, l := range e.links.all() {
		if l.src.node == n || l.dst.node == n {
			toUnlink = append(toUnlink, l)
		}
	}
	for _, l := range toUnlink {
		delete(e.links.incoming, l.dst)
		l.dst.incoming = nil
		for i, t := range l.src.outgoing {
			if t == l.dst {
				l.src.outgoing = append(l.src.outgoing[:i], l.src.outgoing[i+1:]...)
				break
			}
		}
	}
	n.destroyed = true
	if n.name != "" {
		delete(e.byName, n.name)
	}
	e.invalidateTopology()
	return true, nil
}

// EnableUpdateReport toggles per-tick execution reporting.
func (e *Engine) EnableUpdateReport(enabled bool) {
	e.reportEnabled = enabled
}

// LastUpdateReport returns the report from the most recent Update call, if
// reporting was enabled.
func (e *Engine) LastUpdateReport() UpdateReport {
	return e.lastReport
}

// DisableDirtyTracking forces every node to execute on every tick,
// regardless of dirty state (spec §4.3: "used for benchmarking and
// debugging... a configuration, not a behavior change of individual
// nodes").
func (e *Engine) DisableDirtyTracking(disabled bool) {
	e.dirtyTrackingDisabled = disabled
}

// Update drives one tick: recomputes the topological order if invalidated,
// then walks nodes in that order, propagating linked values and running
// each dirty (or, with dirty tracking disabled, every) node. It stops at
// the first node whose update fails and returns false with the failure
// appended to the error list (spec §7: "no rollback of prior nodes within
// the same tick").
func (e *Engine) Update() (bool, error) {
	e.clearErrors()
	start := time.Now()

	live := e.Nodes()
	if !e.sched.valid {
		if err := e.sched.recompute(live, e.links); err != nil {
			return false, e.record(err.(*EngineError))
		}
	}

	var report UpdateReport
	for _, n := range e.sched.order {
		if n.destroyed {
			continue
		}
		propagateInto(n, e.links)

		if !e.dirtyTrackingDisabled && !n.dirty {
			continue
		}

		nodeStart := time.Now()
		err := n.impl.update(e, n)
		dur := time.Since(nodeStart)
		if e.reportEnabled {
			report.Executed = append(report.Executed, NodeExecution{
				NodeID: n.ID(), Name: n.name, Kind: n.kind, Duration: dur,
			})
		}
		if err != nil {
			ee, ok := err.(*EngineError)
			if !ok {
				ee = newErr(KindRuntime, n.ID(), "%v", err)
			}
			if e.reportEnabled {
				report.Total = time.Since(start)
				e.lastReport = report
			}
			return false, e.record(ee)
		}
		n.dirty = false
		propagateOutgoing(n)
	}

	if e.reportEnabled {
		report.Total = time.Since(start)
		e.lastReport = report
	}
	return true, nil
}

// propagateInto copies every linked input's source value into the target,
// before the target node executes (spec §2: "reads any linked inputs,
// copying source-output values into target-input").
func propagateInto(n *Node, links *linkRegistry) {
	walkPrimitives(n.in, func(p *Property) {
		if p.incoming == nil {
			return
		}
		if setInternal(p, p.incoming.value) {
			if isBindingKind(n.kind) {
				n.markInputWriteBackNeeded(p.handle)
			}
		}
	})
}

// propagateOutgoing marks every downstream node of n's changed outputs
// dirty, per spec §4.3's "if execution produces any changed output
// primitive, every target input connected to that output... the target
// node is marked dirty".
func propagateOutgoing(n *Node) {
	walkPrimitives(n.out, func(p *Property) {
		changed := !p.hasPropagated || p.lastPropagated != p.value
		if !changed {
			return
		}
		p.lastPropagated = p.value
		p.hasPropagated = true
		for _, dst := range p.outgoing {
			dst.node.markDirty()
		}
	})
}

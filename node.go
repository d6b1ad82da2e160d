package sceneflow

// NodeHandle is a node's 64-bit identity, unique within the owning engine
// and monotonically increasing from 1 (spec §3 Engine: "an allocator for
// ids... starting at 1"). It doubles as the node's id.
type NodeHandle uint64

// NodeKind distinguishes the seven node varieties the engine can create.
// Spec §9's design note rejects deep binding inheritance in favor of this
// tagged-variant shape (mirroring the teacher's NodeType enum in
// willow.go), with per-variant behavior living in the nodeImpl each Node
// carries.
type NodeKind uint8

const (
	KindScriptNode NodeKind = iota
	KindNodeBinding
	KindAppearanceBinding
	KindCameraBinding
	KindDataArray
	KindAnimationNode
	KindTimerNode
)

func (k NodeKind) String() string {
	switch k {
	case KindScriptNode:
		return "ScriptNode"
	case KindNodeBinding:
		return "NodeBinding"
	case KindAppearanceBinding:
		return "AppearanceBinding"
	case KindCameraBinding:
		return "CameraBinding"
	case KindDataArray:
		return "DataArray"
	case KindAnimationNode:
		return "AnimationNode"
	case KindTimerNode:
		return "TimerNode"
	default:
		return "UnknownKind"
	}
}

// kindOrder fixes the scheduler's deterministic tie-break ordering (spec
// §4.3: "Kahn-style, with deterministic tie-breaking by (kind-order,
// creation-id)").
func (k NodeKind) kindOrder() int { return int(k) }

// nodeImpl is the per-variant behavior a Node delegates to: run a script,
// write to a host, advance a timer or animation. Spec §9's design note
// treats this the way willow's NodeType switch dispatches rendering —
// here it dispatches update/write-back instead of drawing.
type nodeImpl interface {
	// update executes n for the current tick, reading linked/set IN
	// values and writing OUT values (or, for bindings, pushing to the
	// host). Errors returned here become KindRuntime/KindUpdateInput/
	// KindHostBinding entries on the engine's error list.
	update(eng *Engine, n *Node) error
}

// Node is the common state every node kind shares: identity, its IN/OUT
// property roots, dirtiness, and the binding write-back bookkeeping. Spec
// §3: "two property-tree roots (IN and OUT; bindings have only IN)".
type Node struct {
	handle NodeHandle
	name   string
	kind   NodeKind

	in  *Property
	out *Property

	dirty     bool
	destroyed bool

	// writeBackNeeded/lastWritten are populated only for binding kinds
	// (spec §4.5): per IN property, whether it was ever explicitly Set or
	// linked, and the last value actually pushed to the host.
	writeBackNeeded map[PropertyHandle]bool
	lastWritten     map[PropertyHandle]any

	impl nodeImpl
	eng  *Engine
}

// ID returns the node's 64-bit identity.
func (n *Node) ID() uint64 { return uint64(n.handle) }

// Handle returns the node's engine-scoped handle (numerically equal to ID).
func (n *Node) Handle() NodeHandle { return n.handle }

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Kind reports which of the seven node varieties this is.
func (n *Node) Kind() NodeKind { return n.kind }

// In returns the root of the node's input property tree.
func (n *Node) In() *Property { return n.in }

// Out returns the root of the node's output property tree, or nil for
// binding nodes.
func (n *Node) Out() *Property { return n.out }

// IsDirty reports whether the node is scheduled to execute on the next
// update that reaches it.
func (n *Node) IsDirty() bool { return n.dirty }

// IsDestroyed reports whether Engine.Destroy has already been called on
// this node.
func (n *Node) IsDestroyed() bool { return n.destroyed }

func (n *Node) markDirty() {
	if n != nil {
		n.dirty = true
	}
}

// markInputWriteBackNeeded flags that the IN property identified by h must
// be pushed to the host the next time its value differs from the last
// written value. Called on explicit Set and on Link (spec §4.5); never
// cleared by Unlink (spec §9 open question (b)).
func (n *Node) markInputWriteBackNeeded(h PropertyHandle) {
	if n.writeBackNeeded == nil {
		n.writeBackNeeded = map[PropertyHandle]bool{}
	}
	n.writeBackNeeded[h] = true
}

func (n *Node) needsWriteBack(h PropertyHandle) bool {
	return n.writeBackNeeded != nil && n.writeBackNeeded[h]
}

func (n *Node) lastWrittenValue(h PropertyHandle) (any, bool) {
	if n.lastWritten == nil {
		return nil, false
	}
	v, ok := n.lastWritten[h]
	return v, ok
}

func (n *Node) recordWritten(h PropertyHandle, v any) {
	if n.lastWritten == nil {
		n.lastWritten = map[PropertyHandle]any{}
	}
	n.lastWritten[h] = v
}

// walkPrimitives calls fn for every primitive descendant of root
// (depth-first, struct/array children in child order). root itself is
// visited if it is already a primitive.
func walkPrimitives(root *Property, fn func(*Property)) {
	if root == nil {
		return
	}
	if root.typ.IsPrimitive() {
		fn(root)
		return
	}
	for _, c := range root.children {
		walkPrimitives(c, fn)
	}
}

// walkAllProperties calls fn for root and every descendant, containers
// included, depth-first. Used where containers themselves need a stable
// handle (e.g. property-handle assignment, serialization).
func walkAllProperties(root *Property, fn func(*Property)) {
	if root == nil {
		return
	}
	fn(root)
	for _, c := range root.children {
		walkAllProperties(c, fn)
	}
}

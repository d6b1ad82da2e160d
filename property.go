package sceneflow

// PropertyHandle is a stable, engine-scoped identity for a Property. It is
// the identity a [Link] is defined over. Handles are never reused within
// one engine, even across node destruction. The binary format does not
// store handles: links are saved by (node id, property path), and handles
// are assigned afresh when a saved engine is loaded.
type PropertyHandle uint32

// Property is a typed cell in a node's input or output tree. Primitives
// hold a value; struct and array containers hold children instead. See
// spec §3/§4.1.
type Property struct {
	handle    PropertyHandle
	node      *Node
	parent    *Property
	name      string
	typ       Type
	semantics Semantics

	// children holds the ordered child list for struct/array types. Struct
	// order is insertion order from the declaring interface, frozen at
	// creation time (spec §9 open question (c)): stable across reloads,
	// not re-sorted.
	children []*Property

	value          any // nil for containers
	lastPropagated any
	hasPropagated  bool

	incoming *Property   // non-owning: at most one
	outgoing []*Property // non-owning
}

// Handle returns the property's stable identity.
func (p *Property) Handle() PropertyHandle { return p.handle }

// Type returns the property's type tag.
func (p *Property) Type() Type { return p.typ }

// Name returns the property's name, or "" for array elements and roots.
func (p *Property) Name() string { return p.name }

// ChildCount returns the number of children (0 for primitives).
func (p *Property) ChildCount() int { return len(p.children) }

// ChildAt returns the child at index, or nil if out of range or p is a
// primitive.
func (p *Property) ChildAt(index int) *Property {
	if index < 0 || index >= len(p.children) {
		return nil
	}
	return p.children[index]
}

// ChildByName returns the named child of a struct property, or nil if p is
// not a struct or has no such child. Linear scan, matching spec §4.1.
func (p *Property) ChildByName(name string) *Property {
	if p.typ != TypeStruct {
		return nil
	}
	for _, c := range p.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// HasChild reports whether a struct property has a child with the given
// name.
func (p *Property) HasChild(name string) bool {
	return p.ChildByName(name) != nil
}

// IsLinked reports whether p is an input with an active incoming link.
func (p *Property) IsLinked() bool {
	return p.semantics != SemanticsScriptOutput && p.incoming != nil
}

// Semantics returns the property's role (script input/output or binding
// input).
func (p *Property) Semantics() Semantics { return p.semantics }

// isBindingKind reports whether k is one of the three binding node kinds.
func isBindingKind(k NodeKind) bool {
	return k == KindNodeBinding || k == KindAppearanceBinding || k == KindCameraBinding
}

// Get returns the primitive value stored at p if its Go type matches T,
// and ok=true. Containers and type mismatches return the zero value and
// ok=false.
func Get[T PropertyValue](p *Property) (val T, ok bool) {
	if p == nil || p.typ.IsContainer() {
		return val, false
	}
	v, matched := p.value.(T)
	if !matched {
		return val, false
	}
	return v, true
}

// Set assigns value to p. It fails if p is a container, if p's type tag
// does not match T, or if p is an input with an active incoming link
// (linked inputs are written only by the engine during propagation).
//
// Numeric truncation checks (rejecting a float that would round when
// assigned to an int32/int64 property) apply only at the scripting
// boundary, where values arrive untyped from the embedded language — see
// [scriptrt]'s bridge. A Go-typed Set call here is always exact because T
// is fixed at compile time.
func Set[T PropertyValue](p *Property, value T) error {
	if p == nil {
		return newErr(KindValidation, 0, "set: nil property")
	}
	if p.typ.IsContainer() {
		return newErr(KindValidation, p.nodeID(), "set %q: cannot set a container property", p.path())
	}
	wantTag := typeTagFor[T]()
	if p.typ != wantTag {
		return newErr(KindValidation, p.nodeID(), "set %q: type mismatch (property is %s, value is %s)", p.path(), p.typ, wantTag)
	}
	if p.semantics.isInput() && p.incoming != nil {
		return newErr(KindValidation, p.nodeID(), "set %q: property is a linked input and is read-only", p.path())
	}
	p.value = value
	if p.semantics.isInput() && p.node != nil {
		if isBindingKind(p.node.kind) {
			p.node.markInputWriteBackNeeded(p.handle)
		}
		p.node.markDirty()
	}
	return nil
}

// setInternal is used by the engine during link propagation and by node
// update implementations writing their own OUT properties. It bypasses
// the linked-input read-only check (the engine is the only writer of a
// linked input) and does not check the type tag; callers pass a value of
// the property's own type. It reports whether the value changed.
func setInternal(p *Property, value any) bool {
	if p.value == value {
		return false
	}
	p.value = value
	return true
}

// path returns a dotted/bracketed diagnostic path from the owning node's
// IN/OUT root to p, e.g. "IN.transform.translation" or "OUT.channel[2]".
func (p *Property) path() string {
	var segs []string
	for cur := p; cur != nil; cur = cur.parent {
		if cur.parent == nil {
			root := "IN"
			if cur.node != nil && cur.node.out == cur {
				root = "OUT"
			}
			segs = append([]string{root}, segs...)
			break
		}
		if cur.name != "" {
			segs = append([]string{cur.name}, segs...)
		} else {
			// Array element: find its index in the parent.
			idx := 0
			for i, c := range cur.parent.children {
				if c == cur {
					idx = i
					break
				}
			}
			segs = append([]string{itoaBracket(idx + 1)}, segs...)
		}
	}
	out := segs[0]
	for _, s := range segs[1:] {
		if len(s) > 0 && s[0] == '[' {
			out += s
		} else {
			out += "." + s
		}
	}
	return out
}

func itoaBracket(i int) string {
	return "[" + itoa(i) + "]"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func (p *Property) nodeID() uint64 {
	if p.node == nil {
		return 0
	}
	return uint64(p.node.handle)
}

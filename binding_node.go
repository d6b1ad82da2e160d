package sceneflow

// NodeBindingConfig is a Node Binding's creation-time configuration
// (spec §4.5).
type NodeBindingConfig struct {
	Name         string
	HostName     string
	HostID       uint64
	RotationType RotationType
}

type nodeBindingImpl struct {
	hostName     string
	hostID       uint64
	rotationType RotationType
	handle       HostObjectHandle
}

// CreateNodeBinding creates a Node Binding mirroring visibility,
// rotation, translation, and scaling onto a host scene node (spec §4.5).
// If the resolver can find the host object and it already carries an
// Euler rotation in the same axis order, the binding's initial rotation
// input is copied from the host; otherwise the initial rotation is zero
// and a warning is logged.
func (e *Engine) CreateNodeBinding(cfg NodeBindingConfig) (*Node, error) {
	e.clearErrors()
	impl := &nodeBindingImpl{hostName: cfg.HostName, hostID: cfg.HostID, rotationType: cfg.RotationType}

	n := &Node{handle: e.allocID(), name: cfg.Name, kind: KindNodeBinding, dirty: true, impl: impl}
	n.in = &Property{node: n, typ: TypeStruct, semantics: SemanticsBindingInput}

	visibility := &Property{node: n, parent: n.in, name: "visibility", typ: TypeBool, semantics: SemanticsBindingInput, value: true}
	var rotation *Property
	if cfg.RotationType == RotationQuaternion {
		rotation = &Property{node: n, parent: n.in, name: "rotation", typ: TypeVec4f, semantics: SemanticsBindingInput, value: Vec4f{0, 0, 0, 1}}
	} else {
		rotation = &Property{node: n, parent: n.in, name: "rotation", typ: TypeVec3f, semantics: SemanticsBindingInput, value: Vec3f{}}
	}
	translation := &Property{node: n, parent: n.in, name: "translation", typ: TypeVec3f, semantics: SemanticsBindingInput, value: Vec3f{}}
	scaling := &Property{node: n, parent: n.in, name: "scaling", typ: TypeVec3f, semantics: SemanticsBindingInput, value: Vec3f{1, 1, 1}}
	n.in.children = []*Property{visibility, rotation, translation, scaling}

	if e.resolver != nil {
		if handle, ok := e.resolver.FindHostObject(HostObjectNode, cfg.HostName, cfg.HostID); ok {
			impl.handle = handle
			if cfg.RotationType != RotationQuaternion {
				seedEulerFromHost(e, handle, rotation, cfg.RotationType)
			}
		}
	}

	e.registerNode(n)
	return n, nil
}

// seedEulerFromHost copies the host's existing Euler rotation into the
// binding's input if the host reports the same axis order, per spec
// §4.5: "If the host node already has an Euler rotation in the same axis
// order, the initial input values are copied from the host; otherwise
// the initial rotation is zero and a warning is logged."
func seedEulerFromHost(e *Engine, handle HostObjectHandle, rotation *Property, rt RotationType) {
	order, ok := handle.Get("rotationOrder")
	if !ok || order != rt.String() {
		e.log.Warn().Str("rotation_type", rt.String()).Msg("node binding: host rotation order unknown or different; starting from zero rotation")
		return
	}
	v, ok := handle.Get("rotation")
	if !ok {
		return
	}
	if vec, ok := v.(Vec3f); ok {
		rotation.value = vec
	}
}

func (b *nodeBindingImpl) update(eng *Engine, n *Node) error {
	if b.handle == nil {
		return nil
	}
	return writeBackFields(eng, n, b.handle, map[string]string{
		"visibility":  "visibility",
		"rotation":    "rotation",
		"translation": "translation",
		"scaling":     "scaling",
	}, func(name string, p *Property) any {
		if name == "rotation" && b.rotationType == RotationQuaternion {
			hostOrder := hostEulerOrder(b.handle)
			q, _ := p.value.(Vec4f)
			return quaternionToEuler(hostOrder, q)
		}
		return p.value
	})
}

// hostEulerOrder reports the axis order the host scene uses for Euler
// rotations, defaulting to XYZ if the host does not report one.
func hostEulerOrder(h HostObjectHandle) RotationType {
	if v, ok := h.Get("rotationOrder"); ok {
		if s, ok := v.(string); ok {
			for rt := RotationEulerXYZ; rt <= RotationEulerZYX; rt++ {
				if rt.String() == s {
					return rt
				}
			}
		}
	}
	return RotationEulerXYZ
}

// writeBackFields pushes every named top-level input of n to the host
// whose write-back flag is set and whose (possibly transformed) value
// differs from the last value written (spec §4.5).
func writeBackFields(eng *Engine, n *Node, handle HostObjectHandle, fieldToPath map[string]string, transform func(name string, p *Property) any) error {
	for _, p := range n.in.children {
		path, ok := fieldToPath[p.name]
		if !ok {
			continue
		}
		if !n.needsWriteBack(p.handle) {
			continue
		}
		val := p.value
		if transform != nil {
			val = transform(p.name, p)
		}
		if last, ok := n.lastWrittenValue(p.handle); ok && last == val {
			continue
		}
		if err := handle.Set(path, val); err != nil {
			return newErr(KindHostBinding, n.ID(), "write-back %q: %v", path, err)
		}
		n.recordWritten(p.handle, val)
	}
	return nil
}

package sceneflow

// UniformDecl describes one shader uniform of a host material, used to
// build an Appearance Binding's input schema (spec §4.5: "one primitive
// per shader uniform of the bound host material, mirroring the
// uniform's scalar/vector/matrix type").
type UniformDecl struct {
	Name string
	Type Type
}

// AppearanceBindingConfig is an Appearance Binding's creation-time
// configuration.
type AppearanceBindingConfig struct {
	Name     string
	HostName string
	HostID   uint64
	Uniforms []UniformDecl
}

type appearanceBindingImpl struct {
	hostName string
	hostID   uint64
	handle   HostObjectHandle
}

// CreateAppearanceBinding creates an Appearance Binding with one
// primitive input per declared shader uniform.
func (e *Engine) CreateAppearanceBinding(cfg AppearanceBindingConfig) (*Node, error) {
	e.clearErrors()
	for _, u := range cfg.Uniforms {
		if u.Type.IsContainer() {
			return nil, e.record(newErr(KindValidation, 0, "appearance binding %q: uniform %q must be a primitive type", cfg.Name, u.Name))
		}
	}

	impl := &appearanceBindingImpl{hostName: cfg.HostName, hostID: cfg.HostID}
	n := &Node{handle: e.allocID(), name: cfg.Name, kind: KindAppearanceBinding, dirty: true, impl: impl}
	n.in = &Property{node: n, typ: TypeStruct, semantics: SemanticsBindingInput}
	for _, u := range cfg.Uniforms {
		n.in.children = append(n.in.children, &Property{node: n, parent: n.in, name: u.Name, typ: u.Type, semantics: SemanticsBindingInput})
	}

	if e.resolver != nil {
		if handle, ok := e.resolver.FindHostObject(HostObjectAppearance, cfg.HostName, cfg.HostID); ok {
			impl.handle = handle
		}
	}

	e.registerNode(n)
	return n, nil
}

func (a *appearanceBindingImpl) update(eng *Engine, n *Node) error {
	if a.handle == nil {
		return nil
	}
	fieldToPath := make(map[string]string, len(n.in.children))
	for _, p := range n.in.children {
		fieldToPath[p.name] = p.name
	}
	return writeBackFields(eng, n, a.handle, fieldToPath, nil)
}

package sceneflow

// ProjectionKind selects a Camera Binding's frustum shape.
type ProjectionKind uint8

const (
	ProjectionPerspective ProjectionKind = iota
	ProjectionOrthographic
)

// CameraBindingConfig is a Camera Binding's creation-time configuration
// (spec §4.5).
type CameraBindingConfig struct {
	Name       string
	HostName   string
	HostID     uint64
	Projection ProjectionKind
}

type cameraBindingImpl struct {
	hostName   string
	hostID     uint64
	projection ProjectionKind
	handle     HostObjectHandle
}

// CreateCameraBinding creates a Camera Binding with nested
// viewport{offsetX,offsetY,width,height} and frustum inputs, the
// frustum's shape depending on cfg.Projection (spec §4.5).
func (e *Engine) CreateCameraBinding(cfg CameraBindingConfig) (*Node, error) {
	e.clearErrors()
	impl := &cameraBindingImpl{hostName: cfg.HostName, hostID: cfg.HostID, projection: cfg.Projection}
	n := &Node{handle: e.allocID(), name: cfg.Name, kind: KindCameraBinding, dirty: true, impl: impl}
	n.in = &Property{node: n, typ: TypeStruct, semantics: SemanticsBindingInput}

	viewport := &Property{node: n, parent: n.in, name: "viewport", typ: TypeStruct, semantics: SemanticsBindingInput}
	viewport.children = []*Property{
		{node: n, parent: viewport, name: "offsetX", typ: TypeInt32, semantics: SemanticsBindingInput},
		{node: n, parent: viewport, name: "offsetY", typ: TypeInt32, semantics: SemanticsBindingInput},
		{node: n, parent: viewport, name: "width", typ: TypeInt32, semantics: SemanticsBindingInput, value: int32(1)},
		{node: n, parent: viewport, name: "height", typ: TypeInt32, semantics: SemanticsBindingInput, value: int32(1)},
	}

	frustum := &Property{node: n, parent: n.in, name: "frustum", typ: TypeStruct, semantics: SemanticsBindingInput}
	if cfg.Projection == ProjectionOrthographic {
		frustum.children = []*Property{
			{node: n, parent: frustum, name: "leftPlane", typ: TypeFloat, semantics: SemanticsBindingInput},
			{node: n, parent: frustum, name: "rightPlane", typ: TypeFloat, semantics: SemanticsBindingInput, value: float64(1)},
			{node: n, parent: frustum, name: "bottomPlane", typ: TypeFloat, semantics: SemanticsBindingInput},
			{node: n, parent: frustum, name: "topPlane", typ: TypeFloat, semantics: SemanticsBindingInput, value: float64(1)},
			{node: n, parent: frustum, name: "nearPlane", typ: TypeFloat, semantics: SemanticsBindingInput, value: float64(0.1)},
			{node: n, parent: frustum, name: "farPlane", typ: TypeFloat, semantics: SemanticsBindingInput, value: float64(100)},
		}
	} else {
		frustum.children = []*Property{
			{node: n, parent: frustum, name: "nearPlane", typ: TypeFloat, semantics: SemanticsBindingInput, value: float64(0.1)},
			{node: n, parent: frustum, name: "farPlane", typ: TypeFloat, semantics: SemanticsBindingInput, value: float64(100)},
			{node: n, parent: frustum, name: "fieldOfView", typ: TypeFloat, semantics: SemanticsBindingInput, value: float64(45)},
			{node: n, parent: frustum, name: "aspectRatio", typ: TypeFloat, semantics: SemanticsBindingInput, value: float64(1)},
		}
	}
	n.in.children = []*Property{viewport, frustum}

	if e.resolver != nil {
		if handle, ok := e.resolver.FindHostObject(HostObjectCamera, cfg.HostName, cfg.HostID); ok {
			impl.handle = handle
		}
	}

	e.registerNode(n)
	return n, nil
}

func (c *cameraBindingImpl) update(eng *Engine, n *Node) error {
	if c.handle == nil {
		return nil
	}
	for _, group := range n.in.children {
		for _, p := range group.children {
			if !n.needsWriteBack(p.handle) {
				continue
			}
			if last, ok := n.lastWrittenValue(p.handle); ok && last == p.value {
				continue
			}
			path := group.name + "." + p.name
			if err := c.handle.Set(path, p.value); err != nil {
				return newErr(KindHostBinding, n.ID(), "write-back %q: %v", path, err)
			}
			n.recordWritten(p.handle, p.value)
		}
	}
	return nil
}

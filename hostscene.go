package sceneflow

// HostObjectKind identifies the variety of host scene object a binding
// mirrors.
type HostObjectKind uint8

const (
	HostObjectNode HostObjectKind = iota
	HostObjectAppearance
	HostObjectCamera
)

func (k HostObjectKind) String() string {
	switch k {
	case HostObjectNode:
		return "Node"
	case HostObjectAppearance:
		return "Appearance"
	case HostObjectCamera:
		return "Camera"
	default:
		return "UnknownHostObjectKind"
	}
}

// HostObjectHandle is a live reference to an external scene object a
// binding node writes into. A binding resolves its handle once, at
// creation or load, and keeps it for the binding's lifetime.
type HostObjectHandle interface {
	Kind() HostObjectKind
	// Set pushes one named property (e.g. "visibility", "rotation",
	// "viewport.offsetX") to the host object. path uses the same dotted
	// notation as Property.path.
	Set(path string, value any) error
	// Get reads one named property back, used to seed a Node Binding's
	// initial rotation from the host (spec §4.5) and to read the host's
	// "rotationOrder" when a quaternion rotation is written back.
	Get(path string) (any, bool)
}

// HostResolver looks up a live host object by kind, name, and id — the
// load path's external collaborator (spec §6: "findHostObject(kind,
// name, id) → HostObjectHandle?").
type HostResolver interface {
	FindHostObject(kind HostObjectKind, name string, id uint64) (HostObjectHandle, bool)
}

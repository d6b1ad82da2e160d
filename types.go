package sceneflow

// Type tags a [Property]'s value shape. The six numeric vector types and
// the two container kinds round out the thirteen primitive/container types
// named in spec §3.
type Type uint8

const (
	TypeBool Type = iota
	TypeInt32
	TypeInt64
	TypeFloat
	TypeString
	TypeVec2f
	TypeVec3f
	TypeVec4f
	TypeVec2i
	TypeVec3i
	TypeVec4i
	TypeStruct
	TypeArray
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeVec2f:
		return "vec2f"
	case TypeVec3f:
		return "vec3f"
	case TypeVec4f:
		return "vec4f"
	case TypeVec2i:
		return "vec2i"
	case TypeVec3i:
		return "vec3i"
	case TypeVec4i:
		return "vec4i"
	case TypeStruct:
		return "struct"
	case TypeArray:
		return "array"
	default:
		return "unknown"
	}
}

// IsContainer reports whether t is struct or array.
func (t Type) IsContainer() bool {
	return t == TypeStruct || t == TypeArray
}

// IsPrimitive reports whether t is a leaf value type (everything except
// struct/array).
func (t Type) IsPrimitive() bool {
	return !t.IsContainer()
}

// Vec2f, Vec3f, Vec4f are fixed-length float64 tuples used for the
// vector-typed properties. Components are addressed positionally; there is
// no named-field convenience because the scripting bridge and the binary
// format both address them positionally too.
type (
	Vec2f [2]float64
	Vec3f [3]float64
	Vec4f [4]float64
	Vec2i [2]int32
	Vec3i [3]int32
	Vec4i [4]int32
)

// Semantics tags why a Property exists: whether it's a script's declared
// input/output, or a binding's fixed input.
type Semantics uint8

const (
	SemanticsScriptInput Semantics = iota
	SemanticsScriptOutput
	SemanticsBindingInput
)

func (s Semantics) isInput() bool {
	return s == SemanticsScriptInput || s == SemanticsBindingInput
}

// PropertyValue is the closed set of Go types a [Property] can hold. Get
// and Set are free functions (not methods) because Go methods cannot
// introduce new type parameters — this is the typed façade spec §9's
// design note calls for over a runtime-tagged value cell.
type PropertyValue interface {
	bool | int32 | int64 | float64 | string | Vec2f | Vec3f | Vec4f | Vec2i | Vec3i | Vec4i
}

// typeTagFor returns the Type tag corresponding to Go type T.
func typeTagFor[T PropertyValue]() Type {
	var zero T
	switch any(zero).(type) {
	case bool:
		return TypeBool
	case int32:
		return TypeInt32
	case int64:
		return TypeInt64
	case float64:
		return TypeFloat
	case string:
		return TypeString
	case Vec2f:
		return TypeVec2f
	case Vec3f:
		return TypeVec3f
	case Vec4f:
		return TypeVec4f
	case Vec2i:
		return TypeVec2i
	case Vec3i:
		return TypeVec3i
	case Vec4i:
		return TypeVec4i
	default:
		panic("sceneflow: unreachable PropertyValue type")
	}
}

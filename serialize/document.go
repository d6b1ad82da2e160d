// Package serialize implements the binary file format the engine reads
// and writes (spec §6). It has zero dependency on the root engine
// package: it knows only a flat intermediate representation (the types
// in this file) and how to turn that representation to and from bytes
// (encode.go/decode.go). The root package's persistence.go does all the
// Engine/Node/Property <-> Document conversion.
package serialize

// CurrentFileFormatVersion is the only file format version this build
// writes or accepts on load (spec §6 failure (a): "the file's
// fileFormatVersion is not one this build supports").
const CurrentFileFormatVersion int32 = 1

// PropertyType mirrors the engine's Type enum, numerically aligned with
// it field for field (bool..array) so the bridge in persistence.go can
// convert with a plain cast.
type PropertyType int32

const (
	PropBool PropertyType = iota
	PropInt32
	PropInt64
	PropFloat
	PropString
	PropVec2f
	PropVec3f
	PropVec4f
	PropVec2i
	PropVec3i
	PropVec4i
	PropStruct
	PropArray
)

// PropertySemantics mirrors the engine's Semantics enum.
type PropertySemantics int32

const (
	SemInput PropertySemantics = iota
	SemOutput
	SemBindingInput
)

// Version is the {major, minor, patch, stringTag, fileFormatVersion}
// stamp spec §6 requires for both the tool and the host scene.
type Version struct {
	Major             int32
	Minor             int32
	Patch             int32
	StringTag         string
	FileFormatVersion int32
}

// ValueRecord holds one primitive value, tagged by the PropertyType it
// was written as. Only the field matching Type is meaningful.
type ValueRecord struct {
	Type    PropertyType
	Bool    bool
	Int32   int32
	Int64   int64
	Float   float64
	String  string
	Vec4f   [4]float64
	Vec4i   [4]int32
}

// PropertyRecord is one node in a saved IN or OUT property tree.
// Children holds struct/array children in frozen declaration order (spec
// §9 open question (c)).
type PropertyRecord struct {
	Name      string
	Type      PropertyType
	Semantics PropertySemantics
	Value     ValueRecord // meaningful only when !Type.IsContainer()
	Children  []PropertyRecord
}

func (t PropertyType) IsContainer() bool { return t == PropStruct || t == PropArray }

// ModuleRefRecord is one alias->module binding a saved script depended
// on (spec §4.4).
type ModuleRefRecord struct {
	Alias    string
	ModuleID uint64
}

// LuaModuleRecord is a saved, reusable compiled-module source (spec
// §4.4).
type LuaModuleRecord struct {
	ID     uint64
	Name   string
	Source string
}

// LuaScriptRecord is a saved script node: its source (recompiled on
// load, since a Chunk itself cannot be serialized), declared standard
// modules, module dependencies, and its IN/OUT property trees.
type LuaScriptRecord struct {
	ID              uint64
	Name            string
	Source          string
	StandardModules []string
	ModuleRefs      []ModuleRefRecord
	In              PropertyRecord
	Out             PropertyRecord
}

// NodeBindingRecord is a saved Node Binding (spec §4.5).
type NodeBindingRecord struct {
	ID           uint64
	Name         string
	HostName     string
	HostID       uint64
	RotationType int32
	In           PropertyRecord
}

// AppearanceBindingRecord is a saved Appearance Binding (spec §4.5). Its
// uniform declarations are reconstructed from In's children on load.
type AppearanceBindingRecord struct {
	ID       uint64
	Name     string
	HostName string
	HostID   uint64
	In       PropertyRecord
}

// CameraBindingRecord is a saved Camera Binding (spec §4.5).
type CameraBindingRecord struct {
	ID         uint64
	Name       string
	HostName   string
	HostID     uint64
	Projection int32
	In         PropertyRecord
}

// DataArrayRecord is a saved immutable numeric buffer (spec §4.6).
type DataArrayRecord struct {
	ID      uint64
	Name    string
	Element PropertyType
	Values  []ValueRecord
}

// AnimationChannelRecord is one saved channel of an AnimationNode,
// referencing its DataArrays by id (spec §4.6).
type AnimationChannelRecord struct {
	Name          string
	Interpolation int32
	TimestampsID  uint64
	KeyframesID   uint64
	TangentsInID  uint64 // 0 if none
	TangentsOutID uint64 // 0 if none
}

// AnimationNodeRecord is a saved AnimationNode.
type AnimationNodeRecord struct {
	ID       uint64
	Name     string
	Channels []AnimationChannelRecord
	In       PropertyRecord
	Out      PropertyRecord
}

// TimerNodeRecord is a saved TimerNode.
type TimerNodeRecord struct {
	ID   uint64
	Name string
	In   PropertyRecord
	Out  PropertyRecord
}

// LinkRecord is a saved link, addressed by (nodeId, propertyPath) at
// both ends (spec §6).
type LinkRecord struct {
	SourceNodeID uint64
	SourcePath   string
	TargetNodeID uint64
	TargetPath   string
}

// ApiObjects is the document's eight named ordered object lists (spec
// §6: "an ApiObjects table with... eight named ordered lists").
type ApiObjects struct {
	LuaModules         []LuaModuleRecord
	LuaScripts         []LuaScriptRecord
	NodeBindings       []NodeBindingRecord
	AppearanceBindings []AppearanceBindingRecord
	CameraBindings     []CameraBindingRecord
	DataArrays         []DataArrayRecord
	AnimationNodes     []AnimationNodeRecord
	TimerNodes         []TimerNodeRecord
}

// Document is the full contents of a saved file: both version stamps,
// every api object, and every link (spec §6).
type Document struct {
	ToolVersion Version
	HostVersion Version
	Objects     ApiObjects
	Links       []LinkRecord
}

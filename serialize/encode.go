package serialize

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// recKind tags what a generic Rec table represents. Unlike PropertyType
// (part of the public IR), this is purely an encoding-layer discriminant
// and never leaves this package.
type recKind byte

const (
	recDocument recKind = iota
	recVersion
	recProperty
	recValue
	recLuaModule
	recModuleRef
	recLuaScript
	recNodeBinding
	recAppearanceBinding
	recCameraBinding
	recDataArray
	recAnimationChannel
	recAnimationNode
	recTimerNode
	recLink
)

// rec is the single, generic 19-field flatbuffers table every record
// kind in this format is built from. Every encode/decode function
// reinterprets these same positional slots according to its own kind;
// there is no per-record-kind vtable, which keeps this package to one
// table schema instead of fifteen bespoke ones.
//
// Field index -> vtable slot is "4 + 2*index" per the flatbuffers vtable
// convention; see fieldPos in decode.go and the descending-index
// PrependSlot calls in buildRec below.
type rec struct {
	kind         recKind
	id0, id1     uint64
	id2, id3     uint64
	s0, s1       string
	f0, f1       byte
	n0, n1       float64
	n2, n3       float64
	i0, i1       int32
	i2, i3       int32
	i64          int64
	children     []flatbuffers.UOffsetT
}

const numRecFields = 19

// buildRec writes one rec table into b and returns its offset. Any
// offset-typed sub-values (nested Recs, strings) referenced by r must
// already have been built before this call, since flatbuffers forbids
// starting a new object while another is open.
func buildRec(b *flatbuffers.Builder, r rec) flatbuffers.UOffsetT {
	var childrenVec flatbuffers.UOffsetT
	if len(r.children) > 0 {
		b.StartVector(4, len(r.children), 4)
		for i := len(r.children) - 1; i >= 0; i-- {
			b.PrependUOffsetT(r.children[i])
		}
		childrenVec = b.EndVector(len(r.children))
	}
	var s0off, s1off flatbuffers.UOffsetT
	if r.s0 != "" {
		s0off = b.CreateString(r.s0)
	}
	if r.s1 != "" {
		s1off = b.CreateString(r.s1)
	}

	b.StartObject(numRecFields)
	if childrenVec != 0 {
		b.PrependUOffsetTSlot(18, childrenVec, 0)
	}
	b.PrependInt64Slot(17, r.i64, 0)
	b.PrependInt32Slot(16, r.i3, 0)
	b.PrependInt32Slot(15, r.i2, 0)
	b.PrependInt32Slot(14, r.i1, 0)
	b.PrependInt32Slot(13, r.i0, 0)
	b.PrependFloat64Slot(12, r.n3, 0)
	b.PrependFloat64Slot(11, r.n2, 0)
	b.PrependFloat64Slot(10, r.n1, 0)
	b.PrependFloat64Slot(9, r.n0, 0)
	b.PrependByteSlot(8, r.f1, 0)
	b.PrependByteSlot(7, r.f0, 0)
	if s1off != 0 {
		b.PrependUOffsetTSlot(6, s1off, 0)
	}
	if s0off != 0 {
		b.PrependUOffsetTSlot(5, s0off, 0)
	}
	b.PrependUint64Slot(4, r.id3, 0)
	b.PrependUint64Slot(3, r.id2, 0)
	b.PrependUint64Slot(2, r.id1, 0)
	b.PrependUint64Slot(1, r.id0, 0)
	b.PrependByteSlot(0, byte(r.kind), 0)
	return b.EndObject()
}

// Encode serializes doc to the binary format (spec §6).
func Encode(doc *Document) ([]byte, error) {
	b := flatbuffers.NewBuilder(4096)
	root := encodeDocument(b, doc)
	b.Finish(root)
	return b.FinishedBytes(), nil
}

func encodeVersion(b *flatbuffers.Builder, v Version) flatbuffers.UOffsetT {
	return buildRec(b, rec{
		kind: recVersion,
		i0:   v.Major, i1: v.Minor, i2: v.Patch, i3: v.FileFormatVersion,
		s0: v.StringTag,
	})
}

func encodeValue(b *flatbuffers.Builder, t PropertyType, v ValueRecord) flatbuffers.UOffsetT {
	r := rec{kind: recValue, i0: int32(t)}
	switch t {
	case PropBool:
		if v.Bool {
			r.f0 = 1
		}
	case PropInt32:
		r.i1 = v.Int32
	case PropInt64:
		r.i64 = v.Int64
	case PropFloat:
		r.n0 = v.Float
	case PropString:
		r.s1 = v.String
	case PropVec2f:
		r.n0, r.n1 = v.Vec4f[0], v.Vec4f[1]
	case PropVec3f:
		r.n0, r.n1, r.n2 = v.Vec4f[0], v.Vec4f[1], v.Vec4f[2]
	case PropVec4f:
		r.n0, r.n1, r.n2, r.n3 = v.Vec4f[0], v.Vec4f[1], v.Vec4f[2], v.Vec4f[3]
	case PropVec2i:
		r.n0, r.n1 = float64(v.Vec4i[0]), float64(v.Vec4i[1])
	case PropVec3i:
		r.n0, r.n1, r.n2 = float64(v.Vec4i[0]), float64(v.Vec4i[1]), float64(v.Vec4i[2])
	case PropVec4i:
		r.n0, r.n1, r.n2, r.n3 = float64(v.Vec4i[0]), float64(v.Vec4i[1]), float64(v.Vec4i[2]), float64(v.Vec4i[3])
	}
	return buildRec(b, r)
}

func encodeProperty(b *flatbuffers.Builder, p PropertyRecord) flatbuffers.UOffsetT {
	var children []flatbuffers.UOffsetT
	if p.Type.IsContainer() {
		children = make([]flatbuffers.UOffsetT, len(p.Children))
		for i, c := range p.Children {
			children[i] = encodeProperty(b, c)
		}
	} else {
		children = []flatbuffers.UOffsetT{encodeValue(b, p.Type, p.Value)}
	}
	return buildRec(b, rec{
		kind: recProperty,
		i0:   int32(p.Type), i1: int32(p.Semantics),
		s0:       p.Name,
		children: children,
	})
}

func encodeLuaModule(b *flatbuffers.Builder, m LuaModuleRecord) flatbuffers.UOffsetT {
	return buildRec(b, rec{kind: recLuaModule, id0: m.ID, s0: m.Name, s1: m.Source})
}

func encodeModuleRef(b *flatbuffers.Builder, m ModuleRefRecord) flatbuffers.UOffsetT {
	return buildRec(b, rec{kind: recModuleRef, s0: m.Alias, id0: m.ModuleID})
}

func encodeLuaScript(b *flatbuffers.Builder, s LuaScriptRecord) flatbuffers.UOffsetT {
	inOff := encodeProperty(b, s.In)
	outOff := encodeProperty(b, s.Out)
	refOffs := make([]flatbuffers.UOffsetT, len(s.ModuleRefs))
	for i, r := range s.ModuleRefs {
		refOffs[i] = encodeModuleRef(b, r)
	}
	children := append([]flatbuffers.UOffsetT{inOff, outOff}, refOffs...)

	mask := int32(0)
	for i, name := range standardModuleNames {
		for _, m := range s.StandardModules {
			if m == name {
				mask |= 1 << uint(i)
			}
		}
	}

	return buildRec(b, rec{
		kind: recLuaScript,
		id0:  s.ID, s0: s.Name, s1: s.Source,
		i0:       mask,
		children: children,
	})
}

var standardModuleNames = []string{"Base", "String", "Math", "Table", "Debug"}

func encodeNodeBinding(b *flatbuffers.Builder, n NodeBindingRecord) flatbuffers.UOffsetT {
	inOff := encodeProperty(b, n.In)
	return buildRec(b, rec{
		kind: recNodeBinding,
		id0:  n.ID, s0: n.Name, s1: n.HostName, id1: n.HostID, i0: n.RotationType,
		children: []flatbuffers.UOffsetT{inOff},
	})
}

func encodeAppearanceBinding(b *flatbuffers.Builder, a AppearanceBindingRecord) flatbuffers.UOffsetT {
	inOff := encodeProperty(b, a.In)
	return buildRec(b, rec{
		kind: recAppearanceBinding,
		id0:  a.ID, s0: a.Name, s1: a.HostName, id1: a.HostID,
		children: []flatbuffers.UOffsetT{inOff},
	})
}

func encodeCameraBinding(b *flatbuffers.Builder, c CameraBindingRecord) flatbuffers.UOffsetT {
	inOff := encodeProperty(b, c.In)
	return buildRec(b, rec{
		kind: recCameraBinding,
		id0:  c.ID, s0: c.Name, s1: c.HostName, id1: c.HostID, i0: c.Projection,
		children: []flatbuffers.UOffsetT{inOff},
	})
}

func encodeDataArray(b *flatbuffers.Builder, d DataArrayRecord) flatbuffers.UOffsetT {
	children := make([]flatbuffers.UOffsetT, len(d.Values))
	for i, v := range d.Values {
		children[i] = encodeValue(b, d.Element, v)
	}
	return buildRec(b, rec{
		kind: recDataArray,
		id0:  d.ID, s0: d.Name, i0: int32(d.Element),
		children: children,
	})
}

func encodeAnimationChannel(b *flatbuffers.Builder, c AnimationChannelRecord) flatbuffers.UOffsetT {
	return buildRec(b, rec{
		kind: recAnimationChannel,
		s0:   c.Name, i0: c.Interpolation,
		id0: c.TimestampsID, id1: c.KeyframesID, id2: c.TangentsInID, id3: c.TangentsOutID,
	})
}

func encodeAnimationNode(b *flatbuffers.Builder, a AnimationNodeRecord) flatbuffers.UOffsetT {
	inOff := encodeProperty(b, a.In)
	outOff := encodeProperty(b, a.Out)
	chOffs := make([]flatbuffers.UOffsetT, len(a.Channels))
	for i, c := range a.Channels {
		chOffs[i] = encodeAnimationChannel(b, c)
	}
	children := append([]flatbuffers.UOffsetT{inOff, outOff}, chOffs...)
	return buildRec(b, rec{kind: recAnimationNode, id0: a.ID, s0: a.Name, children: children})
}

func encodeTimerNode(b *flatbuffers.Builder, t TimerNodeRecord) flatbuffers.UOffsetT {
	inOff := encodeProperty(b, t.In)
	outOff := encodeProperty(b, t.Out)
	return buildRec(b, rec{kind: recTimerNode, id0: t.ID, s0: t.Name, children: []flatbuffers.UOffsetT{inOff, outOff}})
}

func encodeLink(b *flatbuffers.Builder, l LinkRecord) flatbuffers.UOffsetT {
	return buildRec(b, rec{
		kind: recLink,
		id0:  l.SourceNodeID, id1: l.TargetNodeID,
		s0: l.SourcePath, s1: l.TargetPath,
	})
}

// encodeDocument flattens every api object list and the link list into
// one Children vector on the root rec, each tagged by its own recKind so
// Decode can sort them back into Document's named fields.
func encodeDocument(b *flatbuffers.Builder, doc *Document) flatbuffers.UOffsetT {
	toolOff := encodeVersion(b, doc.ToolVersion)
	hostOff := encodeVersion(b, doc.HostVersion)

	var objOffs []flatbuffers.UOffsetT
	for _, m := range doc.Objects.LuaModules {
		objOffs = append(objOffs, encodeLuaModule(b, m))
	}
	for _, s := range doc.Objects.LuaScripts {
		objOffs = append(objOffs, encodeLuaScript(b, s))
	}
	for _, n := range doc.Objects.NodeBindings {
		objOffs = append(objOffs, encodeNodeBinding(b, n))
	}
	for _, a := range doc.Objects.AppearanceBindings {
		objOffs = append(objOffs, encodeAppearanceBinding(b, a))
	}
	for _, c := range doc.Objects.CameraBindings {
		objOffs = append(objOffs, encodeCameraBinding(b, c))
	}
	for _, d := range doc.Objects.DataArrays {
		objOffs = append(objOffs, encodeDataArray(b, d))
	}
	for _, a := range doc.Objects.AnimationNodes {
		objOffs = append(objOffs, encodeAnimationNode(b, a))
	}
	for _, t := range doc.Objects.TimerNodes {
		objOffs = append(objOffs, encodeTimerNode(b, t))
	}
	for _, l := range doc.Links {
		objOffs = append(objOffs, encodeLink(b, l))
	}

	children := append([]flatbuffers.UOffsetT{toolOff, hostOff}, objOffs...)
	return buildRec(b, rec{kind: recDocument, children: children})
}

package serialize

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// fieldPos resolves field's vtable slot to its absolute byte offset in
// t's bytes, or 0 if the field was never written (flatbuffers' standard
// "absent field" signal, mirroring generated-code accessors).
func fieldPos(t *flatbuffers.Table, field int) flatbuffers.UOffsetT {
	o := flatbuffers.UOffsetT(t.Offset(flatbuffers.VOffsetT(4 + 2*field)))
	if o == 0 {
		return 0
	}
	return o + t.Pos
}

func recByte(t *flatbuffers.Table, field int) byte {
	if o := fieldPos(t, field); o != 0 {
		return t.GetByte(o)
	}
	return 0
}

func recUint64(t *flatbuffers.Table, field int) uint64 {
	if o := fieldPos(t, field); o != 0 {
		return t.GetUint64(o)
	}
	return 0
}

func recInt32(t *flatbuffers.Table, field int) int32 {
	if o := fieldPos(t, field); o != 0 {
		return t.GetInt32(o)
	}
	return 0
}

func recInt64(t *flatbuffers.Table, field int) int64 {
	if o := fieldPos(t, field); o != 0 {
		return t.GetInt64(o)
	}
	return 0
}

func recFloat64(t *flatbuffers.Table, field int) float64 {
	if o := fieldPos(t, field); o != 0 {
		return t.GetFloat64(o)
	}
	return 0
}

func recString(t *flatbuffers.Table, field int) string {
	o := flatbuffers.UOffsetT(t.Offset(flatbuffers.VOffsetT(4 + 2*field)))
	if o == 0 {
		return ""
	}
	return t.String(o + t.Pos)
}

func recChildCount(t *flatbuffers.Table, field int) int {
	o := flatbuffers.UOffsetT(t.Offset(flatbuffers.VOffsetT(4 + 2*field)))
	if o == 0 {
		return 0
	}
	return t.VectorLen(o + t.Pos)
}

// recChild returns the i'th element (0-based) of the vector-of-tables at
// field, following the indirection flatbuffers uses for vector-of-table
// elements.
func recChild(t *flatbuffers.Table, field, i int) *flatbuffers.Table {
	o := flatbuffers.UOffsetT(t.Offset(flatbuffers.VOffsetT(4 + 2*field)))
	if o == 0 {
		return nil
	}
	a := t.Vector(o + t.Pos)
	x := a + flatbuffers.UOffsetT(i)*4
	x = t.Indirect(x)
	return &flatbuffers.Table{Bytes: t.Bytes, Pos: x}
}

// field indices, named for readability at each record kind's call site.
// They are deliberately reused across kinds: e.g. field 0 is "kind"
// everywhere, but field 5 means "name" for most records and "stringTag"
// for Version.
const (
	fKind = 0
	fID0  = 1
	fID1  = 2
	fID2  = 3
	fID3  = 4
	fS0   = 5
	fS1   = 6
	fF0   = 7
	fF1   = 8
	fN0   = 9
	fN1   = 10
	fN2   = 11
	fN3   = 12
	fI0   = 13
	fI1   = 14
	fI2   = 15
	fI3   = 16
	fI64  = 17
	fKids = 18
)

func recKindOf(t *flatbuffers.Table) recKind { return recKind(recByte(t, fKind)) }

// Decode parses buf into a Document (spec §6). It rejects an
// unsupported file format version and a missing/truncated root, which
// are the two load failures detectable without engine context; the
// root package's reconstruction pass is responsible for the remaining
// four documented failure reasons.
func Decode(buf []byte) (*Document, error) {
	if len(buf) < int(flatbuffers.SizeUOffsetT) {
		return nil, newLoadError(ReasonMissingField, "buffer too small to contain a root offset")
	}
	n := flatbuffers.GetUOffsetT(buf)
	if int(n) >= len(buf) {
		return nil, newLoadError(ReasonMissingField, "root offset out of range")
	}
	root := &flatbuffers.Table{Bytes: buf, Pos: n}
	if recKindOf(root) != recDocument {
		return nil, newLoadError(ReasonMissingField, "root record is not a document")
	}

	doc := &Document{
		ToolVersion: decodeVersion(recChild(root, fKids, 0)),
		HostVersion: decodeVersion(recChild(root, fKids, 1)),
	}
	if doc.ToolVersion.FileFormatVersion != CurrentFileFormatVersion {
		return nil, newLoadError(ReasonUnsupportedVersion, "file format version %d, supported %d",
			doc.ToolVersion.FileFormatVersion, CurrentFileFormatVersion)
	}

	n2 := recChildCount(root, fKids)
	for i := 2; i < n2; i++ {
		obj := recChild(root, fKids, i)
		switch recKindOf(obj) {
		case recLuaModule:
			doc.Objects.LuaModules = append(doc.Objects.LuaModules, decodeLuaModule(obj))
		case recLuaScript:
			doc.Objects.LuaScripts = append(doc.Objects.LuaScripts, decodeLuaScript(obj))
		case recNodeBinding:
			doc.Objects.NodeBindings = append(doc.Objects.NodeBindings, decodeNodeBinding(obj))
		case recAppearanceBinding:
			doc.Objects.AppearanceBindings = append(doc.Objects.AppearanceBindings, decodeAppearanceBinding(obj))
		case recCameraBinding:
			doc.Objects.CameraBindings = append(doc.Objects.CameraBindings, decodeCameraBinding(obj))
		case recDataArray:
			doc.Objects.DataArrays = append(doc.Objects.DataArrays, decodeDataArray(obj))
		case recAnimationNode:
			doc.Objects.AnimationNodes = append(doc.Objects.AnimationNodes, decodeAnimationNode(obj))
		case recTimerNode:
			doc.Objects.TimerNodes = append(doc.Objects.TimerNodes, decodeTimerNode(obj))
		case recLink:
			doc.Links = append(doc.Links, decodeLink(obj))
		}
	}
	return doc, nil
}

func decodeVersion(t *flatbuffers.Table) Version {
	if t == nil {
		return Version{}
	}
	return Version{
		Major: recInt32(t, fI0), Minor: recInt32(t, fI1), Patch: recInt32(t, fI2),
		FileFormatVersion: recInt32(t, fI3),
		StringTag:         recString(t, fS0),
	}
}

func decodeValue(t *flatbuffers.Table, typ PropertyType) ValueRecord {
	v := ValueRecord{Type: typ}
	if t == nil {
		return v
	}
	switch typ {
	case PropBool:
		v.Bool = recByte(t, fF0) != 0
	case PropInt32:
		v.Int32 = recInt32(t, fI1)
	case PropInt64:
		v.Int64 = recInt64(t, fI64)
	case PropFloat:
		v.Float = recFloat64(t, fN0)
	case PropString:
		v.String = recString(t, fS1)
	case PropVec2f:
		v.Vec4f[0], v.Vec4f[1] = recFloat64(t, fN0), recFloat64(t, fN1)
	case PropVec3f:
		v.Vec4f[0], v.Vec4f[1], v.Vec4f[2] = recFloat64(t, fN0), recFloat64(t, fN1), recFloat64(t, fN2)
	case PropVec4f:
		v.Vec4f[0], v.Vec4f[1], v.Vec4f[2], v.Vec4f[3] = recFloat64(t, fN0), recFloat64(t, fN1), recFloat64(t, fN2), recFloat64(t, fN3)
	case PropVec2i:
		v.Vec4i[0], v.Vec4i[1] = int32(recFloat64(t, fN0)), int32(recFloat64(t, fN1))
	case PropVec3i:
		v.Vec4i[0], v.Vec4i[1], v.Vec4i[2] = int32(recFloat64(t, fN0)), int32(recFloat64(t, fN1)), int32(recFloat64(t, fN2))
	case PropVec4i:
		v.Vec4i[0], v.Vec4i[1], v.Vec4i[2], v.Vec4i[3] = int32(recFloat64(t, fN0)), int32(recFloat64(t, fN1)), int32(recFloat64(t, fN2)), int32(recFloat64(t, fN3))
	}
	return v
}

func decodeProperty(t *flatbuffers.Table) PropertyRecord {
	if t == nil {
		return PropertyRecord{}
	}
	p := PropertyRecord{
		Name:      recString(t, fS0),
		Type:      PropertyType(recInt32(t, fI0)),
		Semantics: PropertySemantics(recInt32(t, fI1)),
	}
	n := recChildCount(t, fKids)
	if p.Type.IsContainer() {
		p.Children = make([]PropertyRecord, n)
		for i := 0; i < n; i++ {
			p.Children[i] = decodeProperty(recChild(t, fKids, i))
		}
	} else if n > 0 {
		p.Value = decodeValue(recChild(t, fKids, 0), p.Type)
	}
	return p
}

func decodeLuaModule(t *flatbuffers.Table) LuaModuleRecord {
	return LuaModuleRecord{ID: recUint64(t, fID0), Name: recString(t, fS0), Source: recString(t, fS1)}
}

func decodeModuleRef(t *flatbuffers.Table) ModuleRefRecord {
	return ModuleRefRecord{Alias: recString(t, fS0), ModuleID: recUint64(t, fID0)}
}

func decodeLuaScript(t *flatbuffers.Table) LuaScriptRecord {
	s := LuaScriptRecord{
		ID: recUint64(t, fID0), Name: recString(t, fS0), Source: recString(t, fS1),
	}
	mask := recInt32(t, fI0)
	for i, name := range standardModuleNames {
		if mask&(1<<uint(i)) != 0 {
			s.StandardModules = append(s.StandardModules, name)
		}
	}
	n := recChildCount(t, fKids)
	if n > 0 {
		s.In = decodeProperty(recChild(t, fKids, 0))
	}
	if n > 1 {
		s.Out = decodeProperty(recChild(t, fKids, 1))
	}
	for i := 2; i < n; i++ {
		s.ModuleRefs = append(s.ModuleRefs, decodeModuleRef(recChild(t, fKids, i)))
	}
	return s
}

func decodeNodeBinding(t *flatbuffers.Table) NodeBindingRecord {
	n := NodeBindingRecord{
		ID: recUint64(t, fID0), Name: recString(t, fS0), HostName: recString(t, fS1),
		HostID: recUint64(t, fID1), RotationType: recInt32(t, fI0),
	}
	if recChildCount(t, fKids) > 0 {
		n.In = decodeProperty(recChild(t, fKids, 0))
	}
	return n
}

func decodeAppearanceBinding(t *flatbuffers.Table) AppearanceBindingRecord {
	a := AppearanceBindingRecord{
		ID: recUint64(t, fID0), Name: recString(t, fS0), HostName: recString(t, fS1), HostID: recUint64(t, fID1),
	}
	if recChildCount(t, fKids) > 0 {
		a.In = decodeProperty(recChild(t, fKids, 0))
	}
	return a
}

func decodeCameraBinding(t *flatbuffers.Table) CameraBindingRecord {
	c := CameraBindingRecord{
		ID: recUint64(t, fID0), Name: recString(t, fS0), HostName: recString(t, fS1),
		HostID: recUint64(t, fID1), Projection: recInt32(t, fI0),
	}
	if recChildCount(t, fKids) > 0 {
		c.In = decodeProperty(recChild(t, fKids, 0))
	}
	return c
}

func decodeDataArray(t *flatbuffers.Table) DataArrayRecord {
	d := DataArrayRecord{ID: recUint64(t, fID0), Name: recString(t, fS0), Element: PropertyType(recInt32(t, fI0))}
	n := recChildCount(t, fKids)
	d.Values = make([]ValueRecord, n)
	for i := 0; i < n; i++ {
		d.Values[i] = decodeValue(recChild(t, fKids, i), d.Element)
	}
	return d
}

func decodeAnimationChannel(t *flatbuffers.Table) AnimationChannelRecord {
	return AnimationChannelRecord{
		Name: recString(t, fS0), Interpolation: recInt32(t, fI0),
		TimestampsID: recUint64(t, fID0), KeyframesID: recUint64(t, fID1),
		TangentsInID: recUint64(t, fID2), TangentsOutID: recUint64(t, fID3),
	}
}

func decodeAnimationNode(t *flatbuffers.Table) AnimationNodeRecord {
	a := AnimationNodeRecord{ID: recUint64(t, fID0), Name: recString(t, fS0)}
	n := recChildCount(t, fKids)
	if n > 0 {
		a.In = decodeProperty(recChild(t, fKids, 0))
	}
	if n > 1 {
		a.Out = decodeProperty(recChild(t, fKids, 1))
	}
	for i := 2; i < n; i++ {
		a.Channels = append(a.Channels, decodeAnimationChannel(recChild(t, fKids, i)))
	}
	return a
}

func decodeTimerNode(t *flatbuffers.Table) TimerNodeRecord {
	tn := TimerNodeRecord{ID: recUint64(t, fID0), Name: recString(t, fS0)}
	n := recChildCount(t, fKids)
	if n > 0 {
		tn.In = decodeProperty(recChild(t, fKids, 0))
	}
	if n > 1 {
		tn.Out = decodeProperty(recChild(t, fKids, 1))
	}
	return tn
}

func decodeLink(t *flatbuffers.Table) LinkRecord {
	return LinkRecord{
		SourceNodeID: recUint64(t, fID0), TargetNodeID: recUint64(t, fID1),
		SourcePath: recString(t, fS0), TargetPath: recString(t, fS1),
	}
}

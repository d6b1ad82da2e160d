package sceneflow

import (
	"os"
	"strconv"
	"strings"

	"github.com/lumenforge/sceneflow/scriptrt"
	"github.com/lumenforge/sceneflow/serialize"
)

// Version is the {major, minor, patch, stringTag, fileFormatVersion}
// stamp a saved document carries for both the tool and the host scene
// (spec §6).
type Version struct {
	Major             int32
	Minor             int32
	Patch             int32
	StringTag         string
	FileFormatVersion int32
}

// CurrentToolVersion is stamped into every document this build saves.
var CurrentToolVersion = Version{Major: 1, Minor: 0, Patch: 0, StringTag: "sceneflow", FileFormatVersion: serialize.CurrentFileFormatVersion}

func toSerializeVersion(v Version) serialize.Version {
	return serialize.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, StringTag: v.StringTag, FileFormatVersion: v.FileFormatVersion}
}

func fromSerializeVersion(v serialize.Version) Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch, StringTag: v.StringTag, FileFormatVersion: v.FileFormatVersion}
}

// --- value <-> record -------------------------------------------------

func valueToRecord(t Type, v any) serialize.ValueRecord {
	r := serialize.ValueRecord{Type: serialize.PropertyType(t)}
	switch t {
	case TypeBool:
		r.Bool, _ = v.(bool)
	case TypeInt32:
		r.Int32, _ = v.(int32)
	case TypeInt64:
		r.Int64, _ = v.(int64)
	case TypeFloat:
		r.Float, _ = v.(float64)
	case TypeString:
		r.String, _ = v.(string)
	case TypeVec2f:
		if vec, ok := v.(Vec2f); ok {
			r.Vec4f[0], r.Vec4f[1] = vec[0], vec[1]
		}
	case TypeVec3f:
		if vec, ok := v.(Vec3f); ok {
			r.Vec4f[0], r.Vec4f[1], r.Vec4f[2] = vec[0], vec[1], vec[2]
		}
	case TypeVec4f:
		if vec, ok := v.(Vec4f); ok {
			r.Vec4f = vec
		}
	case TypeVec2i:
		if vec, ok := v.(Vec2i); ok {
			r.Vec4i[0], r.Vec4i[1] = vec[0], vec[1]
		}
	case TypeVec3i:
		if vec, ok := v.(Vec3i); ok {
			r.Vec4i[0], r.Vec4i[1], r.Vec4i[2] = vec[0], vec[1], vec[2]
		}
	case TypeVec4i:
		if vec, ok := v.(Vec4i); ok {
			r.Vec4i = vec
		}
	}
	return r
}

func valueFromRecord(t Type, r serialize.ValueRecord) any {
	switch t {
	case TypeBool:
		return r.Bool
	case TypeInt32:
		return r.Int32
	case TypeInt64:
		return r.Int64
	case TypeFloat:
		return r.Float
	case TypeString:
		return r.String
	case TypeVec2f:
		return Vec2f{r.Vec4f[0], r.Vec4f[1]}
	case TypeVec3f:
		return Vec3f{r.Vec4f[0], r.Vec4f[1], r.Vec4f[2]}
	case TypeVec4f:
		return Vec4f(r.Vec4f)
	case TypeVec2i:
		return Vec2i{r.Vec4i[0], r.Vec4i[1]}
	case TypeVec3i:
		return Vec3i{r.Vec4i[0], r.Vec4i[1], r.Vec4i[2]}
	case TypeVec4i:
		return Vec4i(r.Vec4i)
	default:
		return nil
	}
}

// --- property <-> record ----------------------------------------------

func propertyToRecord(p *Property) serialize.PropertyRecord {
	r := serialize.PropertyRecord{
		Name:      p.name,
		Type:      serialize.PropertyType(p.typ),
		Semantics: serialize.PropertySemantics(p.semantics),
	}
	if p.typ.IsContainer() {
		r.Children = make([]serialize.PropertyRecord, len(p.children))
		for i, c := range p.children {
			r.Children[i] = propertyToRecord(c)
		}
	} else {
		r.Value = valueToRecord(p.typ, p.value)
	}
	return r
}

// recordToProperty rebuilds a property subtree under owner node n, with
// parent set on every child (handles themselves are assigned later, in
// bulk, by Engine.registerNode).
func recordToProperty(n *Node, parent *Property, r serialize.PropertyRecord) *Property {
	p := &Property{node: n, parent: parent, name: r.Name, typ: Type(r.Type), semantics: Semantics(r.Semantics)}
	if p.typ.IsContainer() {
		p.children = make([]*Property, len(r.Children))
		for i, c := range r.Children {
			p.children[i] = recordToProperty(n, p, c)
		}
	} else {
		p.value = valueFromRecord(p.typ, r.Value)
	}
	return p
}

// --- node <-> record, per kind -----------------------------------------

func scriptNodeToRecord(n *Node) serialize.LuaScriptRecord {
	impl := n.impl.(*scriptNodeImpl)
	refs := make([]serialize.ModuleRefRecord, 0, len(impl.moduleRefs))
	for alias, id := range impl.moduleRefs {
		refs = append(refs, serialize.ModuleRefRecord{Alias: alias, ModuleID: id})
	}
	mods := make([]string, len(impl.standardModules))
	for i, m := range impl.standardModules {
		mods[i] = string(m)
	}
	return serialize.LuaScriptRecord{
		ID: n.ID(), Name: n.name, Source: impl.source,
		StandardModules: mods, ModuleRefs: refs,
		In: propertyToRecord(n.in), Out: propertyToRecord(n.out),
	}
}

func nodeBindingToRecord(n *Node) serialize.NodeBindingRecord {
	impl := n.impl.(*nodeBindingImpl)
	return serialize.NodeBindingRecord{
		ID: n.ID(), Name: n.name, HostName: impl.hostName, HostID: impl.hostID,
		RotationType: int32(impl.rotationType), In: propertyToRecord(n.in),
	}
}

func appearanceBindingToRecord(n *Node) serialize.AppearanceBindingRecord {
	impl := n.impl.(*appearanceBindingImpl)
	return serialize.AppearanceBindingRecord{
		ID: n.ID(), Name: n.name, HostName: impl.hostName, HostID: impl.hostID, In: propertyToRecord(n.in),
	}
}

func cameraBindingToRecord(n *Node) serialize.CameraBindingRecord {
	impl := n.impl.(*cameraBindingImpl)
	return serialize.CameraBindingRecord{
		ID: n.ID(), Name: n.name, HostName: impl.hostName, HostID: impl.hostID,
		Projection: int32(impl.projection), In: propertyToRecord(n.in),
	}
}

func dataArrayToRecord(d *DataArray) serialize.DataArrayRecord {
	values := make([]serialize.ValueRecord, len(d.values))
	for i, v := range d.values {
		values[i] = valueToRecord(d.elem, v)
	}
	return serialize.DataArrayRecord{ID: d.ID(), Name: d.name, Element: serialize.PropertyType(d.elem), Values: values}
}

func animationNodeToRecord(n *Node) serialize.AnimationNodeRecord {
	impl := n.impl.(*animationNodeImpl)
	channels := make([]serialize.AnimationChannelRecord, len(impl.channels))
	for i, ch := range impl.channels {
		cr := serialize.AnimationChannelRecord{
			Name: ch.Name, Interpolation: int32(ch.Interpolation),
			TimestampsID: ch.Timestamps.ID(), KeyframesID: ch.Keyframes.ID(),
		}
		if ch.TangentsIn != nil {
			cr.TangentsInID = ch.TangentsIn.ID()
		}
		if ch.TangentsOut != nil {
			cr.TangentsOutID = ch.TangentsOut.ID()
		}
		channels[i] = cr
	}
	return serialize.AnimationNodeRecord{
		ID: n.ID(), Name: n.name, Channels: channels,
		In: propertyToRecord(n.in), Out: propertyToRecord(n.out),
	}
}

func timerNodeToRecord(n *Node) serialize.TimerNodeRecord {
	return serialize.TimerNodeRecord{ID: n.ID(), Name: n.name, In: propertyToRecord(n.in), Out: propertyToRecord(n.out)}
}

// --- Engine -> Document --------------------------------------------------

// toDocument snapshots the engine into a Document, refusing if the graph
// currently contains a cycle (spec §7/§8: "attempting to save an engine
// whose graph contains a cycle fails the same way Update does, without
// writing anything").
func (e *Engine) toDocument() (*serialize.Document, error) {
	live := e.Nodes()
	if err := e.sched.recompute(live, e.links); err != nil {
		return nil, err.(*EngineError)
	}

	doc := &serialize.Document{ToolVersion: toSerializeVersion(CurrentToolVersion), HostVersion: toSerializeVersion(e.hostVersion)}

	for _, m := range e.modules {
		doc.Objects.LuaModules = append(doc.Objects.LuaModules, serialize.LuaModuleRecord{ID: m.id, Name: m.name, Source: m.source})
	}
	for _, n := range live {
		switch n.kind {
		case KindScriptNode:
			doc.Objects.LuaScripts = append(doc.Objects.LuaScripts, scriptNodeToRecord(n))
		case KindNodeBinding:
			doc.Objects.NodeBindings = append(doc.Objects.NodeBindings, nodeBindingToRecord(n))
		case KindAppearanceBinding:
			doc.Objects.AppearanceBindings = append(doc.Objects.AppearanceBindings, appearanceBindingToRecord(n))
		case KindCameraBinding:
			doc.Objects.CameraBindings = append(doc.Objects.CameraBindings, cameraBindingToRecord(n))
		case KindAnimationNode:
			doc.Objects.AnimationNodes = append(doc.Objects.AnimationNodes, animationNodeToRecord(n))
		case KindTimerNode:
			doc.Objects.TimerNodes = append(doc.Objects.TimerNodes, timerNodeToRecord(n))
		}
	}
	for _, d := range e.dataArrays {
		doc.Objects.DataArrays = append(doc.Objects.DataArrays, dataArrayToRecord(d))
	}
	for _, l := range e.links.all() {
		doc.Links = append(doc.Links, serialize.LinkRecord{
			SourceNodeID: l.src.nodeID(), SourcePath: l.src.path(),
			TargetNodeID: l.dst.nodeID(), TargetPath: l.dst.path(),
		})
	}
	return doc, nil
}

// SaveToBuffer serializes the engine's current state to the binary
// format (spec §4.7/§6). Fails without writing anything if the graph
// contains a cycle.
func (e *Engine) SaveToBuffer() ([]byte, error) {
	e.clearErrors()
	doc, err := e.toDocument()
	if err != nil {
		return nil, e.record(err.(*EngineError))
	}
	buf, encErr := serialize.Encode(doc)
	if encErr != nil {
		return nil, e.record(newErr(KindSerialization, 0, "%v", encErr))
	}
	return buf, nil
}

// SaveToFile serializes the engine and writes it to path.
func (e *Engine) SaveToFile(path string) error {
	buf, err := e.SaveToBuffer()
	if err != nil {
		return err
	}
	if werr := os.WriteFile(path, buf, 0o644); werr != nil {
		return e.record(newErr(KindSerialization, 0, "write %q: %v", path, werr))
	}
	return nil
}

// --- Document -> Engine --------------------------------------------------

func deserErr(reason serialize.LoadErrorReason, format string, args ...any) *EngineError {
	err := newErr(KindDeserialization, 0, format, args...)
	err.Sub = reason.String()
	return err
}

func loadDataArray(e *Engine, r serialize.DataArrayRecord) *DataArray {
	values := make([]any, len(r.Values))
	for i, v := range r.Values {
		values[i] = valueFromRecord(Type(r.Element), v)
	}
	d := &DataArray{handle: e.adoptNodeHandle(r.ID), name: r.Name, elem: Type(r.Element), values: values, eng: e}
	e.dataArrays = append(e.dataArrays, d)
	if d.name != "" {
		e.dataArraysByName[d.name] = d
	}
	return d
}

func loadLuaScript(e *Engine, r serialize.LuaScriptRecord, moduleByID map[uint64]*ModuleObject) (*Node, error) {
	var provided []scriptrt.ModuleRef
	refs := make(map[string]uint64, len(r.ModuleRefs))
	for _, mr := range r.ModuleRefs {
		mod, ok := moduleByID[mr.ModuleID]
		if !ok {
			return nil, deserErr(serialize.ReasonMissingField, "script %q: references unknown module id %d", r.Name, mr.ModuleID)
		}
		provided = append(provided, scriptrt.ModuleRef{Alias: mr.Alias, Chunk: mod.chunk})
		refs[mr.Alias] = mr.ModuleID
	}
	stdMods := make([]scriptrt.StandardModule, len(r.StandardModules))
	for i, m := range r.StandardModules {
		stdMods[i] = scriptrt.StandardModule(m)
	}

	chunk, err := e.script.Compile(r.Source, scriptrt.CompileOptions{StandardModules: stdMods, Dependencies: provided, Name: r.Name})
	if err != nil {
		return nil, newErr(KindDeserialization, r.ID, "script %q: recompile failed: %v", r.Name, err)
	}

	impl := &scriptNodeImpl{chunk: chunk, source: r.Source, standardModules: stdMods, moduleRefs: refs}
	n := &Node{handle: e.adoptNodeHandle(r.ID), name: r.Name, kind: KindScriptNode, dirty: true, impl: impl}
	n.in = recordToProperty(n, nil, r.In)
	n.out = recordToProperty(n, nil, r.Out)
	e.registerNode(n)
	return n, nil
}

// resolveHostHandle looks hostName/hostID up through resolver for the
// given kind, or returns the two host-object load failures (spec §6
// failures (c)/(d)).
func resolveHostHandle(resolver HostResolver, kind HostObjectKind, name string, id uint64) (HostObjectHandle, *EngineError) {
	if resolver == nil {
		return nil, deserErr(serialize.ReasonHostObjectUnresolvable, "%s %q/%d: no host resolver supplied", kind, name, id)
	}
	handle, ok := resolver.FindHostObject(kind, name, id)
	if !ok {
		return nil, deserErr(serialize.ReasonHostObjectUnresolvable, "%s %q/%d: not found", kind, name, id)
	}
	if handle.Kind() != kind {
		return nil, deserErr(serialize.ReasonHostObjectKindMismatch, "%s %q/%d: host object is actually a %s", kind, name, id, handle.Kind())
	}
	return handle, nil
}

func loadNodeBinding(e *Engine, r serialize.NodeBindingRecord, resolver HostResolver) (*Node, error) {
	handle, lerr := resolveHostHandle(resolver, HostObjectNode, r.HostName, r.HostID)
	if lerr != nil {
		return nil, lerr
	}
	impl := &nodeBindingImpl{hostName: r.HostName, hostID: r.HostID, rotationType: RotationType(r.RotationType), handle: handle}
	n := &Node{handle: e.adoptNodeHandle(r.ID), name: r.Name, kind: KindNodeBinding, dirty: true, impl: impl}
	n.in = recordToProperty(n, nil, r.In)
	e.registerNode(n)
	return n, nil
}

func loadAppearanceBinding(e *Engine, r serialize.AppearanceBindingRecord, resolver HostResolver) (*Node, error) {
	handle, lerr := resolveHostHandle(resolver, HostObjectAppearance, r.HostName, r.HostID)
	if lerr != nil {
		return nil, lerr
	}
	impl := &appearanceBindingImpl{hostName: r.HostName, hostID: r.HostID, handle: handle}
	n := &Node{handle: e.adoptNodeHandle(r.ID), name: r.Name, kind: KindAppearanceBinding, dirty: true, impl: impl}
	n.in = recordToProperty(n, nil, r.In)
	e.registerNode(n)
	return n, nil
}

func loadCameraBinding(e *Engine, r serialize.CameraBindingRecord, resolver HostResolver) (*Node, error) {
	handle, lerr := resolveHostHandle(resolver, HostObjectCamera, r.HostName, r.HostID)
	if lerr != nil {
		return nil, lerr
	}
	impl := &cameraBindingImpl{hostName: r.HostName, hostID: r.HostID, projection: ProjectionKind(r.Projection), handle: handle}
	n := &Node{handle: e.adoptNodeHandle(r.ID), name: r.Name, kind: KindCameraBinding, dirty: true, impl: impl}
	n.in = recordToProperty(n, nil, r.In)
	e.registerNode(n)
	return n, nil
}

func loadAnimationNode(e *Engine, r serialize.AnimationNodeRecord, dataArrayByID map[uint64]*DataArray) (*Node, error) {
	channels := make([]AnimationChannel, len(r.Channels))
	for i, cr := range r.Channels {
		ts, ok := dataArrayByID[cr.TimestampsID]
		if !ok {
			return nil, deserErr(serialize.ReasonMissingField, "animation %q: channel %q: missing timestamps array %d", r.Name, cr.Name, cr.TimestampsID)
		}
		kf, ok := dataArrayByID[cr.KeyframesID]
		if !ok {
			return nil, deserErr(serialize.ReasonMissingField, "animation %q: channel %q: missing keyframes array %d", r.Name, cr.Name, cr.KeyframesID)
		}
		ch := AnimationChannel{Name: cr.Name, Timestamps: ts, Keyframes: kf, Interpolation: Interpolation(cr.Interpolation)}
		if cr.TangentsInID != 0 {
			ch.TangentsIn = dataArrayByID[cr.TangentsInID]
		}
		if cr.TangentsOutID != 0 {
			ch.TangentsOut = dataArrayByID[cr.TangentsOutID]
		}
		channels[i] = ch
	}
	impl := &animationNodeImpl{channels: channels}
	n := &Node{handle: e.adoptNodeHandle(r.ID), name: r.Name, kind: KindAnimationNode, dirty: true, impl: impl}
	n.in = recordToProperty(n, nil, r.In)
	n.out = recordToProperty(n, nil, r.Out)
	e.registerNode(n)
	return n, nil
}

// findPropertyRecordChild looks up a named child of a struct
// PropertyRecord, without needing to rebuild the tree first.
func findPropertyRecordChild(r serialize.PropertyRecord, name string) *serialize.PropertyRecord {
	for i := range r.Children {
		if r.Children[i].Name == name {
			return &r.Children[i]
		}
	}
	return nil
}

func loadTimerNode(e *Engine, r serialize.TimerNodeRecord) (*Node, error) {
	if out := findPropertyRecordChild(r.Out, "ticker_us"); out != nil && out.Value.Int64 < 0 {
		return nil, deserErr(serialize.ReasonInvariantViolated, "timer %q: saved ticker_us is negative", r.Name)
	}
	impl := &timerNodeImpl{now: defaultMonotonicMicros}
	n := &Node{handle: e.adoptNodeHandle(r.ID), name: r.Name, kind: KindTimerNode, dirty: true, impl: impl}
	n.in = recordToProperty(n, nil, r.In)
	n.out = recordToProperty(n, nil, r.Out)
	e.registerNode(n)
	return n, nil
}

// findPropertyByPath walks a dotted/bracketed path of the shape
// Property.path produces (e.g. "IN.transform.translation",
// "OUT.channel[2]") starting from n.
func findPropertyByPath(n *Node, path string) *Property {
	var cur *Property
	var rest string
	switch {
	case strings.HasPrefix(path, "IN."):
		cur, rest = n.in, path[3:]
	case path == "IN":
		return n.in
	case strings.HasPrefix(path, "OUT."):
		cur, rest = n.out, path[4:]
	case path == "OUT":
		return n.out
	default:
		return nil
	}
	for len(rest) > 0 && cur != nil {
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil {
				return nil
			}
			cur = cur.ChildAt(idx - 1)
			rest = rest[end+1:]
		} else {
			end := len(rest)
			for i := 0; i < len(rest); i++ {
				if rest[i] == '.' || rest[i] == '[' {
					end = i
					break
				}
			}
			cur = cur.ChildByName(rest[:end])
			rest = rest[end:]
		}
		if len(rest) > 0 && rest[0] == '.' {
			rest = rest[1:]
		}
	}
	return cur
}

// LoadFromBuffer reconstructs an Engine from a previously saved buffer
// (spec §4.7/§6). cfg.Resolver is consulted to re-resolve every binding's
// host object; a document with no bindings never needs one. Returns the
// first documented load failure it encounters: unsupported file format
// version, a required field absent, an unresolvable host object, a host
// object kind mismatch, a dangling link reference, or a violated ticker
// invariant.
func LoadFromBuffer(buf []byte, cfg Config) (*Engine, error) {
	doc, err := serialize.Decode(buf)
	if err != nil {
		if le, ok := err.(*serialize.LoadError); ok {
			ee := newErr(KindDeserialization, 0, "%v", le)
			ee.Sub = le.Reason.String()
			return nil, ee
		}
		return nil, newErr(KindDeserialization, 0, "%v", err)
	}

	e := NewEngine(cfg)
	e.hostVersion = fromSerializeVersion(doc.HostVersion)

	moduleByID := map[uint64]*ModuleObject{}
	for _, mr := range doc.Objects.LuaModules {
		chunk, cerr := e.script.Compile(mr.Source, scriptrt.CompileOptions{Name: mr.Name})
		if cerr != nil {
			return nil, e.record(newErr(KindDeserialization, 0, "module %q: %v", mr.Name, cerr))
		}
		obj := &ModuleObject{id: mr.ID, name: mr.Name, source: mr.Source, chunk: chunk}
		e.modules = append(e.modules, obj)
		if mr.ID >= e.nextModuleID {
			e.nextModuleID = mr.ID + 1
		}
		moduleByID[mr.ID] = obj
	}

	dataArrayByID := map[uint64]*DataArray{}
	for _, dr := range doc.Objects.DataArrays {
		d := loadDataArray(e, dr)
		dataArrayByID[dr.ID] = d
	}

	nodeByID := map[uint64]*Node{}
	for _, sr := range doc.Objects.LuaScripts {
		n, lerr := loadLuaScript(e, sr, moduleByID)
		if lerr != nil {
			return nil, e.record(lerr.(*EngineError))
		}
		nodeByID[sr.ID] = n
	}
	for _, br := range doc.Objects.NodeBindings {
		n, lerr := loadNodeBinding(e, br, cfg.Resolver)
		if lerr != nil {
			return nil, e.record(lerr.(*EngineError))
		}
		nodeByID[br.ID] = n
	}
	for _, br := range doc.Objects.AppearanceBindings {
		n, lerr := loadAppearanceBinding(e, br, cfg.Resolver)
		if lerr != nil {
			return nil, e.record(lerr.(*EngineError))
		}
		nodeByID[br.ID] = n
	}
	for _, br := range doc.Objects.CameraBindings {
		n, lerr := loadCameraBinding(e, br, cfg.Resolver)
		if lerr != nil {
			return nil, e.record(lerr.(*EngineError))
		}
		nodeByID[br.ID] = n
	}
	for _, ar := range doc.Objects.AnimationNodes {
		n, lerr := loadAnimationNode(e, ar, dataArrayByID)
		if lerr != nil {
			return nil, e.record(lerr.(*EngineError))
		}
		nodeByID[ar.ID] = n
	}
	for _, tr := range doc.Objects.TimerNodes {
		n, lerr := loadTimerNode(e, tr)
		if lerr != nil {
			return nil, e.record(lerr.(*EngineError))
		}
		nodeByID[tr.ID] = n
	}

	for _, lr := range doc.Links {
		srcNode, ok := nodeByID[lr.SourceNodeID]
		if !ok {
			return nil, e.record(deserErr(serialize.ReasonDanglingLink, "link: source node %d not found", lr.SourceNodeID))
		}
		dstNode, ok := nodeByID[lr.TargetNodeID]
		if !ok {
			return nil, e.record(deserErr(serialize.ReasonDanglingLink, "link: target node %d not found", lr.TargetNodeID))
		}
		srcProp := findPropertyByPath(srcNode, lr.SourcePath)
		dstProp := findPropertyByPath(dstNode, lr.TargetPath)
		if srcProp == nil || dstProp == nil {
			return nil, e.record(deserErr(serialize.ReasonDanglingLink, "link: property path not found (%q -> %q)", lr.SourcePath, lr.TargetPath))
		}
		if ok, lerr := e.Link(srcProp, dstProp); !ok {
			return nil, lerr
		}
	}

	return e, nil
}

// LoadFromFile reads path and reconstructs an Engine from it.
func LoadFromFile(path string, cfg Config) (*Engine, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, newErr(KindDeserialization, 0, "read %q: %v", path, err)
	}
	return LoadFromBuffer(buf, cfg)
}

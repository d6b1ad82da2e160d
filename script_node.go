package sceneflow

import (
	"github.com/lumenforge/sceneflow/scriptrt"
	"github.com/lumenforge/sceneflow/scriptrt/luabackend"
)

// scriptRuntime is the subset of scriptrt.Runtime the engine depends on,
// named locally so the rest of this package never spells out the
// scriptrt import at every call site.
type scriptRuntime = scriptrt.Runtime

// newScriptRuntime returns the engine's scripting backend. Every Engine
// uses this gopher-lua backend; Config has no option to substitute a
// different scriptrt.Runtime implementation.
func newScriptRuntime() scriptRuntime {
	return luabackend.New()
}

// ModuleObject is a compiled, reusable unit a [ScriptConfig] can list as
// a named dependency (spec §4.4: "a module is itself a compiled chunk
// whose return value is made available under its alias").
type ModuleObject struct {
	id     uint64
	name   string
	source string
	chunk  scriptrt.Chunk
}

// ID returns the module's engine-scoped identity, used to reference it
// from a saved script's module dependency list.
func (m *ModuleObject) ID() uint64 { return m.id }

// Name returns the module's name.
func (m *ModuleObject) Name() string { return m.name }

// CompileModule compiles source as a reusable module, to be referenced
// by name from a script's ScriptConfig.Dependencies.
func (e *Engine) CompileModule(name, source string) (*ModuleObject, error) {
	e.clearErrors()
	chunk, err := e.script.Compile(source, scriptrt.CompileOptions{Name: name})
	if err != nil {
		return nil, e.record(newErr(KindCompilation, 0, "compile module %q: %v", name, err))
	}
	obj := &ModuleObject{id: e.allocModuleID(), name: name, source: source, chunk: chunk}
	e.modules = append(e.modules, obj)
	return obj, nil
}

// FindModuleByID returns the module with the given id, or nil.
func (e *Engine) FindModuleByID(id uint64) *ModuleObject {
	for _, m := range e.modules {
		if m.id == id {
			return m
		}
	}
	return nil
}

// ScriptConfig is a script node's creation-time configuration (spec
// §4.4).
type ScriptConfig struct {
	Source          string
	StandardModules []scriptrt.StandardModule
	Dependencies    map[string]*ModuleObject
	Name            string
}

type scriptNodeImpl struct {
	chunk  scriptrt.Chunk
	schema struct{ in, out scriptrt.Schema }

	// source/standardModules/moduleRefs retain enough of the node's
	// creation-time configuration to recompile it on load, since a saved
	// document stores source text rather than a re-loadable Chunk (spec
	// §6: saved script nodes carry their source and module references).
	source          string
	standardModules []scriptrt.StandardModule
	moduleRefs      map[string]uint64 // alias -> ModuleObject id
}

func (s *scriptNodeImpl) update(eng *Engine, n *Node) error {
	inTree := propertyTreeToScriptTree(n.in)
	outTree := propertyTreeToScriptTree(n.out)
	if err := eng.script.RunEntry(s.chunk, inTree, outTree); err != nil {
		return newErr(KindRuntime, n.ID(), "run: %v", err)
	}
	writeScriptTreeToProperties(outTree, n.out)
	return nil
}

// CreateScriptNode compiles cfg.Source, validates its declared module
// dependencies against cfg.Dependencies, and runs its interface()
// declaration once to build the node's IN/OUT property trees (spec
// §4.4).
func (e *Engine) CreateScriptNode(cfg ScriptConfig) (*Node, error) {
	e.clearErrors()

	declared, err := e.script.ExtractDependencies(cfg.Source)
	if err != nil {
		return nil, e.record(newErr(KindCompilation, 0, "extract dependencies: %v", err))
	}
	var provided []scriptrt.ModuleRef
	moduleRefs := make(map[string]uint64, len(cfg.Dependencies))
	for alias, mod := range cfg.Dependencies {
		provided = append(provided, scriptrt.ModuleRef{Alias: alias, Chunk: mod.chunk})
		moduleRefs[alias] = mod.id
	}
	if err := scriptrt.ValidateDependencies(declared, provided); err != nil {
		return nil, e.record(newErr(KindValidation, 0, "script %q: %v", cfg.Name, err))
	}

	chunk, err := e.script.Compile(cfg.Source, scriptrt.CompileOptions{
		StandardModules: cfg.StandardModules,
		Dependencies:    provided,
		Name:            cfg.Name,
	})
	if err != nil {
		return nil, e.record(newErr(KindCompilation, 0, "compile: %v", err))
	}

	inSchema, outSchema, err := e.script.RunInterface(chunk)
	if err != nil {
		return nil, e.record(newErr(KindCompilation, 0, "interface: %v", err))
	}

	impl := &scriptNodeImpl{chunk: chunk, source: cfg.Source, standardModules: cfg.StandardModules, moduleRefs: moduleRefs}
	impl.schema.in, impl.schema.out = inSchema, outSchema

	n := &Node{
		handle: e.allocID(),
		name:   cfg.Name,
		kind:   KindScriptNode,
		dirty:  true,
		impl:   impl,
	}
	n.in = propertyTreeFromSchema(n, inSchema, SemanticsScriptInput)
	n.out = propertyTreeFromSchema(n, outSchema, SemanticsScriptOutput)
	e.registerNode(n)
	return n, nil
}

func propertyTreeFromSchema(n *Node, schema scriptrt.Schema, sem Semantics) *Property {
	root := &Property{node: n, typ: TypeStruct, semantics: sem}
	for _, f := range schema.Fields {
		root.children = append(root.children, propertyFromField(n, root, f, sem))
	}
	return root
}

func propertyFromField(n *Node, parent *Property, f scriptrt.Field, sem Semantics) *Property {
	p := &Property{node: n, parent: parent, name: f.Name, typ: scriptKindToType(f.Kind), semantics: sem}
	switch f.Kind {
	case scriptrt.KindStruct, scriptrt.KindArray:
		for _, c := range f.Children {
			child := propertyFromField(n, p, c, sem)
			if f.Kind == scriptrt.KindArray {
				child.name = ""
			}
			p.children = append(p.children, child)
		}
	}
	return p
}

func scriptKindToType(k scriptrt.Kind) Type {
	switch k {
	case scriptrt.KindBool:
		return TypeBool
	case scriptrt.KindInt32:
		return TypeInt32
	case scriptrt.KindInt64:
		return TypeInt64
	case scriptrt.KindFloat:
		return TypeFloat
	case scriptrt.KindString:
		return TypeString
	case scriptrt.KindVec2f:
		return TypeVec2f
	case scriptrt.KindVec3f:
		return TypeVec3f
	case scriptrt.KindVec4f:
		return TypeVec4f
	case scriptrt.KindVec2i:
		return TypeVec2i
	case scriptrt.KindVec3i:
		return TypeVec3i
	case scriptrt.KindVec4i:
		return TypeVec4i
	case scriptrt.KindArray:
		return TypeArray
	default:
		return TypeStruct
	}
}

func typeToScriptKind(t Type) scriptrt.Kind {
	switch t {
	case TypeBool:
		return scriptrt.KindBool
	case TypeInt32:
		return scriptrt.KindInt32
	case TypeInt64:
		return scriptrt.KindInt64
	case TypeFloat:
		return scriptrt.KindFloat
	case TypeString:
		return scriptrt.KindString
	case TypeVec2f:
		return scriptrt.KindVec2f
	case TypeVec3f:
		return scriptrt.KindVec3f
	case TypeVec4f:
		return scriptrt.KindVec4f
	case TypeVec2i:
		return scriptrt.KindVec2i
	case TypeVec3i:
		return scriptrt.KindVec3i
	case TypeVec4i:
		return scriptrt.KindVec4i
	case TypeArray:
		return scriptrt.KindArray
	default:
		return scriptrt.KindStruct
	}
}

// propertyTreeToScriptTree builds a scriptrt.Tree mirroring p's current
// values, to be handed to the scripting runtime as IN (read-only from
// the script's perspective) or as the starting shape of OUT.
func propertyTreeToScriptTree(p *Property) *scriptrt.Tree {
	if p == nil {
		return nil
	}
	t := &scriptrt.Tree{Name: p.name, Kind: typeToScriptKind(p.typ)}
	if p.typ.IsContainer() {
		for _, c := range p.children {
			t.Children = append(t.Children, propertyTreeToScriptTree(c))
		}
		return t
	}
	t.Value = valueToScriptValue(p.typ, p.value)
	return t
}

func valueToScriptValue(t Type, v any) scriptrt.Value {
	sv := scriptrt.Value{Kind: typeToScriptKind(t)}
	switch t {
	case TypeBool:
		sv.Bool, _ = v.(bool)
	case TypeInt32:
		sv.Int32, _ = v.(int32)
	case TypeInt64:
		sv.Int64, _ = v.(int64)
	case TypeFloat:
		sv.Float, _ = v.(float64)
	case TypeString:
		sv.String, _ = v.(string)
	case TypeVec2f:
		if vec, ok := v.(Vec2f); ok {
			sv.Vec4[0], sv.Vec4[1] = vec[0], vec[1]
		}
	case TypeVec3f:
		if vec, ok := v.(Vec3f); ok {
			sv.Vec4[0], sv.Vec4[1], sv.Vec4[2] = vec[0], vec[1], vec[2]
		}
	case TypeVec4f:
		if vec, ok := v.(Vec4f); ok {
			sv.Vec4 = vec
		}
	case TypeVec2i:
		if vec, ok := v.(Vec2i); ok {
			sv.Vec4i[0], sv.Vec4i[1] = vec[0], vec[1]
		}
	case TypeVec3i:
		if vec, ok := v.(Vec3i); ok {
			sv.Vec4i[0], sv.Vec4i[1], sv.Vec4i[2] = vec[0], vec[1], vec[2]
		}
	case TypeVec4i:
		if vec, ok := v.(Vec4i); ok {
			sv.Vec4i = vec
		}
	}
	return sv
}

func scriptValueToAny(t Type, sv scriptrt.Value) any {
	switch t {
	case TypeBool:
		return sv.Bool
	case TypeInt32:
		return sv.Int32
	case TypeInt64:
		return sv.Int64
	case TypeFloat:
		return sv.Float
	case TypeString:
		return sv.String
	case TypeVec2f:
		return Vec2f{sv.Vec4[0], sv.Vec4[1]}
	case TypeVec3f:
		return Vec3f{sv.Vec4[0], sv.Vec4[1], sv.Vec4[2]}
	case TypeVec4f:
		return sv.Vec4
	case TypeVec2i:
		return Vec2i{sv.Vec4i[0], sv.Vec4i[1]}
	case TypeVec3i:
		return Vec3i{sv.Vec4i[0], sv.Vec4i[1], sv.Vec4i[2]}
	case TypeVec4i:
		return sv.Vec4i
	default:
		return nil
	}
}

// writeScriptTreeToProperties copies a scriptrt.Tree's leaf values (as
// written by a script's run()) back into the matching OUT property tree.
func writeScriptTreeToProperties(t *scriptrt.Tree, p *Property) {
	if t == nil || p == nil {
		return
	}
	if p.typ.IsContainer() {
		for i, c := range p.children {
			if i < len(t.Children) {
				writeScriptTreeToProperties(t.Children[i], c)
			}
		}
		return
	}
	setInternal(p, scriptValueToAny(p.typ, t.Value))
}

// ExtractModuleDependencies reports the module aliases a script source
// declares, without compiling or running it (spec §4.7: "a standalone
// dependency-extraction helper for script sources").
func (e *Engine) ExtractModuleDependencies(source string) ([]string, error) {
	e.clearErrors()
	deps, err := e.script.ExtractDependencies(source)
	if err != nil {
		return nil, e.record(newErr(KindCompilation, 0, "extract dependencies: %v", err))
	}
	return deps, nil
}

// Package luabackend implements scriptrt.Runtime on top of
// github.com/yuin/gopher-lua. It is the engine's scripting backend: the
// core dataflow package constructs it once per Engine and otherwise
// drives it only through the scriptrt.Runtime interface.
//
// Script source is expected to define two globals, `interface` and
// `run`, each taking the reserved `IN`/`OUT` tables as arguments. A
// script declares the IN/OUT schema by assigning type-vocabulary markers
// (INT, FLOAT, STRUCT, ARRAY, ...) to IN/OUT fields inside `interface`;
// assignment order to a struct table is recorded and frozen, since Lua
// itself has no ordered-table primitive (spec §9 open question (c)).
package luabackend

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/lumenforge/sceneflow/scriptrt"
)

// Backend is a gopher-lua-backed scriptrt.Runtime. One Backend holds one
// *lua.LState for its owning engine's lifetime (spec §5: "the scripting
// runtime state is process-wide-per-engine").
type Backend struct {
	L          *lua.LState
	vocabReady bool
	opened     map[scriptrt.StandardModule]bool
}

// New creates a Backend with a fresh Lua state. No standard library is
// opened yet; Compile opens only the subset named in CompileOptions.
func New() *Backend {
	return &Backend{L: lua.NewState(lua.Options{SkipOpenLibs: true}), opened: map[scriptrt.StandardModule]bool{}}
}

type chunk struct {
	proto       *lua.FunctionProto
	opts        scriptrt.CompileOptions
	loaded      bool
	interfaceFn *lua.LFunction
	runFn       *lua.LFunction
}

var stdlibOpeners = map[scriptrt.StandardModule]func(*lua.LState){
	scriptrt.StdBase:  func(l *lua.LState) { lua.OpenBase(l) },
	scriptrt.StdStr:   func(l *lua.LState) { lua.OpenString(l) },
	scriptrt.StdMath:  func(l *lua.LState) { lua.OpenMath(l) },
	scriptrt.StdTable: func(l *lua.LState) { lua.OpenTable(l) },
	scriptrt.StdDebug: func(l *lua.LState) { lua.OpenDebug(l) },
}

// Compile parses source and, the first time any of its requested
// standard modules is seen, opens that module in the shared LState.
func (b *Backend) Compile(source string, opts scriptrt.CompileOptions) (scriptrt.Chunk, error) {
	for _, m := range opts.StandardModules {
		if b.opened[m] {
			continue
		}
		opener, ok := stdlibOpeners[m]
		if !ok {
			return nil, &scriptrt.CompileError{Diagnostic: fmt.Sprintf("unknown standard module %q", m)}
		}
		opener(b.L)
		b.opened[m] = true
	}
	if !b.vocabReady {
		b.installVocabulary()
		b.vocabReady = true
	}

	fn, err := b.L.LoadString(source)
	if err != nil {
		return nil, &scriptrt.CompileError{Diagnostic: err.Error()}
	}
	return &chunk{proto: fn.Proto, opts: opts}, nil
}

// ExtractDependencies scans source for a top-of-file `modules("a","b")`
// call (spec §4.4) without compiling or executing the rest of the
// source.
func (b *Backend) ExtractDependencies(source string) ([]string, error) {
	idx := strings.Index(source, "modules(")
	if idx < 0 {
		return nil, nil
	}
	end := strings.IndexByte(source[idx:], ')')
	if end < 0 {
		return nil, &scriptrt.CompileError{Diagnostic: "unterminated modules(...) declaration"}
	}
	args := source[idx+len("modules(") : idx+end]
	var aliases []string
	for _, part := range strings.Split(args, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `"'`)
		if part != "" {
			aliases = append(aliases, part)
		}
	}
	return aliases, nil
}

func (b *Backend) loadChunk(c *chunk) (*lua.LFunction, error) {
	fn := &lua.LFunction{IsG: false, Proto: c.proto, Env: b.L.G.Global}
	for _, dep := range c.opts.Dependencies {
		depChunk, ok := dep.Chunk.(*chunk)
		if !ok {
			return nil, &scriptrt.CompileError{Diagnostic: fmt.Sprintf("module %q is not a compiled Lua chunk", dep.Alias)}
		}
		depFn := &lua.LFunction{IsG: false, Proto: depChunk.proto, Env: b.L.G.Global}
		if err := b.L.CallByParam(lua.P{Fn: depFn, NRet: 1, Protect: true}); err != nil {
			return nil, &scriptrt.RuntimeError{Diagnostic: fmt.Sprintf("module %q: %v", dep.Alias, err)}
		}
		ret := b.L.Get(-1)
		b.L.Pop(1)
		b.L.SetGlobal(dep.Alias, ret)
	}
	if !c.loaded {
		if err := b.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			return nil, &scriptrt.RuntimeError{Diagnostic: err.Error()}
		}
		// interface/run are defined as globals by the body that just ran;
		// the LState is shared across every chunk, so the next chunk
		// loaded would otherwise clobber them. Capture this chunk's own
		// functions now, before any other chunk's body runs.
		if f, ok := b.L.GetGlobal("interface").(*lua.LFunction); ok {
			c.interfaceFn = f
		}
		if f, ok := b.L.GetGlobal("run").(*lua.LFunction); ok {
			c.runFn = f
		}
		c.loaded = true
	}
	return fn, nil
}

// RunInterface evaluates the script's `interface` global once, capturing
// whatever it assigns into IN/OUT as a Schema pair.
func (b *Backend) RunInterface(ch scriptrt.Chunk) (in, out scriptrt.Schema, err error) {
	c, ok := ch.(*chunk)
	if !ok {
		return in, out, &scriptrt.CompileError{Diagnostic: "not a luabackend chunk"}
	}
	if _, err := b.loadChunk(c); err != nil {
		return in, out, err
	}

	inTable := b.newOrderedTable()
	outTable := b.newOrderedTable()
	b.L.SetGlobal("IN", inTable)
	b.L.SetGlobal("OUT", outTable)

	if c.interfaceFn == nil {
		return in, out, &scriptrt.CompileError{Diagnostic: "script does not define interface(IN, OUT)"}
	}
	if err := b.L.CallByParam(lua.P{Fn: c.interfaceFn, NRet: 0, Protect: true}, inTable, outTable); err != nil {
		return in, out, &scriptrt.RuntimeError{Diagnostic: err.Error()}
	}

	in = schemaFromTable(inTable)
	out = schemaFromTable(outTable)
	return in, out, nil
}

// RunEntry evaluates the script's `run` global for one tick, copying Go
// values from in into a fresh Lua IN table and reading the script's
// writes back out of a fresh Lua OUT table into out.
func (b *Backend) RunEntry(ch scriptrt.Chunk, in, out *scriptrt.Tree) error {
	c, ok := ch.(*chunk)
	if !ok {
		return &scriptrt.CompileError{Diagnostic: "not a luabackend chunk"}
	}
	if _, err := b.loadChunk(c); err != nil {
		return err
	}

	inTable := treeToLua(b.L, in)
	outTable := treeToLua(b.L, out)

	if c.runFn == nil {
		return &scriptrt.CompileError{Diagnostic: "script does not define run(IN, OUT)"}
	}
	if err := b.L.CallByParam(lua.P{Fn: c.runFn, NRet: 0, Protect: true}, inTable, outTable); err != nil {
		return &scriptrt.RuntimeError{Diagnostic: err.Error()}
	}

	if err := luaToTree(outTable, out); err != nil {
		return &scriptrt.RuntimeError{Diagnostic: err.Error()}
	}
	return nil
}

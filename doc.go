// Package sceneflow is a deterministic dataflow engine for connecting
// user-authored scripts to external scene objects (3D nodes, shader
// materials, cameras) through a directed acyclic graph of typed property
// links.
//
// An [Engine] owns every [Node] it creates — script nodes, binding nodes,
// and the special Timer/Animation/DataArray nodes. Nodes expose a typed
// property tree ([Property]); linking an output property of one node to an
// input property of another makes the target's value follow the source's
// on every [Engine.Update]. Update walks nodes in a cached topological
// order, re-executes only the nodes marked dirty, and pushes binding
// nodes' changed inputs back to whatever host scene object they are bound
// to.
//
// # Quick start
//
//	eng := sceneflow.NewEngine(sceneflow.Config{})
//	a, _ := eng.CreateScriptNode(sceneflow.ScriptConfig{Name: "a", Source: srcA})
//	b, _ := eng.CreateScriptNode(sceneflow.ScriptConfig{Name: "b", Source: srcB})
//	eng.Link(a.Out().ChildByName("result"), b.In().ChildByName("value"))
//	if ok, err := eng.Update(); !ok {
//		log.Fatal(err)
//	}
//	result, _ := sceneflow.Get[string](b.Out().ChildByName("echo"))
//
// # Scripts and bindings
//
// A script node's source declares its schema once (the "interface"), and
// [scriptrt] hosts the embedded language; the default implementation in
// [scriptrt/luabackend] runs that interface and the per-tick "run" entry
// point through an embedded Lua. Binding nodes ([Engine.CreateNodeBinding],
// [Engine.CreateAppearanceBinding], [Engine.CreateCameraBinding]) mirror a
// fixed schema and write changed inputs to a [HostResolver]-supplied
// handle only when the value actually changed since the last write.
//
// # Persistence
//
//	buf, _ := eng.SaveToBuffer()
//	reloaded, _ := sceneflow.LoadFromBuffer(buf, sceneflow.Config{Resolver: resolver})
//
// [Engine.SaveToBuffer] / [LoadFromBuffer] (see package [serialize])
// round-trip the entire node/property/link graph to a versioned binary
// buffer, refusing the same way [Engine.Update] does if the graph is
// currently cyclic.
package sceneflow

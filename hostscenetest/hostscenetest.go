// Package hostscenetest is an in-memory stand-in for a real host scene,
// used by the engine's own tests to exercise binding write-back and the
// load path's host-resolution step without a real renderer.
package hostscenetest

import (
	"fmt"

	"github.com/lumenforge/sceneflow"
)

// Object is one fake host scene object: a bag of named properties plus a
// log of every Set call it has received, in order.
type Object struct {
	kind   sceneflow.HostObjectKind
	name   string
	id     uint64
	values map[string]any
	writes []Write
}

// Write records one call to Object.Set.
type Write struct {
	Path  string
	Value any
}

func newObject(kind sceneflow.HostObjectKind, name string, id uint64) *Object {
	return &Object{kind: kind, name: name, id: id, values: map[string]any{}}
}

func (o *Object) Kind() sceneflow.HostObjectKind { return o.kind }

func (o *Object) Set(path string, value any) error {
	o.values[path] = value
	o.writes = append(o.writes, Write{Path: path, Value: value})
	return nil
}

func (o *Object) Get(path string) (any, bool) {
	v, ok := o.values[path]
	return v, ok
}

// Seed preloads a value Get will return, as if the host scene already
// held it before the binding was created.
func (o *Object) Seed(path string, value any) {
	o.values[path] = value
}

// Writes returns every Set call received so far, in order.
func (o *Object) Writes() []Write { return o.writes }

// LastWrite returns the most recent value written to path, or nil if
// path was never written.
func (o *Object) LastWrite(path string) (any, bool) {
	for i := len(o.writes) - 1; i >= 0; i-- {
		if o.writes[i].Path == path {
			return o.writes[i].Value, true
		}
	}
	return nil, false
}

// Scene is a small sceneflow.HostResolver backed by a fixed set of
// Objects, keyed by (kind, name, id) the same way a real host scene
// would look up its nodes/materials/cameras.
type Scene struct {
	objects map[string]*Object
}

// NewScene returns an empty host scene double.
func NewScene() *Scene {
	return &Scene{objects: map[string]*Object{}}
}

func key(kind sceneflow.HostObjectKind, name string, id uint64) string {
	return fmt.Sprintf("%d/%s/%d", kind, name, id)
}

// AddNode registers a fake host scene node, returned as a Node Binding's
// write-back target when CreateNodeBinding resolves (name, id).
func (s *Scene) AddNode(name string, id uint64) *Object {
	return s.add(sceneflow.HostObjectNode, name, id)
}

// AddAppearance registers a fake host material.
func (s *Scene) AddAppearance(name string, id uint64) *Object {
	return s.add(sceneflow.HostObjectAppearance, name, id)
}

// AddCamera registers a fake host camera.
func (s *Scene) AddCamera(name string, id uint64) *Object {
	return s.add(sceneflow.HostObjectCamera, name, id)
}

func (s *Scene) add(kind sceneflow.HostObjectKind, name string, id uint64) *Object {
	o := newObject(kind, name, id)
	s.objects[key(kind, name, id)] = o
	return o
}

// FindHostObject implements sceneflow.HostResolver.
func (s *Scene) FindHostObject(kind sceneflow.HostObjectKind, name string, id uint64) (sceneflow.HostObjectHandle, bool) {
	o, ok := s.objects[key(kind, name, id)]
	return o, ok
}

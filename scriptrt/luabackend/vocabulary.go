package luabackend

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/lumenforge/sceneflow/scriptrt"
)

const orderKey = "__sceneflow_order"
const kindKey = "__sceneflow_kind"
const countKey = "__sceneflow_count"
const elemKey = "__sceneflow_elem"
const fieldsKey = "__sceneflow_fields"

// installVocabulary registers the type-vocabulary globals (INT, FLOAT,
// STRUCT, ARRAY, ...) a script's interface() uses to describe its IN/OUT
// shape (spec §4.4).
func (b *Backend) installVocabulary() {
	L := b.L
	for kind, name := range map[scriptrt.Kind]string{
		scriptrt.KindBool:   "BOOL",
		scriptrt.KindInt32:  "INT",
		scriptrt.KindInt64:  "INT64",
		scriptrt.KindFloat:  "FLOAT",
		scriptrt.KindString: "STRING",
		scriptrt.KindVec2f:  "VEC2F",
		scriptrt.KindVec3f:  "VEC3F",
		scriptrt.KindVec4f:  "VEC4F",
		scriptrt.KindVec2i:  "VEC2I",
		scriptrt.KindVec3i:  "VEC3I",
		scriptrt.KindVec4i:  "VEC4I",
	} {
		k := kind
		marker := L.NewTable()
		marker.RawSetString(kindKey, lua.LNumber(k))
		L.SetGlobal(name, marker)
	}

	L.SetGlobal("STRUCT", L.NewFunction(func(L *lua.LState) int {
		builder := L.CheckFunction(1)
		fields := b.newOrderedTable()
		if err := L.CallByParam(lua.P{Fn: builder, NRet: 0, Protect: true}, fields); err != nil {
			L.RaiseError("STRUCT: %v", err)
			return 0
		}
		marker := L.NewTable()
		marker.RawSetString(kindKey, lua.LNumber(scriptrt.KindStruct))
		marker.RawSetString(fieldsKey, fields)
		L.Push(marker)
		return 1
	}))

	L.SetGlobal("ARRAY", L.NewFunction(func(L *lua.LState) int {
		count := L.CheckInt(1)
		elem := L.CheckTable(2)
		marker := L.NewTable()
		marker.RawSetString(kindKey, lua.LNumber(scriptrt.KindArray))
		marker.RawSetString(countKey, lua.LNumber(count))
		marker.RawSetString(elemKey, elem)
		L.Push(marker)
		return 1
	}))
}

// newOrderedTable returns a table whose __newindex records first-write
// order into orderKey's table, so struct field order can be frozen at
// extraction time even though Lua tables have no inherent order (spec §9
// open question (c)).
func (b *Backend) newOrderedTable() *lua.LTable {
	L := b.L
	t := L.NewTable()
	order := L.NewTable()
	mt := L.NewTable()
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		key := L.CheckString(2)
		val := L.CheckAny(3)
		if tbl.RawGetString(key) == lua.LNil {
			order.Append(lua.LString(key))
		}
		tbl.RawSetString(key, val)
		return 0
	}))
	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		key := L.CheckString(2)
		L.Push(tbl.RawGetString(key))
		return 1
	}))
	L.SetMetatable(t, mt)
	t.RawSetString(orderKey, order)
	return t
}

func orderedKeys(t *lua.LTable) []string {
	orderVal := t.RawGetString(orderKey)
	orderTbl, ok := orderVal.(*lua.LTable)
	if !ok {
		return nil
	}
	var keys []string
	orderTbl.ForEach(func(_, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			keys = append(keys, string(s))
		}
	})
	return keys
}

// schemaFromTable walks an ordered IN/OUT table built during
// interface() and converts it to a scriptrt.Schema.
func schemaFromTable(t *lua.LTable) scriptrt.Schema {
	var fields []scriptrt.Field
	for _, name := range orderedKeys(t) {
		v := t.RawGetString(name)
		marker, ok := v.(*lua.LTable)
		if !ok {
			continue
		}
		f := fieldFromMarker(marker)
		f.Name = name
		fields = append(fields, f)
	}
	return scriptrt.Schema{Fields: fields}
}

func fieldFromMarker(marker *lua.LTable) scriptrt.Field {
	kindVal, _ := marker.RawGetString(kindKey).(lua.LNumber)
	kind := scriptrt.Kind(int(kindVal))
	f := scriptrt.Field{Kind: kind}
	switch kind {
	case scriptrt.KindStruct:
		if fieldsTbl, ok := marker.RawGetString(fieldsKey).(*lua.LTable); ok {
			for _, name := range orderedKeys(fieldsTbl) {
				childMarker, ok := fieldsTbl.RawGetString(name).(*lua.LTable)
				if !ok {
					continue
				}
				child := fieldFromMarker(childMarker)
				child.Name = name
				f.Children = append(f.Children, child)
			}
		}
	case scriptrt.KindArray:
		count, _ := marker.RawGetString(countKey).(lua.LNumber)
		f.Count = int(count)
		if elemTbl, ok := marker.RawGetString(elemKey).(*lua.LTable); ok {
			elemField := fieldFromMarker(elemTbl)
			f.Elem = elemField.Kind
			for i := 0; i < f.Count; i++ {
				f.Children = append(f.Children, elemField)
			}
		}
	}
	return f
}

// treeToLua converts a scriptrt.Tree into a plain Lua table addressed
// the same way the engine addresses it: by name for struct fields, by
// 1-based index for array elements.
func treeToLua(L *lua.LState, t *scriptrt.Tree) *lua.LTable {
	tbl := L.NewTable()
	if t.Kind == scriptrt.KindStruct || t.Kind == scriptrt.KindArray {
		for i, c := range t.Children {
			child := treeToLua(L, c)
			if t.Kind == scriptrt.KindStruct {
				tbl.RawSetString(c.Name, child)
			} else {
				tbl.RawSetInt(i+1, child)
			}
		}
		return tbl
	}
	tbl.RawSetString("v", valueToLua(L, t.Value))
	return tbl
}

func vecArity(k scriptrt.Kind) int {
	switch k {
	case scriptrt.KindVec2f, scriptrt.KindVec2i:
		return 2
	case scriptrt.KindVec3f, scriptrt.KindVec3i:
		return 3
	case scriptrt.KindVec4f, scriptrt.KindVec4i:
		return 4
	default:
		return 0
	}
}

func isIntVec(k scriptrt.Kind) bool {
	return k == scriptrt.KindVec2i || k == scriptrt.KindVec3i || k == scriptrt.KindVec4i
}

// valueToLua converts a leaf Value to a Lua value. Vectors are addressed
// positionally (1-based), matching spec §3's "Components are addressed
// positionally".
func valueToLua(L *lua.LState, v scriptrt.Value) lua.LValue {
	switch v.Kind {
	case scriptrt.KindBool:
		return lua.LBool(v.Bool)
	case scriptrt.KindInt32:
		return lua.LNumber(v.Int32)
	case scriptrt.KindInt64:
		return lua.LNumber(v.Int64)
	case scriptrt.KindFloat:
		return lua.LNumber(v.Float)
	case scriptrt.KindString:
		return lua.LString(v.String)
	default:
		if n := vecArity(v.Kind); n > 0 {
			tbl := L.NewTable()
			for i := 0; i < n; i++ {
				if isIntVec(v.Kind) {
					tbl.RawSetInt(i+1, lua.LNumber(v.Vec4i[i]))
				} else {
					tbl.RawSetInt(i+1, lua.LNumber(v.Vec4[i]))
				}
			}
			return tbl
		}
		return lua.LNil
	}
}

// luaToTree reads a script's writes back out of a Lua table into t,
// recursing through struct/array children and reading the leaf "v" field
// for primitives. An int32/int64 output assigned a non-integer number is
// rejected rather than silently truncated (spec: "int32/int64 assignments
// from the scripting language reject values that would require implicit
// rounding").
func luaToTree(tbl *lua.LTable, t *scriptrt.Tree) error {
	if t.Kind == scriptrt.KindStruct {
		for _, c := range t.Children {
			if child, ok := tbl.RawGetString(c.Name).(*lua.LTable); ok {
				if err := luaToTree(child, c); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if t.Kind == scriptrt.KindArray {
		for i, c := range t.Children {
			if child, ok := tbl.RawGetInt(i + 1).(*lua.LTable); ok {
				if err := luaToTree(child, c); err != nil {
					return err
				}
			}
		}
		return nil
	}
	v := tbl.RawGetString("v")
	switch t.Kind {
	case scriptrt.KindBool:
		if b, ok := v.(lua.LBool); ok {
			t.Value.Bool = bool(b)
		}
	case scriptrt.KindInt32:
		if n, ok := v.(lua.LNumber); ok {
			i, err := requireInteger(float64(n))
			if err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			t.Value.Int32 = int32(i)
		}
	case scriptrt.KindInt64:
		if n, ok := v.(lua.LNumber); ok {
			i, err := requireInteger(float64(n))
			if err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			t.Value.Int64 = i
		}
	case scriptrt.KindFloat:
		if n, ok := v.(lua.LNumber); ok {
			t.Value.Float = float64(n)
		}
	case scriptrt.KindString:
		if s, ok := v.(lua.LString); ok {
			t.Value.String = string(s)
		}
	default:
		if n := vecArity(t.Kind); n > 0 {
			if vt, ok := v.(*lua.LTable); ok {
				for i := 0; i < n; i++ {
					comp, ok := vt.RawGetInt(i + 1).(lua.LNumber)
					if !ok {
						continue
					}
					if isIntVec(t.Kind) {
						t.Value.Vec4i[i] = int32(comp)
					} else {
						t.Value.Vec4[i] = float64(comp)
					}
				}
			}
		}
	}
	t.Value.Kind = t.Kind
	return nil
}

// requireInteger rejects a Lua number that would need implicit rounding
// to become an int32/int64 property value.
func requireInteger(n float64) (int64, error) {
	i := int64(n)
	if float64(i) != n {
		return 0, fmt.Errorf("value %v requires implicit rounding to an integer", n)
	}
	return i, nil
}

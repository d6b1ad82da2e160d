package sceneflow

// DataArray is an immutable, fixed-length numeric buffer (spec §4.6).
// It has no IN/OUT property tree and cannot participate in a link; it
// exists only to be referenced by an AnimationNode channel.
type DataArray struct {
	handle  NodeHandle
	name    string
	elem    Type
	values  []any
	eng     *Engine
	destroy bool
}

func (d *DataArray) ID() uint64        { return uint64(d.handle) }
func (d *DataArray) Name() string      { return d.name }
func (d *DataArray) ElementType() Type { return d.elem }
func (d *DataArray) Len() int          { return len(d.values) }

// At returns the element at index, or nil if out of range.
func (d *DataArray) At(index int) any {
	if index < 0 || index >= len(d.values) {
		return nil
	}
	return d.values[index]
}

// CreateDataArrayFloat creates an immutable DataArray of float values.
// Fails if values is empty (spec §7: "empty data array" is a
// ValidationError).
func (e *Engine) CreateDataArrayFloat(name string, values []float64) (*DataArray, error) {
	anyValues := make([]any, len(values))
	for i, v := range values {
		anyValues[i] = v
	}
	return e.createDataArray(name, TypeFloat, anyValues)
}

// CreateDataArrayVec3f creates an immutable DataArray of vec3f values.
func (e *Engine) CreateDataArrayVec3f(name string, values []Vec3f) (*DataArray, error) {
	anyValues := make([]any, len(values))
	for i, v := range values {
		anyValues[i] = v
	}
	return e.createDataArray(name, TypeVec3f, anyValues)
}

// CreateDataArrayVec4f creates an immutable DataArray of vec4f values.
func (e *Engine) CreateDataArrayVec4f(name string, values []Vec4f) (*DataArray, error) {
	anyValues := make([]any, len(values))
	for i, v := range values {
		anyValues[i] = v
	}
	return e.createDataArray(name, TypeVec4f, anyValues)
}

func (e *Engine) createDataArray(name string, elem Type, values []any) (*DataArray, error) {
	e.clearErrors()
	if len(values) == 0 {
		return nil, e.record(newErr(KindValidation, 0, "data array %q: must have at least one element", name))
	}
	d := &DataArray{handle: e.allocID(), name: name, elem: elem, values: values, eng: e}
	e.dataArrays = append(e.dataArrays, d)
	if name != "" {
		e.dataArraysByName[name] = d
	}
	return d, nil
}

// FindDataArrayByName returns the DataArray with the given name, or nil.
func (e *Engine) FindDataArrayByName(name string) *DataArray {
	return e.dataArraysByName[name]
}

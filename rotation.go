package sceneflow

import "math"

// RotationType is the representation a Node Binding's rotation input
// uses, fixed at creation (spec §5 Node Binding).
type RotationType uint8

const (
	RotationEulerXYZ RotationType = iota
	RotationEulerXZY
	RotationEulerYXZ
	RotationEulerYZX
	RotationEulerZXY
	RotationEulerZYX
	RotationQuaternion
)

func (r RotationType) String() string {
	switch r {
	case RotationEulerXYZ:
		return "Euler_XYZ"
	case RotationEulerXZY:
		return "Euler_XZY"
	case RotationEulerYXZ:
		return "Euler_YXZ"
	case RotationEulerYZX:
		return "Euler_YZX"
	case RotationEulerZXY:
		return "Euler_ZXY"
	case RotationEulerZYX:
		return "Euler_ZYX"
	case RotationQuaternion:
		return "Quaternion"
	default:
		return "UnknownRotationType"
	}
}

// IsEuler reports whether r is one of the six Euler axis orders.
func (r RotationType) IsEuler() bool { return r != RotationQuaternion }

// axisMatrix computes the 3x3 rotation matrix for a single axis, in
// the style of transform.go's 2D affine composition: build elementary
// rotations and multiply them together in the order the axis order
// names, left to right as applied to column vectors.
func axisMatrix(axis byte, angle float64) [3][3]float64 {
	sin, cos := math.Sincos(angle)
	switch axis {
	case 'x':
		return [3][3]float64{
			{1, 0, 0},
			{0, cos, -sin},
			{0, sin, cos},
		}
	case 'y':
		return [3][3]float64{
			{cos, 0, sin},
			{0, 1, 0},
			{-sin, 0, cos},
		}
	default: // 'z'
		return [3][3]float64{
			{cos, -sin, 0},
			{sin, cos, 0},
			{0, 0, 1},
		}
	}
}

func mulMat3(a, b [3][3]float64) [3][3]float64 {
	var r [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
		}
	}
	return r
}

func axisOrder(t RotationType) [3]byte {
	switch t {
	case RotationEulerXYZ:
		return [3]byte{'x', 'y', 'z'}
	case RotationEulerXZY:
		return [3]byte{'x', 'z', 'y'}
	case RotationEulerYXZ:
		return [3]byte{'y', 'x', 'z'}
	case RotationEulerYZX:
		return [3]byte{'y', 'z', 'x'}
	case RotationEulerZXY:
		return [3]byte{'z', 'x', 'y'}
	default: // RotationEulerZYX
		return [3]byte{'z', 'y', 'x'}
	}
}

func componentFor(axis byte, v Vec3f) float64 {
	switch axis {
	case 'x':
		return v[0]
	case 'y':
		return v[1]
	default:
		return v[2]
	}
}

// eulerToMatrix builds the rotation matrix for an Euler triple in the
// axis order t names, applying the first-named axis first (intrinsic
// composition R = R3 * R2 * R1 matching how willow's transform.go
// composes skew/rotate/translate left to right).
func eulerToMatrix(t RotationType, euler Vec3f) [3][3]float64 {
	order := axisOrder(t)
	r := axisMatrix(order[0], componentFor(order[0], euler))
	r = mulMat3(axisMatrix(order[1], componentFor(order[1], euler)), r)
	r = mulMat3(axisMatrix(order[2], componentFor(order[2], euler)), r)
	return r
}

// matrixToEuler extracts an Euler triple in axis order t from a rotation
// matrix. Near gimbal lock the first axis's angle is taken as zero; this
// is the sign/degeneracy freedom spec §9 open question (a) leaves
// unfixed.
func matrixToEuler(t RotationType, m [3][3]float64) Vec3f {
	order := axisOrder(t)
	var out Vec3f
	a0, a1, a2 := angleTriple(order, m)
	setComponent(&out, order[0], a0)
	setComponent(&out, order[1], a1)
	setComponent(&out, order[2], a2)
	return out
}

func setComponent(v *Vec3f, axis byte, val float64) {
	switch axis {
	case 'x':
		v[0] = val
	case 'y':
		v[1] = val
	default:
		v[2] = val
	}
}

// angleTriple decomposes m into three angles for the given axis order
// using the standard closed-form extraction for each of the six proper
// Euler orders.
func angleTriple(order [3]byte, m [3][3]float64) (a0, a1, a2 float64) {
	key := string(order[:])
	switch key {
	case "xyz":
		a1 = math.Asin(clamp1(-m[2][0]))
		if math.Abs(m[2][0]) < 0.999999 {
			a0 = math.Atan2(m[2][1], m[2][2])
			a2 = math.Atan2(m[1][0], m[0][0])
		} else {
			a2 = math.Atan2(-m[0][1], m[1][1])
		}
	case "xzy":
		a2 = math.Asin(clamp1(m[1][0]))
		if math.Abs(m[1][0]) < 0.999999 {
			a0 = math.Atan2(-m[1][2], m[1][1])
			a1 = math.Atan2(-m[2][0], m[0][0])
		} else {
			a0 = math.Atan2(m[2][1], m[2][2])
		}
	case "yxz":
		a0 = math.Asin(clamp1(-m[1][2]))
		if math.Abs(m[1][2]) < 0.999999 {
			a1 = math.Atan2(m[0][2], m[2][2])
			a2 = math.Atan2(m[1][0], m[1][1])
		} else {
			a2 = math.Atan2(-m[0][1], m[0][0])
		}
	case "yzx":
		a2 = math.Asin(clamp1(m[0][1]))
		if math.Abs(m[0][1]) < 0.999999 {
			a1 = math.Atan2(-m[0][2], m[0][0])
			a0 = math.Atan2(-m[2][1], m[1][1])
		} else {
			a1 = math.Atan2(m[2][0], m[2][2])
		}
	case "zxy":
		a0 = math.Asin(clamp1(m[2][1]))
		if math.Abs(m[2][1]) < 0.999999 {
			a1 = math.Atan2(-m[2][0], m[2][2])
			a2 = math.Atan2(-m[0][1], m[1][1])
		} else {
			a2 = math.Atan2(m[0][2], m[0][0])
		}
	case "zyx":
		a1 = math.Asin(clamp1(m[0][2]))
		if math.Abs(m[0][2]) < 0.999999 {
			a0 = math.Atan2(-m[0][1], m[0][0])
			a2 = math.Atan2(-m[1][2], m[2][2])
		} else {
			a2 = math.Atan2(m[2][1], m[1][1])
		}
	}
	return a0, a1, a2
}

func clamp1(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// quaternionToMatrix converts a unit quaternion (x, y, z, w) to a
// rotation matrix.
func quaternionToMatrix(q Vec4f) [3][3]float64 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	n := math.Sqrt(x*x + y*y + z*z + w*w)
	if n > 1e-12 {
		x, y, z, w = x/n, y/n, z/n, w/n
	}
	return [3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// matrixToQuaternion converts a rotation matrix to a unit quaternion
// (x, y, z, w), using the standard trace-based branch selection.
func matrixToQuaternion(m [3][3]float64) Vec4f {
	trace := m[0][0] + m[1][1] + m[2][2]
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		return Vec4f{
			(m[2][1] - m[1][2]) * s,
			(m[0][2] - m[2][0]) * s,
			(m[1][0] - m[0][1]) * s,
			0.25 / s,
		}
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := 2 * math.Sqrt(1+m[0][0]-m[1][1]-m[2][2])
		return Vec4f{0.25 * s, (m[0][1] + m[1][0]) / s, (m[0][2] + m[2][0]) / s, (m[2][1] - m[1][2]) / s}
	case m[1][1] > m[2][2]:
		s := 2 * math.Sqrt(1+m[1][1]-m[0][0]-m[2][2])
		return Vec4f{(m[0][1] + m[1][0]) / s, 0.25 * s, (m[1][2] + m[2][1]) / s, (m[0][2] - m[2][0]) / s}
	default:
		s := 2 * math.Sqrt(1+m[2][2]-m[0][0]-m[1][1])
		return Vec4f{(m[0][2] + m[2][0]) / s, (m[1][2] + m[2][1]) / s, 0.25 * s, (m[1][0] - m[0][1]) / s}
	}
}

// eulerToEuler converts an Euler triple from one axis order to another
// via the intermediate rotation matrix. Write-back does not call it: a
// quaternion binding's rotation is converted to the host's Euler axis
// order by quaternionToEuler below (spec §5 Node Binding: "the engine
// converts to the host's axis convention on write-back").
func eulerToEuler(from, to RotationType, v Vec3f) Vec3f {
	if from == to {
		return v
	}
	return matrixToEuler(to, eulerToMatrix(from, v))
}

func quaternionToEuler(to RotationType, q Vec4f) Vec3f {
	return matrixToEuler(to, quaternionToMatrix(q))
}

func eulerToQuaternion(from RotationType, v Vec3f) Vec4f {
	return matrixToQuaternion(eulerToMatrix(from, v))
}

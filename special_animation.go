package sceneflow

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Interpolation selects how an AnimationChannel evaluates between
// keyframes (spec §4.6).
type Interpolation uint8

const (
	InterpolationStep Interpolation = iota
	InterpolationLinear
	InterpolationCubic
)

// AnimationChannel is one animated output of an AnimationNode: a
// timestamps/keyframes pair plus interpolation mode, with optional
// tangents for Cubic (spec §4.6).
type AnimationChannel struct {
	Name          string
	Timestamps    *DataArray
	Keyframes     *DataArray
	Interpolation Interpolation
	TangentsIn    *DataArray
	TangentsOut   *DataArray
}

// AnimationNodeConfig is an AnimationNode's creation-time configuration.
type AnimationNodeConfig struct {
	Name     string
	Channels []AnimationChannel
}

type animationNodeImpl struct {
	channels []AnimationChannel
}

// CreateAnimationNode creates an AnimationNode with a progress input and
// one output per channel. Cubic channels require tangentsIn/tangentsOut
// arrays of the same length as keyframes (spec §4.6).
func (e *Engine) CreateAnimationNode(cfg AnimationNodeConfig) (*Node, error) {
	e.clearErrors()
	for _, ch := range cfg.Channels {
		if ch.Timestamps == nil || ch.Keyframes == nil {
			return nil, e.record(newErr(KindValidation, 0, "animation %q: channel %q missing timestamps or keyframes", cfg.Name, ch.Name))
		}
		if ch.Timestamps.Len() != ch.Keyframes.Len() {
			return nil, e.record(newErr(KindValidation, 0, "animation %q: channel %q timestamps/keyframes length mismatch", cfg.Name, ch.Name))
		}
		if ch.Interpolation == InterpolationCubic {
			if ch.TangentsIn == nil || ch.TangentsOut == nil {
				return nil, e.record(newErr(KindValidation, 0, "animation %q: channel %q is Cubic and requires both tangent arrays", cfg.Name, ch.Name))
			}
			if ch.TangentsIn.Len() != ch.Keyframes.Len() || ch.TangentsOut.Len() != ch.Keyframes.Len() {
				return nil, e.record(newErr(KindValidation, 0, "animation %q: channel %q tangent arrays must match keyframes length", cfg.Name, ch.Name))
			}
		}
	}

	impl := &animationNodeImpl{channels: cfg.Channels}
	n := &Node{handle: e.allocID(), name: cfg.Name, kind: KindAnimationNode, dirty: true, impl: impl}
	n.in = &Property{node: n, typ: TypeStruct, semantics: SemanticsScriptInput}
	n.in.children = []*Property{
		{node: n, parent: n.in, name: "progress", typ: TypeFloat, semantics: SemanticsScriptInput, value: float64(0)},
	}
	n.out = &Property{node: n, typ: TypeStruct, semantics: SemanticsScriptOutput}
	for _, ch := range cfg.Channels {
		n.out.children = append(n.out.children, &Property{node: n, parent: n.out, name: ch.Name, typ: ch.Keyframes.ElementType(), semantics: SemanticsScriptOutput})
	}

	e.registerNode(n)
	return n, nil
}

func (a *animationNodeImpl) update(eng *Engine, n *Node) error {
	progress, _ := Get[float64](n.in.ChildByName("progress"))
	for _, ch := range a.channels {
		out := n.out.ChildByName(ch.Name)
		setInternal(out, evaluateChannel(ch, progress))
	}
	return nil
}

// evaluateChannel interpolates channel at the given progress value,
// treated as a time coordinate compared against the channel's
// timestamps (spec §4.6).
func evaluateChannel(ch AnimationChannel, progress float64) any {
	n := ch.Timestamps.Len()
	if n == 1 {
		return ch.Keyframes.At(0)
	}

	times := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = ch.Timestamps.At(i).(float64)
	}

	if progress <= times[0] {
		return ch.Keyframes.At(0)
	}
	if progress >= times[n-1] {
		return ch.Keyframes.At(n - 1)
	}

	seg := 0
	for i := 0; i < n-1; i++ {
		if progress >= times[i] && progress <= times[i+1] {
			seg = i
			break
		}
	}

	t0, t1 := times[seg], times[seg+1]
	var frac float64
	if t1 != t0 {
		frac = (progress - t0) / (t1 - t0)
	}

	switch ch.Interpolation {
	case InterpolationStep:
		return ch.Keyframes.At(seg)
	case InterpolationCubic:
		return interpolateCubic(ch, seg, frac, t1-t0)
	default:
		return interpolateLinear(ch.Keyframes.At(seg), ch.Keyframes.At(seg+1), frac)
	}
}

// interpolateLinear evaluates one gween.Tween over the segment's
// normalized fraction, component-wise for vector value types.
func interpolateLinear(a, b any, frac float64) any {
	lerp1 := func(x, y float64) float64 {
		tw := gween.New(float32(x), float32(y), 1, ease.Linear)
		v, _ := tw.Update(float32(frac))
		return float64(v)
	}
	switch av := a.(type) {
	case float64:
		return lerp1(av, b.(float64))
	case Vec2f:
		bv := b.(Vec2f)
		return Vec2f{lerp1(av[0], bv[0]), lerp1(av[1], bv[1])}
	case Vec3f:
		bv := b.(Vec3f)
		return Vec3f{lerp1(av[0], bv[0]), lerp1(av[1], bv[1]), lerp1(av[2], bv[2])}
	case Vec4f:
		bv := b.(Vec4f)
		return Vec4f{lerp1(av[0], bv[0]), lerp1(av[1], bv[1]), lerp1(av[2], bv[2]), lerp1(av[3], bv[3])}
	default:
		return a
	}
}

// interpolateCubic evaluates a Hermite spline over segment seg using the
// channel's explicit tangents. gween has no tangent-aware primitive, so
// this is hand-written in the same terse style as the rest of the
// package's vector math.
func interpolateCubic(ch AnimationChannel, seg int, t, dt float64) any {
	p0 := ch.Keyframes.At(seg)
	p1 := ch.Keyframes.At(seg + 1)
	m0 := ch.TangentsOut.At(seg)
	m1 := ch.TangentsIn.At(seg + 1)

	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	hermite1 := func(p0, m0, p1, m1 float64) float64 {
		return h00*p0 + h10*dt*m0 + h01*p1 + h11*dt*m1
	}

	switch p0v := p0.(type) {
	case float64:
		return hermite1(p0v, m0.(float64), p1.(float64), m1.(float64))
	case Vec2f:
		p1v, m0v, m1v := p1.(Vec2f), m0.(Vec2f), m1.(Vec2f)
		return Vec2f{hermite1(p0v[0], m0v[0], p1v[0], m1v[0]), hermite1(p0v[1], m0v[1], p1v[1], m1v[1])}
	case Vec3f:
		p1v, m0v, m1v := p1.(Vec3f), m0.(Vec3f), m1.(Vec3f)
		return Vec3f{
			hermite1(p0v[0], m0v[0], p1v[0], m1v[0]),
			hermite1(p0v[1], m0v[1], p1v[1], m1v[1]),
			hermite1(p0v[2], m0v[2], p1v[2], m1v[2]),
		}
	case Vec4f:
		p1v, m0v, m1v := p1.(Vec4f), m0.(Vec4f), m1.(Vec4f)
		return Vec4f{
			hermite1(p0v[0], m0v[0], p1v[0], m1v[0]),
			hermite1(p0v[1], m0v[1], p1v[1], m1v[1]),
			hermite1(p0v[2], m0v[2], p1v[2], m1v[2]),
			hermite1(p0v[3], m0v[3], p1v[3], m1v[3]),
		}
	default:
		return p0
	}
}

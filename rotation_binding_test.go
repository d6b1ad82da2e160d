package sceneflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenforge/sceneflow/hostscenetest"
)

// A quaternion-typed Node Binding converts to the host's own Euler axis
// convention on write-back, and an identity quaternion always converts
// to the zero Euler triple regardless of axis order.
func TestQuaternionNodeBindingWriteBackConvertsToHostEulerOrder(t *testing.T) {
	scene := hostscenetest.NewScene()
	host := scene.AddNode("turret", 7)
	host.Seed("rotationOrder", RotationEulerZYX.String())

	eng := NewEngine(Config{Resolver: scene})
	binding, err := eng.CreateNodeBinding(NodeBindingConfig{
		Name: "turretBinding", HostName: "turret", HostID: 7, RotationType: RotationQuaternion,
	})
	require.NoError(t, err)

	require.NoError(t, Set[Vec4f](binding.In().ChildByName("rotation"), Vec4f{0, 0, 0, 1}))
	ok, err := eng.Update()
	require.True(t, ok)
	require.NoError(t, err)

	written, ok := host.LastWrite("rotation")
	require.True(t, ok)
	euler, isVec3 := written.(Vec3f)
	require.True(t, isVec3)
	require.InDelta(t, 0, euler[0], 1e-9)
	require.InDelta(t, 0, euler[1], 1e-9)
	require.InDelta(t, 0, euler[2], 1e-9)

	// A non-trivial rotation round-trips through the quaternion<->Euler
	// conversion: build the quaternion from a known ZYX Euler triple and
	// confirm the binding writes back that same triple (the host's
	// axis order).
	want := Vec3f{0.3, 0.2, 0.1}
	q := eulerToQuaternion(RotationEulerZYX, want)
	require.NoError(t, Set[Vec4f](binding.In().ChildByName("rotation"), q))
	ok, err = eng.Update()
	require.True(t, ok)
	require.NoError(t, err)

	written, ok = host.LastWrite("rotation")
	require.True(t, ok)
	got, isVec3 := written.(Vec3f)
	require.True(t, isVec3)
	require.InDelta(t, want[0], got[0], 1e-9)
	require.InDelta(t, want[1], got[1], 1e-9)
	require.InDelta(t, want[2], got[2], 1e-9)
}

package sceneflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenforge/sceneflow/hostscenetest"
)

const roundTripSourceA = `
function interface(IN, OUT)
  OUT.text = STRING
end

function run(IN, OUT)
  OUT.text.v = "round-trip"
end
`

const roundTripSourceB = `
function interface(IN, OUT)
  IN.text = STRING
  OUT.text = STRING
end

function run(IN, OUT)
  OUT.text.v = IN.text.v .. "!"
end
`

// Saving and reloading an engine preserves node identity (ids and
// names), live links, and binding host resolution, and the reloaded
// engine keeps producing the same results on Update.
func TestSaveLoadRoundTrip(t *testing.T) {
	scene := hostscenetest.NewScene()
	scene.AddNode("prop", 42)

	eng := NewEngine(Config{Resolver: scene})
	a, err := eng.CreateScriptNode(ScriptConfig{Name: "a", Source: roundTripSourceA})
	require.NoError(t, err)
	b, err := eng.CreateScriptNode(ScriptConfig{Name: "b", Source: roundTripSourceB})
	require.NoError(t, err)
	ok, err := eng.Link(a.Out().ChildByName("text"), b.In().ChildByName("text"))
	require.True(t, ok)
	require.NoError(t, err)

	binding, err := eng.CreateNodeBinding(NodeBindingConfig{Name: "propBinding", HostName: "prop", HostID: 42})
	require.NoError(t, err)
	require.NoError(t, Set[bool](binding.In().ChildByName("visibility"), false))

	timer, err := eng.CreateTimerNode(TimerNodeConfig{Name: "clock"})
	require.NoError(t, err)
	require.NoError(t, Set[int64](timer.In().ChildByName("ticker_us"), 500))

	ok, err = eng.Update()
	require.True(t, ok)
	require.NoError(t, err)

	aID, bID, bindingID, timerID := a.ID(), b.ID(), binding.ID(), timer.ID()

	buf, err := eng.SaveToBuffer()
	require.NoError(t, err)
	require.NotEmpty(t, buf)

	reloaded, err := LoadFromBuffer(buf, Config{Resolver: scene})
	require.NoError(t, err)

	ra := reloaded.FindByID(aID)
	rb := reloaded.FindByID(bID)
	rbinding := reloaded.FindByID(bindingID)
	rtimer := reloaded.FindByID(timerID)
	require.NotNil(t, ra)
	require.NotNil(t, rb)
	require.NotNil(t, rbinding)
	require.NotNil(t, rtimer)
	require.Equal(t, "a", ra.Name())
	require.Equal(t, "b", rb.Name())

	visibility, _ := Get[bool](rbinding.In().ChildByName("visibility"))
	require.False(t, visibility)
	ticker, _ := Get[int64](rtimer.Out().ChildByName("ticker_us"))
	require.Equal(t, int64(500), ticker)

	// The a -> b link survived the round trip: running the reloaded
	// engine again still produces the concatenated string.
	ok, err = reloaded.Update()
	require.True(t, ok)
	require.NoError(t, err)
	got, _ := Get[string](rb.Out().ChildByName("text"))
	require.Equal(t, "round-trip!", got)

	// Node ids are preserved, so the next node created after reload
	// continues the original allocator rather than colliding.
	fresh, err := reloaded.CreateScriptNode(ScriptConfig{Name: "fresh", Source: roundTripSourceA})
	require.NoError(t, err)
	require.Greater(t, fresh.ID(), timerID)
}

// A truncated buffer (too small to even contain a root offset) is
// rejected as a missing-field failure rather than panicking.
func TestLoadFromBufferRejectsTruncatedBuffer(t *testing.T) {
	_, err := LoadFromBuffer([]byte{0, 1}, Config{})
	require.Error(t, err)
	ee, isEngineErr := err.(*EngineError)
	require.True(t, isEngineErr)
	require.Equal(t, KindDeserialization, ee.Kind)
}

// A Node Binding whose host object cannot be resolved on load fails with
// a host-resolution error rather than silently losing the binding.
func TestLoadFromBufferFailsOnUnresolvableHostObject(t *testing.T) {
	scene := hostscenetest.NewScene()
	scene.AddNode("prop", 42)

	eng := NewEngine(Config{Resolver: scene})
	_, err := eng.CreateNodeBinding(NodeBindingConfig{Name: "propBinding", HostName: "prop", HostID: 42})
	require.NoError(t, err)

	buf, err := eng.SaveToBuffer()
	require.NoError(t, err)

	emptyScene := hostscenetest.NewScene()
	_, err = LoadFromBuffer(buf, Config{Resolver: emptyScene})
	require.Error(t, err)
	ee, isEngineErr := err.(*EngineError)
	require.True(t, isEngineErr)
	require.Equal(t, KindDeserialization, ee.Kind)
}

package sceneflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenforge/sceneflow/hostscenetest"
)

const brightnessDriverSource = `
function interface(IN, OUT)
  IN.value = FLOAT
  OUT.value = FLOAT
end

function run(IN, OUT)
  OUT.value.v = IN.value.v
end
`

// Write-back to the host only happens once a binding input has been
// explicitly Set or Linked, and Unlink never clears that flag — a
// pushed value that later goes un-linked and is never touched again
// still carries the flag, even though nothing more gets written because
// the value hasn't changed.
func TestBindingWriteBackGating(t *testing.T) {
	scene := hostscenetest.NewScene()
	host := scene.AddAppearance("glass", 1)

	eng := NewEngine(Config{Resolver: scene})
	driver, err := eng.CreateScriptNode(ScriptConfig{Name: "driver", Source: brightnessDriverSource})
	require.NoError(t, err)
	binding, err := eng.CreateAppearanceBinding(AppearanceBindingConfig{
		Name: "glassBinding", HostName: "glass", HostID: 1,
		Uniforms: []UniformDecl{{Name: "brightness", Type: TypeFloat}},
	})
	require.NoError(t, err)
	brightness := binding.In().ChildByName("brightness")

	// Before any Set/Link, the binding has never been asked to write
	// anything back.
	require.False(t, binding.needsWriteBack(brightness.handle))

	ok, err := eng.Link(driver.Out().ChildByName("value"), brightness)
	require.True(t, ok)
	require.NoError(t, err)
	require.True(t, binding.needsWriteBack(brightness.handle))

	require.NoError(t, Set[float64](driver.In().ChildByName("value"), 1.0))
	ok, err = eng.Update()
	require.True(t, ok)
	require.NoError(t, err)

	last, ok := host.LastWrite("brightness")
	require.True(t, ok)
	require.Equal(t, 1.0, last)
	require.Len(t, host.Writes(), 1)

	// Unlink: the flag is never cleared, but the value hasn't changed so
	// a subsequent Update writes nothing new.
	ok, err = eng.Unlink(driver.Out().ChildByName("value"), brightness)
	require.True(t, ok)
	require.NoError(t, err)
	require.True(t, binding.needsWriteBack(brightness.handle))

	ok, err = eng.Update()
	require.True(t, ok)
	require.NoError(t, err)
	require.Len(t, host.Writes(), 1)

	// A direct Set after Unlink writes again, since the value actually
	// changed.
	require.NoError(t, Set[float64](brightness, 2.0))
	ok, err = eng.Update()
	require.True(t, ok)
	require.NoError(t, err)
	require.Len(t, host.Writes(), 2)
	last, ok = host.LastWrite("brightness")
	require.True(t, ok)
	require.Equal(t, 2.0, last)
}

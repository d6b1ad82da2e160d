package sceneflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const cycleSource = `
function interface(IN, OUT)
  IN.v = FLOAT
  OUT.v = FLOAT
end

function run(IN, OUT)
  OUT.v.v = IN.v.v + 1
end
`

// A two-node cycle (a.out -> b.in -> ... -> a.in) is accepted by Link
// (which only rejects same-node self-links) but rejected by Update and
// by SaveToBuffer, both refusing without touching state.
func TestCycleRefusedByUpdateAndSave(t *testing.T) {
	eng := NewEngine(Config{})

	a, err := eng.CreateScriptNode(ScriptConfig{Name: "a", Source: cycleSource})
	require.NoError(t, err)
	b, err := eng.CreateScriptNode(ScriptConfig{Name: "b", Source: cycleSource})
	require.NoError(t, err)

	ok, err := eng.Link(a.Out().ChildByName("v"), b.In().ChildByName("v"))
	require.True(t, ok)
	require.NoError(t, err)
	ok, err = eng.Link(b.Out().ChildByName("v"), a.In().ChildByName("v"))
	require.True(t, ok)
	require.NoError(t, err)

	ok, err = eng.Update()
	require.False(t, ok)
	require.Error(t, err)
	ee, isEngineErr := err.(*EngineError)
	require.True(t, isEngineErr)
	require.Equal(t, KindCycle, ee.Kind)

	buf, err := eng.SaveToBuffer()
	require.Nil(t, buf)
	require.Error(t, err)
	ee, isEngineErr = err.(*EngineError)
	require.True(t, isEngineErr)
	require.Equal(t, KindCycle, ee.Kind)
}

package sceneflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

const seedNodeSource = `
function interface(IN, OUT)
  IN.seed = FLOAT
  OUT.v = FLOAT
end

function run(IN, OUT)
  OUT.v.v = IN.seed.v
end
`

const clampNodeSource = `
function interface(IN, OUT)
  IN.v = FLOAT
  OUT.v = FLOAT
end

function run(IN, OUT)
  local x = IN.v.v
  if x > 5 then
    x = 5
  end
  OUT.v.v = x
end
`

const passthroughNodeSource = `
function interface(IN, OUT)
  IN.v = FLOAT
  OUT.v = FLOAT
end

function run(IN, OUT)
  OUT.v.v = IN.v.v
end
`

// A 100-node linear chain runs every node the first time (everything
// starts dirty), then on a later tick only re-executes the nodes reached
// by a changed value — once the clamp node produces the same output as
// before, the dirty wave stops there and nothing further down the chain
// re-runs.
func TestDirtySchedulingStopsAtUnchangedOutput(t *testing.T) {
	const chainLen = 100
	eng := NewEngine(Config{})
	eng.EnableUpdateReport(true)

	nodes := make([]*Node, chainLen)
	seed, err := eng.CreateScriptNode(ScriptConfig{Name: "n0", Source: seedNodeSource})
	require.NoError(t, err)
	nodes[0] = seed

	clamp, err := eng.CreateScriptNode(ScriptConfig{Name: "n1", Source: clampNodeSource})
	require.NoError(t, err)
	nodes[1] = clamp

	for i := 2; i < chainLen; i++ {
		n, err := eng.CreateScriptNode(ScriptConfig{Name: fmt.Sprintf("n%d", i), Source: passthroughNodeSource})
		require.NoError(t, err)
		nodes[i] = n
	}

	for i := 1; i < chainLen; i++ {
		ok, err := eng.Link(nodes[i-1].Out().ChildByName("v"), nodes[i].In().ChildByName("v"))
		require.True(t, ok)
		require.NoError(t, err)
	}

	require.NoError(t, Set[float64](seed.In().ChildByName("seed"), 10.0))
	ok, err := eng.Update()
	require.True(t, ok)
	require.NoError(t, err)
	require.Len(t, eng.LastUpdateReport().Executed, chainLen)

	got, _ := Get[float64](nodes[chainLen-1].Out().ChildByName("v"))
	require.Equal(t, 5.0, got)

	// A clean Update with nothing changed executes no nodes.
	ok, err = eng.Update()
	require.True(t, ok)
	require.NoError(t, err)
	require.Empty(t, eng.LastUpdateReport().Executed)

	// Changing the seed to another value that clamps to the same 5
	// re-runs only n0 (changed) and n1 (its clamped output is still 5,
	// so it does not propagate dirtiness any further).
	require.NoError(t, Set[float64](seed.In().ChildByName("seed"), 20.0))
	ok, err = eng.Update()
	require.True(t, ok)
	require.NoError(t, err)
	require.Len(t, eng.LastUpdateReport().Executed, 2)

	got, _ = Get[float64](nodes[chainLen-1].Out().ChildByName("v"))
	require.Equal(t, 5.0, got)
}

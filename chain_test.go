package sceneflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

const chainSourceA = `
function interface(IN, OUT)
  OUT.text = STRING
end

function run(IN, OUT)
  OUT.text.v = "hello"
end
`

const chainSourceAppend = `
function interface(IN, OUT)
  IN.text = STRING
  OUT.text = STRING
end

function run(IN, OUT)
  OUT.text.v = IN.text.v .. %s
end
`

// A linear A -> B -> C chain of script nodes, each appending its own
// suffix to the upstream string, must converge to the concatenation in
// source order after one Update.
func TestLinearChainStringConcat(t *testing.T) {
	eng := NewEngine(Config{})

	a, err := eng.CreateScriptNode(ScriptConfig{Name: "a", Source: chainSourceA})
	require.NoError(t, err)
	b, err := eng.CreateScriptNode(ScriptConfig{Name: "b", Source: fmt.Sprintf(chainSourceAppend, `"-b"`)})
	require.NoError(t, err)
	c, err := eng.CreateScriptNode(ScriptConfig{Name: "c", Source: fmt.Sprintf(chainSourceAppend, `"-c"`)})
	require.NoError(t, err)

	ok, err := eng.Link(a.Out().ChildByName("text"), b.In().ChildByName("text"))
	require.True(t, ok)
	require.NoError(t, err)
	ok, err = eng.Link(b.Out().ChildByName("text"), c.In().ChildByName("text"))
	require.True(t, ok)
	require.NoError(t, err)

	ok, err = eng.Update()
	require.True(t, ok)
	require.NoError(t, err)

	got, ok := Get[string](c.Out().ChildByName("text"))
	require.True(t, ok)
	require.Equal(t, "hello-b-c", got)
}

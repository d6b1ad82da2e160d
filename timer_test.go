package sceneflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// A TimerNode computes timeDelta as the difference between successive
// explicitly supplied ticker_us values and rejects a ticker_us that
// moves backwards in time or is negative.
func TestTimerMonotonicity(t *testing.T) {
	var now int64
	eng := NewEngine(Config{})
	timer, err := eng.CreateTimerNode(TimerNodeConfig{Name: "clock", Now: func() int64 { return now }})
	require.NoError(t, err)

	require.NoError(t, Set[int64](timer.In().ChildByName("ticker_us"), 1_000_000))
	ok, err := eng.Update()
	require.True(t, ok)
	require.NoError(t, err)
	delta, _ := Get[float64](timer.Out().ChildByName("timeDelta"))
	require.Equal(t, 0.0, delta)
	ticker, _ := Get[int64](timer.Out().ChildByName("ticker_us"))
	require.Equal(t, int64(1_000_000), ticker)

	require.NoError(t, Set[int64](timer.In().ChildByName("ticker_us"), 2_500_000))
	ok, err = eng.Update()
	require.True(t, ok)
	require.NoError(t, err)
	delta, _ = Get[float64](timer.Out().ChildByName("timeDelta"))
	require.InDelta(t, 1.5, delta, 1e-9)

	// A ticker_us that moves backwards is rejected without advancing
	// the timer's own state.
	require.NoError(t, Set[int64](timer.In().ChildByName("ticker_us"), 1_000_000))
	ok, err = eng.Update()
	require.False(t, ok)
	require.Error(t, err)
	ee, isEngineErr := err.(*EngineError)
	require.True(t, isEngineErr)
	require.Equal(t, KindUpdateInput, ee.Kind)

	// A negative ticker_us is rejected the same way.
	require.NoError(t, Set[int64](timer.In().ChildByName("ticker_us"), -1))
	ok, err = eng.Update()
	require.False(t, ok)
	require.Error(t, err)
	ee, isEngineErr = err.(*EngineError)
	require.True(t, isEngineErr)
	require.Equal(t, KindUpdateInput, ee.Kind)
}

package sceneflow

import "time"

var processStart = time.Now()

// defaultMonotonicMicros returns microseconds elapsed since process
// start, using Go's monotonic clock reading (time.Since never observes
// wall-clock adjustments).
func defaultMonotonicMicros() int64 {
	return time.Since(processStart).Microseconds()
}

// TimerNodeConfig is a TimerNode's creation-time configuration.
type TimerNodeConfig struct {
	Name string
	// Now supplies wall-clock microseconds when the caller lets the
	// engine drive ticker_us itself (ticker_us input == 0). Defaults to
	// a monotonic microsecond clock if nil.
	Now func() int64
}

type timerNodeImpl struct {
	now        func() int64
	lastTicker int64
	haveLast   bool
}

// CreateTimerNode creates a TimerNode exposing a ticker_us input and
// timeDelta/ticker_us outputs (spec §4.6).
func (e *Engine) CreateTimerNode(cfg TimerNodeConfig) (*Node, error) {
	e.clearErrors()
	now := cfg.Now
	if now == nil {
		now = defaultMonotonicMicros
	}
	impl := &timerNodeImpl{now: now}

	n := &Node{handle: e.allocID(), name: cfg.Name, kind: KindTimerNode, dirty: true, impl: impl}
	n.in = &Property{node: n, typ: TypeStruct, semantics: SemanticsScriptInput}
	n.in.children = []*Property{
		{node: n, parent: n.in, name: "ticker_us", typ: TypeInt64, semantics: SemanticsScriptInput, value: int64(0)},
	}
	n.out = &Property{node: n, typ: TypeStruct, semantics: SemanticsScriptOutput}
	n.out.children = []*Property{
		{node: n, parent: n.out, name: "timeDelta", typ: TypeFloat, semantics: SemanticsScriptOutput, value: float64(0)},
		{node: n, parent: n.out, name: "ticker_us", typ: TypeInt64, semantics: SemanticsScriptOutput, value: int64(0)},
	}

	e.registerNode(n)
	return n, nil
}

func (t *timerNodeImpl) update(eng *Engine, n *Node) error {
	tickerIn, _ := Get[int64](n.in.ChildByName("ticker_us"))

	effective := tickerIn
	if tickerIn == 0 {
		effective = t.now()
	} else if tickerIn < 0 {
		return newErr(KindUpdateInput, n.ID(), "timer: ticker_us must be non-negative, got %d", tickerIn)
	}

	if t.haveLast && effective < t.lastTicker {
		return newErr(KindUpdateInput, n.ID(), "timer: ticker_us must be monotonically non-decreasing, got %d after %d", effective, t.lastTicker)
	}

	var delta float64
	if t.haveLast {
		delta = float64(effective-t.lastTicker) / 1e6
	}
	t.lastTicker = effective
	t.haveLast = true

	setInternal(n.out.ChildByName("timeDelta"), delta)
	setInternal(n.out.ChildByName("ticker_us"), effective)
	return nil
}

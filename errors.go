package sceneflow

import "fmt"

// ErrorKind classifies a failure recorded on the engine's error list (spec
// §7). Every fallible Engine method appends an [EngineError] to the
// engine's error list in addition to returning ok=false / a non-nil
// error; the free functions Get and Set return errors without recording
// them.
type ErrorKind uint8

const (
	// KindValidation covers type/direction mismatches, empty data arrays,
	// illegal container links, and duplicate declarations.
	KindValidation ErrorKind = iota
	// KindLookup covers an object from another engine or a missing child.
	KindLookup
	// KindCompilation covers a script source rejected by the compiler; the
	// message quotes the compiler's diagnostic verbatim.
	KindCompilation
	// KindRuntime covers a script execution failure during update; carries
	// the offending node's identity.
	KindRuntime
	// KindCycle covers a topological sort that could not consume all nodes.
	KindCycle
	// KindSerialization covers a failure while writing the binary format.
	KindSerialization
	// KindDeserialization covers a failure while reading the binary format;
	// Sub names a finer-grained reason.
	KindDeserialization
	// KindHostBinding covers a vanished host object, a kind mismatch, or a
	// binding invariant violation.
	KindHostBinding
	// KindUpdateInput covers timer monotonicity violations and negative
	// tickers.
	KindUpdateInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindLookup:
		return "LookupError"
	case KindCompilation:
		return "CompilationError"
	case KindRuntime:
		return "RuntimeError"
	case KindCycle:
		return "CycleDetected"
	case KindSerialization:
		return "SerializationError"
	case KindDeserialization:
		return "DeserializationError"
	case KindHostBinding:
		return "HostBindingError"
	case KindUpdateInput:
		return "UpdateInputError"
	default:
		return "UnknownError"
	}
}

// EngineError is a single entry on the engine's error list.
type EngineError struct {
	Kind ErrorKind
	// NodeID is the id of the node the error concerns, or 0 if not
	// node-specific.
	NodeID uint64
	// Sub is a finer-grained reason for KindDeserialization failures (e.g.
	// "unsupported file format version", "host object unresolvable").
	Sub     string
	Message string
}

func (e *EngineError) Error() string {
	if e.NodeID != 0 {
		return fmt.Sprintf("%s: node %d: %s", e.Kind, e.NodeID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newErr(kind ErrorKind, nodeID uint64, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

// record appends err to the engine's error list and returns it, so callers
// can write `return false, eng.record(...)`.
func (e *Engine) record(err *EngineError) error {
	e.errors = append(e.errors, err)
	e.log.Error().
		Str("kind", err.Kind.String()).
		Uint64("node_id", err.NodeID).
		Str("sub", err.Sub).
		Msg(err.Message)
	return err
}

// Errors returns every error recorded since the last top-level API call
// cleared the list. The returned slice must not be mutated.
func (e *Engine) Errors() []*EngineError {
	return e.errors
}

// clearErrors is called at the start of every top-level API call that can
// produce errors (spec §7).
func (e *Engine) clearErrors() {
	e.errors = e.errors[:0]
}

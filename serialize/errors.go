package serialize

import "fmt"

// LoadErrorReason enumerates the six documented reasons Decode (or the
// root package's node-reconstruction pass) can refuse a file (spec §6).
type LoadErrorReason uint8

const (
	// ReasonUnsupportedVersion: the file's fileFormatVersion is not one
	// this build supports.
	ReasonUnsupportedVersion LoadErrorReason = iota
	// ReasonMissingField: a field the format requires is absent.
	ReasonMissingField
	// ReasonHostObjectUnresolvable: a referenced host object cannot be
	// found by (kind, name, id).
	ReasonHostObjectUnresolvable
	// ReasonHostObjectKindMismatch: a resolved host object's kind does
	// not match the kind the binding was saved against.
	ReasonHostObjectKindMismatch
	// ReasonDanglingLink: a link references a property path that does
	// not exist on the named node.
	ReasonDanglingLink
	// ReasonInvariantViolated: a loaded value violates an engine
	// invariant (e.g. a negative or non-monotonic ticker_us).
	ReasonInvariantViolated
)

func (r LoadErrorReason) String() string {
	switch r {
	case ReasonUnsupportedVersion:
		return "unsupported file format version"
	case ReasonMissingField:
		return "required field absent"
	case ReasonHostObjectUnresolvable:
		return "host object unresolvable"
	case ReasonHostObjectKindMismatch:
		return "host object kind mismatch"
	case ReasonDanglingLink:
		return "link references a nonexistent property"
	case ReasonInvariantViolated:
		return "invariant violated"
	default:
		return "unknown load failure"
	}
}

// LoadError is returned by Decode when the buffer cannot be turned into
// a Document at all (a malformed or truncated binary). The root
// package's reconstruction pass produces its own richer errors for the
// reasons that require engine context (host resolution, link
// resolution, invariant checks); Decode itself can only ever detect
// ReasonUnsupportedVersion and ReasonMissingField.
type LoadError struct {
	Reason LoadErrorReason
	Detail string
}

func (e *LoadError) Error() string {
	if e.Detail == "" {
		return e.Reason.String()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func newLoadError(reason LoadErrorReason, format string, args ...any) *LoadError {
	return &LoadError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

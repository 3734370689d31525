package bgpnet

import "fmt"

// InvariantViolation signals that a SendQueue invariant from spec
// §3/§4.2 was broken: a withdrawal replacing a withdrawal, or an
// announcement replacing an announcement without an intervening
// withdrawal. Only SendQueue.AddAnn returns it; no check raises it for
// a route carrying the owning AS's own ASN at emission.
// Per spec §7 this is always a bug in the engine or an extension, never
// a recoverable runtime condition — callers should abort the trial.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("bgpnet: invariant violation: %s", e.Detail)
}

func newInvariantViolation(format string, args ...any) error {
	return &InvariantViolation{Detail: fmt.Sprintf(format, args...)}
}

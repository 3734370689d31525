// Package analyzer implements the outcome analyzer (spec §4.8): it
// classifies every AS on the control plane (which route it chose) and
// the data plane (where traffic actually ends up, via SAV-gated
// traceback).
package analyzer

import (
	"go.uber.org/zap"

	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/sav"
	"github.com/routesim/bgpsim/internal/scenario"
	"github.com/routesim/bgpsim/internal/topology"
)

// Outcome is the per-AS classification spec §3 defines.
type Outcome int

const (
	Undetermined Outcome = iota
	AttackerSuccess
	VictimSuccess
	Disconnected
)

func (o Outcome) String() string {
	switch o {
	case AttackerSuccess:
		return "attacker_success"
	case VictimSuccess:
		return "victim_success"
	case Disconnected:
		return "disconnected"
	default:
		return "undetermined"
	}
}

// Result is the analyzer's output for one converged trial.
type Result struct {
	ControlPlane map[bgpnet.ASN]Outcome
	DataPlane    map[bgpnet.ASN]Outcome
}

// TracebackCycle reports that data-plane traceback revisited an AS
// still mid-computation — a forwarding loop. Logged, not fatal: the
// offending AS is resolved to Disconnected (spec §7).
type TracebackCycle struct {
	ASN bgpnet.ASN
}

func (e *TracebackCycle) Error() string {
	return "analyzer: traceback cycle detected at AS " + e.ASN.String()
}

// Analyze computes Result for every AS in g, given the scenario's role
// sets and most-specific-first prefix order.
func Analyze(g *topology.Graph, sc *scenario.Scenario, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	res := Result{
		ControlPlane: make(map[bgpnet.ASN]Outcome, len(g.AsDict)),
		DataPlane:    make(map[bgpnet.ASN]Outcome, len(g.AsDict)),
	}
	for asn := range g.AsDict {
		res.ControlPlane[asn] = controlPlaneOutcome(g, sc, asn)
	}

	t := &tracer{graph: g, scenario: sc, logger: logger, memo: make(map[bgpnet.ASN]Outcome, len(g.AsDict))}
	for asn := range g.AsDict {
		res.DataPlane[asn] = t.dataPlaneOutcome(asn)
	}
	return res
}

// mostSpecificAnn returns the Local RIB entry for the most specific
// prefix in sc.PrefixOrder that a holds a route for.
func mostSpecificAnn(a *topology.AS, prefixOrder []string) (bgpnet.Announcement, bool) {
	if a.Policy == nil {
		return bgpnet.Announcement{}, false
	}
	for _, prefix := range prefixOrder {
		if ann, ok := a.Policy.LocalRIB().Get(prefix); ok {
			return ann, true
		}
	}
	return bgpnet.Announcement{}, false
}

// controlPlaneOutcome implements spec §4.8's control-plane rule. It is
// deliberately non-recursive — it only ever inspects the AS's own
// Local RIB, never another AS's state (the bug spec §9 flags in the
// source, where the control-plane path calls into the data-plane
// determiner, is not reproduced here).
func controlPlaneOutcome(g *topology.Graph, sc *scenario.Scenario, asn bgpnet.ASN) Outcome {
	a, ok := g.AsDict[asn]
	if !ok {
		return Disconnected
	}
	ann, ok := mostSpecificAnn(a, sc.PrefixOrder)
	if !ok {
		return Disconnected
	}
	switch {
	case sc.AttackerASNs[ann.OriginASN]:
		return AttackerSuccess
	case sc.VictimASNs[ann.OriginASN]:
		return VictimSuccess
	default:
		return Disconnected
	}
}

// tracer holds the memoization table for the recursive data-plane
// traceback.
type tracer struct {
	graph    *topology.Graph
	scenario *scenario.Scenario
	logger   *zap.Logger
	memo     map[bgpnet.ASN]Outcome
	inFlight map[bgpnet.ASN]bool
}

func (t *tracer) dataPlaneOutcome(asn bgpnet.ASN) Outcome {
	if out, ok := t.memo[asn]; ok {
		return out
	}
	if t.inFlight == nil {
		t.inFlight = make(map[bgpnet.ASN]bool)
	}
	if t.inFlight[asn] {
		t.logger.Warn("traceback cycle detected", zap.Uint32("asn", uint32(asn)), zap.Error(&TracebackCycle{ASN: asn}))
		return Disconnected
	}
	t.inFlight[asn] = true
	out := t.compute(asn)
	delete(t.inFlight, asn)
	t.memo[asn] = out
	return out
}

func (t *tracer) compute(asn bgpnet.ASN) Outcome {
	if t.scenario.AttackerASNs[asn] {
		return AttackerSuccess
	}
	if t.scenario.VictimASNs[asn] {
		return VictimSuccess
	}

	a, ok := t.graph.AsDict[asn]
	if !ok {
		return Disconnected
	}
	ann, ok := mostSpecificAnn(a, t.scenario.PrefixOrder)
	if !ok || len(ann.ASPath) <= 1 || ann.RecvRelationship == bgpnet.Origin || ann.TracebackEnd {
		return Disconnected
	}

	nextHop := ann.ASPath[1]
	// The packet travels asn -> nextHop, so it is nextHop that must
	// validate the arrival: asn is the ingress neighbor (the AS we just
	// left) from nextHop's point of view, per spec §4.8.
	if nextHopAS, ok := t.graph.AsDict[nextHop]; ok && nextHopAS.SAV != nil {
		ctx := sav.Context{
			SourcePrefix:        ann.Prefix,
			IngressNeighbor:     asn,
			IngressRelationship: nextHopAS.RelationshipTo(asn),
			LocalRIB:            nextHopAS.Policy.LocalRIB(),
			RIBsIn:              nextHopAS.Policy.RIBsIn(),
		}
		if !nextHopAS.SAV.Accepts(ctx) {
			t.logger.Debug("sav rejected forwarded traffic",
				zap.Uint32("asn", uint32(nextHop)),
				zap.Uint32("ingress_neighbor", uint32(asn)),
				zap.String("prefix", ann.Prefix))
			return Disconnected
		}
	}

	return t.dataPlaneOutcome(nextHop)
}

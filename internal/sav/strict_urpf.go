package sav

import "github.com/routesim/bgpsim/internal/bgpnet"

// StrictURPF accepts traffic on a customer/peer interface only when the
// AS's own best route to the source prefix points back out that same
// interface (a symmetric route); provider interfaces always accept.
//
// The original strict-uRPF check this is grounded on tested
// "prev_hop not in customers OR prev_hop not in peers", which is
// tautological — an ASN can never be in both disjoint sets, so the
// condition was always true and the filter never fired. Spec §9
// corrects this to "prev_hop is a customer or a peer" (i.e. not a
// provider).
type StrictURPF struct{}

func (StrictURPF) Name() string { return "strict-urpf" }

func (StrictURPF) Accepts(ctx Context) bool {
	if ctx.IngressRelationship == bgpnet.Providers {
		return true
	}
	if ctx.LocalRIB == nil {
		return false
	}
	best, ok := ctx.LocalRIB.Get(ctx.SourcePrefix)
	if !ok {
		return false
	}
	if len(best.ASPath) < 2 {
		// Self-originated: no next hop to compare against an ingress link.
		return false
	}
	nextHop := best.ASPath[1]
	return nextHop == ctx.IngressNeighbor
}

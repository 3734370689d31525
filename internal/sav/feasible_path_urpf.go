package sav

import "github.com/routesim/bgpsim/internal/bgpnet"

// FeasibleURPF accepts traffic on a customer/peer interface when *any*
// route the AS has heard for the source prefix — not just its
// selected best route — was received from that same ingress neighbor.
// Provider interfaces always accept.
type FeasibleURPF struct{}

func (FeasibleURPF) Name() string { return "feasible-path-urpf" }

func (FeasibleURPF) Accepts(ctx Context) bool {
	if ctx.IngressRelationship == bgpnet.Providers {
		return true
	}
	if ctx.RIBsIn == nil {
		return false
	}
	found := false
	ctx.RIBsIn.ForPrefix(ctx.SourcePrefix, func(neighbor bgpnet.ASN, _ bgpnet.Announcement) {
		if neighbor == ctx.IngressNeighbor {
			found = true
		}
	})
	return found
}

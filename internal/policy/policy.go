package policy

import (
	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/security"
)

// Delivery pairs an outgoing announcement with the neighbor it should
// be handed to — the unit the scheduler drains from PropagateTo and
// hands to the receiving AS's Policy.Receive.
type Delivery struct {
	Neighbor bgpnet.ASN
	Ann      bgpnet.Announcement
}

// Policy is the per-AS route-processing engine (spec §4.3): it buffers
// incoming announcements, selects a best route per prefix, and decides
// what to propagate onward. BGP-Simple and BGP-Full are the two
// concrete implementations; neither holds a reference to its owning
// AS — the scheduler supplies the AS's identity and neighbor sets as
// plain arguments, per spec §9's note on dropping the
// "policy_self, self" dual-receiver pattern.
type Policy interface {
	// Receive buffers ann, arriving from neighbor under recvRel (the
	// relationship as this AS perceives the sender).
	Receive(neighbor bgpnet.ASN, ann bgpnet.Announcement, recvRel bgpnet.Relationship)

	// ProcessIncoming runs route selection over everything buffered by
	// Receive since the last call, storing results into the Local RIB.
	ProcessIncoming(selfASN bgpnet.ASN, ctx security.Context) error

	// PropagateTo computes the announcements (and, for BGP-Full,
	// withdrawals) this AS should send in direction rel, to each of
	// neighbors.
	PropagateTo(selfASN bgpnet.ASN, rel bgpnet.Relationship, neighbors []bgpnet.ASN, ctx security.Context) []Delivery

	LocalRIB() *bgpnet.LocalRIB

	// RIBsIn exposes the full Adj-RIBs-In set FeasibleURPF needs to
	// check every heard route for a prefix, not just the selected best
	// one (spec §4.5). BGP-Simple keeps no such persistent store and
	// returns nil.
	RIBsIn() *bgpnet.AdjRIBsIn

	// Reset clears all engine-owned state between trials (spec §4.7).
	Reset()
}

// exportable implements the Gao-Rexford valley-free export filter of
// spec §4.3: routes learned from customers (or self-originated) may be
// sent anywhere; routes learned from peers or providers may only be
// sent to customers.
func exportable(direction bgpnet.Relationship, storedRecvRel bgpnet.Relationship) bool {
	if direction == bgpnet.Customers {
		return true
	}
	return storedRecvRel == bgpnet.Origin || storedRecvRel == bgpnet.Customers
}

// selectBest applies the security gate, loop check, and Gao-Rexford
// ranking shared by both policy engines to pick the best of candidates
// (already tagged with their RecvRelationship) for one prefix. Winning
// candidates are passed through finalize here, so the result can be
// stored in the Local RIB as is; current is returned unchanged when no
// candidate beats it.
func selectBest(selfASN bgpnet.ASN, exts []security.Extension, secCtx security.Context, current *bgpnet.Announcement, candidates []bgpnet.Announcement) *bgpnet.Announcement {
	var best *bgpnet.Announcement
	if current != nil {
		cur := *current
		best = &cur
	}
	for i := range candidates {
		cand := candidates[i]
		if cand.Loops(selfASN) {
			continue
		}
		if !security.Accept(exts, cand, secCtx) {
			continue
		}
		if best == nil {
			finalized := finalize(selfASN, cand)
			best = &finalized
			continue
		}
		if Better(*best, cand) {
			finalized := finalize(selfASN, cand)
			best = &finalized
		}
	}
	return best
}

// finalize performs the one-time self-prepend, seed clear, and keeps
// the already-stamped RecvRelationship when an AS selects a freshly
// received candidate as its new best route (spec §4.3/§3 Local RIB
// invariant: as_path[0] == the owning AS's ASN).
func finalize(selfASN bgpnet.ASN, ann bgpnet.Announcement) bgpnet.Announcement {
	return ann.CopyWith(bgpnet.WithPrependedASN(selfASN), bgpnet.WithSeedASN(nil))
}

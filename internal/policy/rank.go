// Package policy implements the Gao-Rexford route selection and
// propagation logic (spec §4.3): the BGP-Simple and BGP-Full policy
// engines, and the ranking function they share.
package policy

import "github.com/routesim/bgpsim/internal/bgpnet"

// Better reports whether candidate should replace incumbent as an AS's
// best route for a prefix, per the Gao-Rexford ranking of spec §4.3:
//
//  1. Local preference: candidate.RecvRelationship > incumbent's.
//  2. Shortest AS path: incumbent already carries the owning AS's
//     self-prepend, so its length compares directly; candidate has not
//     been prepended yet, so its effective length is len(ASPath)+1.
//  3. Lowest neighbor ASN tie-break: the AS each route was received
//     from — incumbent.ASPath[1] (the hop after the owning AS's own
//     prepend) vs candidate.ASPath[0].
//
// incumbent and candidate are assumed to have already passed the
// security gate and loop check (spec §4.3 steps 1-2); Better only
// implements the ranking steps that follow.
func Better(incumbent, candidate bgpnet.Announcement) bool {
	if candidate.RecvRelationship != incumbent.RecvRelationship {
		return candidate.RecvRelationship > incumbent.RecvRelationship
	}

	incumbentLen := len(incumbent.ASPath)
	candidateLen := len(candidate.ASPath) + 1
	if candidateLen != incumbentLen {
		return candidateLen < incumbentLen
	}

	incumbentNeighbor := neighborHop(incumbent)
	candidateNeighbor := candidate.ASPath[0]
	return candidateNeighbor < incumbentNeighbor
}

// neighborHop returns the AS the incumbent route was received from:
// the hop immediately following the owning AS's own self-prepend.
func neighborHop(ann bgpnet.Announcement) bgpnet.ASN {
	if len(ann.ASPath) < 2 {
		return ann.ASPath[0]
	}
	return ann.ASPath[1]
}

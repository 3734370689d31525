// Package topology models the AS graph: nodes (ASes) with their
// customer/peer/provider relationships, customer-cone sizes used to
// order propagation, and a CAIDA serial-2-style relationship loader.
package topology

import (
	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/policy"
	"github.com/routesim/bgpsim/internal/sav"
)

// AS is one node of the graph. Relationships are partitioned into
// three disjoint sets (spec §3); the Graph owns every AS, edges are
// back-references by ASN, never ownership (spec §9's arena note).
type AS struct {
	ASN bgpnet.ASN

	Customers map[bgpnet.ASN]bool
	Peers     map[bgpnet.ASN]bool
	Providers map[bgpnet.ASN]bool

	// Policy is replaced wholesale by Scenario.SetupEngine when the
	// adoption assignment for a trial changes which policy class this
	// AS runs (spec §4.7) — never mutated in place.
	Policy policy.Policy

	// SAV is sav.None{} for ASes that have not adopted source address
	// validation.
	SAV sav.Validator

	// CustomerConeSize is the count of ASes transitively reachable via
	// customer links, inclusive of this AS — used by the scheduler to
	// order the customer->provider and provider->customer sweeps (spec
	// §4.6). Computed once per Graph by ComputeCustomerCones.
	CustomerConeSize int
}

// NewAS returns an AS with empty relationship sets and no policy
// assigned; the caller (Graph loader, or a Scenario re-assigning
// classes) is responsible for setting Policy before use.
func NewAS(asn bgpnet.ASN) *AS {
	return &AS{
		ASN:       asn,
		Customers: make(map[bgpnet.ASN]bool),
		Peers:     make(map[bgpnet.ASN]bool),
		Providers: make(map[bgpnet.ASN]bool),
		SAV:       sav.None{},
	}
}

// RelationshipTo reports how this AS perceives neighbor: the tag a
// receiver stamps onto an announcement arriving from that neighbor
// (spec §4.6), independent of which propagation phase delivered it.
func (a *AS) RelationshipTo(neighbor bgpnet.ASN) bgpnet.Relationship {
	switch {
	case a.Customers[neighbor]:
		return bgpnet.Customers
	case a.Peers[neighbor]:
		return bgpnet.Peers
	case a.Providers[neighbor]:
		return bgpnet.Providers
	default:
		return bgpnet.UnsetRelationship
	}
}

// Neighbors returns the ASNs of every neighbor reachable via rel.
func (a *AS) Neighbors(rel bgpnet.Relationship) []bgpnet.ASN {
	var set map[bgpnet.ASN]bool
	switch rel {
	case bgpnet.Customers:
		set = a.Customers
	case bgpnet.Peers:
		set = a.Peers
	case bgpnet.Providers:
		set = a.Providers
	default:
		return nil
	}
	out := make([]bgpnet.ASN, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	return out
}

// Package security implements the route-validity gate extensions that
// plug into route selection (spec §4.4): ROV, Path-End, ASPA, BGPsec,
// and Only-To-Customers. Each extension is a small, independently
// testable value — not a subclass in a policy hierarchy (spec §9's
// "Polymorphic policy classes" design note) — composed by Accept.
package security

import "github.com/routesim/bgpsim/internal/bgpnet"

// Context carries the data an Extension needs beyond the announcement
// itself: which AS is evaluating the route, the attestation registries
// a scenario publishes, and (for OTC) a customer-cone membership
// predicate supplied by the topology graph. Kept decoupled from the
// topology and scenario packages to avoid an import cycle — the engine
// builds each Context from them rather than their being imported here.
type Context struct {
	SelfASN      bgpnet.ASN
	Attestations *Attestations
	// IsCustomerOf reports whether asn is a (possibly transitive)
	// customer of of, per the AS graph's customer cones.
	IsCustomerOf func(asn, of bgpnet.ASN) bool
	// Direction is the relationship the candidate route would be
	// re-advertised toward, used by the OTC check.
	Direction bgpnet.Relationship
}

// Attestations is the registry of out-of-band security data a Scenario
// publishes for its topology: Path-End last-hop records, ASPA
// provider-authorization records, and which ASes are known BGPsec
// signers. A nil *Attestations is treated as "nothing attested" —
// every lookup misses: Path-End returns Valid (no record published),
// ASPA returns Unknown (attestation set incomplete), and BGPsec returns
// Invalid for any signed path (no hop is a known signer) while unsigned
// routes stay Unknown, per spec §4.4.
type Attestations struct {
	// PathEndRecords maps an origin ASN to the ASN its publisher
	// requires as the penultimate AS-path hop.
	PathEndRecords map[bgpnet.ASN]bgpnet.ASN
	// ASPARecords maps a customer ASN to the set of provider ASNs it
	// authorizes to carry routes on its behalf.
	ASPARecords map[bgpnet.ASN]map[bgpnet.ASN]bool
	// BGPsecSigners is the set of ASNs that correctly and verifiably
	// sign BGPsec path segments.
	BGPsecSigners map[bgpnet.ASN]bool
}

// HasPathEnd reports whether origin published a Path-End record, and
// returns it.
func (a *Attestations) HasPathEnd(origin bgpnet.ASN) (bgpnet.ASN, bool) {
	if a == nil || a.PathEndRecords == nil {
		return 0, false
	}
	asn, ok := a.PathEndRecords[origin]
	return asn, ok
}

// HasASPA reports whether customer published an ASPA record, and
// whether it authorizes provider.
func (a *Attestations) HasASPA(customer, provider bgpnet.ASN) (authorized bool, published bool) {
	if a == nil || a.ASPARecords == nil {
		return false, false
	}
	set, ok := a.ASPARecords[customer]
	if !ok {
		return false, false
	}
	return set[provider], true
}

// IsBGPsecSigner reports whether asn is a known, correctly-signing
// BGPsec speaker.
func (a *Attestations) IsBGPsecSigner(asn bgpnet.ASN) bool {
	if a == nil || a.BGPsecSigners == nil {
		return false
	}
	return a.BGPsecSigners[asn]
}

// Extension validates a candidate announcement as part of the route
// selection gate (spec §4.3 step 1).
type Extension interface {
	Name() string
	Validate(ann bgpnet.Announcement, ctx Context) bgpnet.Validity
}

// Accept implements the selection gate of spec §4.3 step 1: a route is
// accepted only if every enabled extension returns Valid or Unknown.
// BGPsec/ASPA "unknown" is treated as valid per spec; Unknown from any
// extension therefore never blocks acceptance on its own — only an
// explicit Invalid does.
func Accept(exts []Extension, ann bgpnet.Announcement, ctx Context) bool {
	for _, ext := range exts {
		if ext.Validate(ann, ctx) == bgpnet.Invalid {
			return false
		}
	}
	return true
}

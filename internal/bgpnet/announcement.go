package bgpnet

import "slices"

// Announcement is an immutable route advertisement record (spec §3).
// Every mutation in the engine produces a new value via CopyWith; nothing
// ever edits a field of an Announcement already stored in a RIB.
type Announcement struct {
	Prefix           string
	ASPath           []ASN // index 0 = most recent hop, last = origin
	NextHopASN       ASN
	OriginASN        ASN
	RecvRelationship Relationship
	SeedASN          *ASN // set only on scenario-injected announcements
	TracebackEnd     bool
	Withdraw         bool

	ROAValid         Validity
	BGPsecPath       []ASN // nil if unsigned/unverified
	OnlyToCustomers  *ASN  // OTC attribute ASN, nil if absent
	PathEndValid     Validity
	ASPAValid        Validity
}

// Option mutates a copy of an Announcement inside CopyWith.
type Option func(*Announcement)

// WithASPath replaces the AS path.
func WithASPath(path []ASN) Option {
	return func(a *Announcement) { a.ASPath = slices.Clone(path) }
}

// WithPrependedASN prepends asn to the front of the AS path (the "self
// prepend" every AS performs before storing a route in its Local RIB).
func WithPrependedASN(asn ASN) Option {
	return func(a *Announcement) {
		a.ASPath = append([]ASN{asn}, a.ASPath...)
	}
}

// WithRecvRelationship sets the relationship under which the receiver
// sees this announcement.
func WithRecvRelationship(r Relationship) Option {
	return func(a *Announcement) { a.RecvRelationship = r }
}

// WithSeedASN sets or clears (nil) the seed marker.
func WithSeedASN(asn *ASN) Option {
	return func(a *Announcement) { a.SeedASN = asn }
}

// WithWithdraw marks the copy as a withdrawal.
func WithWithdraw(w bool) Option {
	return func(a *Announcement) { a.Withdraw = w }
}

// CopyWith returns a new Announcement with the given options applied on
// top of a value copy of ann. ann itself is never mutated.
func (ann Announcement) CopyWith(opts ...Option) Announcement {
	out := ann
	out.ASPath = slices.Clone(ann.ASPath)
	if ann.BGPsecPath != nil {
		out.BGPsecPath = slices.Clone(ann.BGPsecPath)
	}
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// ClearSeed returns a copy with SeedASN reset to nil — every re-announced
// (i.e. non-originated) route clears this marker (spec §4.3).
func (ann Announcement) ClearSeed() Announcement {
	return ann.CopyWith(WithSeedASN(nil))
}

// PrefixPathAttributesEq reports whether ann and other describe "the same
// route" per spec §4.1: prefix, AS path, next hop, origin, and security
// attributes must match. RecvRelationship, SeedASN, TracebackEnd and
// Withdraw are not compared — leaving out Withdraw is what lets an
// announcement and its own withdrawal collapse per the SendQueue
// invariants.
func (ann Announcement) PrefixPathAttributesEq(other Announcement) bool {
	if ann.Prefix != other.Prefix {
		return false
	}
	if !slices.Equal(ann.ASPath, other.ASPath) {
		return false
	}
	if ann.NextHopASN != other.NextHopASN || ann.OriginASN != other.OriginASN {
		return false
	}
	if ann.ROAValid != other.ROAValid || ann.PathEndValid != other.PathEndValid || ann.ASPAValid != other.ASPAValid {
		return false
	}
	if !optASNEq(ann.OnlyToCustomers, other.OnlyToCustomers) {
		return false
	}
	if !slices.Equal(ann.BGPsecPath, other.BGPsecPath) {
		return false
	}
	return true
}

func optASNEq(a, b *ASN) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Loops reports whether selfASN already appears anywhere in the AS path —
// the BGP loop-prevention check of spec §4.3 step 2.
func (ann Announcement) Loops(selfASN ASN) bool {
	return slices.Contains(ann.ASPath, selfASN)
}

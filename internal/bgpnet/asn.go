// Package bgpnet holds the immutable route record and the per-AS RIB
// containers the policy engine operates on: the Announcement, the Local
// RIB, Adj-RIBs-In, and the SendQueue staging area.
package bgpnet

import "fmt"

// ASN is a 32-bit Autonomous System Number.
type ASN uint32

func (a ASN) String() string { return fmt.Sprintf("AS%d", uint32(a)) }

// Relationship identifies how an announcement was received (or, for a
// seeded route, that it has no upstream neighbor at all).
//
// The numeric ordering is load-bearing: it is compared directly during
// Gao-Rexford local-preference ranking (spec §4.3 step 3), so it is
// pinned here as explicit values rather than left to declaration order.
type Relationship int

const (
	// UnsetRelationship marks an Announcement that has not yet been
	// classified; a valid Local RIB entry never carries it.
	UnsetRelationship Relationship = 0
	Providers         Relationship = 1
	Peers             Relationship = 2
	Customers         Relationship = 3
	Origin            Relationship = 4
)

func (r Relationship) String() string {
	switch r {
	case Providers:
		return "PROVIDERS"
	case Peers:
		return "PEERS"
	case Customers:
		return "CUSTOMERS"
	case Origin:
		return "ORIGIN"
	default:
		return "UNSET"
	}
}

// Validity is the tri-state result of a security-extension check
// (spec §3): an extension may assert a route is valid, invalid, or
// leave the question unknown (e.g. missing attestations).
type Validity int

const (
	Unknown Validity = iota
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

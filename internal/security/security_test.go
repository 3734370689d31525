package security

import (
	"testing"

	"github.com/routesim/bgpsim/internal/bgpnet"
)

func TestROV_InvalidROARejects(t *testing.T) {
	ann := bgpnet.Announcement{Prefix: "10.0.0.0/24", ROAValid: bgpnet.Invalid}
	if got := (ROV{}).Validate(ann, Context{}); got != bgpnet.Invalid {
		t.Fatalf("expected Invalid, got %v", got)
	}
}

func TestROV_UnknownOrValidROAAccepts(t *testing.T) {
	for _, v := range []bgpnet.Validity{bgpnet.Valid, bgpnet.Unknown} {
		ann := bgpnet.Announcement{Prefix: "10.0.0.0/24", ROAValid: v}
		if got := (ROV{}).Validate(ann, Context{}); got != bgpnet.Valid {
			t.Fatalf("ROAValid=%v: expected Valid, got %v", v, got)
		}
	}
}

func TestPeerROV_CustomerReceivedRoutesBypassCheck(t *testing.T) {
	ann := bgpnet.Announcement{Prefix: "10.0.0.0/24", ROAValid: bgpnet.Invalid, RecvRelationship: bgpnet.Customers}
	if got := (PeerROV{}).Validate(ann, Context{}); got != bgpnet.Valid {
		t.Fatalf("expected customer-received invalid-ROA route to pass peer-rov, got %v", got)
	}
	ann.RecvRelationship = bgpnet.Peers
	if got := (PeerROV{}).Validate(ann, Context{}); got != bgpnet.Invalid {
		t.Fatalf("expected peer-received invalid-ROA route to be rejected, got %v", got)
	}
}

func TestPathEnd_NoRecordPublishedIsValid(t *testing.T) {
	ann := bgpnet.Announcement{OriginASN: 5, ASPath: []bgpnet.ASN{2, 3, 5}}
	ctx := Context{Attestations: &Attestations{}}
	if got := (PathEnd{}).Validate(ann, ctx); got != bgpnet.Valid {
		t.Fatalf("expected Valid with no published record, got %v", got)
	}
}

func TestPathEnd_MismatchedPenultimateIsInvalid(t *testing.T) {
	ann := bgpnet.Announcement{OriginASN: 5, ASPath: []bgpnet.ASN{2, 3, 5}}
	ctx := Context{Attestations: &Attestations{PathEndRecords: map[bgpnet.ASN]bgpnet.ASN{5: 99}}}
	if got := (PathEnd{}).Validate(ann, ctx); got != bgpnet.Invalid {
		t.Fatalf("expected Invalid for mismatched penultimate hop, got %v", got)
	}
}

func TestPathEnd_MatchingPenultimateIsValid(t *testing.T) {
	ann := bgpnet.Announcement{OriginASN: 5, ASPath: []bgpnet.ASN{2, 3, 5}}
	ctx := Context{Attestations: &Attestations{PathEndRecords: map[bgpnet.ASN]bgpnet.ASN{5: 3}}}
	if got := (PathEnd{}).Validate(ann, ctx); got != bgpnet.Valid {
		t.Fatalf("expected Valid for matching penultimate hop, got %v", got)
	}
}

func TestASPA_UnauthorizedHopIsInvalid(t *testing.T) {
	ann := bgpnet.Announcement{ASPath: []bgpnet.ASN{1, 2, 3}}
	ctx := Context{Attestations: &Attestations{ASPARecords: map[bgpnet.ASN]map[bgpnet.ASN]bool{
		3: {99: true},
	}}}
	if got := (ASPA{}).Validate(ann, ctx); got != bgpnet.Invalid {
		t.Fatalf("expected Invalid for unauthorized provider, got %v", got)
	}
}

func TestASPA_NoAttestationIsUnknown(t *testing.T) {
	ann := bgpnet.Announcement{ASPath: []bgpnet.ASN{1, 2, 3}}
	ctx := Context{Attestations: &Attestations{}}
	if got := (ASPA{}).Validate(ann, ctx); got != bgpnet.Unknown {
		t.Fatalf("expected Unknown with no attestations, got %v", got)
	}
}

func TestASPA_FullyAuthorizedChainIsValid(t *testing.T) {
	ann := bgpnet.Announcement{ASPath: []bgpnet.ASN{1, 2, 3}}
	ctx := Context{Attestations: &Attestations{ASPARecords: map[bgpnet.ASN]map[bgpnet.ASN]bool{
		3: {2: true},
		2: {1: true},
	}}}
	if got := (ASPA{}).Validate(ann, ctx); got != bgpnet.Valid {
		t.Fatalf("expected Valid for fully authorized chain, got %v", got)
	}
}

func TestBGPsec_UnsignedIsUnknown(t *testing.T) {
	ann := bgpnet.Announcement{ASPath: []bgpnet.ASN{1, 2, 3}}
	if got := (BGPsec{}).Validate(ann, Context{}); got != bgpnet.Unknown {
		t.Fatalf("expected Unknown for unsigned path, got %v", got)
	}
}

func TestBGPsec_UnknownSignerIsInvalid(t *testing.T) {
	ann := bgpnet.Announcement{ASPath: []bgpnet.ASN{1, 2, 3}, BGPsecPath: []bgpnet.ASN{1, 2, 3}}
	ctx := Context{Attestations: &Attestations{BGPsecSigners: map[bgpnet.ASN]bool{1: true, 2: true}}}
	if got := (BGPsec{}).Validate(ann, ctx); got != bgpnet.Invalid {
		t.Fatalf("expected Invalid when a hop is not a known signer, got %v", got)
	}
}

func TestOTC_BlocksNonCustomerExport(t *testing.T) {
	otc := bgpnet.ASN(7)
	ann := bgpnet.Announcement{OnlyToCustomers: &otc}
	ctx := Context{Direction: bgpnet.Providers}
	if got := (OTC{}).Validate(ann, ctx); got != bgpnet.Invalid {
		t.Fatalf("expected Invalid exporting OTC route to a provider, got %v", got)
	}
	ctx.Direction = bgpnet.Customers
	if got := (OTC{}).Validate(ann, ctx); got != bgpnet.Valid {
		t.Fatalf("expected Valid exporting OTC route to a customer, got %v", got)
	}
}

func TestOTC_AllowsReexportByTransitiveCustomerOfTaggingAS(t *testing.T) {
	otc := bgpnet.ASN(7)
	ann := bgpnet.Announcement{OnlyToCustomers: &otc}
	ctx := Context{
		SelfASN:      9,
		Direction:    bgpnet.Providers,
		IsCustomerOf: func(asn, of bgpnet.ASN) bool { return asn == 9 && of == 7 },
	}
	if got := (OTC{}).Validate(ann, ctx); got != bgpnet.Valid {
		t.Fatalf("expected Valid: self is a transitive customer of the tagging AS, got %v", got)
	}

	ctx.IsCustomerOf = func(asn, of bgpnet.ASN) bool { return false }
	if got := (OTC{}).Validate(ann, ctx); got != bgpnet.Invalid {
		t.Fatalf("expected Invalid: self is not a customer of the tagging AS, got %v", got)
	}
}

func TestAccept_InvalidFromAnyExtensionRejects(t *testing.T) {
	ann := bgpnet.Announcement{ROAValid: bgpnet.Invalid}
	ok := Accept([]Extension{ROV{}}, ann, Context{})
	if ok {
		t.Fatalf("expected Accept to reject an invalid-ROA route")
	}
}

func TestAccept_UnknownPassesGate(t *testing.T) {
	ann := bgpnet.Announcement{ASPath: []bgpnet.ASN{1, 2}}
	ok := Accept([]Extension{BGPsec{}}, ann, Context{})
	if !ok {
		t.Fatalf("expected Accept to pass an unsigned (Unknown) route")
	}
}

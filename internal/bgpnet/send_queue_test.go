package bgpnet

import "testing"

func mkAnn(prefix string, path ...ASN) Announcement {
	return Announcement{Prefix: prefix, ASPath: path, RecvRelationship: Customers}
}

func TestSendQueue_AddAnnThenWithdrawCollapses(t *testing.T) {
	q := NewSendQueue()
	ann := mkAnn("10.0.0.0/24", 2, 3)

	if err := q.AddAnn(1, ann); err != nil {
		t.Fatalf("unexpected error adding ann: %v", err)
	}

	withdrawal := ann.CopyWith(WithWithdraw(true))
	if err := q.AddAnn(1, withdrawal); err != nil {
		t.Fatalf("unexpected error adding withdrawal: %v", err)
	}

	if _, ok := q.GetSendInfo(1, ann.Prefix); ok {
		t.Fatalf("expected attribute-equal ann+withdrawal to collapse, but slot still present")
	}
	if !q.IsEmpty() {
		t.Fatalf("expected queue to be empty after collapse")
	}
}

func TestSendQueue_RejectsDoubleAnnouncement(t *testing.T) {
	q := NewSendQueue()
	ann := mkAnn("10.0.0.0/24", 2, 3)

	if err := q.AddAnn(1, ann); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := mkAnn("10.0.0.0/24", 2, 4)
	err := q.AddAnn(1, other)
	if err == nil {
		t.Fatalf("expected InvariantViolation replacing pending announcement without withdrawal")
	}
	if _, ok := err.(*InvariantViolation); !ok {
		t.Fatalf("expected *InvariantViolation, got %T", err)
	}
}

func TestSendQueue_RejectsDoubleWithdrawal(t *testing.T) {
	q := NewSendQueue()
	ann := mkAnn("10.0.0.0/24", 2, 3)
	withdrawal := ann.CopyWith(WithWithdraw(true))

	if err := q.AddAnn(1, withdrawal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := mkAnn("10.0.0.0/24", 2, 5).CopyWith(WithWithdraw(true))
	if err := q.AddAnn(1, other); err == nil {
		t.Fatalf("expected InvariantViolation replacing pending withdrawal")
	}
}

func TestSendQueue_DistinctWithdrawalKept(t *testing.T) {
	q := NewSendQueue()
	ann := mkAnn("10.0.0.0/24", 2, 3)
	if err := q.AddAnn(1, ann); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A withdrawal for a *different* route on the same prefix should not
	// collapse — both the stale announcement and the withdrawal of the
	// older route are observable via Anns().
	staleWithdrawal := mkAnn("10.0.0.0/24", 2, 9).CopyWith(WithWithdraw(true))
	if err := q.AddAnn(1, staleWithdrawal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, ok := q.GetSendInfo(1, ann.Prefix)
	if !ok {
		t.Fatalf("expected send info to remain present")
	}
	if info.Ann == nil || info.WithdrawalAnn == nil {
		t.Fatalf("expected both ann and withdrawal pending, got %+v", info)
	}
}

func TestSendQueue_InfoFiltersByNeighbor(t *testing.T) {
	q := NewSendQueue()
	if err := q.AddAnn(1, mkAnn("10.0.0.0/24", 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.AddAnn(2, mkAnn("10.0.0.0/24", 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var seen []ASN
	q.Info([]ASN{1}, func(neighbor ASN, prefix string, ann Announcement) {
		seen = append(seen, neighbor)
	})
	if len(seen) != 1 || seen[0] != 1 {
		t.Fatalf("expected only neighbor 1, got %v", seen)
	}
}

func TestAnnouncement_PrefixPathAttributesEqIgnoresRecvAndSeed(t *testing.T) {
	seed := ASN(7)
	a := mkAnn("10.0.0.0/24", 2, 3)
	a.SeedASN = &seed
	a.RecvRelationship = Customers

	b := mkAnn("10.0.0.0/24", 2, 3)
	b.SeedASN = nil
	b.RecvRelationship = Peers

	if !a.PrefixPathAttributesEq(b) {
		t.Fatalf("expected routes to be attribute-equal ignoring recv_relationship/seed_asn")
	}
}

func TestAnnouncement_LoopsDetectsSelfInPath(t *testing.T) {
	a := mkAnn("10.0.0.0/24", 2, 3, 1)
	if !a.Loops(1) {
		t.Fatalf("expected loop detection for ASN present in path")
	}
	if a.Loops(9) {
		t.Fatalf("did not expect loop detection for ASN absent from path")
	}
}

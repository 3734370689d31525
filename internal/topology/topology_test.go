package topology

import (
	"strings"
	"testing"

	"github.com/routesim/bgpsim/internal/bgpnet"
)

func TestLoadCAIDA_ParsesProviderAndPeerLines(t *testing.T) {
	input := "# comment\n1|2|-1\n2|3|-1\n2|9|0\n"
	g, err := LoadCAIDA(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.AsDict) != 4 {
		t.Fatalf("expected 4 ASes, got %d", len(g.AsDict))
	}
	if !g.AsDict[1].Customers[2] || !g.AsDict[2].Providers[1] {
		t.Fatalf("expected 1 provider of 2")
	}
	if !g.AsDict[2].Peers[9] || !g.AsDict[9].Peers[2] {
		t.Fatalf("expected symmetric peer link between 2 and 9")
	}
}

func TestLoadCAIDA_RejectsUnknownRelationshipCode(t *testing.T) {
	_, err := LoadCAIDA(strings.NewReader("1|2|7\n"))
	if err == nil {
		t.Fatalf("expected an error for an unknown relationship code")
	}
}

func TestComputeCustomerCones_LineTopology(t *testing.T) {
	// 1 <- 2 <- 3 (1 is provider of 2, 2 is provider of 3).
	g, err := LoadCAIDA(strings.NewReader("1|2|-1\n2|3|-1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.AsDict[3].CustomerConeSize != 1 {
		t.Fatalf("expected AS 3 (stub) cone size 1, got %d", g.AsDict[3].CustomerConeSize)
	}
	if g.AsDict[2].CustomerConeSize != 2 {
		t.Fatalf("expected AS 2 cone size 2, got %d", g.AsDict[2].CustomerConeSize)
	}
	if g.AsDict[1].CustomerConeSize != 3 {
		t.Fatalf("expected AS 1 cone size 3, got %d", g.AsDict[1].CustomerConeSize)
	}
}

func TestAscendingCustomerCone_OrdersStubsFirst(t *testing.T) {
	g, err := LoadCAIDA(strings.NewReader("1|2|-1\n2|3|-1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := g.AscendingCustomerCone()
	want := []bgpnet.ASN{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("expected %d ASes, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestAsnGroups_ClassifiesStubsAndInputClique(t *testing.T) {
	g, err := LoadCAIDA(strings.NewReader("1|2|-1\n2|3|-1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.AsnGroups["stubs_or_mh"][3] {
		t.Fatalf("expected AS 3 (no customers) in stubs_or_mh")
	}
	if !g.AsnGroups["input_clique"][1] {
		t.Fatalf("expected AS 1 (no providers) in input_clique")
	}
	if !g.AsnGroups["etc"][2] {
		t.Fatalf("expected AS 2 (has both) in etc")
	}
}

func TestAS_RelationshipTo(t *testing.T) {
	g, err := LoadCAIDA(strings.NewReader("1|2|-1\n2|9|0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.AsDict[2].RelationshipTo(1) != bgpnet.Providers {
		t.Fatalf("expected AS 2 to see AS 1 as a provider")
	}
	if g.AsDict[1].RelationshipTo(2) != bgpnet.Customers {
		t.Fatalf("expected AS 1 to see AS 2 as a customer")
	}
	if g.AsDict[2].RelationshipTo(9) != bgpnet.Peers {
		t.Fatalf("expected AS 2 to see AS 9 as a peer")
	}
}

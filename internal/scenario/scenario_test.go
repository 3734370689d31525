package scenario

import (
	"testing"

	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/policy"
	"github.com/routesim/bgpsim/internal/topology"
)

func simpleClass(name string) PolicyClass {
	return PolicyClass{Name: name, NewPolicy: func() policy.Policy { return policy.NewSimple(nil) }}
}

func lineGraph() *topology.Graph {
	g := topology.NewGraph()
	g.AddCustomerProvider(1, 2)
	g.AddCustomerProvider(2, 3)
	g.ComputeCustomerCones()
	return g
}

func TestNew_RejectsOverlappingRoles(t *testing.T) {
	_, err := New(Config{AttackerASNs: []bgpnet.ASN{4}, VictimASNs: []bgpnet.ASN{4}})
	if err == nil {
		t.Fatalf("expected ConfigError for overlapping attacker/victim ASN")
	}
}

func TestSetupEngine_SeedsOriginAnnouncement(t *testing.T) {
	g := lineGraph()
	cfg := ValidPrefixConfig("valid", 3, "10.0.0.0/24")
	cfg.DefaultClass = simpleClass("bgp-simple")
	cfg.AdoptingClass = simpleClass("bgp-simple")
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetupEngine(g, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ann, ok := g.AsDict[3].Policy.LocalRIB().Get("10.0.0.0/24")
	if !ok {
		t.Fatalf("expected victim's Local RIB to hold the seeded route")
	}
	if ann.ASPath[0] != 3 || ann.RecvRelationship != bgpnet.Origin {
		t.Fatalf("unexpected seeded announcement: %+v", ann)
	}
}

func TestSetupEngine_RejectsUnknownASN(t *testing.T) {
	g := lineGraph()
	cfg := ValidPrefixConfig("valid", 99, "10.0.0.0/24")
	cfg.DefaultClass = simpleClass("bgp-simple")
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetupEngine(g, 0, nil); err == nil {
		t.Fatalf("expected ConfigError for victim ASN absent from graph")
	}
}

// starGraph returns one provider (1) with four stub customers (2-5) —
// enough stub/multihomed ASes to exercise role-count selection.
func starGraph() *topology.Graph {
	g := topology.NewGraph()
	for _, customer := range []bgpnet.ASN{2, 3, 4, 5} {
		g.AddCustomerProvider(1, customer)
	}
	g.ComputeCustomerCones()
	return g
}

func TestSetupEngine_ResolvesNumAttackersAndVictimsFromStubGroup(t *testing.T) {
	g := starGraph()
	cfg := Config{
		NumAttackers:  2,
		NumVictims:    1,
		DefaultClass:  simpleClass("bgp-simple"),
		AdoptingClass: simpleClass("bgp-simple"),
		PrefixOrder:   []string{"10.0.0.0/24"},
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetupEngine(g, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.AttackerASNs) != 2 {
		t.Fatalf("expected 2 attackers resolved from the stub group, got %v", s.AttackerASNs)
	}
	if len(s.VictimASNs) != 1 {
		t.Fatalf("expected 1 victim resolved from the stub group, got %v", s.VictimASNs)
	}
	for asn := range s.AttackerASNs {
		if !g.AsnGroups["stubs_or_mh"][asn] {
			t.Fatalf("attacker ASN %v was not drawn from stubs_or_mh", asn)
		}
		if s.VictimASNs[asn] {
			t.Fatalf("ASN %v assigned both attacker and victim roles", asn)
		}
	}
	// 1 is the non-stub provider and must never be selected.
	if s.AttackerASNs[1] || s.VictimASNs[1] {
		t.Fatalf("expected the provider AS to be excluded from role-count selection")
	}
}

func TestSetupEngine_RejectsNumAttackersExceedingStubCount(t *testing.T) {
	g := starGraph()
	cfg := Config{
		NumAttackers:  3,
		NumVictims:    2,
		DefaultClass:  simpleClass("bgp-simple"),
		AdoptingClass: simpleClass("bgp-simple"),
		PrefixOrder:   []string{"10.0.0.0/24"},
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = s.SetupEngine(g, 0, nil)
	if err == nil {
		t.Fatalf("expected ConfigError: num_attackers + num_victims (5) exceeds stub count (4)")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected a *ConfigError, got %T: %v", err, err)
	}
}

func TestLoopAttackConfig_SkipsPrependOnCraftedPath(t *testing.T) {
	g := lineGraph()
	cfg := LoopAttackConfig("loop", 3, 1, "10.0.0.0/24")
	cfg.DefaultClass = simpleClass("bgp-simple")
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetupEngine(g, 0, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ann, ok := g.AsDict[3].Policy.LocalRIB().Get("10.0.0.0/24")
	if !ok {
		t.Fatalf("expected seeded route")
	}
	want := []bgpnet.ASN{3, 1, 3}
	if len(ann.ASPath) != len(want) {
		t.Fatalf("expected crafted as_path %v, got %v", want, ann.ASPath)
	}
	for i := range want {
		if ann.ASPath[i] != want[i] {
			t.Fatalf("expected crafted as_path %v, got %v", want, ann.ASPath)
		}
	}
}

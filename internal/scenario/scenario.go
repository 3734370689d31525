// Package scenario implements the Scenario abstraction (spec §4.7):
// attacker/victim role sets, seeded announcements, adoption
// assignment, and the setup/post-propagation hooks the driver calls
// around each trial.
package scenario

import (
	"sort"

	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/policy"
	"github.com/routesim/bgpsim/internal/sav"
	"github.com/routesim/bgpsim/internal/security"
	"github.com/routesim/bgpsim/internal/topology"
)

// Seed is one scenario-injected announcement, inserted directly into
// its originator's Local RIB with RecvRelationship = Origin (spec
// §4.6 step 1).
type Seed struct {
	Origin bgpnet.ASN
	Ann    bgpnet.Announcement
	// SkipPrepend is set when Ann.ASPath is already fully formed (e.g.
	// a crafted loop-attack path) and must not receive the normal
	// single self-prepend SetupEngine applies to ordinary seeds.
	SkipPrepend bool
}

// PolicyClass constructs a fresh Policy instance and, optionally, a
// SAV validator — the "class" an AS is assigned for a trial (spec
// §4.7's adoption assignment, replacing the source's
// BGP/BGPFull/ROV/ROVFull subclass hierarchy with a plain
// constructor function, per spec §9).
type PolicyClass struct {
	Name       string
	NewPolicy  func() policy.Policy
	NewSAV     func() sav.Validator
}

// Config is the external parameterization of a Scenario (spec §6's
// ScenarioConfig): role counts, explicit overrides, and the seeded
// announcement set. AttackerASNs/VictimASNs, if non-empty, pin the
// exact role assignment; otherwise NumAttackers/NumVictims select that
// many ASes from the graph's "stubs_or_mh" group (spec §6) once
// SetupEngine supplies the graph.
type Config struct {
	Label            string
	NumAttackers     int
	NumVictims       int
	AttackerASNs     []bgpnet.ASN
	VictimASNs       []bgpnet.ASN
	DefaultClass     PolicyClass
	AdoptingClass    PolicyClass
	PropagationRounds int
	Seeds            []Seed
	// PrefixOrder lists every prefix the scenario seeds, most-specific
	// first (spec §3) — used by the analyzer's most_specific_ann.
	PrefixOrder  []string
	Attestations *security.Attestations
	Hook         Hook
}

// Scenario is one fully-resolved trial configuration. Built from a
// Config by New; SetupEngine applies it to a topology.Graph.
type Scenario struct {
	Label             string
	AttackerASNs      map[bgpnet.ASN]bool
	VictimASNs        map[bgpnet.ASN]bool
	DefaultClass      PolicyClass
	AdoptingClass     PolicyClass
	PropagationRounds int
	Seeds             []Seed
	PrefixOrder       []string
	Attestations      *security.Attestations
	Hook              Hook

	// numAttackers/numVictims request count-based role selection from
	// the graph's stub/multihomed ASes, taken in ascending ASN order; set only when the Config supplied
	// no explicit AttackerASNs/VictimASNs. Resolved by SetupEngine,
	// the first point a topology.Graph is available.
	numAttackers int
	numVictims   int

	// adopting holds the ASNs assigned AdoptingClass for this trial,
	// computed once by SetupEngine from the requested adoption
	// percentage so that PostPropagationHook and repeat calls observe
	// a stable assignment.
	adopting map[bgpnet.ASN]bool
}

// New resolves a Config into a Scenario. Explicit ASN overrides take
// precedence; otherwise NumAttackers/NumVictims are carried through
// for SetupEngine to resolve against the graph's stub/multihomed ASes,
// since role selection "from the graph" is a property of SetupEngine,
// not of constructing the scenario value.
func New(cfg Config) (*Scenario, error) {
	attackers := toSet(cfg.AttackerASNs)
	victims := toSet(cfg.VictimASNs)
	for asn := range attackers {
		if victims[asn] {
			return nil, &ConfigError{Detail: "ASN " + asn.String() + " is both attacker and victim"}
		}
	}
	rounds := cfg.PropagationRounds
	if rounds <= 0 {
		rounds = 1
	}
	return &Scenario{
		Label:             cfg.Label,
		AttackerASNs:      attackers,
		VictimASNs:        victims,
		DefaultClass:      cfg.DefaultClass,
		AdoptingClass:     cfg.AdoptingClass,
		PropagationRounds: rounds,
		Seeds:             cfg.Seeds,
		PrefixOrder:       cfg.PrefixOrder,
		Attestations:      cfg.Attestations,
		Hook:              cfg.Hook,
		numAttackers:      cfg.NumAttackers,
		numVictims:        cfg.NumVictims,
	}, nil
}

func toSet(asns []bgpnet.ASN) map[bgpnet.ASN]bool {
	out := make(map[bgpnet.ASN]bool, len(asns))
	for _, a := range asns {
		out[a] = true
	}
	return out
}

// SetupEngine resets every AS's policy to a freshly constructed
// instance of its assigned class and seeds the scenario's
// announcements (spec §4.7). adoptionPercent selects, deterministically
// from ascending ASN order, which non-default ASes run AdoptingClass
// instead of DefaultClass — every AS in AttackerASNs/VictimASNs is
// exempt from adoption assignment (roles do not change with adoption).
func (s *Scenario) SetupEngine(g *topology.Graph, adoptionPercent float64, prev *Scenario) error {
	if err := s.resolveRoles(g); err != nil {
		return err
	}
	if err := s.validate(g); err != nil {
		return err
	}

	candidates := make([]bgpnet.ASN, 0, len(g.AsDict))
	for asn := range g.AsDict {
		if s.AttackerASNs[asn] || s.VictimASNs[asn] {
			continue
		}
		candidates = append(candidates, asn)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	n := int(float64(len(candidates)) * adoptionPercent / 100.0)
	s.adopting = make(map[bgpnet.ASN]bool, n)
	for i := 0; i < n && i < len(candidates); i++ {
		s.adopting[candidates[i]] = true
	}

	for asn, a := range g.AsDict {
		class := s.classFor(asn)
		a.Policy = class.NewPolicy()
		if class.NewSAV != nil {
			a.SAV = class.NewSAV()
		} else {
			a.SAV = sav.None{}
		}
	}

	for _, seed := range s.Seeds {
		originAS, ok := g.AsDict[seed.Origin]
		if !ok {
			return &ConfigError{Detail: "seed origin ASN " + seed.Origin.String() + " not present in graph"}
		}
		opts := []bgpnet.Option{bgpnet.WithRecvRelationship(bgpnet.Origin), bgpnet.WithSeedASN(&seed.Origin)}
		if !seed.SkipPrepend {
			opts = append(opts, bgpnet.WithPrependedASN(seed.Origin))
		}
		ann := seed.Ann.CopyWith(opts...)
		originAS.Policy.LocalRIB().Set(ann)
	}
	return nil
}

// resolveRoles fills AttackerASNs/VictimASNs by count when the Config
// gave no explicit overrides, drawing ASNs from g.AsnGroups["stubs_or_mh"]
// (stub and multihomed ASes — no customers, spec §6) in ascending ASN
// order so the assignment is stable across repeated runs against the
// same graph. A no-op once explicit ASNs (or a prior resolution) are
// already present.
func (s *Scenario) resolveRoles(g *topology.Graph) error {
	if len(s.AttackerASNs) > 0 || len(s.VictimASNs) > 0 {
		return nil
	}
	if s.numAttackers == 0 && s.numVictims == 0 {
		return nil
	}

	pool := g.AsnGroups["stubs_or_mh"]
	if s.numAttackers+s.numVictims > len(pool) {
		return &ConfigError{Detail: "num_attackers + num_victims exceeds stub/multihomed AS count"}
	}

	candidates := make([]bgpnet.ASN, 0, len(pool))
	for asn := range pool {
		candidates = append(candidates, asn)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	attackers := make(map[bgpnet.ASN]bool, s.numAttackers)
	for i := 0; i < s.numAttackers; i++ {
		attackers[candidates[i]] = true
	}
	victims := make(map[bgpnet.ASN]bool, s.numVictims)
	for i := s.numAttackers; i < s.numAttackers+s.numVictims; i++ {
		victims[candidates[i]] = true
	}
	s.AttackerASNs = attackers
	s.VictimASNs = victims
	return nil
}

// classFor returns the PolicyClass AS asn runs for the current trial:
// always DefaultClass for attacker/victim roles, otherwise AdoptingClass
// iff asn was selected into the adoption set.
func (s *Scenario) classFor(asn bgpnet.ASN) PolicyClass {
	if s.AttackerASNs[asn] || s.VictimASNs[asn] {
		return s.DefaultClass
	}
	if s.adopting[asn] {
		return s.AdoptingClass
	}
	return s.DefaultClass
}

func (s *Scenario) validate(g *topology.Graph) error {
	for asn := range s.AttackerASNs {
		if _, ok := g.AsDict[asn]; !ok {
			return &ConfigError{Detail: "attacker ASN " + asn.String() + " not present in graph"}
		}
	}
	for asn := range s.VictimASNs {
		if _, ok := g.AsDict[asn]; !ok {
			return &ConfigError{Detail: "victim ASN " + asn.String() + " not present in graph"}
		}
	}
	return nil
}

// PostPropagationHook is a no-op by default; multi-round scenarios
// (e.g. a second-round route withdrawal attack) embed a Scenario and
// override this by supplying a non-nil Hook.
type Hook func(g *topology.Graph, round int)

// PostPropagationHook runs Hook if set, after every propagation round
// (spec §4.7).
func (s *Scenario) PostPropagationHook(g *topology.Graph, round int) {
	if s.Hook != nil {
		s.Hook(g, round)
	}
}

package topology

import (
	"sort"

	"github.com/routesim/bgpsim/internal/bgpnet"
)

// Graph is the AS-indexed arena: it owns every AS node; all
// inter-node references are by ASN, resolved through AsDict (spec
// §9's arena note — no AS ever owns another).
type Graph struct {
	AsDict map[bgpnet.ASN]*AS

	// AsnGroups holds membership sets used for result aggregation
	// (spec §6): "all", "stubs_or_mh" (stub and multihomed ASes — no
	// customers), "input_clique" (ASes with customers and no
	// providers), "etc" (everything else).
	AsnGroups map[string]map[bgpnet.ASN]bool
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		AsDict:    make(map[bgpnet.ASN]*AS),
		AsnGroups: make(map[string]map[bgpnet.ASN]bool),
	}
}

// EnsureAS returns the AS for asn, creating it if absent.
func (g *Graph) EnsureAS(asn bgpnet.ASN) *AS {
	if a, ok := g.AsDict[asn]; ok {
		return a
	}
	a := NewAS(asn)
	g.AsDict[asn] = a
	return a
}

// AddCustomerProvider records that provider is a provider of customer
// (equivalently customer is a customer of provider) — a directed
// Gao-Rexford edge.
func (g *Graph) AddCustomerProvider(provider, customer bgpnet.ASN) {
	p := g.EnsureAS(provider)
	c := g.EnsureAS(customer)
	p.Customers[customer] = true
	c.Providers[provider] = true
}

// AddPeer records a symmetric peer-peer edge between a and b.
func (g *Graph) AddPeer(a, b bgpnet.ASN) {
	na := g.EnsureAS(a)
	nb := g.EnsureAS(b)
	na.Peers[b] = true
	nb.Peers[a] = true
}

// ComputeCustomerCones computes, for every AS, the size of its
// transitive customer cone (itself plus every AS reachable by
// following customer edges), used by the scheduler to order
// propagation sweeps (spec §4.6). Also populates AsnGroups.
func (g *Graph) ComputeCustomerCones() {
	for asn := range g.AsDict {
		seen := make(map[bgpnet.ASN]bool)
		g.collectCone(asn, seen)
		g.AsDict[asn].CustomerConeSize = len(seen)
	}
	g.computeAsnGroups()
}

func (g *Graph) collectCone(asn bgpnet.ASN, seen map[bgpnet.ASN]bool) {
	if seen[asn] {
		return
	}
	seen[asn] = true
	a, ok := g.AsDict[asn]
	if !ok {
		return
	}
	for customer := range a.Customers {
		g.collectCone(customer, seen)
	}
}

func (g *Graph) computeAsnGroups() {
	all := make(map[bgpnet.ASN]bool, len(g.AsDict))
	stubsOrMH := make(map[bgpnet.ASN]bool)
	inputClique := make(map[bgpnet.ASN]bool)
	etc := make(map[bgpnet.ASN]bool)

	for asn, a := range g.AsDict {
		all[asn] = true
		switch {
		case len(a.Customers) == 0:
			stubsOrMH[asn] = true
		case len(a.Providers) == 0:
			inputClique[asn] = true
		default:
			etc[asn] = true
		}
	}

	g.AsnGroups["all"] = all
	g.AsnGroups["stubs_or_mh"] = stubsOrMH
	g.AsnGroups["input_clique"] = inputClique
	g.AsnGroups["etc"] = etc
}

// AscendingCustomerCone returns every ASN sorted by ascending
// customer-cone size (ties broken by ASN), the order the
// customer->provider sweep phase iterates in (spec §4.6a).
func (g *Graph) AscendingCustomerCone() []bgpnet.ASN {
	out := g.allASNs()
	sort.Slice(out, func(i, j int) bool {
		ai, aj := g.AsDict[out[i]], g.AsDict[out[j]]
		if ai.CustomerConeSize != aj.CustomerConeSize {
			return ai.CustomerConeSize < aj.CustomerConeSize
		}
		return out[i] < out[j]
	})
	return out
}

// DescendingCustomerCone returns every ASN sorted by descending
// customer-cone size, the order the provider->customer sweep phase
// iterates in (spec §4.6c).
func (g *Graph) DescendingCustomerCone() []bgpnet.ASN {
	out := g.allASNs()
	sort.Slice(out, func(i, j int) bool {
		ai, aj := g.AsDict[out[i]], g.AsDict[out[j]]
		if ai.CustomerConeSize != aj.CustomerConeSize {
			return ai.CustomerConeSize > aj.CustomerConeSize
		}
		return out[i] < out[j]
	})
	return out
}

// AllASNs returns every ASN with no ordering guarantee — the order the
// peer->peer sweep phase iterates in (spec §4.6b: "any order").
func (g *Graph) AllASNs() []bgpnet.ASN { return g.allASNs() }

func (g *Graph) allASNs() []bgpnet.ASN {
	out := make([]bgpnet.ASN, 0, len(g.AsDict))
	for asn := range g.AsDict {
		out = append(out, asn)
	}
	return out
}

// Reset clears every AS's policy-owned state between trials (spec
// §4.7), leaving the graph topology itself untouched.
func (g *Graph) Reset() {
	for _, a := range g.AsDict {
		if a.Policy != nil {
			a.Policy.Reset()
		}
	}
}

// Package engine implements the propagation scheduler (spec §4.6): the
// 3-phase sweep that drives a topology.Graph to convergence in a
// deterministic, customer-cone-ordered sequence.
package engine

import (
	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/scenario"
	"github.com/routesim/bgpsim/internal/security"
	"github.com/routesim/bgpsim/internal/topology"
)

// Engine drives one AS graph through repeated propagation sweeps.
type Engine struct {
	Graph *topology.Graph
}

// New wraps an already-built, already-seeded topology.Graph.
func New(g *topology.Graph) *Engine {
	return &Engine{Graph: g}
}

// Run executes one propagation sweep (spec §4.6 step 2: customer->
// provider, peer->peer, provider->customer) and reports whether any
// AS's Local RIB changed — the caller uses this to detect convergence
// and stop calling Run early (spec §4.6's idempotence note).
func (e *Engine) Run(round int, sc *scenario.Scenario) (changed bool, err error) {
	custToProv := e.sweep(e.Graph.AscendingCustomerCone(), bgpnet.Providers, sc)
	peerToPeer := e.sweep(e.Graph.AllASNs(), bgpnet.Peers, sc)
	provToCust := e.sweep(e.Graph.DescendingCustomerCone(), bgpnet.Customers, sc)
	return custToProv || peerToPeer || provToCust, nil
}

// sweep runs one phase: every AS in order propagates in direction dir,
// deliveries are applied to their receivers, then every touched
// receiver reprocesses its incoming buffer. Returns whether any
// receiver's Local RIB changed.
func (e *Engine) sweep(order []bgpnet.ASN, dir bgpnet.Relationship, sc *scenario.Scenario) bool {
	changed := false
	touched := make(map[bgpnet.ASN]bool)

	for _, asn := range order {
		sender := e.Graph.AsDict[asn]
		neighbors := sender.Neighbors(dir)
		if len(neighbors) == 0 {
			continue
		}
		ctx := e.securityContext(sc, asn, dir)
		deliveries := sender.Policy.PropagateTo(asn, dir, neighbors, ctx)
		for _, d := range deliveries {
			receiver, ok := e.Graph.AsDict[d.Neighbor]
			if !ok {
				continue
			}
			recvRel := receiver.RelationshipTo(asn)
			receiver.Policy.Receive(asn, d.Ann, recvRel)
			touched[d.Neighbor] = true
		}
	}

	for asn := range touched {
		receiver := e.Graph.AsDict[asn]
		rib := receiver.Policy.LocalRIB()
		before := make(map[string]bgpnet.Announcement, rib.Len())
		rib.All(func(prefix string, ann bgpnet.Announcement) { before[prefix] = ann })
		ctx := e.securityContext(sc, asn, bgpnet.UnsetRelationship)
		_ = receiver.Policy.ProcessIncoming(asn, ctx)
		if rib.Len() != len(before) {
			changed = true
		}
		rib.All(func(prefix string, ann bgpnet.Announcement) {
			prev, ok := before[prefix]
			if !ok || prev.RecvRelationship != ann.RecvRelationship || !prev.PrefixPathAttributesEq(ann) {
				changed = true
			}
		})
	}
	return changed
}

// securityContext builds the per-AS, per-direction security.Context a
// Policy needs to run its validation gate: the scenario's attestation
// registry plus a customer-cone membership predicate for the OTC
// check.
func (e *Engine) securityContext(sc *scenario.Scenario, selfASN bgpnet.ASN, direction bgpnet.Relationship) security.Context {
	var attestations *security.Attestations
	if sc != nil {
		attestations = sc.Attestations
	}
	return security.Context{
		SelfASN:      selfASN,
		Attestations: attestations,
		IsCustomerOf: e.isCustomerOf,
		Direction:    direction,
	}
}

// isCustomerOf reports whether asn is a (possibly transitive) customer
// of of, derived from of's customer cone.
func (e *Engine) isCustomerOf(asn, of bgpnet.ASN) bool {
	seen := make(map[bgpnet.ASN]bool)
	var walk func(bgpnet.ASN) bool
	walk = func(cur bgpnet.ASN) bool {
		if seen[cur] {
			return false
		}
		seen[cur] = true
		a, ok := e.Graph.AsDict[cur]
		if !ok {
			return false
		}
		if a.Customers[asn] {
			return true
		}
		for customer := range a.Customers {
			if walk(customer) {
				return true
			}
		}
		return false
	}
	return walk(of)
}

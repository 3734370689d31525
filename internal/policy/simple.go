package policy

import (
	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/security"
)

// Simple is the BGP-Simple policy engine (spec §4.3): best-route
// selection only, no persistent per-neighbor send state and no
// withdrawal propagation. Every round it re-evaluates the prefixes
// that received new announcements against whatever is already in the
// Local RIB, and re-exports its current Local RIB unconditionally —
// the same route may be re-sent on every sweep it survives.
type Simple struct {
	extensions []security.Extension
	localRib   *bgpnet.LocalRIB
	incoming   map[string][]bgpnet.Announcement
}

// NewSimple returns a BGP-Simple engine gated by the given security
// extensions (empty for plain BGP).
func NewSimple(extensions []security.Extension) *Simple {
	return &Simple{
		extensions: extensions,
		localRib:   bgpnet.NewLocalRIB(),
		incoming:   make(map[string][]bgpnet.Announcement),
	}
}

func (p *Simple) Receive(_ bgpnet.ASN, ann bgpnet.Announcement, recvRel bgpnet.Relationship) {
	stamped := ann.CopyWith(bgpnet.WithRecvRelationship(recvRel))
	p.incoming[ann.Prefix] = append(p.incoming[ann.Prefix], stamped)
}

func (p *Simple) ProcessIncoming(selfASN bgpnet.ASN, ctx security.Context) error {
	for prefix, candidates := range p.incoming {
		var current *bgpnet.Announcement
		if ann, ok := p.localRib.Get(prefix); ok {
			current = &ann
		}
		best := selectBest(selfASN, p.extensions, ctx, current, candidates)
		if best != nil {
			p.localRib.Set(*best)
		}
	}
	clear(p.incoming)
	return nil
}

func (p *Simple) PropagateTo(_ bgpnet.ASN, rel bgpnet.Relationship, neighbors []bgpnet.ASN, ctx security.Context) []Delivery {
	ctx.Direction = rel
	var out []Delivery
	p.localRib.All(func(_ string, ann bgpnet.Announcement) {
		if !exportable(rel, ann.RecvRelationship) {
			return
		}
		if !security.Accept(p.extensions, ann, ctx) {
			return
		}
		for _, n := range neighbors {
			out = append(out, Delivery{Neighbor: n, Ann: ann})
		}
	})
	return out
}

func (p *Simple) LocalRIB() *bgpnet.LocalRIB { return p.localRib }

// RIBsIn is nil: BGP-Simple keeps no persistent Adj-RIBs-In, only the
// current round's incoming buffer, which ProcessIncoming clears.
func (p *Simple) RIBsIn() *bgpnet.AdjRIBsIn { return nil }

func (p *Simple) Reset() {
	p.localRib.Reset()
	clear(p.incoming)
}

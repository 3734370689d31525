package policy

import (
	"github.com/routesim/bgpsim/internal/bgpnet"
	"github.com/routesim/bgpsim/internal/security"
)

// Full is the BGP-Full policy engine (spec §4.3): route selection over
// a persistent Adj-RIBs-In, explicit withdrawal propagation when the
// best route for a prefix changes or disappears, and a SendQueue that
// enforces the withdraw/replace invariants of spec §3 before anything
// is handed to the scheduler.
type Full struct {
	extensions []security.Extension
	localRib   *bgpnet.LocalRIB
	ribsIn     *bgpnet.AdjRIBsIn
	sendQueue  *bgpnet.SendQueue
	touched    map[string]struct{}
	// announced records, per neighbor, the last route this AS actually
	// handed that neighbor for a prefix — the Adj-RIB-Out state needed
	// to know when a withdrawal must be sent.
	announced map[bgpnet.ASN]map[string]bgpnet.Announcement
}

// NewFull returns a BGP-Full engine gated by the given security
// extensions.
func NewFull(extensions []security.Extension) *Full {
	return &Full{
		extensions: extensions,
		localRib:   bgpnet.NewLocalRIB(),
		ribsIn:     bgpnet.NewAdjRIBsIn(),
		sendQueue:  bgpnet.NewSendQueue(),
		touched:    make(map[string]struct{}),
		announced:  make(map[bgpnet.ASN]map[string]bgpnet.Announcement),
	}
}

func (p *Full) Receive(neighbor bgpnet.ASN, ann bgpnet.Announcement, recvRel bgpnet.Relationship) {
	stamped := ann.CopyWith(bgpnet.WithRecvRelationship(recvRel))
	if stamped.Withdraw {
		p.ribsIn.Remove(neighbor, stamped.Prefix)
	} else {
		p.ribsIn.Set(neighbor, stamped)
	}
	p.touched[stamped.Prefix] = struct{}{}
}

func (p *Full) ProcessIncoming(selfASN bgpnet.ASN, ctx security.Context) error {
	for prefix := range p.touched {
		p.reselect(selfASN, ctx, prefix)
	}
	clear(p.touched)
	return nil
}

// reselect recomputes the best route for prefix from the full set of
// Adj-RIBs-In entries, storing (or removing) the Local RIB entry. A
// self-originated (Origin) entry is kept as is: it has no Adj-RIBs-In
// entry and outranks every neighbor's route.
func (p *Full) reselect(selfASN bgpnet.ASN, ctx security.Context, prefix string) {
	if cur, ok := p.localRib.Get(prefix); ok && cur.RecvRelationship == bgpnet.Origin {
		return
	}
	var candidates []bgpnet.Announcement
	p.ribsIn.ForPrefix(prefix, func(_ bgpnet.ASN, ann bgpnet.Announcement) {
		candidates = append(candidates, ann)
	})

	best := selectBest(selfASN, p.extensions, ctx, nil, candidates)
	if best == nil {
		p.localRib.Remove(prefix)
		return
	}
	p.localRib.Set(*best)
}

// PropagateTo computes the withdraw-then-announce delta for each
// neighbor in direction rel, relative to what was last announced to
// it, enqueues the result onto the SendQueue to get the invariant
// checks of spec §3 for free, then drains and returns it.
func (p *Full) PropagateTo(selfASN bgpnet.ASN, rel bgpnet.Relationship, neighbors []bgpnet.ASN, ctx security.Context) []Delivery {
	ctx.Direction = rel

	for _, prefix := range p.localRib.Prefixes() {
		ann, _ := p.localRib.Get(prefix)
		if !exportable(rel, ann.RecvRelationship) || !security.Accept(p.extensions, ann, ctx) {
			continue
		}
		p.queueForNeighbors(neighbors, ann)
	}

	// Withdraw prefixes no longer exportable (or no longer held) that
	// were previously announced to a given neighbor.
	for _, n := range neighbors {
		prev := p.announced[n]
		for prefix, prevAnn := range prev {
			ann, ok := p.localRib.Get(prefix)
			stillExportable := ok && exportable(rel, ann.RecvRelationship) && security.Accept(p.extensions, ann, ctx)
			if stillExportable && ann.PrefixPathAttributesEq(prevAnn) {
				continue
			}
			if !stillExportable {
				withdrawal := prevAnn.CopyWith(bgpnet.WithWithdraw(true))
				_ = p.sendQueue.AddAnn(n, withdrawal)
			}
		}
	}

	var out []Delivery
	p.sendQueue.Info(neighbors, func(neighbor bgpnet.ASN, prefix string, ann bgpnet.Announcement) {
		out = append(out, Delivery{Neighbor: neighbor, Ann: ann})
		if p.announced[neighbor] == nil {
			p.announced[neighbor] = make(map[string]bgpnet.Announcement)
		}
		if ann.Withdraw {
			delete(p.announced[neighbor], prefix)
		} else {
			p.announced[neighbor][prefix] = ann
		}
	})
	for _, n := range neighbors {
		p.sendQueue.ResetNeighbor(n)
	}
	return out
}

// queueForNeighbors enqueues ann for every neighbor whose previously
// announced route for this prefix differs, withdrawing the stale route
// first when one was sent.
func (p *Full) queueForNeighbors(neighbors []bgpnet.ASN, ann bgpnet.Announcement) {
	for _, n := range neighbors {
		prev, hadPrev := p.announced[n][ann.Prefix]
		if hadPrev && prev.PrefixPathAttributesEq(ann) {
			continue
		}
		if hadPrev {
			_ = p.sendQueue.AddAnn(n, prev.CopyWith(bgpnet.WithWithdraw(true)))
		}
		_ = p.sendQueue.AddAnn(n, ann)
	}
}

func (p *Full) LocalRIB() *bgpnet.LocalRIB { return p.localRib }

func (p *Full) RIBsIn() *bgpnet.AdjRIBsIn { return p.ribsIn }

func (p *Full) Reset() {
	p.localRib.Reset()
	p.ribsIn.Reset()
	p.sendQueue.Reset()
	clear(p.touched)
	clear(p.announced)
}

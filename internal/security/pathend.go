package security

import "github.com/routesim/bgpsim/internal/bgpnet"

// PathEnd validates that the penultimate hop of the AS path (the
// neighbor of the origin) matches the origin's published Path-End
// record, if any (spec §4.4). No record published means the check
// cannot fire, so the route is Valid rather than Unknown — an absent
// attestation is not the same as an incomplete one.
type PathEnd struct{}

func (PathEnd) Name() string { return "path-end" }

func (PathEnd) Validate(ann bgpnet.Announcement, ctx Context) bgpnet.Validity {
	required, published := ctx.Attestations.HasPathEnd(ann.OriginASN)
	if !published {
		return bgpnet.Valid
	}
	if len(ann.ASPath) < 2 {
		// Origin announcing directly with no intermediate hop: nothing to
		// validate against a penultimate-hop record.
		return bgpnet.Valid
	}
	penultimate := ann.ASPath[len(ann.ASPath)-2]
	if penultimate != required {
		return bgpnet.Invalid
	}
	return bgpnet.Valid
}

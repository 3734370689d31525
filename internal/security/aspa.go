package security

import "github.com/routesim/bgpsim/internal/bgpnet"

// ASPA validates each customer→provider hop of the AS path against
// published Autonomous System Provider Authorization records (spec
// §4.4): walking from the origin outward, every hop's customer side
// must attest its provider side. A hop with no attestation published
// makes the overall result Unknown (never Invalid on its own) unless a
// different hop is definitively Invalid, which always wins.
type ASPA struct{}

func (ASPA) Name() string { return "aspa" }

func (ASPA) Validate(ann bgpnet.Announcement, ctx Context) bgpnet.Validity {
	path := ann.ASPath
	if len(path) < 2 {
		return bgpnet.Valid
	}

	result := bgpnet.Valid
	// path[len-1] is the origin; walk customer->provider hops outward.
	for i := len(path) - 1; i > 0; i-- {
		customer := path[i]
		provider := path[i-1]
		authorized, published := ctx.Attestations.HasASPA(customer, provider)
		if !published {
			if result == bgpnet.Valid {
				result = bgpnet.Unknown
			}
			continue
		}
		if !authorized {
			return bgpnet.Invalid
		}
	}
	return result
}

package security

import "slices"
import "github.com/routesim/bgpsim/internal/bgpnet"

// BGPsec validates a cryptographically-signed path: valid iff a signed
// path is present, matches the AS path hop-for-hop, and every signing
// hop is a known BGPsec signer. An absent signed path (unsigned route)
// is Unknown, not Invalid — BGPsec is only meaningful where deployed
// (spec §4.4).
type BGPsec struct{}

func (BGPsec) Name() string { return "bgpsec" }

func (BGPsec) Validate(ann bgpnet.Announcement, ctx Context) bgpnet.Validity {
	if ann.BGPsecPath == nil {
		return bgpnet.Unknown
	}
	if !slices.Equal(ann.BGPsecPath, ann.ASPath) {
		return bgpnet.Invalid
	}
	for _, hop := range ann.BGPsecPath {
		if !ctx.Attestations.IsBGPsecSigner(hop) {
			return bgpnet.Invalid
		}
	}
	return bgpnet.Valid
}

package security

import "github.com/routesim/bgpsim/internal/bgpnet"

// ROV is Route Origin Validation: invalid iff the announcement's
// precomputed ROA state is Invalid, valid otherwise (spec §4.4). The
// ROA lookup itself happens upstream, when a scenario seeds or forwards
// the announcement — ROV only reads the tri-state already attached.
type ROV struct{}

func (ROV) Name() string { return "rov" }

func (ROV) Validate(ann bgpnet.Announcement, _ Context) bgpnet.Validity {
	if ann.ROAValid == bgpnet.Invalid {
		return bgpnet.Invalid
	}
	return bgpnet.Valid
}

// PeerROV is ROV applied only to announcements received from peers or
// providers — customer-received routes bypass the check. A deployment
// variant some adopting ASes run instead of full ROV (spec §4.4 / §9
// adoption variants).
type PeerROV struct{}

func (PeerROV) Name() string { return "peer-rov" }

func (PeerROV) Validate(ann bgpnet.Announcement, _ Context) bgpnet.Validity {
	if ann.RecvRelationship != bgpnet.Peers && ann.RecvRelationship != bgpnet.Providers {
		return bgpnet.Valid
	}
	if ann.ROAValid == bgpnet.Invalid {
		return bgpnet.Invalid
	}
	return bgpnet.Valid
}

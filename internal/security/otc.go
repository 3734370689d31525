package security

import "github.com/routesim/bgpsim/internal/bgpnet"

// OTC implements Only-To-Customers (RFC 9234 style): a route carrying
// the OTC attribute is re-advertised to peers or providers only by an
// AS that is a (possibly transitive) customer of the tagging AS; any
// other AS may re-advertise it to customers only. The check is a no-op during plain ingress gating (Context.Direction left
// at its zero value) and only fires when evaluated against a concrete
// export direction — Peers or Providers — which PropagateTo supplies
// (spec §4.4).
type OTC struct{}

func (OTC) Name() string { return "otc" }

func (OTC) Validate(ann bgpnet.Announcement, ctx Context) bgpnet.Validity {
	if ann.OnlyToCustomers == nil {
		return bgpnet.Valid
	}
	if ctx.Direction != bgpnet.Peers && ctx.Direction != bgpnet.Providers {
		return bgpnet.Valid
	}
	if ctx.IsCustomerOf != nil && ctx.IsCustomerOf(ctx.SelfASN, *ann.OnlyToCustomers) {
		return bgpnet.Valid
	}
	return bgpnet.Invalid
}

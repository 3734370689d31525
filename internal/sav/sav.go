// Package sav implements Source Address Validation checks used by the
// outcome analyzer's data-plane traceback (spec §4.5): whether a given
// AS would forward traffic claiming a given source prefix, arriving
// over a given ingress link. Unlike the security package, SAV never
// gates control-plane route acceptance — it only gates data-plane
// forwarding during analysis.
package sav

import "github.com/routesim/bgpsim/internal/bgpnet"

// Context is everything a Validator needs to decide whether traffic
// with SourcePrefix, arriving over IngressRelationship from
// IngressNeighbor, would be forwarded.
type Context struct {
	SourcePrefix        string
	IngressNeighbor     bgpnet.ASN
	IngressRelationship bgpnet.Relationship
	LocalRIB            *bgpnet.LocalRIB
	RIBsIn              *bgpnet.AdjRIBsIn
}

// Validator is a source-address-validation check.
type Validator interface {
	Name() string
	Accepts(ctx Context) bool
}

// None performs no validation — every packet is forwarded regardless
// of ingress. The default for ASes that have not adopted SAV.
type None struct{}

func (None) Name() string           { return "none" }
func (None) Accepts(_ Context) bool { return true }

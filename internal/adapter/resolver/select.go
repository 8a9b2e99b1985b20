package resolver

import "browser-harness/internal/application/port/output"

// Selector picks the resolver for one act call.
type Selector struct {
	direct output.ActionResolver
	visual output.ActionResolver
}

func NewSelector(direct, visual output.ActionResolver) *Selector {
	return &Selector{direct: direct, visual: visual}
}

func (s *Selector) Select(hasIframe bool) output.ActionResolver {
	if hasIframe {
		return s.visual
	}
	return s.direct
}

package resolver

import (
	"context"
	"strings"

	"browser-harness/internal/application/port/output"
)

var _ output.ActionResolver = (*DirectResolver)(nil)

// DirectResolver grounds the action against the DOM and performs it on the
// chosen element.
type DirectResolver struct {
	grounder *Grounder
	browser  output.BrowserPort
	logger   output.LoggerPort
}

func NewDirectResolver(grounder *Grounder, browser output.BrowserPort, logger output.LoggerPort) *DirectResolver {
	return &DirectResolver{grounder: grounder, browser: browser, logger: logger}
}

func (r *DirectResolver) Kind() output.ResolverKind {
	return output.ResolverDirect
}

func (r *DirectResolver) Resolve(ctx context.Context, in output.ActInput) error {
	inst, err := r.grounder.Ground(ctx, in.Action, in.Variables)
	if err != nil {
		return err
	}

	for i, arg := range inst.Arguments {
		inst.Arguments[i] = substitute(arg, in.Variables)
	}

	return r.browser.PerformAction(ctx, inst)
}

// substitute replaces %name% placeholders with their values.
func substitute(s string, variables map[string]string) string {
	for name, value := range variables {
		s = strings.ReplaceAll(s, "%"+name+"%", value)
	}
	return s
}

package output

import (
	"context"

	"browser-harness/internal/domain/entity"
)

type ResolverKind string

const (
	ResolverDirect ResolverKind = "direct"
	ResolverVisual ResolverKind = "visual"
)

type ActInput struct {
	Action    string
	Variables map[string]string
}

// ActionResolver performs a natural-language action on the current page.
type ActionResolver interface {
	Kind() ResolverKind
	Resolve(ctx context.Context, in ActInput) error
}

// ElementLocator finds page elements matching a description.
type ElementLocator interface {
	Observe(ctx context.Context, instruction string) ([]entity.ObservedElement, error)
}

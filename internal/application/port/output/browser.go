package output

import (
	"context"

	"browser-harness/internal/domain/entity"
)

type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	ScrollViewport(ctx context.Context) error

	PageText(ctx context.Context) (string, error)
	UIElements(ctx context.Context) ([]entity.UIElement, error)
	PerformAction(ctx context.Context, action entity.ActInstruction) error
	Iframes(ctx context.Context) ([]entity.ObservedElement, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	ClickAt(ctx context.Context, x, y float64) error
	TypeText(ctx context.Context, text string) error
	PressKey(ctx context.Context, key string) error
	ScrollBy(ctx context.Context, deltaY float64) error

	CurrentURL() string
	Close() error
}

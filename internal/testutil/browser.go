// Package testutil holds in-memory fakes of the application ports.
package testutil

import (
	"context"
	"sync"
	"time"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"
)

var _ output.BrowserPort = (*FakeBrowser)(nil)

// FakeBrowser records every call. A non-zero Delay makes blocking calls
// wait for it or for ctx, whichever ends first.
type FakeBrowser struct {
	mu sync.Mutex

	URL        string
	Text       string
	Elements   []entity.UIElement
	Frames     []entity.ObservedElement
	Shot       *entity.Screenshot
	Delay      time.Duration
	Err        error
	Calls      []string
	Actions    []entity.ActInstruction
	Clicks     [][2]float64
	Typed      []string
	Keys       []string
	Scrolls    []float64
	CloseCount int
}

func (f *FakeBrowser) record(ctx context.Context, call string) error {
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	delay, err := f.Delay, f.Err
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *FakeBrowser) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *FakeBrowser) Navigate(ctx context.Context, url string) error {
	if err := f.record(ctx, "navigate"); err != nil {
		return err
	}
	f.mu.Lock()
	f.URL = url
	f.mu.Unlock()
	return nil
}

func (f *FakeBrowser) GoBack(ctx context.Context) error {
	return f.record(ctx, "back")
}

func (f *FakeBrowser) ScrollViewport(ctx context.Context) error {
	return f.record(ctx, "scroll_viewport")
}

func (f *FakeBrowser) PageText(ctx context.Context) (string, error) {
	if err := f.record(ctx, "page_text"); err != nil {
		return "", err
	}
	return f.Text, nil
}

func (f *FakeBrowser) UIElements(ctx context.Context) ([]entity.UIElement, error) {
	if err := f.record(ctx, "ui_elements"); err != nil {
		return nil, err
	}
	return f.Elements, nil
}

func (f *FakeBrowser) PerformAction(ctx context.Context, action entity.ActInstruction) error {
	if err := f.record(ctx, "perform_action"); err != nil {
		return err
	}
	f.mu.Lock()
	f.Actions = append(f.Actions, action)
	f.mu.Unlock()
	return nil
}

func (f *FakeBrowser) Iframes(ctx context.Context) ([]entity.ObservedElement, error) {
	if err := f.record(ctx, "iframes"); err != nil {
		return nil, err
	}
	return f.Frames, nil
}

func (f *FakeBrowser) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if err := f.record(ctx, "screenshot"); err != nil {
		return nil, err
	}
	if f.Shot != nil {
		return f.Shot, nil
	}
	return &entity.Screenshot{Data: []byte{0xff, 0xd8, 0xff}, Format: "jpeg", Width: 1024, Height: 768, Scale: 1}, nil
}

func (f *FakeBrowser) ClickAt(ctx context.Context, x, y float64) error {
	if err := f.record(ctx, "click_at"); err != nil {
		return err
	}
	f.mu.Lock()
	f.Clicks = append(f.Clicks, [2]float64{x, y})
	f.mu.Unlock()
	return nil
}

func (f *FakeBrowser) TypeText(ctx context.Context, text string) error {
	if err := f.record(ctx, "type_text"); err != nil {
		return err
	}
	f.mu.Lock()
	f.Typed = append(f.Typed, text)
	f.mu.Unlock()
	return nil
}

func (f *FakeBrowser) PressKey(ctx context.Context, key string) error {
	if err := f.record(ctx, "press_key"); err != nil {
		return err
	}
	f.mu.Lock()
	f.Keys = append(f.Keys, key)
	f.mu.Unlock()
	return nil
}

func (f *FakeBrowser) ScrollBy(ctx context.Context, deltaY float64) error {
	if err := f.record(ctx, "scroll_by"); err != nil {
		return err
	}
	f.mu.Lock()
	f.Scrolls = append(f.Scrolls, deltaY)
	f.mu.Unlock()
	return nil
}

func (f *FakeBrowser) CurrentURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.URL
}

func (f *FakeBrowser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCount++
	return nil
}

package rod

import (
	"context"
	"fmt"
	"time"

	"browser-harness/internal/application/port/output"
	"browser-harness/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

// BrowserAdapter drives a single Chrome tab. Every blocking call binds the
// caller's context to the page so a cancelled context aborts the CDP request.
type BrowserAdapter struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	page       *rod.Page
	newTabWait time.Duration
	logger     output.LoggerPort
}

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	NoSandbox  bool
	DevTools   bool
	StartURL   string

	// StartTimeout bounds the initial navigation to StartURL.
	StartTimeout time.Duration
	// NewTabWait is how long a click or key press waits for a tab it opened.
	NewTabWait time.Duration
	Logger     output.LoggerPort
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:   false,
		NoSandbox:  true,
		StartURL:   "about:blank",
		NewTabWait: 3 * time.Second,
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if cfg.SlowMotion > 0 {
		browser = browser.SlowMotion(cfg.SlowMotion)
	}
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if cfg.NewTabWait <= 0 {
		cfg.NewTabWait = DefaultConfig().NewTabWait
	}
	adapter := &BrowserAdapter{
		browser:    browser,
		launcher:   l,
		page:       page,
		newTabWait: cfg.NewTabWait,
		logger:     cfg.Logger,
	}

	if cfg.StartURL != "" && cfg.StartURL != "about:blank" {
		navCtx := ctx
		if cfg.StartTimeout > 0 {
			var cancel context.CancelFunc
			navCtx, cancel = context.WithTimeout(ctx, cfg.StartTimeout)
			defer cancel()
		}
		if err := adapter.Navigate(navCtx, cfg.StartURL); err != nil {
			adapter.Close()
			return nil, err
		}
	}
	return adapter, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	p := b.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return sessionErr(fmt.Errorf("navigation failed: %w", err))
	}
	if err := p.WaitLoad(); err != nil {
		return sessionErr(fmt.Errorf("wait load failed: %w", err))
	}
	return nil
}

func (b *BrowserAdapter) GoBack(ctx context.Context) error {
	p := b.page.Context(ctx)
	if err := p.NavigateBack(); err != nil {
		return sessionErr(fmt.Errorf("navigate back failed: %w", err))
	}
	if err := p.WaitLoad(); err != nil {
		return sessionErr(fmt.Errorf("wait load failed: %w", err))
	}
	return nil
}

func (b *BrowserAdapter) ScrollViewport(ctx context.Context) error {
	if _, err := b.page.Context(ctx).Eval(`() => window.scrollBy(0, window.innerHeight)`); err != nil {
		return sessionErr(fmt.Errorf("scroll failed: %w", err))
	}
	return nil
}

func (b *BrowserAdapter) PageText(ctx context.Context) (string, error) {
	res, err := b.page.Context(ctx).Eval(`() => document.body ? document.body.outerHTML : ""`)
	if err != nil {
		return "", sessionErr(fmt.Errorf("failed to read body: %w", err))
	}
	return VisibleText(res.Value.Str()), nil
}

func (b *BrowserAdapter) ClickAt(ctx context.Context, x, y float64) error {
	p := b.page.Context(ctx)
	if err := p.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return sessionErr(fmt.Errorf("mouse move failed: %w", err))
	}

	watch := b.watchNewTab(ctx)
	if err := p.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		watch.stop()
		return sessionErr(fmt.Errorf("click at (%.0f, %.0f) failed: %w", x, y, err))
	}
	return watch.adopt()
}

func (b *BrowserAdapter) TypeText(ctx context.Context, text string) error {
	if err := b.page.Context(ctx).InsertText(text); err != nil {
		return sessionErr(fmt.Errorf("type text failed: %w", err))
	}
	return nil
}

func (b *BrowserAdapter) PressKey(ctx context.Context, key string) error {
	k, err := keyFor(key)
	if err != nil {
		return err
	}

	watch := b.watchNewTab(ctx)
	if err := b.page.Context(ctx).Keyboard.Type(k); err != nil {
		watch.stop()
		return sessionErr(fmt.Errorf("press %s failed: %w", key, err))
	}
	return watch.adopt()
}

func (b *BrowserAdapter) ScrollBy(ctx context.Context, deltaY float64) error {
	if err := b.page.Context(ctx).Mouse.Scroll(0, deltaY, 4); err != nil {
		return sessionErr(fmt.Errorf("scroll failed: %w", err))
	}
	return nil
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	return err
}

// tabWatch listens for a tab opened by the action that follows it.
type tabWatch struct {
	b      *BrowserAdapter
	ctx    context.Context
	cancel context.CancelFunc
	wait   func()
	opened proto.TargetTargetID
}

// watchNewTab must be called before the action: the subscription starts
// here, so a tab created while the action is still returning is not missed.
func (b *BrowserAdapter) watchNewTab(ctx context.Context) *tabWatch {
	waitCtx, cancel := context.WithTimeout(ctx, b.newTabWait)
	w := &tabWatch{b: b, ctx: ctx, cancel: cancel}
	w.wait = b.browser.Context(waitCtx).EachEvent(func(e *proto.TargetTargetCreated) bool {
		if e.TargetInfo.Type != proto.TargetTargetInfoTypePage || e.TargetInfo.TargetID == b.page.TargetID {
			return false
		}
		w.opened = e.TargetInfo.TargetID
		return true
	})
	return w
}

func (w *tabWatch) stop() {
	w.cancel()
	w.wait()
}

// adopt waits up to newTabWait for a new tab. When one opened, the working
// page navigates to its URL and the extra tab is closed.
func (w *tabWatch) adopt() error {
	w.wait()
	w.cancel()
	if w.opened == "" {
		return w.ctx.Err()
	}
	return w.b.adoptTab(w.ctx, w.opened)
}

func (b *BrowserAdapter) adoptTab(ctx context.Context, id proto.TargetTargetID) error {
	tab, err := b.browser.Context(ctx).PageFromTarget(id)
	if err != nil {
		return sessionErr(fmt.Errorf("attach new tab: %w", err))
	}

	// a fresh tab reports about:blank until its first load finishes
	loadCtx, cancel := context.WithTimeout(ctx, b.newTabWait)
	_ = tab.Context(loadCtx).WaitLoad()
	cancel()

	info, err := tab.Info()
	if err != nil {
		return sessionErr(fmt.Errorf("read new tab: %w", err))
	}
	if err := tab.Close(); err != nil && b.logger != nil {
		b.logger.Warn("Failed to close new tab", "error", err)
	}
	if info.URL == "" || info.URL == "about:blank" {
		return nil
	}

	if b.logger != nil {
		b.logger.Debug("Adopting new tab", "url", info.URL)
	}
	return b.Navigate(ctx, info.URL)
}

var namedKeys = map[string]input.Key{
	"enter":      input.Enter,
	"tab":        input.Tab,
	"escape":     input.Escape,
	"esc":        input.Escape,
	"backspace":  input.Backspace,
	"delete":     input.Delete,
	"space":      input.Space,
	"arrowup":    input.ArrowUp,
	"arrowdown":  input.ArrowDown,
	"arrowleft":  input.ArrowLeft,
	"arrowright": input.ArrowRight,
	"pageup":     input.PageUp,
	"pagedown":   input.PageDown,
	"home":       input.Home,
	"end":        input.End,
}

func keyFor(name string) (input.Key, error) {
	if k, ok := namedKeys[normalizeKey(name)]; ok {
		return k, nil
	}
	if r := []rune(name); len(r) == 1 && r[0] >= ' ' && r[0] <= '~' {
		return input.Key(r[0]), nil
	}
	return 0, fmt.Errorf("unsupported key %q: %w", name, entity.ErrInvalidParameters)
}

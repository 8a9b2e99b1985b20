package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"browser-harness/internal/domain/entity"

	"github.com/go-rod/rod/lib/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleText_SkipsNonRenderedMarkup(t *testing.T) {
	text := VisibleText(BasicHTML)

	assert.Equal(t, "Hello World\nTop story of the day", text)
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "var x")
}

func TestVisibleText_InlineElementsStayOnOneLine(t *testing.T) {
	text := VisibleText(`<body><p>Read <a href="/x">the  full</a> story</p><div>Next</div></body>`)
	assert.Equal(t, "Read the full story\nNext", text)
}

func TestVisibleText_DropsComments(t *testing.T) {
	text := VisibleText("<body><!-- comment --><div>Text</div></body>")
	assert.Equal(t, "Text", text)
}

func TestShrinkScreenshot_ResizesWideImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2048, 1000))
	img.Set(10, 10, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	shot, err := shrinkScreenshot(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, maxScreenshotWidth, shot.Width)
	assert.Equal(t, 500, shot.Height)
	assert.Equal(t, "image/jpeg", shot.MIMEType())
}

func TestShrinkScreenshot_KeepsNarrowImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	shot, err := shrinkScreenshot(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 800, shot.Width)
	assert.Equal(t, 600, shot.Height)
}

func TestShrinkScreenshot_DecodesCapturedJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}))

	shot, err := shrinkScreenshot(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, maxScreenshotWidth, shot.Width)
	assert.Equal(t, 576, shot.Height)
}

func TestKeyFor(t *testing.T) {
	k, err := keyFor("Enter")
	require.NoError(t, err)
	assert.Equal(t, input.Enter, k)

	k, err = keyFor("Arrow Down")
	require.NoError(t, err)
	assert.Equal(t, input.ArrowDown, k)

	k, err = keyFor("a")
	require.NoError(t, err)
	assert.Equal(t, input.Key('a'), k)

	_, err = keyFor("Hyper")
	assert.ErrorIs(t, err, entity.ErrInvalidParameters)
}

func newTestAdapter(t *testing.T) *BrowserAdapter {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests skipped in short mode")
	}
	cfg := DefaultConfig()
	cfg.Headless = true

	adapter, err := NewBrowserAdapter(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter
}

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBrowserAdapter_NavigateAndReadText(t *testing.T) {
	adapter := newTestAdapter(t)
	server := serveHTML(t, BasicHTML)
	ctx := context.Background()

	require.NoError(t, adapter.Navigate(ctx, server.URL))
	assert.Equal(t, server.URL+"/", adapter.CurrentURL())

	text, err := adapter.PageText(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "Hello World")
	assert.NotContains(t, text, "var x")
}

func TestBrowserAdapter_NavigateHonorsCancelledContext(t *testing.T) {
	adapter := newTestAdapter(t)
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := adapter.Navigate(ctx, slow.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestBrowserAdapter_UIElementsAndActions(t *testing.T) {
	adapter := newTestAdapter(t)
	server := serveHTML(t, FormHTML)
	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	elements, err := adapter.UIElements(ctx)
	require.NoError(t, err)
	require.Len(t, elements, 3)
	assert.Equal(t, "input", elements[0].Tag)
	assert.Equal(t, "User name", elements[0].Placeholder)
	assert.Equal(t, `[data-agent-id="1"]`, elements[0].Selector)

	require.NoError(t, adapter.PerformAction(ctx, entity.ActInstruction{
		ElementID: 1, Method: entity.ActFill, Arguments: []string{"alice"},
	}))
	require.NoError(t, adapter.PerformAction(ctx, entity.ActInstruction{
		ElementID: 2, Method: entity.ActSelect, Arguments: []string{"blue"},
	}))
	require.NoError(t, adapter.PerformAction(ctx, entity.ActInstruction{
		ElementID: 3, Method: entity.ActClick,
	}))

	text, err := adapter.PageText(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "alice")

	err = adapter.PerformAction(ctx, entity.ActInstruction{ElementID: 99, Method: entity.ActClick})
	assert.Error(t, err)
}

func TestBrowserAdapter_Iframes(t *testing.T) {
	adapter := newTestAdapter(t)
	server := serveHTML(t, IframeHTML)
	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	frames, err := adapter.Iframes(ctx)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "iframe#pay", frames[0].Selector)
	assert.Equal(t, entity.MethodNotSupported, frames[0].Method)
	assert.Contains(t, frames[0].Description, "payment form")
}

func TestBrowserAdapter_ScrollAndScreenshot(t *testing.T) {
	adapter := newTestAdapter(t)
	server := serveHTML(t, ScrollableHTML)
	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	require.NoError(t, adapter.ScrollViewport(ctx))
	res, err := adapter.page.Eval(`() => window.scrollY`)
	require.NoError(t, err)
	assert.Greater(t, res.Value.Num(), 0.0)

	shot, err := adapter.Screenshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, shot.Data)
	assert.LessOrEqual(t, shot.Width, maxScreenshotWidth)
}

func serveTabs(t *testing.T, first string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, first)
	})
	mux.HandleFunc("/second", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<body><p>Second page</p></body>")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestBrowserAdapter_ClickFollowsNewTab(t *testing.T) {
	adapter := newTestAdapter(t)
	server := serveTabs(t, `<body style="margin:0"><a href="/second" target="_blank"
		style="display:block;width:100vw;height:100vh">open</a></body>`)
	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	require.NoError(t, adapter.ClickAt(ctx, 50, 50))

	assert.Equal(t, server.URL+"/second", adapter.CurrentURL())
	text, err := adapter.PageText(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "Second page")
}

func TestBrowserAdapter_ClickFollowsLateTab(t *testing.T) {
	adapter := newTestAdapter(t)
	server := serveTabs(t, `<body style="margin:0"><button
		style="display:block;width:100vw;height:100vh"
		onclick="setTimeout(() => window.open('/second'), 500)">later</button></body>`)
	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	require.NoError(t, adapter.ClickAt(ctx, 50, 50))

	assert.Equal(t, server.URL+"/second", adapter.CurrentURL())
}

func TestBrowserAdapter_ClickWithoutNewTabReturnsAfterWait(t *testing.T) {
	adapter := newTestAdapter(t)
	adapter.newTabWait = 200 * time.Millisecond
	server := serveHTML(t, BasicHTML)
	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	start := time.Now()
	require.NoError(t, adapter.ClickAt(ctx, 5, 5))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, server.URL+"/", adapter.CurrentURL())
}

package rod

import (
	"context"
	"encoding/json"
	"fmt"

	"browser-harness/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const agentIDAttr = "data-agent-id"

const maxUIElements = 300

// tagElementsJS numbers the visible interactive elements in the viewport and
// returns them as a JSON string. Ids are reassigned on every call.
const tagElementsJS = `(attr, limit) => {
	document.querySelectorAll('[' + attr + ']').forEach(el => el.removeAttribute(attr));

	const selector = 'a, button, input, textarea, select, summary, [role="button"], [role="link"], ' +
		'[role="checkbox"], [role="menuitem"], [role="tab"], [role="textbox"], [role="combobox"], ' +
		'[role="option"], [contenteditable="true"], [onclick], [tabindex]:not([tabindex="-1"])';

	const clean = (text) => {
		const res = (text || '').replace(/\s+/g, ' ').trim();
		return res.length > 100 ? res.slice(0, 100) + '...' : res;
	};

	const visible = (el) => {
		if (el.getAttribute('aria-hidden') === 'true') return false;
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 &&
			rect.top < window.innerHeight && rect.bottom > 0 &&
			rect.left < window.innerWidth && rect.right > 0 &&
			style.visibility !== 'hidden' && style.display !== 'none' && style.opacity !== '0';
	};

	const out = [];
	let id = 1;
	for (const el of document.querySelectorAll(selector)) {
		if (out.length >= limit) break;
		if (!visible(el)) continue;
		el.setAttribute(attr, String(id));
		const rect = el.getBoundingClientRect();
		out.push({
			id: id,
			tag: el.tagName.toLowerCase(),
			role: el.getAttribute('role') || '',
			text: clean(el.innerText || el.value || el.getAttribute('title') || ''),
			aria_label: clean(el.getAttribute('aria-label')),
			placeholder: clean(el.getAttribute('placeholder')),
			href: el.getAttribute('href') || '',
			input_type: el.getAttribute('type') || '',
			selector: '[' + attr + '="' + id + '"]',
			box: {x: rect.x, y: rect.y, width: rect.width, height: rect.height},
		});
		id++;
	}
	return JSON.stringify(out);
}`

const iframesJS = `() => {
	const out = [];
	document.querySelectorAll('iframe').forEach((el, i) => {
		let selector = 'iframe:nth-of-type(' + (i + 1) + ')';
		if (el.id) selector = 'iframe#' + CSS.escape(el.id);
		const label = el.title || el.name || el.src || 'embedded frame';
		out.push({selector: selector, description: 'an iframe: ' + label});
	});
	return JSON.stringify(out);
}`

func (b *BrowserAdapter) UIElements(ctx context.Context) ([]entity.UIElement, error) {
	res, err := b.page.Context(ctx).Eval(tagElementsJS, agentIDAttr, maxUIElements)
	if err != nil {
		return nil, sessionErr(fmt.Errorf("failed to collect UI elements: %w", err))
	}

	var elements []entity.UIElement
	if err := json.Unmarshal([]byte(res.Value.Str()), &elements); err != nil {
		return nil, fmt.Errorf("failed to decode UI elements: %w", err)
	}
	return elements, nil
}

// Iframes lists every iframe on the page. Content inside them cannot be
// reached by element actions, so each is marked not-supported.
func (b *BrowserAdapter) Iframes(ctx context.Context) ([]entity.ObservedElement, error) {
	res, err := b.page.Context(ctx).Eval(iframesJS)
	if err != nil {
		return nil, sessionErr(fmt.Errorf("failed to list iframes: %w", err))
	}

	var frames []entity.ObservedElement
	if err := json.Unmarshal([]byte(res.Value.Str()), &frames); err != nil {
		return nil, fmt.Errorf("failed to decode iframes: %w", err)
	}
	for i := range frames {
		frames[i].Method = entity.MethodNotSupported
	}
	return frames, nil
}

func (b *BrowserAdapter) PerformAction(ctx context.Context, action entity.ActInstruction) error {
	p := b.page.Context(ctx)

	sel := fmt.Sprintf(`[%s="%d"]`, agentIDAttr, action.ElementID)
	els, err := p.Elements(sel)
	if err != nil {
		return sessionErr(fmt.Errorf("element lookup failed: %w", err))
	}
	if len(els) == 0 {
		return fmt.Errorf("element %d not found on page", action.ElementID)
	}
	el := els[0]

	if action.Method != entity.ActClick && action.Method != entity.ActPress {
		if err := runMethod(p, el, action); err != nil {
			return sessionErr(fmt.Errorf("%s on element %d failed: %w", action.Method, action.ElementID, err))
		}
		return nil
	}

	watch := b.watchNewTab(ctx)
	if err := runMethod(p, el, action); err != nil {
		watch.stop()
		return sessionErr(fmt.Errorf("%s on element %d failed: %w", action.Method, action.ElementID, err))
	}
	return watch.adopt()
}

func runMethod(p *rod.Page, el *rod.Element, action entity.ActInstruction) error {
	arg := ""
	if len(action.Arguments) > 0 {
		arg = action.Arguments[0]
	}

	switch action.Method {
	case entity.ActClick:
		return el.Click(proto.InputMouseButtonLeft, 1)
	case entity.ActFill:
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(arg)
	case entity.ActType:
		if err := el.Focus(); err != nil {
			return err
		}
		return p.InsertText(arg)
	case entity.ActPress:
		k, err := keyFor(arg)
		if err != nil {
			return err
		}
		if err := el.Focus(); err != nil {
			return err
		}
		return p.Keyboard.Type(k)
	case entity.ActSelect:
		return el.Select(action.Arguments, true, rod.SelectorTypeText)
	case entity.ActHover:
		return el.Hover()
	case entity.ActScrollIntoView:
		return el.ScrollIntoView()
	default:
		return fmt.Errorf("unsupported method %q: %w", action.Method, entity.ErrInvalidParameters)
	}
}

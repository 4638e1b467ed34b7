// Package dom provides the low-level page interaction primitives: visibility
// checks, poll-based waiters, synthetic clicks and option selection. All of
// them re-query the DOM on every evaluation. Element handles are never held
// across renders because the target page replaces nodes freely.
package dom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pranjalchakraborty/RMS-filler/pkg/poll"
)

// ErrTimeout is returned by the waiters when the awaited effect never
// materializes before the deadline.
var ErrTimeout = errors.New("timed out waiting for page")

const visibleJS = `(function() {
	const el = document.querySelector(%q);
	if (!el) return false;
	const style = window.getComputedStyle(el);
	return el.offsetHeight !== 0 && style.display !== 'none' &&
		style.visibility !== 'hidden' && style.opacity !== '0';
})()`

// Exists reports whether any element matches sel.
func Exists(sel string, out *bool) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%q) !== null`, sel), out)
}

// Visible reports whether an element matching sel exists and is rendered.
func Visible(sel string, out *bool) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(visibleJS, sel), out)
}

// Enabled reports whether the element matching sel exists and is not disabled.
func Enabled(sel string, out *bool) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(
		`(function() { const el = document.querySelector(%q); return el !== null && !el.disabled && !el.classList.contains('disabled'); })()`,
		sel), out)
}

// Text stores the trimmed text content of the first element matching sel.
// Missing elements yield an empty string, not an error.
func Text(sel string, out *string) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(
		`(function() { const el = document.querySelector(%q); return el ? el.textContent.trim() : ''; })()`,
		sel), out)
}

// isVisible evaluates visibility once, swallowing evaluation errors. Used as
// a poll condition: a transiently broken DOM just reads as "not yet".
func isVisible(ctx context.Context, sel string) bool {
	var v bool
	if err := Visible(sel, &v).Do(ctx); err != nil {
		return false
	}
	return v
}

func isGone(ctx context.Context, sel string) bool {
	var v bool
	if err := Visible(sel, &v).Do(ctx); err != nil {
		return false
	}
	return !v
}

// WaitVisible polls until an element matching sel becomes visible.
func WaitVisible(sel string, timeout time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if !poll.Until(ctx, func(ctx context.Context) bool { return isVisible(ctx, sel) },
			timeout, fmt.Sprintf("element %q did not appear", sel)) {
			return fmt.Errorf("%w: %q not visible after %s", ErrTimeout, sel, timeout)
		}
		return nil
	}
}

// WaitHidden polls until no element matching sel is visible, either because
// it was detached or because it collapsed to display:none.
func WaitHidden(sel string, timeout time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if !poll.Until(ctx, func(ctx context.Context) bool { return isGone(ctx, sel) },
			timeout, fmt.Sprintf("element %q did not disappear", sel)) {
			return fmt.Errorf("%w: %q still visible after %s", ErrTimeout, sel, timeout)
		}
		return nil
	}
}

// JSClick dispatches a synthetic bubbling click on the first element
// matching sel. More reliable than input-domain clicks for anchors and SVG
// controls that sit under overlays.
func JSClick(sel string) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) throw new Error('click target not found: ' + %q);
		el.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true}));
	})()`, sel, sel), nil)
}

// ClickAndWaitVisible clicks clickSel and polls for effectSel to appear.
// This is the preferred interaction form: the click is only considered done
// once its observable effect is on screen.
func ClickAndWaitVisible(clickSel, effectSel string, timeout time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := JSClick(clickSel).Do(ctx); err != nil {
			return err
		}
		return WaitVisible(effectSel, timeout).Do(ctx)
	}
}

// ClickAndWaitHidden clicks clickSel and polls for effectSel to go away.
func ClickAndWaitHidden(clickSel, effectSel string, timeout time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := JSClick(clickSel).Do(ctx); err != nil {
			return err
		}
		return WaitHidden(effectSel, timeout).Do(ctx)
	}
}

// ClickAndSleep clicks and suspends for a fixed duration. Legacy fallback for
// interactions with no reliably observable post-condition.
func ClickAndSleep(sel string, d time.Duration) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if err := JSClick(sel).Do(ctx); err != nil {
			return err
		}
		return chromedp.Sleep(d).Do(ctx)
	}
}

// SetValue writes value into the element matching sel and dispatches input
// and change events so the page's own listeners fire.
func SetValue(sel, value string) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) throw new Error('field not found: ' + %q);
		el.value = %q;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
	})()`, sel, sel, value), nil)
}

// SelectByLabel selects the option of the <select> matching sel whose
// visible text equals label after trimming and case folding. A change event
// is dispatched on match. found reports whether any option matched.
func SelectByLabel(sel, label string, found *bool) chromedp.Action {
	return chromedp.Evaluate(fmt.Sprintf(`(function() {
		const el = document.querySelector(%q);
		if (!el) return false;
		const want = %q.trim().toLowerCase();
		for (const opt of el.options) {
			if (opt.text.trim().toLowerCase() === want) {
				el.value = opt.value;
				el.dispatchEvent(new Event('change', {bubbles: true}));
				return true;
			}
		}
		return false;
	})()`, sel, label), found)
}

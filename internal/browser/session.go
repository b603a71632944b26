// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/ayushpandey769/feedscraper/internal/humanize"
)

// defaultActionTimeout bounds individual DOM interactions that carry no
// caller-supplied deadline. Navigation and long waits pass their own.
const defaultActionTimeout = 10 * time.Second

// Session is one live browser instance with a single tab. It owns the
// allocator and tab contexts and releases both in Close, which is idempotent.
type Session struct {
	id          string
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *zap.Logger

	humanizer *humanize.Humanizer

	closeOnce sync.Once
	closeErr  error
}

// initialize connects to the browser target and installs the stealth shim so
// it runs before any site script on every navigation.
func (s *Session) initialize(ctx context.Context) error {
	return s.run(ctx, 30*time.Second,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	)
}

// run executes chromedp actions on the session's tab while honoring the
// caller's context and an optional timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	if timeout > 0 {
		var tcancel context.CancelFunc
		runCtx, tcancel = context.WithTimeout(runCtx, timeout)
		defer tcancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads the given URL and waits for the document to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	return s.run(ctx, 45*time.Second,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Location reports the tab's current URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, defaultActionTimeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// WaitVisible blocks until the selector matches a visible element or the
// timeout elapses.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// Exists reports whether the selector matches any element, visible or not.
func (s *Session) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	script := fmt.Sprintf(`document.querySelector(%q) !== null`, selector)
	if err := s.Evaluate(ctx, script, &found); err != nil {
		return false, err
	}
	return found, nil
}

// VisibleText returns the trimmed text of the first visible element matching
// the selector, or "" when no such element is rendered.
func (s *Session) VisibleText(ctx context.Context, selector string) (string, error) {
	var text string
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return "";
		const style = window.getComputedStyle(el);
		if (style.display === "none" || style.visibility === "hidden") return "";
		if (el.getClientRects().length === 0) return "";
		return (el.innerText || el.textContent || "").trim();
	})()`, selector)
	if err := s.Evaluate(ctx, script, &text); err != nil {
		return "", err
	}
	return text, nil
}

// Evaluate runs a JavaScript expression in the page and unmarshals its result
// into out. Pass nil to discard the result.
func (s *Session) Evaluate(ctx context.Context, expression string, out any) error {
	return s.run(ctx, defaultActionTimeout, chromedp.Evaluate(expression, out))
}

// Click moves the pointer to the element with human pacing and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	return s.humanizer.MoveAndClick(ctx, selector)
}

// Type focuses the element and enters text with human pacing.
func (s *Session) Type(ctx context.Context, selector, text string) error {
	return s.humanizer.Type(ctx, selector, text)
}

// PressEnter sends a single Enter keystroke to the focused element.
func (s *Session) PressEnter(ctx context.Context) error {
	return s.run(ctx, defaultActionTimeout, chromedp.KeyEvent(kb.Enter))
}

// Pause suspends for a random duration in [min, max).
func (s *Session) Pause(ctx context.Context, min, max time.Duration) error {
	return s.humanizer.Delay(ctx, min, max)
}

// ScrollRandom performs a small human-paced wheel scroll.
func (s *Session) ScrollRandom(ctx context.Context) error {
	return s.humanizer.ScrollWheel(ctx, 100, 300)
}

// CookiePresent reports whether a cookie with the given name exists in the
// session's cookie jar.
func (s *Session) CookiePresent(ctx context.Context, name string) (bool, error) {
	var found bool
	err := s.run(ctx, defaultActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			if c.Name == name {
				found = true
				return nil
			}
		}
		return nil
	}))
	return found, err
}

// Close tears the browser down. Safe to call multiple times; only the first
// call does the work.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.")
		// Graceful browser shutdown first, then release the contexts.
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.closeErr = fmt.Errorf("failed to cancel browser context: %w", err)
		}
		s.cancelTab()
		s.cancelAlloc()
	})
	return s.closeErr
}

// combineContext derives a context from base that is additionally cancelled
// whenever aux is done. The base must be the chromedp context so actions can
// resolve their target.
func combineContext(base, aux context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(base)
	stop := context.AfterFunc(aux, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// File: internal/browser/executor.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/ayushpandey769/feedscraper/internal/humanize"
)

// Session implements humanize.Executor so the pacing engine can drive this
// tab directly through CDP input events.
var _ humanize.Executor = (*Session)(nil)

// Sleep pauses for d while respecting both the session lifetime and the
// caller's context.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	opCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-opCtx.Done():
		return opCtx.Err()
	}
}

// DispatchMouseEvent converts the agnostic event into a CDP dispatch.
func (s *Session) DispatchMouseEvent(ctx context.Context, ev humanize.MouseEvent) error {
	p := input.DispatchMouseEvent(input.MouseType(ev.Type), ev.X, ev.Y).
		WithButton(input.MouseButton(ev.Button)).
		WithClickCount(int64(ev.ClickCount))
	if ev.Type == humanize.MouseWheel {
		p = p.WithDeltaX(ev.DeltaX).WithDeltaY(ev.DeltaY)
	}
	return s.run(ctx, defaultActionTimeout, p)
}

// SendKeys dispatches keystrokes to the currently focused element.
func (s *Session) SendKeys(ctx context.Context, keys string) error {
	return s.run(ctx, defaultActionTimeout, chromedp.KeyEvent(keys))
}

// ElementGeometry waits for the first visible element matching the selector
// and returns its content box.
func (s *Session) ElementGeometry(ctx context.Context, selector string) (*humanize.Geometry, error) {
	var geo *humanize.Geometry
	err := s.run(ctx, defaultActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var nodes []*cdp.Node
		if err := chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.NodeVisible).Do(ctx); err != nil {
			return fmt.Errorf("failed to find visible node for %q: %w", selector, err)
		}
		if len(nodes) == 0 {
			return fmt.Errorf("no nodes matched %q", selector)
		}

		box, err := dom.GetBoxModel().WithNodeID(nodes[0].NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to get box model for %q: %w", selector, err)
		}
		g, ok := boxToGeometry(box)
		if !ok {
			return fmt.Errorf("element %q has degenerate geometry", selector)
		}
		geo = g
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return geo, nil
}

// boxToGeometry converts a CDP box model quad into an axis-aligned rectangle.
func boxToGeometry(box *dom.BoxModel) (*humanize.Geometry, bool) {
	// Content holds the 4 corners as (x0,y0,x1,y1,x2,y2,x3,y3).
	if box == nil || len(box.Content) < 8 {
		return nil, false
	}
	minX, minY := box.Content[0], box.Content[1]
	maxX, maxY := minX, minY
	for i := 0; i+1 < 8; i += 2 {
		x, y := box.Content[i], box.Content[i+1]
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	if maxX <= minX || maxY <= minY {
		return nil, false
	}
	return &humanize.Geometry{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

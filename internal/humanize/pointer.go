// File: internal/humanize/pointer.go
package humanize

import (
	"context"
	"fmt"
	"math"
	"time"
)

// easeInOutCubic gives the pointer a smooth acceleration/deceleration profile.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// MoveAndClick interpolates the pointer from its current position toward a
// random point inside the target's bounding box in discrete steps with
// randomized pauses, then issues a press/release pair with a short dwell.
func (h *Humanizer) MoveAndClick(ctx context.Context, selector string) error {
	geo, err := h.exec.ElementGeometry(ctx, selector)
	if err != nil {
		return fmt.Errorf("humanize: failed to locate %q: %w", selector, err)
	}
	if geo.Width <= 0 || geo.Height <= 0 {
		return fmt.Errorf("humanize: element %q has zero-sized geometry", selector)
	}

	targetX, targetY := h.targetPoint(geo)
	if err := h.moveTo(ctx, targetX, targetY); err != nil {
		return err
	}

	press := MouseEvent{Type: MousePress, X: targetX, Y: targetY, Button: ButtonLeft, ClickCount: 1}
	if err := h.exec.DispatchMouseEvent(ctx, press); err != nil {
		return fmt.Errorf("humanize: failed to dispatch mousedown: %w", err)
	}
	// Dwell between down and up.
	if err := h.exec.Sleep(ctx, time.Duration(50+h.randIntn(100))*time.Millisecond); err != nil {
		return err
	}
	release := MouseEvent{Type: MouseRelease, X: targetX, Y: targetY, Button: ButtonLeft, ClickCount: 1}
	if err := h.exec.DispatchMouseEvent(ctx, release); err != nil {
		return fmt.Errorf("humanize: failed to dispatch mouseup: %w", err)
	}
	return h.delayRangeMs(ctx, 100, 300)
}

// targetPoint picks a click point inside the element, biased toward the
// center with gaussian spread so repeated clicks do not land on one pixel.
func (h *Humanizer) targetPoint(geo *Geometry) (float64, float64) {
	cx, cy := geo.Center()

	h.mu.Lock()
	dx := h.rng.NormFloat64() * geo.Width / 6
	dy := h.rng.NormFloat64() * geo.Height / 6
	h.mu.Unlock()

	x := clamp(cx+dx, geo.X+1, geo.X+geo.Width-1)
	y := clamp(cy+dy, geo.Y+1, geo.Y+geo.Height-1)
	return x, y
}

// moveTo walks the cursor along an eased, noise-perturbed path to the target,
// dispatching a move event per step.
func (h *Humanizer) moveTo(ctx context.Context, targetX, targetY float64) error {
	h.mu.Lock()
	startX, startY := h.posX, h.posY
	h.mu.Unlock()

	steps := h.cfg.MoveSteps
	for i := 1; i <= steps; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		t := easeInOutCubic(float64(i) / float64(steps))
		x := startX + (targetX-startX)*t
		y := startY + (targetY-startY)*t

		// Perturb intermediate points; the final step lands exactly on target.
		if i < steps {
			h.mu.Lock()
			h.noiseTime += 0.1
			nt := h.noiseTime
			h.mu.Unlock()
			x += h.noiseX.Noise1D(nt) * h.cfg.JitterScale
			y += h.noiseY.Noise1D(nt) * h.cfg.JitterScale
		}

		ev := MouseEvent{Type: MouseMove, X: x, Y: y, Button: ButtonNone}
		if err := h.exec.DispatchMouseEvent(ctx, ev); err != nil {
			return fmt.Errorf("humanize: failed to dispatch mousemove: %w", err)
		}

		h.mu.Lock()
		h.posX, h.posY = x, y
		h.mu.Unlock()

		if err := h.exec.Sleep(ctx, time.Duration(2+h.randIntn(10))*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// ScrollWheel emits a wheel event scrolling down by a random amount in
// [minPx, maxPx) followed by a settling pause.
func (h *Humanizer) ScrollWheel(ctx context.Context, minPx, maxPx float64) error {
	if maxPx < minPx {
		minPx, maxPx = maxPx, minPx
	}
	delta := minPx
	if span := maxPx - minPx; span > 0 {
		delta += h.randFloat() * span
	}

	h.mu.Lock()
	x, y := h.posX, h.posY
	h.mu.Unlock()

	ev := MouseEvent{Type: MouseWheel, X: x, Y: y, Button: ButtonNone, DeltaY: delta}
	if err := h.exec.DispatchMouseEvent(ctx, ev); err != nil {
		return fmt.Errorf("humanize: failed to dispatch wheel event: %w", err)
	}
	return h.delayRangeMs(ctx, 1000, 2000)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// File: internal/humanize/types.go
package humanize

import (
	"context"
	"math/rand"
	"time"
)

// MouseEventType mirrors the DOM/CDP mouse event type strings.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
	MouseWheel   MouseEventType = "mouseWheel"
)

// MouseButton mirrors the CDP mouse button strings.
type MouseButton string

const (
	ButtonNone MouseButton = "none"
	ButtonLeft MouseButton = "left"
)

// MouseEvent holds the data required to dispatch a mouse event. It is an
// agnostic structure so the pacing logic stays decoupled from the driver.
type MouseEvent struct {
	Type       MouseEventType
	X          float64
	Y          float64
	Button     MouseButton
	ClickCount int
	// DeltaX and DeltaY are used for wheel events.
	DeltaX float64
	DeltaY float64
}

// Geometry is the viewport-relative bounding box of a DOM element.
type Geometry struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Center returns the geometric center of the box.
func (g Geometry) Center() (float64, float64) {
	return g.X + g.Width/2, g.Y + g.Height/2
}

// KeyBackspace is the control character dispatched for a corrective deletion.
const KeyBackspace = "\b"

// Executor is the interface to the browser automation layer. Implementations
// are responsible for waiting until a selector's element is visible before
// reporting its geometry.
type Executor interface {
	// Sleep pauses execution, respecting context cancellation.
	Sleep(ctx context.Context, d time.Duration) error
	// DispatchMouseEvent sends a single raw mouse event.
	DispatchMouseEvent(ctx context.Context, ev MouseEvent) error
	// SendKeys sends the given keys to the currently focused element.
	SendKeys(ctx context.Context, keys string) error
	// ElementGeometry locates the first element matching the selector and
	// returns its bounding box.
	ElementGeometry(ctx context.Context, selector string) (*Geometry, error)
}

// Config contains the tunable parameters of the pacing simulation.
type Config struct {
	// TypoRate is the per-character probability of emitting one wrong
	// character followed by a corrective backspace.
	TypoRate float64
	// KeyDelayMin/Max bound the uniformly distributed inter-keystroke delay.
	KeyDelayMin time.Duration
	KeyDelayMax time.Duration
	// MoveSteps is the number of discrete pointer positions interpolated
	// toward a click target.
	MoveSteps int
	// JitterScale scales the Perlin noise perturbation of the pointer path,
	// in pixels.
	JitterScale float64
	// Rng overrides the random source, for deterministic tests.
	Rng *rand.Rand
}

// DefaultConfig returns the parameters used when a zero Config is supplied.
func DefaultConfig() Config {
	return Config{
		TypoRate:    0.03,
		KeyDelayMin: 50 * time.Millisecond,
		KeyDelayMax: 150 * time.Millisecond,
		MoveSteps:   24,
		JitterScale: 2.0,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.KeyDelayMin <= 0 {
		c.KeyDelayMin = d.KeyDelayMin
	}
	if c.KeyDelayMax < c.KeyDelayMin {
		c.KeyDelayMax = c.KeyDelayMin
	}
	if c.MoveSteps < 2 {
		c.MoveSteps = d.MoveSteps
	}
	if c.JitterScale <= 0 {
		c.JitterScale = d.JitterScale
	}
}

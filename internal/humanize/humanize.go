// File: internal/humanize/humanize.go

// Package humanize paces browser input to resemble a human operator: uniform
// random delays, jittered keystrokes with occasional corrected typos, and
// stepwise pointer trajectories. It drives the browser only through the
// Executor interface and adds no failure modes of its own beyond propagating
// executor errors.
package humanize

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"
)

// Humanizer generates human-like input pacing for one browser session. It is
// stateful (it tracks the virtual cursor position) and must not be shared
// across sessions.
type Humanizer struct {
	cfg    Config
	exec   Executor
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	// Current virtual cursor position.
	posX, posY float64
	// Perlin sources for path perturbation, offset seeds for X and Y.
	noiseX    *perlin.Perlin
	noiseY    *perlin.Perlin
	noiseTime float64
}

// New creates a Humanizer driving the given executor.
func New(cfg Config, exec Executor, logger *zap.Logger) *Humanizer {
	cfg.applyDefaults()

	seed := time.Now().UnixNano()
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(seed))
	}

	// Standard Perlin parameters.
	alpha, beta, n := 2.0, 2.0, int32(3)

	return &Humanizer{
		cfg:    cfg,
		exec:   exec,
		logger: logger,
		rng:    rng,
		noiseX: perlin.NewPerlin(alpha, beta, n, seed),
		noiseY: perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// Delay suspends the caller for a uniformly distributed random duration in
// [min, max). It blocks only the calling goroutine.
func (h *Humanizer) Delay(ctx context.Context, min, max time.Duration) error {
	if max < min {
		min, max = max, min
	}
	h.mu.Lock()
	d := min
	if span := max - min; span > 0 {
		d += time.Duration(h.rng.Int63n(int64(span)))
	}
	h.mu.Unlock()
	return h.exec.Sleep(ctx, d)
}

// delayRangeMs is a shorthand used internally for millisecond ranges.
func (h *Humanizer) delayRangeMs(ctx context.Context, minMs, maxMs int) error {
	return h.Delay(ctx, time.Duration(minMs)*time.Millisecond, time.Duration(maxMs)*time.Millisecond)
}

// randFloat returns a uniform float in [0,1) under the lock.
func (h *Humanizer) randFloat() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64()
}

// randIntn returns a uniform int in [0,n) under the lock.
func (h *Humanizer) randIntn(n int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Intn(n)
}

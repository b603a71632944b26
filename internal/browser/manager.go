// File: internal/browser/manager.go

// Package browser wraps chromedp with the session model the scraping flows
// consume: one exec allocator and one tab per login attempt, paced input via
// the humanize engine, and a Close that is safe to call exactly once from
// whichever component currently owns the handle.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayushpandey769/feedscraper/internal/config"
	"github.com/ayushpandey769/feedscraper/internal/humanize"
)

// Manager creates browser sessions. Sessions are independent of each other;
// the manager only carries configuration and the root lifetime context.
type Manager struct {
	// rootCtx bounds the lifetime of every session, independently of the
	// HTTP request that created it (a suspended session outlives its
	// request).
	rootCtx context.Context
	cfg     config.BrowserConfig
	pacing  config.HumanizeConfig
	logger  *zap.Logger
}

// NewManager returns a Manager whose sessions live at most as long as rootCtx.
func NewManager(rootCtx context.Context, cfg config.BrowserConfig, pacing config.HumanizeConfig, logger *zap.Logger) *Manager {
	return &Manager{
		rootCtx: rootCtx,
		cfg:     cfg,
		pacing:  pacing,
		logger:  logger.Named("browser"),
	}
}

// NewPage launches a fresh browser instance with a single tab and returns the
// session handle. The caller owns the handle and must ensure Close runs
// exactly once on every exit path except an explicit ownership hand-off.
func (m *Manager) NewPage(ctx context.Context) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("no-sandbox", m.cfg.NoSandbox),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(m.cfg.WindowWidth, m.cfg.WindowHeight),
		chromedp.UserAgent(m.cfg.UserAgent),
	)
	if m.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ExecPath))
	}
	for _, arg := range m.cfg.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}

	// Sessions are parented to the manager's root context, not the request
	// context: a suspended session must survive the request that started it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(m.rootCtx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	sessionID := uuid.NewString()
	s := &Session{
		id:          sessionID,
		ctx:         tabCtx,
		cancelTab:   tabCancel,
		cancelAlloc: allocCancel,
		logger:      m.logger.With(zap.String("session_id", sessionID)),
	}

	hcfg := humanize.Config{
		TypoRate:    m.pacing.TypoRate,
		KeyDelayMin: m.pacing.KeyDelayMin,
		KeyDelayMax: m.pacing.KeyDelayMax,
		MoveSteps:   m.pacing.MoveSteps,
		JitterScale: m.pacing.JitterScale,
	}
	s.humanizer = humanize.New(hcfg, s, s.logger.Named("humanize"))

	if err := s.initialize(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize browser session: %w", err)
	}

	s.logger.Debug("Browser session started.")
	return s, nil
}

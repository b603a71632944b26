// File: internal/linkedin/login.go

package linkedin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayushpandey769/feedscraper/internal/config"
	"github.com/ayushpandey769/feedscraper/internal/session"
)

// Flow runs the login and verification state machines. A single Flow is
// shared across requests; per-attempt state lives on the Page and in the
// registry.
type Flow struct {
	cfg      config.ScrapeConfig
	registry *session.Registry
	logger   *zap.Logger
}

func NewFlow(cfg config.ScrapeConfig, registry *session.Registry, logger *zap.Logger) *Flow {
	return &Flow{
		cfg:      cfg,
		registry: registry,
		logger:   logger.Named("login"),
	}
}

// Login drives the page from the public homepage to an authenticated state.
// Three terminal results: an Authenticated outcome, a PinPending outcome
// with the page parked in the registry under the email, or an error. The
// caller owns the page except in the PinPending case, where ownership moves
// to the registry.
func (f *Flow) Login(ctx context.Context, page Page, creds Credentials) (LoginOutcome, error) {
	log := f.logger.With(zap.String("email", creds.Email))
	log.Info("Starting login flow")

	if err := f.openLoginForm(ctx, page); err != nil {
		return LoginOutcome{}, err
	}
	if err := f.submitCredentials(ctx, page, creds); err != nil {
		return LoginOutcome{}, err
	}

	// The page either navigates away, renders an inline error, or hangs.
	// Poll for whichever happens first instead of sleeping a fixed window.
	f.awaitLoginSettled(ctx, page)
	if err := page.Pause(ctx, time.Second, 2*time.Second); err != nil {
		return LoginOutcome{}, err
	}

	loc, err := page.Location(ctx)
	if err != nil {
		return LoginOutcome{}, fmt.Errorf("reading post-login location: %w", err)
	}

	switch {
	case strings.Contains(loc, "/login"):
		return LoginOutcome{}, f.loginFailure(ctx, page)
	case isChallengeURL(loc):
		return f.handleChallenge(ctx, page, creds.Email, log)
	}

	if present, err := page.CookiePresent(ctx, authCookieName); err == nil && !present {
		log.Warn("Auth cookie absent after apparent login success", zap.String("url", loc))
	}
	if err := page.Pause(ctx, 3*time.Second, 5*time.Second); err != nil {
		return LoginOutcome{}, err
	}
	log.Info("Login succeeded", zap.String("url", loc))
	return LoginOutcome{State: StateAuthenticated}, nil
}

// openLoginForm lands on the homepage like a visitor would, then reaches
// the login form via the header link, falling back to direct navigation
// when the guest chrome is not rendered.
func (f *Flow) openLoginForm(ctx context.Context, page Page) error {
	if err := page.Navigate(ctx, homeURL); err != nil {
		return fmt.Errorf("opening homepage: %w", err)
	}
	if err := page.Pause(ctx, 1500*time.Millisecond, 2500*time.Millisecond); err != nil {
		return err
	}
	if err := page.ScrollRandom(ctx); err != nil {
		f.logger.Debug("Homepage scroll failed", zap.Error(err))
	}
	if err := page.Pause(ctx, time.Second, 2*time.Second); err != nil {
		return err
	}

	loc, err := page.Location(ctx)
	if err != nil {
		return fmt.Errorf("reading homepage location: %w", err)
	}
	if strings.Contains(loc, "/login") {
		return nil
	}

	if present, _ := page.Exists(ctx, guestSignInSelector); present {
		if err := page.Click(ctx, guestSignInSelector); err == nil {
			if err := page.Pause(ctx, time.Second, 2*time.Second); err != nil {
				return err
			}
			if loc, err := page.Location(ctx); err == nil && strings.Contains(loc, "/login") {
				return nil
			}
		}
	}
	if err := page.Navigate(ctx, loginURL); err != nil {
		return fmt.Errorf("opening login page: %w", err)
	}
	return nil
}

// submitCredentials fills and submits the form with paced input.
func (f *Flow) submitCredentials(ctx context.Context, page Page, creds Credentials) error {
	if err := page.WaitVisible(ctx, usernameSelector, f.cfg.LoginWait); err != nil {
		return fmt.Errorf("login form did not render: %w", err)
	}
	if err := page.Pause(ctx, 500*time.Millisecond, time.Second); err != nil {
		return err
	}
	if err := page.Type(ctx, usernameSelector, creds.Email); err != nil {
		return fmt.Errorf("entering email: %w", err)
	}
	if err := page.Pause(ctx, 800*time.Millisecond, 1500*time.Millisecond); err != nil {
		return err
	}
	if err := page.Type(ctx, passwordSelector, creds.Password); err != nil {
		return fmt.Errorf("entering password: %w", err)
	}
	if err := page.Pause(ctx, time.Second, 2*time.Second); err != nil {
		return err
	}

	f.uncheckRememberMe(ctx, page)

	if err := page.Click(ctx, loginSubmitSelector); err != nil {
		return fmt.Errorf("submitting login form: %w", err)
	}
	return nil
}

// uncheckRememberMe clears the persistent-session opt-in so the account is
// not bound to this ephemeral browser profile. Best effort: the toggle is
// cosmetic and failing to reach it must not abort the login.
func (f *Flow) uncheckRememberMe(ctx context.Context, page Page) {
	var checked bool
	if err := page.Evaluate(ctx, rememberMeCheckedJS, &checked); err != nil || !checked {
		return
	}
	if err := page.Click(ctx, rememberMeLabel); err != nil {
		if err := page.Click(ctx, rememberMeCheckbox); err != nil {
			f.logger.Debug("Could not uncheck remember-me", zap.Error(err))
			return
		}
	}
	_ = page.Pause(ctx, 300*time.Millisecond, 600*time.Millisecond)
}

// awaitLoginSettled polls until the page leaves /login or renders an inline
// error, bounded by the configured login wait. Ending on the timeout is not
// itself an error; the caller inspects the final state.
func (f *Flow) awaitLoginSettled(ctx context.Context, page Page) {
	deadline := time.Now().Add(f.cfg.LoginWait)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
		if loc, err := page.Location(ctx); err == nil && !strings.Contains(loc, "/login") {
			return
		}
		if text, _ := f.firstVisibleError(ctx, page, loginErrorSelectors); text != "" {
			return
		}
		if err := page.Pause(ctx, 400*time.Millisecond, 600*time.Millisecond); err != nil {
			return
		}
	}
}

// loginFailure is called when the page is still on /login after submission.
// It scans the known error containers and classifies whichever message is
// visible; a silent rejection defaults to a credential failure, which is
// what it means in practice.
func (f *Flow) loginFailure(ctx context.Context, page Page) error {
	if text, sel := f.firstVisibleError(ctx, page, loginErrorSelectors); text != "" {
		f.logger.Info("Login rejected with visible error",
			zap.String("selector", sel), zap.String("message", text))
		return classifyLoginFailure(text)
	}
	return fmt.Errorf("%w: login page did not accept the submission", ErrCredentials)
}

// firstVisibleError returns the first non-empty visible text among the
// given selectors, with the selector that produced it.
func (f *Flow) firstVisibleError(ctx context.Context, page Page, selectors []string) (string, string) {
	for _, sel := range selectors {
		text, err := page.VisibleText(ctx, sel)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, sel
		}
	}
	return "", ""
}

// handleChallenge branches on the kind of interstitial. An email PIN page
// suspends the flow: the page is parked in the registry keyed by email and
// the outcome tells the caller to collect a code out of band. Any other
// checkpoint gets a bounded window for manual clearing, which only helps in
// headful runs but costs nothing headless.
func (f *Flow) handleChallenge(ctx context.Context, page Page, email string, log *zap.Logger) (LoginOutcome, error) {
	pinPresent, err := page.Exists(ctx, pinInputSelector)
	if err != nil {
		return LoginOutcome{}, fmt.Errorf("probing challenge page: %w", err)
	}
	if pinPresent {
		log.Info("Email PIN challenge detected, suspending session")
		f.registry.Put(email, page)
		return LoginOutcome{State: StatePinPending}, nil
	}

	log.Warn("Security checkpoint detected, waiting for manual clearance",
		zap.Duration("window", f.cfg.ChallengeWait))
	deadline := time.Now().Add(f.cfg.ChallengeWait)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return LoginOutcome{}, err
		}
		loc, err := page.Location(ctx)
		if err == nil && !isChallengeURL(loc) && !strings.Contains(loc, "/login") {
			log.Info("Checkpoint cleared", zap.String("url", loc))
			return LoginOutcome{State: StateAuthenticated}, nil
		}
		if err := page.Pause(ctx, 900*time.Millisecond, 1100*time.Millisecond); err != nil {
			return LoginOutcome{}, err
		}
	}
	return LoginOutcome{}, ErrChallengeTimeout
}

func isChallengeURL(loc string) bool {
	for _, marker := range challengePathMarkers {
		if strings.Contains(loc, marker) {
			return true
		}
	}
	return false
}

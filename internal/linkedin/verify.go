// File: internal/linkedin/verify.go

package linkedin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	pinValueJS = `(() => {
	const el = document.querySelector('input[name="pin"], #input__email_verification_pin');
	return el ? el.value : '';
})()`

	pinClearJS = `(() => {
	const el = document.querySelector('input[name="pin"], #input__email_verification_pin');
	if (!el) return false;
	el.value = '';
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`
)

// pinSetJSFmt force-writes the PIN value through the DOM when paced typing
// left the field in a bad state. %q keeps the code JS-string safe.
const pinSetJSFmt = `(() => {
	const el = document.querySelector('input[name="pin"], #input__email_verification_pin');
	if (!el) return false;
	el.value = %q;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`

// Resume retrieves the suspended session for the email, enters the PIN and
// drives the challenge to completion. On success ownership of the returned
// Page transfers to the caller; on any failure the suspended session is
// closed and evicted, so a bad code costs the caller a fresh login.
func (f *Flow) Resume(ctx context.Context, email, code string) (Page, error) {
	log := f.logger.With(zap.String("email", email))

	handle, ok := f.registry.Get(email)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoSession, email)
	}
	page, ok := handle.(Page)
	if !ok {
		f.registry.Remove(email)
		_ = handle.Close()
		return nil, fmt.Errorf("suspended session for %s has unexpected type %T", email, handle)
	}

	// The session leaves the registry no matter how this ends. Success
	// hands the page to the caller; failure closes it here.
	f.registry.Remove(email)
	resumed := false
	defer func() {
		if !resumed {
			if err := page.Close(); err != nil {
				log.Warn("Closing failed verification session", zap.Error(err))
			}
		}
	}()

	log.Info("Resuming verification session")
	if err := f.enterPin(ctx, page, code); err != nil {
		return nil, err
	}
	if err := f.submitPin(ctx, page); err != nil {
		return nil, err
	}
	if err := f.awaitVerification(ctx, page, log); err != nil {
		return nil, err
	}

	if err := page.Pause(ctx, 2*time.Second, 4*time.Second); err != nil {
		return nil, err
	}
	log.Info("Verification succeeded")
	resumed = true
	return page, nil
}

// enterPin clears any stale content out of the field, types the code at
// human pace and confirms the field really holds it, force-writing through
// the DOM as a last resort.
func (f *Flow) enterPin(ctx context.Context, page Page, code string) error {
	if err := page.WaitVisible(ctx, pinInputSelector, f.cfg.LoginWait); err != nil {
		return fmt.Errorf("%w: pin input not visible", ErrVerificationFailed)
	}
	if err := page.Click(ctx, pinInputSelector); err != nil {
		return fmt.Errorf("focusing pin input: %w", err)
	}
	if err := page.Pause(ctx, 300*time.Millisecond, 500*time.Millisecond); err != nil {
		return err
	}

	var current string
	if err := page.Evaluate(ctx, pinValueJS, &current); err == nil && current != "" {
		// Backspace through whatever is there first; the scripted clear is
		// the fallback when key events do not land.
		for range current {
			if err := page.SendKeys(ctx, "\b"); err != nil {
				break
			}
		}
		if err := page.Evaluate(ctx, pinValueJS, &current); err == nil && current != "" {
			var cleared bool
			_ = page.Evaluate(ctx, pinClearJS, &cleared)
		}
	}

	if err := page.Type(ctx, pinInputSelector, code); err != nil {
		return fmt.Errorf("typing verification code: %w", err)
	}
	if err := page.Pause(ctx, 400*time.Millisecond, 800*time.Millisecond); err != nil {
		return err
	}

	var typed string
	if err := page.Evaluate(ctx, pinValueJS, &typed); err == nil && typed != code {
		f.logger.Debug("Pin field mismatch after typing, force-writing",
			zap.Int("got_len", len(typed)), zap.Int("want_len", len(code)))
		var set bool
		if err := page.Evaluate(ctx, fmt.Sprintf(pinSetJSFmt, code), &set); err != nil || !set {
			return fmt.Errorf("%w: could not place code in pin field", ErrVerificationFailed)
		}
		if err := page.Pause(ctx, 300*time.Millisecond, 600*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

// submitPin prefers the dedicated submit button and falls back to Enter
// when the button variant is absent.
func (f *Flow) submitPin(ctx context.Context, page Page) error {
	if present, _ := page.Exists(ctx, pinSubmitSelector); present {
		if err := page.Click(ctx, pinSubmitSelector); err == nil {
			return nil
		}
	}
	if err := page.PressEnter(ctx); err != nil {
		return fmt.Errorf("submitting verification code: %w", err)
	}
	return nil
}

// awaitVerification watches for the page to leave the challenge. A visible
// error fails immediately; the bounded wait expiring while still on the
// challenge is reported as a timeout since a rejected-but-silent code and a
// slow site look the same from here.
func (f *Flow) awaitVerification(ctx context.Context, page Page, log *zap.Logger) error {
	deadline := time.Now().Add(f.cfg.VerifyWait)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if text, sel := f.firstVisibleError(ctx, page, pinErrorSelectors); text != "" {
			log.Info("Verification rejected",
				zap.String("selector", sel), zap.String("message", text))
			return fmt.Errorf("%w: %s", ErrVerificationFailed, text)
		}
		loc, err := page.Location(ctx)
		if err == nil && !isChallengeURL(loc) && !strings.Contains(loc, "/login") {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrVerificationTimeout
		}
		if err := page.Pause(ctx, 400*time.Millisecond, 600*time.Millisecond); err != nil {
			return err
		}
	}
}

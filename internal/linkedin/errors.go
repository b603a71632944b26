// File: internal/linkedin/errors.go

package linkedin

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel failures of the login and verification flows. Callers map these
// to transport responses with errors.Is; everything else is an internal
// fault.
var (
	// ErrCredentials covers rejected email/password combinations.
	ErrCredentials = errors.New("invalid credentials")

	// ErrNoSession means a verification code arrived for an email that has
	// no suspended session, either because none was created or because the
	// registry already expired it.
	ErrNoSession = errors.New("no pending verification session")

	// ErrVerificationFailed means the site rejected the submitted PIN with a
	// visible error.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrVerificationTimeout means the PIN was submitted but the page never
	// left the challenge within the allotted window. The code may have been
	// wrong or the site may simply be slow; the distinction is not reliably
	// observable, so this is reported as a timeout.
	ErrVerificationTimeout = errors.New("verification timed out")

	// ErrChallengeTimeout means a non-PIN security checkpoint was presented
	// and was not cleared manually within the wait window.
	ErrChallengeTimeout = errors.New("security challenge not cleared in time")

	// ErrExtraction means the profile username could not be determined from
	// the logged-in page by any strategy.
	ErrExtraction = errors.New("could not extract username")
)

// credentialKeywords mark an on-page login error as a credential rejection
// rather than a transient site complaint (rate limiting, maintenance
// banners and the like).
var credentialKeywords = []string{
	"login failed",
	"incorrect email or password",
	"authentication",
	"credentials",
	"couldn't find",
	"wrong password",
}

// classifyLoginFailure turns the raw text of an on-page login error into a
// typed error. Keyword matches become ErrCredentials so the caller can map
// them to an authentication response; anything else surfaces verbatim.
func classifyLoginFailure(text string) error {
	lowered := strings.ToLower(text)
	for _, kw := range credentialKeywords {
		if strings.Contains(lowered, kw) {
			return fmt.Errorf("%w: %s", ErrCredentials, text)
		}
	}
	return fmt.Errorf("login rejected: %s", text)
}

// File: internal/linkedin/models.go

// Package linkedin implements the core scraping logic: the login and
// verification flow, the incremental feed collector and the record merge
// rules. It drives the browser only through the Page interface so the flow
// logic stays independent of the automation driver and fully testable.
package linkedin

// Credentials is the login pair. The email doubles as the natural key for
// pending verification sessions.
type Credentials struct {
	Email    string
	Password string
}

// PostRecord is one normalized activity-feed post. URN is a stable content
// fingerprint and the identity key for deduplication and storage upserts; it
// never changes once observed.
type PostRecord struct {
	URN           string   `json:"urn"`
	Description   string   `json:"description"`
	Images        []string `json:"images"`
	LikesCount    int      `json:"likesCount"`
	CommentsCount int      `json:"commentsCount"`
}

// ScrapeResult is the terminal output of one successful run, fresh or
// resumed.
type ScrapeResult struct {
	Username string
	Posts    []PostRecord
}

// LoginState is the terminal state of one Login call.
type LoginState int

const (
	// StateAuthenticated means the session is logged in and ready to
	// collect.
	StateAuthenticated LoginState = iota
	// StatePinPending means the site interposed an email PIN challenge. The
	// browser handle has been parked in the registry and the caller must
	// prompt for a code. This is an expected outcome, not a failure.
	StatePinPending
)

// LoginOutcome is the tagged result of a login attempt. Failures are
// reported through the error return, never through the outcome.
type LoginOutcome struct {
	State LoginState
}

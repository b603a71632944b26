// File: internal/linkedin/page.go

package linkedin

import (
	"context"
	"time"
)

// Page is the browser surface the flows drive. *browser.Session satisfies
// it; tests substitute a scripted fake. Every blocking call takes the
// request context and respects its cancellation.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Exists(ctx context.Context, selector string) (bool, error)
	VisibleText(ctx context.Context, selector string) (string, error)
	Evaluate(ctx context.Context, expression string, out any) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	SendKeys(ctx context.Context, keys string) error
	PressEnter(ctx context.Context) error
	Pause(ctx context.Context, min, max time.Duration) error
	ScrollRandom(ctx context.Context) error
	CookiePresent(ctx context.Context, name string) (bool, error)
	Close() error
}

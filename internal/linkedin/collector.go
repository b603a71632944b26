// File: internal/linkedin/collector.go

package linkedin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayushpandey769/feedscraper/internal/config"
)

// Collector paginates an authenticated session's activity feed into a
// deduplicated result set.
type Collector struct {
	cfg    config.ScrapeConfig
	logger *zap.Logger
}

func NewCollector(cfg config.ScrapeConfig, logger *zap.Logger) *Collector {
	return &Collector{cfg: cfg, logger: logger.Named("collector")}
}

// Collect resolves the account's vanity name, opens its activity feed and
// scroll-paginates until the post cap, the scroll budget or feed exhaustion
// ends the run. An empty feed is a valid result, not an error.
func (c *Collector) Collect(ctx context.Context, page Page) (*ScrapeResult, error) {
	username, err := c.resolveUsername(ctx, page)
	if err != nil {
		return nil, err
	}
	log := c.logger.With(zap.String("username", username))

	feedURL := fmt.Sprintf(profileURLFmt, username) + activityPath
	if err := page.Navigate(ctx, feedURL); err != nil {
		return nil, fmt.Errorf("opening activity feed: %w", err)
	}
	if err := page.Pause(ctx, 2*time.Second, 3*time.Second); err != nil {
		return nil, err
	}
	// A first nudge below the fold makes the feed hydrate its initial
	// batch before the pagination loop starts measuring progress.
	if err := page.Evaluate(ctx, initialScrollJS, nil); err != nil {
		log.Debug("Initial feed scroll failed", zap.Error(err))
	}
	if err := page.Pause(ctx, 1800*time.Millisecond, 2200*time.Millisecond); err != nil {
		return nil, err
	}

	count, err := c.awaitActivityNodes(ctx, page, 0)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		log.Info("Activity feed is empty")
		return &ScrapeResult{Username: username, Posts: []PostRecord{}}, nil
	}

	acc := newAccumulator(c.cfg.MaxPosts)
	for pass := 0; pass < c.cfg.ScrollBudget; pass++ {
		var batch []candidate
		if err := page.Evaluate(ctx, extractPostsJS, &batch); err != nil {
			return nil, fmt.Errorf("extracting feed posts: %w", err)
		}
		for _, cand := range batch {
			acc.merge(cand)
		}
		log.Debug("Pagination pass",
			zap.Int("pass", pass), zap.Int("visible", len(batch)), zap.Int("collected", len(acc.order)))

		if acc.full() {
			log.Info("Post cap reached", zap.Int("posts", len(acc.order)))
			break
		}

		if err := page.Evaluate(ctx, scrollStepJS, nil); err != nil {
			return nil, fmt.Errorf("scrolling feed: %w", err)
		}
		if err := page.Pause(ctx, 1500*time.Millisecond, 3*time.Second); err != nil {
			return nil, err
		}
		grown, err := c.awaitActivityNodes(ctx, page, len(batch))
		if err != nil {
			return nil, err
		}
		if grown <= len(batch) {
			log.Info("Feed stopped growing", zap.Int("posts", len(acc.order)))
			break
		}
	}

	return &ScrapeResult{Username: username, Posts: acc.posts()}, nil
}

// resolveUsername extracts the vanity name from the logged-in page,
// navigating to the "me" alias for a second attempt when the feed chrome
// gives nothing away.
func (c *Collector) resolveUsername(ctx context.Context, page Page) (string, error) {
	if err := page.Pause(ctx, 2*time.Second, 4*time.Second); err != nil {
		return "", err
	}
	if name := c.tryUsernameStrategies(ctx, page); name != "" {
		return name, nil
	}

	c.logger.Debug("Username not on current page, trying profile redirect")
	if err := page.Navigate(ctx, meProfileURL); err != nil {
		return "", fmt.Errorf("opening own profile: %w", err)
	}
	if err := page.Pause(ctx, 2*time.Second, 4*time.Second); err != nil {
		return "", err
	}
	if name := c.tryUsernameStrategies(ctx, page); name != "" {
		return name, nil
	}
	// The redirect itself can expose the vanity name in the URL.
	if loc, err := page.Location(ctx); err == nil {
		if name := usernameFromURL(loc); name != "" {
			return name, nil
		}
	}

	loc, _ := page.Location(ctx)
	return "", fmt.Errorf("%w (at %s)", ErrExtraction, loc)
}

func (c *Collector) tryUsernameStrategies(ctx context.Context, page Page) string {
	for i, script := range usernameExtractionJS {
		var name string
		if err := page.Evaluate(ctx, script, &name); err != nil {
			continue
		}
		if name != "" && name != "me" {
			c.logger.Debug("Username extracted", zap.Int("strategy", i), zap.String("username", name))
			return name
		}
	}
	return ""
}

// awaitActivityNodes polls the activity node count until it exceeds prev or
// the content wait expires, returning the last observed count. Expiry is
// fine; the caller decides whether a flat count ends the run.
func (c *Collector) awaitActivityNodes(ctx context.Context, page Page, prev int) (int, error) {
	deadline := time.Now().Add(c.cfg.ContentWait)
	count := prev
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if err := page.Evaluate(ctx, activityCountJS, &count); err != nil {
			return count, fmt.Errorf("counting feed nodes: %w", err)
		}
		if count > prev || !time.Now().Before(deadline) {
			return count, nil
		}
		if err := page.Pause(ctx, 400*time.Millisecond, 600*time.Millisecond); err != nil {
			return count, err
		}
	}
}

// usernameFromURL pulls the vanity name out of a /in/<name>/ URL.
func usernameFromURL(loc string) string {
	const marker = "/in/"
	i := strings.Index(loc, marker)
	if i < 0 {
		return ""
	}
	rest := loc[i+len(marker):]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	if rest == "" || rest == "me" {
		return ""
	}
	return rest
}

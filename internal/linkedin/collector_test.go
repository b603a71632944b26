// File: internal/linkedin/collector_test.go

package linkedin

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// feedSim scripts a hydrating activity feed: a fixed node total revealed a
// few at a time, one batch per scroll.
type feedSim struct {
	mu       sync.Mutex
	visible  int
	total    int
	perLoad  int
	username string
}

func (s *feedSim) eval(expr string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch expr {
	case usernameExtractionJS[0]:
		assignEval(out, s.username)
	case activityCountJS:
		assignEval(out, s.visible)
	case extractPostsJS:
		batch := make([]candidate, 0, s.visible)
		for i := 0; i < s.visible; i++ {
			batch = append(batch, candidate{
				URN:          fmt.Sprintf("urn:li:activity:%04d", i),
				Description:  fmt.Sprintf("post %d", i),
				LikesText:    fmt.Sprintf("%d", i*2),
				CommentsText: fmt.Sprintf("%d comments", i),
			})
		}
		assignEval(out, batch)
	case scrollStepJS:
		s.visible += s.perLoad
		if s.visible > s.total {
			s.visible = s.total
		}
	case initialScrollJS:
		// Hydration of the first batch already happened on navigation.
	default:
		assignEval(out, "")
	}
	return nil
}

func newTestCollector() *Collector {
	return NewCollector(testScrapeConfig(), zap.NewNop())
}

func TestCollectPaginatesUntilExhaustion(t *testing.T) {
	sim := &feedSim{visible: 3, total: 8, perLoad: 3, username: "janedoe"}
	page := newFakePage("https://www.linkedin.com/feed/")
	page.evalFunc = sim.eval

	res, err := newTestCollector().Collect(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "janedoe", res.Username)
	require.Len(t, res.Posts, 8)
	assert.Equal(t, "urn:li:activity:0000", res.Posts[0].URN)
	assert.Equal(t, "urn:li:activity:0007", res.Posts[7].URN)
	assert.Equal(t, 14, res.Posts[7].LikesCount)
	assert.Equal(t, 7, res.Posts[7].CommentsCount)
	assert.Contains(t, page.navigations,
		"https://www.linkedin.com/in/janedoe/recent-activity/all/")
}

func TestCollectStopsAtPostCap(t *testing.T) {
	sim := &feedSim{visible: 5, total: 50, perLoad: 5, username: "janedoe"}
	page := newFakePage("https://www.linkedin.com/feed/")
	page.evalFunc = sim.eval

	cfg := testScrapeConfig()
	cfg.MaxPosts = 7
	res, err := NewCollector(cfg, zap.NewNop()).Collect(context.Background(), page)
	require.NoError(t, err)
	assert.Len(t, res.Posts, 7)
}

func TestCollectRespectsScrollBudget(t *testing.T) {
	sim := &feedSim{visible: 2, total: 1000, perLoad: 2, username: "janedoe"}
	page := newFakePage("https://www.linkedin.com/feed/")
	page.evalFunc = sim.eval

	cfg := testScrapeConfig()
	cfg.ScrollBudget = 3
	res, err := NewCollector(cfg, zap.NewNop()).Collect(context.Background(), page)
	require.NoError(t, err)
	// Three passes over a feed growing by two per scroll.
	assert.Len(t, res.Posts, 6)
}

func TestCollectEmptyFeed(t *testing.T) {
	sim := &feedSim{visible: 0, total: 0, username: "janedoe"}
	page := newFakePage("https://www.linkedin.com/feed/")
	page.evalFunc = sim.eval

	res, err := newTestCollector().Collect(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "janedoe", res.Username)
	assert.Empty(t, res.Posts)
}

func TestCollectDeduplicatesAcrossPasses(t *testing.T) {
	// Every pass re-extracts all visible nodes, so earlier posts are seen
	// repeatedly; the result must still hold each URN once.
	sim := &feedSim{visible: 4, total: 10, perLoad: 3, username: "janedoe"}
	page := newFakePage("https://www.linkedin.com/feed/")
	page.evalFunc = sim.eval

	res, err := newTestCollector().Collect(context.Background(), page)
	require.NoError(t, err)
	seen := make(map[string]int)
	for _, p := range res.Posts {
		seen[p.URN]++
	}
	for urn, n := range seen {
		assert.Equal(t, 1, n, "urn %s appeared %d times", urn, n)
	}
	assert.Len(t, res.Posts, 10)
}

func TestResolveUsernameFallsBackToProfileRedirect(t *testing.T) {
	page := newFakePage("https://www.linkedin.com/feed/")
	page.evalFunc = func(expr string, out any) error {
		assignEval(out, "")
		return nil
	}
	page.navFunc = func(url string) {
		if url == meProfileURL {
			// The alias redirects to the canonical vanity URL.
			page.setLocation("https://www.linkedin.com/in/jane-doe-1b2c3/")
		}
	}

	name, err := newTestCollector().resolveUsername(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "jane-doe-1b2c3", name)
}

func TestResolveUsernameViaProfileImageAnchor(t *testing.T) {
	// Only the profile-photo link carries the vanity name; every earlier
	// strategy comes up empty.
	anchorScript := usernameExtractionJS[len(usernameExtractionJS)-2]
	page := newFakePage("https://www.linkedin.com/feed/")
	page.evalFunc = func(expr string, out any) error {
		if expr == anchorScript {
			assignEval(out, "janedoe")
		} else {
			assignEval(out, "")
		}
		return nil
	}

	name, err := newTestCollector().resolveUsername(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "janedoe", name)
}

func TestResolveUsernameExhausted(t *testing.T) {
	page := newFakePage("https://www.linkedin.com/feed/")
	page.evalFunc = func(expr string, out any) error {
		assignEval(out, "")
		return nil
	}

	_, err := newTestCollector().resolveUsername(context.Background(), page)
	require.ErrorIs(t, err, ErrExtraction)
}

func TestUsernameFromURL(t *testing.T) {
	tests := []struct {
		loc  string
		want string
	}{
		{"https://www.linkedin.com/in/janedoe/", "janedoe"},
		{"https://www.linkedin.com/in/jane-doe-1b2c3?trk=nav", "jane-doe-1b2c3"},
		{"https://www.linkedin.com/in/me/", ""},
		{"https://www.linkedin.com/feed/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, usernameFromURL(tt.loc), tt.loc)
	}
}

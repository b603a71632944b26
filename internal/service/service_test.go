// File: internal/service/service_test.go

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayushpandey769/feedscraper/internal/config"
	"github.com/ayushpandey769/feedscraper/internal/linkedin"
	"github.com/ayushpandey769/feedscraper/internal/store"
)

// stubPage satisfies linkedin.Page with inert behavior; the service only
// ever closes pages itself.
type stubPage struct {
	mu         sync.Mutex
	closeCount int
}

func (p *stubPage) Navigate(ctx context.Context, _ string) error     { return ctx.Err() }
func (p *stubPage) Location(ctx context.Context) (string, error)     { return "", ctx.Err() }
func (p *stubPage) Exists(ctx context.Context, _ string) (bool, error) {
	return false, ctx.Err()
}
func (p *stubPage) VisibleText(ctx context.Context, _ string) (string, error) {
	return "", ctx.Err()
}
func (p *stubPage) WaitVisible(ctx context.Context, _ string, _ time.Duration) error {
	return ctx.Err()
}
func (p *stubPage) Evaluate(ctx context.Context, _ string, _ any) error { return ctx.Err() }
func (p *stubPage) Click(ctx context.Context, _ string) error           { return ctx.Err() }
func (p *stubPage) Type(ctx context.Context, _, _ string) error         { return ctx.Err() }
func (p *stubPage) SendKeys(ctx context.Context, _ string) error        { return ctx.Err() }
func (p *stubPage) PressEnter(ctx context.Context) error                { return ctx.Err() }
func (p *stubPage) Pause(ctx context.Context, _, _ time.Duration) error { return ctx.Err() }
func (p *stubPage) ScrollRandom(ctx context.Context) error              { return ctx.Err() }
func (p *stubPage) CookiePresent(ctx context.Context, _ string) (bool, error) {
	return true, ctx.Err()
}
func (p *stubPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCount++
	return nil
}
func (p *stubPage) closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCount
}

type savedScrape struct {
	creds linkedin.Credentials
	res   *linkedin.ScrapeResult
}

type fakeStore struct {
	byEmail map[string]*store.User
	byName  map[string]*store.User
	posts   map[int64][]linkedin.PostRecord
	saved   []savedScrape
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byEmail: make(map[string]*store.User),
		byName:  make(map[string]*store.User),
		posts:   make(map[int64][]linkedin.PostRecord),
	}
}

func (f *fakeStore) UserByEmail(_ context.Context, email string) (*store.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UserByUsername(_ context.Context, username string) (*store.User, error) {
	if u, ok := f.byName[username]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) PostsForUser(_ context.Context, userID int64) ([]linkedin.PostRecord, error) {
	return f.posts[userID], nil
}

func (f *fakeStore) SaveScrape(_ context.Context, creds linkedin.Credentials, res *linkedin.ScrapeResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, savedScrape{creds: creds, res: res})
	return nil
}

type fakeFlow struct {
	loginOutcome linkedin.LoginOutcome
	loginErr     error
	resumePage   linkedin.Page
	resumeErr    error
}

func (f *fakeFlow) Login(_ context.Context, _ linkedin.Page, _ linkedin.Credentials) (linkedin.LoginOutcome, error) {
	return f.loginOutcome, f.loginErr
}

func (f *fakeFlow) Resume(_ context.Context, _, _ string) (linkedin.Page, error) {
	return f.resumePage, f.resumeErr
}

type fakeCollector struct {
	res *linkedin.ScrapeResult
	err error
}

func (f *fakeCollector) Collect(_ context.Context, _ linkedin.Page) (*linkedin.ScrapeResult, error) {
	return f.res, f.err
}

func testService(st Store, flow Flow, col Collector, factory PageFactory) *Service {
	return New(st, flow, col, factory, config.ScrapeConfig{}, zap.NewNop())
}

var testCreds = linkedin.Credentials{Email: "jane@example.com", Password: "hunter2"}

func pageFactory(page *stubPage, opened *int) PageFactory {
	return func(ctx context.Context) (linkedin.Page, error) {
		*opened++
		return page, nil
	}
}

func TestScrapeServesFromCache(t *testing.T) {
	st := newFakeStore()
	st.byEmail["jane@example.com"] = &store.User{ID: 7, Username: "janedoe", Email: "jane@example.com"}
	st.posts[7] = []linkedin.PostRecord{{URN: "urn:li:activity:1"}}

	opened := 0
	svc := testService(st, &fakeFlow{}, &fakeCollector{}, pageFactory(&stubPage{}, &opened))

	res, err := svc.Scrape(context.Background(), testCreds)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "janedoe", res.Username)
	assert.Len(t, res.Posts, 1)
	assert.Zero(t, opened, "cache hit must not open a browser")
}

func TestScrapeFreshLogin(t *testing.T) {
	st := newFakeStore()
	page := &stubPage{}
	opened := 0
	flow := &fakeFlow{loginOutcome: linkedin.LoginOutcome{State: linkedin.StateAuthenticated}}
	col := &fakeCollector{res: &linkedin.ScrapeResult{
		Username: "janedoe",
		Posts:    []linkedin.PostRecord{{URN: "urn:li:activity:1"}, {URN: "urn:li:activity:2"}},
	}}
	svc := testService(st, flow, col, pageFactory(page, &opened))

	res, err := svc.Scrape(context.Background(), testCreds)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.False(t, res.Pending)
	assert.Equal(t, "janedoe", res.Username)
	assert.Len(t, res.Posts, 2)
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, page.closed(), "service owns the page on the success path")

	require.Len(t, st.saved, 1)
	assert.Equal(t, testCreds, st.saved[0].creds)
}

func TestScrapeServesCacheByResolvedUsername(t *testing.T) {
	// A different login email can resolve to a vanity name that is already
	// on record; the stored posts win and nothing new is persisted.
	st := newFakeStore()
	st.byName["janedoe"] = &store.User{ID: 7, Username: "janedoe", Email: "old@example.com"}
	st.posts[7] = []linkedin.PostRecord{{URN: "urn:li:activity:1"}, {URN: "urn:li:activity:2"}}

	page := &stubPage{}
	opened := 0
	flow := &fakeFlow{loginOutcome: linkedin.LoginOutcome{State: linkedin.StateAuthenticated}}
	col := &fakeCollector{res: &linkedin.ScrapeResult{
		Username: "janedoe",
		Posts:    []linkedin.PostRecord{{URN: "urn:li:activity:9"}},
	}}
	svc := testService(st, flow, col, pageFactory(page, &opened))

	res, err := svc.Scrape(context.Background(), testCreds)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "janedoe", res.Username)
	assert.Len(t, res.Posts, 2, "stored posts returned, not the fresh harvest")
	assert.Empty(t, st.saved, "cache hit by username must not persist")
	assert.Equal(t, 1, page.closed())
}

func TestScrapeLoginFailureClosesPage(t *testing.T) {
	page := &stubPage{}
	opened := 0
	flow := &fakeFlow{loginErr: linkedin.ErrCredentials}
	svc := testService(newFakeStore(), flow, &fakeCollector{}, pageFactory(page, &opened))

	_, err := svc.Scrape(context.Background(), testCreds)
	require.ErrorIs(t, err, linkedin.ErrCredentials)
	assert.Equal(t, 1, page.closed())
}

func TestScrapePendingLeavesPageOpen(t *testing.T) {
	page := &stubPage{}
	opened := 0
	flow := &fakeFlow{loginOutcome: linkedin.LoginOutcome{State: linkedin.StatePinPending}}
	svc := testService(newFakeStore(), flow, &fakeCollector{}, pageFactory(page, &opened))

	res, err := svc.Scrape(context.Background(), testCreds)
	require.NoError(t, err)
	assert.True(t, res.Pending)
	assert.Zero(t, page.closed(), "suspended page is owned by the registry")
}

func TestVerifyCompletesSuspendedRun(t *testing.T) {
	st := newFakeStore()
	page := &stubPage{}
	opened := 0
	flow := &fakeFlow{
		loginOutcome: linkedin.LoginOutcome{State: linkedin.StatePinPending},
		resumePage:   page,
	}
	col := &fakeCollector{res: &linkedin.ScrapeResult{
		Username: "janedoe",
		Posts:    []linkedin.PostRecord{{URN: "urn:li:activity:1"}},
	}}
	svc := testService(st, flow, col, pageFactory(page, &opened))

	_, err := svc.Scrape(context.Background(), testCreds)
	require.NoError(t, err)

	res, err := svc.Verify(context.Background(), "jane@example.com", "", "123456")
	require.NoError(t, err)
	assert.Equal(t, "janedoe", res.Username)
	assert.Equal(t, 1, page.closed(), "verify owns the resumed page")

	// The credentials captured at suspension time back the persisted row.
	require.Len(t, st.saved, 1)
	assert.Equal(t, "hunter2", st.saved[0].creds.Password)
}

func TestVerifyWithoutPendingSession(t *testing.T) {
	flow := &fakeFlow{resumeErr: linkedin.ErrNoSession}
	svc := testService(newFakeStore(), flow, &fakeCollector{}, nil)

	_, err := svc.Verify(context.Background(), "nobody@example.com", "hunter2", "123456")
	require.ErrorIs(t, err, linkedin.ErrNoSession)
}

func TestVerifySuppliedPasswordWinsOverCaptured(t *testing.T) {
	// A process restart loses the pending credential map; the password sent
	// with the code backs the persisted row instead.
	st := newFakeStore()
	page := &stubPage{}
	flow := &fakeFlow{resumePage: page}
	col := &fakeCollector{res: &linkedin.ScrapeResult{Username: "janedoe", Posts: nil}}
	svc := testService(st, flow, col, nil)

	_, err := svc.Verify(context.Background(), "jane@example.com", "fresh-secret", "123456")
	require.NoError(t, err)
	require.Len(t, st.saved, 1)
	assert.Equal(t, "jane@example.com", st.saved[0].creds.Email)
	assert.Equal(t, "fresh-secret", st.saved[0].creds.Password)
}

func TestScrapePersistenceFailureSurfaces(t *testing.T) {
	st := newFakeStore()
	st.saveErr = errors.New("disk full")
	page := &stubPage{}
	opened := 0
	flow := &fakeFlow{loginOutcome: linkedin.LoginOutcome{State: linkedin.StateAuthenticated}}
	col := &fakeCollector{res: &linkedin.ScrapeResult{Username: "janedoe"}}
	svc := testService(st, flow, col, pageFactory(page, &opened))

	_, err := svc.Scrape(context.Background(), testCreds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, page.closed())
}

func TestPostsByUsername(t *testing.T) {
	st := newFakeStore()
	st.byName["janedoe"] = &store.User{ID: 7, Username: "janedoe"}
	st.posts[7] = []linkedin.PostRecord{{URN: "urn:li:activity:1"}}
	svc := testService(st, &fakeFlow{}, &fakeCollector{}, nil)

	res, err := svc.PostsByUsername(context.Background(), "janedoe")
	require.NoError(t, err)
	assert.Len(t, res.Posts, 1)

	_, err = svc.PostsByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

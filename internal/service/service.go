// File: internal/service/service.go

// Package service orchestrates one scrape run end to end: cache lookup,
// browser login, feed collection, persistence, and the suspended
// verification hand-off.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ayushpandey769/feedscraper/internal/config"
	"github.com/ayushpandey769/feedscraper/internal/linkedin"
	"github.com/ayushpandey769/feedscraper/internal/store"
)

// Store is the persistence surface the service needs.
type Store interface {
	UserByEmail(ctx context.Context, email string) (*store.User, error)
	UserByUsername(ctx context.Context, username string) (*store.User, error)
	PostsForUser(ctx context.Context, userID int64) ([]linkedin.PostRecord, error)
	SaveScrape(ctx context.Context, creds linkedin.Credentials, res *linkedin.ScrapeResult) error
}

// Flow runs the login and verification state machines.
type Flow interface {
	Login(ctx context.Context, page linkedin.Page, creds linkedin.Credentials) (linkedin.LoginOutcome, error)
	Resume(ctx context.Context, email, code string) (linkedin.Page, error)
}

// Collector harvests the activity feed of an authenticated page.
type Collector interface {
	Collect(ctx context.Context, page linkedin.Page) (*linkedin.ScrapeResult, error)
}

// PageFactory opens a fresh browser page. Wraps *browser.Manager in
// production.
type PageFactory func(ctx context.Context) (linkedin.Page, error)

// Result is the outcome of a scrape or verify call. Pending means the run
// is suspended on an email PIN and no posts are available yet.
type Result struct {
	Pending   bool
	FromCache bool
	Username  string
	Posts     []linkedin.PostRecord
}

// Service coordinates scrape runs. Safe for concurrent use.
type Service struct {
	store     Store
	flow      Flow
	collector Collector
	newPage   PageFactory
	limiter   *rate.Limiter
	logger    *zap.Logger

	// Credentials captured for runs suspended on a PIN, keyed by email, so
	// the eventual resume can persist under the same identity.
	mu      sync.Mutex
	pending map[string]linkedin.Credentials
}

func New(st Store, flow Flow, collector Collector, newPage PageFactory, cfg config.ScrapeConfig, logger *zap.Logger) *Service {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinLoginInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinLoginInterval), 1)
	}
	return &Service{
		store:     st,
		flow:      flow,
		collector: collector,
		newPage:   newPage,
		limiter:   limiter,
		logger:    logger.Named("service"),
		pending:   make(map[string]linkedin.Credentials),
	}
}

// Scrape serves one scrape request. A cached account short-circuits the
// browser entirely; otherwise a fresh login runs and either completes
// (collect + persist) or suspends on a PIN challenge.
func (s *Service) Scrape(ctx context.Context, creds linkedin.Credentials) (*Result, error) {
	log := s.logger.With(zap.String("run_id", uuid.NewString()), zap.String("email", creds.Email))

	if res, ok := s.cachedResult(ctx, creds.Email, log); ok {
		return res, nil
	}

	// Fresh logins are the expensive, detectable operation; space them out.
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	page, err := s.newPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening browser page: %w", err)
	}

	outcome, err := s.flow.Login(ctx, page, creds)
	if err != nil {
		s.closePage(page, log)
		return nil, err
	}
	if outcome.State == linkedin.StatePinPending {
		// The registry owns the page now; remember the credentials for the
		// resume so persistence can complete later.
		s.mu.Lock()
		s.pending[creds.Email] = creds
		s.mu.Unlock()
		log.Info("Scrape suspended on verification challenge")
		return &Result{Pending: true}, nil
	}

	defer s.closePage(page, log)

	res, err := s.collector.Collect(ctx, page)
	if err != nil {
		return nil, err
	}
	// The resolved vanity name may already be on record under a different
	// login email; stored posts win over the fresh harvest in that case.
	if cached, ok := s.cachedByUsername(ctx, res.Username, log); ok {
		return cached, nil
	}
	return s.persist(ctx, creds, res, log)
}

// Verify resumes a run suspended on an email PIN and carries it through
// collection and persistence. A password supplied with the code wins over
// the one captured at suspension time, so a resume still persists correctly
// after a process restart emptied the pending map.
func (s *Service) Verify(ctx context.Context, email, password, code string) (*Result, error) {
	log := s.logger.With(zap.String("run_id", uuid.NewString()), zap.String("email", email))

	s.mu.Lock()
	creds, ok := s.pending[email]
	delete(s.pending, email)
	s.mu.Unlock()
	if !ok {
		// The flow still gets a chance to report precisely: a registry miss
		// maps to the same ErrNoSession the caller expects.
		creds = linkedin.Credentials{Email: email}
	}
	if password != "" {
		creds.Password = password
	}

	page, err := s.flow.Resume(ctx, email, code)
	if err != nil {
		return nil, err
	}
	defer s.closePage(page, log)

	return s.collectAndPersist(ctx, page, creds, log)
}

// PostsByUsername serves stored posts without touching the browser.
func (s *Service) PostsByUsername(ctx context.Context, username string) (*Result, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.PostsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Result{FromCache: true, Username: user.Username, Posts: posts}, nil
}

func (s *Service) cachedResult(ctx context.Context, email string, log *zap.Logger) (*Result, bool) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("Cache lookup failed, falling through to live scrape", zap.Error(err))
		}
		return nil, false
	}
	return s.cachedPosts(ctx, user, log)
}

func (s *Service) cachedByUsername(ctx context.Context, username string, log *zap.Logger) (*Result, bool) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("Username cache lookup failed", zap.Error(err))
		}
		return nil, false
	}
	return s.cachedPosts(ctx, user, log)
}

func (s *Service) cachedPosts(ctx context.Context, user *store.User, log *zap.Logger) (*Result, bool) {
	posts, err := s.store.PostsForUser(ctx, user.ID)
	if err != nil {
		log.Warn("Stored posts unavailable, falling through to live scrape", zap.Error(err))
		return nil, false
	}
	log.Info("Serving scrape from cache",
		zap.String("username", user.Username), zap.Int("posts", len(posts)))
	return &Result{FromCache: true, Username: user.Username, Posts: posts}, true
}

func (s *Service) collectAndPersist(ctx context.Context, page linkedin.Page, creds linkedin.Credentials, log *zap.Logger) (*Result, error) {
	res, err := s.collector.Collect(ctx, page)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, creds, res, log)
}

func (s *Service) persist(ctx context.Context, creds linkedin.Credentials, res *linkedin.ScrapeResult, log *zap.Logger) (*Result, error) {
	if err := s.store.SaveScrape(ctx, creds, res); err != nil {
		// The scrape itself succeeded; surface the persistence failure but
		// keep the harvested data out of the error path decision upstream.
		return nil, fmt.Errorf("persisting scrape for %s: %w", res.Username, err)
	}
	log.Info("Scrape complete",
		zap.String("username", res.Username), zap.Int("posts", len(res.Posts)))
	return &Result{Username: res.Username, Posts: res.Posts}, nil
}

func (s *Service) closePage(page linkedin.Page, log *zap.Logger) {
	if err := page.Close(); err != nil {
		log.Warn("Closing browser page", zap.Error(err))
	}
}

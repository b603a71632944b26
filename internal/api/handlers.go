// File: internal/api/handlers.go

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/ayushpandey769/feedscraper/internal/linkedin"
	"github.com/ayushpandey769/feedscraper/internal/service"
	"github.com/ayushpandey769/feedscraper/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ScrapeService is the service surface the handlers call.
type ScrapeService interface {
	Scrape(ctx context.Context, creds linkedin.Credentials) (*service.Result, error)
	Verify(ctx context.Context, email, password, code string) (*service.Result, error)
	PostsByUsername(ctx context.Context, username string) (*service.Result, error)
}

// Handlers maps HTTP requests onto the scraping service.
type Handlers struct {
	svc    ScrapeService
	logger *zap.Logger
}

func NewHandlers(svc ScrapeService, logger *zap.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger.Named("handlers")}
}

// RegisterRoutes attaches the API surface to the router.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/scrape", h.handleScrape)
	r.Post("/verify", h.handleVerify)
	r.Get("/posts/{username}", h.handlePosts)
	r.Get("/healthz", h.handleHealth)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

type scrapeRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type scrapeResponse struct {
	Status       string                `json:"status"`
	Username     string                `json:"username"`
	Cached       bool                  `json:"cached"`
	PostsScraped int                   `json:"postsScraped"`
	Posts        []linkedin.PostRecord `json:"posts"`
}

type pendingResponse struct {
	Status               string `json:"status"`
	Email                string `json:"email"`
	VerificationRequired bool   `json:"verificationRequired"`
	Message              string `json:"message"`
}

type postsResponse struct {
	Status    string                `json:"status"`
	Username  string                `json:"username"`
	PostCount int                   `json:"postCount"`
	Posts     []linkedin.PostRecord `json:"posts"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (h *Handlers) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.svc.Scrape(r.Context(), linkedin.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if res.Pending {
		writeJSON(w, http.StatusAccepted, pendingResponse{
			Status:               "pending",
			Email:                req.Email,
			VerificationRequired: true,
			Message:              "verification required: submit the emailed code to /verify",
		})
		return
	}
	writeJSON(w, http.StatusOK, scrapeResponse{
		Status:       "success",
		Username:     res.Username,
		Cached:       res.FromCache,
		PostsScraped: len(res.Posts),
		Posts:        res.Posts,
	})
}

func (h *Handlers) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Password == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "email, password and code are required")
		return
	}

	res, err := h.svc.Verify(r.Context(), req.Email, req.Password, req.Code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scrapeResponse{
		Status:       "success",
		Username:     res.Username,
		PostsScraped: len(res.Posts),
		Posts:        res.Posts,
	})
}

func (h *Handlers) handlePosts(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	res, err := h.svc.PostsByUsername(r.Context(), username)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postsResponse{
		Status:    "success",
		Username:  res.Username,
		PostCount: len(res.Posts),
		Posts:     res.Posts,
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps domain failures onto status codes. Anything not
// recognized is an internal error and its details stay in the logs.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, linkedin.ErrCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, linkedin.ErrVerificationFailed):
		// A visible rejection means the submitted code was wrong; only the
		// ambiguous silent case maps to a timeout below.
		writeError(w, http.StatusBadRequest, "verification code rejected")
	case errors.Is(err, linkedin.ErrNoSession):
		writeError(w, http.StatusNotFound, "no pending verification session")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, linkedin.ErrVerificationTimeout), errors.Is(err, linkedin.ErrChallengeTimeout):
		writeError(w, http.StatusRequestTimeout, "verification timed out")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, "request timed out")
	default:
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Status: "error", Error: msg})
}

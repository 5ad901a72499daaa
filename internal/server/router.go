package server

import (
	"cadence/internal/score"
	"cadence/internal/score/scorer"
	"cadence/internal/session"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes limits request bodies.
const maxBodyBytes = 1 << 20

// scoreRequest is the body of POST /api/v1/scores.
type scoreRequest struct {
	Sessions      []score.Session `json:"sessions"`
	ReferenceDate string          `json:"referenceDate,omitempty"`
	Timezone      string          `json:"timezone,omitempty"`
}

// batchRequest is the body of POST /api/v1/scores/batch.
type batchRequest struct {
	Users         []string `json:"users"`
	ReferenceDate string   `json:"referenceDate,omitempty"`
	Timezone      string   `json:"timezone,omitempty"`
}

// batchResponse lists a score per user; users that could not be scored appear in Errors.
type batchResponse struct {
	Scores map[string]*score.ConsistencyScore `json:"scores"`
	Errors map[string]string                  `json:"errors,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ApiV1Router serves the scoring API:
//   - POST /api/v1/scores: scores the sessions in the body
//   - GET /api/v1/users/{user}/score: scores a stored user
//   - POST /api/v1/users/{user}/sessions: stores sessions for a user
//   - POST /api/v1/scores/batch: scores many stored users
//   - GET /healthz and GET /metrics
type ApiV1Router struct {
	userScorer  *scorer.UserScorer
	batchScorer *scorer.BatchScorer
	sessions    session.Repository
	obs         *Observability
	limiter     *RateLimiter
}

// NewApiV1Router creates the router. limiter may be nil to disable rate limiting.
func NewApiV1Router(
	userScorer *scorer.UserScorer,
	batchScorer *scorer.BatchScorer,
	sessions session.Repository,
	obs *Observability,
	limiter *RateLimiter,
) *ApiV1Router {
	if obs == nil {
		obs = NewObservability("")
	}
	return &ApiV1Router{
		userScorer:  userScorer,
		batchScorer: batchScorer,
		sessions:    sessions,
		obs:         obs,
		limiter:     limiter,
	}
}

// Handler returns the configured chi router.
func (ar *ApiV1Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ar.obs.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", ar.obs.MetricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ar.limiter.Middleware)
		r.Post("/scores", ar.scoreHandler)
		r.Post("/scores/batch", ar.batchHandler)
		r.Get("/users/{user}/score", ar.userScoreHandler)
		r.Post("/users/{user}/sessions", ar.sessionsHandler)
	})

	return r
}

// scoreHandler scores sessions supplied in the body without touching storage.
func (ar *ApiV1Router) scoreHandler(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		slog.Warn("Unable to decode score request", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	opts, err := ar.userScorer.ParseOptions(req.ReferenceDate, req.Timezone)
	if err != nil {
		writeScoreError(w, err)
		return
	}

	result, err := ar.userScorer.Evaluate(req.Sessions, opts)
	if err != nil {
		writeScoreError(w, err)
		return
	}

	ar.obs.ObserveScore(result.Score)
	writeJSON(w, http.StatusOK, result)
}

// userScoreHandler scores the stored sessions of the user in the path.
func (ar *ApiV1Router) userScoreHandler(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	query := r.URL.Query()

	opts, err := ar.userScorer.ParseOptions(query.Get("referenceDate"), query.Get("timezone"))
	if err != nil {
		writeScoreError(w, err)
		return
	}

	result, err := ar.userScorer.Score(r.Context(), user, opts)
	if err != nil {
		writeScoreError(w, err)
		return
	}

	ar.obs.ObserveScore(result.Score)
	writeJSON(w, http.StatusOK, result)
}

// sessionsHandler stores the sessions in the body for the user in the path.
func (ar *ApiV1Router) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")

	var sessions []score.Session
	if err := decodeBody(w, r, &sessions); err != nil {
		slog.Warn("Unable to decode sessions", "user", user, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	if err := ar.sessions.Insert(r.Context(), user, sessions); err != nil {
		writeScoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// batchHandler scores every user listed in the body.
func (ar *ApiV1Router) batchHandler(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		slog.Warn("Unable to decode batch request", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if len(req.Users) == 0 {
		writeError(w, http.StatusUnprocessableEntity, errors.New("users: must not be empty"))
		return
	}

	opts, err := ar.userScorer.ParseOptions(req.ReferenceDate, req.Timezone)
	if err != nil {
		writeScoreError(w, err)
		return
	}

	batch, err := ar.batchScorer.ScoreUsers(r.Context(), req.Users, opts)
	if err != nil {
		writeScoreError(w, err)
		return
	}

	response := batchResponse{Scores: batch.Scores}
	for _, result := range batch.Scores {
		ar.obs.ObserveScore(result.Score)
	}
	if len(batch.Errors) > 0 {
		response.Errors = make(map[string]string, len(batch.Errors))
		for user, err := range batch.Errors {
			response.Errors[user] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("malformed body: %w", err)
	}
	return nil
}

// writeScoreError maps scoring errors onto HTTP statuses.
func writeScoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, score.ErrInvalidTimezone), errors.Is(err, scorer.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, score.ErrInvalidSession):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		slog.Error("Unable to compute score", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Unable to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

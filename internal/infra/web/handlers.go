package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/infra/logging"
	red "ai-fortune-report/internal/infra/redis"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}

// ---- auth ----

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.authUC.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "invalid email or password too short")
		case errors.Is(err, domain.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email already registered")
		default:
			writeError(w, http.StatusServiceUnavailable, "persistence_error")
		}
		return
	}
	token, err := s.auth.Mint(w, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mint session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token, "user_id": user.ID})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.authUC.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "persistence_error")
		return
	}
	token, err := s.auth.Mint(w, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mint session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "user_id": user.ID})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ---- reports ----

func (s *Server) handleReportCreate(w http.ResponseWriter, r *http.Request) {
	owner := CurrentUserID(r.Context())

	var profile model.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := s.reportUC.Request(r.Context(), owner, profile)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "unauthenticated")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "invalid profile")
		default:
			writeError(w, http.StatusServiceUnavailable, "persistence_error")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"session": session})
}

type reportResponse struct {
	Session         string                 `json:"session"`
	Status          string                 `json:"status"`
	Narrative       string                 `json:"narrative,omitempty"`
	Recommendations []model.Recommendation `json:"recommendations,omitempty"`
	Unlocked        bool                   `json:"unlocked"`
	CreatedAt       time.Time              `json:"created_at"`
}

func (s *Server) handleReportGet(w http.ResponseWriter, r *http.Request) {
	owner := CurrentUserID(r.Context())
	session := chi.URLParam(r, "session")

	report, unlocked, err := s.reportUC.Get(r.Context(), owner, session)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "unauthenticated")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "report not found")
		default:
			writeError(w, http.StatusServiceUnavailable, "persistence_error")
		}
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Session:         report.Session,
		Status:          string(report.Status),
		Narrative:       report.Narrative,
		Recommendations: report.Recommendations,
		Unlocked:        unlocked,
		CreatedAt:       report.CreatedAt,
	})
}

func (s *Server) handleReportList(w http.ResponseWriter, r *http.Request) {
	owner := CurrentUserID(r.Context())

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reports, err := s.reportUC.List(r.Context(), owner, offset, limit)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "persistence_error")
		return
	}
	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, reportResponse{
			Session:   rep.Session,
			Status:    string(rep.Status),
			CreatedAt: rep.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": out})
}

// ---- unlock ----

type unlockRequest struct {
	Code string `json:"code"`
}

type unlockResponse struct {
	Unlocked bool   `json:"unlocked"`
	Already  bool   `json:"already,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := CurrentUserID(ctx)
	session := chi.URLParam(r, "session")

	// Throttle before touching the ledgers.
	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, red.UnlockAttemptKey(owner), s.attemptLimit, s.attemptWindow)
		if err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable, allowing attempt")
		} else if !ok {
			writeJSON(w, http.StatusTooManyRequests, unlockResponse{Error: "too_many_attempts"})
			return
		}
	}

	var req unlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, unlockResponse{Error: "invalid request body"})
		return
	}

	err := s.unlockUC.Redeem(ctx, owner, session, req.Code)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, unlockResponse{Unlocked: true})
	case errors.Is(err, domain.ErrAlreadyUnlocked):
		// Already unlocked is success from the user's perspective; the code
		// was not consumed.
		writeJSON(w, http.StatusOK, unlockResponse{Unlocked: true, Already: true})
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, unlockResponse{Error: "unauthenticated"})
	case errors.Is(err, domain.ErrEmptyCode):
		writeJSON(w, http.StatusBadRequest, unlockResponse{Error: "empty_code"})
	case errors.Is(err, domain.ErrCodeNotFound):
		writeJSON(w, http.StatusNotFound, unlockResponse{Error: "code_not_found"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, unlockResponse{Error: "report not found"})
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		writeJSON(w, http.StatusConflict, unlockResponse{Error: "code_already_used"})
	case errors.Is(err, domain.ErrCodeExpired):
		writeJSON(w, http.StatusGone, unlockResponse{Error: "code_expired"})
	default:
		logging.With(ctx, s.log).Error().Err(err).Msg("redeem failed")
		writeJSON(w, http.StatusServiceUnavailable, unlockResponse{Error: "persistence_error"})
	}
}

func (s *Server) handleIsUnlocked(w http.ResponseWriter, r *http.Request) {
	owner := CurrentUserID(r.Context()) // "" for anonymous callers
	session := chi.URLParam(r, "session")

	unlocked, err := s.unlockUC.IsUnlocked(r.Context(), owner, session)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "persistence_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": unlocked})
}

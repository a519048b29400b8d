package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
	red "ai-fortune-report/internal/infra/redis"

	"github.com/rs/zerolog"
)

// ---- stub use cases ----

type stubAuthUC struct {
	signUpFn   func(ctx context.Context, email, password string) (*model.User, error)
	signInFn   func(ctx context.Context, email, password string) (*model.User, error)
	identityFn func(ctx context.Context, userID string) (*model.User, error)
}

func (s *stubAuthUC) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	return s.signUpFn(ctx, email, password)
}
func (s *stubAuthUC) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	return s.signInFn(ctx, email, password)
}
func (s *stubAuthUC) Identity(ctx context.Context, userID string) (*model.User, error) {
	return s.identityFn(ctx, userID)
}

type stubReportUC struct {
	requestFn func(ctx context.Context, ownerID string, profile model.Profile) (string, error)
	getFn     func(ctx context.Context, viewerID, session string) (*model.Report, bool, error)
	listFn    func(ctx context.Context, ownerID string, offset, limit int) ([]*model.Report, error)
}

func (s *stubReportUC) Request(ctx context.Context, ownerID string, profile model.Profile) (string, error) {
	return s.requestFn(ctx, ownerID, profile)
}
func (s *stubReportUC) Get(ctx context.Context, viewerID, session string) (*model.Report, bool, error) {
	return s.getFn(ctx, viewerID, session)
}
func (s *stubReportUC) List(ctx context.Context, ownerID string, offset, limit int) ([]*model.Report, error) {
	return s.listFn(ctx, ownerID, offset, limit)
}

type stubUnlockUC struct {
	redeemFn     func(ctx context.Context, ownerID, session, code string) error
	isUnlockedFn func(ctx context.Context, ownerID, session string) (bool, error)
}

func (s *stubUnlockUC) Redeem(ctx context.Context, ownerID, session, code string) error {
	return s.redeemFn(ctx, ownerID, session, code)
}
func (s *stubUnlockUC) IsUnlocked(ctx context.Context, ownerID, session string) (bool, error) {
	return s.isUnlockedFn(ctx, ownerID, session)
}

// fakeRedis backs the rate limiter with an in-process counter map.
type fakeRedis struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeRedis() *fakeRedis { return &fakeRedis{counts: make(map[string]int64)} }

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }
func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	return nil
}
func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (f *fakeRedis) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}
func (f *fakeRedis) Expire(ctx context.Context, key string, _ time.Duration) error { return nil }
func (f *fakeRedis) Del(ctx context.Context, keys ...string) error                 { return nil }
func (f *fakeRedis) Close() error                                                  { return nil }

// ---- fixture ----

type webFixture struct {
	auth    *stubAuthUC
	reports *stubReportUC
	unlocks *stubUnlockUC
	mgr     *AuthManager
	srv     http.Handler
}

func newWebFixture(t *testing.T, attemptLimit int) *webFixture {
	t.Helper()
	logger := zerolog.New(io.Discard).Level(zerolog.Disabled)

	f := &webFixture{
		auth: &stubAuthUC{},
		reports: &stubReportUC{
			requestFn: func(context.Context, string, model.Profile) (string, error) { return "s-1", nil },
			getFn: func(context.Context, string, string) (*model.Report, bool, error) {
				return nil, false, domain.ErrNotFound
			},
			listFn: func(context.Context, string, int, int) ([]*model.Report, error) { return nil, nil },
		},
		unlocks: &stubUnlockUC{
			redeemFn:     func(context.Context, string, string, string) error { return nil },
			isUnlockedFn: func(context.Context, string, string) (bool, error) { return false, nil },
		},
		mgr: NewAuthManager("test-secret", false, time.Hour),
	}

	var limiter *red.RateLimiter
	if attemptLimit > 0 {
		limiter = red.NewRateLimiter(newFakeRedis())
	}
	f.srv = NewServer(f.auth, f.reports, f.unlocks, f.mgr, limiter, attemptLimit, time.Minute, &logger).Router()
	return f
}

// token mints a session token for userID, bypassing the signin handler.
func (f *webFixture) token(t *testing.T, userID string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	tok, err := f.mgr.Mint(rec, userID)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return tok
}

func (f *webFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

// ---- unlock endpoint ----

func TestHandleUnlock_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		redeemErr  error
		wantStatus int
		wantField  string
		wantValue  interface{}
	}{
		{"success", nil, http.StatusOK, "unlocked", true},
		{"already unlocked", domain.ErrAlreadyUnlocked, http.StatusOK, "already", true},
		{"empty code", domain.ErrEmptyCode, http.StatusBadRequest, "error", "empty_code"},
		{"code not found", domain.ErrCodeNotFound, http.StatusNotFound, "error", "code_not_found"},
		{"report not found", domain.ErrNotFound, http.StatusNotFound, "error", "report not found"},
		{"code already used", domain.ErrCodeAlreadyUsed, http.StatusConflict, "error", "code_already_used"},
		{"code expired", domain.ErrCodeExpired, http.StatusGone, "error", "code_expired"},
		{"persistence failure", domain.ErrPersistence, http.StatusServiceUnavailable, "error", "persistence_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newWebFixture(t, 0)
			f.unlocks.redeemFn = func(context.Context, string, string, string) error { return tc.redeemErr }

			rec := f.do(t, http.MethodPost, "/api/v1/reports/s-1/unlock", f.token(t, "u1"), unlockRequest{Code: "AB3D-EF9H"})
			if rec.Code != tc.wantStatus {
				t.Fatalf("status %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if got := body[tc.wantField]; got != tc.wantValue {
				t.Fatalf("field %q = %v, want %v", tc.wantField, got, tc.wantValue)
			}
		})
	}
}

func TestHandleUnlock_RequiresAuth(t *testing.T) {
	f := newWebFixture(t, 0)
	rec := f.do(t, http.MethodPost, "/api/v1/reports/s-1/unlock", "", unlockRequest{Code: "AB3D-EF9H"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestHandleUnlock_PassesNormalizableInputThrough(t *testing.T) {
	f := newWebFixture(t, 0)
	var gotOwner, gotSession, gotCode string
	f.unlocks.redeemFn = func(_ context.Context, owner, session, code string) error {
		gotOwner, gotSession, gotCode = owner, session, code
		return nil
	}
	f.do(t, http.MethodPost, "/api/v1/reports/s-42/unlock", f.token(t, "u7"), unlockRequest{Code: " ab3d-ef9h "})
	if gotOwner != "u7" || gotSession != "s-42" {
		t.Fatalf("owner/session = %q/%q", gotOwner, gotSession)
	}
	// Normalization is the use case's job; the handler forwards raw input.
	if gotCode != " ab3d-ef9h " {
		t.Fatalf("code %q was altered by the handler", gotCode)
	}
}

func TestHandleUnlock_RateLimited(t *testing.T) {
	const limit = 3
	f := newWebFixture(t, limit)
	token := f.token(t, "u1")

	for i := 0; i < limit; i++ {
		rec := f.do(t, http.MethodPost, "/api/v1/reports/s-1/unlock", token, unlockRequest{Code: "AB3D-EF9H"})
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: status %d, want 200", i+1, rec.Code)
		}
	}
	rec := f.do(t, http.MethodPost, "/api/v1/reports/s-1/unlock", token, unlockRequest{Code: "AB3D-EF9H"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "too_many_attempts" {
		t.Fatalf("unexpected body %v", body)
	}

	// Another user is throttled independently.
	rec = f.do(t, http.MethodPost, "/api/v1/reports/s-1/unlock", f.token(t, "u2"), unlockRequest{Code: "AB3D-EF9H"})
	if rec.Code != http.StatusOK {
		t.Fatalf("other user: status %d, want 200", rec.Code)
	}
}

// ---- lock status endpoint ----

func TestHandleIsUnlocked(t *testing.T) {
	f := newWebFixture(t, 0)
	f.unlocks.isUnlockedFn = func(_ context.Context, owner, session string) (bool, error) {
		return owner == "u1" && session == "s-1", nil
	}

	t.Run("anonymous reads locked", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/reports/s-1/unlocked", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		if body := decodeBody(t, rec); body["unlocked"] != false {
			t.Fatalf("anonymous caller must read locked, got %v", body)
		}
	})

	t.Run("owner reads unlocked", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/v1/reports/s-1/unlocked", f.token(t, "u1"), nil)
		if body := decodeBody(t, rec); body["unlocked"] != true {
			t.Fatalf("owner must read unlocked, got %v", body)
		}
	})
}

// ---- report endpoints ----

func TestHandleReportCreate(t *testing.T) {
	f := newWebFixture(t, 0)

	t.Run("accepted", func(t *testing.T) {
		f.reports.requestFn = func(_ context.Context, owner string, _ model.Profile) (string, error) {
			if owner != "u1" {
				t.Fatalf("owner %q, want u1", owner)
			}
			return "s-9", nil
		}
		rec := f.do(t, http.MethodPost, "/api/v1/reports", f.token(t, "u1"), map[string]interface{}{
			"birth_year": 2006, "birth_month": 4, "birth_day": 12,
			"gender": "female", "field": "math",
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status %d, want 202 (body %s)", rec.Code, rec.Body.String())
		}
		if body := decodeBody(t, rec); body["session"] != "s-9" {
			t.Fatalf("unexpected body %v", body)
		}
	})

	t.Run("invalid profile", func(t *testing.T) {
		f.reports.requestFn = func(context.Context, string, model.Profile) (string, error) {
			return "", domain.ErrInvalidArgument
		}
		rec := f.do(t, http.MethodPost, "/api/v1/reports", f.token(t, "u1"), map[string]interface{}{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status %d, want 400", rec.Code)
		}
	})
}

func TestHandleReportGet(t *testing.T) {
	f := newWebFixture(t, 0)

	t.Run("locked report omits recommendations", func(t *testing.T) {
		f.reports.getFn = func(context.Context, string, string) (*model.Report, bool, error) {
			return &model.Report{
				Session:   "s-1",
				Status:    model.ReportStatusReady,
				Narrative: "bright days ahead",
			}, false, nil
		}
		rec := f.do(t, http.MethodGet, "/api/v1/reports/s-1", f.token(t, "u1"), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["unlocked"] != false {
			t.Fatalf("expected unlocked=false, got %v", body["unlocked"])
		}
		if _, present := body["recommendations"]; present {
			t.Fatal("locked response must omit recommendations")
		}
		if body["narrative"] != "bright days ahead" {
			t.Fatalf("narrative missing from %v", body)
		}
	})

	t.Run("unlocked report includes recommendations", func(t *testing.T) {
		f.reports.getFn = func(context.Context, string, string) (*model.Report, bool, error) {
			return &model.Report{
				Session: "s-1",
				Status:  model.ReportStatusReady,
				Recommendations: []model.Recommendation{
					{Institution: "Tech Institute", Tier: 1, Rationale: "strong fit"},
				},
			}, true, nil
		}
		rec := f.do(t, http.MethodGet, "/api/v1/reports/s-1", f.token(t, "u1"), nil)
		body := decodeBody(t, rec)
		if body["unlocked"] != true {
			t.Fatalf("expected unlocked=true, got %v", body["unlocked"])
		}
		if _, present := body["recommendations"]; !present {
			t.Fatal("unlocked response must include recommendations")
		}
	})

	t.Run("missing report", func(t *testing.T) {
		f.reports.getFn = func(context.Context, string, string) (*model.Report, bool, error) {
			return nil, false, domain.ErrNotFound
		}
		rec := f.do(t, http.MethodGet, "/api/v1/reports/nope", f.token(t, "u1"), nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status %d, want 404", rec.Code)
		}
	})
}

func TestHandleReportList(t *testing.T) {
	f := newWebFixture(t, 0)
	f.reports.listFn = func(_ context.Context, owner string, offset, limit int) ([]*model.Report, error) {
		if offset != 5 || limit != 2 {
			t.Fatalf("pagination %d/%d, want 5/2", offset, limit)
		}
		return []*model.Report{
			{Session: "s-1", Status: model.ReportStatusReady},
			{Session: "s-2", Status: model.ReportStatusPending},
		}, nil
	}
	rec := f.do(t, http.MethodGet, "/api/v1/reports?offset=5&limit=2", f.token(t, "u1"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	reports, ok := body["reports"].([]interface{})
	if !ok || len(reports) != 2 {
		t.Fatalf("unexpected body %v", body)
	}
}

// ---- auth endpoints ----

func TestHandleSignUpSignIn(t *testing.T) {
	f := newWebFixture(t, 0)
	user := &model.User{ID: "u1", Email: "a@b.com"}

	t.Run("signup sets a session", func(t *testing.T) {
		f.auth.signUpFn = func(context.Context, string, string) (*model.User, error) { return user, nil }
		rec := f.do(t, http.MethodPost, "/api/v1/auth/signup", "", credentialsRequest{Email: "a@b.com", Password: "password-1"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status %d, want 201", rec.Code)
		}
		body := decodeBody(t, rec)
		if body["token"] == "" || body["user_id"] != "u1" {
			t.Fatalf("unexpected body %v", body)
		}
		if cookies := rec.Result().Cookies(); len(cookies) == 0 || cookies[0].Name != "session" {
			t.Fatal("expected a session cookie")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		f.auth.signUpFn = func(context.Context, string, string) (*model.User, error) {
			return nil, domain.ErrEmailTaken
		}
		rec := f.do(t, http.MethodPost, "/api/v1/auth/signup", "", credentialsRequest{Email: "a@b.com", Password: "password-1"})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status %d, want 409", rec.Code)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		f.auth.signInFn = func(context.Context, string, string) (*model.User, error) {
			return nil, domain.ErrInvalidCredentials
		}
		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin", "", credentialsRequest{Email: "a@b.com", Password: "wrong"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status %d, want 401", rec.Code)
		}
	})

	t.Run("signin mints a usable token", func(t *testing.T) {
		f.auth.signInFn = func(context.Context, string, string) (*model.User, error) { return user, nil }
		rec := f.do(t, http.MethodPost, "/api/v1/auth/signin", "", credentialsRequest{Email: "a@b.com", Password: "password-1"})
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		token, _ := decodeBody(t, rec)["token"].(string)

		f.unlocks.isUnlockedFn = func(_ context.Context, owner, _ string) (bool, error) {
			return owner == "u1", nil
		}
		check := f.do(t, http.MethodGet, "/api/v1/reports/s-1/unlocked", token, nil)
		if body := decodeBody(t, check); body["unlocked"] != true {
			t.Fatalf("token did not authenticate: %v", body)
		}
	})
}

func TestAuthManager_RejectsForgedTokens(t *testing.T) {
	f := newWebFixture(t, 0)
	other := NewAuthManager("different-secret", false, time.Hour)
	rec := httptest.NewRecorder()
	forged, err := other.Mint(rec, "u1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	resp := f.do(t, http.MethodGet, "/api/v1/reports", forged, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.Code)
	}
}

func TestRouterHealth(t *testing.T) {
	f := newWebFixture(t, 0)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Fatalf("body %q, want OK", rec.Body.String())
	}
}

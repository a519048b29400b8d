package usecase

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-fortune-report/internal/domain"
	"ai-fortune-report/internal/domain/model"
	"ai-fortune-report/internal/domain/ports/adapter"
	"ai-fortune-report/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &l
}

// mockTxManager runs the callback without a real transaction; the in-memory
// repos below serialize writes themselves.
type mockTxManager struct{}

func newMockTxManager() *mockTxManager { return &mockTxManager{} }

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// memCodeRepo is a small in-memory redemption ledger used by unit tests.
type memCodeRepo struct {
	mu      sync.Mutex
	store   map[string]*model.RedemptionCode // by ID
	saveErr error
	findErr error
	markErr error
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{store: make(map[string]*model.RedemptionCode)}
}

func (m *memCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.RedemptionCode) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.store {
		if c.Code == code.Code && c.OwnerID == code.OwnerID {
			return domain.ErrAlreadyExists
		}
	}
	cp := *code
	m.store[code.ID] = &cp
	return nil
}

func (m *memCodeRepo) FindByCodeAndOwner(ctx context.Context, tx repository.Tx, code, ownerID string) (*model.RedemptionCode, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.store {
		if c.Code == code && c.OwnerID == ownerID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// MarkUsed mirrors the conditional UPDATE: it fails when the stored row is
// already used, regardless of what the caller read earlier.
func (m *memCodeRepo) MarkUsed(ctx context.Context, tx repository.Tx, codeID string, usedAt time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[codeID]
	if !ok || c.Used {
		return domain.ErrCodeAlreadyUsed
	}
	c.Used = true
	c.UsedAt = &usedAt
	return nil
}

func (m *memCodeRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string) ([]*model.RedemptionCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.RedemptionCode
	for _, c := range m.store {
		if c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memUnlockRepo enforces the (owner, session) uniqueness the real table has.
type memUnlockRepo struct {
	mu        sync.Mutex
	store     map[string]*model.UnlockRecord // key owner|session
	insertErr error
	findErr   error
}

func newMemUnlockRepo() *memUnlockRepo {
	return &memUnlockRepo{store: make(map[string]*model.UnlockRecord)}
}

func unlockKey(owner, session string) string { return owner + "|" + session }

func (m *memUnlockRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.UnlockRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := unlockKey(rec.OwnerID, rec.ReportSession)
	if _, exists := m.store[key]; exists {
		return domain.ErrAlreadyUnlocked
	}
	cp := *rec
	m.store[key] = &cp
	return nil
}

func (m *memUnlockRepo) Find(ctx context.Context, tx repository.Tx, ownerID, reportSession string) (*model.UnlockRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[unlockKey(ownerID, reportSession)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memUnlockRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

// memReportRepo stores reports by session.
type memReportRepo struct {
	mu        sync.Mutex
	store     map[string]*model.Report
	upsertErr error
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{store: make(map[string]*model.Report)}
}

func (m *memReportRepo) Upsert(ctx context.Context, tx repository.Tx, report *model.Report) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *report
	m.store[report.Session] = &cp
	return nil
}

func (m *memReportRepo) FindBySession(ctx context.Context, tx repository.Tx, session string) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.store[session]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (m *memReportRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, offset, limit int) ([]*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Report
	for _, rep := range m.store {
		if rep.OwnerID == ownerID {
			cp := *rep
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memUserRepo stores users by id.
type memUserRepo struct {
	mu      sync.Mutex
	store   map[string]*model.User
	saveErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.store {
		if ex.Email == u.Email && ex.ID != u.ID {
			return domain.ErrEmailTaken
		}
	}
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

// --- fake external adapters ---

type fakeFortune struct {
	reading *adapter.Reading
	err     error
}

func (f *fakeFortune) Divine(ctx context.Context, profile model.Profile) (*adapter.Reading, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.reading != nil {
		return f.reading, nil
	}
	return &adapter.Reading{Summary: "calm waters", Element: "water", StudyLuck: 80}, nil
}

type fakeAI struct {
	reply string
	err   error
}

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) { return []string{"fake"}, nil }
func (f *fakeAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: "fake"}, nil
}
func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return 0, nil
}
func (f *fakeAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "a bright semester awaits", nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []string
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, text)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notes)
}

package api

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/feliciasalim/PPL/internal/config"
	"github.com/feliciasalim/PPL/internal/ml"
	"github.com/feliciasalim/PPL/internal/model"

	"github.com/gin-gonic/gin"
)

type mockUserStore struct {
	getByIDFunc           func(ctx context.Context, id uint) (*model.User, error)
	getByEmailFunc        func(ctx context.Context, email string) (*model.User, error)
	updateFunc            func(ctx context.Context, user *model.User) error
	deleteWithHistoryFunc func(ctx context.Context, id uint) error
	updateCalls           int
	deleteCalls           int
}

func (m *mockUserStore) GetByID(ctx context.Context, id uint) (*model.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserStore) Update(ctx context.Context, user *model.User) error {
	m.updateCalls++
	if m.updateFunc != nil {
		return m.updateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserStore) DeleteWithHistory(ctx context.Context, id uint) error {
	m.deleteCalls++
	if m.deleteWithHistoryFunc != nil {
		return m.deleteWithHistoryFunc(ctx, id)
	}
	return nil
}

type mockHistoryStore struct {
	createFunc     func(ctx context.Context, entry *model.HistoryEntry) error
	listByUserFunc func(ctx context.Context, userID uint) ([]model.HistoryEntry, error)
	getOwnedFunc   func(ctx context.Context, id string, userID uint) (*model.HistoryEntry, error)
	listSinceFunc  func(ctx context.Context, userID uint, since time.Time) ([]model.HistoryEntry, error)
	countSinceFunc func(ctx context.Context, userID uint, since time.Time) (int64, error)
	listRecentFunc func(ctx context.Context, userID uint, limit int) ([]model.HistoryEntry, error)
	createCalls    int
}

func (m *mockHistoryStore) Create(ctx context.Context, entry *model.HistoryEntry) error {
	m.createCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	return nil
}

func (m *mockHistoryStore) ListByUser(ctx context.Context, userID uint) ([]model.HistoryEntry, error) {
	return m.listByUserFunc(ctx, userID)
}

func (m *mockHistoryStore) GetOwned(ctx context.Context, id string, userID uint) (*model.HistoryEntry, error) {
	return m.getOwnedFunc(ctx, id, userID)
}

func (m *mockHistoryStore) ListSince(ctx context.Context, userID uint, since time.Time) ([]model.HistoryEntry, error) {
	return m.listSinceFunc(ctx, userID, since)
}

func (m *mockHistoryStore) CountSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	return m.countSinceFunc(ctx, userID, since)
}

func (m *mockHistoryStore) ListRecent(ctx context.Context, userID uint, limit int) ([]model.HistoryEntry, error) {
	return m.listRecentFunc(ctx, userID, limit)
}

type mockResetStore struct {
	createCodeFunc func(ctx context.Context, code *model.ResetCode) error
	findValidFunc  func(ctx context.Context, email string, code string, now time.Time) (*model.ResetCode, error)
	markUsedFunc   func(ctx context.Context, id uint) error
	createCalls    int
	markUsedCalls  int
}

func (m *mockResetStore) CreateCode(ctx context.Context, code *model.ResetCode) error {
	m.createCalls++
	if m.createCodeFunc != nil {
		return m.createCodeFunc(ctx, code)
	}
	return nil
}

func (m *mockResetStore) FindValid(ctx context.Context, email string, code string, now time.Time) (*model.ResetCode, error) {
	return m.findValidFunc(ctx, email, code, now)
}

func (m *mockResetStore) MarkUsed(ctx context.Context, id uint) error {
	m.markUsedCalls++
	if m.markUsedFunc != nil {
		return m.markUsedFunc(ctx, id)
	}
	return nil
}

type mockAnalyzer struct {
	analyzeFunc func(ctx context.Context, text string) (*ml.Result, error)
	calls       int
}

func (m *mockAnalyzer) Analyze(ctx context.Context, text string) (*ml.Result, error) {
	m.calls++
	return m.analyzeFunc(ctx, text)
}

type mockMailer struct {
	sendFunc  func(toEmail string, code string, ttlMinutes int) error
	sentCodes []string
}

func (m *mockMailer) SendResetCode(toEmail string, code string, ttlMinutes int) error {
	m.sentCodes = append(m.sentCodes, code)
	if m.sendFunc != nil {
		return m.sendFunc(toEmail, code, ttlMinutes)
	}
	return nil
}

type mockLimiter struct {
	allowFunc func(ctx context.Context, key string) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if m.allowFunc != nil {
		return m.allowFunc(ctx, key)
	}
	return true, nil
}

type mockGate struct {
	acquireFunc func(ctx context.Context, email string) (bool, error)
}

func (m *mockGate) Acquire(ctx context.Context, email string) (bool, error) {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, email)
	}
	return true, nil
}

func (m *mockGate) Release(ctx context.Context, email string) error {
	return nil
}

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	return &Server{
		cfg: &config.Config{
			App: config.AppConfig{
				Env:             "local",
				ResetCodeTTL:    10 * time.Minute,
				DashboardWindow: 7,
			},
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

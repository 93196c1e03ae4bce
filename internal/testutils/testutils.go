package testutils

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/AlenaMolokova/circlepay/internal/ledger"
	"github.com/AlenaMolokova/circlepay/internal/models"
)

type MockWithdrawalLedger struct {
	mock.Mock
}

func (m *MockWithdrawalLedger) Append(ctx context.Context, req models.WithdrawalRequest, payoutType string) (models.WithdrawalRequest, error) {
	args := m.Called(ctx, req, payoutType)
	return args.Get(0).(models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalLedger) FindByID(ctx context.Context, requestID string) (models.WithdrawalRequest, bool, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(models.WithdrawalRequest), args.Bool(1), args.Error(2)
}

func (m *MockWithdrawalLedger) Confirm(ctx context.Context, requestID, actor string) (ledger.Outcome, error) {
	args := m.Called(ctx, requestID, actor)
	return args.Get(0).(ledger.Outcome), args.Error(1)
}

func (m *MockWithdrawalLedger) Cancel(ctx context.Context, requestID, actor, reason string) (ledger.Outcome, error) {
	args := m.Called(ctx, requestID, actor, reason)
	return args.Get(0).(ledger.Outcome), args.Error(1)
}

// StaticSettings is a settings source that never changes.
type StaticSettings models.Settings

func (s StaticSettings) Get(context.Context) models.Settings {
	return models.Settings(s)
}

type MockMatcher struct {
	mock.Mock
}

func (m *MockMatcher) Match(ctx context.Context, method string, amount decimal.Decimal, owners []models.OwnerAccount, threshold decimal.Decimal) (models.MatchResult, error) {
	args := m.Called(ctx, method, amount, owners, threshold)
	return args.Get(0).(models.MatchResult), args.Error(1)
}

type MockWithdrawalService struct {
	mock.Mock
}

func (m *MockWithdrawalService) Submit(ctx context.Context, req models.WithdrawalRequest) (models.WithdrawalRequest, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalService) Get(ctx context.Context, requestID string) (models.WithdrawalRequest, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(models.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalService) Confirm(ctx context.Context, requestID, actor string) (models.WithdrawalRequest, bool, error) {
	args := m.Called(ctx, requestID, actor)
	return args.Get(0).(models.WithdrawalRequest), args.Bool(1), args.Error(2)
}

func (m *MockWithdrawalService) Cancel(ctx context.Context, requestID, actor, reason string) (models.WithdrawalRequest, bool, error) {
	args := m.Called(ctx, requestID, actor, reason)
	return args.Get(0).(models.WithdrawalRequest), args.Bool(1), args.Error(2)
}

type MockBuyInService struct {
	mock.Mock
}

func (m *MockBuyInService) BuyIn(ctx context.Context, method string, amount decimal.Decimal) (models.MatchResult, error) {
	args := m.Called(ctx, method, amount)
	return args.Get(0).(models.MatchResult), args.Error(1)
}

type MockPendingStore struct {
	mock.Mock
}

func (m *MockPendingStore) Create(owner, rail string, amount decimal.Decimal) (models.PendingIntent, error) {
	args := m.Called(owner, rail, amount)
	return args.Get(0).(models.PendingIntent), args.Error(1)
}

func (m *MockPendingStore) Get(token string) (models.PendingIntent, bool) {
	args := m.Called(token)
	return args.Get(0).(models.PendingIntent), args.Bool(1)
}

func (m *MockPendingStore) Delete(token string) {
	m.Called(token)
}

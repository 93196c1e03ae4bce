package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/ledger"
	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/settings"
	"github.com/AlenaMolokova/circlepay/internal/testutils"
)

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		req         models.WithdrawalRequest
		setupMocks  func(*testutils.MockWithdrawalLedger)
		expectedErr error
		expectedOut string
	}{
		{
			name: "круговой метод попадает в очередь",
			req:  models.WithdrawalRequest{UserID: "1", Amount: decimal.NewFromInt(50), Method: "zelle", Destination: "a@b.c"},
			setupMocks: func(l *testutils.MockWithdrawalLedger) {
				l.On("Append", mock.Anything, mock.MatchedBy(func(r models.WithdrawalRequest) bool {
					return r.Method == "ZELLE" && r.RequestID == ""
				}), constants.PayoutCircle).Return(models.WithdrawalRequest{RequestID: "w1", Status: constants.StatusQueued}, nil)
			},
			expectedOut: "w1",
		},
		{
			name: "метод владельца записывается как OWNER",
			req:  models.WithdrawalRequest{UserID: "1", Amount: decimal.NewFromInt(500), Method: "BTC", Destination: "bc1q"},
			setupMocks: func(l *testutils.MockWithdrawalLedger) {
				l.On("Append", mock.Anything, mock.Anything, constants.PayoutOwner).
					Return(models.WithdrawalRequest{RequestID: "w2", Status: constants.StatusLogged}, nil)
			},
			expectedOut: "w2",
		},
		{
			name:        "выключенный метод",
			req:         models.WithdrawalRequest{Amount: decimal.NewFromInt(50), Method: "WIRE", Destination: "acct"},
			setupMocks:  func(l *testutils.MockWithdrawalLedger) {},
			expectedErr: models.ErrMethodDisabled,
		},
		{
			name:        "сумма ниже минимума",
			req:         models.WithdrawalRequest{Amount: decimal.NewFromInt(1), Method: "ZELLE", Destination: "a@b.c"},
			setupMocks:  func(l *testutils.MockWithdrawalLedger) {},
			expectedErr: models.ErrInvalidAmount,
		},
		{
			name:        "нет реквизитов получателя",
			req:         models.WithdrawalRequest{Amount: decimal.NewFromInt(50), Method: "ZELLE"},
			setupMocks:  func(l *testutils.MockWithdrawalLedger) {},
			expectedErr: models.ErrInvalidRequest,
		},
		{
			name: "ошибка записи в таблицу",
			req:  models.WithdrawalRequest{Amount: decimal.NewFromInt(50), Method: "ZELLE", Destination: "a@b.c"},
			setupMocks: func(l *testutils.MockWithdrawalLedger) {
				l.On("Append", mock.Anything, mock.Anything, constants.PayoutCircle).
					Return(models.WithdrawalRequest{}, models.ErrTransientIO)
			},
			expectedErr: models.ErrTransientIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := new(testutils.MockWithdrawalLedger)
			tt.setupMocks(l)
			uc := NewWithdrawalUseCase(l, testutils.StaticSettings(settings.Defaults()))

			got, err := uc.Submit(ctx, tt.req)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedOut, got.RequestID)
			}
			l.AssertExpectations(t)
		})
	}
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	l := new(testutils.MockWithdrawalLedger)
	l.On("FindByID", mock.Anything, "w1").Return(models.WithdrawalRequest{RequestID: "w1"}, true, nil)
	l.On("FindByID", mock.Anything, "missing").Return(models.WithdrawalRequest{}, false, nil)
	l.On("FindByID", mock.Anything, "broken").Return(models.WithdrawalRequest{}, false, errors.New("boom"))
	uc := NewWithdrawalUseCase(l, testutils.StaticSettings(settings.Defaults()))

	w, err := uc.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "w1", w.RequestID)

	_, err = uc.Get(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = uc.Get(ctx, "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		outcome       ledger.Outcome
		status        string
		expectedErr   error
		expectChanged bool
	}{
		{name: "первое подтверждение", outcome: ledger.Applied, status: constants.StatusPaid, expectChanged: true},
		{name: "повторное подтверждение", outcome: ledger.Unchanged, status: constants.StatusPaid},
		{name: "отменённая заявка", outcome: ledger.Conflict, status: constants.StatusCancelled, expectedErr: models.ErrStatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := new(testutils.MockWithdrawalLedger)
			l.On("Confirm", mock.Anything, "w1", "admin").Return(tt.outcome, nil)
			l.On("FindByID", mock.Anything, "w1").Return(models.WithdrawalRequest{RequestID: "w1", Status: tt.status}, true, nil)
			uc := NewWithdrawalUseCase(l, testutils.StaticSettings(settings.Defaults()))

			w, changed, err := uc.Confirm(ctx, "w1", "admin")
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectChanged, changed)
			assert.Equal(t, tt.status, w.Status)
		})
	}
}

func TestCancelNotFound(t *testing.T) {
	l := new(testutils.MockWithdrawalLedger)
	l.On("Cancel", mock.Anything, "nope", "admin", "dup").Return(ledger.Outcome(0), models.ErrNotFound)
	uc := NewWithdrawalUseCase(l, testutils.StaticSettings(settings.Defaults()))

	_, _, err := uc.Cancel(context.Background(), "nope", "admin", "dup")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/AlenaMolokova/circlepay/internal/models"
)

type WithdrawalService interface {
	Submit(ctx context.Context, req models.WithdrawalRequest) (models.WithdrawalRequest, error)
	Get(ctx context.Context, requestID string) (models.WithdrawalRequest, error)
	Confirm(ctx context.Context, requestID, actor string) (models.WithdrawalRequest, bool, error)
	Cancel(ctx context.Context, requestID, actor, reason string) (models.WithdrawalRequest, bool, error)
}

type BuyInService interface {
	BuyIn(ctx context.Context, method string, amount decimal.Decimal) (models.MatchResult, error)
}

type PendingStore interface {
	Create(owner, rail string, amount decimal.Decimal) (models.PendingIntent, error)
	Get(token string) (models.PendingIntent, bool)
	Delete(token string)
}

package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/AlenaMolokova/circlepay/internal/models"
)

type Matcher interface {
	Match(ctx context.Context, method string, amount decimal.Decimal, owners []models.OwnerAccount, ownerFallbackThreshold decimal.Decimal) (models.MatchResult, error)
}

type BuyInUseCase struct {
	matcher  Matcher
	settings SettingsSource
}

func NewBuyInUseCase(matcher Matcher, settings SettingsSource) *BuyInUseCase {
	return &BuyInUseCase{
		matcher:  matcher,
		settings: settings,
	}
}

// BuyIn matches a payer using the owner accounts and fallback threshold
// currently configured.
func (uc *BuyInUseCase) BuyIn(ctx context.Context, method string, amount decimal.Decimal) (models.MatchResult, error) {
	s := uc.settings.Get(ctx)
	return uc.matcher.Match(ctx, method, amount, s.OwnerAccounts, s.OwnerFallbackThreshold)
}

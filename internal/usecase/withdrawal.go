package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/ledger"
	"github.com/AlenaMolokova/circlepay/internal/matching"
	"github.com/AlenaMolokova/circlepay/internal/models"
)

type WithdrawalLedger interface {
	Append(ctx context.Context, req models.WithdrawalRequest, payoutType string) (models.WithdrawalRequest, error)
	FindByID(ctx context.Context, requestID string) (models.WithdrawalRequest, bool, error)
	Confirm(ctx context.Context, requestID, actor string) (ledger.Outcome, error)
	Cancel(ctx context.Context, requestID, actor, reason string) (ledger.Outcome, error)
}

type SettingsSource interface {
	Get(ctx context.Context) models.Settings
}

type WithdrawalUseCase struct {
	ledger   WithdrawalLedger
	settings SettingsSource
}

func NewWithdrawalUseCase(l WithdrawalLedger, settings SettingsSource) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		ledger:   l,
		settings: settings,
	}
}

// Submit records a withdrawal. Circle methods join the matching queue, owner
// methods are logged for the owner to pay.
func (uc *WithdrawalUseCase) Submit(ctx context.Context, req models.WithdrawalRequest) (models.WithdrawalRequest, error) {
	s := uc.settings.Get(ctx)
	req.Method = models.NormalizeMethod(req.Method)
	if err := matching.Validate(s, req.Method, req.Amount); err != nil {
		return models.WithdrawalRequest{}, err
	}
	if strings.TrimSpace(req.Destination) == "" {
		return models.WithdrawalRequest{}, fmt.Errorf("%w: destination is required", models.ErrInvalidRequest)
	}

	var payoutType string
	switch {
	case s.IsCircleMethod(req.Method):
		payoutType = constants.PayoutCircle
	case s.IsOwnerMethod(req.Method):
		payoutType = constants.PayoutOwner
	default:
		return models.WithdrawalRequest{}, fmt.Errorf("%w: %s", models.ErrMethodDisabled, req.Method)
	}

	// Server-side fields are never taken from the caller.
	req.RequestID = ""
	req.Status = ""
	req.ParentRequestID = ""

	created, err := uc.ledger.Append(ctx, req, payoutType)
	if err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("failed to record withdrawal: %w", err)
	}
	return created, nil
}

func (uc *WithdrawalUseCase) Get(ctx context.Context, requestID string) (models.WithdrawalRequest, error) {
	w, found, err := uc.ledger.FindByID(ctx, requestID)
	if err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if !found {
		return models.WithdrawalRequest{}, fmt.Errorf("withdrawal %s: %w", requestID, models.ErrNotFound)
	}
	return w, nil
}

// Confirm marks the withdrawal paid. Repeating it is harmless and reports
// changed=false.
func (uc *WithdrawalUseCase) Confirm(ctx context.Context, requestID, actor string) (models.WithdrawalRequest, bool, error) {
	outcome, err := uc.ledger.Confirm(ctx, requestID, actor)
	if err != nil {
		return models.WithdrawalRequest{}, false, fmt.Errorf("failed to confirm withdrawal: %w", err)
	}
	return uc.afterTransition(ctx, requestID, outcome)
}

func (uc *WithdrawalUseCase) Cancel(ctx context.Context, requestID, actor, reason string) (models.WithdrawalRequest, bool, error) {
	outcome, err := uc.ledger.Cancel(ctx, requestID, actor, reason)
	if err != nil {
		return models.WithdrawalRequest{}, false, fmt.Errorf("failed to cancel withdrawal: %w", err)
	}
	return uc.afterTransition(ctx, requestID, outcome)
}

func (uc *WithdrawalUseCase) afterTransition(ctx context.Context, requestID string, outcome ledger.Outcome) (models.WithdrawalRequest, bool, error) {
	w, err := uc.Get(ctx, requestID)
	if err != nil {
		return models.WithdrawalRequest{}, false, err
	}
	if outcome == ledger.Conflict {
		return w, false, fmt.Errorf("withdrawal %s is %s: %w", requestID, w.Status, models.ErrStatusConflict)
	}
	return w, outcome == ledger.Applied, nil
}

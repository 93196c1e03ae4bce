package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/ledger"
	"github.com/AlenaMolokova/circlepay/internal/models"
)

type Queue interface {
	ListOpenCircle(ctx context.Context) ([]models.WithdrawalRequest, error)
	TransitionStatus(ctx context.Context, requestID, newStatus, actor, note string, opts ...ledger.TransitionOption) (ledger.Outcome, error)
	SplitRemainder(ctx context.Context, parent models.WithdrawalRequest, remainder decimal.Decimal) (models.WithdrawalRequest, error)
}

type SettingsSource interface {
	Get(ctx context.Context) models.Settings
}

const placeholderInstructions = "No owner account is configured for this method yet. Contact an operator before sending funds."

type Engine struct {
	queue    Queue
	settings SettingsSource
	log      zerolog.Logger
	now      func() time.Time
}

func NewEngine(queue Queue, settings SettingsSource, log zerolog.Logger) *Engine {
	return &Engine{
		queue:    queue,
		settings: settings,
		log:      log.With().Str("component", "matching").Logger(),
		now:      time.Now,
	}
}

func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

type candidate struct {
	w         models.WithdrawalRequest
	remainder decimal.Decimal
}

func (c candidate) exact() bool {
	return c.remainder.IsZero()
}

// Match routes a buy-in either to a queued circle withdrawal or to an owner
// account. Only validation errors are returned; store trouble degrades to the
// owner route.
func (e *Engine) Match(ctx context.Context, method string, amount decimal.Decimal, owners []models.OwnerAccount, ownerFallbackThreshold decimal.Decimal) (models.MatchResult, error) {
	s := e.settings.Get(ctx)
	method = models.NormalizeMethod(method)
	if err := Validate(s, method, amount); err != nil {
		return models.MatchResult{}, err
	}

	logger := e.log.With().Str("method", method).Str("amount", amount.String()).Logger()

	circle := s.IsCircleMethod(method)
	if circle && ownerFallbackThreshold.IsPositive() && amount.GreaterThanOrEqual(ownerFallbackThreshold) {
		logger.Debug().Str("threshold", ownerFallbackThreshold.String()).Msg("Amount above owner threshold, skipping circle")
		circle = false
	}

	if circle {
		if res, ok := e.matchCircle(ctx, s, method, amount, logger); ok {
			matchRoutes.WithLabelValues(string(models.RouteCashout), method).Inc()
			return res, nil
		}
	}

	res := ownerResult(s, method, amount, owners)
	matchRoutes.WithLabelValues(string(models.RouteOwner), method).Inc()
	logger.Info().Str("owner", res.Owner.Owner.Handle).Bool("placeholder", res.Owner.Placeholder).Msg("Buy-in routed to owner")
	return res, nil
}

// Validate checks a buy-in against the configured bounds.
func Validate(s models.Settings, method string, amount decimal.Decimal) error {
	if models.NormalizeMethod(method) == "" {
		return models.ErrInvalidMethod
	}
	if !amount.IsPositive() {
		return &models.AmountError{Amount: amount, Reason: "must be positive"}
	}
	if s.MinAmount.IsPositive() && amount.LessThan(s.MinAmount) {
		return &models.AmountError{Amount: amount, Bound: s.MinAmount, Reason: "below minimum"}
	}
	if s.MaxAmount.IsPositive() && amount.GreaterThan(s.MaxAmount) {
		return &models.AmountError{Amount: amount, Bound: s.MaxAmount, Reason: "above maximum"}
	}
	return nil
}

func (e *Engine) matchCircle(ctx context.Context, s models.Settings, method string, amount decimal.Decimal, logger zerolog.Logger) (models.MatchResult, bool) {
	open, err := e.queue.ListOpenCircle(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Open queue unavailable, treating it as empty")
	}

	for _, c := range rank(open, method, amount, s) {
		if err := e.claim(ctx, c, amount, s.ClaimTTL); err != nil {
			claimMisses.Inc()
			if IsClaimConflict(err) {
				logger.Debug().Err(err).Str("request_id", c.w.RequestID).Msg("Candidate already taken")
			} else {
				logger.Warn().Err(err).Str("request_id", c.w.RequestID).Msg("Failed to claim candidate")
			}
			if ctx.Err() != nil {
				return models.MatchResult{}, false
			}
			continue
		}

		match := &models.CashoutMatch{
			Amount:          amount,
			Method:          method,
			RequestID:       c.w.RequestID,
			Receiver:        c.w.Destination,
			CandidateAmount: c.w.Amount,
			Remainder:       c.remainder,
		}
		if !c.exact() {
			child, err := e.queue.SplitRemainder(ctx, c.w, c.remainder)
			if err != nil {
				logger.Error().Err(err).Str("request_id", c.w.RequestID).Str("remainder", c.remainder.String()).
					Msg("Failed to requeue remainder, claim stands")
			} else {
				match.RemainderRequestID = child.RequestID
			}
		}
		logger.Info().Str("request_id", c.w.RequestID).Str("remainder", c.remainder.String()).Msg("Buy-in matched to circle withdrawal")
		return models.MatchResult{Route: models.RouteCashout, Cashout: match}, true
	}
	return models.MatchResult{}, false
}

func (e *Engine) claim(ctx context.Context, c candidate, amount decimal.Decimal, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = constants.DefaultClaimTTL
	}
	opts := []ledger.TransitionOption{
		ledger.ExpectStatus(constants.StatusQueued),
		ledger.WithClaimExpiry(e.now().Add(ttl)),
	}
	note := "claimed by buy-in of " + amount.String()
	if !c.exact() {
		opts = append(opts, ledger.WithAmount(amount))
		note += fmt.Sprintf(", %s split off", c.remainder)
	}
	outcome, err := e.queue.TransitionStatus(ctx, c.w.RequestID, constants.StatusMatched, constants.ActorMatcher, note, opts...)
	if err != nil {
		return err
	}
	if outcome != ledger.Applied {
		return fmt.Errorf("%w: %s is %s", models.ErrClaimConflict, c.w.RequestID, outcome)
	}
	return nil
}

// rank keeps the withdrawals a buy-in can pay and orders them: exact amount,
// then priority, then oldest, then smallest remainder, then request id.
func rank(open []models.WithdrawalRequest, method string, amount decimal.Decimal, s models.Settings) []candidate {
	var out []candidate
	for _, w := range open {
		if w.Method != method || w.Amount.LessThan(amount) {
			continue
		}
		remainder := w.Amount.Sub(amount)
		if remainder.IsPositive() && (!s.PartialMatching || remainder.LessThan(s.MinRemainder)) {
			continue
		}
		out = append(out, candidate{w: w, remainder: remainder})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.exact() != b.exact() {
			return a.exact()
		}
		if a.w.Priority != b.w.Priority {
			return a.w.Priority
		}
		if !a.w.RequestedAt.Equal(b.w.RequestedAt) {
			return a.w.RequestedAt.Before(b.w.RequestedAt)
		}
		if cmp := a.remainder.Cmp(b.remainder); cmp != 0 {
			return cmp < 0
		}
		return a.w.RequestID < b.w.RequestID
	})
	return out
}

func ownerResult(s models.Settings, method string, amount decimal.Decimal, owners []models.OwnerAccount) models.MatchResult {
	fee := decimal.Zero
	if s.FeePercent.IsPositive() {
		fee = amount.Mul(s.FeePercent).Div(decimal.NewFromInt(100)).Round(2)
	}
	owner, placeholder := pickOwner(method, owners)
	return models.MatchResult{
		Route: models.RouteOwner,
		Owner: &models.OwnerMatch{
			Method:      method,
			Amount:      amount,
			Fee:         fee,
			Owner:       owner,
			Placeholder: placeholder,
		},
	}
}

func pickOwner(method string, owners []models.OwnerAccount) (models.OwnerAccount, bool) {
	for _, o := range owners {
		if models.NormalizeMethod(o.Method) == method {
			return o, false
		}
	}
	if len(owners) > 0 {
		return owners[0], false
	}
	return models.OwnerAccount{
		Method:       method,
		DisplayName:  "Operator",
		Instructions: placeholderInstructions,
	}, true
}

// IsClaimConflict reports whether err is a lost race for a queued row.
func IsClaimConflict(err error) bool {
	return errors.Is(err, models.ErrClaimConflict)
}

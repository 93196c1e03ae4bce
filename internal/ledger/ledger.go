package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/AlenaMolokova/circlepay/internal/cache"
	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/schema"
	"github.com/AlenaMolokova/circlepay/internal/sheets"
)

type TabularStore interface {
	ReadRange(ctx context.Context, rng string) ([][]string, error)
	AppendRows(ctx context.Context, rng string, rows [][]string) error
	BatchUpdate(ctx context.Context, updates []sheets.CellUpdate) error
	EnsureSheetAndHeaders(ctx context.Context, sheet string, headers []string) error
}

type SettingsSource interface {
	Get(ctx context.Context) models.Settings
}

// Outcome of a guarded status transition.
type Outcome int

const (
	Applied Outcome = iota + 1
	Conflict
	Unchanged
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Conflict:
		return "conflict"
	case Unchanged:
		return "unchanged"
	}
	return "unknown"
}

var lifecycle = map[string][]string{
	constants.StatusQueued:  {constants.StatusMatched, constants.StatusStale, constants.StatusPaid, constants.StatusCancelled},
	constants.StatusLogged:  {constants.StatusPaid, constants.StatusCancelled},
	constants.StatusMatched: {constants.StatusQueued, constants.StatusPaid, constants.StatusCancelled},
	constants.StatusStale:   {constants.StatusQueued, constants.StatusCancelled},
}

func isTerminal(status string) bool {
	return status == constants.StatusPaid || status == constants.StatusCancelled
}

type transition struct {
	expect      []string
	claimExpiry time.Time
	amount      *decimal.Decimal
}

type TransitionOption func(*transition)

// ExpectStatus aborts the transition with Conflict unless the row is
// currently in one of statuses.
func ExpectStatus(statuses ...string) TransitionOption {
	return func(t *transition) { t.expect = append(t.expect, statuses...) }
}

func WithClaimExpiry(at time.Time) TransitionOption {
	return func(t *transition) { t.claimExpiry = at }
}

// WithAmount rewrites the row amount, used when a partial claim shrinks it.
func WithAmount(amount decimal.Decimal) TransitionOption {
	return func(t *transition) { t.amount = &amount }
}

type record struct {
	row int
	w   models.WithdrawalRequest
}

// Ledger is the only component that knows where withdrawal fields live in
// the sheet.
type Ledger struct {
	store    TabularStore
	cache    *cache.ReadCache
	settings SettingsSource
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string

	// mu serializes read-compare-write sequences inside this process.
	mu sync.Mutex

	layoutMu sync.Mutex
	layout   *layout
}

func New(store TabularStore, c *cache.ReadCache, settings SettingsSource, log zerolog.Logger) *Ledger {
	return &Ledger{
		store:    store,
		cache:    c,
		settings: settings,
		log:      log.With().Str("component", "ledger").Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

func (l *Ledger) EnsureSheets(ctx context.Context) error {
	if err := l.store.EnsureSheetAndHeaders(ctx, constants.SheetWithdrawals, Headers); err != nil {
		return fmt.Errorf("failed to prepare %s: %w", constants.SheetWithdrawals, err)
	}
	if err := l.store.EnsureSheetAndHeaders(ctx, constants.SheetOwnerPayouts, OwnerPayoutHeaders); err != nil {
		return fmt.Errorf("failed to prepare %s: %w", constants.SheetOwnerPayouts, err)
	}
	return nil
}

func (l *Ledger) Append(ctx context.Context, req models.WithdrawalRequest, payoutType string) (models.WithdrawalRequest, error) {
	payoutType = strings.ToUpper(strings.TrimSpace(payoutType))
	switch payoutType {
	case constants.PayoutCircle:
		req.Status = constants.StatusQueued
	case constants.PayoutOwner:
		req.Status = constants.StatusLogged
	default:
		return models.WithdrawalRequest{}, fmt.Errorf("%w: %q", models.ErrInvalidPayoutType, payoutType)
	}
	req.Method = models.NormalizeMethod(req.Method)
	if req.Method == "" {
		return models.WithdrawalRequest{}, models.ErrInvalidMethod
	}
	if !req.Amount.IsPositive() {
		return models.WithdrawalRequest{}, &models.AmountError{Amount: req.Amount, Reason: "must be positive"}
	}
	req.PayoutType = payoutType
	if req.RequestID == "" {
		req.RequestID = l.newID()
	}
	now := l.now().UTC()
	if req.RequestedAt.IsZero() {
		req.RequestedAt = now
	}
	req.ApprovedBy, req.ApprovedAt, req.ClaimExpiresAt = "", time.Time{}, time.Time{}
	req.Notes = appendNote(req.Notes, fmt.Sprintf("%s created %s", formatTime(now), req.Status))

	lay, err := l.currentLayout(ctx)
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	if err := l.store.AppendRows(ctx, sheets.Columns(constants.SheetWithdrawals, lay.width()), [][]string{lay.encode(req)}); err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("failed to append withdrawal %s: %w", req.RequestID, err)
	}

	if payoutType == constants.PayoutCircle {
		l.cache.InvalidateQueue()
	} else {
		l.mirrorOwnerPayout(ctx, req)
	}

	l.log.Info().
		Str("request_id", req.RequestID).
		Str("method", req.Method).
		Str("amount", req.Amount.String()).
		Str("payout_type", payoutType).
		Msg("Withdrawal recorded")
	return req, nil
}

// mirrorOwnerPayout copies an owner payout into the tracking sheet. The
// withdrawal row is already the record, so a failure here is only logged.
func (l *Ledger) mirrorOwnerPayout(ctx context.Context, w models.WithdrawalRequest) {
	row := []string{
		w.RequestID, w.UserID, w.Username, w.Amount.String(), w.Method, w.Destination,
		formatTime(w.RequestedAt), w.Status,
	}
	rng := sheets.Columns(constants.SheetOwnerPayouts, len(OwnerPayoutHeaders))
	if err := l.store.AppendRows(ctx, rng, [][]string{row}); err != nil {
		l.log.Error().Err(err).Str("request_id", w.RequestID).Msg("Failed to mirror owner payout, reconcile manually")
	}
}

func (l *Ledger) FindByID(ctx context.Context, requestID string) (models.WithdrawalRequest, bool, error) {
	rec, found, _, err := l.find(ctx, requestID)
	if err != nil || !found {
		return models.WithdrawalRequest{}, false, err
	}
	return rec.w, true, nil
}

// ListOpenCircle returns queued circle withdrawals, oldest first. A failed
// read yields an empty queue together with the error.
func (l *Ledger) ListOpenCircle(ctx context.Context) ([]models.WithdrawalRequest, error) {
	return l.cache.OpenQueue(ctx, l.loadOpenCircle)
}

func (l *Ledger) loadOpenCircle(ctx context.Context) ([]models.WithdrawalRequest, error) {
	records, _, err := l.readAll(ctx)
	if err != nil {
		return nil, err
	}
	open := make([]models.WithdrawalRequest, 0)
	for _, rec := range records {
		if rec.w.Status == constants.StatusQueued && rec.w.PayoutType == constants.PayoutCircle {
			open = append(open, rec.w)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		if !open[i].RequestedAt.Equal(open[j].RequestedAt) {
			return open[i].RequestedAt.Before(open[j].RequestedAt)
		}
		return open[i].RequestID < open[j].RequestID
	})
	return open, nil
}

// TransitionStatus re-reads the row and writes newStatus unless the row moved
// on in the meantime. The check and the write are not atomic on the store:
// another process can still slip in between them.
func (l *Ledger) TransitionStatus(ctx context.Context, requestID, newStatus, actor, note string, opts ...TransitionOption) (Outcome, error) {
	var t transition
	for _, opt := range opts {
		opt(&t)
	}
	newStatus = strings.ToUpper(newStatus)

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, found, lay, err := l.find(ctx, requestID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("withdrawal %s: %w", requestID, models.ErrNotFound)
	}

	outcome, updates := l.plan(rec, lay, newStatus, actor, note, t, l.now().UTC())
	if outcome != Applied {
		l.log.Debug().
			Str("request_id", requestID).
			Str("current", rec.w.Status).
			Str("wanted", newStatus).
			Stringer("outcome", outcome).
			Msg("Transition not applied")
		return outcome, nil
	}
	if err := l.store.BatchUpdate(ctx, updates); err != nil {
		return 0, fmt.Errorf("failed to update withdrawal %s: %w", requestID, err)
	}
	l.cache.InvalidateQueue()

	l.log.Info().
		Str("request_id", requestID).
		Str("from", rec.w.Status).
		Str("to", newStatus).
		Str("actor", actor).
		Msg("Withdrawal status changed")
	return Applied, nil
}

func (l *Ledger) plan(rec record, lay layout, newStatus, actor, note string, t transition, now time.Time) (Outcome, []sheets.CellUpdate) {
	current := rec.w.Status
	if current == newStatus {
		return Unchanged, nil
	}
	if len(t.expect) > 0 && !contains(t.expect, current) {
		return Conflict, nil
	}
	if !contains(lifecycle[current], newStatus) {
		return Conflict, nil
	}

	var updates []sheets.CellUpdate
	set := func(field int, v string) {
		if col := lay.idx[field]; col >= 0 {
			updates = append(updates, sheets.CellUpdate{
				Range:  sheets.Cell(constants.SheetWithdrawals, col+1, rec.row),
				Values: [][]string{{v}},
			})
		}
	}

	set(colStatus, newStatus)
	entry := fmt.Sprintf("%s %s->%s by %s", formatTime(now), current, newStatus, actor)
	if note != "" {
		entry += ": " + note
	}
	set(colNotes, appendNote(rec.w.Notes, entry))

	if isTerminal(newStatus) && rec.w.ApprovedAt.IsZero() {
		set(colApprovedBy, actor)
		set(colApprovedAt, formatTime(now))
	}
	switch {
	case newStatus == constants.StatusMatched && !t.claimExpiry.IsZero():
		set(colClaimExpiresAt, formatTime(t.claimExpiry))
	case current == constants.StatusMatched:
		set(colClaimExpiresAt, "")
	}
	if t.amount != nil {
		set(colAmount, t.amount.String())
	}
	return Applied, updates
}

func (l *Ledger) Confirm(ctx context.Context, requestID, actor string) (Outcome, error) {
	return l.TransitionStatus(ctx, requestID, constants.StatusPaid, actor, "payment confirmed",
		ExpectStatus(constants.StatusQueued, constants.StatusMatched, constants.StatusLogged))
}

func (l *Ledger) Cancel(ctx context.Context, requestID, actor, reason string) (Outcome, error) {
	return l.TransitionStatus(ctx, requestID, constants.StatusCancelled, actor, reason)
}

// SplitRemainder queues what is left of a partially claimed withdrawal. The
// new row keeps the parent's timestamp so it keeps its place in line.
func (l *Ledger) SplitRemainder(ctx context.Context, parent models.WithdrawalRequest, remainder decimal.Decimal) (models.WithdrawalRequest, error) {
	child := models.WithdrawalRequest{
		UserID:          parent.UserID,
		Username:        parent.Username,
		Amount:          remainder,
		Method:          parent.Method,
		Destination:     parent.Destination,
		RequestedAt:     parent.RequestedAt,
		Priority:        parent.Priority,
		ParentRequestID: parent.RequestID,
		Notes:           "remainder of " + parent.RequestID,
	}
	return l.Append(ctx, child, constants.PayoutCircle)
}

// SweepStale marks queued rows of stale-prone methods older than threshold as
// STALE in a single batch. It returns how many rows were marked.
func (l *Ledger) SweepStale(ctx context.Context, threshold time.Duration) (int, error) {
	s := l.settings.Get(ctx)
	now := l.now().UTC()
	note := fmt.Sprintf("unclaimed for more than %s", threshold)
	return l.sweep(ctx, "stale sweep", func(w models.WithdrawalRequest) (string, string, bool) {
		due := w.Status == constants.StatusQueued &&
			w.PayoutType == constants.PayoutCircle &&
			s.IsStaleProne(w.Method) &&
			!w.RequestedAt.IsZero() &&
			now.Sub(w.RequestedAt) > threshold
		return constants.StatusStale, note, due
	})
}

// RequeueExpiredMatches puts claims that were never confirmed back in the
// queue and returns how many were reverted.
func (l *Ledger) RequeueExpiredMatches(ctx context.Context, now time.Time) (int, error) {
	return l.sweep(ctx, "claim requeue", func(w models.WithdrawalRequest) (string, string, bool) {
		due := w.Status == constants.StatusMatched &&
			!w.ClaimExpiresAt.IsZero() &&
			now.After(w.ClaimExpiresAt)
		return constants.StatusQueued, "claim expired without confirmation", due
	})
}

func (l *Ledger) sweep(ctx context.Context, name string, pick func(models.WithdrawalRequest) (string, string, bool)) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, lay, err := l.readAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	now := l.now().UTC()
	var updates []sheets.CellUpdate
	count := 0
	for _, rec := range records {
		status, note, due := pick(rec.w)
		if !due {
			continue
		}
		outcome, cells := l.plan(rec, lay, status, constants.ActorSystem, note, transition{}, now)
		if outcome == Applied {
			updates = append(updates, cells...)
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	if err := l.store.BatchUpdate(ctx, updates); err != nil {
		return 0, fmt.Errorf("%s: failed to write %d rows: %w", name, count, err)
	}
	l.cache.InvalidateQueue()
	l.log.Info().Str("pass", name).Int("rows", count).Msg("Sweep updated withdrawals")
	return count, nil
}

func (l *Ledger) find(ctx context.Context, requestID string) (record, bool, layout, error) {
	records, lay, err := l.readAll(ctx)
	if err != nil {
		return record{}, false, lay, err
	}
	requestID = strings.TrimSpace(requestID)
	for _, rec := range records {
		if rec.w.RequestID == requestID {
			return rec, true, lay, nil
		}
	}
	return record{}, false, lay, nil
}

func (l *Ledger) readAll(ctx context.Context) ([]record, layout, error) {
	rows, err := l.store.ReadRange(ctx, sheets.Whole(constants.SheetWithdrawals))
	if err != nil {
		return nil, layout{}, fmt.Errorf("failed to read withdrawals: %w", err)
	}
	if len(rows) == 0 {
		return nil, l.rememberLayout(fixedLayout()), nil
	}
	lay, err := l.resolveLayout(rows[0], rows[1:])
	if err != nil {
		return nil, lay, err
	}

	records := make([]record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		w := lay.decode(row)
		if w.RequestID == "" {
			continue
		}
		records = append(records, record{row: i + 2, w: w})
	}
	return records, lay, nil
}

func (l *Ledger) currentLayout(ctx context.Context) (layout, error) {
	l.layoutMu.Lock()
	cached := l.layout
	l.layoutMu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	rows, err := l.store.ReadRange(ctx, sheets.Whole(constants.SheetWithdrawals))
	if err != nil {
		return layout{}, fmt.Errorf("failed to read withdrawals header: %w", err)
	}
	if len(rows) == 0 {
		return l.rememberLayout(fixedLayout()), nil
	}
	return l.resolveLayout(rows[0], rows[1:])
}

// resolveLayout prefers the fixed layout and only infers one for sheets whose
// header row is not the canonical one.
func (l *Ledger) resolveLayout(header []string, sample [][]string) (layout, error) {
	if isCanonicalHeader(header) || isBlankRow(header) {
		return l.rememberLayout(fixedLayout()), nil
	}
	if len(sample) > 20 {
		sample = sample[:20]
	}
	mapping := schema.Infer(header, sample)
	lay, usable := inferredLayout(header, mapping)
	if !usable {
		return layout{}, fmt.Errorf("%w: %s header not recognised (confidence %.0f%%)",
			models.ErrSchemaMismatch, constants.SheetWithdrawals, mapping.Confidence)
	}
	l.layoutMu.Lock()
	known := l.layout != nil && *l.layout == lay
	l.layoutMu.Unlock()
	if known {
		return lay, nil
	}
	event := l.log.Warn().Float64("confidence", mapping.Confidence)
	if missing := lay.missing(); len(missing) > 0 {
		event = event.Strs("missing_columns", missing)
	}
	event.Msg("Using inferred column layout for withdrawals")
	return l.rememberLayout(lay), nil
}

func (l *Ledger) rememberLayout(lay layout) layout {
	l.layoutMu.Lock()
	defer l.layoutMu.Unlock()
	l.layout = &lay
	return lay
}

func appendNote(notes, entry string) string {
	if strings.TrimSpace(notes) == "" {
		return entry
	}
	return notes + " | " + entry
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}


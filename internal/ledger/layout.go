package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/schema"
)

const (
	colRequestID = iota
	colUserID
	colUsername
	colAmount
	colMethod
	colDestination
	colRequestedAt
	colApprovedBy
	colApprovedAt
	colStatus
	colPayoutType
	colNotes
	colPriority
	colClaimExpiresAt
	colParentID
	numColumns
)

var Headers = []string{
	"request_id", "user_id", "username", "amount", "method", "payment_tag_or_address",
	"request_timestamp", "approved_by", "approved_at", "status", "payout_type", "notes",
	"priority", "claim_expires_at", "parent_request_id",
}

var OwnerPayoutHeaders = []string{
	"request_id", "user_id", "username", "amount", "method", "destination", "logged_at", "status",
}

// minInferredConfidence is the share of key roles an irregular sheet must
// resolve before it is read at all.
const minInferredConfidence = 50.0

// layout maps record fields to zero-based sheet columns; -1 means absent.
type layout struct {
	idx   [numColumns]int
	fixed bool
}

func fixedLayout() layout {
	var l layout
	for i := range l.idx {
		l.idx[i] = i
	}
	l.fixed = true
	return l
}

var roleFields = map[schema.Role]int{
	schema.RoleID:         colRequestID,
	schema.RoleUsername:   colUsername,
	schema.RoleAmount:     colAmount,
	schema.RoleMethod:     colMethod,
	schema.RoleReceiver:   colDestination,
	schema.RoleTimestamp:  colRequestedAt,
	schema.RoleVerifiedBy: colApprovedBy,
	schema.RoleVerifiedAt: colApprovedAt,
	schema.RoleStatus:     colStatus,
	schema.RoleType:       colPayoutType,
	schema.RolePriority:   colPriority,
}

// inferredLayout takes columns whose header is a canonical field name first,
// then fills the remaining fields from the schema roles.
func inferredLayout(header []string, m schema.Mapping) (layout, bool) {
	var l layout
	for i := range l.idx {
		l.idx[i] = -1
	}
	for field, name := range Headers {
		for col, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) && !l.uses(col) {
				l.idx[field] = col
				break
			}
		}
	}
	for role, field := range roleFields {
		if col, ok := m.Index(role); ok && l.idx[field] < 0 && !l.uses(col) {
			l.idx[field] = col
		}
	}
	usable := m.Confidence >= minInferredConfidence && l.idx[colRequestID] >= 0 && l.idx[colStatus] >= 0
	return l, usable
}

// auditFields hold claim expiry, history and remainder links.
var auditFields = []int{colNotes, colClaimExpiresAt, colParentID}

// missing lists the audit fields the layout has no column for.
func (l layout) missing() []string {
	var out []string
	for _, field := range auditFields {
		if l.idx[field] < 0 {
			out = append(out, Headers[field])
		}
	}
	return out
}

func (l layout) uses(col int) bool {
	for _, c := range l.idx {
		if c == col {
			return true
		}
	}
	return false
}

func isCanonicalHeader(row []string) bool {
	if len(row) < len(Headers) {
		return false
	}
	for i, h := range Headers {
		if !strings.EqualFold(strings.TrimSpace(row[i]), h) {
			return false
		}
	}
	return true
}

func (l layout) width() int {
	w := 0
	for _, i := range l.idx {
		if i+1 > w {
			w = i + 1
		}
	}
	return w
}

func (l layout) get(row []string, field int) string {
	i := l.idx[field]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (l layout) decode(row []string) models.WithdrawalRequest {
	w := models.WithdrawalRequest{
		RequestID:       l.get(row, colRequestID),
		UserID:          l.get(row, colUserID),
		Username:        l.get(row, colUsername),
		Amount:          parseAmount(l.get(row, colAmount)),
		Method:          models.NormalizeMethod(l.get(row, colMethod)),
		Destination:     l.get(row, colDestination),
		RequestedAt:     parseTime(l.get(row, colRequestedAt)),
		ApprovedBy:      l.get(row, colApprovedBy),
		ApprovedAt:      parseTime(l.get(row, colApprovedAt)),
		Status:          strings.ToUpper(l.get(row, colStatus)),
		PayoutType:      strings.ToUpper(l.get(row, colPayoutType)),
		Notes:           l.get(row, colNotes),
		Priority:        isPriority(l.get(row, colPriority)),
		ClaimExpiresAt:  parseTime(l.get(row, colClaimExpiresAt)),
		ParentRequestID: l.get(row, colParentID),
	}
	if w.PayoutType == "" && w.Status == constants.StatusQueued {
		w.PayoutType = constants.PayoutCircle
	}
	return w
}

func (l layout) encode(w models.WithdrawalRequest) []string {
	row := make([]string, l.width())
	put := func(field int, v string) {
		if i := l.idx[field]; i >= 0 {
			row[i] = v
		}
	}
	put(colRequestID, w.RequestID)
	put(colUserID, w.UserID)
	put(colUsername, w.Username)
	put(colAmount, w.Amount.String())
	put(colMethod, w.Method)
	put(colDestination, w.Destination)
	put(colRequestedAt, formatTime(w.RequestedAt))
	put(colApprovedBy, w.ApprovedBy)
	put(colApprovedAt, formatTime(w.ApprovedAt))
	put(colStatus, w.Status)
	put(colPayoutType, w.PayoutType)
	put(colNotes, w.Notes)
	if w.Priority {
		put(colPriority, constants.PriorityFast)
	}
	put(colClaimExpiresAt, formatTime(w.ClaimExpiresAt))
	put(colParentID, w.ParentRequestID)
	return row
}

func parseAmount(v string) decimal.Decimal {
	v = strings.NewReplacer("$", "", ",", "").Replace(v)
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero
	}
	return d
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func isPriority(v string) bool {
	switch strings.ToUpper(v) {
	case constants.PriorityFast, "YES", "TRUE", "Y", "1", "PRIORITY":
		return true
	}
	return false
}

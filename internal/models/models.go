package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalRequest struct {
	RequestID       string          `json:"request_id"`
	UserID          string          `json:"user_id"`
	Username        string          `json:"username"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	Destination     string          `json:"payment_tag_or_address"`
	RequestedAt     time.Time       `json:"request_timestamp"`
	ApprovedBy      string          `json:"approved_by,omitempty"`
	ApprovedAt      time.Time       `json:"approved_at,omitempty"`
	Status          string          `json:"status"`
	PayoutType      string          `json:"payout_type"`
	Notes           string          `json:"notes,omitempty"`
	Priority        bool            `json:"priority"`
	ClaimExpiresAt  time.Time       `json:"claim_expires_at,omitempty"`
	ParentRequestID string          `json:"parent_request_id,omitempty"`
}

type OwnerAccount struct {
	Method       string `json:"method" yaml:"method"`
	Handle       string `json:"handle" yaml:"handle"`
	DisplayName  string `json:"display_name" yaml:"display_name"`
	Instructions string `json:"instructions" yaml:"instructions"`
}

type Settings struct {
	EnabledMethods         []string
	CircleMethods          []string
	OwnerMethods           []string
	StaleProneMethods      []string
	Currency               string
	FeePercent             decimal.Decimal
	OwnerFallbackThreshold decimal.Decimal
	StaleHours             int
	MinAmount              decimal.Decimal
	MaxAmount              decimal.Decimal
	MinRemainder           decimal.Decimal
	PartialMatching        bool
	ClaimTTL               time.Duration
	OwnerAccounts          []OwnerAccount
}

func (s Settings) IsEnabled(method string) bool {
	return len(s.EnabledMethods) == 0 || containsMethod(s.EnabledMethods, method)
}

func (s Settings) IsCircleMethod(method string) bool {
	return s.IsEnabled(method) && containsMethod(s.CircleMethods, method)
}

func (s Settings) IsOwnerMethod(method string) bool {
	return s.IsEnabled(method) && containsMethod(s.OwnerMethods, method)
}

func (s Settings) IsStaleProne(method string) bool {
	return containsMethod(s.StaleProneMethods, method)
}

func (s Settings) StaleWindow() time.Duration {
	return time.Duration(s.StaleHours) * time.Hour
}

func containsMethod(list []string, method string) bool {
	method = NormalizeMethod(method)
	for _, m := range list {
		if NormalizeMethod(m) == method {
			return true
		}
	}
	return false
}

func NormalizeMethod(method string) string {
	return strings.ToUpper(strings.TrimSpace(method))
}

type Route string

const (
	RouteCashout Route = "CASHOUT"
	RouteOwner   Route = "OWNER"
)

type MatchResult struct {
	Route   Route         `json:"route"`
	Cashout *CashoutMatch `json:"cashout,omitempty"`
	Owner   *OwnerMatch   `json:"owner,omitempty"`
}

type CashoutMatch struct {
	Amount             decimal.Decimal `json:"amount"`
	Method             string          `json:"method"`
	RequestID          string          `json:"request_id"`
	Receiver           string          `json:"receiver"`
	CandidateAmount    decimal.Decimal `json:"candidate_amount"`
	Remainder          decimal.Decimal `json:"remainder"`
	RemainderRequestID string          `json:"remainder_request_id,omitempty"`
}

type OwnerMatch struct {
	Method      string          `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	Owner       OwnerAccount    `json:"owner"`
	Placeholder bool            `json:"placeholder"`
}

type PendingIntent struct {
	Token     string          `json:"token"`
	Owner     string          `json:"owner"`
	Rail      string          `json:"rail"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

package constants

import "time"

const (
	StatusQueued    = "QUEUED"
	StatusLogged    = "LOGGED"
	StatusMatched   = "MATCHED"
	StatusStale     = "STALE"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

const (
	PayoutCircle = "CIRCLE"
	PayoutOwner  = "OWNER"
)

const PriorityFast = "FAST"

const (
	SheetWithdrawals  = "Withdrawals"
	SheetOwnerPayouts = "OwnerPayouts"
	SheetSettings     = "Settings"
)

const (
	DefaultStoreMinInterval = time.Second
	DefaultStoreMaxAttempts = 3
	DefaultStoreBaseDelay   = time.Second
	DefaultSettingsTTL      = 60 * time.Second
	DefaultQueueTTL         = 5 * time.Second
	DefaultClaimTTL         = 30 * time.Minute
	DefaultSweepInterval    = 10 * time.Minute
	DefaultPendingTTL       = 15 * time.Minute
	DefaultStaleHours       = 24
	DefaultCurrency         = "USD"
	DefaultMinRemainder     = "20"
	DefaultMinAmount        = "10"
	DefaultMaxAmount        = "5000"
)

const (
	ActorSystem  = "system"
	ActorMatcher = "matcher"
)

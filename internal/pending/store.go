package pending

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/AlenaMolokova/circlepay/internal/models"
)

var openIntents = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "circlepay",
	Subsystem: "pending",
	Name:      "intents",
	Help:      "Deposit intents waiting for the payer to complete them.",
})

// Store keeps short-lived deposit intents in process memory. Intents do not
// survive a restart.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	items    map[string]models.PendingIntent
	now      func() time.Time
	newToken func() string
	log      zerolog.Logger
}

func NewStore(ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{
		ttl:      ttl,
		items:    make(map[string]models.PendingIntent),
		now:      time.Now,
		newToken: uuid.NewString,
		log:      log.With().Str("component", "pending").Logger(),
	}
}

func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Create(owner, rail string, amount decimal.Decimal) (models.PendingIntent, error) {
	owner = strings.TrimSpace(owner)
	rail = models.NormalizeMethod(rail)
	if rail == "" {
		return models.PendingIntent{}, models.ErrInvalidMethod
	}
	if !amount.IsPositive() {
		return models.PendingIntent{}, &models.AmountError{Amount: amount, Reason: "must be positive"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	intent := models.PendingIntent{
		Token:     s.newToken(),
		Owner:     owner,
		Rail:      rail,
		Amount:    amount,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.items[intent.Token] = intent
	openIntents.Set(float64(len(s.items)))
	return intent, nil
}

// Get treats an expired intent as absent and drops it.
func (s *Store) Get(token string) (models.PendingIntent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.items[token]
	if !ok {
		return models.PendingIntent{}, false
	}
	if !s.now().Before(intent.ExpiresAt) {
		delete(s.items, token)
		openIntents.Set(float64(len(s.items)))
		return models.PendingIntent{}, false
	}
	return intent, true
}

func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	openIntents.Set(float64(len(s.items)))
}

// Purge drops every expired intent and returns how many were removed.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, intent := range s.items {
		if !now.Before(intent.ExpiresAt) {
			delete(s.items, token)
			removed++
		}
	}
	openIntents.Set(float64(len(s.items)))
	return removed
}

func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid janitor interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Purge(); n > 0 {
				s.log.Debug().Int("removed", n).Msg("Expired deposit intents purged")
			}
		}
	}
}

package cache

import (
	"context"
	"time"

	"github.com/AlenaMolokova/circlepay/internal/models"
)

// ReadCache fronts the two read-heavy views of the store.
type ReadCache struct {
	settings *Line[models.Settings]
	queue    *Line[[]models.WithdrawalRequest]
}

func New(settingsTTL, queueTTL time.Duration) *ReadCache {
	return &ReadCache{
		settings: NewLine[models.Settings](settingsTTL),
		queue:    NewLine[[]models.WithdrawalRequest](queueTTL),
	}
}

func (c *ReadCache) SetClock(now func() time.Time) {
	c.settings.SetClock(now)
	c.queue.SetClock(now)
}

// Settings never fails: a failed fetch yields fallback and the error for logging.
func (c *ReadCache) Settings(ctx context.Context, fetch func(context.Context) (models.Settings, error), fallback models.Settings) (models.Settings, error) {
	s, err := c.settings.Get(ctx, fetch)
	if err != nil {
		return fallback, err
	}
	return s, nil
}

// OpenQueue degrades to an empty queue when the fetch fails.
func (c *ReadCache) OpenQueue(ctx context.Context, fetch func(context.Context) ([]models.WithdrawalRequest, error)) ([]models.WithdrawalRequest, error) {
	rows, err := c.queue.Get(ctx, fetch)
	if err != nil {
		return []models.WithdrawalRequest{}, err
	}
	out := make([]models.WithdrawalRequest, len(rows))
	copy(out, rows)
	return out, nil
}

func (c *ReadCache) InvalidateSettings() { c.settings.Invalidate() }

func (c *ReadCache) InvalidateQueue() { c.queue.Invalidate() }

package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlenaMolokova/circlepay/internal/cache"
	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/sheets/sheetstest"
)

func TestParse(t *testing.T) {
	rows := [][]string{
		{"key", "value", "tenant"},
		{"enabled_methods", "zelle, venmo,ZELLE,btc", ""},
		{"circle_methods", "venmo,zelle", ""},
		{"fee_percent", "2.5", ""},
		{"min_remainder", "$25", ""},
		{"partial_matching", "false", ""},
		{"claim_ttl_minutes", "45", ""},
		{"owner_handle_btc", "bc1q-owner", ""},
		{"owner_name_btc", "Treasury", ""},
		{"fee_percent", "1", "north"},
		{"fee_percent", "7", "south"},
		{"", "ignored", ""},
	}

	s, problems := Parse(rows, Defaults(), "north")
	assert.Empty(t, problems)
	assert.Equal(t, []string{"BTC", "VENMO", "ZELLE"}, s.EnabledMethods)
	assert.Equal(t, []string{"VENMO", "ZELLE"}, s.CircleMethods)
	assert.True(t, s.FeePercent.Equal(decimal.NewFromInt(1)))
	assert.True(t, s.MinRemainder.Equal(decimal.NewFromInt(25)))
	assert.False(t, s.PartialMatching)
	assert.Equal(t, 45*time.Minute, s.ClaimTTL)
	require.Len(t, s.OwnerAccounts, 1)
	assert.Equal(t, models.OwnerAccount{Method: "BTC", Handle: "bc1q-owner", DisplayName: "Treasury"}, s.OwnerAccounts[0])

	assert.True(t, s.IsCircleMethod("zelle"))
	assert.False(t, s.IsCircleMethod("cashapp"))
}

func TestParseProblems(t *testing.T) {
	base := Defaults()
	rows := [][]string{
		{"stale_hours", "-3"},
		{"min_amount", "abc"},
		{"mystery", "1"},
		{"owner_handle_", "x"},
		{"max_amount", "900"},
	}

	s, problems := Parse(rows, base, "")
	assert.Len(t, problems, 4)
	assert.Equal(t, base.StaleHours, s.StaleHours)
	assert.True(t, s.MinAmount.Equal(base.MinAmount))
	assert.True(t, s.MaxAmount.Equal(decimal.NewFromInt(900)))
}

func TestParseDoesNotMutateBase(t *testing.T) {
	base := Defaults()
	_, _ = Parse([][]string{{"circle_methods", "PAYPAL"}}, base, "")
	assert.Contains(t, base.CircleMethods, "ZELLE")
}

func TestProvider(t *testing.T) {
	ctx := context.Background()
	mem := sheetstest.NewMemory()
	mem.Seed(constants.SheetSettings, Headers, []string{"stale_hours", "12", ""})
	p := NewProvider(sheetstest.NewClient(mem), cache.New(time.Minute, time.Minute), Defaults(), "", zerolog.Nop())

	assert.Equal(t, 12, p.Get(ctx).StaleHours)
	assert.Equal(t, 12, p.Get(ctx).StaleHours)
	assert.Equal(t, 1, mem.Calls("get"))

	mem.Seed(constants.SheetSettings, Headers, []string{"stale_hours", "6", ""})
	p.Invalidate()
	assert.Equal(t, 6, p.Get(ctx).StaleHours)
}

func TestProviderFallsBackToDefaults(t *testing.T) {
	mem := sheetstest.NewMemory()
	mem.Seed(constants.SheetSettings, Headers)
	mem.Fail("get", errors.New("503 backend error"))
	p := NewProvider(sheetstest.NewClient(mem), cache.New(time.Minute, time.Minute), Defaults(), "", zerolog.Nop())

	s := p.Get(context.Background())
	assert.Equal(t, Defaults().StaleHours, s.StaleHours)
	assert.Equal(t, Defaults().CircleMethods, s.CircleMethods)
}

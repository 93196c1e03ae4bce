package settings

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/AlenaMolokova/circlepay/internal/cache"
	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/sheets"
)

var Headers = []string{"key", "value", "tenant"}

type Reader interface {
	ReadRange(ctx context.Context, rng string) ([][]string, error)
}

func Defaults() models.Settings {
	circle := []string{"ZELLE", "VENMO", "CASHAPP", "PAYPAL", "CHIME"}
	return models.Settings{
		EnabledMethods:         append(append([]string{}, circle...), "BTC", "USDT"),
		CircleMethods:          circle,
		OwnerMethods:           []string{"BTC", "USDT"},
		StaleProneMethods:      append([]string{}, circle...),
		Currency:               constants.DefaultCurrency,
		FeePercent:             decimal.Zero,
		OwnerFallbackThreshold: decimal.Zero,
		StaleHours:             constants.DefaultStaleHours,
		MinAmount:              decimal.RequireFromString(constants.DefaultMinAmount),
		MaxAmount:              decimal.RequireFromString(constants.DefaultMaxAmount),
		MinRemainder:           decimal.RequireFromString(constants.DefaultMinRemainder),
		PartialMatching:        true,
		ClaimTTL:               constants.DefaultClaimTTL,
	}
}

type Provider struct {
	store    Reader
	cache    *cache.ReadCache
	defaults models.Settings
	tenant   string
	log      zerolog.Logger
}

func NewProvider(store Reader, c *cache.ReadCache, defaults models.Settings, tenant string, log zerolog.Logger) *Provider {
	return &Provider{
		store:    store,
		cache:    c,
		defaults: defaults,
		tenant:   tenant,
		log:      log.With().Str("component", "settings").Logger(),
	}
}

// Get returns the store settings merged over the defaults. It never fails.
func (p *Provider) Get(ctx context.Context) models.Settings {
	s, err := p.cache.Settings(ctx, p.load, p.defaults)
	if err != nil {
		p.log.Warn().Err(err).Msg("Falling back to default settings")
	}
	return s
}

func (p *Provider) Invalidate() {
	p.cache.InvalidateSettings()
}

func (p *Provider) load(ctx context.Context) (models.Settings, error) {
	rows, err := p.store.ReadRange(ctx, sheets.Columns(constants.SheetSettings, len(Headers)))
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	s, problems := Parse(rows, p.defaults, p.tenant)
	for _, problem := range problems {
		p.log.Warn().Err(problem).Msg("Ignoring settings row")
	}
	return s, nil
}

// Parse applies key/value rows over base. Rows without a tenant apply first,
// rows for tenant override them. Unparseable values are reported and skipped.
func Parse(rows [][]string, base models.Settings, tenant string) (models.Settings, []error) {
	s := clone(base)
	owners := make(map[string]models.OwnerAccount)
	var order []string
	for _, o := range s.OwnerAccounts {
		m := models.NormalizeMethod(o.Method)
		if _, seen := owners[m]; !seen {
			order = append(order, m)
		}
		o.Method = m
		owners[m] = o
	}

	var global, scoped [][]string
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "key") {
			continue
		}
		rowTenant := ""
		if len(row) > 2 {
			rowTenant = strings.TrimSpace(row[2])
		}
		switch {
		case rowTenant == "":
			global = append(global, row)
		case tenant != "" && strings.EqualFold(rowTenant, tenant):
			scoped = append(scoped, row)
		}
	}

	var problems []error
	for _, row := range append(global, scoped...) {
		key := strings.ToLower(strings.TrimSpace(row[0]))
		value := ""
		if len(row) > 1 {
			value = strings.TrimSpace(row[1])
		}
		if err := apply(&s, owners, &order, key, value); err != nil {
			problems = append(problems, fmt.Errorf("settings key %q: %w", key, err))
		}
	}

	s.OwnerAccounts = make([]models.OwnerAccount, 0, len(order))
	for _, m := range order {
		s.OwnerAccounts = append(s.OwnerAccounts, owners[m])
	}
	return s, problems
}

func apply(s *models.Settings, owners map[string]models.OwnerAccount, order *[]string, key, value string) error {
	for prefix, set := range ownerFields {
		if method, ok := strings.CutPrefix(key, prefix); ok {
			method = models.NormalizeMethod(method)
			if method == "" {
				return fmt.Errorf("missing method suffix")
			}
			o, seen := owners[method]
			if !seen {
				*order = append(*order, method)
				o.Method = method
			}
			set(&o, value)
			owners[method] = o
			return nil
		}
	}

	var err error
	switch key {
	case "enabled_methods":
		s.EnabledMethods = splitMethods(value)
	case "circle_methods":
		s.CircleMethods = splitMethods(value)
	case "owner_methods":
		s.OwnerMethods = splitMethods(value)
	case "stale_prone_methods":
		s.StaleProneMethods = splitMethods(value)
	case "currency":
		s.Currency = strings.ToUpper(value)
	case "fee_percent":
		s.FeePercent, err = parseAmount(value)
	case "owner_fallback_threshold":
		s.OwnerFallbackThreshold, err = parseAmount(value)
	case "min_amount":
		s.MinAmount, err = parseAmount(value)
	case "max_amount":
		s.MaxAmount, err = parseAmount(value)
	case "min_remainder":
		s.MinRemainder, err = parseAmount(value)
	case "stale_hours":
		var h int
		if h, err = strconv.Atoi(value); err == nil && h <= 0 {
			err = fmt.Errorf("must be positive")
		}
		if err == nil {
			s.StaleHours = h
		}
	case "partial_matching":
		var b bool
		if b, err = strconv.ParseBool(value); err == nil {
			s.PartialMatching = b
		}
	case "claim_ttl_minutes":
		var m int
		if m, err = strconv.Atoi(value); err == nil && m <= 0 {
			err = fmt.Errorf("must be positive")
		}
		if err == nil {
			s.ClaimTTL = time.Duration(m) * time.Minute
		}
	default:
		return fmt.Errorf("unknown key")
	}
	return err
}

var ownerFields = map[string]func(*models.OwnerAccount, string){
	"owner_handle_":       func(o *models.OwnerAccount, v string) { o.Handle = v },
	"owner_name_":         func(o *models.OwnerAccount, v string) { o.DisplayName = v },
	"owner_instructions_": func(o *models.OwnerAccount, v string) { o.Instructions = v },
}

func parseAmount(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(value, "$"))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative")
	}
	return d, nil
}

func splitMethods(value string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(value, ",") {
		m := models.NormalizeMethod(part)
		if m != "" && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

func clone(s models.Settings) models.Settings {
	s.EnabledMethods = append([]string(nil), s.EnabledMethods...)
	s.CircleMethods = append([]string(nil), s.CircleMethods...)
	s.OwnerMethods = append([]string(nil), s.OwnerMethods...)
	s.StaleProneMethods = append([]string(nil), s.StaleProneMethods...)
	s.OwnerAccounts = append([]models.OwnerAccount(nil), s.OwnerAccounts...)
	return s
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/validation"
)

const (
	BackendGoogle = "google"
	BackendXLSX   = "xlsx"
)

type Config struct {
	RunAddr         string `env:"RUN_ADDRESS" envDefault:":8080"`
	StoreBackend    string `env:"STORE_BACKEND" envDefault:"google" validate:"oneof=google xlsx"`
	SpreadsheetID   string `env:"SHEETS_SPREADSHEET_ID" validate:"required_if=StoreBackend google"`
	CredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE" validate:"required_if=StoreBackend google"`
	XLSXPath        string `env:"XLSX_PATH" envDefault:"circlepay.xlsx"`
	Tenant          string `env:"TENANT"`
	JWTSecret       string `env:"JWT_SECRET"`

	StoreMinInterval time.Duration `env:"STORE_MIN_INTERVAL" envDefault:"1s" validate:"gte=0"`
	StoreMaxAttempts int           `env:"STORE_MAX_ATTEMPTS" envDefault:"3" validate:"gte=1,lte=10"`
	StoreBaseDelay   time.Duration `env:"STORE_BASE_DELAY" envDefault:"1s" validate:"gte=0"`
	StoreJitter      bool          `env:"STORE_JITTER" envDefault:"false"`

	SettingsTTL   time.Duration `env:"SETTINGS_TTL" envDefault:"60s" validate:"gt=0"`
	QueueTTL      time.Duration `env:"QUEUE_TTL" envDefault:"5s" validate:"gt=0"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m" validate:"gt=0"`
	PendingTTL    time.Duration `env:"PENDING_TTL" envDefault:"15m" validate:"gt=0"`

	OwnerAccountsFile string `env:"OWNER_ACCOUNTS_FILE"`
	APIRateLimit      string `env:"API_RATE_LIMIT" envDefault:"120-M"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn error"`
	LogPretty         bool   `env:"LOG_PRETTY" envDefault:"false"`

	Owners []models.OwnerAccount `env:"-"`
}

// Load reads envFiles (missing ones are skipped) and then the process
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.OwnerAccountsFile != "" {
		owners, err := LoadOwners(cfg.OwnerAccountsFile)
		if err != nil {
			return nil, err
		}
		cfg.Owners = owners
	}
	return &cfg, nil
}

type ownersFile struct {
	Owners []models.OwnerAccount `yaml:"owners"`
}

type ownerEntry struct {
	Method string `validate:"required"`
	Handle string `validate:"required"`
}

// LoadOwners reads owner payout accounts from YAML:
//
//	owners:
//	  - method: BTC
//	    handle: bc1q...
//	    display_name: Treasury
func LoadOwners(path string) ([]models.OwnerAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read owner accounts: %w", err)
	}
	var f ownersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse owner accounts %s: %w", path, err)
	}
	for i, o := range f.Owners {
		if err := validation.Struct(ownerEntry{Method: o.Method, Handle: o.Handle}); err != nil {
			return nil, fmt.Errorf("owner account %d in %s: %w", i+1, path, err)
		}
		f.Owners[i].Method = models.NormalizeMethod(o.Method)
	}
	return f.Owners, nil
}

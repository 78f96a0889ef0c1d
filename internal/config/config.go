// Package config loads and validates the runtime configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // Europe/Prague must resolve on hosts without zoneinfo

	"github.com/Veraticus/donor-sync/internal/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults used when neither the config file nor the environment sets a value.
const (
	DefaultDarujmeBaseURL  = "https://www.darujme.cz/api/v1"
	DefaultAnabixURL       = "https://app.anabix.cz/api"
	DefaultTimeframe       = "year"
	DefaultPledgesPath     = "./temp/darujme_data.json"
	DefaultProjectsPath    = "./temp/darujme_projects.json"
	DefaultListID          = 57 // "Individuální dárci"
	DefaultTimezone        = "Europe/Prague"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultRequestsPerSec  = 5.0
	DefaultSupportTypeCode = "2" // "Finanční dary"
	DefaultBranchCode      = "5" // "TYK"
	DefaultDonorTypeCode   = "2" // "Fyzická osoba"
)

// legacyEnv maps viper keys onto the variable names the sync has always read
// from .env files. They apply only when the key is not set otherwise.
var legacyEnv = map[string]string{
	"darujme.org_id":         "DARUJME_ORG_ID",
	"darujme.api_id":         "DARUJME_API_ID",
	"darujme.api_secret":     "DARUJME_API_SECRET",
	"darujme.timeframe":      "DARUJME_TIMEFRAME",
	"snapshot.pledges_path":  "DARUJME_OUTPUT_FILE",
	"snapshot.projects_path": "DARUJME_PROJECTS_FILE",
	"anabix.username":        "ANABIX_USERNAME",
	"anabix.token":           "ANABIX_API_TOKEN",
}

// Config is the full runtime configuration, passed explicitly to every component.
type Config struct {
	Logging  LoggingConfig
	Darujme  DarujmeConfig
	Anabix   AnabixConfig
	Snapshot SnapshotConfig
	Sync     SyncConfig
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string
	Format string
}

// DarujmeConfig holds donation platform credentials and fetch parameters.
type DarujmeConfig struct {
	OrgID     string
	APIID     string
	APISecret string
	BaseURL   string
	Timeframe string
	Timeout   time.Duration
}

// AnabixConfig holds CRM credentials.
type AnabixConfig struct {
	URL               string
	Username          string
	Token             string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// SnapshotConfig holds the snapshot file locations.
type SnapshotConfig struct {
	PledgesPath  string
	ProjectsPath string
}

// CustomFieldIDs are the CRM ids of the activity custom fields.
type CustomFieldIDs struct {
	AmountGross int
	AmountNet   int
	SupportType int
	Branch      int
	DonorType   int
}

// SyncConfig holds reconciliation parameters.
type SyncConfig struct {
	Timezone        string
	SupportTypeCode string
	BranchCode      string
	DonorTypeCode   string
	CustomFields    CustomFieldIDs
	ListID          int
	CheckDuplicates bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("darujme.base_url", DefaultDarujmeBaseURL)
	v.SetDefault("darujme.timeout", DefaultRequestTimeout)

	v.SetDefault("anabix.url", DefaultAnabixURL)
	v.SetDefault("anabix.timeout", DefaultRequestTimeout)
	v.SetDefault("anabix.requests_per_second", DefaultRequestsPerSec)

	v.SetDefault("sync.list_id", DefaultListID)
	v.SetDefault("sync.check_duplicates", true)
	v.SetDefault("sync.timezone", DefaultTimezone)
	v.SetDefault("sync.support_type_code", DefaultSupportTypeCode)
	v.SetDefault("sync.branch_code", DefaultBranchCode)
	v.SetDefault("sync.donor_type_code", DefaultDonorTypeCode)
	v.SetDefault("sync.custom_fields.amount_gross", 33)
	v.SetDefault("sync.custom_fields.amount_net", 35)
	v.SetDefault("sync.custom_fields.support_type", 36)
	v.SetDefault("sync.custom_fields.branch", 37)
	v.SetDefault("sync.custom_fields.donor_type", 38)
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are not an error; existing variables win.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load builds a Config from v. Values come from, in order of precedence,
// flags bound to v, DONORSYNC_ environment variables, the config file,
// the legacy variable names (see legacyEnv) and finally the defaults.
func Load(v *viper.Viper) (*Config, error) {
	get := func(key, def string) string {
		if val := v.GetString(key); val != "" {
			return val
		}
		if name, ok := legacyEnv[key]; ok {
			if val := os.Getenv(name); val != "" {
				return val
			}
		}
		return def
	}

	cfg := &Config{
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Darujme: DarujmeConfig{
			OrgID:     get("darujme.org_id", ""),
			APIID:     get("darujme.api_id", ""),
			APISecret: get("darujme.api_secret", ""),
			BaseURL:   strings.TrimRight(v.GetString("darujme.base_url"), "/"),
			Timeframe: get("darujme.timeframe", DefaultTimeframe),
			Timeout:   v.GetDuration("darujme.timeout"),
		},
		Anabix: AnabixConfig{
			URL:               v.GetString("anabix.url"),
			Username:          get("anabix.username", ""),
			Token:             get("anabix.token", ""),
			Timeout:           v.GetDuration("anabix.timeout"),
			RequestsPerSecond: v.GetFloat64("anabix.requests_per_second"),
		},
		Snapshot: SnapshotConfig{
			PledgesPath:  ExpandPath(get("snapshot.pledges_path", DefaultPledgesPath)),
			ProjectsPath: ExpandPath(get("snapshot.projects_path", DefaultProjectsPath)),
		},
		Sync: SyncConfig{
			ListID:          v.GetInt("sync.list_id"),
			CheckDuplicates: v.GetBool("sync.check_duplicates"),
			Timezone:        v.GetString("sync.timezone"),
			SupportTypeCode: v.GetString("sync.support_type_code"),
			BranchCode:      v.GetString("sync.branch_code"),
			DonorTypeCode:   v.GetString("sync.donor_type_code"),
			CustomFields: CustomFieldIDs{
				AmountGross: v.GetInt("sync.custom_fields.amount_gross"),
				AmountNet:   v.GetInt("sync.custom_fields.amount_net"),
				SupportType: v.GetInt("sync.custom_fields.support_type"),
				Branch:      v.GetInt("sync.custom_fields.branch"),
				DonorType:   v.GetInt("sync.custom_fields.donor_type"),
			},
		},
	}

	if _, err := time.LoadLocation(cfg.Sync.Timezone); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", common.ErrInvalidConfig, cfg.Sync.Timezone)
	}

	return cfg, nil
}

// ValidateFetch ensures the donation platform credentials are present.
func (c *Config) ValidateFetch() error {
	var missing []string
	if c.Darujme.OrgID == "" {
		missing = append(missing, "DARUJME_ORG_ID")
	}
	if c.Darujme.APIID == "" {
		missing = append(missing, "DARUJME_API_ID")
	}
	if c.Darujme.APISecret == "" {
		missing = append(missing, "DARUJME_API_SECRET")
	}
	if err := missingErr(missing); err != nil {
		return err
	}
	return c.validateSnapshot()
}

// ValidateSync ensures the CRM credentials and sync parameters are present.
func (c *Config) ValidateSync() error {
	var missing []string
	if c.Anabix.Username == "" {
		missing = append(missing, "ANABIX_USERNAME")
	}
	if c.Anabix.Token == "" {
		missing = append(missing, "ANABIX_API_TOKEN")
	}
	if err := missingErr(missing); err != nil {
		return err
	}

	var errs []error
	if c.Anabix.URL == "" {
		errs = append(errs, fmt.Errorf("%w: anabix url is empty", common.ErrInvalidConfig))
	}
	if c.Sync.ListID <= 0 {
		errs = append(errs, fmt.Errorf("%w: sync list id must be positive", common.ErrInvalidConfig))
	}
	f := c.Sync.CustomFields
	if f.AmountGross <= 0 || f.AmountNet <= 0 || f.SupportType <= 0 || f.Branch <= 0 || f.DonorType <= 0 {
		errs = append(errs, fmt.Errorf("%w: all activity custom field ids must be positive", common.ErrInvalidConfig))
	}
	if err := c.validateSnapshot(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) validateSnapshot() error {
	if c.Snapshot.PledgesPath == "" || c.Snapshot.ProjectsPath == "" {
		return fmt.Errorf("%w: snapshot paths must be set", common.ErrInvalidConfig)
	}
	return nil
}

func missingErr(names []string) error {
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("%w: required variables not set: %s", common.ErrMissingConfig, strings.Join(names, ", "))
}

// Location returns the timezone pledge timestamps are interpreted in.
func (s SyncConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}

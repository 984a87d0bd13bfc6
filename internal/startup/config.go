package startup

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"library-converter/internal/filesystem"
	"library-converter/internal/logging"
	"library-converter/internal/workers"
)

// Config holds all application configuration. It is immutable once loaded.
type Config struct {
	APIBase string
	APIKey  string

	DryRun      bool
	Concurrency int
	MaxAssets   int

	AssetTypes      []string
	IncludeArchived bool
	IncludeDeleted  bool
	// TakenAfter and TakenBefore are ISO-8601 timestamps or empty.
	TakenAfter  string
	TakenBefore string

	ImageDistance      float64
	ImageDistanceRetry float64
	ImageVipsFallback  bool

	VideoCRF          int
	VideoCRFRetry     int
	VideoPreset       int
	VideoMaxDimension int
	VideoAudioBitrate string

	EnableRetry       bool
	AcceptRetryOutput bool
	AllowLarger       bool

	WorkDir       string
	LedgerEnabled bool
	LedgerPath    string

	MetricsEnabled bool
	MetricsPort    string
}

// ConfigError describes one invalid environment variable.
type ConfigError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid %s=%q: %s", e.Key, e.Value, e.Reason)
}

// LoadConfig loads, validates and logs configuration, then provisions the
// work directory.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	loadEnvFile()

	config, err := ParseConfig()
	if err != nil {
		return nil, err
	}

	config.log()

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := ProvisionWorkDir(config.WorkDir); err != nil {
		return nil, fmt.Errorf("work directory error: %w", err)
	}
	logging.Info("  [OK] Work directory is writable: %s", config.WorkDir)

	return config, nil
}

// loadEnvFile preloads variables from ENV_FILE (default .env). Variables
// already set in the environment win.
func loadEnvFile() {
	path := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("No %s file found, relying on environment variables", path)
			return
		}
		logging.Warn("Failed to load %s: %v", path, err)
		return
	}
	logging.Info("Loaded environment from %s", path)
}

// ParseConfig reads and validates configuration from the environment without
// touching the filesystem. All invalid values are reported together.
func ParseConfig() (*Config, error) {
	p := &parser{}

	c := &Config{
		APIBase: p.required("IMMICH_API_BASE"),
		APIKey:  p.required("IMMICH_API_KEY"),

		DryRun:    getEnvBool("DRY_RUN", true),
		MaxAssets: p.integer("MAX_ASSETS", 0, 0, -1),

		AssetTypes:      p.assetTypes("ASSET_TYPES"),
		IncludeArchived: getEnvBool("INCLUDE_ARCHIVED", false),
		IncludeDeleted:  getEnvBool("INCLUDE_DELETED", false),
		TakenAfter:      p.date("FILTER_DATE_AFTER", false),
		TakenBefore:     p.date("FILTER_DATE_BEFORE", true),

		ImageDistance:      p.float("IMAGE_DISTANCE", 1.0, 0, 25),
		ImageDistanceRetry: p.float("IMAGE_DISTANCE_RETRY", 2.0, 0, 25),
		ImageVipsFallback:  getEnvBool("IMAGE_VIPS_FALLBACK", false),

		VideoCRF:          p.integer("VIDEO_CRF", 36, 0, 63),
		VideoCRFRetry:     p.integer("VIDEO_CRF_RETRY", 40, 0, 63),
		VideoPreset:       p.integer("VIDEO_PRESET", 4, 0, 13),
		VideoMaxDimension: p.integer("VIDEO_MAX_DIMENSION", 0, 0, -1),
		VideoAudioBitrate: getEnv("VIDEO_AUDIO_BITRATE", "64k"),

		EnableRetry:       getEnvBool("ENABLE_RETRY", true),
		AcceptRetryOutput: getEnvBool("ACCEPT_RETRY_OUTPUT", false),
		AllowLarger:       getEnvBool("ALLOW_LARGER", false),

		WorkDir:       getEnv("WORKDIR", "/work"),
		LedgerEnabled: getEnvBool("LEDGER_ENABLED", true),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if c.APIBase != "" {
		c.APIBase = p.baseURL("IMMICH_API_BASE", c.APIBase)
	}

	concurrency := getEnv("CONCURRENCY", "1")
	n, err := workers.Resolve(concurrency, 0)
	if err != nil {
		p.fail("CONCURRENCY", concurrency, "must be a positive integer or \"auto\"")
	}
	c.Concurrency = n

	if abs, err := filepath.Abs(c.WorkDir); err == nil {
		c.WorkDir = abs
	}
	c.LedgerPath = getEnv("LEDGER_PATH", filepath.Join(c.WorkDir, "ledger.db"))

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// parser accumulates validation errors while reading variables.
type parser struct {
	errs []error
}

func (p *parser) fail(key, value, reason string) {
	p.errs = append(p.errs, &ConfigError{Key: key, Value: value, Reason: reason})
}

func (p *parser) required(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		p.fail(key, "", "is required")
	}
	return value
}

func (p *parser) baseURL(key, value string) string {
	if !strings.HasSuffix(value, "/") {
		value += "/"
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		p.fail(key, value, "must be an absolute URL such as http://immich:2283/api/")
	}
	return value
}

// integer parses an int in [minValue, maxValue]; maxValue < 0 means no upper bound.
func (p *parser) integer(key string, defaultValue, minValue, maxValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		p.fail(key, raw, "not an integer")
	case n < minValue:
		p.fail(key, raw, fmt.Sprintf("must be >= %d", minValue))
	case maxValue >= 0 && n > maxValue:
		p.fail(key, raw, fmt.Sprintf("must be <= %d", maxValue))
	default:
		return n
	}
	return defaultValue
}

func (p *parser) float(key string, defaultValue, minValue, maxValue float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	switch {
	case err != nil:
		p.fail(key, raw, "not a number")
	case f < minValue:
		p.fail(key, raw, fmt.Sprintf("must be >= %g", minValue))
	case f > maxValue:
		p.fail(key, raw, fmt.Sprintf("must be <= %g", maxValue))
	default:
		return f
	}
	return defaultValue
}

func (p *parser) assetTypes(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return []string{"IMAGE", "VIDEO"}
	}

	var types []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" || seen[t] {
			continue
		}
		if t != "IMAGE" && t != "VIDEO" {
			p.fail(key, raw, fmt.Sprintf("unknown type %q (valid: IMAGE, VIDEO)", t))
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	if len(types) == 0 {
		p.fail(key, raw, "no asset types selected")
	}
	return types
}

// ISO-8601 layouts accepted for date filters besides a bare date.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// date expands YYYY-MM-DD to the start (or end) of that day in UTC and
// passes valid ISO-8601 timestamps through unchanged.
func (p *parser) date(key string, endOfDay bool) string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return ""
	}
	if expanded, ok := expandDate(raw, endOfDay); ok {
		return expanded
	}
	if len(raw) == len("2006-01-02") {
		p.fail(key, raw, "use YYYY-MM-DD")
		return ""
	}
	for _, layout := range isoLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return raw
		}
	}
	p.fail(key, raw, "use YYYY-MM-DD or ISO 8601")
	return ""
}

func expandDate(value string, endOfDay bool) (string, bool) {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return "", false
	}
	if endOfDay {
		return value + "T23:59:59.999Z", true
	}
	return value + "T00:00:00.000Z", true
}

// ProvisionWorkDir creates the in/ and out/ scratch directories and checks
// that the work directory is writable.
func ProvisionWorkDir(workdir string) error {
	if err := ensureDirectory(workdir, "work"); err != nil {
		return err
	}
	if err := filesystem.EnsureLayout(workdir); err != nil {
		return err
	}
	if err := testWriteAccess(workdir); err != nil {
		return fmt.Errorf("work directory is not writable: %w", err)
	}
	return nil
}

func (c *Config) log() {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  IMMICH_API_BASE:      %s", c.APIBase)
	logging.Info("  IMMICH_API_KEY:       %s", maskSecret(c.APIKey))
	logging.Info("  DRY_RUN:              %v", c.DryRun)
	logging.Info("  CONCURRENCY:          %d", c.Concurrency)
	logging.Info("  MAX_ASSETS:           %s", unlimited(c.MaxAssets))
	logging.Info("  ASSET_TYPES:          %s", strings.Join(c.AssetTypes, ","))
	logging.Info("  INCLUDE_ARCHIVED:     %v", c.IncludeArchived)
	logging.Info("  INCLUDE_DELETED:      %v", c.IncludeDeleted)
	if c.TakenAfter != "" {
		logging.Info("  FILTER_DATE_AFTER:    %s", c.TakenAfter)
	}
	if c.TakenBefore != "" {
		logging.Info("  FILTER_DATE_BEFORE:   %s", c.TakenBefore)
	}
	logging.Info("  IMAGE_DISTANCE:       %g (retry %g)", c.ImageDistance, c.ImageDistanceRetry)
	logging.Info("  IMAGE_VIPS_FALLBACK:  %v", c.ImageVipsFallback)
	logging.Info("  VIDEO_CRF:            %d (retry %d)", c.VideoCRF, c.VideoCRFRetry)
	logging.Info("  VIDEO_PRESET:         %d", c.VideoPreset)
	logging.Info("  VIDEO_MAX_DIMENSION:  %s", unlimited(c.VideoMaxDimension))
	logging.Info("  VIDEO_AUDIO_BITRATE:  %s", c.VideoAudioBitrate)
	logging.Info("  ENABLE_RETRY:         %v", c.EnableRetry)
	logging.Info("  ACCEPT_RETRY_OUTPUT:  %v", c.AcceptRetryOutput)
	logging.Info("  ALLOW_LARGER:         %v", c.AllowLarger)
	logging.Info("  WORKDIR:              %s", c.WorkDir)
	logging.Info("  LEDGER:               %s", enabledString(c.LedgerEnabled))
	if c.LedgerEnabled {
		logging.Info("  LEDGER_PATH:          %s", c.LedgerPath)
	}
	logging.Info("  METRICS:              %s", enabledString(c.MetricsEnabled))
	if c.MetricsEnabled {
		logging.Info("  METRICS_PORT:         %s", c.MetricsPort)
	}
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", 8)
}

func unlimited(n int) string {
	if n == 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read from environment variables by [LoadConfig]. A .env
// file (path from ENV_FILE, default .env) is loaded first; variables already
// present in the environment take precedence. [ParseConfig] performs the
// same parsing without logging or touching the filesystem.
//
// Required:
//   - IMMICH_API_BASE: catalog API root, a trailing slash is added if missing
//   - IMMICH_API_KEY: API key sent as x-api-key
//
// Behavior:
//   - DRY_RUN (default: true), CONCURRENCY (default: 1, or "auto"), MAX_ASSETS (0 = unlimited)
//   - ASSET_TYPES (IMAGE,VIDEO), INCLUDE_ARCHIVED, INCLUDE_DELETED
//   - FILTER_DATE_AFTER / FILTER_DATE_BEFORE: YYYY-MM-DD (start or end of day UTC) or ISO 8601
//
// Encoding:
//   - IMAGE_DISTANCE (1.0), IMAGE_DISTANCE_RETRY (2.0), IMAGE_VIPS_FALLBACK (false)
//   - VIDEO_CRF (36), VIDEO_CRF_RETRY (40), VIDEO_PRESET (4), VIDEO_MAX_DIMENSION (0), VIDEO_AUDIO_BITRATE (64k)
//   - ENABLE_RETRY (true), ACCEPT_RETRY_OUTPUT (false), ALLOW_LARGER (false)
//
// Paths and services:
//   - WORKDIR (/work), LEDGER_ENABLED (true), LEDGER_PATH (<WORKDIR>/ledger.db)
//   - METRICS_ENABLED (false), METRICS_PORT (9090)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// Invalid booleans log a warning and fall back to the default. Invalid
// numbers, ranges and dates are returned as [ConfigError] values joined
// into one error.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup

// Package logging provides a simple leveled logging interface for the
// library converter.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (tool command lines, probe output)
//   - INFO: General operational messages (per-asset outcomes, progress)
//   - WARN: Warning conditions (metadata copy failures, partial successes)
//   - ERROR: Error conditions (failed assets, failed compensations)
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true.
//
// Logger values carry a fixed prefix so that concurrent workers can tag
// every line with the asset they belong to:
//
//	log := logging.With(asset.OriginalFileName)
//	log.Info("%d kB -> %d kB", in/1024, out/1024)
package logging

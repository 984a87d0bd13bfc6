/*
Package filesystem manages the per-asset scratch files used during conversion.

# Layout

Every asset gets two paths inside the work directory:

	<workdir>/in/<asset-id>.bin       downloaded original
	<workdir>/out/<asset-id>.<target> converted output (jxl or mp4)

The asset id is reduced to its base name before use, so ids containing path
separators stay inside the work directory. Distinct assets never share a path.

	scratch := filesystem.NewScratch(cfg.WorkDir, asset.ID, "jxl")
	defer scratch.Cleanup()

Cleanup removes both files and treats a missing file as success, so it is
safe to call from a deferred statement on every exit path.

# Retry Behavior

Work directories are often NFS mounts. Stat and remove operations retry on
ESTALE (stale file handle) with exponential backoff:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Non-stale errors are returned immediately.

# Metrics

  - library_converter_scratch_cleanup_total{status}: removed, absent or error
  - library_converter_scratch_retry_attempts_total: stale handle retries
*/
package filesystem

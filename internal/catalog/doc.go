/*
Package catalog is the client for the Immich-compatible media catalog API.

# Operations

	Search         POST   search/metadata      page of assets (items at assets.items)
	Download       GET    assets/{id}/original streamed to a local file
	Upload         POST   assets               multipart, file part "assetData"
	CopyRelations  PUT    assets/copy          204 on success
	Exists         GET    assets/{id}          200 true, 404 false
	Delete         DELETE assets               body {"ids": [...]}, 204 on success

Every request carries the x-api-key header.

# Resilience

Transport errors, 429 and 5xx responses are retried up to three times with
exponential backoff starting at two seconds. 401 and 403 are never retried
and come back as *Error with KindAuth or KindForbidden; IsFatal reports them
so callers can abort the run. A 404 is an ordinary result for Exists.

Connections time out after 10 seconds and response headers after 300
seconds. Bodies have no overall deadline, so multi-gigabyte videos stream
without being cut off; uploads are written through an io.Pipe and never
buffered whole.

HTTPClient holds no per-call state and is safe for concurrent use.
*/
package catalog

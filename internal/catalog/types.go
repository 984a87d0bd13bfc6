package catalog

import (
	"context"

	"library-converter/internal/mediatypes"
)

// Asset is a catalog entry as returned by search. Timestamps are kept in the
// catalog's own ISO-8601 form so they round-trip unchanged on upload.
type Asset struct {
	ID               string `json:"id"`
	OriginalFileName string `json:"originalFileName"`
	OriginalPath     string `json:"originalPath"`
	OriginalMimeType string `json:"originalMimeType,omitempty"`
	Type             string `json:"type"`
	DeviceAssetID    string `json:"deviceAssetId"`
	DeviceID         string `json:"deviceId"`
	FileCreatedAt    string `json:"fileCreatedAt"`
	FileModifiedAt   string `json:"fileModifiedAt"`
}

// Kind maps the catalog type to a media kind.
func (a Asset) Kind() (mediatypes.Kind, bool) {
	return mediatypes.ParseKind(a.Type)
}

// SearchQuery selects one page of assets of a single type.
type SearchQuery struct {
	Type         string
	Page         int
	Size         int
	WithArchived bool
	WithDeleted  bool
	TakenAfter   string
	TakenBefore  string
}

// UploadRequest describes a new asset to create from a local file.
type UploadRequest struct {
	FilePath       string
	DeviceAssetID  string
	DeviceID       string
	FileCreatedAt  string
	FileModifiedAt string
	Filename       string
}

// Uploaded is the catalog's answer to an upload.
type Uploaded struct {
	ID string
	// Duplicate is set when the catalog matched an asset that already
	// existed instead of creating a new one.
	Duplicate bool
}

// Client is the catalog API used by the pipeline. Implementations must be
// safe for concurrent use.
type Client interface {
	Search(ctx context.Context, q SearchQuery) ([]Asset, error)
	// Download streams the original of assetID to dest and returns its size.
	Download(ctx context.Context, assetID, dest string) (int64, error)
	// Upload creates a new asset, or reports the existing duplicate.
	Upload(ctx context.Context, req UploadRequest) (Uploaded, error)
	// CopyRelations copies albums, favorite, shared links, sidecar and stack.
	CopyRelations(ctx context.Context, fromID, toID string) error
	// Exists reports whether assetID can be fetched. A 404 is (false, nil).
	Exists(ctx context.Context, assetID string) (bool, error)
	Delete(ctx context.Context, ids ...string) error
	// Ping checks connectivity and credentials.
	Ping(ctx context.Context) error
}

package mediatypes

import (
	"path/filepath"
	"strings"
)

// Kind is the closed set of media kinds the converter handles.
type Kind string

const (
	// KindImage represents a still image asset.
	KindImage Kind = "image"
	// KindVideo represents a video asset.
	KindVideo Kind = "video"
)

// Target format labels produced by the converter.
const (
	// TargetImageFormat is the sniffed label of the still-image target codec.
	TargetImageFormat = "jxl"
	// TargetVideoContainer is the container label (and file extension) of video output.
	TargetVideoContainer = "mp4"
	// TargetVideoCodec is the codec name ffprobe reports for converted video.
	TargetVideoCodec = "av1"
)

// Format labels returned by the sniffer.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpg"
	FormatJXL  = "jxl"
	FormatTIFF = "tiff"
	FormatGIF  = "gif"
	FormatBMP  = "bmp"
	FormatWebP = "webp"
	FormatAVI  = "avi"
	FormatMKV  = "mkv"
	FormatHEIC = "heic"
	FormatAVIF = "avif"
	FormatMP4  = "mp4"
)

// ParseKind maps a catalog asset type ("IMAGE", "VIDEO", any case) to a Kind.
// The second return value is false for types the converter does not handle.
func ParseKind(assetType string) (Kind, bool) {
	switch strings.ToUpper(strings.TrimSpace(assetType)) {
	case "IMAGE":
		return KindImage, true
	case "VIDEO":
		return KindVideo, true
	default:
		return "", false
	}
}

// CatalogType returns the catalog's spelling of the kind ("IMAGE" or "VIDEO").
func (k Kind) CatalogType() string {
	return strings.ToUpper(string(k))
}

// Target returns the output format label for the kind. It doubles as the
// output file extension.
func (k Kind) Target() string {
	if k == KindVideo {
		return TargetVideoContainer
	}
	return TargetImageFormat
}

// MimeTypeJXL is the MIME type the catalog reports for JPEG XL images.
const MimeTypeJXL = "image/jxl"

// IsTargetImage reports whether an image's declared MIME type or filename
// already indicates the target still-image format. The MIME type wins when
// present; the extension is the fallback.
func IsTargetImage(mimeType, filename string) bool {
	if mimeType != "" {
		if strings.EqualFold(strings.TrimSpace(mimeType), MimeTypeJXL) {
			return true
		}
	}
	return strings.ToLower(filepath.Ext(filename)) == "."+TargetImageFormat
}

// ReplacementName returns the filename of the converted asset: the original
// base name with its extension replaced by target.
func ReplacementName(originalName, target string) string {
	base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
	return base + "." + target
}

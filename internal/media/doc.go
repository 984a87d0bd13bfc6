// Package media holds the in-process image helpers used next to the external
// encoders.
//
// libvips (via govips) provides the last-resort JPEG XL encoder used when the
// external converter fails and IMAGE_VIPS_FALLBACK is enabled. InitVips routes
// libvips log output through the logging package at a level derived from
// LOG_LEVEL. govips cannot be restarted after ShutdownVips, so both are
// called exactly once from main.
//
// GetImageDimensions reads only the image header through image.DecodeConfig,
// with decoders registered for GIF, JPEG, PNG, BMP, TIFF and WebP. It is used
// for dry-run reports and debug logging.
package media

package media

import (
	"image"
	"os"

	"library-converter/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// Pixels returns the total pixel count.
func (d ImageDimensions) Pixels() int {
	return d.Width * d.Height
}

// GetImageDimensions returns image dimensions without fully decoding the image.
// HEIC, AVIF and JPEG XL have no registered decoder and return an error.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

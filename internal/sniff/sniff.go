package sniff

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"library-converter/internal/logging"
	"library-converter/internal/mediatypes"
	"library-converter/internal/tools"
)

// HeaderSize is the number of leading bytes examined by DetectFormat.
const HeaderSize = 32

// ProbeTimeout bounds every ffprobe invocation.
const ProbeTimeout = 60 * time.Second

type signature struct {
	magic  []byte
	format string
}

// signatures is checked in order; the first prefix match wins.
var signatures = []signature{
	{[]byte{0x00, 0x00, 0x00, 0x0C, 0x4A, 0x58, 0x4C, 0x20, 0x0D, 0x0A, 0x87, 0x0A}, mediatypes.FormatJXL},
	{[]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, mediatypes.FormatPNG},
	{[]byte{0xFF, 0xD8, 0xFF}, mediatypes.FormatJPEG},
	{[]byte{0xFF, 0x0A}, mediatypes.FormatJXL},
	{[]byte{0x49, 0x49, 0x2A, 0x00}, mediatypes.FormatTIFF},
	{[]byte{0x4D, 0x4D, 0x00, 0x2A}, mediatypes.FormatTIFF},
	{[]byte{0x47, 0x49, 0x46, 0x38}, mediatypes.FormatGIF},
	{[]byte{0x42, 0x4D}, mediatypes.FormatBMP},
}

var (
	riffMagic     = []byte("RIFF")
	matroskaMagic = []byte{0x1A, 0x45, 0xDF, 0xA3}
	ftypTag       = []byte("ftyp")
)

var heicBrands = map[string]bool{"heic": true, "heix": true, "mif1": true, "msf1": true}

var avifBrands = map[string]bool{"avif": true, "avis": true}

var quicktimeAtoms = map[string]bool{
	"moov": true, "mdat": true, "wide": true, "skip": true, "free": true, "pnot": true,
}

// DetectFormat classifies a local file from its first HeaderSize bytes.
// It returns false when the file is missing, unreadable, empty or unrecognized.
func DetectFormat(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Debug("failed to close %s: %v", path, err)
		}
	}()

	header := make([]byte, HeaderSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", false
	}

	return DetectHeader(header[:n])
}

// DetectHeader classifies a byte prefix. It is pure and total.
func DetectHeader(header []byte) (string, bool) {
	if len(header) == 0 {
		return "", false
	}

	for _, sig := range signatures {
		if bytes.HasPrefix(header, sig.magic) {
			return sig.format, true
		}
	}

	if bytes.HasPrefix(header, riffMagic) && len(header) >= 12 {
		switch string(header[8:12]) {
		case "WEBP", "WEBX":
			return mediatypes.FormatWebP, true
		case "AVI ":
			return mediatypes.FormatAVI, true
		}
	}

	if bytes.HasPrefix(header, matroskaMagic) {
		return mediatypes.FormatMKV, true
	}

	if len(header) >= 12 && bytes.Equal(header[4:8], ftypTag) {
		brand := strings.ToLower(string(header[8:12]))
		switch {
		case heicBrands[brand]:
			return mediatypes.FormatHEIC, true
		case avifBrands[brand]:
			return mediatypes.FormatAVIF, true
		default:
			return mediatypes.FormatMP4, true
		}
	}

	if len(header) >= 8 && quicktimeAtoms[string(header[4:8])] {
		return mediatypes.FormatMP4, true
	}

	return "", false
}

// DetectVideoCodec asks ffprobe for the codec of the first video stream.
// It returns the lower-cased codec name, or false if ffprobe is missing,
// fails, times out or prints nothing.
func DetectVideoCodec(ctx context.Context, runner tools.Runner, path string) (string, bool) {
	out, err := runner.Run(ctx, ProbeTimeout, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		if tools.IsKind(err, tools.KindTimeout) {
			logging.Warn("ffprobe timed out detecting codec for %s", path)
		} else {
			logging.Debug("ffprobe codec detection failed for %s: %v", path, err)
		}
		return "", false
	}

	codec := strings.ToLower(strings.TrimSpace(firstLine(string(out))))
	if codec == "" {
		return "", false
	}
	return codec, true
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

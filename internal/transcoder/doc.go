// Package transcoder converts downloaded originals into the target codecs.
//
// Each media kind is served by a Handler:
//   - images become JPEG XL, trying an ordered list of strategies: cjxl lossless
//     repack (JPEG input, first attempt only), ImageMagick with the configured
//     distance, and optionally libvips in process
//   - videos become AV1 (SVT-AV1) with Opus audio in MP4 via ffmpeg, with an
//     optional shorter-side scale limit
//
// Inputs already in the target codec return an Outcome with AlreadyDone set.
// Tool failures never panic; they come back in Outcome.Err. Timeouts are
// fixed per tool class: 600s for image encoders, 12h for ffmpeg, 60s for
// probes and 120s for exiftool.
//
// ValidateImage and ValidateVideo check produced files: non-empty, and either
// sniffing as the target format or having a positive probed duration.
package transcoder

/*
Package sniff classifies local media files.

Images (and most containers) are identified from the first 32 bytes by an
ordered table of magic-byte prefixes:

	00 00 00 0C 4A 58 4C 20 0D 0A 87 0A   jxl (ISOBMFF container)
	89 50 4E 47 0D 0A 1A 0A               png
	FF D8 FF                              jpg
	FF 0A                                 jxl (bare codestream)
	49 49 2A 00 / 4D 4D 00 2A             tiff
	47 49 46 38                           gif
	42 4D                                 bmp

Prefixes not in the table are resolved by container rules: RIFF with a
WEBP/WEBX brand is webp and with "AVI " is avi; an EBML header is mkv; an
ftyp box is heic, avif or mp4 depending on its brand; a bare QuickTime atom
(moov, mdat, wide, skip, free, pnot) is mp4.

Video codecs come from ffprobe through a tools.Runner.

Neither function returns an error: an unclassified file is reported with a
false second return value.
*/
package sniff

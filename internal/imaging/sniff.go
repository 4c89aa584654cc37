package imaging

import "bytes"

// Format identifies an image container by its byte signature.
type Format string

const (
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatWEBP    Format = "webp"
	FormatHEIC    Format = "heic"
	FormatHEIF    Format = "heif"
	FormatUnknown Format = "unknown"
)

var (
	sigPNG  = []byte{0x89, 0x50, 0x4E, 0x47}
	sigJPEG = []byte{0xFF, 0xD8, 0xFF}
	sigRIFF = []byte("RIFF")
	sigWEBP = []byte("WEBP")
	sigHEIC = []byte("ftypheic")
	sigHEIF = []byte("ftypheif")
)

// Detect classifies an image buffer by inspecting its leading bytes. It is the
// single source of truth for image format in this service; filenames and
// declared content types are never consulted. Buffers shorter than four bytes
// are always unknown.
func Detect(b []byte) Format {
	if len(b) < 4 {
		return FormatUnknown
	}
	switch {
	case bytes.Equal(b[0:4], sigPNG):
		return FormatPNG
	case bytes.Equal(b[0:3], sigJPEG):
		return FormatJPEG
	case bytes.Equal(b[0:4], sigRIFF) && len(b) >= 12 && bytes.Equal(b[8:12], sigWEBP):
		return FormatWEBP
	case len(b) >= 12 && bytes.Equal(b[4:12], sigHEIC):
		return FormatHEIC
	case len(b) >= 12 && bytes.Equal(b[4:12], sigHEIF):
		return FormatHEIF
	default:
		return FormatUnknown
	}
}

// MIME returns the MIME type for the format, or an empty string for unknown.
func (f Format) MIME() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatWEBP:
		return "image/webp"
	case FormatHEIC:
		return "image/heic"
	case FormatHEIF:
		return "image/heif"
	default:
		return ""
	}
}

package media

import (
	"io"

	"photo-curator/internal/filesystem"
)

// Format identifiers returned by DetectFormat.
const (
	FormatJPEG    = "jpeg"
	FormatPNG     = "png"
	FormatGIF     = "gif"
	FormatWebP    = "webp"
	FormatBMP     = "bmp"
	FormatTIFF    = "tiff"
	FormatHEIF    = "heif"
	FormatAVIF    = "avif"
	FormatJXL     = "jxl"
	FormatUnknown = "unknown"
)

// DetectFileFormat reads the header of the file at path and returns its
// format identifier.
func DetectFileFormat(path string) (string, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	defer file.Close()

	return DetectFormat(file)
}

// DetectFormat identifies an image format from the first bytes of r.
func DetectFormat(r io.Reader) (string, error) {
	header := make([]byte, 32)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return formatFromHeader(header[:n]), nil
}

func formatFromHeader(header []byte) string {
	switch {
	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return FormatJPEG

	case len(header) >= 8 && header[0] == 0x89 && header[1] == 0x50 && header[2] == 0x4E && header[3] == 0x47:
		return FormatPNG

	case len(header) >= 4 && header[0] == 0x47 && header[1] == 0x49 && header[2] == 0x46 && header[3] == 0x38:
		return FormatGIF

	case len(header) >= 12 && string(header[0:4]) == "RIFF" && string(header[8:12]) == "WEBP":
		return FormatWebP

	case len(header) >= 2 && header[0] == 0x42 && header[1] == 0x4D:
		return FormatBMP

	case len(header) >= 4 && ((header[0] == 0x49 && header[1] == 0x49 && header[2] == 0x2A && header[3] == 0x00) ||
		(header[0] == 0x4D && header[1] == 0x4D && header[2] == 0x00 && header[3] == 0x2A)):
		return FormatTIFF

	case len(header) >= 12 && string(header[4:8]) == "ftyp":
		switch string(header[8:12]) {
		case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
			return FormatHEIF
		case "avif", "avis":
			return FormatAVIF
		}
		return FormatUnknown

	case len(header) >= 2 && header[0] == 0xFF && header[1] == 0x0A:
		return FormatJXL

	case len(header) >= 8 && header[0] == 0x00 && header[1] == 0x00 && header[2] == 0x00 && header[3] == 0x0C &&
		string(header[4:8]) == "JXL ":
		return FormatJXL
	}

	return FormatUnknown
}

// NeedsVips reports whether format can only be decoded through libvips.
func NeedsVips(format string) bool {
	switch format {
	case FormatHEIF, FormatAVIF, FormatJXL:
		return true
	default:
		return false
	}
}

package library

import (
	"path/filepath"
	"strings"
)

// photoExtensions lists the file extensions considered during a scan. The
// decoded format is always taken from the file header.
var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
	".avif": true,
	".jxl":  true,
}

// IsPhotoFile reports whether name has a supported photo extension.
func IsPhotoFile(name string) bool {
	return photoExtensions[strings.ToLower(filepath.Ext(name))]
}

package library

import (
	"strings"
	"time"

	"photo-curator/internal/filesystem"
	"photo-curator/internal/logging"

	"github.com/bep/imagemeta"
)

// exifDateLayout is the EXIF date and time format.
const exifDateLayout = "2006:01:02 15:04:05"

// exifInfo is the subset of EXIF the library needs.
type exifInfo struct {
	DateTimeOriginal time.Time
	HasGPS           bool
	Make             string
	Model            string
}

// HasCamera reports whether the photo names the camera that took it.
func (e exifInfo) HasCamera() bool {
	return e.Make != "" || e.Model != ""
}

var wantedEXIFTags = map[string]bool{
	"DateTimeOriginal": true,
	"GPSLatitude":      true,
	"GPSLongitude":     true,
	"Make":             true,
	"Model":            true,
}

// readEXIF extracts EXIF fields from the file at path. Files without EXIF,
// or in formats imagemeta cannot read, yield an empty exifInfo.
func readEXIF(path string) exifInfo {
	var info exifInfo

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Debug("Cannot open %s for EXIF: %v", path, err)
		return info
	}
	defer f.Close()

	var lat, lon bool
	_, err = imagemeta.Decode(imagemeta.Options{
		R:       f,
		Sources: imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return wantedEXIFTags[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			switch ti.Tag {
			case "DateTimeOriginal":
				if t, ok := parseEXIFTime(ti.Value); ok {
					info.DateTimeOriginal = t
				}
			case "GPSLatitude":
				lat = ti.Value != nil
			case "GPSLongitude":
				lon = ti.Value != nil
			case "Make":
				info.Make = tagString(ti.Value)
			case "Model":
				info.Model = tagString(ti.Value)
			}
			return nil
		},
	})
	if err != nil {
		logging.Debug("No EXIF read from %s: %v", path, err)
	}
	info.HasGPS = lat && lon
	return info
}

func parseEXIFTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case string:
		t, err := time.ParseInLocation(exifDateLayout, strings.TrimSpace(val), time.Local)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func tagString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []string:
		if len(val) > 0 {
			return strings.TrimSpace(val[0])
		}
	}
	return ""
}

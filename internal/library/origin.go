package library

import (
	"path"
	"strings"

	"photo-curator/internal/photo"
)

// directoryOrigins maps directory name fragments to the origin they imply.
// Entries are checked in order.
var directoryOrigins = []struct {
	hint   string
	origin photo.Origin
}{
	{"shared", photo.OriginCloudShared},
	{"sync", photo.OriginSynced},
	{"import", photo.OriginImported},
	{"download", photo.OriginImported},
}

// originFor derives the origin of the photo at the slash-separated relPath.
// Camera metadata wins over directory hints.
func originFor(relPath string, hasCamera bool) photo.Origin {
	if hasCamera {
		return photo.OriginCamera
	}

	dir := strings.ToLower(path.Dir(relPath))
	if dir != "." {
		for _, segment := range strings.Split(dir, "/") {
			for _, d := range directoryOrigins {
				if strings.Contains(segment, d.hint) {
					return d.origin
				}
			}
		}
	}
	return photo.OriginImported
}

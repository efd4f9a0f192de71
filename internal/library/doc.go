/*
Package library provides the file-backed photo store.

A Library scans a photo directory with a pool of walker workers and builds a
photo.Record for every supported image. Records carry:

  - ID: the slash-separated path relative to the library root
  - CreatedAt: EXIF DateTimeOriginal, falling back to the file modification time
  - ModifiedAt: the file modification time
  - HasLocation: whether EXIF GPS coordinates are present
  - Origin: camera when EXIF Make or Model is present, otherwise derived from
    directory names (shared, sync, import, download)
  - Format and pixel dimensions from the file header

Library implements photo.Source and photo.Store. Decode delegates to
media.DecodeFile, which uses libvips when it is initialized. EXIF reads go
through filesystem.OpenWithRetry so stale NFS handles are retried.
*/
package library

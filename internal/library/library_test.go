package library

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"photo-curator/internal/photo"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func buildLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "2024", "beach.png"), 40, 30)
	writePNG(t, filepath.Join(root, "Shared Album", "party.png"), 20, 20)
	writePNG(t, filepath.Join(root, "Downloads", "meme.png"), 16, 24)
	writePNG(t, filepath.Join(root, "iCloud Sync", "cat.png"), 10, 10)
	writePNG(t, filepath.Join(root, ".thumbs", "hidden.png"), 10, 10)
	writeFile(t, filepath.Join(root, "notes.txt"), "not a photo")
	writeFile(t, filepath.Join(root, "broken.jpg"), "not really a jpeg")
	return root
}

func TestPhotos(t *testing.T) {
	root := buildLibrary(t)
	lib := New(root, Config{Workers: 2})

	records, err := lib.Photos(context.Background())
	if err != nil {
		t.Fatalf("Photos() error: %v", err)
	}

	byID := make(map[string]photo.Record)
	for _, r := range records {
		byID[r.ID] = r
	}
	if len(records) != 4 {
		t.Fatalf("got %d records (%v), expected 4", len(records), byID)
	}

	tests := []struct {
		id     string
		origin photo.Origin
		width  int
		height int
	}{
		{"2024/beach.png", photo.OriginImported, 40, 30},
		{"Shared Album/party.png", photo.OriginCloudShared, 20, 20},
		{"Downloads/meme.png", photo.OriginImported, 16, 24},
		{"iCloud Sync/cat.png", photo.OriginSynced, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, ok := byID[tt.id]
			if !ok {
				t.Fatalf("record %s missing", tt.id)
			}
			if r.Origin != tt.origin {
				t.Errorf("origin = %s, expected %s", r.Origin, tt.origin)
			}
			if r.Width != tt.width || r.Height != tt.height {
				t.Errorf("dimensions = %dx%d, expected %dx%d", r.Width, r.Height, tt.width, tt.height)
			}
			if r.Format != "png" {
				t.Errorf("format = %q, expected png", r.Format)
			}
			if r.HasLocation {
				t.Error("HasLocation = true for a photo without GPS")
			}
			if !r.CreatedAt.Equal(r.ModifiedAt) {
				t.Errorf("CreatedAt = %v, expected the modification time %v", r.CreatedAt, r.ModifiedAt)
			}
			if r.FileSize <= 0 {
				t.Errorf("FileSize = %d, expected > 0", r.FileSize)
			}
		})
	}

	for i := 1; i < len(records); i++ {
		if records[i-1].ID >= records[i].ID {
			t.Errorf("records not ordered by id: %s before %s", records[i-1].ID, records[i].ID)
		}
	}

	if _, count := lib.LastScan(); count != 4 {
		t.Errorf("LastScan count = %d, expected 4", count)
	}
}

func TestPhotosMissingRoot(t *testing.T) {
	lib := New(filepath.Join(t.TempDir(), "missing"), Config{})
	if _, err := lib.Photos(context.Background()); err == nil {
		t.Error("expected error for a missing library directory")
	}
}

func TestPhotosCancelled(t *testing.T) {
	root := buildLibrary(t)
	lib := New(root, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := lib.Photos(ctx); err == nil {
		t.Error("expected error for a cancelled scan")
	}
}

func TestDecode(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "big.png"), 200, 100)
	lib := New(root, Config{})

	img, err := lib.Decode(context.Background(), photo.Record{ID: "big.png"}, 50)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 50 || b.Dy() != 25 {
		t.Errorf("decoded size = %dx%d, expected 50x25", b.Dx(), b.Dy())
	}
}

func TestDecodeRejectsEscapingPath(t *testing.T) {
	lib := New(t.TempDir(), Config{})
	if _, err := lib.Decode(context.Background(), photo.Record{ID: "../outside.png"}, 50); err == nil {
		t.Error("expected error for a path outside the library")
	}
}

func TestOriginFor(t *testing.T) {
	tests := []struct {
		relPath   string
		hasCamera bool
		expected  photo.Origin
	}{
		{"DCIM/IMG_0001.jpg", true, photo.OriginCamera},
		{"Shared/IMG_0001.jpg", true, photo.OriginCamera},
		{"IMG_0001.jpg", false, photo.OriginImported},
		{"Family Shared/a.jpg", false, photo.OriginCloudShared},
		{"Dropbox Sync/2020/a.jpg", false, photo.OriginSynced},
		{"Imported/a.jpg", false, photo.OriginImported},
		{"downloads/a.jpg", false, photo.OriginImported},
	}
	for _, tt := range tests {
		if got := originFor(tt.relPath, tt.hasCamera); got != tt.expected {
			t.Errorf("originFor(%q, %v) = %s, expected %s", tt.relPath, tt.hasCamera, got, tt.expected)
		}
	}
}

func TestIsPhotoFile(t *testing.T) {
	tests := map[string]bool{
		"a.JPG":  true,
		"b.heic": true,
		"c.webp": true,
		"d.txt":  false,
		"e.mp4":  false,
		"noext":  false,
	}
	for name, expected := range tests {
		if got := IsPhotoFile(name); got != expected {
			t.Errorf("IsPhotoFile(%q) = %v, expected %v", name, got, expected)
		}
	}
}

func TestParseEXIFTime(t *testing.T) {
	if _, ok := parseEXIFTime("2023:07:14 09:30:00"); !ok {
		t.Error("expected EXIF date to parse")
	}
	if _, ok := parseEXIFTime("garbage"); ok {
		t.Error("expected garbage date to be rejected")
	}
	if _, ok := parseEXIFTime(42); ok {
		t.Error("expected non-string value to be rejected")
	}
}

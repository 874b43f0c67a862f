package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestFromBytes(t *testing.T) {
	img, err := FromBytes("flyer.png", pngBytes(t, 4, 3))
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("Expected image/png, got %s", img.MIMEType)
	}
	if img.Width != 4 || img.Height != 3 {
		t.Errorf("Expected 4x3, got %dx%d", img.Width, img.Height)
	}
	if !strings.HasPrefix(img.DataURL(), "data:image/png;base64,iVBOR") {
		t.Errorf("Unexpected data URL prefix %q", img.DataURL()[:30])
	}
}

func TestFromBytesRejects(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected error
	}{
		{"empty", nil, ErrEmptyUpload},
		{"text", []byte("hello, this is not an image"), ErrNotAnImage},
		{"too large", make([]byte, MaxSize+1), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes(tt.name, tt.data)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tarifs.png")
	if err := os.WriteFile(path, pngBytes(t, 2, 2), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Name != "tarifs.png" {
		t.Errorf("Expected name tarifs.png, got %s", img.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestFetch(t *testing.T) {
	data := pngBytes(t, 5, 5)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer server.Close()

	f := NewFetcher()
	img, err := f.Fetch(context.Background(), server.URL+"/flyer.png?v=2")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if img.Name != "flyer.png" || img.Width != 5 {
		t.Errorf("Unexpected image %s %dx%d", img.Name, img.Width, img.Height)
	}

	if _, err := f.FetchAll(context.Background(), []string{server.URL + "/a.png", server.URL + "/missing.png"}); err == nil {
		t.Error("Expected FetchAll to fail on a 404")
	}
}

package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
)

// Fetcher downloads flyer photos by URL
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch downloads one image. The body is capped at MaxSize.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "prestations/1.0")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSize+1))
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image data: %w", err)
	}

	slog.Debug("Downloaded image", "url", url, "size", len(data))
	return FromBytes(nameFromURL(url), data)
}

// FetchAll downloads every URL in order and stops at the first failure.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]Image, error) {
	result := make([]Image, 0, len(urls))
	for _, u := range urls {
		img, err := f.Fetch(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u, err)
		}
		result = append(result, img)
	}
	return result, nil
}

func nameFromURL(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	name := path.Base(url)
	if name == "" || name == "." || name == "/" || strings.Contains(name, ":") {
		return "image"
	}
	return name
}

// Package assets hosts user supplied images such as avatars.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxImageSize bounds the size of an uploaded image.
const MaxImageSize = 5 << 20

var (
	// ErrInvalidImage is returned when a source does not decode to a
	// supported image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrImageTooLarge is returned when a source exceeds MaxImageSize.
	ErrImageTooLarge = errors.New("image too large")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store uploads images and releases them once no row references them.
type Store interface {
	// Upload stores the image described by source and returns its asset id.
	Upload(ctx context.Context, source string) (string, error)
	// Release frees the asset. Releasing a missing asset is not an error.
	Release(ctx context.Context, assetID string) error
}

// NopStore keeps sources as given. It is used when no bucket is configured.
type NopStore struct{}

func (NopStore) Upload(_ context.Context, source string) (string, error) {
	return source, nil
}

func (NopStore) Release(context.Context, string) error {
	return nil
}

// Image is a decoded image ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
}

// Ext returns the file extension matching the content type.
func (i Image) Ext() string {
	return extensions[i.ContentType]
}

// Fetcher resolves an image source, which is an http(s) URL, a base64 data
// URI, or bare base64.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher whose downloads are bounded by timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch resolves source into an image.
func (f *Fetcher) Fetch(ctx context.Context, source string) (Image, error) {
	source = strings.TrimSpace(source)

	var data []byte
	var err error
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		data, err = f.download(ctx, source)
	case strings.HasPrefix(source, "data:"):
		data, err = decodeDataURI(source)
	default:
		data, err = decodeBase64(source)
	}
	if err != nil {
		return Image{}, err
	}
	if len(data) > MaxImageSize {
		return Image{}, ErrImageTooLarge
	}

	contentType := http.DetectContentType(data)
	if _, ok := extensions[contentType]; !ok {
		return Image{}, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, contentType)
	}
	return Image{Data: data, ContentType: contentType}, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch returned %d", ErrInvalidImage, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return data, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data uri must be base64 encoded", ErrInvalidImage)
	}
	return decodeBase64(payload)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty source", ErrInvalidImage)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return bytes.Clone(data), nil
}

package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

const avatarPrefix = "avatars"

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSStore keeps images in a Cloud Storage bucket. Asset ids are object
// names of the form avatars/<uuid><ext>.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	fetcher *Fetcher
	log     zerolog.Logger
}

// NewGCSStore creates a GCSStore.
func NewGCSStore(client *storage.Client, bucket string, fetcher *Fetcher, log zerolog.Logger) *GCSStore {
	return &GCSStore{
		client:  client,
		bucket:  bucket,
		fetcher: fetcher,
		log:     log.With().Str("component", "assets").Str("bucket", bucket).Logger(),
	}
}

// Upload fetches or decodes source and writes it to the bucket.
func (s *GCSStore) Upload(ctx context.Context, source string) (string, error) {
	img, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return "", err
	}

	objectPath := path.Join(avatarPrefix, uuid.NewString()+img.Ext())
	wc := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = img.ContentType
	wc.ChunkSize = 0 // small files, single request
	if _, err := io.Copy(wc, bytes.NewReader(img.Data)); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}

	s.log.Debug().Str("object", objectPath).Int("size", len(img.Data)).Msg("asset uploaded")
	return objectPath, nil
}

// Release deletes the object. Missing objects are ignored.
func (s *GCSStore) Release(ctx context.Context, assetID string) error {
	err := s.client.Bucket(s.bucket).Object(assetID).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", assetID, err)
	}
	return nil
}

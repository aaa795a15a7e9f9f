package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore keeps artifacts as Cloudinary raw assets whose public id is the key.
type CloudinaryStore struct {
	cld        *cloudinary.Cloudinary
	cloudName  string
	httpClient *http.Client
}

func NewCloudinaryStore(cloudinaryURL string) (*CloudinaryStore, error) {
	if cloudinaryURL == "" {
		return nil, errors.New("cloudinary url is empty")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	return &CloudinaryStore{
		cld:        cld,
		cloudName:  cld.Config.Cloud.CloudName,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (s *CloudinaryStore) Put(ctx context.Context, key string, data []byte, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     key,
		ResourceType: "raw",
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("CloudinaryStore: failed to upload file: %w", err)
	}
	if result.PublicID == "" {
		return errors.New("CloudinaryStore: no public ID returned")
	}
	return nil
}

// deliveryURL is the unsigned raw delivery URL for a public id.
func (s *CloudinaryStore) deliveryURL(key string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/raw/upload/%s", s.cloudName, key)
}

func (s *CloudinaryStore) fetch(ctx context.Context, method, key string) (*http.Response, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, s.deliveryURL(key), nil)
	if err != nil {
		return nil, err
	}
	return s.httpClient.Do(req)
}

func (s *CloudinaryStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.fetch(ctx, http.MethodGet, key)
	if err != nil {
		return nil, fmt.Errorf("CloudinaryStore: failed to fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CloudinaryStore: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *CloudinaryStore) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := s.fetch(ctx, http.MethodHead, key)
	if err != nil {
		return false, fmt.Errorf("CloudinaryStore: failed to check file: %w", err)
	}
	resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("CloudinaryStore: unexpected status %d", resp.StatusCode)
	}
}

// Delete deletes a file from Cloudinary given its public ID.
func (s *CloudinaryStore) Delete(ctx context.Context, key string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: key, ResourceType: "raw"})
	if err != nil {
		return fmt.Errorf("CloudinaryStore: failed to delete file: %w", err)
	}
	return nil
}

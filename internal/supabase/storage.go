package supabase

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadPhoto stores a stamp photo under a collision-free path and returns
// the storage path plus its public URL. The path doubles as the photo id.
func (s *StorageClient) UploadPhoto(filename string, data []byte, contentType string) (string, string, error) {
	storagePath := fmt.Sprintf("fotos/%s_%s", uuid.New().String(), sanitizeFilename(filename))

	if contentType == "" {
		contentType = "image/jpeg"
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	return storagePath, s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) CreateSignedURL(storagePath string, ttlSeconds int) (string, error) {
	resp, err := s.client.CreateSignedUrl(s.bucket, storagePath, ttlSeconds)
	if err != nil {
		return "", fmt.Errorf("failed to create signed url: %w", err)
	}
	return resp.SignedURL, nil
}

func (s *StorageClient) DeleteFiles(storagePaths []string) error {
	if len(storagePaths) == 0 {
		return nil
	}
	_, err := s.client.RemoveFile(s.bucket, storagePaths)
	if err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}

func (s *StorageClient) DownloadFile(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	return data, nil
}

// sanitizeFilename keeps the original name readable in storage paths while
// stripping characters the storage API rejects.
func sanitizeFilename(filename string) string {
	base := path.Base(filename)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}

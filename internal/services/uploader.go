package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"stamp-match-backend/internal/models"
)

// ErrNoFilesUploaded means every file in the batch failed validation or
// upload. Individual failures never abort the batch; only a fully empty
// result is an error.
var ErrNoFilesUploaded = errors.New("no files uploaded")

// PhotoStore is the blob-store surface the pipeline needs for photos.
type PhotoStore interface {
	UploadPhoto(filename string, data []byte, contentType string) (string, string, error)
	DownloadFile(storagePath string) ([]byte, error)
	GetPublicURL(storagePath string) string
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
	".gif":  true,
	".bmp":  true,
}

type BatchUploader struct {
	store      PhotoStore
	maxBytes   int64
	sequential bool
	delay      time.Duration
	log        zerolog.Logger
}

// NewBatchUploader builds an uploader for the given device-class policy:
// constrained devices upload sequentially with an inter-file delay to
// bound peak memory, everything else dispatches concurrently.
func NewBatchUploader(store PhotoStore, maxBytes int64, sequential bool, delay time.Duration, logger zerolog.Logger) *BatchUploader {
	return &BatchUploader{
		store:      store,
		maxBytes:   maxBytes,
		sequential: sequential,
		delay:      delay,
		log:        logger,
	}
}

// UploadBatch validates and uploads each file independently. Failures are
// collected per file with the stage they failed at; successes come back as
// Photo records in batch order.
func (u *BatchUploader) UploadBatch(files []*multipart.FileHeader) ([]models.Photo, []models.UploadErrorInfo, error) {
	photos := make([]*models.Photo, len(files))
	uploadErrors := make([]*models.UploadErrorInfo, len(files))

	if u.sequential {
		for i, file := range files {
			if i > 0 && u.delay > 0 {
				time.Sleep(u.delay)
			}
			photos[i], uploadErrors[i] = u.uploadOne(file)
		}
	} else {
		var wg sync.WaitGroup
		for i, file := range files {
			wg.Add(1)
			go func(i int, file *multipart.FileHeader) {
				defer wg.Done()
				photos[i], uploadErrors[i] = u.uploadOne(file)
			}(i, file)
		}
		wg.Wait()
	}

	var uploaded []models.Photo
	var failed []models.UploadErrorInfo
	for i := range files {
		if photos[i] != nil {
			uploaded = append(uploaded, *photos[i])
		}
		if uploadErrors[i] != nil {
			failed = append(failed, *uploadErrors[i])
		}
	}

	if len(uploaded) == 0 {
		return nil, failed, ErrNoFilesUploaded
	}

	return uploaded, failed, nil
}

func (u *BatchUploader) uploadOne(file *multipart.FileHeader) (*models.Photo, *models.UploadErrorInfo) {
	if err := u.validate(file); err != nil {
		return nil, &models.UploadErrorInfo{
			Filename: file.Filename,
			Error:    err.Error(),
			Stage:    "validation",
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, &models.UploadErrorInfo{
			Filename: file.Filename,
			Error:    fmt.Sprintf("failed to open file: %v", err),
			Stage:    "file_open",
		}
	}

	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return nil, &models.UploadErrorInfo{
			Filename: file.Filename,
			Error:    fmt.Sprintf("failed to read file data: %v", err),
			Stage:    "file_read",
		}
	}

	storagePath, publicURL, err := u.store.UploadPhoto(file.Filename, data, file.Header.Get("Content-Type"))
	if err != nil {
		u.log.Warn().Str("filename", file.Filename).Err(err).Msg("photo upload failed")
		return nil, &models.UploadErrorInfo{
			Filename: file.Filename,
			Error:    fmt.Sprintf("failed to upload file: %v", err),
			Stage:    "upload",
		}
	}

	return &models.Photo{
		ID:             storagePath,
		SourceFilename: file.Filename,
		PublicURL:      publicURL,
		SizeBytes:      file.Size,
		Status:         models.StatusUploaded,
	}, nil
}

// validate accepts a file when any one signal recognizes it as an image:
// declared MIME type, extension, or a filename heuristic for camera
// exports with no extension.
func (u *BatchUploader) validate(file *multipart.FileHeader) error {
	if file.Size > u.maxBytes {
		return fmt.Errorf("file exceeds %dMB limit", u.maxBytes>>20)
	}
	if file.Size == 0 {
		return errors.New("file is empty")
	}

	contentType := file.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "image/") {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if imageExtensions[ext] {
		return nil
	}

	if looksLikePhotoName(file.Filename) {
		return nil
	}

	return fmt.Errorf("unrecognized file type %q for %s", contentType, file.Filename)
}

func looksLikePhotoName(filename string) bool {
	name := strings.ToLower(filename)
	for _, hint := range []string{"img", "foto", "photo", "dsc", "pxl"} {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

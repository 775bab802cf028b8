package services_test

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"stamp-match-backend/internal/models"
)

type namedFile struct {
	name string
	data []byte
}

// fileHeaders builds real multipart file headers the way gin hands them to
// the pipeline.
func fileHeaders(t *testing.T, files []namedFile) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, file := range files {
		part, err := writer.CreateFormFile("fotos", file.name)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	return req.MultipartForm.File["fotos"]
}

// fakePhotoStore is an in-memory stand-in for the photo bucket.
type fakePhotoStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	failNext map[string]bool
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{
		blobs:    make(map[string][]byte),
		failNext: make(map[string]bool),
	}
}

func (f *fakePhotoStore) UploadPhoto(filename string, data []byte, contentType string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext[filename] {
		return "", "", errors.New("storage rejected upload")
	}
	path := "fotos/" + filename
	f.blobs[path] = data
	return path, f.publicURL(path), nil
}

func (f *fakePhotoStore) DownloadFile(storagePath string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[storagePath]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", storagePath)
	}
	return data, nil
}

func (f *fakePhotoStore) GetPublicURL(storagePath string) string {
	return f.publicURL(storagePath)
}

func (f *fakePhotoStore) publicURL(storagePath string) string {
	return "https://cdn.test/" + storagePath
}

func (f *fakePhotoStore) DeleteFiles(storagePaths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, path := range storagePaths {
		if _, ok := f.blobs[path]; !ok {
			return fmt.Errorf("blob %s not found", path)
		}
		delete(f.blobs, path)
	}
	return nil
}

func (f *fakePhotoStore) CreateSignedURL(storagePath string, ttlSeconds int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blobs[storagePath]; !ok {
		return "", fmt.Errorf("blob %s not found", storagePath)
	}
	return fmt.Sprintf("https://cdn.test/%s?token=signed&ttl=%d", storagePath, ttlSeconds), nil
}

func (f *fakePhotoStore) has(storagePath string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[storagePath]
	return ok
}

// fakeDB is an in-memory stand-in for the orders and pending tables.
type fakeDB struct {
	mu       sync.Mutex
	orders   map[int64]*models.Order
	pending  map[string]models.PendingPhoto
	stampErr error
}

func newFakeDB(orders ...*models.Order) *fakeDB {
	db := &fakeDB{
		orders:  make(map[int64]*models.Order),
		pending: make(map[string]models.PendingPhoto),
	}
	for _, order := range orders {
		db.orders[order.ID] = order
	}
	return db
}

func (d *fakeDB) GetOrder(orderID int64) (*models.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	order, ok := d.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %d not found", orderID)
	}
	copied := *order
	return &copied, nil
}

func (d *fakeDB) ListMatchableOrders() ([]models.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var orders []models.Order
	for _, order := range d.orders {
		if order.HasDesigns() {
			orders = append(orders, *order)
		}
	}
	return orders, nil
}

func (d *fakeDB) SetStampPhoto(orderID int64, storagePath string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stampErr != nil {
		return d.stampErr
	}
	order, ok := d.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d not found", orderID)
	}
	order.StampPhotoPath.String = storagePath
	order.StampPhotoPath.Valid = true
	return nil
}

func (d *fakeDB) InsertPendingPhoto(photo *models.PendingPhoto) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[photo.PhotoID]; ok {
		return nil
	}
	d.pending[photo.PhotoID] = *photo
	return nil
}

func (d *fakeDB) GetPendingPhoto(photoID string) (*models.PendingPhoto, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	photo, ok := d.pending[photoID]
	if !ok {
		return nil, fmt.Errorf("pending photo %s not found", photoID)
	}
	return &photo, nil
}

func (d *fakeDB) ListPendingPhotos(filter string) ([]models.PendingPhoto, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var photos []models.PendingPhoto
	for _, photo := range d.pending {
		if filter != "" && !strings.Contains(strings.ToLower(photo.Filename), strings.ToLower(filter)) {
			continue
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

func (d *fakeDB) DeletePendingPhoto(photoID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, photoID)
	return nil
}

func (d *fakeDB) DeletePendingByStoragePath(storagePath string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, photo := range d.pending {
		if photo.StoragePath == storagePath {
			delete(d.pending, id)
		}
	}
	return nil
}

func (d *fakeDB) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *fakeDB) hasPending(photoID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[photoID]
	return ok
}

func (d *fakeDB) setStampErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stampErr = err
}

// fakeDesigns serves design blobs for corpus building.
type fakeDesigns struct {
	files map[string][]byte
}

func (f *fakeDesigns) DownloadFile(storagePath string) ([]byte, error) {
	data, ok := f.files[storagePath]
	if !ok {
		return nil, fmt.Errorf("design %s not found", storagePath)
	}
	return data, nil
}

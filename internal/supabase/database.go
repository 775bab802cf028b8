package supabase

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"stamp-match-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) GetOrder(orderID int64) (*models.Order, error) {
	var order models.Order
	err := d.db.QueryRow(`
		SELECT id, client_name, design_name, base_design_path, vector_design_path, stamp_photo_path, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&order.ID, &order.ClientName, &order.DesignName,
		&order.BaseDesignPath, &order.VectorDesignPath, &order.StampPhotoPath,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

// ListMatchableOrders returns orders that carry at least one design file
// and can therefore participate in a matching run.
func (d *DatabaseClient) ListMatchableOrders() ([]models.Order, error) {
	rows, err := d.db.Query(`
		SELECT id, client_name, design_name, base_design_path, vector_design_path, stamp_photo_path, created_at, updated_at
		FROM orders
		WHERE base_design_path IS NOT NULL OR vector_design_path IS NOT NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID, &order.ClientName, &order.DesignName,
			&order.BaseDesignPath, &order.VectorDesignPath, &order.StampPhotoPath,
			&order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// SetStampPhoto binds a confirmed photo to an order. The single-row UPDATE
// makes the write atomic and last-write-wins.
func (d *DatabaseClient) SetStampPhoto(orderID int64, storagePath string) error {
	res, err := d.db.Exec(`
		UPDATE orders
		SET stamp_photo_path = $1, updated_at = NOW()
		WHERE id = $2
	`, storagePath, orderID)
	if err != nil {
		return fmt.Errorf("failed to set stamp photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set stamp photo: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %d not found", orderID)
	}
	return nil
}

func (d *DatabaseClient) InsertPendingPhoto(photo *models.PendingPhoto) error {
	_, err := d.db.Exec(`
		INSERT INTO pending_photos (photo_id, filename, storage_path, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (photo_id) DO NOTHING
	`, photo.PhotoID, photo.Filename, photo.StoragePath, photo.UploadedBy, photo.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pending photo: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetPendingPhoto(photoID string) (*models.PendingPhoto, error) {
	var photo models.PendingPhoto
	err := d.db.QueryRow(`
		SELECT photo_id, filename, storage_path, uploaded_by, uploaded_at
		FROM pending_photos
		WHERE photo_id = $1
	`, photoID).Scan(
		&photo.PhotoID, &photo.Filename, &photo.StoragePath,
		&photo.UploadedBy, &photo.UploadedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending photo: %w", err)
	}

	return &photo, nil
}

// ListPendingPhotos returns the pending queue, optionally narrowed by a
// case-insensitive text match on the filename or the uploader.
func (d *DatabaseClient) ListPendingPhotos(filter string) ([]models.PendingPhoto, error) {
	query := `
		SELECT photo_id, filename, storage_path, uploaded_by, uploaded_at
		FROM pending_photos
	`
	args := []interface{}{}
	if filter != "" {
		query += ` WHERE filename ILIKE $1 OR uploaded_by ILIKE $1`
		args = append(args, "%"+filter+"%")
	}
	query += ` ORDER BY uploaded_at DESC`

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending photos: %w", err)
	}
	defer rows.Close()

	var photos []models.PendingPhoto
	for rows.Next() {
		var photo models.PendingPhoto
		err := rows.Scan(
			&photo.PhotoID, &photo.Filename, &photo.StoragePath,
			&photo.UploadedBy, &photo.UploadedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending photo: %w", err)
		}
		photos = append(photos, photo)
	}

	return photos, rows.Err()
}

func (d *DatabaseClient) DeletePendingPhoto(photoID string) error {
	_, err := d.db.Exec(`
		DELETE FROM pending_photos
		WHERE photo_id = $1
	`, photoID)
	if err != nil {
		return fmt.Errorf("failed to delete pending photo: %w", err)
	}
	return nil
}

// DeletePendingByStoragePath cascades a blob deletion to the queue entry
// so no pending row can point at a missing blob.
func (d *DatabaseClient) DeletePendingByStoragePath(storagePath string) error {
	_, err := d.db.Exec(`
		DELETE FROM pending_photos
		WHERE storage_path = $1
	`, storagePath)
	if err != nil {
		return fmt.Errorf("failed to delete pending photo by path: %w", err)
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

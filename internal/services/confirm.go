package services

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"stamp-match-backend/internal/models"
	"stamp-match-backend/internal/supabase"
)

// OrderBinder writes the confirmed-photo binding onto an order.
type OrderBinder interface {
	GetOrder(orderID int64) (*models.Order, error)
	SetStampPhoto(orderID int64, storagePath string) error
}

// PendingQueue is the durable store behind the pending photo queue.
type PendingQueue interface {
	InsertPendingPhoto(photo *models.PendingPhoto) error
	GetPendingPhoto(photoID string) (*models.PendingPhoto, error)
	ListPendingPhotos(filter string) ([]models.PendingPhoto, error)
	DeletePendingPhoto(photoID string) error
	DeletePendingByStoragePath(storagePath string) error
}

// PhotoBlobs is the storage surface the workflow needs for pending blobs.
type PhotoBlobs interface {
	DeleteFiles(storagePaths []string) error
	CreateSignedURL(storagePath string, ttlSeconds int) (string, error)
	GetPublicURL(storagePath string) string
}

// ConfirmationError means the order write failed. The photo keeps its
// matched status so the confirmation can be retried.
type ConfirmationError struct {
	PhotoID string
	Err     error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("failed to confirm photo %s: %v", e.PhotoID, e.Err)
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}

// ConfirmationService drives the per-photo accept/reject state machine and
// manages the pending queue. Confirmation attempts for one photo are
// serialized on a per-photo lock; the order write itself is a single-row
// update, so the binding is atomic and last-write-wins.
type ConfirmationService struct {
	orders   OrderBinder
	pending  PendingQueue
	photos   PhotoBlobs
	realtime *supabase.RealtimeClient
	log      zerolog.Logger

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	states map[string]models.PhotoStatus
}

func NewConfirmationService(
	orders OrderBinder,
	pending PendingQueue,
	photos PhotoBlobs,
	realtimeClient *supabase.RealtimeClient,
	logger zerolog.Logger,
) *ConfirmationService {
	return &ConfirmationService{
		orders:   orders,
		pending:  pending,
		photos:   photos,
		realtime: realtimeClient,
		log:      logger,
		locks:    make(map[string]*sync.Mutex),
		states:   make(map[string]models.PhotoStatus),
	}
}

// Confirm accepts a matched photo: the order gets the stamp photo binding,
// the photo leaves the pending set, and collaborators are signalled. If
// the order write fails nothing is observed and the photo stays matched.
func (s *ConfirmationService) Confirm(photoID string, orderID int64, storagePath string) error {
	unlock := s.lockPhoto(photoID)
	defer unlock()

	current := s.currentState(photoID, models.StatusMatched)
	next, err := current.Transition(models.StatusConfirmed)
	if err != nil {
		return err
	}

	if _, err := s.orders.GetOrder(orderID); err != nil {
		return &ConfirmationError{PhotoID: photoID, Err: err}
	}
	if err := s.orders.SetStampPhoto(orderID, storagePath); err != nil {
		return &ConfirmationError{PhotoID: photoID, Err: err}
	}

	s.setState(photoID, next)

	if err := s.pending.DeletePendingByStoragePath(storagePath); err != nil {
		// Binding succeeded; a stale queue entry is log-worthy, not fatal.
		s.log.Error().Str("photo", photoID).Err(err).Msg("failed to clear pending entry after confirmation")
	}

	s.realtime.PublishOrderEvent(orderID, "photo_confirmed",
		supabase.PhotoConfirmedPayload(orderID, storagePath))

	return nil
}

// Reject moves a matched photo to the pending queue. The order is never
// touched.
func (s *ConfirmationService) Reject(photo *models.PendingPhoto) error {
	unlock := s.lockPhoto(photo.PhotoID)
	defer unlock()

	current := s.currentState(photo.PhotoID, models.StatusMatched)
	next, err := current.Transition(models.StatusPending)
	if err != nil {
		return err
	}

	if err := s.pending.InsertPendingPhoto(photo); err != nil {
		return fmt.Errorf("failed to queue rejected photo: %w", err)
	}

	s.setState(photo.PhotoID, next)

	s.realtime.PublishEvent("matching", "photo_rejected",
		supabase.PhotoRejectedPayload(photo.PhotoID))

	return nil
}

// AssignPending binds a pending photo directly to a chosen order,
// bypassing the matched state. The effect is identical to a confirmation.
func (s *ConfirmationService) AssignPending(photoID string, orderID int64) error {
	entry, err := s.pending.GetPendingPhoto(photoID)
	if err != nil {
		return fmt.Errorf("pending photo not found: %w", err)
	}

	unlock := s.lockPhoto(photoID)
	defer unlock()

	current := s.currentState(photoID, models.StatusPending)
	if _, err := current.Transition(models.StatusConfirmed); err != nil {
		return err
	}

	if err := s.orders.SetStampPhoto(orderID, entry.StoragePath); err != nil {
		return &ConfirmationError{PhotoID: photoID, Err: err}
	}

	s.setState(photoID, models.StatusConfirmed)

	if err := s.pending.DeletePendingPhoto(photoID); err != nil {
		s.log.Error().Str("photo", photoID).Err(err).Msg("failed to clear pending entry after assignment")
	}

	s.realtime.PublishOrderEvent(orderID, "photo_confirmed",
		supabase.PhotoConfirmedPayload(orderID, entry.StoragePath))

	return nil
}

// DeletePending removes a pending photo for good: the blob first, then
// the queue entry, so no entry is ever left pointing at a missing blob.
func (s *ConfirmationService) DeletePending(photoID string) error {
	entry, err := s.pending.GetPendingPhoto(photoID)
	if err != nil {
		return fmt.Errorf("pending photo not found: %w", err)
	}

	unlock := s.lockPhoto(photoID)
	defer unlock()

	if err := s.photos.DeleteFiles([]string{entry.StoragePath}); err != nil {
		return fmt.Errorf("failed to delete photo blob: %w", err)
	}
	if err := s.pending.DeletePendingPhoto(photoID); err != nil {
		return err
	}

	s.dropState(photoID)
	return nil
}

// ListPending returns the queue, optionally filtered by text.
func (s *ConfirmationService) ListPending(filter string) ([]models.PendingInfo, error) {
	entries, err := s.pending.ListPendingPhotos(filter)
	if err != nil {
		return nil, err
	}

	infos := make([]models.PendingInfo, len(entries))
	for i, entry := range entries {
		infos[i] = models.PendingInfo{
			PhotoID:     entry.PhotoID,
			Filename:    entry.Filename,
			StoragePath: entry.StoragePath,
			PublicURL:   s.photos.GetPublicURL(entry.StoragePath),
			UploadedAt:  entry.UploadedAt,
		}
	}
	return infos, nil
}

// SignedPendingURL creates a short-lived preview link for a pending blob.
func (s *ConfirmationService) SignedPendingURL(photoID string, ttlSeconds int) (string, error) {
	entry, err := s.pending.GetPendingPhoto(photoID)
	if err != nil {
		return "", fmt.Errorf("pending photo not found: %w", err)
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return s.photos.CreateSignedURL(entry.StoragePath, ttlSeconds)
}

func (s *ConfirmationService) lockPhoto(photoID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[photoID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[photoID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// currentState returns the tracked status, or the caller's fallback for
// photos this process has not seen yet: confirm/reject only arrive for
// photos a match run reported, assignment only for queued photos.
func (s *ConfirmationService) currentState(photoID string, fallback models.PhotoStatus) models.PhotoStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[photoID]; ok {
		return state
	}
	return fallback
}

func (s *ConfirmationService) setState(photoID string, state models.PhotoStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[photoID] = state
}

func (s *ConfirmationService) dropState(photoID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, photoID)
}

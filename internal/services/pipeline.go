package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/rs/zerolog"
	"stamp-match-backend/internal/matching"
	"stamp-match-backend/internal/models"
	"stamp-match-backend/internal/supabase"
)

// OrderSource lists the orders whose design files form the corpus.
type OrderSource interface {
	ListMatchableOrders() ([]models.Order, error)
}

// PendingWriter persists photos that fall out of the automatic path.
type PendingWriter interface {
	InsertPendingPhoto(photo *models.PendingPhoto) error
	ListPendingPhotos(filter string) ([]models.PendingPhoto, error)
}

// MatchPipeline runs one user-triggered upload-and-match pass: batch
// upload, corpus build, one batched service call, correlation, and the
// pending fallback for everything that did not resolve. Matching
// availability is decided once at construction.
type MatchPipeline struct {
	uploader *BatchUploader
	corpus   *matching.CorpusBuilder
	client   *matching.Client
	orders   OrderSource
	pending  PendingWriter
	photos   PhotoStore
	realtime *supabase.RealtimeClient
	enabled  bool
	log      zerolog.Logger
}

func NewMatchPipeline(
	uploader *BatchUploader,
	corpusBuilder *matching.CorpusBuilder,
	client *matching.Client,
	orders OrderSource,
	pending PendingWriter,
	photos PhotoStore,
	realtimeClient *supabase.RealtimeClient,
	enabled bool,
	logger zerolog.Logger,
) *MatchPipeline {
	return &MatchPipeline{
		uploader: uploader,
		corpus:   corpusBuilder,
		client:   client,
		orders:   orders,
		pending:  pending,
		photos:   photos,
		realtime: realtimeClient,
		enabled:  enabled,
		log:      logger,
	}
}

// Run executes one full pass. Only a batch where nothing uploads is an
// error; every later failure degrades to the pending queue so no
// successfully uploaded photo is ever lost.
func (p *MatchPipeline) Run(ctx context.Context, files []*multipart.FileHeader, uploadedBy string) (*models.MatchRunResponse, error) {
	photos, uploadErrors, err := p.uploader.UploadBatch(files)
	if err != nil {
		return nil, err
	}

	resp := &models.MatchRunResponse{
		Uploaded: len(photos),
		Errors:   uploadErrors,
		Matches:  []models.MatchInfo{},
		Pending:  []models.PendingInfo{},
	}

	if !p.enabled {
		p.sendToPending(resp, photos, uploadedBy)
		resp.Degraded = "matching disabled"
		return resp, nil
	}

	// Probe before corpus I/O so an unavailable service fails fast.
	if err := p.client.Health(ctx); err != nil {
		p.log.Warn().Err(err).Msg("matching service unavailable, routing batch to pending queue")
		p.sendToPending(resp, photos, uploadedBy)
		resp.Degraded = err.Error()
		return resp, nil
	}

	corpus, err := p.buildCorpus()
	if err != nil {
		p.log.Warn().Err(err).Msg("failed to build design corpus")
		p.sendToPending(resp, photos, uploadedBy)
		resp.Degraded = err.Error()
		return resp, nil
	}
	if corpus.IsEmpty() {
		p.sendToPending(resp, photos, uploadedBy)
		return resp, nil
	}

	candidates, err := p.predict(ctx, corpus, photos)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.log.Warn().Err(err).Msg("matching call failed, routing batch to pending queue")
		p.sendToPending(resp, photos, uploadedBy)
		resp.Degraded = err.Error()
		return resp, nil
	}

	correlator := matching.NewCorrelator(p.log)
	matched, unmatched := correlator.Correlate(photos, candidates, corpus)

	byID := make(map[string]models.Photo, len(photos))
	for _, photo := range photos {
		byID[photo.ID] = photo
	}
	for _, result := range matched {
		photo := byID[result.PhotoID]
		resp.Matches = append(resp.Matches, models.MatchInfo{
			PhotoID:           result.PhotoID,
			Filename:          photo.SourceFilename,
			PublicURL:         photo.PublicURL,
			OrderID:           result.OrderID,
			Score:             result.Score,
			NeedsConfirmation: result.NeedsConfirmation,
		})
	}

	p.sendToPending(resp, unmatched, uploadedBy)

	p.realtime.PublishEvent("matching", "match_run_completed",
		supabase.MatchRunCompletedPayload(len(resp.Matches), len(resp.Pending)))

	return resp, nil
}

// RematchPending reruns the matching service over the current pending
// queue against the current corpus. Matches are returned for human
// confirmation; queue entries stay put until a photo is confirmed.
func (p *MatchPipeline) RematchPending(ctx context.Context) ([]models.MatchInfo, error) {
	if !p.enabled {
		return nil, matching.ErrServiceUnavailable
	}

	if err := p.client.Health(ctx); err != nil {
		return nil, err
	}

	entries, err := p.pending.ListPendingPhotos("")
	if err != nil {
		return nil, err
	}

	var photos []models.Photo
	for _, entry := range entries {
		photos = append(photos, models.Photo{
			ID:             entry.PhotoID,
			SourceFilename: entry.Filename,
			PublicURL:      p.photos.GetPublicURL(entry.StoragePath),
			Status:         models.StatusPending,
		})
	}
	if len(photos) == 0 {
		return []models.MatchInfo{}, nil
	}

	corpus, err := p.buildCorpus()
	if err != nil {
		return nil, err
	}

	candidates, err := p.predict(ctx, corpus, photos)
	if err != nil {
		return nil, err
	}

	correlator := matching.NewCorrelator(p.log)
	matched, _ := correlator.Correlate(photos, candidates, corpus)

	byID := make(map[string]models.Photo, len(photos))
	for _, photo := range photos {
		byID[photo.ID] = photo
	}
	matches := make([]models.MatchInfo, 0, len(matched))
	for _, result := range matched {
		photo := byID[result.PhotoID]
		matches = append(matches, models.MatchInfo{
			PhotoID:           result.PhotoID,
			Filename:          photo.SourceFilename,
			PublicURL:         photo.PublicURL,
			OrderID:           result.OrderID,
			Score:             result.Score,
			NeedsConfirmation: result.NeedsConfirmation,
		})
	}

	return matches, nil
}

// CheckHealth exposes the service probe for the health passthrough route.
func (p *MatchPipeline) CheckHealth(ctx context.Context) error {
	if !p.enabled {
		return matching.ErrServiceUnavailable
	}
	return p.client.Health(ctx)
}

func (p *MatchPipeline) buildCorpus() (*matching.Corpus, error) {
	orders, err := p.orders.ListMatchableOrders()
	if err != nil {
		return nil, err
	}
	return p.corpus.Build(orders), nil
}

// predict issues the single batched call. The call itself is detached
// from the caller's context: if the run is abandoned, the in-flight
// request completes and its result is discarded on arrival.
func (p *MatchPipeline) predict(ctx context.Context, corpus *matching.Corpus, photos []models.Photo) (map[string][]matching.Candidate, error) {
	photoFiles := make([]matching.PhotoFile, 0, len(photos))
	for _, photo := range photos {
		data, err := p.photos.DownloadFile(photo.ID)
		if err != nil {
			p.log.Warn().Str("photo", photo.ID).Err(err).Msg("could not read photo back for matching")
			continue
		}
		photoFiles = append(photoFiles, matching.PhotoFile{Name: photo.SourceFilename, Data: data})
	}

	type outcome struct {
		candidates map[string][]matching.Candidate
		err        error
	}
	done := make(chan outcome, 1)
	go func() {
		candidates, err := p.client.Predict(context.WithoutCancel(ctx), corpus.Assets, photoFiles)
		done <- outcome{candidates: candidates, err: err}
	}()

	select {
	case out := <-done:
		return out.candidates, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *MatchPipeline) sendToPending(resp *models.MatchRunResponse, photos []models.Photo, uploadedBy string) {
	now := time.Now().UTC()
	for _, photo := range photos {
		entry := &models.PendingPhoto{
			PhotoID:     photo.ID,
			Filename:    photo.SourceFilename,
			StoragePath: photo.ID,
			UploadedBy:  uploadedBy,
			UploadedAt:  now,
		}
		if err := p.pending.InsertPendingPhoto(entry); err != nil {
			p.log.Error().Str("photo", photo.ID).Err(err).Msg("failed to persist pending photo")
		}
		resp.Pending = append(resp.Pending, models.PendingInfo{
			PhotoID:     photo.ID,
			Filename:    photo.SourceFilename,
			StoragePath: photo.ID,
			PublicURL:   photo.PublicURL,
			UploadedAt:  now,
		})
	}
}

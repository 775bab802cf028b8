package models

import "time"

type HealthResponse struct {
	Status string `json:"status"`
}

type MatchRunResponse struct {
	Matches  []MatchInfo       `json:"matches"`
	Pending  []PendingInfo     `json:"pending"`
	Uploaded int               `json:"uploaded"`
	Errors   []UploadErrorInfo `json:"errors,omitempty"`
	// Degraded is set when the matching phase was skipped or failed and
	// every uploaded photo fell back to the pending queue.
	Degraded string `json:"degraded,omitempty"`
}

type MatchInfo struct {
	PhotoID           string  `json:"photo_id"`
	Filename          string  `json:"filename"`
	PublicURL         string  `json:"public_url"`
	OrderID           int64   `json:"order_id"`
	Score             float64 `json:"score"`
	NeedsConfirmation bool    `json:"needs_confirmation"`
}

type PendingInfo struct {
	PhotoID     string    `json:"photo_id"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path"`
	PublicURL   string    `json:"public_url,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type UploadErrorInfo struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
	Stage    string `json:"stage"`
}

type ConfirmResponse struct {
	PhotoID string `json:"photo_id"`
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

type PendingListResponse struct {
	Photos []PendingInfo `json:"photos"`
}

type MatchableOrderResponse struct {
	Orders []MatchableOrder `json:"orders"`
}

type MatchableOrder struct {
	ID             int64  `json:"order_id"`
	ClientName     string `json:"client_name"`
	DesignName     string `json:"design_name"`
	HasBaseDesign  bool   `json:"has_base_design"`
	HasVector      bool   `json:"has_vector"`
	StampPhotoPath string `json:"stamp_photo_path,omitempty"`
}

type SignedURLResponse struct {
	SignedURL string `json:"signed_url"`
	ExpiresIn int    `json:"expires_in"`
}

type MatchingHealthResponse struct {
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

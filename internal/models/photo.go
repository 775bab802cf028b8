package models

import "fmt"

// PhotoStatus is the lifecycle state of an uploaded stamp photo.
type PhotoStatus string

const (
	StatusUploaded  PhotoStatus = "uploaded"
	StatusMatched   PhotoStatus = "matched"
	StatusConfirmed PhotoStatus = "confirmed"
	StatusRejected  PhotoStatus = "rejected"
	StatusPending   PhotoStatus = "pending"
)

// transitions holds the allowed status moves. confirmed is terminal;
// rejected photos re-enter the flow through the pending queue.
var transitions = map[PhotoStatus][]PhotoStatus{
	StatusUploaded: {StatusMatched, StatusPending},
	StatusMatched:  {StatusConfirmed, StatusPending, StatusRejected},
	StatusRejected: {StatusPending},
	StatusPending:  {StatusMatched, StatusConfirmed},
}

func (s PhotoStatus) CanTransition(to PhotoStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition returns the new status or an error when the move is not allowed.
func (s PhotoStatus) Transition(to PhotoStatus) (PhotoStatus, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("invalid photo status transition %s -> %s", s, to)
	}
	return to, nil
}

// Photo is one uploaded stamp photo. ID is the storage path, which is
// unique per upload and doubles as the blob locator.
type Photo struct {
	ID             string      `json:"id"`
	SourceFilename string      `json:"filename"`
	PublicURL      string      `json:"public_url"`
	SizeBytes      int64       `json:"size_bytes"`
	Status         PhotoStatus `json:"status"`
	MatchedOrderID string      `json:"matched_order_id,omitempty"`
	Confidence     float64     `json:"confidence,omitempty"`
}

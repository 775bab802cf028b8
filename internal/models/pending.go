package models

import "time"

// PendingPhoto is a durable queue entry for a photo that could not be
// matched automatically, or that a human rejected. The storage path must
// always point at an existing blob; deleting the blob deletes the row.
type PendingPhoto struct {
	PhotoID     string
	Filename    string
	StoragePath string
	UploadedBy  string
	UploadedAt  time.Time
}

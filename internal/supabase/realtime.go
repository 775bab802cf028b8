package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Go client has no direct Realtime publish; the UI subscribes to
	// postgres_changes on orders and pending_photos, so row updates are the
	// actual notification channel. Kept as an explicit seam for callers.
	return nil
}

func (r *RealtimeClient) PublishOrderEvent(orderID int64, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("order:%d", orderID)
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func PhotoConfirmedPayload(orderID int64, storagePath string) map[string]interface{} {
	return map[string]interface{}{
		"order_id":         orderID,
		"status":           "confirmed",
		"stamp_photo_path": storagePath,
	}
}

func PhotoRejectedPayload(photoID string) map[string]interface{} {
	return map[string]interface{}{
		"photo_id": photoID,
		"status":   "pending",
	}
}

func MatchRunCompletedPayload(matched, pending int) map[string]interface{} {
	return map[string]interface{}{
		"status":  "match_run_completed",
		"matched": matched,
		"pending": pending,
	}
}

package models

type ConfirmRequest struct {
	PhotoID     string `json:"photo_id" binding:"required"`
	OrderID     int64  `json:"order_id" binding:"required"`
	StoragePath string `json:"storage_path" binding:"required"`
}

type RejectRequest struct {
	PhotoID     string `json:"photo_id" binding:"required"`
	Filename    string `json:"filename"`
	StoragePath string `json:"storage_path" binding:"required"`
}

type AssignRequest struct {
	OrderID int64 `json:"order_id" binding:"required"`
}

type SignedURLRequest struct {
	TTLSeconds int `json:"ttl_seconds"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

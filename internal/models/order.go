package models

import (
	"database/sql"
	"time"
)

// Order is the sales-side record a stamp photo gets bound to. Only the
// design paths and the stamp photo binding matter to this service; the
// rest of the order lives in the sales backend.
type Order struct {
	ID               int64
	ClientName       string
	DesignName       string
	BaseDesignPath   sql.NullString
	VectorDesignPath sql.NullString
	StampPhotoPath   sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasDesigns reports whether the order carries at least one design file
// and can therefore join a matching corpus.
func (o *Order) HasDesigns() bool {
	return o.BaseDesignPath.Valid || o.VectorDesignPath.Valid
}

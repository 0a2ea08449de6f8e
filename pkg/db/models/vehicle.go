package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle belongs to exactly one customer.
type Vehicle struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`
	PlateNumber string    `gorm:"column:plate_number;not null"`
	Make        *string   `gorm:"column:make"`
	Model       *string   `gorm:"column:model"`
	Year        *int      `gorm:"column:year"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

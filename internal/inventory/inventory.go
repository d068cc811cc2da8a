package inventory

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("inventory: not found")
	ErrBarcodeExists = errors.New("inventory: barcode already exists")
	ErrInvalidInput  = errors.New("inventory: invalid input")
)

// Product is a tracked inventory record. Every product has exactly one owner.
type Product struct {
	ID                  int64     `json:"id"`
	OwnerID             int64     `json:"ownerId"`
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	ExpirationDaysDelta int       `json:"expirationDaysDelta"`
	RunningLow          int       `json:"runningLow"`
	Barcode             string    `json:"barcode,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

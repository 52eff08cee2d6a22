package models

import "time"

// Client represents a rental customer. The ID is a user-chosen short code and
// is immutable after creation; every challan, return and bill references it.
type Client struct {
	ID           string    `json:"id" db:"id" binding:"required"`
	Name         string    `json:"name" db:"name" binding:"required"`
	Site         string    `json:"site" db:"site"`
	MobileNumber string    `json:"mobile_number" db:"mobile_number"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

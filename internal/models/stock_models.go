package models

import "time"

// StockItem is the depot-wide quantity record for one plate size.
// available_quantity = total_quantity - on_rent_quantity is maintained in the
// same transaction as every stock edit and challan/return mutation.
type StockItem struct {
	ID                int64     `json:"id" db:"id"`
	PlateSize         string    `json:"plate_size" db:"plate_size"`
	TotalQuantity     int       `json:"total_quantity" db:"total_quantity"`
	AvailableQuantity int       `json:"available_quantity" db:"available_quantity"`
	OnRentQuantity    int       `json:"on_rent_quantity" db:"on_rent_quantity"`
	DailyRate         float64   `json:"daily_rate" db:"daily_rate"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

package models

import "time"

// Challan is an issue document ("Udhar"): plates lent out to a client.
// Status is never stored; it is derived from the line items by a single
// function in the service layer.
type Challan struct {
	ID            int64         `json:"id" db:"id"`
	ChallanNumber string        `json:"challan_number" db:"challan_number"`
	ClientID      string        `json:"client_id" db:"client_id"`
	ClientName    *string       `json:"client_name,omitempty"`
	ChallanDate   time.Time     `json:"challan_date" db:"challan_date"`
	Status        string        `json:"status,omitempty"`
	Items         []ChallanItem `json:"items"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// ChallanItem is one plate-size line of an issue challan. ReturnedQuantity
// tracks how much of this line has been allocated back by return challans.
type ChallanItem struct {
	ID               int64     `json:"id" db:"id"`
	ChallanID        int64     `json:"challan_id" db:"challan_id"`
	PlateSize        string    `json:"plate_size" db:"plate_size"`
	BorrowedQuantity int       `json:"borrowed_quantity" db:"borrowed_quantity"`
	ReturnedQuantity int       `json:"returned_quantity" db:"returned_quantity"`
	Notes            *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ChallanFilters defines the available filters for querying challans.
type ChallanFilters struct {
	ClientID *string `form:"client_id"`
	DateFrom *string `form:"date_from"` // YYYY-MM-DD
	DateTo   *string `form:"date_to"`   // YYYY-MM-DD
	Status   *string `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

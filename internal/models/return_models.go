package models

import "time"

// ReturnChallan is a return document ("Jama"): plates given back by a client.
type ReturnChallan struct {
	ID                  int64            `json:"id" db:"id"`
	ReturnChallanNumber string           `json:"return_challan_number" db:"return_challan_number"`
	ClientID            string           `json:"client_id" db:"client_id"`
	ClientName          *string          `json:"client_name,omitempty"`
	ReturnDate          time.Time        `json:"return_date" db:"return_date"`
	Items               []ReturnLineItem `json:"items"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
}

// ReturnLineItem is one plate-size line of a return challan.
type ReturnLineItem struct {
	ID               int64     `json:"id" db:"id"`
	ReturnID         int64     `json:"return_id" db:"return_id"`
	PlateSize        string    `json:"plate_size" db:"plate_size"`
	ReturnedQuantity int       `json:"returned_quantity" db:"returned_quantity"`
	DamageNotes      *string   `json:"damage_notes,omitempty" db:"damage_notes"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ReturnFilters defines the available filters for querying return challans.
type ReturnFilters struct {
	ClientID *string `form:"client_id"`
	DateFrom *string `form:"date_from"` // YYYY-MM-DD
	DateTo   *string `form:"date_to"`   // YYYY-MM-DD
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

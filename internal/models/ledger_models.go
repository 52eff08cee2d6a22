package models

import "time"

// PlateBalance is the outstanding position for one client and one plate size.
// Outstanding is signed: over-returning drives it negative and that is a
// displayed state, not an error.
type PlateBalance struct {
	PlateSize     string `json:"plate_size"`
	TotalBorrowed int    `json:"total_borrowed"`
	TotalReturned int    `json:"total_returned"`
	Outstanding   int    `json:"outstanding"`
}

// ClientLedger is the aggregated rental position of one client. PlateBalances
// always carries one entry per configured plate size, including sizes with no
// activity, so tables and exports render uniform rows.
type ClientLedger struct {
	Client           Client         `json:"client"`
	PlateBalances    []PlateBalance `json:"plate_balances"`
	TotalOutstanding int            `json:"total_outstanding"`
	TransactionCount int            `json:"transaction_count"`
	LastActivity     *time.Time     `json:"last_activity,omitempty"`
	HasActivity      bool           `json:"has_activity"`
}

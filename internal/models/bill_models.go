package models

import "time"

// Bill payment statuses.
const (
	BillStatusPending = "pending"
	BillStatusPaid    = "paid"
	BillStatusOverdue = "overdue"
)

// Bill is a rental charge for a client over a billing period. It is created
// either from the billing calculator or manually with an arbitrary total.
type Bill struct {
	ID            int64     `json:"id" db:"id"`
	ClientID      string    `json:"client_id" db:"client_id"`
	ClientName    *string   `json:"client_name,omitempty"`
	PeriodStart   time.Time `json:"period_start" db:"period_start"`
	PeriodEnd     time.Time `json:"period_end" db:"period_end"`
	RentalCharge  float64   `json:"rental_charge" db:"rental_charge"`
	ServiceCharge float64   `json:"service_charge" db:"service_charge"`
	TotalAmount   float64   `json:"total_amount" db:"total_amount"`
	PaymentStatus string    `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ValidBillStatus reports whether s is a recognized payment status.
func ValidBillStatus(s string) bool {
	return s == BillStatusPending || s == BillStatusPaid || s == BillStatusOverdue
}

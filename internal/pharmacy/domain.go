package pharmacy

import "errors"

// DateLayout is the calendar-date format persisted for expiry dates.
const DateLayout = "2006-01-02"

// TimestampLayout is the date+time format persisted on sale rows.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	// ErrNotFound reports an update or delete against an id that is not
	// in the store. Callers must branch on it explicitly.
	ErrNotFound = errors.New("record not found")

	// ErrValidation wraps every field-level validation failure. No store
	// mutation happens once it is returned.
	ErrValidation = errors.New("validation failed")
)

type Medicine struct {
	ID         int64   `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	Category   string  `db:"category" json:"category"`
	BuyPrice   float64 `db:"buy_price" json:"buy_price"`
	SellPrice  float64 `db:"sell_price" json:"sell_price"`
	Stock      int64   `db:"stock" json:"stock"`
	ExpiryDate string  `db:"expiry_date" json:"expiry_date"`
}

type Customer struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Contact string `db:"contact" json:"contact"`
	Address string `db:"address" json:"address"`
}

// Sale is an append-only record of one completed transaction. Unit prices
// are frozen at sale time so profit reporting stays stable when a
// medicine's prices are edited, or the medicine deleted, afterwards.
type Sale struct {
	ID            int64   `db:"id" json:"id"`
	CustomerID    int64   `db:"customer_id" json:"customer_id"`
	MedicineID    int64   `db:"medicine_id" json:"medicine_id"`
	Quantity      int64   `db:"quantity" json:"quantity"`
	UnitSellPrice float64 `db:"unit_sell_price" json:"unit_sell_price"`
	UnitBuyPrice  float64 `db:"unit_buy_price" json:"unit_buy_price"`
	Total         float64 `db:"total" json:"total"`
	Date          string  `db:"date" json:"date"`
	Prescription  *string `db:"prescription" json:"prescription,omitempty"`
}

// SaleDetail is the denormalized read shape: customer and medicine names
// joined in place of their ids. Sales whose customer or medicine has been
// deleted do not appear (inner join).
type SaleDetail struct {
	Date         string  `db:"date" json:"date"`
	CustomerName string  `db:"customer_name" json:"customer_name"`
	MedicineName string  `db:"medicine_name" json:"medicine_name"`
	Quantity     int64   `db:"quantity" json:"quantity"`
	Total        float64 `db:"total" json:"total"`
	Prescription *string `db:"prescription" json:"prescription,omitempty"`
}

// Outcome names the result of a sale transaction. Business-rule failures
// are values the caller branches on, not errors.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeMedicineNotFound  Outcome = "medicine_not_found"
	OutcomeCustomerNotFound  Outcome = "customer_not_found"
	OutcomeInsufficientStock Outcome = "insufficient_stock"
)

// SaleResult carries the outcome of RecordSale. SaleID, Total and
// RemainingStock are meaningful only when Outcome is OutcomeSuccess.
type SaleResult struct {
	Outcome        Outcome `json:"outcome"`
	SaleID         int64   `json:"sale_id,omitempty"`
	Total          float64 `json:"total,omitempty"`
	RemainingStock int64   `json:"remaining_stock,omitempty"`
}

package pharmacy

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store owns all persisted state. Every other component goes through its
// operations; nothing caches or mutates rows independently.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Query layer

func (s *Store) ListMedicines(ctx context.Context) ([]Medicine, error) {
	medicines := []Medicine{}
	err := s.db.SelectContext(ctx, &medicines,
		`SELECT id, name, category, buy_price, sell_price, stock, expiry_date FROM medicines ORDER BY id`)
	return medicines, err
}

func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	customers := []Customer{}
	err := s.db.SelectContext(ctx, &customers,
		`SELECT id, name, contact, address FROM customers ORDER BY id`)
	return customers, err
}

// ListSales returns denormalized sale rows. The inner joins mean a sale
// whose customer or medicine was deleted afterwards is silently excluded.
func (s *Store) ListSales(ctx context.Context) ([]SaleDetail, error) {
	sales := []SaleDetail{}
	err := s.db.SelectContext(ctx, &sales,
		`SELECT s.date, c.name AS customer_name, m.name AS medicine_name,
		        s.quantity, s.total, s.prescription
		 FROM sales s
		 JOIN customers c ON s.customer_id = c.id
		 JOIN medicines m ON s.medicine_id = m.id
		 ORDER BY s.id`)
	return sales, err
}

// TotalSales sums every sale total, 0 when no sales exist.
func (s *Store) TotalSales(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(total), 0) FROM sales`)
	return total, err
}

// TotalProfit sums quantity * (sell - buy) over the prices frozen on each
// sale row, 0 when no sales exist. Editing or deleting a medicine after
// the fact does not change historical profit.
func (s *Store) TotalProfit(ctx context.Context) (float64, error) {
	var profit float64
	err := s.db.GetContext(ctx, &profit,
		`SELECT COALESCE(SUM(quantity * (unit_sell_price - unit_buy_price)), 0) FROM sales`)
	return profit, err
}

// CountExpiringWithin counts medicines whose expiry date falls between
// today and today+days, both inclusive. ISO date text compares
// lexicographically.
func (s *Store) CountExpiringWithin(ctx context.Context, days int) (int64, error) {
	today := time.Now().Format(DateLayout)
	until := time.Now().AddDate(0, 0, days).Format(DateLayout)
	var count int64
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM medicines WHERE expiry_date >= ? AND expiry_date <= ?`, today, until)
	return count, err
}

// SalesBetween returns denormalized sales whose timestamp lies in
// [start, end], compared as text. An empty result is a valid outcome.
func (s *Store) SalesBetween(ctx context.Context, start, end string) ([]SaleDetail, error) {
	sales := []SaleDetail{}
	err := s.db.SelectContext(ctx, &sales,
		`SELECT s.date, c.name AS customer_name, m.name AS medicine_name,
		        s.quantity, s.total, s.prescription
		 FROM sales s
		 JOIN customers c ON s.customer_id = c.id
		 JOIN medicines m ON s.medicine_id = m.id
		 WHERE s.date BETWEEN ? AND ?
		 ORDER BY s.date`, start, end)
	return sales, err
}

// Mutation layer

func (s *Store) InsertMedicine(ctx context.Context, med Medicine) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO medicines (name, category, buy_price, sell_price, stock, expiry_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		med.Name, med.Category, med.BuyPrice, med.SellPrice, med.Stock, med.ExpiryDate)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UpdateMedicine(ctx context.Context, med Medicine) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE medicines SET name = ?, category = ?, buy_price = ?, sell_price = ?, stock = ?, expiry_date = ?
		 WHERE id = ?`,
		med.Name, med.Category, med.BuyPrice, med.SellPrice, med.Stock, med.ExpiryDate, med.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteMedicine(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) InsertCustomer(ctx context.Context, cust Customer) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (name, contact, address) VALUES (?, ?, ?)`,
		cust.Name, cust.Contact, cust.Address)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UpdateCustomer(ctx context.Context, cust Customer) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE customers SET name = ?, contact = ?, address = ? WHERE id = ?`,
		cust.Name, cust.Contact, cust.Address, cust.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow reports ErrNotFound when a mutation matched no row, so a
// missing id never passes as a vacuous success.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Sale transaction

// RecordSale atomically checks stock, computes the total, decrements stock
// and appends the sale row. Business failures come back as the result's
// Outcome; an error means the store itself failed and nothing was written.
//
// The stock guard is re-checked in the UPDATE's WHERE clause, so two
// concurrent sales for the same medicine can never jointly drive stock
// below zero.
func (s *Store) RecordSale(ctx context.Context, customerID, medicineID, quantity int64, prescription *string) (SaleResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return SaleResult{}, err
	}
	defer tx.Rollback()

	var med struct {
		SellPrice float64 `db:"sell_price"`
		BuyPrice  float64 `db:"buy_price"`
		Stock     int64   `db:"stock"`
	}
	err = tx.GetContext(ctx, &med,
		`SELECT sell_price, buy_price, stock FROM medicines WHERE id = ?`, medicineID)
	if errors.Is(err, sql.ErrNoRows) {
		return SaleResult{Outcome: OutcomeMedicineNotFound}, nil
	}
	if err != nil {
		return SaleResult{}, err
	}

	var customerExists int64
	err = tx.GetContext(ctx, &customerExists,
		`SELECT COUNT(*) FROM customers WHERE id = ?`, customerID)
	if err != nil {
		return SaleResult{}, err
	}
	if customerExists == 0 {
		return SaleResult{Outcome: OutcomeCustomerNotFound}, nil
	}

	if med.Stock < quantity {
		return SaleResult{Outcome: OutcomeInsufficientStock}, nil
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE medicines SET stock = stock - ? WHERE id = ? AND stock >= ?`,
		quantity, medicineID, quantity)
	if err != nil {
		return SaleResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return SaleResult{}, err
	}
	if n == 0 {
		// Stock moved between the read and the guarded write.
		return SaleResult{Outcome: OutcomeInsufficientStock}, nil
	}

	total := med.SellPrice * float64(quantity)
	date := time.Now().Format(TimestampLayout)
	ins, err := tx.ExecContext(ctx,
		`INSERT INTO sales (customer_id, medicine_id, quantity, unit_sell_price, unit_buy_price, total, date, prescription)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		customerID, medicineID, quantity, med.SellPrice, med.BuyPrice, total, date, prescription)
	if err != nil {
		return SaleResult{}, err
	}
	saleID, err := ins.LastInsertId()
	if err != nil {
		return SaleResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return SaleResult{}, err
	}
	return SaleResult{
		Outcome:        OutcomeSuccess,
		SaleID:         saleID,
		Total:          total,
		RemainingStock: med.Stock - quantity,
	}, nil
}

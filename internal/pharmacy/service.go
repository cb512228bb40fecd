package pharmacy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// expiryWindowDays is the "expiring this week" horizon: today through the
// seventh day forward, inclusive.
const expiryWindowDays = 7

// MedicineInput carries the caller-supplied fields for add and update.
// Validation lives here, behind the mutation contract, so the store stays
// consistent regardless of caller discipline; add and update enforce the
// same rules.
type MedicineInput struct {
	Name       string  `json:"name" validate:"required"`
	Category   string  `json:"category" validate:"required"`
	BuyPrice   float64 `json:"buy_price" validate:"gt=0"`
	SellPrice  float64 `json:"sell_price" validate:"gt=0"`
	Stock      int64   `json:"stock" validate:"gte=0"`
	ExpiryDate string  `json:"expiry_date" validate:"required,datetime=2006-01-02"`
}

type CustomerInput struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact" validate:"required,number,min=10"`
	Address string `json:"address" validate:"required"`
}

type SaleInput struct {
	CustomerID   int64   `json:"customer_id" validate:"gt=0"`
	MedicineID   int64   `json:"medicine_id" validate:"gt=0"`
	Quantity     int64   `json:"quantity" validate:"gt=0"`
	Prescription *string `json:"prescription,omitempty"`
}

// Summary aggregates the dashboard numbers in one shape.
type Summary struct {
	TotalSales    float64 `json:"total_sales"`
	TotalProfit   float64 `json:"total_profit"`
	ExpiringCount int64   `json:"expiring_count"`
}

// Service fronts the store with field validation. All reads and writes go
// through it.
type Service struct {
	store    *Store
	validate *validator.Validate
}

func NewService(store *Store) *Service {
	return &Service{store: store, validate: validator.New()}
}

func (s *Service) checkInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
}

// Reads

func (s *Service) Medicines(ctx context.Context) ([]Medicine, error) {
	return s.store.ListMedicines(ctx)
}

func (s *Service) Customers(ctx context.Context) ([]Customer, error) {
	return s.store.ListCustomers(ctx)
}

func (s *Service) Sales(ctx context.Context) ([]SaleDetail, error) {
	return s.store.ListSales(ctx)
}

func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	total, err := s.store.TotalSales(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("total sales: %w", err)
	}
	profit, err := s.store.TotalProfit(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("total profit: %w", err)
	}
	expiring, err := s.store.CountExpiringWithin(ctx, expiryWindowDays)
	if err != nil {
		return Summary{}, fmt.Errorf("expiring count: %w", err)
	}
	return Summary{TotalSales: total, TotalProfit: profit, ExpiringCount: expiring}, nil
}

// Report returns the sales whose timestamp falls in [start, end]. Bounds
// must parse as a date or date+time; comparison itself is the store's
// lexicographic text compare. An empty result is not an error.
func (s *Service) Report(ctx context.Context, start, end string) ([]SaleDetail, error) {
	for _, bound := range []string{start, end} {
		if !validTimestamp(bound) {
			return nil, fmt.Errorf("%w: dates must be %q or %q", ErrValidation, DateLayout, TimestampLayout)
		}
	}
	return s.store.SalesBetween(ctx, start, end)
}

func validTimestamp(v string) bool {
	if _, err := time.Parse(DateLayout, v); err == nil {
		return true
	}
	_, err := time.Parse(TimestampLayout, v)
	return err == nil
}

// Mutations

func (s *Service) AddMedicine(ctx context.Context, in MedicineInput) (Medicine, error) {
	if err := s.checkInput(in); err != nil {
		return Medicine{}, err
	}
	med := Medicine{
		Name:       in.Name,
		Category:   in.Category,
		BuyPrice:   in.BuyPrice,
		SellPrice:  in.SellPrice,
		Stock:      in.Stock,
		ExpiryDate: in.ExpiryDate,
	}
	id, err := s.store.InsertMedicine(ctx, med)
	if err != nil {
		return Medicine{}, fmt.Errorf("add medicine: %w", err)
	}
	med.ID = id
	return med, nil
}

func (s *Service) UpdateMedicine(ctx context.Context, id int64, in MedicineInput) error {
	if err := s.checkInput(in); err != nil {
		return err
	}
	return s.store.UpdateMedicine(ctx, Medicine{
		ID:         id,
		Name:       in.Name,
		Category:   in.Category,
		BuyPrice:   in.BuyPrice,
		SellPrice:  in.SellPrice,
		Stock:      in.Stock,
		ExpiryDate: in.ExpiryDate,
	})
}

func (s *Service) DeleteMedicine(ctx context.Context, id int64) error {
	return s.store.DeleteMedicine(ctx, id)
}

func (s *Service) AddCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	if err := s.checkInput(in); err != nil {
		return Customer{}, err
	}
	cust := Customer{Name: in.Name, Contact: in.Contact, Address: in.Address}
	id, err := s.store.InsertCustomer(ctx, cust)
	if err != nil {
		return Customer{}, fmt.Errorf("add customer: %w", err)
	}
	cust.ID = id
	return cust, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, in CustomerInput) error {
	if err := s.checkInput(in); err != nil {
		return err
	}
	return s.store.UpdateCustomer(ctx, Customer{
		ID:      id,
		Name:    in.Name,
		Contact: in.Contact,
		Address: in.Address,
	})
}

func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	return s.store.DeleteCustomer(ctx, id)
}

// RecordSale validates the input and runs the atomic sale transaction.
// Business-rule failures (unknown medicine or customer, insufficient
// stock) come back in the result, not as errors.
func (s *Service) RecordSale(ctx context.Context, in SaleInput) (SaleResult, error) {
	if err := s.checkInput(in); err != nil {
		return SaleResult{}, err
	}
	if in.Prescription != nil && strings.TrimSpace(*in.Prescription) == "" {
		in.Prescription = nil
	}
	return s.store.RecordSale(ctx, in.CustomerID, in.MedicineID, in.Quantity, in.Prescription)
}

package pharmacy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pharmatrack/m/internal/database"
	"pharmatrack/m/internal/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return NewStore(db)
}

func seedMedicine(t *testing.T, s *Store, name string, buy, sell float64, stock int64) int64 {
	t.Helper()
	expiry := time.Now().AddDate(1, 0, 0).Format(DateLayout)
	id, err := s.InsertMedicine(context.Background(), Medicine{
		Name: name, Category: "general", BuyPrice: buy, SellPrice: sell,
		Stock: stock, ExpiryDate: expiry,
	})
	require.NoError(t, err)
	return id
}

func seedCustomer(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.InsertCustomer(context.Background(), Customer{
		Name: name, Contact: "0123456789", Address: "12 Main St",
	})
	require.NoError(t, err)
	return id
}

func getStock(t *testing.T, s *Store, id int64) int64 {
	t.Helper()
	var stock int64
	require.NoError(t, s.db.Get(&stock, `SELECT stock FROM medicines WHERE id = ?`, id))
	return stock
}

func TestRecordSaleDecrementsStockAndFreezesTotal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	medID := seedMedicine(t, store, "Paracetamol", 3.00, 5.00, 10)
	custID := seedCustomer(t, store, "Alice")

	res, err := store.RecordSale(ctx, custID, medID, 4, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.InDelta(t, 20.00, res.Total, 0.0001)
	require.EqualValues(t, 6, res.RemainingStock)
	require.EqualValues(t, 6, getStock(t, store, medID))

	profit, err := store.TotalProfit(ctx)
	require.NoError(t, err)
	require.InDelta(t, 8.00, profit, 0.0001)

	total, err := store.TotalSales(ctx)
	require.NoError(t, err)
	require.InDelta(t, 20.00, total, 0.0001)
}

func TestRecordSaleInsufficientStockLeavesStateUntouched(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	medID := seedMedicine(t, store, "Ibuprofen", 2.00, 4.00, 6)
	custID := seedCustomer(t, store, "Bob")

	res, err := store.RecordSale(ctx, custID, medID, 20, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeInsufficientStock, res.Outcome)
	require.EqualValues(t, 6, getStock(t, store, medID))

	sales, err := store.ListSales(ctx)
	require.NoError(t, err)
	require.Empty(t, sales)
}

func TestRecordSaleUnknownMedicine(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	custID := seedCustomer(t, store, "Carol")

	res, err := store.RecordSale(ctx, custID, 9999, 1, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeMedicineNotFound, res.Outcome)

	total, err := store.TotalSales(ctx)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestRecordSaleUnknownCustomer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	medID := seedMedicine(t, store, "Aspirin", 1.00, 2.00, 5)

	res, err := store.RecordSale(ctx, 9999, medID, 1, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeCustomerNotFound, res.Outcome)
	require.EqualValues(t, 5, getStock(t, store, medID))
}

func TestAggregatesZeroOnEmptyStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	total, err := store.TotalSales(ctx)
	require.NoError(t, err)
	require.Zero(t, total)

	profit, err := store.TotalProfit(ctx)
	require.NoError(t, err)
	require.Zero(t, profit)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	medID := seedMedicine(t, store, "Amoxicillin", 5.00, 9.00, 10)
	custID := seedCustomer(t, store, "Dave")

	const workers = 8
	const perSale = 3 // 8*3 = 24 demanded, only 10 in stock

	var wg sync.WaitGroup
	results := make([]SaleResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.RecordSale(ctx, custID, medID, perSale, nil)
		}(i)
	}
	wg.Wait()

	var sold int64
	for i, res := range results {
		require.NoError(t, errs[i])
		switch res.Outcome {
		case OutcomeSuccess:
			sold += perSale
		case OutcomeInsufficientStock:
		default:
			t.Fatalf("unexpected outcome %q", res.Outcome)
		}
	}
	stock := getStock(t, store, medID)
	require.GreaterOrEqual(t, stock, int64(0))
	require.EqualValues(t, 10-sold, stock)
	require.LessOrEqual(t, sold, int64(10))
}

func TestProfitFrozenUnderPriceEditsAndDeletes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	medID := seedMedicine(t, store, "Cetirizine", 3.00, 5.00, 10)
	custID := seedCustomer(t, store, "Erin")

	res, err := store.RecordSale(ctx, custID, medID, 4, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)

	// Repricing after the sale must not move historical profit.
	err = store.UpdateMedicine(ctx, Medicine{
		ID: medID, Name: "Cetirizine", Category: "general",
		BuyPrice: 1.00, SellPrice: 50.00, Stock: 6,
		ExpiryDate: time.Now().AddDate(1, 0, 0).Format(DateLayout),
	})
	require.NoError(t, err)

	profit, err := store.TotalProfit(ctx)
	require.NoError(t, err)
	require.InDelta(t, 8.00, profit, 0.0001)

	// Deleting the medicine drops the sale from the denormalized listing
	// (inner join) but keeps its frozen profit contribution.
	require.NoError(t, store.DeleteMedicine(ctx, medID))

	sales, err := store.ListSales(ctx)
	require.NoError(t, err)
	require.Empty(t, sales)

	profit, err = store.TotalProfit(ctx)
	require.NoError(t, err)
	require.InDelta(t, 8.00, profit, 0.0001)
}

func TestListSalesJoinsNamesAndPrescription(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	medID := seedMedicine(t, store, "Metformin", 4.00, 7.00, 10)
	custID := seedCustomer(t, store, "Frank")

	ref := "static/rx-frank.png"
	res, err := store.RecordSale(ctx, custID, medID, 2, &ref)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)

	sales, err := store.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	require.Equal(t, "Frank", sales[0].CustomerName)
	require.Equal(t, "Metformin", sales[0].MedicineName)
	require.EqualValues(t, 2, sales[0].Quantity)
	require.InDelta(t, 14.00, sales[0].Total, 0.0001)
	require.NotNil(t, sales[0].Prescription)
	require.Equal(t, ref, *sales[0].Prescription)
}

func TestSalesBetweenInclusiveBounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	medID := seedMedicine(t, store, "Omeprazole", 2.00, 3.00, 100)
	custID := seedCustomer(t, store, "Grace")

	insert := func(date string) {
		_, err := store.db.Exec(
			`INSERT INTO sales (customer_id, medicine_id, quantity, unit_sell_price, unit_buy_price, total, date)
			 VALUES (?, ?, 1, 3.0, 2.0, 3.0, ?)`, custID, medID, date)
		require.NoError(t, err)
	}
	insert("2026-01-01 09:00:00")
	insert("2026-01-15 12:00:00")
	insert("2026-01-31 23:59:59")
	insert("2026-02-01 00:00:00")

	rows, err := store.SalesBetween(ctx, "2026-01-01 09:00:00", "2026-01-31 23:59:59")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	rows, err = store.SalesBetween(ctx, "2025-01-01", "2025-12-31")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestCountExpiringWithinWeek(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	add := func(name string, daysOut int) {
		_, err := store.InsertMedicine(ctx, Medicine{
			Name: name, Category: "general", BuyPrice: 1, SellPrice: 2, Stock: 1,
			ExpiryDate: time.Now().AddDate(0, 0, daysOut).Format(DateLayout),
		})
		require.NoError(t, err)
	}
	add("today", 0)
	add("seventh", 7)
	add("eighth", 8)
	add("expired", -1)

	count, err := store.CountExpiringWithin(ctx, 7)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestUpdateDeleteMissingIDReturnNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.UpdateMedicine(ctx, Medicine{
		ID: 42, Name: "Ghost", Category: "general",
		BuyPrice: 1, SellPrice: 2, Stock: 1, ExpiryDate: "2030-01-01",
	})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.DeleteMedicine(ctx, 42), ErrNotFound)

	err = store.UpdateCustomer(ctx, Customer{ID: 42, Name: "Ghost", Contact: "0123456789", Address: "Nowhere"})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.DeleteCustomer(ctx, 42), ErrNotFound)
}

func TestDuplicateNamesPermitted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := seedMedicine(t, store, "Paracetamol", 3, 5, 10)
	b := seedMedicine(t, store, "Paracetamol", 3, 5, 10)
	require.NotEqual(t, a, b)

	medicines, err := store.ListMedicines(ctx)
	require.NoError(t, err)
	require.Len(t, medicines, 2)
}

package migrations

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Run creates the pharmacy schema and applies the ad-hoc column additions
// legacy databases need. Safe to call on every start.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS medicines (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            category TEXT NOT NULL,
            buy_price REAL NOT NULL,
            sell_price REAL NOT NULL,
            stock INTEGER NOT NULL,
            expiry_date TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS customers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            contact TEXT NOT NULL,
            address TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS sales (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            customer_id INTEGER NOT NULL,
            medicine_id INTEGER NOT NULL,
            quantity INTEGER NOT NULL,
            unit_sell_price REAL NOT NULL DEFAULT 0,
            unit_buy_price REAL NOT NULL DEFAULT 0,
            total REAL NOT NULL,
            date TEXT NOT NULL,
            prescription TEXT,
            FOREIGN KEY(customer_id) REFERENCES customers(id),
            FOREIGN KEY(medicine_id) REFERENCES medicines(id)
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	// Legacy sales tables predate these columns.
	columns := []string{
		`ALTER TABLE sales ADD COLUMN prescription TEXT`,
		`ALTER TABLE sales ADD COLUMN unit_sell_price REAL NOT NULL DEFAULT 0`,
		`ALTER TABLE sales ADD COLUMN unit_buy_price REAL NOT NULL DEFAULT 0`,
	}
	for _, stmt := range columns {
		if err := addColumn(db, stmt); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}
	return nil
}

// addColumn runs an ALTER TABLE ... ADD COLUMN, treating "already exists"
// as success so the migration stays idempotent.
func addColumn(db *sqlx.DB, stmt string) error {
	_, err := db.Exec(stmt)
	if err != nil && strings.Contains(err.Error(), "duplicate column name") {
		return nil
	}
	return err
}

package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		code VARCHAR(100),
		category VARCHAR(100),
		base_price DECIMAL(12,2),
		description TEXT,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_by VARCHAR(100),
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6)
	)`,
	`CREATE TABLE IF NOT EXISTS product_variants (
		id CHAR(36) NOT NULL PRIMARY KEY,
		product_id CHAR(36) NOT NULL,
		color_name VARCHAR(100) NOT NULL,
		color_code VARCHAR(20),
		stock_quantity INT NOT NULL DEFAULT 0,
		reserved_quantity INT NOT NULL DEFAULT 0,
		reorder_level INT NOT NULL DEFAULT 0,
		unit_price DECIMAL(12,2) NOT NULL DEFAULT 0,
		notes TEXT,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_variant_color (product_id, color_name),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		id CHAR(36) NOT NULL PRIMARY KEY,
		product_variant_id CHAR(36) NOT NULL,
		movement_type VARCHAR(20) NOT NULL,
		quantity INT NOT NULL,
		reference_type VARCHAR(50),
		reference_id CHAR(36),
		reason VARCHAR(255) NOT NULL DEFAULT '',
		performed_by VARCHAR(100),
		performed_at DATETIME(6) NOT NULL,
		INDEX idx_movement_variant (product_variant_id, performed_at, id),
		INDEX idx_movement_reference (reference_type, reference_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		customer_name VARCHAR(255) NOT NULL,
		phone_number VARCHAR(50) NOT NULL,
		shipping_method VARCHAR(100),
		shipping_address VARCHAR(500),
		delivery_notes TEXT,
		order_date DATETIME(6) NOT NULL,
		preparation_status VARCHAR(20) NOT NULL DEFAULT 'Pending',
		is_confirmed TINYINT(1) NOT NULL DEFAULT 0,
		is_accepted TINYINT(1) NOT NULL DEFAULT 0,
		total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
		discount_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
		final_amount DECIMAL(12,2),
		shipping_cost DECIMAL(12,2),
		packet_number VARCHAR(100),
		package_sent_date DATETIME(6),
		package_received_date DATETIME(6),
		last_pickup_date DATETIME(6),
		created_by VARCHAR(100),
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		version INT NOT NULL DEFAULT 0,
		INDEX idx_order_date (order_date)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id CHAR(36) NOT NULL PRIMARY KEY,
		order_id CHAR(36) NOT NULL,
		product_variant_id CHAR(36) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(12,2) NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
		INDEX idx_item_variant (product_variant_id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		code VARCHAR(100),
		category VARCHAR(100),
		base_price NUMERIC(12,2),
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_by VARCHAR(100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS product_variants (
		id UUID PRIMARY KEY,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		color_name VARCHAR(100) NOT NULL,
		color_code VARCHAR(20),
		stock_quantity INTEGER NOT NULL DEFAULT 0,
		reserved_quantity INTEGER NOT NULL DEFAULT 0,
		reorder_level INTEGER NOT NULL DEFAULT 0,
		unit_price NUMERIC(12,2) NOT NULL DEFAULT 0,
		notes TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (product_id, color_name)
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		id UUID PRIMARY KEY,
		product_variant_id UUID NOT NULL,
		movement_type VARCHAR(20) NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 0),
		reference_type VARCHAR(50),
		reference_id UUID,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		performed_by VARCHAR(100),
		performed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_movement_variant ON stock_movements (product_variant_id, performed_at, id)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		customer_name VARCHAR(255) NOT NULL,
		phone_number VARCHAR(50) NOT NULL,
		shipping_method VARCHAR(100),
		shipping_address VARCHAR(500),
		delivery_notes TEXT,
		order_date TIMESTAMPTZ NOT NULL,
		preparation_status VARCHAR(20) NOT NULL DEFAULT 'Pending',
		is_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		is_accepted BOOLEAN NOT NULL DEFAULT FALSE,
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		discount_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		final_amount NUMERIC(12,2),
		shipping_cost NUMERIC(12,2),
		packet_number VARCHAR(100),
		package_sent_date TIMESTAMPTZ,
		package_received_date TIMESTAMPTZ,
		last_pickup_date TIMESTAMPTZ,
		created_by VARCHAR(100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_variant_id UUID NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price NUMERIC(12,2) NOT NULL
	)`,
}

// Migrate creates the ledger tables when they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements := mysqlSchema
	if db.DriverName() == "pgx" {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// Tables lists ledger tables children first, for cleanup.
func Tables() []string {
	return []string{"order_items", "orders", "stock_movements", "product_variants", "products"}
}

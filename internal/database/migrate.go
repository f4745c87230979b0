package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id CHAR(36) NOT NULL PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NULL,
		role ENUM('admin','user') NOT NULL DEFAULT 'user',
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_profiles_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS products (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		category VARCHAR(100) NOT NULL,
		description TEXT NULL,
		price DECIMAL(12,2) NOT NULL,
		stock_quantity INT NOT NULL DEFAULT 0,
		image_url VARCHAR(1024) NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK (stock_quantity >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		product_id CHAR(36) NOT NULL,
		user_id CHAR(36) NOT NULL,
		quantity INT NOT NULL,
		total_price DECIMAL(12,2) NOT NULL,
		status ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_orders_user (user_id, created_at),
		CONSTRAINT fk_orders_product FOREIGN KEY (product_id) REFERENCES products(id),
		CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES profiles(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS login_history (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		login_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_login_history_at (login_at),
		CONSTRAINT fk_login_history_user FOREIGN KEY (user_id) REFERENCES profiles(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the storefront needs.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tables (
    tenant_id TEXT NOT NULL,
    name      TEXT NOT NULL,
    x         REAL NOT NULL DEFAULT 0,
    y         REAL NOT NULL DEFAULT 0,
    width     REAL NOT NULL DEFAULT 0,
    height    REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (tenant_id, name)
);

CREATE TABLE IF NOT EXISTS menu_items (
    tenant_id   TEXT NOT NULL,
    name        TEXT NOT NULL,
    price       NUMERIC(10,2) NOT NULL DEFAULT 0,
    quantity    INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    description TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (tenant_id, name)
);

CREATE TABLE IF NOT EXISTS order_entries (
    tenant_id      TEXT NOT NULL,
    table_name     TEXT NOT NULL,
    menu_item_name TEXT NOT NULL,
    quantity       INTEGER NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (tenant_id, table_name, menu_item_name),
    FOREIGN KEY (tenant_id, table_name) REFERENCES tables(tenant_id, name) ON DELETE CASCADE,
    FOREIGN KEY (tenant_id, menu_item_name) REFERENCES menu_items(tenant_id, name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_order_entries_table ON order_entries(tenant_id, table_name);
`

func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

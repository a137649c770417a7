package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kitchen-relay/internal/microservices/backend/models"
)

type OrderRepositoryInterface interface {
	// InsertOrderEntries merges entries into the stored quantities in one
	// transaction and returns the entries of the last table touched.
	InsertOrderEntries(ctx context.Context, tenant string, entries []models.OrderEntry) ([]models.OrderEntry, error)
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepositoryInterface {
	return &OrderRepository{db: db}
}

func (or *OrderRepository) InsertOrderEntries(ctx context.Context, tenant string, entries []models.OrderEntry) (out []models.OrderEntry, err error) {
	tx, err := or.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lastTable string
	for _, e := range entries {
		what := fmt.Sprintf("table '%s' for user '%s'", e.TableName, tenant)
		if err = exists(ctx, tx, what, `SELECT EXISTS (SELECT 1 FROM tables WHERE tenant_id = $1 AND name = $2)`, tenant, e.TableName); err != nil {
			return nil, err
		}
		what = fmt.Sprintf("menu item '%s' for user '%s'", e.MenuItemName, tenant)
		if err = exists(ctx, tx, what, `SELECT EXISTS (SELECT 1 FROM menu_items WHERE tenant_id = $1 AND name = $2)`, tenant, e.MenuItemName); err != nil {
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_entries (tenant_id, table_name, menu_item_name, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tenant_id, table_name, menu_item_name)
			DO UPDATE SET quantity = order_entries.quantity + EXCLUDED.quantity
		`, tenant, e.TableName, e.MenuItemName, e.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order entry %s: %w", e.MenuItemName, err)
		}
		lastTable = e.TableName
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT table_name, menu_item_name, tenant_id, quantity
		FROM order_entries
		WHERE tenant_id = $1 AND table_name = $2
		ORDER BY menu_item_name
	`, tenant, lastTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read order entries: %w", err)
	}
	out = make([]models.OrderEntry, 0)
	for rows.Next() {
		var e models.OrderEntry
		if err = rows.Scan(&e.TableName, &e.MenuItemName, &e.TenantID, &e.Quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan order entry: %w", err)
		}
		out = append(out, e)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order entries: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return out, nil
}

func exists(ctx context.Context, tx *sql.Tx, what, query string, args ...any) error {
	var ok bool
	err := tx.QueryRowContext(ctx, query, args...).Scan(&ok)
	return existenceError(what, ok, err)
}

// existenceError reports "not found" only when the lookup succeeded and found nothing.
func existenceError(what string, ok bool, err error) error {
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", what, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kitchen-relay/internal/microservices/backend/models"
)

type MenuRepositoryInterface interface {
	ListMenu(ctx context.Context, tenant string) ([]models.MenuItem, error)
	// UpsertMenuItem replaces an existing item; created reports a fresh insert.
	UpsertMenuItem(ctx context.Context, item models.MenuItem) (created bool, err error)
	UpdateMenuItem(ctx context.Context, tenant, name string, p models.MenuItemPatch) (models.MenuItem, error)
}

type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) MenuRepositoryInterface {
	return &MenuRepository{db: db}
}

func (mr *MenuRepository) ListMenu(ctx context.Context, tenant string) ([]models.MenuItem, error) {
	rows, err := mr.db.QueryContext(ctx, `
		SELECT name, tenant_id, price, quantity, description
		FROM menu_items
		WHERE tenant_id = $1
		ORDER BY name
	`, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu: %w", err)
	}
	defer rows.Close()

	items := make([]models.MenuItem, 0)
	for rows.Next() {
		var it models.MenuItem
		if err := rows.Scan(&it.Name, &it.TenantID, &it.Price, &it.Quantity, &it.Description); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (mr *MenuRepository) UpsertMenuItem(ctx context.Context, item models.MenuItem) (bool, error) {
	// xmax = 0 only for a row this statement inserted
	var created bool
	err := mr.db.QueryRowContext(ctx, `
		INSERT INTO menu_items (tenant_id, name, price, quantity, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, name) DO UPDATE SET
		    price = EXCLUDED.price,
		    quantity = EXCLUDED.quantity,
		    description = EXCLUDED.description
		RETURNING (xmax = 0)
	`, item.TenantID, item.Name, item.Price.String(), item.Quantity, item.Description).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert menu item: %w", err)
	}
	return created, nil
}

func (mr *MenuRepository) UpdateMenuItem(ctx context.Context, tenant, name string, p models.MenuItemPatch) (models.MenuItem, error) {
	var price any
	if p.Price != nil {
		price = p.Price.String()
	}
	var it models.MenuItem
	err := mr.db.QueryRowContext(ctx, `
		UPDATE menu_items SET
		    price       = COALESCE($3::numeric, price),
		    quantity    = COALESCE($4, quantity),
		    description = COALESCE($5, description)
		WHERE tenant_id = $1 AND name = $2
		RETURNING name, tenant_id, price, quantity, description
	`, tenant, name, price, p.Quantity, p.Description).Scan(&it.Name, &it.TenantID, &it.Price, &it.Quantity, &it.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MenuItem{}, fmt.Errorf("menu item %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.MenuItem{}, fmt.Errorf("failed to update menu item: %w", err)
	}
	return it, nil
}

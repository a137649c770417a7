package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/backend/models"
	"kitchen-relay/internal/microservices/backend/repository"
)

var ErrInvalid = errors.New("invalid request")

type BackendServiceInterface interface {
	ListTables(ctx context.Context, tenant string) ([]models.Table, error)
	CreateTable(ctx context.Context, tenant string, t models.Table) (models.Table, error)
	UpdateTable(ctx context.Context, tenant, name string, p models.TablePatch) (models.Table, error)
	DeleteTable(ctx context.Context, tenant, name string) error

	ListMenu(ctx context.Context, tenant string) ([]models.MenuItem, error)
	UpsertMenuItem(ctx context.Context, tenant string, item models.MenuItem) (models.MenuItem, bool, error)
	UpdateMenuItem(ctx context.Context, tenant, name string, p models.MenuItemPatch) (models.MenuItem, error)

	InsertOrderEntries(ctx context.Context, tenant string, entries []models.OrderEntry) ([]models.OrderEntry, error)
}

type BackendService struct {
	tables repository.TableRepositoryInterface
	menu   repository.MenuRepositoryInterface
	orders repository.OrderRepositoryInterface
	lg     *logger.Logger
}

func NewBackendService(t repository.TableRepositoryInterface, m repository.MenuRepositoryInterface, o repository.OrderRepositoryInterface, lg *logger.Logger) BackendServiceInterface {
	if lg == nil {
		lg = logger.Nop()
	}
	return &BackendService{tables: t, menu: m, orders: o, lg: lg}
}

func (bs *BackendService) ListTables(ctx context.Context, tenant string) ([]models.Table, error) {
	return bs.tables.ListTables(ctx, tenant)
}

func (bs *BackendService) CreateTable(ctx context.Context, tenant string, t models.Table) (models.Table, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" || t.Width <= 0 || t.Height <= 0 {
		return models.Table{}, fmt.Errorf("%w: incomplete table data", ErrInvalid)
	}
	if strings.Contains(t.Name, "::") {
		return models.Table{}, fmt.Errorf("%w: table name must not contain '::'", ErrInvalid)
	}
	t.TenantID = tenant
	if err := bs.tables.InsertTable(ctx, t); err != nil {
		return models.Table{}, err
	}
	bs.lg.Info("table_created", map[string]any{"tenant": tenant, "table": t.Name})
	return t, nil
}

func (bs *BackendService) UpdateTable(ctx context.Context, tenant, name string, p models.TablePatch) (models.Table, error) {
	if (p.Width != nil && *p.Width <= 0) || (p.Height != nil && *p.Height <= 0) {
		return models.Table{}, fmt.Errorf("%w: table size must be positive", ErrInvalid)
	}
	return bs.tables.UpdateTable(ctx, tenant, name, p)
}

func (bs *BackendService) DeleteTable(ctx context.Context, tenant, name string) error {
	if err := bs.tables.DeleteTable(ctx, tenant, name); err != nil {
		return err
	}
	bs.lg.Info("table_deleted", map[string]any{"tenant": tenant, "table": name})
	return nil
}

func (bs *BackendService) ListMenu(ctx context.Context, tenant string) ([]models.MenuItem, error) {
	return bs.menu.ListMenu(ctx, tenant)
}

func (bs *BackendService) UpsertMenuItem(ctx context.Context, tenant string, item models.MenuItem) (models.MenuItem, bool, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return models.MenuItem{}, false, fmt.Errorf("%w: incomplete menu item data", ErrInvalid)
	}
	if item.Price.IsNegative() || item.Quantity < 0 {
		return models.MenuItem{}, false, fmt.Errorf("%w: price and quantity must not be negative", ErrInvalid)
	}
	item.TenantID = tenant
	created, err := bs.menu.UpsertMenuItem(ctx, item)
	if err != nil {
		return models.MenuItem{}, false, err
	}
	return item, created, nil
}

func (bs *BackendService) UpdateMenuItem(ctx context.Context, tenant, name string, p models.MenuItemPatch) (models.MenuItem, error) {
	if p.Quantity != nil && *p.Quantity < 0 {
		return models.MenuItem{}, fmt.Errorf("%w: quantity must not be negative", ErrInvalid)
	}
	if p.Price != nil && p.Price.IsNegative() {
		return models.MenuItem{}, fmt.Errorf("%w: price must not be negative", ErrInvalid)
	}
	return bs.menu.UpdateMenuItem(ctx, tenant, name, p)
}

func (bs *BackendService) InsertOrderEntries(ctx context.Context, tenant string, entries []models.OrderEntry) ([]models.OrderEntry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: at least one order entry is required", ErrInvalid)
	}
	for i := range entries {
		e := &entries[i]
		if e.TableName == "" || e.MenuItemName == "" {
			return nil, fmt.Errorf("%w: incomplete order data", ErrInvalid)
		}
		if e.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for %s must be positive", ErrInvalid, e.MenuItemName)
		}
		e.TenantID = tenant
	}
	out, err := bs.orders.InsertOrderEntries(ctx, tenant, entries)
	if err != nil {
		return nil, err
	}
	bs.lg.Info("order_entries_saved", map[string]any{"tenant": tenant, "entries": len(entries)})
	return out, nil
}

package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/microservices/backend/models"
	"kitchen-relay/internal/microservices/backend/repository"
)

type mockTables struct{ mock.Mock }

func (m *mockTables) ListTables(ctx context.Context, tenant string) ([]models.Table, error) {
	args := m.Called(ctx, tenant)
	return args.Get(0).([]models.Table), args.Error(1)
}

func (m *mockTables) InsertTable(ctx context.Context, t models.Table) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTables) UpdateTable(ctx context.Context, tenant, name string, p models.TablePatch) (models.Table, error) {
	args := m.Called(ctx, tenant, name, p)
	return args.Get(0).(models.Table), args.Error(1)
}

func (m *mockTables) DeleteTable(ctx context.Context, tenant, name string) error {
	return m.Called(ctx, tenant, name).Error(0)
}

type mockMenu struct{ mock.Mock }

func (m *mockMenu) ListMenu(ctx context.Context, tenant string) ([]models.MenuItem, error) {
	args := m.Called(ctx, tenant)
	return args.Get(0).([]models.MenuItem), args.Error(1)
}

func (m *mockMenu) UpsertMenuItem(ctx context.Context, item models.MenuItem) (bool, error) {
	args := m.Called(ctx, item)
	return args.Bool(0), args.Error(1)
}

func (m *mockMenu) UpdateMenuItem(ctx context.Context, tenant, name string, p models.MenuItemPatch) (models.MenuItem, error) {
	args := m.Called(ctx, tenant, name, p)
	return args.Get(0).(models.MenuItem), args.Error(1)
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) InsertOrderEntries(ctx context.Context, tenant string, entries []models.OrderEntry) ([]models.OrderEntry, error) {
	args := m.Called(ctx, tenant, entries)
	return args.Get(0).([]models.OrderEntry), args.Error(1)
}

func newService() (BackendServiceInterface, *mockTables, *mockMenu, *mockOrders) {
	t, m, o := &mockTables{}, &mockMenu{}, &mockOrders{}
	return NewBackendService(t, m, o, logger.Nop()), t, m, o
}

func TestCreateTableValidates(t *testing.T) {
	svc, tables, _, _ := newService()
	ctx := context.Background()

	_, err := svc.CreateTable(ctx, "u1", models.Table{Name: " ", Width: 1, Height: 1})
	require.ErrorIs(t, err, ErrInvalid)
	_, err = svc.CreateTable(ctx, "u1", models.Table{Name: "a::b", Width: 1, Height: 1})
	require.ErrorIs(t, err, ErrInvalid)

	want := models.Table{Name: "Table 3", TenantID: "u1", Width: 2, Height: 1}
	tables.On("InsertTable", ctx, want).Return(nil).Once()
	got, err := svc.CreateTable(ctx, "u1", models.Table{Name: "Table 3", Width: 2, Height: 1})
	require.NoError(t, err)
	require.Equal(t, want, got)
	tables.AssertExpectations(t)
}

func TestUpsertMenuItem(t *testing.T) {
	svc, _, menu, _ := newService()
	ctx := context.Background()

	_, _, err := svc.UpsertMenuItem(ctx, "u1", models.MenuItem{Name: "Pizza", Quantity: -1})
	require.ErrorIs(t, err, ErrInvalid)

	item := models.MenuItem{Name: "Pizza", TenantID: "u1", Price: decimal.NewFromInt(8), Quantity: 10}
	menu.On("UpsertMenuItem", ctx, item).Return(true, nil).Once()
	saved, created, err := svc.UpsertMenuItem(ctx, "u1", models.MenuItem{Name: "Pizza", Price: decimal.NewFromInt(8), Quantity: 10})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "u1", saved.TenantID)
}

func TestUpdateMenuItemRejectsNegativeStock(t *testing.T) {
	svc, _, menu, _ := newService()
	q := -3
	_, err := svc.UpdateMenuItem(context.Background(), "u1", "Pizza", models.MenuItemPatch{Quantity: &q})
	require.ErrorIs(t, err, ErrInvalid)
	menu.AssertNotCalled(t, "UpdateMenuItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInsertOrderEntries(t *testing.T) {
	svc, _, _, orders := newService()
	ctx := context.Background()

	_, err := svc.InsertOrderEntries(ctx, "u1", nil)
	require.ErrorIs(t, err, ErrInvalid)
	_, err = svc.InsertOrderEntries(ctx, "u1", []models.OrderEntry{{TableName: "T1", MenuItemName: "Pizza", Quantity: 0}})
	require.ErrorIs(t, err, ErrInvalid)

	stamped := []models.OrderEntry{{TableName: "T1", MenuItemName: "Pizza", TenantID: "u1", Quantity: 2}}
	orders.On("InsertOrderEntries", ctx, "u1", stamped).Return(stamped, nil).Once()
	out, err := svc.InsertOrderEntries(ctx, "u1", []models.OrderEntry{{TableName: "T1", MenuItemName: "Pizza", Quantity: 2}})
	require.NoError(t, err)
	require.Equal(t, stamped, out)

	orders.On("InsertOrderEntries", ctx, "u1", mock.Anything).Return([]models.OrderEntry(nil), repository.ErrNotFound).Once()
	_, err = svc.InsertOrderEntries(ctx, "u1", []models.OrderEntry{{TableName: "T9", MenuItemName: "Pizza", Quantity: 1}})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

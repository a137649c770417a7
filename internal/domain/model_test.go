package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTableID(t *testing.T) {
	tenant, table := SplitTableID("u1@example.com::Table 3")
	assert.Equal(t, "u1@example.com", tenant)
	assert.Equal(t, "Table 3", table)

	tenant, table = SplitTableID("Patio")
	assert.Equal(t, "", tenant)
	assert.Equal(t, "Patio", table)

	assert.Equal(t, "u1::Table 3", ComposeTableID("u1", "Table 3"))
}

func TestExpandDisplayDishes(t *testing.T) {
	o := Order{OrderID: "o-1", TableID: "u1::Table 3", Dishes: []Dish{
		{Name: "Pizza", UnitPrice: decimal.NewFromInt(8), Quantity: 2},
		{Name: "Water", UnitPrice: decimal.RequireFromString("1.5"), Quantity: 1},
		{Name: "Soup", UnitPrice: decimal.NewFromInt(4), Quantity: 0},
	}}

	units := ExpandDisplayDishes(o)
	require.Len(t, units, 3)
	assert.Equal(t, "Pizza", units[0].Name)
	assert.Equal(t, "Pizza", units[1].Name)
	assert.NotEqual(t, units[0].ID, units[1].ID)
	assert.Equal(t, "1.50", units[2].Price)
	assert.Equal(t, "o-1", units[2].OrderID)
}

func TestOrderTotal(t *testing.T) {
	o := Order{Dishes: []Dish{
		{Name: "Pizza", UnitPrice: decimal.NewFromInt(8), Quantity: 2},
		{Name: "Water", UnitPrice: decimal.RequireFromString("1.5"), Quantity: 3},
	}}
	assert.True(t, o.Total().Equal(decimal.RequireFromString("20.5")))
	assert.Equal(t, 5, o.Units())
}

func TestCloneDoesNotShareDishes(t *testing.T) {
	o := Order{OrderID: "o-1", Dishes: []Dish{{Name: "Pizza", Quantity: 2}}}
	c := o.Clone()
	c.Dishes[0] = c.Dishes[0].WithQuantity(1)
	assert.Equal(t, 2, o.Dishes[0].Quantity)
}

func TestDecodeOrder(t *testing.T) {
	o, err := DecodeOrder([]byte(`{"orderId":"o-1","tableId":"u1::Table 3","dishes":[{"dishName":"Pizza","price":8.0,"quantity":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, "u1::Table 3", o.TableID)
	require.Len(t, o.Dishes, 1)
	assert.True(t, o.Dishes[0].UnitPrice.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, 2, o.Dishes[0].Quantity)
}

func TestDecodeOrderRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"orderId":`,
		"missing id":     `{"tableId":"t","dishes":[{"dishName":"a","price":1,"quantity":1}]}`,
		"missing table":  `{"orderId":"o","dishes":[{"dishName":"a","price":1,"quantity":1}]}`,
		"no dishes":      `{"orderId":"o","tableId":"t","dishes":[]}`,
		"negative count": `{"orderId":"o","tableId":"t","dishes":[{"dishName":"a","price":1,"quantity":-1}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeOrder([]byte(body))
			require.ErrorIs(t, err, ErrInvalidMessage)
		})
	}
}

func TestNotificationMessages(t *testing.T) {
	ev := DishReady("u1::Table 3", "Pizza")
	assert.Equal(t, DishReadyKind, ev.Kind)
	assert.Contains(t, ev.Message, "Pizza")
	assert.Contains(t, ev.Message, "Table 3")
	assert.NotContains(t, ev.Message, "u1::")

	done := OrderComplete("u1::Table 3")
	assert.Equal(t, OrderCompleteKind, done.Kind)
	assert.Contains(t, done.Message, "Table 3")
}

func TestDecodeStatusUpdateRejectsUnknownType(t *testing.T) {
	m, err := DecodeStatusUpdate([]byte(`{"userId":"u1","tableId":"u1::T1","message":"The order of T1 is complete","type":"ORDER_COMPLETE"}`))
	require.NoError(t, err)
	assert.Equal(t, OrderCompleteKind, m.Type)

	_, err = DecodeStatusUpdate([]byte(`{"userId":"u1","tableId":"u1::T1","message":"hi","type":"DISH_BURNT"}`))
	require.ErrorIs(t, err, ErrInvalidMessage)
	_, err = DecodeStatusUpdate([]byte(`{"userId":"u1","tableId":"u1::T1","message":"hi"}`))
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDecodeWaiterNotification(t *testing.T) {
	n, err := DecodeWaiterNotification([]byte(`{"message":"Dish Tea for T2 is ready","tableId":"u1::T2"}`))
	require.NoError(t, err)
	assert.Equal(t, "u1::T2", n.Event().TableID)

	_, err = DecodeWaiterNotification([]byte(`{"message":"x","tableId":"u1::T2","type":"DISH_BURNT"}`))
	require.ErrorIs(t, err, ErrInvalidMessage)
	_, err = DecodeWaiterNotification([]byte(`{"tableId":"u1::T2"}`))
	require.ErrorIs(t, err, ErrInvalidMessage)
}

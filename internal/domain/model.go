package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TableSeparator joins tenant and table name into a TableID.
const TableSeparator = "::"

type Dish struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// WithQuantity returns a copy; Dish values are never mutated in place.
func (d Dish) WithQuantity(n int) Dish {
	d.Quantity = n
	return d
}

func (d Dish) Subtotal() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

type Order struct {
	OrderID string
	TableID string // tenant::tableName
	Dishes  []Dish
}

func NewOrder(tableID string, dishes []Dish) Order {
	return Order{OrderID: uuid.NewString(), TableID: tableID, Dishes: dishes}
}

func (o Order) Clone() Order {
	o.Dishes = append([]Dish(nil), o.Dishes...)
	return o
}

func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range o.Dishes {
		total = total.Add(d.Subtotal())
	}
	return total
}

// Units is the number of physical plates still to cook.
func (o Order) Units() int {
	n := 0
	for _, d := range o.Dishes {
		n += d.Quantity
	}
	return n
}

// DisplayDish is one plate of a Dish, so the kitchen can mark plates ready one at a time.
type DisplayDish struct {
	ID      uuid.UUID `json:"id"`
	OrderID string    `json:"order_id"`
	Name    string    `json:"dish_name"`
	Price   string    `json:"price"`
}

func ExpandDisplayDishes(o Order) []DisplayDish {
	out := make([]DisplayDish, 0, o.Units())
	for _, d := range o.Dishes {
		for i := 0; i < d.Quantity; i++ {
			out = append(out, DisplayDish{
				ID:      uuid.New(),
				OrderID: o.OrderID,
				Name:    d.Name,
				Price:   d.UnitPrice.StringFixed(2),
			})
		}
	}
	return out
}

func ComposeTableID(tenant, table string) string {
	return tenant + TableSeparator + table
}

// SplitTableID returns tenant and table name. An id without separator is a bare table name.
func SplitTableID(id string) (tenant, table string) {
	if i := strings.Index(id, TableSeparator); i >= 0 {
		return id[:i], id[i+len(TableSeparator):]
	}
	return "", id
}

func TableName(id string) string {
	_, t := SplitTableID(id)
	return t
}

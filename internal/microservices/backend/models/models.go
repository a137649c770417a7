package models

import "github.com/shopspring/decimal"

// Table is one orderable surface on a tenant's floor plan.
type Table struct {
	Name     string  `json:"name"`
	TenantID string  `json:"id_user"`
	X        float64 `json:"x_coordinate"`
	Y        float64 `json:"y_coordinate"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// TablePatch carries the fields a PUT may change; nil leaves a field as is.
type TablePatch struct {
	X      *float64 `json:"x_coordinate,omitempty"`
	Y      *float64 `json:"y_coordinate,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

type MenuItem struct {
	Name        string          `json:"name"`
	TenantID    string          `json:"id_user"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"` // units in stock
	Description string          `json:"description"`
}

type MenuItemPatch struct {
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// OrderEntry is the persisted quantity of one menu item ordered at one table.
type OrderEntry struct {
	TableName    string `json:"table_name"`
	MenuItemName string `json:"menu_item_name"`
	TenantID     string `json:"id_user"`
	Quantity     int    `json:"quantity"`
}

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"kitchen-relay/internal/microservices/backend/models"
)

func TestClientRoundTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/users/a@b.c/menu":
			_ = json.NewEncoder(w).Encode([]models.MenuItem{{Name: "Fish Soup", Price: decimal.RequireFromString("6.5"), Quantity: 3}})
		case r.Method == http.MethodPut && r.URL.Path == "/users/a@b.c/menu/Fish Soup":
			var p models.MenuItemPatch
			require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			_ = json.NewEncoder(w).Encode(models.MenuItem{Name: "Fish Soup", Quantity: *p.Quantity})
		case r.Method == http.MethodPost && r.URL.Path == "/users/a@b.c/orders":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Table 'T9' not found for user 'a@b.c'"}`))
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "a@b.c", time.Second)
	ctx := context.Background()

	items, err := c.ListMenu(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].Price.Equal(decimal.RequireFromString("6.50")))

	q := 1
	it, err := c.UpdateMenuItem(ctx, "Fish Soup", models.MenuItemPatch{Quantity: &q})
	require.NoError(t, err)
	require.Equal(t, 1, it.Quantity)

	_, err = c.InsertOrderEntries(ctx, []models.OrderEntry{{TableName: "T9", MenuItemName: "Fish Soup", Quantity: 1}})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "Table 'T9' not found for user 'a@b.c'", apiErr.Message)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "u1", 200*time.Millisecond).ListMenu(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

package http_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	handler "github.com/vasiliy-maslov/bookstore/internal/handler/http"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
	"github.com/vasiliy-maslov/bookstore/internal/money"
	"github.com/vasiliy-maslov/bookstore/internal/order"
)

func TestOrderHandler_PlaceOrder_Success(t *testing.T) {
	owner := loggedIn()
	ts := newTestServer(identity.ModeUser, owner)

	placed := &order.Order{
		ID:         uuid.Must(uuid.NewV4()),
		IdentityID: owner.ID,
		Status:     order.StatusPending,
		Total:      money.Amount(3000),
		Items:      []order.OrderItem{{BookID: 1, Title: "Code Complete", Quantity: 3, UnitPrice: money.Amount(1000)}},
	}
	ts.orders.On("PlaceOrder", mock.Anything, *owner).Return(placed, nil).Once()

	rr := serve(t, ts.router, http.MethodPost, "/orders", "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp handler.PlaceOrderResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Order)
	assert.Equal(t, placed.ID, resp.Order.ID)
	assert.Equal(t, "30.00$", resp.Order.Total.String())
	assert.Equal(t, order.StatusPending, resp.Order.Status)
}

func TestOrderHandler_PlaceOrder_EmptyCart(t *testing.T) {
	owner := loggedIn()
	ts := newTestServer(identity.ModeUser, owner)
	ts.orders.On("PlaceOrder", mock.Anything, *owner).Return(nil, order.ErrEmptyCart).Once()

	rr := serve(t, ts.router, http.MethodPost, "/orders", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	resp := decodeStatus(t, rr)
	assert.False(t, resp.Success)
	assert.Equal(t, "Your cart is empty", resp.Message)
}

func TestOrderHandler_GetOrder(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name     string
		path     string
		err      error
		wantCode int
	}{
		{name: "found", path: "/orders/" + orderID.String(), wantCode: http.StatusOK},
		{name: "foreign", path: "/orders/" + orderID.String(), err: order.ErrForbidden, wantCode: http.StatusForbidden},
		{name: "missing", path: "/orders/" + orderID.String(), err: order.ErrOrderNotFound, wantCode: http.StatusNotFound},
		{name: "invalid_id", path: "/orders/not-a-uuid", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := loggedIn()
			ts := newTestServer(identity.ModeUser, owner)

			if tt.name != "invalid_id" {
				var found *order.Order
				if tt.err == nil {
					found = &order.Order{ID: orderID, IdentityID: owner.ID, Status: order.StatusPending}
				}
				ts.orders.On("GetOrderByID", mock.Anything, *owner, orderID).Return(found, tt.err).Once()
			}

			rr := serve(t, ts.router, http.MethodGet, tt.path, "")
			require.Equal(t, tt.wantCode, rr.Code)
			ts.orders.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_ListOrders_Unauthenticated(t *testing.T) {
	ts := newTestServer(identity.ModeUser, nil)

	rr := serve(t, ts.router, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	ts.orders.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestOrderHandler_ListOrders(t *testing.T) {
	owner := loggedIn()
	ts := newTestServer(identity.ModeUser, owner)
	ts.orders.On("ListOrders", mock.Anything, *owner).Return([]order.Order{{ID: uuid.Must(uuid.NewV4())}}, nil).Once()

	rr := serve(t, ts.router, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Orders []order.Order `json:"orders"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Orders, 1)
}

package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/bookstore/internal/cart"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/db"
	"github.com/vasiliy-maslov/bookstore/internal/db/dbtest"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
	"github.com/vasiliy-maslov/bookstore/internal/money"
	"github.com/vasiliy-maslov/bookstore/internal/order"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, q db.Querier, o *order.Order) error {
	args := m.Called(ctx, q, o)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByIdentity(ctx context.Context, q db.Querier, identityID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, q, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

// MockCartRepository only needs the calls PlaceOrder makes.
type MockCartRepository struct {
	mock.Mock
	cart.Repository
}

func (m *MockCartRepository) Lines(ctx context.Context, q db.Querier, identityID uuid.UUID, forUpdate bool) ([]cart.Line, error) {
	args := m.Called(ctx, q, identityID, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Line), args.Error(1)
}

func (m *MockCartRepository) DeleteEntries(ctx context.Context, q db.Querier, identityID uuid.UUID, entryIDs []int64) (int64, error) {
	args := m.Called(ctx, q, identityID, entryIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

type orderFixture struct {
	tx        *dbtest.FakeTx
	orders    *MockOrderRepository
	carts     *MockCartRepository
	publisher *MockPublisher
	svc       order.Service
	owner     identity.Identity
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		tx:        &dbtest.FakeTx{},
		orders:    new(MockOrderRepository),
		carts:     new(MockCartRepository),
		publisher: new(MockPublisher),
		owner:     identity.User(uuid.Must(uuid.NewV4())),
	}
	f.svc = order.NewService(f.tx, f.orders, f.carts, f.publisher)
	return f
}

func TestOrderService_PlaceOrder_Success(t *testing.T) {
	f := newOrderFixture()
	lines := []cart.Line{
		{EntryID: 9, Book: catalog.Book{ID: 5, Title: "Code Complete", Price: money.MustParse("10.00$")}, Quantity: 3},
	}

	f.carts.On("Lines", mock.Anything, mock.Anything, f.owner.ID, true).Return(lines, nil).Once()
	f.orders.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
		return o.IdentityID == f.owner.ID && o.Status == order.StatusPending && len(o.Items) == 1
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*order.Order).ID = uuid.Must(uuid.NewV4())
	}).Return(nil).Once()
	f.carts.On("DeleteEntries", mock.Anything, mock.Anything, f.owner.ID, []int64{9}).Return(int64(1), nil).Once()
	f.publisher.On("PublishOrderPlaced", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()

	placed, err := f.svc.PlaceOrder(context.Background(), f.owner)
	require.NoError(t, err)
	require.NotNil(t, placed)

	assert.Equal(t, "30.00$", placed.Total.String())
	assert.Equal(t, order.StatusPending, placed.Status)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, order.OrderItem{BookID: 5, Title: "Code Complete", Quantity: 3, UnitPrice: money.Amount(1000)}, placed.Items[0])
	assert.Equal(t, 1, f.tx.Committed)

	f.carts.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestOrderService_PlaceOrder_EmptyCart(t *testing.T) {
	f := newOrderFixture()
	f.carts.On("Lines", mock.Anything, mock.Anything, f.owner.ID, true).Return([]cart.Line{}, nil).Once()

	placed, err := f.svc.PlaceOrder(context.Background(), f.owner)
	require.ErrorIs(t, err, order.ErrEmptyCart)
	require.Nil(t, placed)
	assert.Equal(t, 1, f.tx.RolledBack)

	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	f.carts.AssertNotCalled(t, "DeleteEntries", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishOrderPlaced", mock.Anything, mock.Anything)
}

func TestOrderService_PlaceOrder_DeleteFailureRollsBack(t *testing.T) {
	f := newOrderFixture()
	lines := []cart.Line{
		{EntryID: 1, Book: catalog.Book{ID: 1, Title: "Refactoring", Price: money.MustParse("25.00$")}, Quantity: 1},
	}
	dbErr := errors.New("serialization failure")

	f.carts.On("Lines", mock.Anything, mock.Anything, f.owner.ID, true).Return(lines, nil).Once()
	f.orders.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()
	f.carts.On("DeleteEntries", mock.Anything, mock.Anything, f.owner.ID, []int64{1}).Return(int64(0), dbErr).Once()

	placed, err := f.svc.PlaceOrder(context.Background(), f.owner)
	require.ErrorIs(t, err, dbErr)
	require.Nil(t, placed)
	assert.Equal(t, 1, f.tx.RolledBack)
	assert.Equal(t, 0, f.tx.Committed)
	f.publisher.AssertNotCalled(t, "PublishOrderPlaced", mock.Anything, mock.Anything)
}

func TestOrderService_PlaceOrder_PublishFailureKeepsOrder(t *testing.T) {
	f := newOrderFixture()
	lines := []cart.Line{
		{EntryID: 1, Book: catalog.Book{ID: 2, Title: "Hacking", Price: money.MustParse("15.00$")}, Quantity: 2},
	}

	f.carts.On("Lines", mock.Anything, mock.Anything, f.owner.ID, true).Return(lines, nil).Once()
	f.orders.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil).Once()
	f.carts.On("DeleteEntries", mock.Anything, mock.Anything, f.owner.ID, []int64{1}).Return(int64(1), nil).Once()
	f.publisher.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(errors.New("broker unreachable")).Once()

	placed, err := f.svc.PlaceOrder(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, "30.00$", placed.Total.String())
	assert.Equal(t, 1, f.tx.Committed)
}

func TestOrderService_GetOrderByID(t *testing.T) {
	owner := identity.User(uuid.Must(uuid.NewV4()))
	stranger := identity.User(uuid.Must(uuid.NewV4()))
	orderID := uuid.Must(uuid.NewV4())
	stored := &order.Order{ID: orderID, IdentityID: owner.ID, Status: order.StatusPending}

	tests := []struct {
		name    string
		caller  identity.Identity
		repoOut *order.Order
		repoErr error
		wantErr error
	}{
		{name: "owner", caller: owner, repoOut: stored},
		{name: "stranger", caller: stranger, repoOut: stored, wantErr: order.ErrForbidden},
		{name: "missing", caller: owner, repoErr: order.ErrOrderNotFound, wantErr: order.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockOrderRepository)
			svc := order.NewService(&dbtest.FakeTx{}, repo, new(MockCartRepository), nil)

			repo.On("GetByID", mock.Anything, mock.Anything, orderID).Return(tt.repoOut, tt.repoErr).Once()

			got, err := svc.GetOrderByID(context.Background(), tt.caller, orderID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored, got)
		})
	}
}

func TestOrderService_ListOrders(t *testing.T) {
	repo := new(MockOrderRepository)
	svc := order.NewService(&dbtest.FakeTx{}, repo, new(MockCartRepository), nil)
	owner := identity.Anonymous(uuid.Must(uuid.NewV4()))

	repo.On("ListByIdentity", mock.Anything, mock.Anything, owner.ID).Return(nil, errors.New("timeout")).Once()

	_, err := svc.ListOrders(context.Background(), owner)
	require.Error(t, err)
	repo.AssertExpectations(t)
}

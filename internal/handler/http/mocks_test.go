package http_test

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/vasiliy-maslov/bookstore/internal/cart"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/favorites"
	handler "github.com/vasiliy-maslov/bookstore/internal/handler/http"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
	"github.com/vasiliy-maslov/bookstore/internal/order"
	"github.com/vasiliy-maslov/bookstore/internal/user"
)

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListByCategory(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCatalogService) GetBook(ctx context.Context, id int64) (*catalog.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Book), args.Error(1)
}

func (m *MockCatalogService) Seed(ctx context.Context, books []catalog.Book) (bool, error) {
	args := m.Called(ctx, books)
	return args.Bool(0), args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Add(ctx context.Context, id identity.Identity, bookID int64) (*cart.Entry, error) {
	args := m.Called(ctx, id, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Entry), args.Error(1)
}

func (m *MockCartService) Remove(ctx context.Context, id identity.Identity, bookID int64) error {
	return m.Called(ctx, id, bookID).Error(0)
}

func (m *MockCartService) RemoveEntry(ctx context.Context, id identity.Identity, entryID int64) error {
	return m.Called(ctx, id, entryID).Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, id identity.Identity) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCartService) ListWithTotal(ctx context.Context, id identity.Identity) (*cart.Summary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Summary), args.Error(1)
}

func (m *MockCartService) Count(ctx context.Context, id identity.Identity) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

type MockFavoritesService struct {
	mock.Mock
}

func (m *MockFavoritesService) Add(ctx context.Context, id identity.Identity, bookID int64) (*favorites.Entry, error) {
	args := m.Called(ctx, id, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*favorites.Entry), args.Error(1)
}

func (m *MockFavoritesService) Remove(ctx context.Context, id identity.Identity, bookID int64) error {
	return m.Called(ctx, id, bookID).Error(0)
}

func (m *MockFavoritesService) RemoveEntry(ctx context.Context, id identity.Identity, entryID int64) error {
	return m.Called(ctx, id, entryID).Error(0)
}

func (m *MockFavoritesService) List(ctx context.Context, id identity.Identity) ([]favorites.Favorite, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]favorites.Favorite), args.Error(1)
}

func (m *MockFavoritesService) IDs(ctx context.Context, id identity.Identity) ([]int64, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, id identity.Identity) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderByID(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, id identity.Identity) ([]order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) SignUp(ctx context.Context, in user.SignUpInput) (*user.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

// stubResolver hands every request the same identity, or none.
type stubResolver struct {
	mode       identity.Mode
	current    *identity.Identity
	resolveErr error
	started    []uuid.UUID
	ended      int
}

func (s *stubResolver) Mode() identity.Mode {
	return s.mode
}

func (s *stubResolver) Resolve(_ http.ResponseWriter, r *http.Request) (context.Context, error) {
	if s.resolveErr != nil {
		return r.Context(), s.resolveErr
	}
	if s.current == nil {
		return r.Context(), nil
	}
	return identity.WithIdentity(r.Context(), *s.current), nil
}

func (s *stubResolver) StartSession(w http.ResponseWriter, _ *http.Request, userID uuid.UUID) error {
	s.started = append(s.started, userID)
	http.SetCookie(w, &http.Cookie{Name: identity.SessionCookie, Value: "session-token"})
	return nil
}

func (s *stubResolver) EndSession(http.ResponseWriter, *http.Request) error {
	s.ended++
	return nil
}

type testServer struct {
	router    http.Handler
	resolver  *stubResolver
	catalog   *MockCatalogService
	cart      *MockCartService
	favorites *MockFavoritesService
	orders    *MockOrderService
	users     *MockUserService
}

func newTestServer(mode identity.Mode, current *identity.Identity) *testServer {
	ts := &testServer{
		resolver:  &stubResolver{mode: mode, current: current},
		catalog:   new(MockCatalogService),
		cart:      new(MockCartService),
		favorites: new(MockFavoritesService),
		orders:    new(MockOrderService),
		users:     new(MockUserService),
	}
	ts.router = handler.NewRouter(handler.RouterDeps{
		Logger:    zerolog.Nop(),
		Resolver:  ts.resolver,
		Catalog:   ts.catalog,
		Cart:      ts.cart,
		Favorites: ts.favorites,
		Orders:    ts.orders,
		Users:     ts.users,
	})
	return ts
}

func loggedIn() *identity.Identity {
	id := identity.User(uuid.Must(uuid.NewV4()))
	return &id
}

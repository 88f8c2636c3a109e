package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/bookstore/internal/db"
	"github.com/vasiliy-maslov/bookstore/internal/db/dbtest"
	"github.com/vasiliy-maslov/bookstore/internal/user"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, q db.Querier, u *user.User) (uuid.UUID, error) {
	args := m.Called(ctx, q, u)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, q db.Querier, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, q db.Querier, email string) (*user.User, error) {
	args := m.Called(ctx, q, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func newUserService(repo user.Repository) user.Service {
	return user.NewService(&dbtest.FakeTx{}, repo)
}

func TestUserService_SignUp_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newUserService(mockRepo)

	expectedID := uuid.Must(uuid.NewV4())
	mockRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*user.User")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*user.User).ID = expectedID
		}).
		Return(expectedID, nil).
		Once()

	created, err := userService.SignUp(context.Background(), user.SignUpInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "  Ada@Example.COM ",
		Password:  "somepassword",
	})
	require.NoError(t, err)
	require.Equal(t, expectedID, created.ID)
	require.Equal(t, "ada@example.com", created.Email)

	err = bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("somepassword"))
	require.NoError(t, err, "Password hash does not match raw password")
	require.NotEqual(t, "somepassword", created.PasswordHash, "Password should be hashed, not raw")

	mockRepo.AssertExpectations(t)
}

func TestUserService_SignUp_EmailExists(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newUserService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*user.User")).
		Return(uuid.Nil, user.ErrEmailExists).
		Once()

	created, err := userService.SignUp(context.Background(), user.SignUpInput{
		Email:    "duplicate@example.com",
		Password: "somepassword",
	})
	require.ErrorIs(t, err, user.ErrEmailExists)
	require.Nil(t, created)
	mockRepo.AssertExpectations(t)
}

func TestUserService_SignUp_EmptyPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newUserService(mockRepo)

	_, err := userService.SignUp(context.Background(), user.SignUpInput{Email: "a@b.c"})
	require.Error(t, err)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &user.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "reader@example.com",
		PasswordHash: string(hash),
	}

	tests := []struct {
		name     string
		email    string
		password string
		repoUser *user.User
		repoErr  error
		wantErr  error
	}{
		{name: "valid", email: "Reader@Example.com", password: "correct-horse", repoUser: stored},
		{name: "wrong_password", email: "reader@example.com", password: "battery-staple", repoUser: stored, wantErr: user.ErrInvalidCredentials},
		{name: "unknown_email", email: "ghost@example.com", password: "x", repoErr: user.ErrNotFound, wantErr: user.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			userService := newUserService(mockRepo)

			mockRepo.On("GetByEmail", mock.Anything, mock.Anything, user.NormalizeEmail(tt.email)).
				Return(tt.repoUser, tt.repoErr).
				Once()

			got, err := userService.Authenticate(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, got)
			} else {
				require.NoError(t, err)
				require.Equal(t, stored.ID, got.ID)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Authenticate_StorageFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newUserService(mockRepo)

	mockRepo.On("GetByEmail", mock.Anything, mock.Anything, "reader@example.com").
		Return(nil, errors.New("connection refused")).
		Once()

	_, err := userService.Authenticate(context.Background(), "reader@example.com", "pw")
	require.Error(t, err)
	require.NotErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestUserService_GetUserByID_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newUserService(mockRepo)

	userID := uuid.Must(uuid.NewV4())
	expectedUser := user.User{
		ID:           userID,
		FirstName:    "Test",
		LastName:     "User",
		Email:        "getbyid@example.com",
		PasswordHash: "hashed_password_from_repo",
		CreatedAt:    time.Now().Add(-time.Hour),
		UpdatedAt:    time.Now(),
	}

	mockRepo.On("GetByID", mock.Anything, mock.Anything, userID).
		Return(&expectedUser, nil).
		Once()

	foundUser, err := userService.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(expectedUser, *foundUser))
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetUserByID_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := newUserService(mockRepo)

	userID := uuid.Must(uuid.NewV4())
	mockRepo.On("GetByID", mock.Anything, mock.Anything, userID).
		Return(nil, user.ErrNotFound).
		Once()

	foundUser, err := userService.GetUserByID(context.Background(), userID)
	require.ErrorIs(t, err, user.ErrNotFound)
	require.Nil(t, foundUser)
	mockRepo.AssertExpectations(t)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ledger-core/internal/domain"
	"ledger-core/internal/repository/memory"
	"ledger-core/internal/util"
)

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesUserWithZeroBalance", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewUserService(store, store, discardLogger())

		user, balance, err := svc.RegisterUser(ctx, "  alice ")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.NotZero(t, user.ID)
		assert.Equal(t, user.ID, balance.OwnerID)
		assert.Equal(t, domain.Money(0), balance.Amount)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		store := memory.NewStore()
		store.AddUser("alice")
		svc := NewUserService(store, store, discardLogger())

		_, _, err := svc.RegisterUser(ctx, "alice")
		assert.ErrorIs(t, err, util.ErrDuplicateEntry)
	})

	t.Run("InvalidUsername", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewUserService(store, store, discardLogger())

		_, _, err := svc.RegisterUser(ctx, "   ")
		assert.ErrorIs(t, err, util.ErrInvalidInput)

		long := make([]byte, maxUsernameLength+1)
		for i := range long {
			long[i] = 'a'
		}
		_, _, err = svc.RegisterUser(ctx, string(long))
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})

	t.Run("MultibyteUsernameCountsCharacters", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewUserService(store, store, discardLogger())

		user, _, err := svc.RegisterUser(ctx, strings.Repeat("Ж", maxUsernameLength))
		require.NoError(t, err)
		assert.Equal(t, maxUsernameLength, len([]rune(user.Username)))

		_, _, err = svc.RegisterUser(ctx, strings.Repeat("Ж", maxUsernameLength+1))
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})

	t.Run("FailedBalanceLeavesNoUser", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewUserService(store, &brokenBalanceStore{Store: store}, discardLogger())

		_, _, err := svc.RegisterUser(ctx, "alice")
		assert.ErrorIs(t, err, util.ErrStore)

		_, err = store.GetUserByUsername(ctx, "alice")
		assert.ErrorIs(t, err, util.ErrNotFound)
	})

	t.Run("LookupFailure", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("GetUserByUsername", mock.Anything, "alice").Return(nil, errors.New("connection reset")).Once()
		svc := NewUserService(users, memory.NewStore(), discardLogger())

		_, _, err := svc.RegisterUser(ctx, "alice")
		assert.ErrorIs(t, err, util.ErrStore)
		users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
		users.AssertExpectations(t)
	})
}

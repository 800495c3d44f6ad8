package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ledger-core/internal/api/types"
	"ledger-core/internal/domain"
	"ledger-core/internal/repository"
	"ledger-core/internal/service"
	"ledger-core/internal/util"
)

// MockLedgerService is a mock implementation of service.LedgerService.
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetBalance(ctx context.Context, ownerID int64) (*domain.Balance, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockLedgerService) Deposit(ctx context.Context, ownerID int64, amount domain.Money) (*service.DepositResult, error) {
	args := m.Called(ctx, ownerID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DepositResult), args.Error(1)
}

func (m *MockLedgerService) Transfer(ctx context.Context, senderID, recipientID int64, amount domain.Money) (*service.TransferResult, error) {
	args := m.Called(ctx, senderID, recipientID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransferResult), args.Error(1)
}

func (m *MockLedgerService) GetTransactions(ctx context.Context, ownerID int64, page repository.Page) ([]domain.TransactionRecord, int64, error) {
	args := m.Called(ctx, ownerID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.TransactionRecord), args.Get(1).(int64), args.Error(2)
}

func newTestHandler(ledger service.LedgerService) *LedgerHandler {
	return NewLedgerHandler(ledger, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(h http.HandlerFunc, ownerID int64, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req = req.WithContext(WithOwnerID(req.Context(), ownerID))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStoreErrorsMapToServerStatus(t *testing.T) {
	t.Run("TransientIs503", func(t *testing.T) {
		ledger := new(MockLedgerService)
		ledger.On("GetBalance", mock.Anything, int64(7)).
			Return(nil, util.NewStoreError("lock balance", errors.New("lock timeout"), true)).Once()

		rec := serve(newTestHandler(ledger).GetBalance, 7, http.MethodGet, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		assert.Equal(t, "STORE_UNAVAILABLE", decodeError(t, rec).Code)
		ledger.AssertExpectations(t)
	})

	t.Run("PermanentIs500WithoutDetails", func(t *testing.T) {
		ledger := new(MockLedgerService)
		ledger.On("GetBalance", mock.Anything, int64(7)).
			Return(nil, util.NewStoreError("get balance", errors.New("relation \"balances\" does not exist"), false)).Once()

		rec := serve(newTestHandler(ledger).GetBalance, 7, http.MethodGet, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "INTERNAL", body.Code)
		assert.NotContains(t, body.Error, "balances")
	})

	t.Run("StoreFailureWrappingNotFoundIs500", func(t *testing.T) {
		ledger := new(MockLedgerService)
		ledger.On("GetBalance", mock.Anything, int64(7)).
			Return(nil, util.NewStoreError("save balance", util.ErrNotFound, false)).Once()

		rec := serve(newTestHandler(ledger).GetBalance, 7, http.MethodGet, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "INTERNAL", decodeError(t, rec).Code)
	})
}

func TestDepositPassesParsedAmount(t *testing.T) {
	ledger := new(MockLedgerService)
	ledger.On("Deposit", mock.Anything, int64(3), domain.Money(250)).Return(&service.DepositResult{
		Balance: &domain.Balance{OwnerID: 3, Amount: 1250},
		Record:  &domain.TransactionRecord{ID: 11},
	}, nil).Once()

	rec := serve(newTestHandler(ledger).Deposit, 3, http.MethodPost, `{"amount_minor_units": 250}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body types.DepositResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(11), body.TransactionID)
	assert.Equal(t, int64(1250), body.NewBalanceMinorUnits)
	assert.Equal(t, "12.5", body.NewBalance.String())
	ledger.AssertExpectations(t)
}

func TestDepositRejectsFractionalAmountBeforeService(t *testing.T) {
	ledger := new(MockLedgerService)

	rec := serve(newTestHandler(ledger).Deposit, 3, http.MethodPost, `{"amount_minor_units": 1.5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_AMOUNT", decodeError(t, rec).Code)
	ledger.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything)
}

func TestOutOfRangeAmounts(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"HugeDepositIsTooLarge", `{"amount_minor_units": 99999999999999999999}`, "AMOUNT_TOO_LARGE"},
		{"HugeNegativeIsInvalid", `{"amount_minor_units": -99999999999999999999}`, "INVALID_AMOUNT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ledger := new(MockLedgerService)

			rec := serve(newTestHandler(ledger).Deposit, 3, http.MethodPost, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
			ledger.AssertNotCalled(t, "Deposit", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("HugeTransferIsTooLarge", func(t *testing.T) {
		ledger := new(MockLedgerService)

		rec := serve(newTestHandler(ledger).Transfer, 3, http.MethodPost, `{"recipient_id": 4, "amount_minor_units": 99999999999999999999}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "AMOUNT_TOO_LARGE", decodeError(t, rec).Code)
		ledger.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetTransactionsParsesPage(t *testing.T) {
	ledger := new(MockLedgerService)
	ledger.On("GetTransactions", mock.Anything, int64(5), repository.Page{Limit: 20, Offset: 0}).
		Return([]domain.TransactionRecord{}, int64(0), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/transactions?limit=20&offset=-3", nil)
	req = req.WithContext(WithOwnerID(req.Context(), 5))
	rec := httptest.NewRecorder()
	newTestHandler(ledger).GetTransactions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	ledger.AssertExpectations(t)
}

func TestRequireOwner(t *testing.T) {
	h := newTestHandler(new(MockLedgerService))
	var seen int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = OwnerIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	req.Header.Set(OwnerHeader, "42")
	rec := httptest.NewRecorder()
	h.RequireOwner(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(42), seen)

	for _, value := range []string{"", "0", "-1", "x"} {
		req := httptest.NewRequest(http.MethodGet, "/balance", nil)
		req.Header.Set(OwnerHeader, value)
		rec := httptest.NewRecorder()
		h.RequireOwner(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, value)
	}
}

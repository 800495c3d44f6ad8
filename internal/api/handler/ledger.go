// internal/api/handler/ledger.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"ledger-core/internal/api/types"
	"ledger-core/internal/repository"
	"ledger-core/internal/service"
	"ledger-core/internal/util"
)

// DefaultTimeout bounds the handling of a single request.
const DefaultTimeout = 30 * time.Second

// LedgerHandler handles HTTP requests for balances, deposits, transfers and history.
type LedgerHandler struct {
	ledger    service.LedgerService
	users     service.UserService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledger service.LedgerService, users service.UserService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger:    ledger,
		users:     users,
		validator: newValidator(),
		logger:    logger,
	}
}

// Helper function to send JSON responses.
func (h *LedgerHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func errorBody(message, code string) types.ErrorResponse {
	return types.ErrorResponse{Error: message, Code: code}
}

// errorMapping is checked in order; the first sentinel matched decides the response.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{util.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{util.ErrAmountTooLarge, http.StatusBadRequest, "AMOUNT_TOO_LARGE"},
	{util.ErrSelfTransfer, http.StatusBadRequest, "SELF_TRANSFER"},
	{util.ErrInsufficientFunds, http.StatusBadRequest, "INSUFFICIENT_FUNDS"},
	{util.ErrRecipientNotFound, http.StatusNotFound, "RECIPIENT_NOT_FOUND"},
	{util.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{util.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{util.ErrDuplicateEntry, http.StatusConflict, "DUPLICATE"},
	{util.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
}

// Helper function to send error responses. Business errors are reported with their own message;
// store failures are not described to the caller.
func (h *LedgerHandler) respondWithError(w http.ResponseWriter, err error, details ...string) {
	if !errors.Is(err, util.ErrStore) {
		for _, m := range errorMapping {
			if util.IsError(err, m.err) {
				body := errorBody(m.err.Error(), m.code)
				body.Details = details
				h.respondWithJSON(w, m.status, body)
				return
			}
		}
	}

	if util.IsTransient(err) {
		h.logger.Warn("Transient store failure", "error", err)
		w.Header().Set("Retry-After", "1")
		h.respondWithJSON(w, http.StatusServiceUnavailable, errorBody("Service temporarily unavailable, retry later", "STORE_UNAVAILABLE"))
		return
	}

	h.logger.Error("Unhandled service error", "error", err)
	h.respondWithJSON(w, http.StatusInternalServerError, errorBody("Internal server error", "INTERNAL"))
}

// decode reads a JSON body, keeping numbers as json.Number so fractional amounts can be told apart.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return util.ErrInvalidInput
	}
	return nil
}

// DepositRequest represents the request body for deposit.
type DepositRequest struct {
	AmountMinorUnits json.Number `json:"amount_minor_units" validate:"required,minor_units"`
}

// Deposit handles the deposit money request.
// POST /deposit
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	var req DepositRequest
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if details, err := h.validate(req); err != nil {
		h.respondWithError(w, err, details...)
		return
	}
	amount, err := minorUnits(req.AmountMinorUnits)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	result, err := h.ledger.Deposit(r.Context(), ownerID, amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.DepositResponse{
		Message:              "Deposit successful",
		TransactionID:        result.Record.ID,
		NewBalanceMinorUnits: int64(result.Balance.Amount),
		NewBalance:           types.NewAmount(result.Balance.Amount),
	})
}

// TransferRequest represents the request body for transfer.
type TransferRequest struct {
	RecipientID      int64       `json:"recipient_id" validate:"required,gt=0"`
	AmountMinorUnits json.Number `json:"amount_minor_units" validate:"required,minor_units"`
}

// Transfer handles the transfer money request.
// POST /transfer
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	senderID, _ := OwnerIDFromContext(r.Context())

	var req TransferRequest
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if details, err := h.validate(req); err != nil {
		h.respondWithError(w, err, details...)
		return
	}
	amount, err := minorUnits(req.AmountMinorUnits)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	result, err := h.ledger.Transfer(r.Context(), senderID, req.RecipientID, amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.TransferResponse{
		Message:              "Transfer successful",
		CorrelationID:        result.Out.CorrelationID,
		Recipient:            result.Recipient.Username,
		AmountMinorUnits:     int64(result.Amount),
		Amount:               types.NewAmount(result.Amount),
		NewBalanceMinorUnits: int64(result.SenderBalance.Amount),
		NewBalance:           types.NewAmount(result.SenderBalance.Amount),
	})
}

// GetBalance handles the get balance request.
// GET /balance
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	balance, err := h.ledger.GetBalance(r.Context(), ownerID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.NewBalanceResponse(balance))
}

// GetTransactions handles the transaction history request.
// GET /transactions?limit=&offset=
// Without a limit the whole history is returned.
func (h *LedgerHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		limit = 0
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	records, total, err := h.ledger.GetTransactions(r.Context(), ownerID, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	data := make([]types.TransactionResponse, 0, len(records))
	for _, record := range records {
		data = append(data, types.NewTransactionResponse(record))
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[types.TransactionResponse]{
		Data:       data,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// RegisterUserRequest represents the request body for user registration.
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,max=150"`
}

// RegisterUser handles the user registration request.
// POST /users
func (h *LedgerHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := decode(r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if details, err := h.validate(req); err != nil {
		h.respondWithError(w, err, details...)
		return
	}

	user, balance, err := h.users.RegisterUser(r.Context(), req.Username)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, types.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Balance:   types.NewBalanceResponse(balance),
		CreatedAt: user.CreatedAt,
	})
}

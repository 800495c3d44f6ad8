package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-core/internal/domain"
)

func TestAmountIsWrittenAsFixedPointNumber(t *testing.T) {
	raw, err := json.Marshal(DepositResponse{
		Message:              "Deposit successful",
		TransactionID:        1,
		NewBalanceMinorUnits: 5000,
		NewBalance:           NewAmount(5000),
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"new_balance":50.00`)

	raw, err = json.Marshal(NewAmount(1))
	require.NoError(t, err)
	assert.Equal(t, "0.01", string(raw))

	var decoded DepositResponse
	require.NoError(t, json.Unmarshal([]byte(`{"new_balance":100.50}`), &decoded))
	assert.Equal(t, "100.5", decoded.NewBalance.String())
}

func TestTransactionResponseNames(t *testing.T) {
	sender := int64(1)

	deposit := NewTransactionResponse(domain.TransactionRecord{ToOwnerID: 1, Amount: 300, ToUsername: "alice"})
	assert.Equal(t, domain.SystemAccountName, deposit.FromUsername)
	assert.Equal(t, "alice", deposit.ToUsername)

	transfer := NewTransactionResponse(domain.TransactionRecord{
		FromOwnerID:  &sender,
		ToOwnerID:    2,
		Amount:       100,
		FromUsername: "alice",
		ToUsername:   "bob",
	})
	assert.Equal(t, "alice", transfer.FromUsername)
	assert.Equal(t, "bob", transfer.ToUsername)
}

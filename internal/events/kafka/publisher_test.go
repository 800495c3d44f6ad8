package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-core/internal/domain"
	"ledger-core/internal/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesTransferPair(t *testing.T) {
	writer := &fakeWriter{}
	publisher := &Publisher{writer: writer}

	out, in := domain.NewTransferRecords(1, 2, "alice", "bob", 5000)
	err := publisher.Publish(context.Background(), events.NewLedgerEvent(out), events.NewLedgerEvent(in))
	require.NoError(t, err)
	require.Len(t, writer.msgs, 2)

	assert.Equal(t, "2", string(writer.msgs[0].Key))

	var decoded events.LedgerEvent
	require.NoError(t, json.Unmarshal(writer.msgs[1].Value, &decoded))
	assert.Equal(t, domain.TransactionKindTransferIn, decoded.Kind)
	assert.Equal(t, in.CorrelationID, decoded.CorrelationID)
	assert.Equal(t, int64(5000), decoded.AmountMinorUnits)
	require.NotNil(t, decoded.FromOwnerID)
	assert.Equal(t, int64(1), *decoded.FromOwnerID)

	assert.Equal(t, "kind", writer.msgs[0].Headers[0].Key)
	assert.Equal(t, "transfer_out", string(writer.msgs[0].Headers[0].Value))

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestPublishWrapsWriterError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unavailable")}
	publisher := &Publisher{writer: writer}

	err := publisher.Publish(context.Background(), events.NewLedgerEvent(domain.NewDepositRecord(1, 10)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestPublishNothing(t *testing.T) {
	writer := &fakeWriter{err: errors.New("must not be called")}
	publisher := &Publisher{writer: writer}
	assert.NoError(t, publisher.Publish(context.Background()))
}

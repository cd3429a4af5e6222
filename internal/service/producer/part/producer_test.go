package partproducer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhildabhi034/assembly-inventory/internal/converter"
	"github.com/nikhildabhi034/assembly-inventory/internal/model"
)

type fakeProducer struct {
	sendFn func(ctx context.Context, key, value []byte) error

	calls int
	lastK []byte
	lastV []byte
}

func (p *fakeProducer) Send(ctx context.Context, key, value []byte) error {
	p.calls++
	p.lastK = append([]byte(nil), key...)
	p.lastV = append([]byte(nil), value...)
	if p.sendFn == nil {
		return nil
	}
	return p.sendFn(ctx, key, value)
}

func TestSendPartAssembled(t *testing.T) {
	t.Parallel()

	event := model.BuiltPart{
		EventID: uuid.New(),
		PartID:  uuid.New(),
		Name:    "Widget",
		Units:   3,
	}

	t.Run("keys by part id and sends the json record", func(t *testing.T) {
		t.Parallel()

		p := &fakeProducer{}
		svc := NewPartProducer(p, converter.NewKafkaConverter())

		require.NoError(t, svc.SendPartAssembled(context.Background(), event))
		require.Equal(t, 1, p.calls)
		assert.Equal(t, event.PartID[:], p.lastK)

		var record struct {
			EventUUID string `json:"event_uuid"`
			PartUUID  string `json:"part_uuid"`
			PartName  string `json:"part_name"`
			Units     int64  `json:"units"`
		}
		require.NoError(t, json.Unmarshal(p.lastV, &record))
		assert.Equal(t, event.EventID.String(), record.EventUUID)
		assert.Equal(t, event.PartID.String(), record.PartUUID)
		assert.Equal(t, "Widget", record.PartName)
		assert.EqualValues(t, 3, record.Units)
	})

	t.Run("producer error is wrapped", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("broker unreachable")
		p := &fakeProducer{
			sendFn: func(context.Context, []byte, []byte) error { return wantErr },
		}
		svc := NewPartProducer(p, converter.NewKafkaConverter())

		err := svc.SendPartAssembled(context.Background(), event)
		require.Error(t, err)
		assert.ErrorIs(t, err, wantErr)
	})
}

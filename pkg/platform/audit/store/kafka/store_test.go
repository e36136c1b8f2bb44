package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"reviewdraw/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestAppendProducesKeyedJSON(t *testing.T) {
	producer := &fakeProducer{}
	store := New(producer, "selection-audit")

	event := audit.Event{
		ID:         "evt-1",
		Action:     audit.ActionExpertReplaced,
		RecordID:   "rec-1",
		RequestID:  "req-1",
		ExpertName: "",
		NewName:    "李四",
		Reason:     "conflict of interest",
	}
	require.NoError(t, store.Append(context.Background(), event))

	require.Len(t, producer.records, 1)
	record := producer.records[0]
	assert.Equal(t, "selection-audit", record.Topic)
	assert.Equal(t, []byte("rec-1"), record.Key)

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, event.NewName, decoded.NewName)
	assert.Equal(t, event.Action, decoded.Action)
}

func TestAppendSurfacesProduceError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unreachable")}
	store := New(producer, "selection-audit")

	err := store.Append(context.Background(), audit.Event{RecordID: "rec-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
}

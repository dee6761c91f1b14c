package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tokenvault/pkg/domain"
)

func TestRingBuffer_DropsOldestWhenFull(t *testing.T) {
	b := NewRingBuffer(2)

	assert.False(t, b.Enqueue(Event{ClientID: id.ClientID(1)}))
	assert.False(t, b.Enqueue(Event{ClientID: id.ClientID(2)}))
	assert.True(t, b.Enqueue(Event{ClientID: id.ClientID(3)}))

	require.Equal(t, 2, b.Len())
	assert.Equal(t, int64(1), b.Dropped())

	batch := b.DequeueBatch(10)
	require.Len(t, batch, 2)
	assert.Equal(t, id.ClientID(2), batch[0].ClientID)
	assert.Equal(t, id.ClientID(3), batch[1].ClientID)
	assert.Zero(t, b.Len())
	assert.Nil(t, b.DequeueBatch(1))
}

func TestRingBuffer_DequeueBatchWrapsAround(t *testing.T) {
	b := NewRingBuffer(3)
	for i := 1; i <= 3; i++ {
		b.Enqueue(Event{ClientID: id.ClientID(i)})
	}
	require.Len(t, b.DequeueBatch(2), 2)
	b.Enqueue(Event{ClientID: id.ClientID(4)})
	b.Enqueue(Event{ClientID: id.ClientID(5)})

	batch := b.DequeueBatch(3)
	require.Len(t, batch, 3)
	assert.Equal(t, []id.ClientID{3, 4, 5}, []id.ClientID{batch[0].ClientID, batch[1].ClientID, batch[2].ClientID})
}

func TestActionCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, ActionAccountResolved.Category())
	assert.Equal(t, CategorySecurity, ActionRateLimited.Category())
	assert.Equal(t, CategoryOperations, Action("unknown").Category())
}

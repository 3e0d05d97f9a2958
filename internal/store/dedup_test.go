package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/onchain-intel/internal/models"
)

func TestDedupeByKey_FirstWins(t *testing.T) {
	mkSwap := func(id string, amount float64) *models.SwapEvent {
		ev := &models.SwapEvent{ID: id, AmountUSD: amount}
		ev.EntityType = "swap"
		ev.Protocol = "uniswap-v3"
		ev.Network = "base"
		return ev
	}

	rows := []*models.SwapEvent{
		mkSwap("a", 100),
		mkSwap("b", 200),
		mkSwap("a", 999), // duplicate natural key, dropped
	}

	out := dedupeByKey(rows, func(r *models.SwapEvent) string { return r.NaturalKey() })

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, 100.0, out[0].AmountUSD) // first occurrence kept
	assert.Equal(t, "b", out[1].ID)
}

func TestDedupeByKey_SameIDDifferentEntity(t *testing.T) {
	// Identical IDs with different entity types are distinct rows
	borrow := &models.LendingEvent{ID: "e1"}
	borrow.EntityType = "borrow"
	deposit := &models.LendingEvent{ID: "e1"}
	deposit.EntityType = "deposit"

	out := dedupeByKey([]*models.LendingEvent{borrow, deposit},
		func(r *models.LendingEvent) string { return r.NaturalKey() })

	assert.Len(t, out, 2)
}

func TestDedupeByKey_Empty(t *testing.T) {
	out := dedupeByKey(nil, func(r *models.SwapEvent) string { return r.NaturalKey() })
	assert.Empty(t, out)
}

func TestChunkRows(t *testing.T) {
	rows := make([]int, 2500)
	for i := range rows {
		rows[i] = i
	}

	chunks := chunkRows(rows, 1000)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 500)
	assert.Equal(t, 0, chunks[0][0])
	assert.Equal(t, 2499, chunks[2][499])
}

func TestChunkRows_ExactMultiple(t *testing.T) {
	chunks := chunkRows(make([]int, 2000), 1000)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[1], 1000)
}

func TestChunkRows_SmallerThanBatch(t *testing.T) {
	chunks := chunkRows([]int{1, 2, 3}, 1000)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 3)
}

func TestChunkRows_Empty(t *testing.T) {
	assert.Nil(t, chunkRows[int](nil, 1000))
}

func TestChunkRows_InvalidSize(t *testing.T) {
	chunks := chunkRows([]int{1, 2}, 0)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 2)
}

func TestNaturalKeyComposition(t *testing.T) {
	ev := &models.SwapEvent{ID: "0xabc"}
	ev.EntityType = "swap"
	ev.Protocol = "aerodrome"
	ev.Network = "base"

	assert.Equal(t, fmt.Sprintf("%s|%s|%s|%s", "0xabc", "swap", "aerodrome", "base"), ev.NaturalKey())
}

package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnqueueDrainPreservesFIFOOrder(t *testing.T) {
	q := NewQueue()
	q.Enqueue(ActorPlayer, "p1", "look")
	q.Enqueue(ActorPlayer, "p1", "north")
	q.Enqueue(ActorAI, "npc1", "say hi")

	require.Equal(t, 3, q.Depth())
	drained := q.Drain(2)
	require.Len(t, drained, 2)
	require.Equal(t, "look", drained[0].Text)
	require.Equal(t, "north", drained[1].Text)
	require.Equal(t, 1, q.Depth())

	rest := q.Drain(10)
	require.Len(t, rest, 1)
	require.Equal(t, "say hi", rest[0].Text)
	require.Equal(t, 0, q.Depth())
}

func TestDrainLeavesRemainderForNextTick(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Enqueue(ActorPlayer, "p1", "cmd")
	}
	first := q.Drain(3)
	require.Len(t, first, 3)
	require.Equal(t, 2, q.Depth())

	second := q.Drain(3)
	require.Len(t, second, 2)
	require.Equal(t, 0, q.Depth())
}

func TestDrainOnEmptyQueueReturnsNil(t *testing.T) {
	q := NewQueue()
	require.Nil(t, q.Drain(5))
}

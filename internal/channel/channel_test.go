package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffered_SendReceive(t *testing.T) {
	c := NewBuffered[int](2)
	require.True(t, c.Send(1))
	require.True(t, c.TrySend(2))
	assert.False(t, c.TrySend(3), "full buffer drops")
	assert.Equal(t, 2, c.Len())

	assert.Equal(t, 1, <-c.Receive())
	assert.Equal(t, 2, <-c.Receive())
}

func TestBuffered_CloseEndsRange(t *testing.T) {
	c := NewBuffered[string](4)
	c.Send("a")
	c.Send("b")
	c.Close()
	c.Close()

	var got []string
	for v := range c.Receive() {
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b"}, got)
	assert.False(t, c.Send("c"))
	assert.False(t, c.TrySend("c"))
}

func TestUnbuffered_TrySendNeedsReceiver(t *testing.T) {
	c := NewUnbuffered[int]()
	assert.False(t, c.TrySend(1))
	assert.Equal(t, 0, c.Len())

	got := make(chan int)
	go func() { got <- <-c.Receive() }()
	require.True(t, c.Send(7))
	assert.Equal(t, 7, <-got)
}

func TestClose_UnblocksSender(t *testing.T) {
	c := NewUnbuffered[int]()
	result := make(chan bool)
	go func() { result <- c.Send(1) }()

	time.Sleep(20 * time.Millisecond)
	c.Close()

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Send still blocked after Close")
	}
}

func TestNew(t *testing.T) {
	var c Channel[int] = New[int](1)
	defer c.Close()
	assert.NotNil(t, c.Receive())
}

package engine

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spread/internal/ir"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()

	require.True(t, q.Enqueue(ir.Press(ir.KeyRightBracket)))
	require.True(t, q.Enqueue(ir.CtrlPress(ir.KeyUpArrow)))
	require.True(t, q.Enqueue(ir.Press(ir.KeyEscape)))
	assert.Equal(t, 3, q.Len())

	for _, want := range []ir.Key{ir.KeyRightBracket, ir.KeyUpArrow, ir.KeyEscape} {
		e, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, e.Key)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
	assert.Equal(t, 0, q.Len())
}

func TestQueue_NextBlocksUntilAvailable(t *testing.T) {
	q := NewQueue()
	done := make(chan ir.InputEvent)

	go func() {
		e, err := q.Next(context.Background())
		if err == nil {
			done <- e
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Enqueue(ir.Press(ir.KeyLeftBracket))

	select {
	case e := <-done:
		assert.Equal(t, ir.KeyLeftBracket, e.Key)
	case <-time.After(time.Second):
		t.Fatal("Next did not unblock")
	}
}

func TestQueue_CloseDrainsThenEOF(t *testing.T) {
	q := NewQueue()
	q.Enqueue(ir.Press(ir.KeyRightBracket))
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(ir.Press(ir.KeyEscape)), "enqueue after close should return false")

	e, err := q.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.KeyRightBracket, e.Key)

	_, err = q.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestQueue_CloseUnblocksNext(t *testing.T) {
	q := NewQueue()
	done := make(chan error)

	go func() {
		_, err := q.Next(context.Background())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("Next did not unblock after close")
	}
}

func TestQueue_NextHonoursContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(ir.Press(ir.KeyRightBracket))
			}
		}()
	}

	go func() {
		wg.Wait()
		q.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := 0
	for {
		_, err := q.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		received++
	}
	assert.Equal(t, producers*perProducer, received)
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource(ir.Press(ir.KeyM), ir.Press(ir.KeyI))
	ctx := context.Background()

	e, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.KeyM, e.Key)
	e, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.KeyI, e.Key)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

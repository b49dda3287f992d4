package conc

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	ants "github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/structclone-go/pkg/util/hardware"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

func TestPool(t *testing.T) {
	pool := NewDefaultPool[int]()
	defer pool.Release()
	assert.Equal(t, hardware.GetCPUNum(), pool.Cap())

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, future := range futures {
		assert.Equal(t, i*i, future.Value())
		assert.True(t, future.OK())
	}
}

func TestPoolError(t *testing.T) {
	pool := NewPool[string](2)
	defer pool.Release()

	boom := errors.New("boom")
	ok := pool.Submit(func() (string, error) { return "ok", nil })
	bad := pool.Submit(func() (string, error) { return "ignored", boom })

	assert.ErrorIs(t, AwaitAll(ok, bad), boom)
	v, err := bad.Await()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, v)
	<-ok.Inner()
	assert.Equal(t, "ok", ok.Value())
}

func TestPoolPreHandler(t *testing.T) {
	var calls atomic.Int32
	pool := NewPool[struct{}](1, WithPreHandler(func() { calls.Add(1) }))
	defer pool.Release()

	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(func() (struct{}, error) { return struct{}{}, nil }).Err())
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestPoolConcealPanic(t *testing.T) {
	var seen atomic.Value
	pool := NewPool[int](1, WithConcealPanic(true), WithPanicHandler(func(v any) { seen.Store(v) }))
	defer pool.Release()

	_, err := pool.Submit(func() (int, error) { panic("bad input") }).Await()
	assert.ErrorIs(t, err, merr.ErrOperationNotSupported)
	assert.Contains(t, err.Error(), "bad input")
	assert.Eventually(t, func() bool { return seen.Load() == "bad input" }, time.Second, 10*time.Millisecond)

	v, err := pool.Submit(func() (int, error) { return 7, nil }).Await()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestPoolPreAllocReleased(t *testing.T) {
	pool := NewPool[int](4, WithPreAlloc(true))
	assert.Equal(t, 4, pool.Cap())
	v, err := pool.Submit(func() (int, error) { return 1, nil }).Await()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	pool.Release()
	_, err = pool.Submit(func() (int, error) { return 2, nil }).Await()
	assert.ErrorIs(t, err, ants.ErrPoolClosed)
}

package recognizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/video-stream/transcriber/internal/device"
)

type stubEngine struct {
	name string
}

func (e *stubEngine) Recognize(ctx context.Context, audioPath string) (*Output, error) {
	return &Output{Text: e.name}, nil
}

func (e *stubEngine) Name() string { return e.name }

func countingLoader(calls *atomic.Int32, delay time.Duration) Loader {
	return LoaderFunc(func(ctx context.Context, spec LoadSpec) (Engine, error) {
		calls.Add(1)
		time.Sleep(delay)
		return &stubEngine{name: string(spec.Kind) + "/" + spec.ModelSize}, nil
	})
}

func TestCache_ConcurrentGetLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	cache := NewCache(device.CPU, map[Kind]Loader{Standard: countingLoader(&calls, 50*time.Millisecond)})

	const n = 16
	engines := make([]Engine, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := cache.Get(context.Background(), Standard, "tiny")
			assert.NoError(t, err)
			engines[i] = e
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 1; i < n; i++ {
		assert.Same(t, engines[0], engines[i])
	}
}

func TestCache_DistinctKeys(t *testing.T) {
	var calls atomic.Int32
	loader := countingLoader(&calls, 0)
	cache := NewCache(device.CPU, map[Kind]Loader{Standard: loader, Fast: loader})

	a, err := cache.Get(context.Background(), Standard, "tiny")
	require.NoError(t, err)
	b, err := cache.Get(context.Background(), Standard, "base")
	require.NoError(t, err)
	c, err := cache.Get(context.Background(), Fast, "tiny")
	require.NoError(t, err)
	again, err := cache.Get(context.Background(), Standard, "tiny")
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.NotSame(t, a, b)
	assert.NotSame(t, a, c)
	assert.Same(t, a, again)
	assert.Equal(t, []string{"fast/tiny", "standard/base", "standard/tiny"}, cache.Loaded())
}

func TestCache_FailedLoadNotCached(t *testing.T) {
	var calls atomic.Int32
	fail := true
	loader := LoaderFunc(func(ctx context.Context, spec LoadSpec) (Engine, error) {
		calls.Add(1)
		if fail {
			return nil, errors.New("boom")
		}
		return &stubEngine{name: "ok"}, nil
	})
	cache := NewCache(device.CPU, map[Kind]Loader{Standard: loader})

	_, err := cache.Get(context.Background(), Standard, "tiny")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, cache.Loaded())

	fail = false
	e, err := cache.Get(context.Background(), Standard, "tiny")
	require.NoError(t, err)
	assert.Equal(t, "ok", e.Name())
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_UnknownKind(t *testing.T) {
	cache := NewCache(device.CPU, map[Kind]Loader{})
	_, err := cache.Get(context.Background(), Fast, "tiny")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no loader registered")
}

func TestCache_PassesPolicy(t *testing.T) {
	var got LoadSpec
	loader := LoaderFunc(func(ctx context.Context, spec LoadSpec) (Engine, error) {
		got = spec
		return &stubEngine{}, nil
	})
	cache := NewCache(device.MPS, map[Kind]Loader{Fast: loader})

	_, err := cache.Get(context.Background(), Fast, "small")
	require.NoError(t, err)
	assert.Equal(t, LoadSpec{Kind: Fast, ModelSize: "small", Device: "cpu", Precision: PrecisionInt8}, got)
}

func TestCache_CancelledCallerDoesNotAbortLoad(t *testing.T) {
	var loadErr error
	loader := LoaderFunc(func(ctx context.Context, spec LoadSpec) (Engine, error) {
		loadErr = ctx.Err()
		return &stubEngine{}, nil
	})
	cache := NewCache(device.CPU, map[Kind]Loader{Standard: loader})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.Get(ctx, Standard, "tiny")
	require.NoError(t, err)
	assert.NoError(t, loadErr)
}

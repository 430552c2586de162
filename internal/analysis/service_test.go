package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HanTheDev/complexity-analyzer/internal/cache"
	"github.com/HanTheDev/complexity-analyzer/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []string
	reply   string
	err     error
	release chan struct{}
	entered chan struct{}
}

// Generate blocks on release when set, and fails like a real client would if
// its context ends first.
func (f *fakeGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, model)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestService(t *testing.T, gen *fakeGenerator, capacity int) *Service {
	t.Helper()
	ac, err := cache.NewAnalysisCache(capacity)
	require.NoError(t, err)
	return NewService(gen, ac, "gemini-flash-latest", 10000)
}

func TestAnalyze_CleansAndCaches(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"time_complexity\": \"O(n)\"}\n```"}
	svc := newTestService(t, gen, 100)

	first, err := svc.Analyze(context.Background(), "for i in range(n): pass", "")
	require.NoError(t, err)
	assert.Equal(t, `{"time_complexity": "O(n)"}`, first.RawOutput)
	assert.False(t, first.Cached)

	second, err := svc.Analyze(context.Background(), "for i in range(n): pass", "")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.RawOutput, second.RawOutput)

	assert.Equal(t, 1, gen.callCount())
	assert.Equal(t, []string{"gemini-flash-latest"}, gen.calls)
}

func TestAnalyze_DistinctModelsAreDistinctEntries(t *testing.T) {
	gen := &fakeGenerator{reply: "{}"}
	svc := newTestService(t, gen, 100)

	_, err := svc.Analyze(context.Background(), "x", "model-a")
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), "x", "model-b")
	require.NoError(t, err)

	assert.Equal(t, 2, gen.callCount())
	assert.Equal(t, 2, svc.cache.Len())
}

func TestAnalyze_InputTooLarge(t *testing.T) {
	gen := &fakeGenerator{reply: "{}"}
	svc := newTestService(t, gen, 100)

	_, err := svc.Analyze(context.Background(), strings.Repeat("a", 10001), "any-model")
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.Equal(t, 0, gen.callCount())
}

func TestValidate_CountsCharactersNotBytes(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{}, 1)

	// 10,000 three-byte runes is exactly at the limit.
	assert.NoError(t, svc.Validate(strings.Repeat("€", 10000)))
	assert.ErrorIs(t, svc.Validate(strings.Repeat("€", 10001)), ErrInputTooLarge)
}

func TestAnalyze_FailureIsWrappedAndNotCached(t *testing.T) {
	cause := errors.New("quota exceeded")
	gen := &fakeGenerator{err: cause}
	svc := newTestService(t, gen, 100)

	_, err := svc.Analyze(context.Background(), "x", "")
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 0, svc.cache.Len())

	gen.err = nil
	gen.reply = "{}"
	res, err := svc.Analyze(context.Background(), "x", "")
	require.NoError(t, err)
	assert.Equal(t, "{}", res.RawOutput)
	assert.Equal(t, 2, gen.callCount())
}

func TestAnalyze_EvictionBoundary(t *testing.T) {
	gen := &fakeGenerator{reply: "{}"}
	svc := newTestService(t, gen, 100)
	ctx := context.Background()

	for i := 0; i <= 100; i++ {
		_, err := svc.Analyze(ctx, fmt.Sprintf("code %d", i), "")
		require.NoError(t, err)
	}
	require.Equal(t, 101, gen.callCount())

	// The earliest entry was evicted; the latest is still served.
	res, err := svc.Analyze(ctx, "code 100", "")
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, 101, gen.callCount())

	res, err = svc.Analyze(ctx, "code 0", "")
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, 102, gen.callCount())
}

func newBlockingGenerator() *fakeGenerator {
	return &fakeGenerator{
		reply:   "{}",
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
}

func waitEntered(t *testing.T, gen *fakeGenerator) {
	t.Helper()
	select {
	case <-gen.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("model call never started")
	}
}

func TestAnalyze_ConcurrentMissesShareOneCall(t *testing.T) {
	gen := newBlockingGenerator()
	svc := newTestService(t, gen, 100)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Analyze(context.Background(), "same", "")
			if err == nil {
				results[i] = res.RawOutput
			}
		}(i)
	}

	// Hold the model call open until every caller has missed the cache.
	waitEntered(t, gen)
	require.Eventually(t, func() bool {
		return svc.cache.Stats().Misses == uint64(len(results))
	}, 2*time.Second, 5*time.Millisecond)
	close(gen.release)
	wg.Wait()

	assert.Equal(t, 1, gen.callCount())
	for _, r := range results {
		assert.Equal(t, "{}", r)
	}
}

func TestAnalyze_CancelledCallerDoesNotFailOthers(t *testing.T) {
	gen := newBlockingGenerator()
	svc := newTestService(t, gen, 100)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(firstCtx, "shared", "")
		firstErr <- err
	}()
	waitEntered(t, gen)

	second := make(chan *Result, 1)
	secondErr := make(chan error, 1)
	go func() {
		res, err := svc.Analyze(context.Background(), "shared", "")
		second <- res
		secondErr <- err
	}()
	require.Eventually(t, func() bool {
		return svc.cache.Stats().Misses == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancelFirst()
	err := <-firstErr
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.ErrorIs(t, err, context.Canceled)

	close(gen.release)
	res := <-second
	require.NoError(t, <-secondErr)
	assert.Equal(t, "{}", res.RawOutput)
	assert.Equal(t, 1, gen.callCount())
	assert.Equal(t, 1, svc.cache.Len())
}

func seriesCount(c prometheus.Collector) int {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		c.Collect(ch)
		close(ch)
	}()
	n := 0
	for range ch {
		n++
	}
	return n
}

func TestAnalyze_ModelLabelsStayBounded(t *testing.T) {
	gen := &fakeGenerator{reply: "{}"}
	svc := newTestService(t, gen, 100)

	for i := 0; i < 50; i++ {
		_, err := svc.Analyze(context.Background(), "x", fmt.Sprintf("client-model-%d", i))
		require.NoError(t, err)
	}
	_, err := svc.Analyze(context.Background(), "x", "")
	require.NoError(t, err)
	require.Equal(t, 51, gen.callCount())

	// default and "other", each with success and error outcomes at most
	assert.LessOrEqual(t, seriesCount(metrics.ModelRequestsTotal), 4)
	assert.LessOrEqual(t, seriesCount(metrics.ModelRequestDurationSeconds), 2)
}

func TestModelLabel(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{}, 1)

	assert.Equal(t, "gemini-flash-latest", svc.modelLabel("gemini-flash-latest"))
	assert.Equal(t, metrics.OtherModelLabel, svc.modelLabel("gemini-2.5-pro"))
	assert.Equal(t, metrics.OtherModelLabel, svc.modelLabel("anything/../else"))
}

func TestFlightKey_Unambiguous(t *testing.T) {
	a := flightKey(cache.Key{Code: "bc", Model: "a"})
	b := flightKey(cache.Key{Code: "c", Model: "ab"})
	assert.NotEqual(t, a, b)
}

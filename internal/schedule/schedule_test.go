package schedule

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eventradar/internal/cache"
	"eventradar/internal/catalog"
	"eventradar/internal/discovery"
	"eventradar/internal/hash/sha256"
	"eventradar/internal/ingest"
	kvmemory "eventradar/internal/kv/memory"
	"eventradar/internal/quota"
	"eventradar/internal/run"
	"eventradar/internal/selector"
	storememory "eventradar/internal/store/memory"
)

type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("run-%d", s.n), nil
}

// blockingSource lets a test hold a run open to exercise overlap control.
type blockingSource struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (s *blockingSource) Fetch(_ context.Context, q discovery.QueryDescriptor) ([]byte, error) {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return []byte(q.Text), nil
}

func (s *blockingSource) Parse(q discovery.QueryDescriptor, _ []byte) ([]discovery.EventRecord, error) {
	return []discovery.EventRecord{{Title: q.Text, URL: "https://example.com/" + q.Text}}, nil
}

func newScheduler(t *testing.T, source run.Source) (*Scheduler, *cache.Cache) {
	t.Helper()

	clock := &tickClock{now: time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)}
	hasher := sha256.New()
	kvStore := kvmemory.New()

	ledger, err := quota.New(kvStore, clock, quota.Config{DailyLimit: 100, SafetyBuffer: 10}, zap.NewNop())
	require.NoError(t, err)
	respCache := cache.New(kvStore, clock, hasher, cache.DefaultConfig(), zap.NewNop())

	runner, err := run.New(run.Deps{
		Ledger:    ledger,
		Allocator: quota.NewAllocator(ledger, zap.NewNop()),
		Selector:  selector.New(nil),
		Catalog: catalog.New([]discovery.QueryDescriptor{
			{Text: "urgent-1", Priority: discovery.PriorityUrgent, Kind: discovery.KindSearch},
		}),
		Cache:   respCache,
		Gate:    ingest.New(storememory.New(), hasher, zap.NewNop()),
		Sources: map[discovery.QueryKind]run.Source{discovery.KindSearch: source},
		IDs:     &seqIDs{},
		Clock:   clock,
	}, run.Config{})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.InitialRun = false
	sched, err := New(runner, respCache, cfg, zap.NewNop())
	require.NoError(t, err)
	return sched, respCache
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	t.Parallel()

	source := &blockingSource{release: make(chan struct{}), started: make(chan struct{})}
	sched, _ := newScheduler(t, source)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		sched.runOnce(ctx, discovery.RunQuick)
		close(done)
	}()
	<-source.started

	// Second invocation while the first holds the slot must bail out
	// immediately instead of running.
	sched.runOnce(ctx, discovery.RunQuick)

	close(source.release)
	<-done

	// Slot is free again after completion.
	assert.True(t, sched.tryAcquire(discovery.RunQuick))
}

func TestDistinctKindsDoNotBlockEachOther(t *testing.T) {
	t.Parallel()

	source := &blockingSource{release: make(chan struct{}), started: make(chan struct{})}
	sched, _ := newScheduler(t, source)

	require.True(t, sched.tryAcquire(discovery.RunQuick))
	assert.True(t, sched.tryAcquire(discovery.RunComprehensive))
	sched.release(discovery.RunQuick)
	sched.release(discovery.RunComprehensive)
}

func TestNewValidatesDependencies(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil, DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestStartRegistersAndStops(t *testing.T) {
	t.Parallel()

	source := &blockingSource{release: make(chan struct{}), started: make(chan struct{})}
	close(source.release)
	sched, _ := newScheduler(t, source)

	require.NoError(t, sched.Start(context.Background()))
	sched.Stop()
}

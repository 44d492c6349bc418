package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eventradar/internal/discovery"
	"eventradar/internal/kv"
	kvmemory "eventradar/internal/kv/memory"
)

// fakeClock is a settable clock for rollover and TTL scenarios.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLedger(t *testing.T, store kv.Store, clk discovery.Clock) *Ledger {
	t.Helper()
	ledger, err := New(store, clk, Config{DailyLimit: 100, SafetyBuffer: 10}, zap.NewNop())
	require.NoError(t, err)
	return ledger
}

func TestNewValidatesLimits(t *testing.T) {
	t.Parallel()

	store := kvmemory.New()
	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	_, err := New(store, clk, Config{DailyLimit: 0, SafetyBuffer: 0}, nil)
	require.Error(t, err)

	_, err = New(store, clk, Config{DailyLimit: 10, SafetyBuffer: 10}, nil)
	require.Error(t, err)
}

func TestStatusStartsFresh(t *testing.T) {
	t.Parallel()

	ledger := newTestLedger(t, kvmemory.New(), &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})

	status, err := ledger.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, status.Used)
	assert.Equal(t, 90, status.Remaining)
	assert.True(t, status.CanCall)
	assert.Zero(t, status.PercentUsed)
}

// TestRecordMaintainsInvariant drives the ledger to exhaustion and checks
// used+remaining stays pinned to the usable cap the whole way, with the
// cap+1-th record refused and state untouched.
func TestRecordMaintainsInvariant(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := newTestLedger(t, kvmemory.New(), &fakeClock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)})
	usable := ledger.UsableCap()

	for i := 0; i < usable; i++ {
		ok, err := ledger.Record(ctx, "events today Nigeria", discovery.KindSearch)
		require.NoError(t, err)
		require.True(t, ok)

		status, err := ledger.Status(ctx)
		require.NoError(t, err)
		require.Equal(t, usable, status.Used+status.Remaining)
	}

	ok, err := ledger.Record(ctx, "one too many", discovery.KindSearch)
	require.NoError(t, err)
	assert.False(t, ok)

	status, err := ledger.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, usable, status.Used)
	assert.Equal(t, 0, status.Remaining)
	assert.False(t, status.CanCall)

	history, err := ledger.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, usable)
}

func TestDayRolloverResetsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := &fakeClock{now: time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)}
	store := kvmemory.New()
	ledger := newTestLedger(t, store, clk)

	for i := 0; i < 90; i++ {
		ok, err := ledger.Record(ctx, "q", discovery.KindSearch)
		require.NoError(t, err)
		require.True(t, ok)
	}

	clk.advance(2 * time.Hour) // crosses midnight into June 2nd

	status, err := ledger.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Used)
	assert.Equal(t, 90, status.Remaining)
	assert.True(t, status.CanCall)

	// The prior day's record is superseded and pruned.
	keys, err := store.Keys(ctx, "quota/")
	require.NoError(t, err)
	assert.Equal(t, []string{"quota/2025-06-02"}, keys)
}

func TestStatePersistsAcrossLedgerInstances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kvmemory.New()
	clk := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}

	first := newTestLedger(t, store, clk)
	ok, err := first.Record(ctx, "q", discovery.KindSearch)
	require.NoError(t, err)
	require.True(t, ok)

	second := newTestLedger(t, store, clk)
	status, err := second.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Used)
	assert.Equal(t, 89, status.Remaining)
}

func TestCorruptStateResets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kvmemory.New()
	clk := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Put(ctx, "quota/2025-06-01", []byte("{not json")))

	ledger := newTestLedger(t, store, clk)
	status, err := ledger.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90, status.Remaining)
}

func TestCanAfford(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := newTestLedger(t, kvmemory.New(), &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)})

	ok, err := ledger.CanAfford(ctx, 90)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.CanAfford(ctx, 91)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTimezoneDecidesDayBoundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lagos, err := time.LoadLocation("Africa/Lagos") // UTC+1
	require.NoError(t, err)

	// 23:30 UTC on June 1st is already June 2nd in Lagos.
	clk := &fakeClock{now: time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)}
	store := kvmemory.New()
	ledger, err := New(store, clk, Config{DailyLimit: 100, SafetyBuffer: 10, Timezone: lagos}, zap.NewNop())
	require.NoError(t, err)

	_, err = ledger.Status(ctx)
	require.NoError(t, err)

	keys, err := store.Keys(ctx, "quota/")
	require.NoError(t, err)
	assert.Equal(t, []string{"quota/2025-06-02"}, keys)
}

func TestStoreFailurePropagates(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	ledger, err := New(&failingStore{}, clk, Config{DailyLimit: 100, SafetyBuffer: 10}, zap.NewNop())
	require.NoError(t, err)

	_, err = ledger.Status(context.Background())
	require.Error(t, err)

	_, err = ledger.Record(context.Background(), "q", discovery.KindSearch)
	require.Error(t, err)
}

type failingStore struct{}

var errDiskGone = errors.New("disk unavailable")

func (f *failingStore) Get(context.Context, string) ([]byte, error)   { return nil, errDiskGone }
func (f *failingStore) Put(context.Context, string, []byte) error     { return errDiskGone }
func (f *failingStore) Delete(context.Context, string) error          { return errDiskGone }
func (f *failingStore) Keys(context.Context, string) ([]string, error) { return nil, errDiskGone }

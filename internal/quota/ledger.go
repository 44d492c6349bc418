// Package quota implements daily call accounting against a hard provider
// ceiling, plus the advisory allocation of the remaining budget across runs.
package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"eventradar/internal/discovery"
	"eventradar/internal/kv"
	"eventradar/internal/metrics"
)

const (
	keyPrefix = "quota/"
	dayFormat = "2006-01-02"
)

// Config controls ledger limits. UsableCap = DailyLimit - SafetyBuffer; the
// buffer keeps the last calls of the day unattempted so an off-by-one can
// never overshoot the provider ceiling.
type Config struct {
	DailyLimit   int
	SafetyBuffer int
	// Timezone decides where the calendar day boundary falls. Defaults to UTC.
	Timezone *time.Location
}

// state is the persisted per-day quota record.
type state struct {
	Date           string                 `json:"date"`
	CallsUsed      int                    `json:"calls_used"`
	CallsRemaining int                    `json:"calls_remaining"`
	History        []discovery.CallRecord `json:"query_history"`
}

// Ledger tracks calls used and remaining for the current calendar day,
// backed by a durable key-value store with one record per day. All
// load-mutate-save cycles run under one mutex so concurrent runs cannot
// both spend the last call.
type Ledger struct {
	mu     sync.Mutex
	store  kv.Store
	clock  discovery.Clock
	logger *zap.Logger
	limit  int
	buffer int
	loc    *time.Location
}

// New constructs a Ledger. DailyLimit must exceed SafetyBuffer.
func New(store kv.Store, clock discovery.Clock, cfg Config, logger *zap.Logger) (*Ledger, error) {
	if cfg.DailyLimit <= 0 {
		return nil, fmt.Errorf("daily limit must be > 0")
	}
	if cfg.SafetyBuffer < 0 || cfg.SafetyBuffer >= cfg.DailyLimit {
		return nil, fmt.Errorf("safety buffer must be in [0, daily limit)")
	}
	loc := cfg.Timezone
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		store:  store,
		clock:  clock,
		logger: logger,
		limit:  cfg.DailyLimit,
		buffer: cfg.SafetyBuffer,
		loc:    loc,
	}, nil
}

// UsableCap returns the number of calls the ledger will allow per day.
func (l *Ledger) UsableCap() int {
	return l.limit - l.buffer
}

// Status reports the current day's usage. Reading triggers the day-rollover
// check: a persisted record from a prior day is superseded by a fresh one.
func (l *Ledger) Status(ctx context.Context) (discovery.QuotaStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return discovery.QuotaStatus{}, err
	}
	return l.status(st), nil
}

// CanAfford reports whether n more calls fit in today's remaining budget.
func (l *Ledger) CanAfford(ctx context.Context, n int) (bool, error) {
	status, err := l.Status(ctx)
	if err != nil {
		return false, err
	}
	return status.Remaining >= n, nil
}

// Record accounts for one external call. It returns false without mutating
// state when the budget is exhausted; otherwise it updates counters, appends
// a history entry, and persists the whole record before returning true.
func (l *Ledger) Record(ctx context.Context, query string, kind discovery.QueryKind) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	if st.CallsRemaining <= 0 {
		l.logger.Warn("quota exhausted, call refused",
			zap.String("query", truncate(query, 50)),
			zap.String("kind", string(kind)),
		)
		return false, nil
	}

	st.CallsUsed++
	st.CallsRemaining--
	st.History = append(st.History, discovery.CallRecord{
		Timestamp: l.clock.Now(),
		Query:     query,
		Kind:      kind,
	})

	if err := l.save(ctx, st); err != nil {
		return false, err
	}
	metrics.SetQuotaUsage(st.CallsUsed, l.UsableCap())

	l.logger.Info("api call recorded",
		zap.Int("call_number", st.CallsUsed),
		zap.String("query", truncate(query, 30)),
		zap.Float64("percent_used", percent(st.CallsUsed, l.UsableCap())),
	)
	switch {
	case st.CallsRemaining <= 5:
		l.logger.Error("quota nearly gone", zap.Int("calls_remaining", st.CallsRemaining))
	case st.CallsRemaining <= 20:
		l.logger.Warn("quota running low", zap.Int("calls_remaining", st.CallsRemaining))
	}
	return true, nil
}

// History returns today's call history.
func (l *Ledger) History(ctx context.Context) ([]discovery.CallRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]discovery.CallRecord, len(st.History))
	copy(out, st.History)
	return out, nil
}

func (l *Ledger) status(st state) discovery.QuotaStatus {
	return discovery.QuotaStatus{
		Used:        st.CallsUsed,
		Remaining:   st.CallsRemaining,
		PercentUsed: percent(st.CallsUsed, l.UsableCap()),
		CanCall:     st.CallsRemaining > 0,
	}
}

func (l *Ledger) today() string {
	return l.clock.Now().In(l.loc).Format(dayFormat)
}

// load reads today's record, creating (and persisting) a fresh one when the
// stored record is absent, from a prior day, or unreadable. Store I/O errors
// propagate: quota correctness cannot be guaranteed without durable state.
func (l *Ledger) load(ctx context.Context) (state, error) {
	day := l.today()
	raw, err := l.store.Get(ctx, keyPrefix+day)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return l.reset(ctx, day)
		}
		return state{}, fmt.Errorf("load quota state: %w", err)
	}

	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		l.logger.Warn("quota state unreadable, resetting", zap.String("day", day), zap.Error(err))
		return l.reset(ctx, day)
	}
	return st, nil
}

// reset writes a fresh record for day and prunes superseded prior-day keys.
func (l *Ledger) reset(ctx context.Context, day string) (state, error) {
	st := state{
		Date:           day,
		CallsUsed:      0,
		CallsRemaining: l.UsableCap(),
		History:        []discovery.CallRecord{},
	}
	if err := l.save(ctx, st); err != nil {
		return state{}, err
	}
	metrics.SetQuotaUsage(0, l.UsableCap())
	l.logger.Info("quota reset for new day",
		zap.String("day", day),
		zap.Int("calls_available", st.CallsRemaining),
	)

	// Prune is best effort; a failure leaves stale prior-day records behind.
	keys, err := l.store.Keys(ctx, keyPrefix)
	if err != nil {
		return st, nil
	}
	for _, key := range keys {
		if key != keyPrefix+day {
			_ = l.store.Delete(ctx, key)
		}
	}
	return st, nil
}

func (l *Ledger) save(ctx context.Context, st state) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal quota state: %w", err)
	}
	if err := l.store.Put(ctx, keyPrefix+st.Date, raw); err != nil {
		return fmt.Errorf("persist quota state: %w", err)
	}
	return nil
}

func percent(used, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(used) / float64(total) * 100
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

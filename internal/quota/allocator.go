package quota

import (
	"context"

	"go.uber.org/zap"

	"eventradar/internal/discovery"
)

// Allocator splits the remaining daily budget across run kinds. Plans are
// advisory and recomputed on every call; two plans taken an instant apart may
// differ if quota was consumed in between.
type Allocator struct {
	ledger *Ledger
	logger *zap.Logger
}

// NewAllocator constructs an Allocator over the given ledger.
func NewAllocator(ledger *Ledger, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{ledger: ledger, logger: logger}
}

// Plan derives call budgets from the current remaining quota using fixed
// fractions: a third for comprehensive, a sixth for quick, an eighth for
// social, and a tenth held back as an emergency reserve no run consumes.
// Nonzero shares are floored at 1; when the share sum exceeds the remaining
// budget, shares are scaled down proportionally with the same floor.
func (a *Allocator) Plan(ctx context.Context) (discovery.AllocationPlan, error) {
	status, err := a.ledger.Status(ctx)
	if err != nil {
		return nil, err
	}
	remaining := status.Remaining

	plan := discovery.AllocationPlan{
		discovery.RunComprehensive: share(remaining, 3),
		discovery.RunQuick:         share(remaining, 6),
		discovery.RunSocial:        share(remaining, 8),
		discovery.RunEmergency:     share(remaining, 10),
	}

	total := 0
	for _, v := range plan {
		total += v
	}
	if total > remaining && total > 0 {
		scale := float64(remaining) / float64(total)
		for kind, v := range plan {
			if v == 0 {
				continue
			}
			scaled := int(float64(v) * scale)
			if scaled < 1 {
				scaled = 1
			}
			plan[kind] = scaled
		}
	}

	a.logger.Debug("daily quota allocation",
		zap.Int("remaining", remaining),
		zap.Int("comprehensive", plan[discovery.RunComprehensive]),
		zap.Int("quick", plan[discovery.RunQuick]),
		zap.Int("social", plan[discovery.RunSocial]),
		zap.Int("emergency", plan[discovery.RunEmergency]),
	)
	return plan, nil
}

// share computes remaining/div floored at 1, or 0 when nothing remains.
func share(remaining, div int) int {
	if remaining <= 0 {
		return 0
	}
	s := remaining / div
	if s < 1 {
		return 1
	}
	return s
}

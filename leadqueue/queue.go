package leadqueue

import (
	"context"
	"errors"
	"time"

	"leadflow/sheets"

	"golang.org/x/sync/errgroup"
)

// ErrNoLeadsAvailable signals an empty queue. It is a normal empty-result
// condition, not a failure.
var ErrNoLeadsAvailable = errors.New("leadqueue: no leads available")

// ConfigSource resolves the configured sheet reference. An unconfigured
// system surfaces its own error (sheetcfg.ErrNotConfigured), which callers
// must not confuse with a store failure.
type ConfigSource interface {
	Ref(ctx context.Context) (sheets.SheetRef, error)
}

// NextLeadResult carries a claimed lead and the queue depth at claim time.
type NextLeadResult struct {
	Lead       Lead
	QueueCount int
}

// Queue composes the eligibility filter and the lock manager into the
// "get next lead" operation.
type Queue struct {
	cfg     ConfigSource
	store   sheets.Store
	manager *LockManager
	now     func() time.Time
}

func NewQueue(cfg ConfigSource, store sheets.Store, manager *LockManager) *Queue {
	return &Queue{
		cfg:     cfg,
		store:   store,
		manager: manager,
		now:     time.Now,
	}
}

// WithClock overrides the queue's time source, for tests.
func (q *Queue) WithClock(now func() time.Time) *Queue {
	q.now = now
	return q
}

// NextLead picks the first eligible row in sheet order and claims it for
// the agent. When another agent wins the claim between our read and our
// write, the next candidate is tried in the same call; the caller never
// sees the lost race. The read-filter-claim sequence spans multiple store
// round trips and holds no lock across them, so no rollback is attempted
// when a claim write fails; the caller simply retries.
func (q *Queue) NextLead(ctx context.Context, agentID string) (NextLeadResult, error) {
	ref, err := q.cfg.Ref(ctx)
	if err != nil {
		return NextLeadResult{}, err
	}

	var (
		header []string
		rows   [][]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		header, err = q.store.Header(gctx, ref)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = q.store.Rows(gctx, ref)
		return err
	})
	if err := g.Wait(); err != nil {
		return NextLeadResult{}, err
	}

	eligible := EligibleLeads(header, rows, q.now())
	if len(eligible) == 0 {
		return NextLeadResult{}, ErrNoLeadsAvailable
	}

	for _, lead := range eligible {
		err := q.manager.Claim(ctx, ref, lead.RowIndex, agentID)
		if errors.Is(err, ErrLeadAlreadyClaimed) {
			continue
		}
		if err != nil {
			return NextLeadResult{}, err
		}
		return NextLeadResult{Lead: lead, QueueCount: len(eligible)}, nil
	}

	return NextLeadResult{}, ErrNoLeadsAvailable
}

// Ref exposes the configured sheet reference so callers can address
// disposition writes against the same tab the queue reads from.
func (q *Queue) Ref(ctx context.Context) (sheets.SheetRef, error) {
	return q.cfg.Ref(ctx)
}

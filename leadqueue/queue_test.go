package leadqueue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"leadflow/sheets"

	"golang.org/x/sync/errgroup"
)

func newQueueFixture(rows [][]string) (*Queue, *fakeStore, *fakeLockRepository) {
	store := newFakeStore(leadHeader(), rows)
	locks := newFakeLockRepository()
	manager := NewLockManager(locks, store)
	queue := NewQueue(fixedConfig{ref: sheets.SheetRef{SheetID: "sheet-1", TabName: "Leads"}}, store, manager).
		WithClock(func() time.Time { return testNow })
	return queue, store, locks
}

func TestQueue_ClaimsSingleEligibleRow(t *testing.T) {
	queue, store, locks := newQueueFixture([][]string{
		{"Acme", "DNC", "", "", ""},
		{"Beta", "", "", "", ""},
	})

	res, err := queue.NextLead(context.Background(), "agent-7")
	if err != nil {
		t.Fatalf("next lead: %v", err)
	}
	if res.Lead.RowIndex != 3 {
		t.Fatalf("expected row index 3, got %d", res.Lead.RowIndex)
	}
	if res.QueueCount != 1 {
		t.Fatalf("expected queue_count 1, got %d", res.QueueCount)
	}
	if res.Lead.Fields["Business Name"] != "Beta" {
		t.Fatalf("expected Beta, got %q", res.Lead.Fields["Business Name"])
	}

	marker := store.cell(3, ColLockStatus)
	if marker == "" {
		t.Fatal("expected non-empty lock marker written to sheet")
	}
	if !strings.Contains(marker, "agent-7") {
		t.Fatalf("expected marker to name the agent, got %q", marker)
	}
	if holder, held := locks.holder(3); !held || holder != "agent-7" {
		t.Fatalf("expected lock held by agent-7, got %q held=%v", holder, held)
	}
}

func TestQueue_FIFOByRowPosition(t *testing.T) {
	queue, _, _ := newQueueFixture([][]string{
		{"First", "", "", "", ""},
		{"Second", "", "", "", ""},
	})

	res, err := queue.NextLead(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("next lead: %v", err)
	}
	if res.Lead.RowIndex != 2 {
		t.Fatalf("expected first row (index 2), got %d", res.Lead.RowIndex)
	}
	if res.QueueCount != 2 {
		t.Fatalf("expected queue_count 2, got %d", res.QueueCount)
	}
}

func TestQueue_NoLeadsAvailable(t *testing.T) {
	queue, _, _ := newQueueFixture([][]string{
		{"Acme", "DNC", "", "", ""},
		{"Beta", "CB", "2099-01-01", "09:00", ""},
	})

	_, err := queue.NextLead(context.Background(), "agent-1")
	if !errors.Is(err, ErrNoLeadsAvailable) {
		t.Fatalf("expected ErrNoLeadsAvailable, got %v", err)
	}
}

func TestQueue_ConfigurationErrorPassesThrough(t *testing.T) {
	errNotConfigured := errors.New("sheetcfg: no sheet configured")
	store := newFakeStore(leadHeader(), nil)
	queue := NewQueue(fixedConfig{err: errNotConfigured}, store, NewLockManager(newFakeLockRepository(), store))

	_, err := queue.NextLead(context.Background(), "agent-1")
	if !errors.Is(err, errNotConfigured) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if errors.Is(err, ErrNoLeadsAvailable) {
		t.Fatal("configuration error must not read as empty queue")
	}
}

func TestQueue_LostRaceAdvancesToNextCandidate(t *testing.T) {
	queue, _, locks := newQueueFixture([][]string{
		{"First", "", "", "", ""},
		{"Second", "", "", "", ""},
	})

	// Another agent wins row 2 between our read and our claim: the lock
	// exists but the marker cell was still empty when we read.
	ref := sheets.SheetRef{SheetID: "sheet-1", TabName: "Leads"}
	if err := locks.Acquire(context.Background(), ref, 2, "rival"); err != nil {
		t.Fatalf("seed rival lock: %v", err)
	}

	res, err := queue.NextLead(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("next lead: %v", err)
	}
	if res.Lead.RowIndex != 3 {
		t.Fatalf("expected fallback to row 3, got %d", res.Lead.RowIndex)
	}
}

func TestQueue_AllCandidatesClaimedMeansEmpty(t *testing.T) {
	queue, _, locks := newQueueFixture([][]string{
		{"Only", "", "", "", ""},
	})

	ref := sheets.SheetRef{SheetID: "sheet-1", TabName: "Leads"}
	if err := locks.Acquire(context.Background(), ref, 2, "rival"); err != nil {
		t.Fatalf("seed rival lock: %v", err)
	}

	_, err := queue.NextLead(context.Background(), "agent-1")
	if !errors.Is(err, ErrNoLeadsAvailable) {
		t.Fatalf("expected ErrNoLeadsAvailable when every candidate is claimed, got %v", err)
	}
}

func TestQueue_ConcurrentAgentsNeverShareARow(t *testing.T) {
	queue, _, _ := newQueueFixture([][]string{
		{"A", "", "", "", ""},
		{"B", "", "", "", ""},
		{"C", "", "", "", ""},
		{"D", "", "", "", ""},
	})

	var (
		mu      sync.Mutex
		claimed = map[int]string{}
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 8; i++ {
		agent := string(rune('a' + i))
		g.Go(func() error {
			res, err := queue.NextLead(ctx, agent)
			if errors.Is(err, ErrNoLeadsAvailable) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if prev, dup := claimed[res.Lead.RowIndex]; dup {
				t.Errorf("row %d claimed by both %s and %s", res.Lead.RowIndex, prev, agent)
			}
			claimed[res.Lead.RowIndex] = agent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent claims: %v", err)
	}
	if len(claimed) != 4 {
		t.Fatalf("expected all 4 rows claimed exactly once, got %d", len(claimed))
	}
}

func TestLockManager_ReleaseClearsMarkerAndLock(t *testing.T) {
	store := newFakeStore(leadHeader(), [][]string{{"Acme", "", "", "", ""}})
	locks := newFakeLockRepository()
	manager := NewLockManager(locks, store)
	ref := sheets.SheetRef{SheetID: "sheet-1", TabName: "Leads"}
	ctx := context.Background()

	if err := manager.Claim(ctx, ref, 2, "agent-5"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := manager.Release(ctx, ref, 2); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := store.cell(2, ColLockStatus); got != "" {
		t.Fatalf("expected marker cleared, got %q", got)
	}
	if _, held := locks.holder(2); held {
		t.Fatal("expected lock dropped")
	}

	// Releasing again is a no-op, not an error.
	if err := manager.Release(ctx, ref, 2); err != nil {
		t.Fatalf("double release: %v", err)
	}
}

func TestLockManager_MarkerWriteFailureRollsBackLock(t *testing.T) {
	store := newFakeStore(leadHeader(), [][]string{{"Acme", "", "", "", ""}})
	locks := newFakeLockRepository()
	manager := NewLockManager(locks, store)
	ref := sheets.SheetRef{SheetID: "sheet-1", TabName: "Leads"}

	store.failNext = errors.New("quota exceeded")
	err := manager.Claim(context.Background(), ref, 2, "agent-5")
	if err == nil {
		t.Fatal("expected marker write failure to propagate")
	}
	if _, held := locks.holder(2); held {
		t.Fatal("expected lock released after marker write failure")
	}
}

package expiry

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contracts-backend/internal/audit"
	"contracts-backend/internal/contracts"
)

var sweepNow = time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)

func daysFromNow(n int) *time.Time {
	t := sweepNow.AddDate(0, 0, n)
	return &t
}

func newContracts(t *testing.T) (*contracts.Service, *audit.MemoryStore) {
	t.Helper()
	store := audit.NewMemoryStore()
	svc := &contracts.Service{
		Repo:  contracts.NewMemoryRepo(),
		Audit: store,
		Now:   func() time.Time { return sweepNow },
	}
	ctx := context.Background()
	for doc, end := range map[string]*time.Time{
		"doc-overdue-1": daysFromNow(-1),
		"doc-overdue-2": daysFromNow(-40),
		"doc-current":   daysFromNow(3),
	} {
		if _, err := svc.Create(ctx, "seed", doc, contracts.ContractInput{Status: contracts.StatusSigned, EndDate: end}); err != nil {
			t.Fatalf("seed %s: %v", doc, err)
		}
	}
	return svc, store
}

func TestSweepExpiresOverdueContracts(t *testing.T) {
	svc, store := newContracts(t)
	sweeper := &Sweeper{Contracts: svc, Concurrency: 2}
	ctx := context.Background()

	res, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.Expired != 2 || res.Skipped != 0 || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	for doc, want := range map[string]contracts.Status{
		"doc-overdue-1": contracts.StatusExpired,
		"doc-overdue-2": contracts.StatusExpired,
		"doc-current":   contracts.StatusSigned,
	} {
		got, _, err := svc.Get(ctx, doc)
		if err != nil {
			t.Fatalf("get %s: %v", doc, err)
		}
		if got.Status != want {
			t.Fatalf("%s: expected %s, got %s", doc, want, got.Status)
		}
	}

	entries, err := store.ListByEntity(ctx, audit.EntityContract, "doc-overdue-1", 0)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(entries) == 0 || entries[0].ActorID != Actor || entries[0].ToStatus != "expired" {
		t.Fatalf("expected sweeper audit entry, got %+v", entries)
	}

	again, err := sweeper.Sweep(ctx)
	if err != nil || again != (Result{}) {
		t.Fatalf("second sweep should be a no-op, got %+v, %v", again, err)
	}
}

type flakyWorkflow struct {
	*contracts.Service
	mu       sync.Mutex
	failures map[string]error
}

func (f *flakyWorkflow) UpdateStatus(ctx context.Context, actorID, documentID string, to contracts.Status) error {
	f.mu.Lock()
	err, ok := f.failures[documentID]
	f.mu.Unlock()
	if ok {
		return err
	}
	return f.Service.UpdateStatus(ctx, actorID, documentID, to)
}

func TestSweepSkipsConflictsAndReportsFailures(t *testing.T) {
	svc, _ := newContracts(t)
	boom := errors.New("connection reset")
	flaky := &flakyWorkflow{Service: svc, failures: map[string]error{
		"doc-overdue-1": contracts.ErrStatusConflict,
		"doc-overdue-2": boom,
	}}
	sweeper := &Sweeper{Contracts: flaky}

	res, err := sweeper.Sweep(context.Background())
	if res.Expired != 0 || res.Skipped != 1 || res.Failed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	var expireErr ErrExpire
	if !errors.As(err, &expireErr) || expireErr.DocumentID != "doc-overdue-2" {
		t.Fatalf("expected ErrExpire for doc-overdue-2, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

type failingList struct{}

func (failingList) ListOverdue(context.Context) ([]contracts.Contract, error) {
	return nil, errors.New("db down")
}

func (failingList) UpdateStatus(context.Context, string, string, contracts.Status) error {
	return nil
}

func TestSweepFailsWhenListingFails(t *testing.T) {
	sweeper := &Sweeper{Contracts: failingList{}}
	if _, err := sweeper.Sweep(context.Background()); err == nil {
		t.Fatalf("expected listing error")
	}
}

type trackingWorkflow struct {
	overdue  []contracts.Contract
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (w *trackingWorkflow) ListOverdue(context.Context) ([]contracts.Contract, error) {
	return w.overdue, nil
}

func (w *trackingWorkflow) UpdateStatus(_ context.Context, _, documentID string, _ contracts.Status) error {
	n := w.inFlight.Add(1)
	defer w.inFlight.Add(-1)
	for {
		p := w.peak.Load()
		if n <= p || w.peak.CompareAndSwap(p, n) {
			break
		}
	}
	w.calls.Add(1)
	time.Sleep(2 * time.Millisecond)
	if documentID == "doc-0" {
		return errors.New("write failed")
	}
	return nil
}

func TestSweepBoundsConcurrencyAndContinuesPastFailures(t *testing.T) {
	w := &trackingWorkflow{}
	for i := 0; i < 12; i++ {
		w.overdue = append(w.overdue, contracts.Contract{DocumentID: "doc-" + strconv.Itoa(i)})
	}
	sweeper := &Sweeper{Contracts: w, Concurrency: 3}

	res, err := sweeper.Sweep(context.Background())
	if res.Expired != 11 || res.Failed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if err == nil {
		t.Fatalf("expected the failed contract to be reported")
	}
	if got := w.calls.Load(); got != 12 {
		t.Fatalf("expected every contract attempted, got %d", got)
	}
	if peak := w.peak.Load(); peak > 3 {
		t.Fatalf("expected at most 3 concurrent updates, got %d", peak)
	}
}

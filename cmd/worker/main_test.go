package main

import (
	"context"
	"testing"
	"time"

	"contracts-backend/internal/contracts"
	"contracts-backend/internal/expiry"
)

func TestRunSweepsOnceBeforeStopping(t *testing.T) {
	svc := &contracts.Service{Repo: contracts.NewMemoryRepo()}
	ctx := context.Background()
	end := time.Now().UTC().AddDate(0, 0, -2)
	if _, err := svc.Create(ctx, "seed", "doc-1", contracts.ContractInput{Status: contracts.StatusSigned, EndDate: &end}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		run(runCtx, &expiry.Sweeper{Contracts: svc}, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancellation")
	}

	got, _, err := svc.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != contracts.StatusExpired {
		t.Fatalf("expected expired, got %s", got.Status)
	}
}

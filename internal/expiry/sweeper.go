package expiry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"contracts-backend/internal/contracts"
	"contracts-backend/internal/shared/metrics"
	"contracts-backend/internal/shared/telemetry"
)

// Actor is recorded in the audit log for sweeper transitions.
const Actor = "system:expiry"

const defaultConcurrency = 4

// Workflow is the slice of the contract service the sweeper drives.
type Workflow interface {
	ListOverdue(ctx context.Context) ([]contracts.Contract, error)
	UpdateStatus(ctx context.Context, actorID, documentID string, to contracts.Status) error
}

// Result summarizes one sweep.
type Result struct {
	Expired int
	Skipped int
	Failed  int
}

// ErrExpire indicates a single contract could not be moved to expired.
type ErrExpire struct {
	DocumentID string
	Err        error
}

func (e ErrExpire) Error() string {
	if e.Err == nil {
		return "expire contract " + e.DocumentID
	}
	return fmt.Sprintf("expire contract %s: %v", e.DocumentID, e.Err)
}

func (e ErrExpire) Unwrap() error { return e.Err }

// Sweeper moves signed contracts past their end date to expired.
type Sweeper struct {
	Contracts   Workflow
	Concurrency int
}

// Sweep expires every overdue contract. Contracts that changed status
// concurrently are skipped. The returned error joins every per-contract
// failure.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	overdue, err := s.Contracts.ListOverdue(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list overdue contracts: %w", err)
	}
	if len(overdue) == 0 {
		return Result{}, nil
	}

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	var (
		mu     sync.Mutex
		result Result
		errs   []error
	)
	// Workers always return nil so one failed contract never stops the rest.
	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, c := range overdue {
		if ctx.Err() != nil {
			break
		}
		documentID := c.DocumentID
		g.Go(func() error {
			outcome, err := s.expire(ctx, documentID)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case metrics.ResultOK:
				result.Expired++
			case metrics.ResultSkipped:
				result.Skipped++
			default:
				result.Failed++
				errs = append(errs, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return result, errors.Join(errs...)
}

func (s *Sweeper) expire(ctx context.Context, documentID string) (string, error) {
	err := s.Contracts.UpdateStatus(ctx, Actor, documentID, contracts.StatusExpired)
	var transitionErr *contracts.TransitionError
	switch {
	case err == nil:
		metrics.IncExpirySweep(metrics.ResultOK)
		telemetry.Info("expiry.contract_expired", map[string]any{"document_id": documentID})
		return metrics.ResultOK, nil
	case errors.Is(err, contracts.ErrStatusConflict),
		errors.Is(err, contracts.ErrNotFound),
		errors.As(err, &transitionErr):
		metrics.IncExpirySweep(metrics.ResultSkipped)
		telemetry.Warn("expiry.contract_skipped", map[string]any{
			"document_id": documentID,
			"error":       err.Error(),
		})
		return metrics.ResultSkipped, nil
	default:
		metrics.IncExpirySweep(metrics.ResultError)
		telemetry.Error("expiry.contract_failed", map[string]any{
			"document_id": documentID,
			"error":       err.Error(),
		})
		return metrics.ResultError, ErrExpire{DocumentID: documentID, Err: err}
	}
}

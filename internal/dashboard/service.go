package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"contracts-backend/internal/contracts"
)

// DefaultWindowDays is how far ahead the dashboard looks for expiring contracts.
const DefaultWindowDays = 60

// ErrInvalidInput indicates a bad dashboard request.
var ErrInvalidInput = errors.New("invalid input")

// ContractSource is the slice of the contracts service the dashboard needs.
type ContractSource interface {
	Summarize(ctx context.Context) (contracts.Summary, error)
	ListExpiring(ctx context.Context, daysAhead int) ([]contracts.ContractWithNames, error)
	UpdateStatus(ctx context.Context, actorID, documentID string, to contracts.Status) error
}

// Item is one expiring contract with its urgency.
type Item struct {
	Contract        contracts.ContractWithNames
	DaysUntilExpiry int
	Urgency         Tier
}

// View is the aggregate dashboard state.
type View struct {
	Summary     contracts.Summary
	Expiring    []Item
	WindowDays  int
	GeneratedAt time.Time
}

// Service assembles the dashboard view and forwards user actions.
type Service struct {
	Contracts  ContractSource
	WindowDays int
	// OnSelect receives the document id of a contract the user picked.
	OnSelect func(documentID string)
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) windowDays() int {
	if s.WindowDays > 0 {
		return s.WindowDays
	}
	return DefaultWindowDays
}

// Load fetches the summary and the expiring list concurrently and returns
// once both have completed. The first failure cancels the other request.
func (s *Service) Load(ctx context.Context) (View, error) {
	window := s.windowDays()

	var (
		summary  contracts.Summary
		expiring []contracts.ContractWithNames
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.Contracts.Summarize(gctx)
		if err != nil {
			return fmt.Errorf("summarize contracts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expiring, err = s.Contracts.ListExpiring(gctx, window)
		if err != nil {
			return fmt.Errorf("list expiring contracts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	now := s.now()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	items := make([]Item, 0, len(expiring))
	for _, c := range expiring {
		if c.EndDate == nil {
			continue
		}
		days := contracts.DaysUntil(today, *c.EndDate)
		items = append(items, Item{
			Contract:        c,
			DaysUntilExpiry: days,
			Urgency:         Urgency(days),
		})
	}

	return View{
		Summary:     summary,
		Expiring:    items,
		WindowDays:  window,
		GeneratedAt: now,
	}, nil
}

// Select hands the document id of a picked contract to OnSelect.
func (s *Service) Select(documentID string) error {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return fmt.Errorf("%w: document id required", ErrInvalidInput)
	}
	if s.OnSelect != nil {
		s.OnSelect(documentID)
	}
	return nil
}

// Transition asks the workflow to move a contract to a new status.
func (s *Service) Transition(ctx context.Context, actorID, documentID string, to contracts.Status) error {
	return s.Contracts.UpdateStatus(ctx, actorID, documentID, to)
}

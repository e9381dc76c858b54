package dashboard

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"contracts-backend/internal/contracts"
)

// rendezvousSource blocks each read until both reads have started, so a
// sequential loader times out instead of passing.
type rendezvousSource struct {
	arrived  int32
	both     chan struct{}
	summary  contracts.Summary
	expiring []contracts.ContractWithNames
	listErr  error
	gotDays  int32

	transitions []string
}

func newRendezvousSource() *rendezvousSource {
	return &rendezvousSource{both: make(chan struct{}), summary: contracts.EmptySummary()}
}

func (r *rendezvousSource) rendezvous(ctx context.Context) error {
	if atomic.AddInt32(&r.arrived, 1) == 2 {
		close(r.both)
	}
	select {
	case <-r.both:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *rendezvousSource) Summarize(ctx context.Context) (contracts.Summary, error) {
	if err := r.rendezvous(ctx); err != nil {
		return contracts.EmptySummary(), err
	}
	return r.summary, nil
}

func (r *rendezvousSource) ListExpiring(ctx context.Context, daysAhead int) ([]contracts.ContractWithNames, error) {
	atomic.StoreInt32(&r.gotDays, int32(daysAhead))
	if r.listErr != nil {
		return nil, r.listErr
	}
	if err := r.rendezvous(ctx); err != nil {
		return nil, err
	}
	return r.expiring, nil
}

func (r *rendezvousSource) UpdateStatus(_ context.Context, actorID, documentID string, to contracts.Status) error {
	r.transitions = append(r.transitions, actorID+":"+documentID+":"+string(to))
	return nil
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestLoadRunsBothRequestsConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := newRendezvousSource()
	src.summary.Total = 3
	src.expiring = []contracts.ContractWithNames{
		{Contract: contracts.Contract{DocumentID: "doc-a", Status: contracts.StatusSigned, EndDate: date(2026, 3, 5)}},
		{Contract: contracts.Contract{DocumentID: "doc-b", Status: contracts.StatusSigned, EndDate: date(2026, 3, 20)}},
		{Contract: contracts.Contract{DocumentID: "doc-c", Status: contracts.StatusSigned, EndDate: date(2026, 4, 25)}},
	}
	svc := &Service{
		Contracts: src,
		Now:       func() time.Time { return time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	view, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(DefaultWindowDays), atomic.LoadInt32(&src.gotDays))
	assert.Equal(t, DefaultWindowDays, view.WindowDays)
	assert.Equal(t, 3, view.Summary.Total)
	require.Len(t, view.Expiring, 3)

	assert.Equal(t, 4, view.Expiring[0].DaysUntilExpiry)
	assert.Equal(t, TierCritical, view.Expiring[0].Urgency)
	assert.Equal(t, 19, view.Expiring[1].DaysUntilExpiry)
	assert.Equal(t, TierWarning, view.Expiring[1].Urgency)
	assert.Equal(t, 55, view.Expiring[2].DaysUntilExpiry)
	assert.Equal(t, TierNormal, view.Expiring[2].Urgency)
}

func TestLoadFailsWhenEitherRequestFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := newRendezvousSource()
	src.listErr = errors.New("db down")
	svc := &Service{Contracts: src}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := svc.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, src.listErr)
	assert.Contains(t, err.Error(), "list expiring contracts")
}

func TestLoadHonorsWindowOverride(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := newRendezvousSource()
	svc := &Service{Contracts: src, WindowDays: 90}

	view, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(90), atomic.LoadInt32(&src.gotDays))
	assert.Equal(t, 90, view.WindowDays)
	assert.Empty(t, view.Expiring)
}

func TestUrgencyTiers(t *testing.T) {
	cases := []struct {
		days int
		want Tier
	}{
		{-3, TierCritical},
		{0, TierCritical},
		{7, TierCritical},
		{8, TierWarning},
		{30, TierWarning},
		{31, TierNormal},
		{60, TierNormal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Urgency(tc.days), "days=%d", tc.days)
	}
}

func TestSelectInvokesCallback(t *testing.T) {
	var got []string
	svc := &Service{OnSelect: func(documentID string) { got = append(got, documentID) }}

	require.NoError(t, svc.Select("doc-1"))
	require.ErrorIs(t, svc.Select("  "), ErrInvalidInput)
	assert.Equal(t, []string{"doc-1"}, got)

	noCallback := &Service{}
	assert.NoError(t, noCallback.Select("doc-2"))
}

func TestTransitionDelegatesToWorkflow(t *testing.T) {
	src := newRendezvousSource()
	svc := &Service{Contracts: src}

	require.NoError(t, svc.Transition(context.Background(), "user-1", "doc-1", contracts.StatusReview))
	assert.Equal(t, []string{"user-1:doc-1:review"}, src.transitions)
}

func TestLoadAgainstContractsService(t *testing.T) {
	defer goleak.VerifyNone(t)

	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	contractsSvc := &contracts.Service{
		Repo: contracts.NewMemoryRepo(),
		Now:  func() time.Time { return now },
	}
	ctx := context.Background()

	value := 1000.0
	_, err := contractsSvc.Create(ctx, "user-1", "doc-soon", contracts.ContractInput{
		Status:        contracts.StatusSigned,
		EndDate:       date(2026, 5, 15),
		ContractValue: &value,
	})
	require.NoError(t, err)
	_, err = contractsSvc.Create(ctx, "user-1", "doc-later", contracts.ContractInput{
		Status:  contracts.StatusSigned,
		EndDate: date(2026, 7, 1),
	})
	require.NoError(t, err)
	_, err = contractsSvc.Create(ctx, "user-1", "doc-draft", contracts.ContractInput{
		EndDate: date(2026, 5, 12),
	})
	require.NoError(t, err)

	svc := &Service{Contracts: contractsSvc, Now: func() time.Time { return now }}
	view, err := svc.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, view.Summary.Total)
	assert.Equal(t, 1, view.Summary.ExpiringIn30Days)
	require.Len(t, view.Expiring, 2)
	assert.Equal(t, "doc-soon", view.Expiring[0].Contract.DocumentID)
	assert.Equal(t, TierCritical, view.Expiring[0].Urgency)
	assert.Equal(t, "doc-later", view.Expiring[1].Contract.DocumentID)
	assert.Equal(t, 52, view.Expiring[1].DaysUntilExpiry)
	assert.Equal(t, TierNormal, view.Expiring[1].Urgency)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, view))
	out := buf.String()
	assert.Contains(t, out, "Contracts: 3")
	assert.Contains(t, out, "Expiring within 60 days:")
	assert.Contains(t, out, "doc-soon")
	assert.Contains(t, out, "doc-later")
}

func TestRenderEmptyView(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, View{Summary: contracts.EmptySummary(), WindowDays: 60}))
	assert.Contains(t, buf.String(), "none")
	assert.Contains(t, buf.String(), "cancelled")
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestRenderAlignsColoredRows(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })

	end := date(2026, 5, 20)
	view := View{
		Summary:    contracts.EmptySummary(),
		WindowDays: 60,
		Expiring: []Item{
			{Contract: contracts.ContractWithNames{Contract: contracts.Contract{DocumentID: "doc-a", EndDate: end}}, DaysUntilExpiry: 3, Urgency: TierCritical},
			{Contract: contracts.ContractWithNames{Contract: contracts.Contract{DocumentID: "doc-b", EndDate: end}, DocumentName: "Lease"}, DaysUntilExpiry: 20, Urgency: TierWarning},
			{Contract: contracts.ContractWithNames{Contract: contracts.Contract{DocumentID: "doc-c", EndDate: end}, ClientName: "Acme"}, DaysUntilExpiry: 45, Urgency: TierNormal},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, view))
	raw := buf.String()
	require.True(t, ansi.MatchString(raw), "expected colored output")

	plain := ansi.ReplaceAllString(raw, "")
	var daysCol, idCol []int
	for _, line := range strings.Split(plain, "\n") {
		for _, id := range []string{"DOCUMENT ID", "doc-a", "doc-b", "doc-c"} {
			if i := strings.Index(line, id); i >= 0 {
				idCol = append(idCol, i)
				daysCol = append(daysCol, strings.IndexAny(line[urgencyWidth:], "D0123456789")+urgencyWidth)
			}
		}
	}
	require.Len(t, idCol, 4)
	for i := range idCol {
		assert.Equal(t, idCol[0], idCol[i], "document id column misaligned")
		assert.Equal(t, urgencyWidth, daysCol[i], "days column misaligned")
	}
}

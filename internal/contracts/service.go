package contracts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"contracts-backend/internal/audit"
	"contracts-backend/internal/shared/metrics"
	"contracts-backend/internal/shared/telemetry"
)

const (
	// DefaultExpiringDays is the window used when a caller passes a negative one.
	DefaultExpiringDays = 30

	summaryExpiringDays = 30
)

// Directory resolves document and client display names for listings.
type Directory interface {
	Labels(ctx context.Context, documentIDs []string) (map[string]DocumentLabel, error)
}

// Service contains business logic for contracts.
type Service struct {
	Repo            Repo
	Directory       Directory
	Audit           audit.Recorder
	DefaultCurrency string
	Now             func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) today() time.Time {
	return dateOnly(s.now())
}

func (s *Service) defaultCurrency() string {
	if c := strings.TrimSpace(s.DefaultCurrency); c != "" {
		return strings.ToUpper(c)
	}
	return DefaultCurrency
}

// Create inserts the contract for a document, filling defaults for unset fields.
func (s *Service) Create(ctx context.Context, actorID, documentID string, in ContractInput) (Contract, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return Contract{}, fmt.Errorf("%w: documentId is required", ErrInvalidInput)
	}

	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return Contract{}, fmt.Errorf("%w: invalid status: %s", ErrInvalidInput, string(status))
	}

	now := s.now()
	c := Contract{
		ID:                  uuid.NewString(),
		DocumentID:          documentID,
		Status:              status,
		Currency:            s.defaultCurrency(),
		Parties:             append([]Party{}, in.Parties...),
		AutoRenew:           in.AutoRenew,
		RenewalReminderDays: DefaultRenewalReminderDays,
		RelatedDocumentIDs:  dedupe(in.RelatedDocumentIDs),
		Notes:               in.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if in.StartDate != nil {
		c.StartDate = datePtr(*in.StartDate)
	}
	if in.EndDate != nil {
		c.EndDate = datePtr(*in.EndDate)
	}
	if in.ContractValue != nil {
		v := *in.ContractValue
		c.ContractValue = &v
	}
	if cur := strings.TrimSpace(in.Currency); cur != "" {
		c.Currency = strings.ToUpper(cur)
	}
	if in.RenewalPeriodMonths != nil {
		v := *in.RenewalPeriodMonths
		c.RenewalPeriodMonths = &v
	}
	if in.RenewalReminderDays != nil {
		c.RenewalReminderDays = *in.RenewalReminderDays
	}
	if status == StatusSigned {
		c.SignedDate = datePtr(now)
	}

	if err := validate(c); err != nil {
		metrics.IncOperation("create", metrics.ResultRejected)
		return Contract{}, err
	}

	if err := s.Repo.Insert(ctx, c); err != nil {
		metrics.IncOperation("create", metrics.ResultError)
		return Contract{}, err
	}
	metrics.IncOperation("create", metrics.ResultOK)

	s.record(ctx, audit.Entry{
		EntityID: documentID,
		Action:   audit.ActionCreate,
		ActorID:  actorID,
		ToStatus: string(c.Status),
	})
	return c, nil
}

// Get returns the contract for a document. found is false when none exists.
func (s *Service) Get(ctx context.Context, documentID string) (Contract, bool, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return Contract{}, false, fmt.Errorf("%w: documentId is required", ErrInvalidInput)
	}
	c, err := s.Repo.SelectOne(ctx, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Contract{}, false, nil
		}
		return Contract{}, false, err
	}
	return c, true, nil
}

// UpdateStatus moves a contract to a new status after the workflow guard approves it.
// Moving to signed also stamps the signed date with today's date.
func (s *Service) UpdateStatus(ctx context.Context, actorID, documentID string, to Status) error {
	_, err := s.ChangeStatus(ctx, actorID, documentID, to)
	return err
}

// StatusChange describes a committed transition and the contract as written.
type StatusChange struct {
	From     Status
	Contract Contract
}

// ChangeStatus is UpdateStatus that also reports the prior status and the
// updated contract.
func (s *Service) ChangeStatus(ctx context.Context, actorID, documentID string, to Status) (StatusChange, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return StatusChange{}, fmt.Errorf("%w: documentId is required", ErrInvalidInput)
	}
	if !to.Valid() {
		return StatusChange{}, fmt.Errorf("%w: invalid status: %s", ErrInvalidInput, string(to))
	}

	current, err := s.Repo.SelectOne(ctx, documentID)
	if err != nil {
		return StatusChange{}, err
	}
	from := current.Status

	if err := ValidateTransition(from, to); err != nil {
		metrics.ObserveTransition(string(from), string(to), metrics.ResultRejected)
		telemetry.Warn("contracts.transition_rejected", map[string]any{
			"document_id": documentID,
			"from":        string(from),
			"to":          string(to),
			"actor_id":    actorID,
		})
		return StatusChange{}, err
	}

	now := s.now()
	var signedDate *time.Time
	if to == StatusSigned {
		signedDate = datePtr(now)
	}

	if err := s.Repo.UpdateStatus(ctx, documentID, from, to, signedDate, now); err != nil {
		metrics.ObserveTransition(string(from), string(to), metrics.ResultError)
		return StatusChange{}, err
	}
	metrics.ObserveTransition(string(from), string(to), metrics.ResultOK)

	s.record(ctx, audit.Entry{
		EntityID:   documentID,
		Action:     audit.ActionStatusChange,
		ActorID:    actorID,
		FromStatus: string(from),
		ToStatus:   string(to),
	})

	updated := current
	updated.Status = to
	if signedDate != nil {
		updated.SignedDate = signedDate
	}
	updated.UpdatedAt = now
	return StatusChange{From: from, Contract: updated}, nil
}

// UpdateDetails applies a partial update to the non-status fields.
func (s *Service) UpdateDetails(ctx context.Context, actorID, documentID string, patch ContractPatch) error {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return fmt.Errorf("%w: documentId is required", ErrInvalidInput)
	}
	if patch.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*patch.Currency))
		if cur == "" {
			cur = s.defaultCurrency()
		}
		patch.Currency = &cur
	}

	current, err := s.Repo.SelectOne(ctx, documentID)
	if err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	next := patch.apply(current)
	if err := validate(next); err != nil {
		metrics.IncOperation("update_details", metrics.ResultRejected)
		return err
	}
	next.UpdatedAt = s.now()

	if err := s.Repo.Update(ctx, next); err != nil {
		metrics.IncOperation("update_details", metrics.ResultError)
		return err
	}
	metrics.IncOperation("update_details", metrics.ResultOK)

	s.record(ctx, audit.Entry{
		EntityID: documentID,
		Action:   audit.ActionDetailsUpdate,
		ActorID:  actorID,
		Details:  map[string]any{"fields": patchedFields(patch)},
	})
	return nil
}

// ListExpiring returns signed contracts whose end date falls within
// [today, today+daysAhead], ordered by end date ascending. A zero window
// means contracts ending today.
func (s *Service) ListExpiring(ctx context.Context, daysAhead int) ([]ContractWithNames, error) {
	if daysAhead < 0 {
		daysAhead = DefaultExpiringDays
	}
	signed := StatusSigned
	all, err := s.Repo.SelectMany(ctx, Filter{Status: &signed})
	if err != nil {
		return []ContractWithNames{}, err
	}

	today := s.today()
	var expiring []Contract
	for _, c := range all {
		if expiresWithin(c, today, daysAhead) {
			expiring = append(expiring, c)
		}
	}
	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].EndDate.Before(*expiring[j].EndDate)
	})

	return s.annotate(ctx, expiring), nil
}

// ListOverdue returns signed contracts whose end date is before today,
// oldest end date first.
func (s *Service) ListOverdue(ctx context.Context) ([]Contract, error) {
	signed := StatusSigned
	all, err := s.Repo.SelectMany(ctx, Filter{Status: &signed})
	if err != nil {
		return nil, err
	}

	today := s.today()
	overdue := []Contract{}
	for _, c := range all {
		if c.EndDate != nil && dateOnly(*c.EndDate).Before(today) {
			overdue = append(overdue, c)
		}
	}
	sort.SliceStable(overdue, func(i, j int) bool {
		return overdue[i].EndDate.Before(*overdue[j].EndDate)
	})
	return overdue, nil
}

// ListByStatus returns every contract, optionally filtered to one status,
// newest-updated first.
func (s *Service) ListByStatus(ctx context.Context, status *Status) ([]ContractWithNames, error) {
	if status != nil && !status.Valid() {
		return []ContractWithNames{}, fmt.Errorf("%w: invalid status: %s", ErrInvalidInput, string(*status))
	}
	all, err := s.Repo.SelectMany(ctx, Filter{Status: status})
	if err != nil {
		return []ContractWithNames{}, err
	}
	return s.annotate(ctx, all), nil
}

// Summarize aggregates the full contract set in one pass. On failure the
// zeroed summary is returned alongside the error.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	out := EmptySummary()
	all, err := s.Repo.SelectMany(ctx, Filter{})
	if err != nil {
		return out, err
	}

	today := s.today()
	for _, c := range all {
		out.Total++
		out.ByStatus[c.Status]++
		if c.Status != StatusCancelled && c.ContractValue != nil {
			out.TotalValue += *c.ContractValue
		}
		if c.Status == StatusSigned && expiresWithin(c, today, summaryExpiringDays) {
			out.ExpiringIn30Days++
		}
	}
	return out, nil
}

func (s *Service) annotate(ctx context.Context, list []Contract) []ContractWithNames {
	out := make([]ContractWithNames, 0, len(list))
	if len(list) == 0 {
		return out
	}

	var labels map[string]DocumentLabel
	if s.Directory != nil {
		ids := make([]string, 0, len(list))
		for _, c := range list {
			ids = append(ids, c.DocumentID)
		}
		var err error
		labels, err = s.Directory.Labels(ctx, ids)
		if err != nil {
			telemetry.Warn("contracts.labels_failed", map[string]any{
				"error": err.Error(),
				"count": len(ids),
			})
		}
	}

	for _, c := range list {
		label := labels[c.DocumentID]
		out = append(out, ContractWithNames{
			Contract:     c,
			DocumentName: label.DocumentName,
			ClientName:   label.ClientName,
		})
	}
	return out
}

func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if s.Audit == nil {
		return
	}
	entry.Entity = audit.EntityContract
	if err := s.Audit.Record(ctx, entry); err != nil {
		telemetry.Error("audit.record_failed", map[string]any{
			"document_id": entry.EntityID,
			"action":      entry.Action,
			"error":       err.Error(),
		})
	}
}

func expiresWithin(c Contract, today time.Time, days int) bool {
	if c.EndDate == nil {
		return false
	}
	end := dateOnly(*c.EndDate)
	limit := today.AddDate(0, 0, days)
	return !end.Before(today) && !end.After(limit)
}

// DaysUntil returns the number of whole calendar days from today to end.
func DaysUntil(today, end time.Time) int {
	return int(dateOnly(end).Sub(dateOnly(today)).Hours() / 24)
}

func validate(c Contract) error {
	if c.ContractValue != nil && *c.ContractValue < 0 {
		return fmt.Errorf("%w: contractValue must not be negative", ErrInvalidInput)
	}
	if c.RenewalPeriodMonths != nil && *c.RenewalPeriodMonths <= 0 {
		return fmt.Errorf("%w: renewalPeriodMonths must be positive", ErrInvalidInput)
	}
	if c.RenewalReminderDays < 0 {
		return fmt.Errorf("%w: renewalReminderDays must not be negative", ErrInvalidInput)
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return fmt.Errorf("%w: endDate must not be before startDate", ErrInvalidInput)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidInput)
	}
	for i, p := range c.Parties {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: parties[%d].name is required", ErrInvalidInput, i)
		}
	}
	return nil
}

func patchedFields(p ContractPatch) []string {
	var fields []string
	if p.StartDate != nil {
		fields = append(fields, "startDate")
	}
	if p.EndDate != nil {
		fields = append(fields, "endDate")
	}
	if p.ContractValue != nil {
		fields = append(fields, "contractValue")
	}
	if p.Currency != nil {
		fields = append(fields, "currency")
	}
	if p.Parties != nil {
		fields = append(fields, "parties")
	}
	if p.AutoRenew != nil {
		fields = append(fields, "autoRenew")
	}
	if p.RenewalPeriodMonths != nil {
		fields = append(fields, "renewalPeriodMonths")
	}
	if p.RenewalReminderDays != nil {
		fields = append(fields, "renewalReminderDays")
	}
	if p.RelatedDocumentIDs != nil {
		fields = append(fields, "relatedDocumentIds")
	}
	if p.Notes != nil {
		fields = append(fields, "notes")
	}
	return fields
}

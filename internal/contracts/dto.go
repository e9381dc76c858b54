package contracts

import (
	"fmt"
	"strings"
	"time"

	"contracts-backend/internal/audit"
)

const dateLayout = "2006-01-02"

// ContractResponse is the outward-facing representation of a contract.
type ContractResponse struct {
	ID                  string    `json:"id"`
	DocumentID          string    `json:"documentId"`
	Status              Status    `json:"status"`
	NextStatuses        []Status  `json:"nextStatuses"`
	StartDate           *string   `json:"startDate"`
	EndDate             *string   `json:"endDate"`
	SignedDate          *string   `json:"signedDate"`
	ContractValue       *float64  `json:"contractValue"`
	Currency            string    `json:"currency"`
	Parties             []Party   `json:"parties"`
	AutoRenew           bool      `json:"autoRenew"`
	RenewalPeriodMonths *int      `json:"renewalPeriodMonths"`
	RenewalReminderDays int       `json:"renewalReminderDays"`
	RelatedDocumentIDs  []string  `json:"relatedDocumentIds"`
	Notes               string    `json:"notes"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	DocumentName        string    `json:"documentName,omitempty"`
	ClientName          string    `json:"clientName,omitempty"`
}

// AuditEntryResponse is the outward-facing representation of an audit entry.
type AuditEntryResponse struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	ActorID    string         `json:"actorId,omitempty"`
	FromStatus string         `json:"fromStatus,omitempty"`
	ToStatus   string         `json:"toStatus,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

type createRequest struct {
	DocumentID          string   `json:"documentId"`
	Status              string   `json:"status"`
	StartDate           *string  `json:"startDate"`
	EndDate             *string  `json:"endDate"`
	ContractValue       *float64 `json:"contractValue"`
	Currency            string   `json:"currency"`
	Parties             []Party  `json:"parties"`
	AutoRenew           bool     `json:"autoRenew"`
	RenewalPeriodMonths *int     `json:"renewalPeriodMonths"`
	RenewalReminderDays *int     `json:"renewalReminderDays"`
	RelatedDocumentIDs  []string `json:"relatedDocumentIds"`
	Notes               string   `json:"notes"`
}

type patchRequest struct {
	StartDate           *string   `json:"startDate"`
	EndDate             *string   `json:"endDate"`
	ContractValue       *float64  `json:"contractValue"`
	Currency            *string   `json:"currency"`
	Parties             *[]Party  `json:"parties"`
	AutoRenew           *bool     `json:"autoRenew"`
	RenewalPeriodMonths *int      `json:"renewalPeriodMonths"`
	RenewalReminderDays *int      `json:"renewalReminderDays"`
	RelatedDocumentIDs  *[]string `json:"relatedDocumentIds"`
	Notes               *string   `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (req createRequest) toInput() (ContractInput, error) {
	in := ContractInput{
		ContractValue:       req.ContractValue,
		Currency:            req.Currency,
		Parties:             req.Parties,
		AutoRenew:           req.AutoRenew,
		RenewalPeriodMonths: req.RenewalPeriodMonths,
		RenewalReminderDays: req.RenewalReminderDays,
		RelatedDocumentIDs:  req.RelatedDocumentIDs,
		Notes:               req.Notes,
	}
	if strings.TrimSpace(req.Status) != "" {
		status, err := ParseStatus(req.Status)
		if err != nil {
			return ContractInput{}, err
		}
		in.Status = status
	}
	var err error
	if in.StartDate, err = parseDate("startDate", req.StartDate); err != nil {
		return ContractInput{}, err
	}
	if in.EndDate, err = parseDate("endDate", req.EndDate); err != nil {
		return ContractInput{}, err
	}
	return in, nil
}

func (req patchRequest) toPatch() (ContractPatch, error) {
	patch := ContractPatch{
		ContractValue:       req.ContractValue,
		Currency:            req.Currency,
		Parties:             req.Parties,
		AutoRenew:           req.AutoRenew,
		RenewalPeriodMonths: req.RenewalPeriodMonths,
		RenewalReminderDays: req.RenewalReminderDays,
		RelatedDocumentIDs:  req.RelatedDocumentIDs,
		Notes:               req.Notes,
	}
	var err error
	if patch.StartDate, err = parseDate("startDate", req.StartDate); err != nil {
		return ContractPatch{}, err
	}
	if patch.EndDate, err = parseDate("endDate", req.EndDate); err != nil {
		return ContractPatch{}, err
	}
	return patch, nil
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", ErrInvalidInput, field)
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func toResponse(c Contract) ContractResponse {
	parties := c.Parties
	if parties == nil {
		parties = []Party{}
	}
	related := c.RelatedDocumentIDs
	if related == nil {
		related = []string{}
	}
	return ContractResponse{
		ID:                  c.ID,
		DocumentID:          c.DocumentID,
		Status:              c.Status,
		NextStatuses:        NextStatuses(c.Status),
		StartDate:           formatDate(c.StartDate),
		EndDate:             formatDate(c.EndDate),
		SignedDate:          formatDate(c.SignedDate),
		ContractValue:       c.ContractValue,
		Currency:            c.Currency,
		Parties:             parties,
		AutoRenew:           c.AutoRenew,
		RenewalPeriodMonths: c.RenewalPeriodMonths,
		RenewalReminderDays: c.RenewalReminderDays,
		RelatedDocumentIDs:  related,
		Notes:               c.Notes,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// ToNamedResponse renders an annotated contract.
func ToNamedResponse(c ContractWithNames) ContractResponse {
	resp := toResponse(c.Contract)
	resp.DocumentName = c.DocumentName
	resp.ClientName = c.ClientName
	return resp
}

func toNamedResponses(list []ContractWithNames) []ContractResponse {
	out := make([]ContractResponse, 0, len(list))
	for _, c := range list {
		out = append(out, ToNamedResponse(c))
	}
	return out
}

func toAuditResponses(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:         e.ID,
			Action:     e.Action,
			ActorID:    e.ActorID,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}

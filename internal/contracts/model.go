package contracts

import "time"

// DefaultCurrency is used when a contract is created without a currency.
const DefaultCurrency = "BRL"

// DefaultRenewalReminderDays is used when a contract is created without a reminder window.
const DefaultRenewalReminderDays = 30

// Party is a counterparty listed on a contract.
type Party struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Contract holds the lifecycle metadata attached to one document.
type Contract struct {
	ID                  string
	DocumentID          string
	Status              Status
	StartDate           *time.Time
	EndDate             *time.Time
	SignedDate          *time.Time
	ContractValue       *float64
	Currency            string
	Parties             []Party
	AutoRenew           bool
	RenewalPeriodMonths *int
	RenewalReminderDays int
	RelatedDocumentIDs  []string
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ContractInput carries caller-supplied fields for Create. Unset fields get defaults.
type ContractInput struct {
	Status              Status
	StartDate           *time.Time
	EndDate             *time.Time
	ContractValue       *float64
	Currency            string
	Parties             []Party
	AutoRenew           bool
	RenewalPeriodMonths *int
	RenewalReminderDays *int
	RelatedDocumentIDs  []string
	Notes               string
}

// ContractPatch is a partial update of non-status fields. Nil fields are left unchanged.
type ContractPatch struct {
	StartDate           *time.Time
	EndDate             *time.Time
	ContractValue       *float64
	Currency            *string
	Parties             *[]Party
	AutoRenew           *bool
	RenewalPeriodMonths *int
	RenewalReminderDays *int
	RelatedDocumentIDs  *[]string
	Notes               *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ContractPatch) IsEmpty() bool {
	return p.StartDate == nil &&
		p.EndDate == nil &&
		p.ContractValue == nil &&
		p.Currency == nil &&
		p.Parties == nil &&
		p.AutoRenew == nil &&
		p.RenewalPeriodMonths == nil &&
		p.RenewalReminderDays == nil &&
		p.RelatedDocumentIDs == nil &&
		p.Notes == nil
}

// apply returns a copy of c with the patch applied.
func (p ContractPatch) apply(c Contract) Contract {
	if p.StartDate != nil {
		c.StartDate = datePtr(*p.StartDate)
	}
	if p.EndDate != nil {
		c.EndDate = datePtr(*p.EndDate)
	}
	if p.ContractValue != nil {
		v := *p.ContractValue
		c.ContractValue = &v
	}
	if p.Currency != nil {
		c.Currency = *p.Currency
	}
	if p.Parties != nil {
		c.Parties = append([]Party{}, (*p.Parties)...)
	}
	if p.AutoRenew != nil {
		c.AutoRenew = *p.AutoRenew
	}
	if p.RenewalPeriodMonths != nil {
		v := *p.RenewalPeriodMonths
		c.RenewalPeriodMonths = &v
	}
	if p.RenewalReminderDays != nil {
		c.RenewalReminderDays = *p.RenewalReminderDays
	}
	if p.RelatedDocumentIDs != nil {
		c.RelatedDocumentIDs = dedupe(*p.RelatedDocumentIDs)
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	return c
}

// ContractWithNames is a contract annotated with its document and client display names.
type ContractWithNames struct {
	Contract
	DocumentName string
	ClientName   string
}

// Summary aggregates the full contract set.
type Summary struct {
	Total            int            `json:"total"`
	ByStatus         map[Status]int `json:"byStatus"`
	TotalValue       float64        `json:"totalValue"`
	ExpiringIn30Days int            `json:"expiringIn30Days"`
}

// EmptySummary returns the all-zero aggregate with every status present.
func EmptySummary() Summary {
	byStatus := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		byStatus[s] = 0
	}
	return Summary{ByStatus: byStatus}
}

// Filter narrows SelectMany.
type Filter struct {
	Status *Status
}

// DocumentLabel carries the display names used to annotate listings.
type DocumentLabel struct {
	DocumentName string
	ClientName   string
}

// dateOnly truncates t to a UTC calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time {
	d := dateOnly(t)
	return &d
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package contracts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const contractColumns = `id, document_id, status, start_date, end_date, signed_date, contract_value, currency, parties, auto_renew, renewal_period_months, renewal_reminder_days, related_document_ids, notes, created_at, updated_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// contractRow mirrors the contracts table. toContract is the only place
// storage columns are translated into the model.
type contractRow struct {
	ID                  string
	DocumentID          string
	Status              string
	StartDate           sql.NullTime
	EndDate             sql.NullTime
	SignedDate          sql.NullTime
	ContractValue       sql.NullFloat64
	Currency            sql.NullString
	Parties             []byte
	AutoRenew           sql.NullBool
	RenewalPeriodMonths sql.NullInt64
	RenewalReminderDays sql.NullInt64
	RelatedDocumentIDs  []byte
	Notes               sql.NullString
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(s rowScanner) (Contract, error) {
	var row contractRow
	if err := s.Scan(
		&row.ID,
		&row.DocumentID,
		&row.Status,
		&row.StartDate,
		&row.EndDate,
		&row.SignedDate,
		&row.ContractValue,
		&row.Currency,
		&row.Parties,
		&row.AutoRenew,
		&row.RenewalPeriodMonths,
		&row.RenewalReminderDays,
		&row.RelatedDocumentIDs,
		&row.Notes,
		&row.CreatedAt,
		&row.UpdatedAt,
	); err != nil {
		return Contract{}, err
	}
	return row.toContract()
}

func (row contractRow) toContract() (Contract, error) {
	c := Contract{
		ID:                  row.ID,
		DocumentID:          row.DocumentID,
		Status:              Status(row.Status),
		Currency:            DefaultCurrency,
		Parties:             []Party{},
		RenewalReminderDays: DefaultRenewalReminderDays,
		RelatedDocumentIDs:  []string{},
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if !c.Status.Valid() {
		return Contract{}, fmt.Errorf("contract %s: stored status %q is not recognized", row.DocumentID, row.Status)
	}
	if row.StartDate.Valid {
		c.StartDate = datePtr(row.StartDate.Time)
	}
	if row.EndDate.Valid {
		c.EndDate = datePtr(row.EndDate.Time)
	}
	if row.SignedDate.Valid {
		c.SignedDate = datePtr(row.SignedDate.Time)
	}
	if row.ContractValue.Valid {
		v := row.ContractValue.Float64
		c.ContractValue = &v
	}
	if row.Currency.Valid && row.Currency.String != "" {
		c.Currency = row.Currency.String
	}
	if len(row.Parties) > 0 {
		if err := json.Unmarshal(row.Parties, &c.Parties); err != nil {
			return Contract{}, fmt.Errorf("decode parties: %w", err)
		}
		if c.Parties == nil {
			c.Parties = []Party{}
		}
	}
	if row.AutoRenew.Valid {
		c.AutoRenew = row.AutoRenew.Bool
	}
	if row.RenewalPeriodMonths.Valid {
		v := int(row.RenewalPeriodMonths.Int64)
		c.RenewalPeriodMonths = &v
	}
	if row.RenewalReminderDays.Valid {
		c.RenewalReminderDays = int(row.RenewalReminderDays.Int64)
	}
	if len(row.RelatedDocumentIDs) > 0 {
		if err := json.Unmarshal(row.RelatedDocumentIDs, &c.RelatedDocumentIDs); err != nil {
			return Contract{}, fmt.Errorf("decode related_document_ids: %w", err)
		}
		if c.RelatedDocumentIDs == nil {
			c.RelatedDocumentIDs = []string{}
		}
	}
	if row.Notes.Valid {
		c.Notes = row.Notes.String
	}
	return c, nil
}

// Insert creates a contract row.
func (r *PGRepo) Insert(ctx context.Context, c Contract) error {
	const query = `
INSERT INTO contracts (
    id,
    document_id,
    status,
    start_date,
    end_date,
    signed_date,
    contract_value,
    currency,
    parties,
    auto_renew,
    renewal_period_months,
    renewal_reminder_days,
    related_document_ids,
    notes,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	parties, related, err := encodeLists(c)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		c.ID,
		c.DocumentID,
		string(c.Status),
		nullDate(c.StartDate),
		nullDate(c.EndDate),
		nullDate(c.SignedDate),
		nullFloat(c.ContractValue),
		c.Currency,
		parties,
		c.AutoRenew,
		nullInt(c.RenewalPeriodMonths),
		c.RenewalReminderDays,
		related,
		c.Notes,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update writes every non-status field for the document's contract.
func (r *PGRepo) Update(ctx context.Context, c Contract) error {
	const query = `
UPDATE contracts
SET start_date = $1,
    end_date = $2,
    contract_value = $3,
    currency = $4,
    parties = $5,
    auto_renew = $6,
    renewal_period_months = $7,
    renewal_reminder_days = $8,
    related_document_ids = $9,
    notes = $10,
    updated_at = $11
WHERE document_id = $12`

	parties, related, err := encodeLists(c)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(
		ctx,
		query,
		nullDate(c.StartDate),
		nullDate(c.EndDate),
		nullFloat(c.ContractValue),
		c.Currency,
		parties,
		c.AutoRenew,
		nullInt(c.RenewalPeriodMonths),
		c.RenewalReminderDays,
		related,
		c.Notes,
		c.UpdatedAt,
		c.DocumentID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus writes the new status only while the stored status equals from.
func (r *PGRepo) UpdateStatus(ctx context.Context, documentID string, from, to Status, signedDate *time.Time, updatedAt time.Time) error {
	const query = `
UPDATE contracts
SET status = $1,
    signed_date = COALESCE($2, signed_date),
    updated_at = $3
WHERE document_id = $4 AND status = $5`

	res, err := r.DB.ExecContext(ctx, query, string(to), nullDate(signedDate), updatedAt, documentID, string(from))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists int
	err = r.DB.QueryRowContext(ctx, `SELECT 1 FROM contracts WHERE document_id = $1`, documentID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return ErrStatusConflict
}

// SelectOne returns the contract attached to a document.
func (r *PGRepo) SelectOne(ctx context.Context, documentID string) (Contract, error) {
	query := `SELECT ` + contractColumns + `
FROM contracts
WHERE document_id = $1
LIMIT 1`
	c, err := scanContract(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contract{}, ErrNotFound
		}
		return Contract{}, err
	}
	return c, nil
}

// SelectMany lists contracts, newest-updated first.
func (r *PGRepo) SelectMany(ctx context.Context, filter Filter) ([]Contract, error) {
	query := `SELECT ` + contractColumns + `
FROM contracts`
	var args []any
	if filter.Status != nil {
		query += `
WHERE status = $1`
		args = append(args, string(*filter.Status))
	}
	query += `
ORDER BY updated_at DESC, document_id ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func encodeLists(c Contract) ([]byte, []byte, error) {
	parties := c.Parties
	if parties == nil {
		parties = []Party{}
	}
	related := c.RelatedDocumentIDs
	if related == nil {
		related = []string{}
	}
	partiesJSON, err := json.Marshal(parties)
	if err != nil {
		return nil, nil, fmt.Errorf("encode parties: %w", err)
	}
	relatedJSON, err := json.Marshal(related)
	if err != nil {
		return nil, nil, fmt.Errorf("encode related_document_ids: %w", err)
	}
	return partiesJSON, relatedJSON, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: dateOnly(*t), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

var _ Repo = (*PGRepo)(nil)

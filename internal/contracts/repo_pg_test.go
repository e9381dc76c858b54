package contracts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func contractRowColumns() []string {
	return []string{
		"id", "document_id", "status", "start_date", "end_date", "signed_date", "contract_value", "currency",
		"parties", "auto_renew", "renewal_period_months", "renewal_reminder_days", "related_document_ids",
		"notes", "created_at", "updated_at",
	}
}

func TestPGRepoInsertEncodesColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 18, 30, 0, 0, time.UTC)
	c := Contract{
		ID:                  "c-1",
		DocumentID:          "doc-1",
		Status:              StatusDraft,
		EndDate:             &end,
		Currency:            "BRL",
		Parties:             []Party{{Name: "Acme", Role: "supplier"}},
		RenewalReminderDays: 30,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	mock.ExpectExec("INSERT INTO contracts").
		WithArgs(
			"c-1",
			"doc-1",
			"draft",
			nil, // start_date
			time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
			nil, // signed_date
			nil, // contract_value
			"BRL",
			[]byte(`[{"name":"Acme","role":"supplier"}]`),
			false,
			nil, // renewal_period_months
			int64(30),
			[]byte(`[]`),
			"",
			now,
			now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), c); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoInsertMapsUniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO contracts").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Insert(context.Background(), Contract{ID: "c-1", DocumentID: "doc-1", Status: StatusDraft})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestPGRepoUpdateStatusConditional(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	signed := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE contracts\s+SET status = \$1`).
		WithArgs("signed", signed, now, "doc-1", "approved").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "doc-1", StatusApproved, StatusSigned, &signed, now); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusConflictAndNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE contracts").
		WithArgs("review", nil, now, "doc-1", "draft").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM contracts WHERE document_id = \$1`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	err := repo.UpdateStatus(context.Background(), "doc-1", StatusDraft, StatusReview, nil, now)
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}

	mock.ExpectExec("UPDATE contracts").
		WithArgs("review", nil, now, "doc-2", "draft").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM contracts WHERE document_id = \$1`).
		WithArgs("doc-2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	err = repo.UpdateStatus(context.Background(), "doc-2", StatusDraft, StatusReview, nil, now)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE contracts").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), Contract{DocumentID: "doc-1", Currency: "BRL"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoSelectOneDecodesRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(contractRowColumns()).AddRow(
		"c-1", "doc-1", "signed", start, nil, start, 1200.5, nil,
		[]byte(`[{"name":"Acme","role":"client"}]`), true, int64(12), nil, []byte(`["doc-2"]`),
		nil, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM contracts\\s+WHERE document_id = \\$1").
		WithArgs("doc-1").
		WillReturnRows(rows)

	c, err := repo.SelectOne(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("SelectOne: %v", err)
	}
	if c.Status != StatusSigned || c.StartDate == nil || !c.StartDate.Equal(start) || c.EndDate != nil {
		t.Fatalf("unexpected dates/status: %+v", c)
	}
	if c.ContractValue == nil || *c.ContractValue != 1200.5 {
		t.Fatalf("unexpected value: %v", c.ContractValue)
	}
	if c.Currency != DefaultCurrency || c.RenewalReminderDays != DefaultRenewalReminderDays {
		t.Fatalf("expected defaults for null columns, got %s/%d", c.Currency, c.RenewalReminderDays)
	}
	if !c.AutoRenew || c.RenewalPeriodMonths == nil || *c.RenewalPeriodMonths != 12 {
		t.Fatalf("unexpected renewal fields: %+v", c)
	}
	if len(c.Parties) != 1 || c.Parties[0].Name != "Acme" || len(c.RelatedDocumentIDs) != 1 {
		t.Fatalf("unexpected lists: %+v", c)
	}
}

func TestPGRepoSelectOneNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM contracts").
		WithArgs("doc-9").
		WillReturnRows(sqlmock.NewRows(contractRowColumns()))

	if _, err := repo.SelectOne(context.Background(), "doc-9"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoSelectOneRejectsUnknownStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(contractRowColumns()).AddRow(
		"c-1", "doc-1", "pending", nil, nil, nil, nil, "BRL",
		nil, false, nil, int64(30), nil, nil, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM contracts").WillReturnRows(rows)

	if _, err := repo.SelectOne(context.Background(), "doc-1"); err == nil {
		t.Fatalf("expected error for unknown stored status")
	}
}

func TestPGRepoSelectManyFiltersByStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(contractRowColumns()).
		AddRow("c-1", "doc-1", "signed", nil, nil, nil, nil, "USD", []byte(`[]`), false, nil, int64(15), []byte(`[]`), "n", now, now).
		AddRow("c-2", "doc-2", "signed", nil, nil, nil, nil, "BRL", []byte(`[]`), false, nil, int64(30), []byte(`[]`), nil, now, now)
	mock.ExpectQuery(`WHERE status = \$1\s+ORDER BY updated_at DESC, document_id ASC`).
		WithArgs("signed").
		WillReturnRows(rows)

	signed := StatusSigned
	list, err := repo.SelectMany(context.Background(), Filter{Status: &signed})
	if err != nil {
		t.Fatalf("SelectMany: %v", err)
	}
	if len(list) != 2 || list[0].Currency != "USD" || list[0].RenewalReminderDays != 15 || list[0].Notes != "n" {
		t.Fatalf("unexpected rows: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

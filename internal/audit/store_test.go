package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMemoryStoreListsNewestFirstPerEntity(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()

	for _, e := range []Entry{
		{Entity: EntityContract, EntityID: "doc-1", Action: ActionCreate, ToStatus: "draft"},
		{Entity: EntityContract, EntityID: "doc-2", Action: ActionCreate, ToStatus: "draft"},
		{Entity: EntityContract, EntityID: "doc-1", Action: ActionStatusChange, FromStatus: "draft", ToStatus: "review"},
		{Entity: EntityContract, EntityID: "doc-1", Action: ActionStatusChange, FromStatus: "review", ToStatus: "approved"},
	} {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := store.ListByEntity(ctx, EntityContract, "doc-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].ToStatus != "approved" || got[2].Action != ActionCreate {
		t.Fatalf("unexpected order: %+v", got)
	}
	for _, e := range got {
		if e.ID == "" || e.CreatedAt.IsZero() {
			t.Fatalf("expected id and timestamp to be assigned: %+v", e)
		}
	}

	limited, err := store.ListByEntity(ctx, EntityContract, "doc-1", 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ToStatus != "approved" {
		t.Fatalf("unexpected limited list: %+v", limited)
	}
}

func TestMemoryStoreHonorsCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Record(ctx, Entry{EntityID: "doc-1"}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}

func TestPGStoreRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := &PGStore{DB: db}

	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(
			"a-1",
			EntityContract,
			"doc-1",
			ActionStatusChange,
			"user-1",
			"draft",
			"review",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Record(context.Background(), Entry{
		ID:         "a-1",
		Entity:     EntityContract,
		EntityID:   "doc-1",
		Action:     ActionStatusChange,
		ActorID:    "user-1",
		FromStatus: "draft",
		ToStatus:   "review",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreListByEntityDecodesRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := &PGStore{DB: db}

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "entity", "entity_id", "action", "actor_id", "from_status", "to_status", "details", "created_at"}).
		AddRow("a-2", EntityContract, "doc-1", ActionDetailsUpdate, "user-1", nil, nil, []byte(`{"fields":["notes"]}`), created).
		AddRow("a-1", EntityContract, "doc-1", ActionCreate, nil, nil, "draft", nil, created)

	mock.ExpectQuery("SELECT id, entity, entity_id, action").
		WithArgs(EntityContract, "doc-1", 200).
		WillReturnRows(rows)

	got, err := store.ListByEntity(context.Background(), EntityContract, "doc-1", 500)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	fields, ok := got[0].Details["fields"].([]any)
	if !ok || len(fields) != 1 || fields[0] != "notes" {
		t.Fatalf("unexpected details: %#v", got[0].Details)
	}
	if got[1].ActorID != "" || got[1].ToStatus != "draft" {
		t.Fatalf("unexpected null handling: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

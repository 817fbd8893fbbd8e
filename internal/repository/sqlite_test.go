package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mr1hm/ssma-incidents/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

func testIncident(emitter string) *models.Incident {
	date, _ := models.ParseDate("2024-03-10")
	return &models.Incident{
		Emitter:          emitter,
		Classification:   "Quase acidente",
		Company:          "Usina",
		Date:             date,
		Time:             models.TimeOfDay(8*60 + 15),
		Location:         "Caldeira",
		Description:      "Vazamento de vapor",
		ImmediateAction:  "Isolamento da área",
		Causes:           []string{"Falha de equipamento", "Procedimento"},
		UnsafeConditions: []string{"Piso escorregadio"},
	}
}

func TestSQLiteDB_AddAndGetIncident(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	incident := testIncident("Ana")

	// Add
	id, err := db.Add(ctx, incident)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == 0 || incident.ID != id {
		t.Fatalf("expected id to be assigned, got %d (incident.ID=%d)", id, incident.ID)
	}

	// Get
	got, err := db.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Emitter != "Ana" {
		t.Errorf("expected emitter 'Ana', got '%s'", got.Emitter)
	}
	if !got.Date.Equal(incident.Date) {
		t.Errorf("expected date %v, got %v", incident.Date, got.Date)
	}
	if got.Time.String() != "08:15" {
		t.Errorf("expected time '08:15', got '%s'", got.Time)
	}
	if !reflect.DeepEqual(got.Causes, incident.Causes) {
		t.Errorf("expected causes %v, got %v", incident.Causes, got.Causes)
	}
	if got.UnsafeBehaviors != nil {
		t.Errorf("expected no unsafe behaviors, got %v", got.UnsafeBehaviors)
	}
	if got.SSTClass != "" {
		t.Errorf("expected empty sst class before review, got '%s'", got.SSTClass)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestSQLiteDB_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteDB_UndatedIncident(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	incident := testIncident("Ana")
	incident.Date = time.Time{}

	id, err := db.Add(ctx, incident)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := db.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Date.IsZero() {
		t.Errorf("expected zero date, got %v", got.Date)
	}
}

func TestSQLiteDB_ListAndCount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	for _, name := range []string{"first", "second", "third"} {
		if _, err := db.Add(ctx, testIncident(name)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	count, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 incidents, got %d", count)
	}

	// Newest first
	results, err := db.List(ctx, ListOptions{Limit: 2, Newest: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 incidents with limit, got %d", len(results))
	}
	if results[0].Emitter != "third" || results[1].Emitter != "second" {
		t.Errorf("expected [third second], got [%s %s]", results[0].Emitter, results[1].Emitter)
	}

	// Submission order with offset
	results, err = db.List(ctx, ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(results) != 1 || results[0].Emitter != "third" {
		t.Errorf("expected [third] on second page, got %v", results)
	}

	all, err := db.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 || all[0].Emitter != "first" {
		t.Errorf("expected 3 incidents starting with 'first', got %d", len(all))
	}
}

func TestSQLiteDB_ApplyReviews(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	id, err := db.Add(ctx, testIncident("Ana"))
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	review := models.Review{
		SSTClass:         "Leve",
		EnvClass:         "Sem impacto",
		Causes:           []string{"Procedimento"},
		Opinion:          "Procedente",
		MaintenanceOrder: "OM-1234",
		UnsafeBehaviors:  []string{"Sem EPI", "Pressa"},
		Employee:         "Carlos",
	}

	// Unknown id is skipped, the rest of the batch still applies
	updated, skipped, err := db.ApplyReviews(ctx, []ReviewUpdate{
		{ID: id, Review: review},
		{ID: 9999, Review: review},
	})
	if err != nil {
		t.Fatalf("ApplyReviews failed: %v", err)
	}
	if updated != 1 {
		t.Errorf("expected 1 updated, got %d", updated)
	}
	if !reflect.DeepEqual(skipped, []int64{9999}) {
		t.Errorf("expected [9999] skipped, got %v", skipped)
	}

	got, err := db.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SSTClass != "Leve" || got.Opinion != "Procedente" || got.MaintenanceOrder != "OM-1234" {
		t.Errorf("review fields not stored: %+v", got)
	}
	if !reflect.DeepEqual(got.UnsafeBehaviors, []string{"Sem EPI", "Pressa"}) {
		t.Errorf("expected unsafe behaviors [Sem EPI Pressa], got %v", got.UnsafeBehaviors)
	}
	if !reflect.DeepEqual(got.Causes, []string{"Procedimento"}) {
		t.Errorf("expected causes replaced by review, got %v", got.Causes)
	}
	if got.UnsafeConditions != nil {
		t.Errorf("expected unsafe conditions cleared by review, got %v", got.UnsafeConditions)
	}
	if got.Emitter != "Ana" {
		t.Errorf("review must not touch core fields, emitter is '%s'", got.Emitter)
	}
}

func TestSQLiteDB_ApplyReviews_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	first, _ := db.Add(ctx, testIncident("Ana"))
	second, _ := db.Add(ctx, testIncident("Bruno"))

	// Fail any update that sets this class
	_, err := db.db.Exec(`
		CREATE TRIGGER reject_review BEFORE UPDATE ON incidents
		WHEN NEW.sst_class = 'rejeitar'
		BEGIN
			SELECT RAISE(ABORT, 'review rejected');
		END;
	`)
	if err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}

	_, _, err = db.ApplyReviews(ctx, []ReviewUpdate{
		{ID: first, Review: models.Review{SSTClass: "Grave"}},
		{ID: second, Review: models.Review{SSTClass: "rejeitar"}},
	})
	if err == nil {
		t.Fatal("expected error from rejected review")
	}

	got, err := db.GetByID(ctx, first)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SSTClass != "" {
		t.Errorf("expected batch rolled back, first incident has sst class '%s'", got.SSTClass)
	}
	if !reflect.DeepEqual(got.Causes, testIncident("Ana").Causes) {
		t.Errorf("expected causes untouched after rollback, got %v", got.Causes)
	}
}

func TestSQLiteDB_Users(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	_, err := db.GetUser(ctx, "teste")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, err := db.EnsureUser(ctx, "teste", "hash-1")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if !created {
		t.Error("expected first EnsureUser to create the user")
	}

	// Second call keeps the original hash
	created, err = db.EnsureUser(ctx, "teste", "hash-2")
	if err != nil {
		t.Fatalf("EnsureUser failed: %v", err)
	}
	if created {
		t.Error("expected EnsureUser to be a no-op for an existing user")
	}

	u, err := db.GetUser(ctx, "teste")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.PasswordHash != "hash-1" {
		t.Errorf("expected password hash 'hash-1', got '%s'", u.PasswordHash)
	}
}

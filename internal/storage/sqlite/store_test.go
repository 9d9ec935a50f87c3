package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/codedrill/drill/internal/domain"
	"github.com/google/uuid"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "drill.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	version, err := db.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version < 1 {
		t.Errorf("Version = %d; want >= 1", version)
	}
}

func sampleAttempt(exerciseID string, correct bool, at time.Time) *domain.Attempt {
	return &domain.Attempt{
		ID:          uuid.New(),
		ExerciseID:  exerciseID,
		LessonID:    "loops",
		ModuleID:    "python-v1",
		Variant:     domain.VariantWrite,
		Submitted:   "def add(a, b):\n    return a + b",
		Correct:     correct,
		Grade:       domain.GradeGood,
		TimeSpentMs: 45_000,
		Concepts:    []string{"loops", "functions"},
		Diagnostics: []string{"adds two and three: ok"},
		CreatedAt:   at,
	}
}

func TestAttemptStore_AppendAndList(t *testing.T) {
	store := NewAttemptStore(testDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		a := sampleAttempt("python-v1/loops/write-add", i != 1, base.Add(time.Duration(i)*time.Minute))
		if err := store.Append(ctx, a); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := store.Append(ctx, sampleAttempt("python-v1/loops/trace-sum", true, base)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	attempts, err := store.ListByExercise(ctx, "python-v1/loops/write-add")
	if err != nil {
		t.Fatalf("ListByExercise: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("got %d attempts, want 3", len(attempts))
	}
	for i := 1; i < len(attempts); i++ {
		if attempts[i].CreatedAt.Before(attempts[i-1].CreatedAt) {
			t.Error("attempts not ordered oldest first")
		}
	}
	got := attempts[0]
	if got.Grade != domain.GradeGood || !got.Correct {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if len(got.Concepts) != 2 || got.Concepts[0] != "loops" {
		t.Errorf("Concepts = %v", got.Concepts)
	}
	if len(got.Diagnostics) != 1 {
		t.Errorf("Diagnostics = %v", got.Diagnostics)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Errorf("Count = %d; want 4", n)
	}
}

func TestAttemptStore_ListByConcept(t *testing.T) {
	store := NewAttemptStore(testDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tagged := sampleAttempt("python-v1/loops/write-add", true, base)
	other := sampleAttempt("python-v1/strings/upper", true, base.Add(time.Minute))
	other.Concepts = []string{"strings"}
	if err := store.Append(ctx, tagged); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(ctx, other); err != nil {
		t.Fatal(err)
	}

	attempts, err := store.ListByConcept(ctx, "loops")
	if err != nil {
		t.Fatalf("ListByConcept: %v", err)
	}
	if len(attempts) != 1 || attempts[0].ExerciseID != "python-v1/loops/write-add" {
		t.Errorf("ListByConcept = %+v", attempts)
	}
}

func TestCardStore_SaveGetRoundTrip(t *testing.T) {
	store := NewCardStore(testDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	card := &domain.ReviewCard{
		ExerciseID:    "python-v1/loops/write-add",
		Stability:     4.2,
		Difficulty:    5.5,
		ElapsedDays:   1.5,
		ScheduledDays: 4,
		Reps:          3,
		Lapses:        1,
		State:         domain.StateReview,
		Due:           now.AddDate(0, 0, 4),
		LastReview:    now,
	}
	if err := store.Save(ctx, card); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, card.ExerciseID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stability != card.Stability || got.Difficulty != card.Difficulty {
		t.Errorf("memory state lost: %+v", got)
	}
	if got.State != domain.StateReview || got.Reps != 3 || got.Lapses != 1 {
		t.Errorf("counters lost: %+v", got)
	}
	if !got.Due.Equal(card.Due) || !got.LastReview.Equal(card.LastReview) {
		t.Errorf("timestamps lost: due=%s lastReview=%s", got.Due, got.LastReview)
	}

	// Upsert replaces the row.
	card.Reps = 4
	card.Stability = 6.1
	if err := store.Save(ctx, card); err != nil {
		t.Fatalf("Save again: %v", err)
	}
	got, err = store.Get(ctx, card.ExerciseID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.Reps != 4 || got.Stability != 6.1 {
		t.Errorf("upsert did not replace: %+v", got)
	}
}

func TestCardStore_GetMissing(t *testing.T) {
	store := NewCardStore(testDB(t))
	_, err := store.Get(context.Background(), "python-v1/loops/missing")
	if !errors.Is(err, domain.ErrCardNotFound) {
		t.Errorf("err = %v; want ErrCardNotFound", err)
	}
}

func TestCardStore_DueSet(t *testing.T) {
	store := NewCardStore(testDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	save := func(id string, due time.Time, state domain.CardState) {
		t.Helper()
		err := store.Save(ctx, &domain.ReviewCard{
			ExerciseID: id,
			Stability:  2,
			Difficulty: 5,
			Reps:       1,
			State:      state,
			Due:        due,
			LastReview: due.AddDate(0, 0, -2),
		})
		if err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	save("ex/overdue/b", now.Add(-time.Hour), domain.StateReview)
	save("ex/overdue/a", now.Add(-48*time.Hour), domain.StateLearning)
	save("ex/future/c", now.Add(72*time.Hour), domain.StateReview)

	due, err := store.Due(ctx, now, 0)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("got %d due cards, want 2", len(due))
	}
	if due[0].ExerciseID != "ex/overdue/a" || due[1].ExerciseID != "ex/overdue/b" {
		t.Errorf("due set not ordered earliest first: %s, %s", due[0].ExerciseID, due[1].ExerciseID)
	}

	limited, err := store.Due(ctx, now, 1)
	if err != nil {
		t.Fatalf("Due limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("got %d cards with limit 1", len(limited))
	}

	n, err := store.DueCount(ctx, now)
	if err != nil {
		t.Fatalf("DueCount: %v", err)
	}
	if n != 2 {
		t.Errorf("DueCount = %d; want 2", n)
	}
}

func TestMasteryStore_SaveGetList(t *testing.T) {
	store := NewMasteryStore(testDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	rows := []domain.ConceptMastery{
		{Concept: "loops", Level: domain.MasteryMastered, Streak: 3, UpdatedAt: now},
		{Concept: "functions", Level: domain.MasteryPracticing, Streak: 1, UpdatedAt: now},
	}
	for i := range rows {
		if err := store.Save(ctx, &rows[i]); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.Get(ctx, "loops")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Level != domain.MasteryMastered || got.Streak != 3 {
		t.Errorf("round trip lost fields: %+v", got)
	}

	// Lapse demotes the row in place.
	got.Level = domain.MasteryPracticing
	got.Streak = 0
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("Save after lapse: %v", err)
	}
	got, err = store.Get(ctx, "loops")
	if err != nil {
		t.Fatalf("Get after lapse: %v", err)
	}
	if got.Level != domain.MasteryPracticing || got.Streak != 0 {
		t.Errorf("upsert did not replace: %+v", got)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].Concept != "functions" {
		t.Errorf("List = %+v", all)
	}

	if _, err := store.Get(ctx, "recursion"); !errors.Is(err, domain.ErrConceptNotFound) {
		t.Errorf("missing concept: err = %v; want ErrConceptNotFound", err)
	}
}

package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestNewReviewCard(t *testing.T) {
	card := NewReviewCard("python-v1/loops/sum-list")

	if card.State != StateNew {
		t.Errorf("State = %q; want %q", card.State, StateNew)
	}
	if card.Reps != 0 || card.Lapses != 0 {
		t.Errorf("Reps = %d, Lapses = %d; want 0, 0", card.Reps, card.Lapses)
	}
	if err := card.CheckInvariants(); err != nil {
		t.Errorf("CheckInvariants() on new card = %v", err)
	}
}

func TestReviewCard_CheckInvariants(t *testing.T) {
	now := time.Now()
	valid := ReviewCard{
		ExerciseID:    "ex-1",
		Stability:     2.5,
		Difficulty:    5.0,
		ScheduledDays: 3,
		Reps:          4,
		Lapses:        1,
		State:         StateReview,
		Due:           now.Add(72 * time.Hour),
		LastReview:    now,
	}

	tests := []struct {
		name    string
		mutate  func(*ReviewCard)
		wantErr bool
	}{
		{"valid", func(c *ReviewCard) {}, false},
		{"zero stability", func(c *ReviewCard) { c.Stability = 0 }, true},
		{"negative stability", func(c *ReviewCard) { c.Stability = -1 }, true},
		{"difficulty below 1", func(c *ReviewCard) { c.Difficulty = 0.5 }, true},
		{"difficulty above 10", func(c *ReviewCard) { c.Difficulty = 11 }, true},
		{"lapses exceed reps", func(c *ReviewCard) { c.Lapses = 5 }, true},
		{"due before last review", func(c *ReviewCard) { c.Due = now.Add(-time.Hour) }, true},
		{"unknown state", func(c *ReviewCard) { c.State = "archived" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := valid
			tt.mutate(&card)
			err := card.CheckInvariants()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckInvariants() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReviewCard_JSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	card := ReviewCard{
		ExerciseID:    "python-v1/loops/sum-list",
		Stability:     4.2,
		Difficulty:    6.1,
		ElapsedDays:   2,
		ScheduledDays: 4,
		Reps:          7,
		Lapses:        2,
		State:         StateRelearning,
		Due:           now.Add(96 * time.Hour),
		LastReview:    now,
	}

	data, err := json.Marshal(card)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var decoded ReviewCard
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(card, decoded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, card)
	}
}

func TestGrade_TextMarshaling(t *testing.T) {
	for _, g := range []Grade{GradeAgain, GradeHard, GradeGood, GradeEasy} {
		text, err := g.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error = %v", g, err)
		}
		var back Grade
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", text, err)
		}
		if back != g {
			t.Errorf("round trip = %v; want %v", back, g)
		}
	}

	if _, err := Grade(9).MarshalText(); err == nil {
		t.Error("MarshalText(9) = nil error; want ErrInvalidGrade")
	}
	var g Grade
	if err := g.UnmarshalText([]byte("perfect")); err == nil {
		t.Error("UnmarshalText(perfect) = nil error; want ErrInvalidGrade")
	}
}

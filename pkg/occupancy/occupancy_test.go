package occupancy

import (
	"testing"

	"github.com/mzielinski/wspolnota-api/pkg/models"
)

func intPtr(v int) *int { return &v }

func TestRatio_Clamped(t *testing.T) {
	// Over-booked source data: ratio clamps to 1, raw counts stay raw
	av := &models.Availability{MaxParticipants: intPtr(100), OccupiedCount: intPtr(120)}

	ratio, shown := Ratio(av)
	if !shown {
		t.Fatal("ratio should be shown when both counts are present")
	}
	if ratio != 1.0 {
		t.Errorf("expected clamped ratio 1.0, got %f", ratio)
	}
	if ToneFor(ratio) != ToneCritical {
		t.Errorf("over-booked event should render critical, got %s", ToneFor(ratio))
	}
}

func TestRatio_HiddenCases(t *testing.T) {
	cases := []struct {
		name string
		av   *models.Availability
	}{
		{"nil snapshot", nil},
		{"nil max", &models.Availability{OccupiedCount: intPtr(10)}},
		{"nil occupied", &models.Availability{MaxParticipants: intPtr(10)}},
		{"zero capacity", &models.Availability{MaxParticipants: intPtr(0), OccupiedCount: intPtr(3)}},
	}

	for _, tc := range cases {
		if _, shown := Ratio(tc.av); shown {
			t.Errorf("%s: occupancy should not be shown", tc.name)
		}
	}
}

func TestToneThresholds(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{0.0, ToneNominal},
		{0.54, ToneNominal},
		{0.55, ToneWarning},
		{0.84, ToneWarning},
		{0.85, ToneCritical},
		{1.0, ToneCritical},
	}

	for _, tc := range cases {
		if got := ToneFor(tc.ratio); got != tc.want {
			t.Errorf("ratio %.2f: expected %s, got %s", tc.ratio, tc.want, got)
		}
	}
}

func TestEnrich(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "Joga", Type: "joga", Date: "2026-03-10"},
		{ID: "e2", Title: "Karate", Type: "karate", Date: "2026-03-10"},
		{ID: "e3", Title: "Ognisko", Type: "ognisko", Date: "2026-03-10"},
	}
	registered := map[string]bool{"e2": true}
	availability := map[string]*models.Availability{
		"e1": {MaxParticipants: intPtr(20), OccupiedCount: intPtr(18)},
		// e2 fetch failed: no entry at all
		"e3": {MaxParticipants: nil, OccupiedCount: intPtr(50)},
	}

	views := Enrich(events, registered, availability)
	if len(views) != 3 {
		t.Fatalf("expected 3 views, got %d", len(views))
	}

	if !views[0].HasOccupancy {
		t.Error("e1 should show occupancy")
	}
	if views[0].OccupancyRatio != 0.9 || views[0].Tone != ToneCritical {
		t.Errorf("e1: expected ratio 0.9 critical, got %f %s", views[0].OccupancyRatio, views[0].Tone)
	}
	if views[0].IsRegistered {
		t.Error("e1 should not be registered")
	}

	// Missing availability degrades to "unknown", not full or empty
	if views[1].HasOccupancy {
		t.Error("e2 has no availability data and should not show occupancy")
	}
	if !views[1].IsRegistered {
		t.Error("e2 should be registered")
	}

	// Unlimited capacity never renders a bar, whatever the count says
	if views[2].HasOccupancy {
		t.Error("e3 has nil max_participants and should not show occupancy")
	}
}

func TestEnrich_EmptyInput(t *testing.T) {
	views := Enrich(nil, nil, nil)
	if views == nil || len(views) != 0 {
		t.Error("expected an empty, non-nil view list")
	}
}

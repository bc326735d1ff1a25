package calendar

import (
	"testing"
	"time"

	"github.com/mzielinski/wspolnota-api/pkg/models"
)

func TestBuildMonthGrid_Always42Cells(t *testing.T) {
	today := time.Date(2026, 3, 15, 14, 30, 0, 0, time.Local)

	cases := []struct {
		year  int
		month time.Month
	}{
		{2026, time.February},  // 28 days
		{2024, time.February},  // leap year
		{2026, time.March},     // 1st falls on Sunday, max leading offset
		{2021, time.February},  // 1st falls on Monday, zero offset
		{2026, time.August},    // 31 days
		{2026, time.December},  // year boundary
	}

	for _, tc := range cases {
		grid := BuildMonthGrid(tc.year, tc.month, nil, nil, today)
		if len(grid.Days) != GridCells {
			t.Errorf("%d-%02d: expected %d cells, got %d", tc.year, tc.month, GridCells, len(grid.Days))
		}

		// The month's 1st day is never preceded by more than 6 cells
		firstIdx := -1
		for i, cell := range grid.Days {
			if cell.IsCurrentMonth && cell.Day == 1 {
				firstIdx = i
				break
			}
		}
		if firstIdx < 0 || firstIdx > 6 {
			t.Errorf("%d-%02d: 1st of month at index %d", tc.year, tc.month, firstIdx)
		}
	}
}

func TestBuildMonthGrid_MondayStart(t *testing.T) {
	today := time.Date(2026, 3, 15, 9, 0, 0, 0, time.Local)
	grid := BuildMonthGrid(2026, time.March, nil, nil, today)

	start, ok := ParseDateKey(grid.Days[0].Date, time.Local)
	if !ok {
		t.Fatalf("unparseable first cell date %q", grid.Days[0].Date)
	}
	if start.Weekday() != time.Monday {
		t.Errorf("grid starts on %v, expected Monday", start.Weekday())
	}

	// March 1st 2026 is a Sunday, so the grid should lead with six
	// February days.
	if grid.Days[0].Date != "2026-02-23" {
		t.Errorf("expected grid to start 2026-02-23, got %s", grid.Days[0].Date)
	}
	if grid.Days[0].IsCurrentMonth {
		t.Error("leading cell should not belong to the displayed month")
	}
}

func TestBuildMonthGrid_TodayAndPastFlags(t *testing.T) {
	// Late in the day: isPast must still use the midnight boundary
	today := time.Date(2026, 3, 15, 23, 45, 0, 0, time.Local)
	grid := BuildMonthGrid(2026, time.March, nil, nil, today)

	cells := make(map[string]models.DayCell)
	for _, cell := range grid.Days {
		cells[cell.Date] = cell
	}

	yesterday := cells["2026-03-14"]
	if !yesterday.IsPast {
		t.Error("yesterday should be past")
	}
	if yesterday.IsToday {
		t.Error("yesterday should not be today")
	}

	current := cells["2026-03-15"]
	if current.IsPast {
		t.Error("today should not be past, even late in the evening")
	}
	if !current.IsToday {
		t.Error("today cell not flagged")
	}

	tomorrow := cells["2026-03-16"]
	if tomorrow.IsPast || tomorrow.IsToday {
		t.Error("tomorrow should be neither past nor today")
	}
}

func TestBucketEvents_SingleDay(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "Joga", Type: "joga", Date: "2026-03-10"},
	}

	buckets := BucketEvents(events, nil, time.Local)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if len(buckets["2026-03-10"]) != 1 {
		t.Errorf("event missing from its day bucket")
	}
}

func TestBucketEvents_MultiDaySpan(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "Wyjazd w góry", Type: "wyjazd", Date: "2026-03-10", EndDate: "2026-03-12"},
	}

	buckets := BucketEvents(events, nil, time.Local)
	for _, key := range []string{"2026-03-10", "2026-03-11", "2026-03-12"} {
		if len(buckets[key]) != 1 {
			t.Errorf("expected event in bucket %s", key)
		}
	}
	if len(buckets) != 3 {
		t.Errorf("expected 3 buckets, got %d", len(buckets))
	}
}

func TestBucketEvents_CapAtFourPerDay(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "A", Type: "joga", Date: "2026-03-10", Time: "08:00"},
		{ID: "e2", Title: "B", Type: "joga", Date: "2026-03-10", Time: "09:00"},
		{ID: "e3", Title: "C", Type: "joga", Date: "2026-03-10", Time: "10:00"},
		{ID: "e4", Title: "D", Type: "joga", Date: "2026-03-10", Time: "11:00"},
		{ID: "e5", Title: "E", Type: "joga", Date: "2026-03-10", Time: "07:00"},
	}

	buckets := BucketEvents(events, nil, time.Local)
	bucket := buckets["2026-03-10"]
	if len(bucket) != MaxEventsPerDay {
		t.Fatalf("expected %d events, got %d", MaxEventsPerDay, len(bucket))
	}

	// The 5th arrival is dropped even though its time sorts earliest:
	// the cap applies in arrival order, ordering applies to survivors.
	for _, ev := range bucket {
		if ev.ID == "e5" {
			t.Error("event past the cap should have been dropped")
		}
	}
}

func TestBucketEvents_CapAppliesPerDayIndependently(t *testing.T) {
	events := []models.Event{
		{ID: "span", Title: "Obóz", Type: "wyjazd", Date: "2026-03-10", EndDate: "2026-03-11"},
		{ID: "f1", Title: "A", Type: "joga", Date: "2026-03-10"},
		{ID: "f2", Title: "B", Type: "joga", Date: "2026-03-10"},
		{ID: "f3", Title: "C", Type: "joga", Date: "2026-03-10"},
		{ID: "f4", Title: "D", Type: "joga", Date: "2026-03-10"},
	}

	buckets := BucketEvents(events, nil, time.Local)
	if len(buckets["2026-03-10"]) != MaxEventsPerDay {
		t.Errorf("first day should be capped at %d", MaxEventsPerDay)
	}
	// The second day of the span is not crowded out by the first day's cap
	if len(buckets["2026-03-11"]) != 1 {
		t.Errorf("span event missing from its second day")
	}
}

func TestBucketEvents_SortOrder(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "Z", Type: "inne", Date: "2026-03-10"},
		{ID: "e2", Title: "B", Type: "inne", Date: "2026-03-10", Time: "09:00"},
		{ID: "e3", Title: "A", Type: "inne", Date: "2026-03-10", Time: "09:00"},
	}

	bucket := BucketEvents(events, nil, time.Local)["2026-03-10"]
	got := []string{bucket[0].Title, bucket[1].Title, bucket[2].Title}
	want := []string{"Z", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestBucketEvents_FilterToggle(t *testing.T) {
	events := []models.Event{
		{ID: "k1", Title: "Trening", Type: "karate", Date: "2026-03-10", Time: "17:00"},
		{ID: "j1", Title: "Poranna joga", Type: "joga", Date: "2026-03-10", Time: "08:00"},
		{ID: "m1", Title: "Morsowanie", Type: "mors", Date: "2026-03-10", Time: "06:30"},
	}

	filter := models.TypeFilter{"karate": false}
	bucket := BucketEvents(events, filter, time.Local)["2026-03-10"]

	if len(bucket) != 2 {
		t.Fatalf("expected 2 events with karate hidden, got %d", len(bucket))
	}
	if bucket[0].ID != "m1" || bucket[1].ID != "j1" {
		t.Errorf("remaining categories lost their ordering: %v, %v", bucket[0].ID, bucket[1].ID)
	}
}

func TestBucketEvents_UnknownTypeFallsBackToInne(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "Coś nowego", Type: "quidditch", Date: "2026-03-10"},
	}

	// Hiding "inne" must hide unrecognized categories too
	buckets := BucketEvents(events, models.TypeFilter{"inne": false}, time.Local)
	if len(buckets) != 0 {
		t.Error("unknown category should fall back to inne and be filtered out")
	}

	buckets = BucketEvents(events, nil, time.Local)
	if len(buckets["2026-03-10"]) != 1 {
		t.Error("unknown category should still be bucketed when inne is visible")
	}
}

func TestBucketEvents_MissingDateSkipped(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "Bez daty", Type: "inne"},
		{ID: "e2", Title: "Zepsuta data", Type: "inne", Date: "not-a-date"},
		{ID: "e3", Title: "OK", Type: "inne", Date: "2026-03-10"},
	}

	buckets := BucketEvents(events, nil, time.Local)
	if len(buckets) != 1 || len(buckets["2026-03-10"]) != 1 {
		t.Errorf("only the event with a valid date should be bucketed")
	}
}

func TestBucketEvents_EndBeforeStart(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "Odwrócony zakres", Type: "inne", Date: "2026-03-10", EndDate: "2026-03-08"},
	}

	buckets := BucketEvents(events, nil, time.Local)
	if len(buckets) != 1 || len(buckets["2026-03-10"]) != 1 {
		t.Errorf("inverted range should collapse to the start day")
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory("karate"); got != "karate" {
		t.Errorf("known category changed: %s", got)
	}
	if got := NormalizeCategory("curling"); got != CategoryFallback {
		t.Errorf("unknown category should map to %s, got %s", CategoryFallback, got)
	}
	if got := NormalizeCategory(""); got != CategoryFallback {
		t.Errorf("empty category should map to %s, got %s", CategoryFallback, got)
	}
}

func TestDateKey_NoUTCConversion(t *testing.T) {
	// 00:30 local on the 10th: a UTC-based encoding would report the 9th
	// for any zone east of UTC.
	warsaw, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Skip("tzdata not available")
	}
	late := time.Date(2026, 3, 10, 0, 30, 0, 0, warsaw)
	if got := DateKey(late); got != "2026-03-10" {
		t.Errorf("expected local date key 2026-03-10, got %s", got)
	}
}

func TestDayEvents(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "A", Type: "joga", Date: "2026-03-10"},
	}

	day := DayEvents("2026-03-10", events, nil, time.Local)
	if len(day) != 1 {
		t.Fatalf("expected 1 event, got %d", len(day))
	}

	empty := DayEvents("2026-03-11", events, nil, time.Local)
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty day should yield an empty, non-nil slice")
	}
}

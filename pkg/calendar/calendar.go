package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/mzielinski/wspolnota-api/pkg/models"
)

// GridCells is the fixed size of a month grid: 6 weeks of 7 days, always,
// regardless of how many the month itself needs.
const GridCells = 42

// MaxEventsPerDay caps how many events a single day cell displays. Events
// past the cap are dropped from that day without an overflow indicator.
// This is display policy, not a data limit.
const MaxEventsPerDay = 4

// CategoryFallback is assigned to events whose type is not a known category.
const CategoryFallback = "inne"

var knownCategories = map[string]bool{
	"karate":     true,
	"mors":       true,
	"planszowki": true,
	"ognisko":    true,
	"spacer":     true,
	"joga":       true,
	"wyjazd":     true,
	"inne":       true,
}

// categoryColors is the closed category -> display color table backing the
// calendar legend. Unknown categories inherit the fallback entry.
var categoryColors = map[string]string{
	"karate":     "#e74c3c",
	"mors":       "#3498db",
	"planszowki": "#9b59b6",
	"ognisko":    "#e67e22",
	"spacer":     "#2ecc71",
	"joga":       "#1abc9c",
	"wyjazd":     "#f1c40f",
	"inne":       "#95a5a6",
}

// CategoryColor returns the legend color for an event type.
func CategoryColor(eventType string) string {
	return categoryColors[NormalizeCategory(eventType)]
}

// Categories returns the closed set of known event categories.
func Categories() []string {
	cats := make([]string, 0, len(knownCategories))
	for c := range knownCategories {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// NormalizeCategory maps an event type onto the known category set,
// falling back to "inne" for anything unrecognized.
func NormalizeCategory(eventType string) string {
	if knownCategories[eventType] {
		return eventType
	}
	return CategoryFallback
}

// DateKey encodes a time as a local YYYY-MM-DD calendar-date key. It reads
// the local date fields directly and never converts through UTC, so users
// east or west of UTC get the same day they see on their wall clock.
func DateKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseDateKey parses a YYYY-MM-DD key into a local midnight time.
func ParseDateKey(key string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", key, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// BucketEvents assigns events to day buckets keyed by date key. An event
// spanning several days lands in every day from Date through EndDate
// inclusive. Each bucket holds at most MaxEventsPerDay entries; later
// arrivals for a full day are dropped silently. Events whose category is
// switched off by the filter, or that have no parseable start date, are
// skipped entirely.
func BucketEvents(events []models.Event, filter models.TypeFilter, loc *time.Location) map[string][]models.Event {
	buckets := make(map[string][]models.Event)

	for _, ev := range events {
		if !filter.Visible(NormalizeCategory(ev.Type)) {
			continue
		}

		start, ok := ParseDateKey(ev.Date, loc)
		if !ok {
			continue
		}
		end := start
		if ev.EndDate != "" {
			if parsed, ok := ParseDateKey(ev.EndDate, loc); ok {
				end = parsed
			}
		}
		if end.Before(start) {
			end = start
		}

		// Local-date stepping; AddDate keeps the wall-clock day stable
		// across DST transitions.
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			key := DateKey(day)
			if len(buckets[key]) < MaxEventsPerDay {
				buckets[key] = append(buckets[key], ev)
			}
		}
	}

	for key := range buckets {
		sortBucket(buckets[key])
	}

	return buckets
}

// sortBucket orders a day's events ascending by time, then title. A missing
// time compares as the empty string and therefore sorts first.
func sortBucket(bucket []models.Event) {
	sort.SliceStable(bucket, func(i, j int) bool {
		if bucket[i].Time != bucket[j].Time {
			return bucket[i].Time < bucket[j].Time
		}
		return bucket[i].Title < bucket[j].Title
	})
}

// BuildMonthGrid produces the 42-cell Monday-start grid containing the given
// month. Leading and trailing cells belong to the adjacent months and are
// marked IsCurrentMonth=false. The reference time "today" is an explicit
// parameter so the computation stays pure and testable.
func BuildMonthGrid(year int, month time.Month, events []models.Event, filter models.TypeFilter, today time.Time) models.MonthGrid {
	loc := today.Location()
	buckets := BucketEvents(events, filter, loc)

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Weekday offset with Monday normalized to 0.
	offset := (int(first.Weekday()) + 6) % 7
	start := first.AddDate(0, 0, -offset)

	todayKey := DateKey(today)
	todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	days := make([]models.DayCell, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		day := start.AddDate(0, 0, i)
		key := DateKey(day)

		cellEvents := buckets[key]
		if cellEvents == nil {
			cellEvents = []models.Event{}
		}

		days = append(days, models.DayCell{
			Date:           key,
			Day:            day.Day(),
			IsCurrentMonth: day.Month() == month && day.Year() == year,
			IsToday:        key == todayKey,
			IsPast:         day.Before(todayMidnight),
			Events:         cellEvents,
		})
	}

	return models.MonthGrid{Year: year, Month: int(month), Days: days}
}

// DayEvents returns the bucketed events for a single date key, already
// filtered, capped and sorted the same way the month grid is.
func DayEvents(dateKey string, events []models.Event, filter models.TypeFilter, loc *time.Location) []models.Event {
	bucket := BucketEvents(events, filter, loc)[dateKey]
	if bucket == nil {
		return []models.Event{}
	}
	return bucket
}

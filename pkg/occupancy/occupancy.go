package occupancy

import "github.com/mzielinski/wspolnota-api/pkg/models"

// Tones are the discrete severity buckets an occupancy ratio maps to.
const (
	ToneNominal  = "nominal"
	ToneWarning  = "warning"
	ToneCritical = "critical"
)

// Fixed policy thresholds for the tone buckets.
const (
	criticalThreshold = 0.85
	warningThreshold  = 0.55
)

// Ratio computes the occupancy ratio for an availability snapshot, clamped
// to [0,1]. The second return is false when the ratio cannot be shown:
// missing snapshot, a nil counter on either side, or zero capacity.
// Over-booked events (occupied > max) clamp to 1 rather than overflowing
// the display.
func Ratio(av *models.Availability) (float64, bool) {
	if av == nil || av.MaxParticipants == nil || av.OccupiedCount == nil || *av.MaxParticipants == 0 {
		return 0, false
	}

	ratio := float64(*av.OccupiedCount) / float64(*av.MaxParticipants)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio, true
}

// ToneFor buckets a clamped ratio into a display tone.
func ToneFor(ratio float64) string {
	switch {
	case ratio >= criticalThreshold:
		return ToneCritical
	case ratio >= warningThreshold:
		return ToneWarning
	default:
		return ToneNominal
	}
}

// Enrich projects the selected day's events into display views carrying
// registration state and occupancy. Events with no availability data keep
// HasOccupancy=false and are never treated as full or empty. The raw
// participant counts are passed through unclamped; only the ratio is
// clamped.
func Enrich(events []models.Event, registered map[string]bool, availability map[string]*models.Availability) []models.DayEventView {
	views := make([]models.DayEventView, 0, len(events))

	for _, ev := range events {
		view := models.DayEventView{
			Event:        ev,
			IsRegistered: registered[ev.ID],
		}

		if av, ok := availability[ev.ID]; ok {
			if ratio, shown := Ratio(av); shown {
				view.HasOccupancy = true
				view.OccupancyRatio = ratio
				view.Tone = ToneFor(ratio)
				view.MaxParticipants = av.MaxParticipants
				view.OccupiedCount = av.OccupiedCount
			}
		}

		views = append(views, view)
	}

	return views
}

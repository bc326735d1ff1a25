package models

// Event represents a single community event as delivered by the upstream API.
// Date and EndDate are local calendar dates encoded as YYYY-MM-DD date keys;
// they deliberately carry no time zone so a day is the same day everywhere.
type Event struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Date     string `json:"date"`
	EndDate  string `json:"endDate,omitempty"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
	City     string `json:"city,omitempty"`
}

// Availability is the registration capacity snapshot for one event.
// A nil field means the upstream does not know (or the event is unlimited);
// occupancy is only rendered when both fields are present.
type Availability struct {
	MaxParticipants *int `json:"max_participants"`
	OccupiedCount   *int `json:"occupied_count"`
}

// TypeFilter maps an event category to its visibility. A category missing
// from the map is visible.
type TypeFilter map[string]bool

// Visible reports whether events of the given category should be shown.
func (f TypeFilter) Visible(category string) bool {
	if f == nil {
		return true
	}
	visible, ok := f[category]
	if !ok {
		return true
	}
	return visible
}

// DayCell is one of the 42 cells of a month grid.
type DayCell struct {
	Date           string  `json:"date"`
	Day            int     `json:"day"`
	IsCurrentMonth bool    `json:"is_current_month"`
	IsToday        bool    `json:"is_today"`
	IsPast         bool    `json:"is_past"`
	Events         []Event `json:"events"`
}

// MonthGrid is the full calendar response for one month.
type MonthGrid struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Days  []DayCell `json:"days"`
}

// DayEventView is an event of the selected day enriched with registration
// and occupancy display data.
type DayEventView struct {
	Event
	IsRegistered    bool    `json:"is_registered"`
	HasOccupancy    bool    `json:"has_occupancy"`
	OccupancyRatio  float64 `json:"occupancy_ratio"`
	Tone            string  `json:"tone,omitempty"`
	MaxParticipants *int    `json:"max_participants,omitempty"`
	OccupiedCount   *int    `json:"occupied_count,omitempty"`
}

// ChatStatus reports the latest known message timestamp for one chat channel
// and whether it is newer than what the user last saw.
type ChatStatus struct {
	Channel   string `json:"channel"`
	LatestAt  int64  `json:"latest_at"`
	HasUnread bool   `json:"has_unread"`
}

// Product is a shop listing entry, passed through from the upstream API.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url,omitempty"`
	Available   bool    `json:"available"`
}

// DonationRequest is the payload of a donation form submission.
type DonationRequest struct {
	Amount  float64 `json:"amount"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Message string  `json:"message,omitempty"`
}

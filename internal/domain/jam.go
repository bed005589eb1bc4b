package domain

import "time"

// RawJamRow is one congestion event row from the jam history store. Line is
// the ordered geographic polyline as reported; it may be empty or a single
// point, in which case the jam cannot be oriented or matched.
//
// Street, City, Speed, Delay, Length, and Level are feed metadata preserved
// through parsing and fixtures; the matcher itself never reads them.
type RawJamRow struct {
	ID           int64        `json:"id"`
	UUID         int64        `json:"uuid"`
	StartTime    time.Time    `json:"start_time"`
	EndTime      time.Time    `json:"end_time"`
	Street       string       `json:"street,omitempty"`
	City         string       `json:"city,omitempty"`
	SpeedMPS     float64      `json:"speed_mps,omitempty"`
	DelaySeconds int          `json:"delay_seconds,omitempty"`
	LengthMeters int          `json:"length_meters,omitempty"`
	Level        int          `json:"level,omitempty"`
	Line         []Coordinate `json:"line"`
}

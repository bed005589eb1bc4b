package domain

import "time"

// JamPerSection is one attribution fact. Tier records which cascade stage
// accepted the pair; MatchedAt is the processing timestamp, not an event
// time.
type JamPerSection struct {
	JamStartTime time.Time `json:"jam_start_time"`
	JamUUID      int64     `json:"jam_uuid"`
	SectionID    int64     `json:"section_id"`
	Tier         string    `json:"tier"`
	MatchedAt    time.Time `json:"matched_at"`
}

// NewJamPerSection builds a fact stamped with the current clock time.
func NewJamPerSection(startTime time.Time, jamUUID, sectionID int64, tier string) JamPerSection {
	return JamPerSection{
		JamStartTime: startTime,
		JamUUID:      jamUUID,
		SectionID:    sectionID,
		Tier:         tier,
		MatchedAt:    clock.Now(),
	}
}

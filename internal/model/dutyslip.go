package model

import (
	"regexp"
	"time"
)

type SlipStatus string

const (
	StatusPending    SlipStatus = "pending"
	StatusInProgress SlipStatus = "in-progress"
	StatusCompleted  SlipStatus = "completed"
)

func (s SlipStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Completed slips are terminal: every mutating operation must be rejected.
func (d DutySlip) Completed() bool {
	return d.Status == StatusCompleted
}

// Completion carries everything a trip-completion request may supply, after
// the wire encoding (JSON or multipart) has been decoded. Start/end odometer
// readings and both photos form one atomic unit; the rest is optional.
type Completion struct {
	StartKM           *float64
	EndKM             *float64
	StartKMPhoto      string
	EndKMPhoto        string
	CustomerSignature string
	TollFees          float64
	ParkingFees       float64
	StartTime         string
	EndTime           string
}

// RgxClockTime matches 24-hour HH:MM times. The hour may be a single digit
// but minutes must always be two.
var RgxClockTime = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

func ValidClockTime(value string) bool {
	return RgxClockTime.MatchString(value)
}

// TripDuration computes the elapsed time between two HH:MM clock readings,
// treating an end before the start as crossing midnight. The second return
// is false when either value does not parse.
func TripDuration(start, end string) (time.Duration, bool) {
	if !ValidClockTime(start) || !ValidClockTime(end) {
		return 0, false
	}

	st, err := time.Parse("15:04", normalizeClockTime(start))
	if err != nil {
		return 0, false
	}
	et, err := time.Parse("15:04", normalizeClockTime(end))
	if err != nil {
		return 0, false
	}

	d := et.Sub(st)
	if d < 0 {
		d += 24 * time.Hour
	}

	return d, true
}

func normalizeClockTime(value string) string {
	if len(value) == 4 { // "9:30"
		return "0" + value
	}
	return value
}

package model

import (
	"testing"
	"time"
)

func TestValidClockTime(t *testing.T) {
	valid := []string{"00:00", "09:05", "9:30", "12:45", "23:59"}
	for _, v := range valid {
		if !ValidClockTime(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}

	invalid := []string{"24:00", "9:5", "abc", "", "12:60", "1200", "7:5pm", "-1:30"}
	for _, v := range invalid {
		if ValidClockTime(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}

func TestTripDuration(t *testing.T) {
	tests := []struct {
		start, end string
		want       time.Duration
		ok         bool
	}{
		{"09:00", "12:30", 3*time.Hour + 30*time.Minute, true},
		{"9:00", "9:00", 0, true},
		{"22:00", "01:00", 3 * time.Hour, true},
		{"abc", "12:00", 0, false},
		{"12:00", "", 0, false},
	}

	for _, tt := range tests {
		got, ok := TripDuration(tt.start, tt.end)
		if ok != tt.ok || got != tt.want {
			t.Errorf("TripDuration(%q, %q) = %v, %v; want %v, %v", tt.start, tt.end, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOTPTicketExpired(t *testing.T) {
	issued := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	ticket := OTPTicket{Contact: "9876543210", Code: "482910", ExpiresAt: issued.Add(10 * time.Minute)}

	if ticket.Expired(issued) {
		t.Error("freshly issued ticket should not be expired")
	}
	if ticket.Expired(issued.Add(10*time.Minute - time.Second)) {
		t.Error("ticket should still be usable just before expiry")
	}
	if !ticket.Expired(issued.Add(10*time.Minute + time.Second)) {
		t.Error("ticket should be expired one second past expiry, regardless of code")
	}
}

func TestDutySlipCompleted(t *testing.T) {
	slip := DutySlip{Status: StatusPending}
	if slip.Completed() {
		t.Error("pending slip reported as completed")
	}

	slip.Status = StatusCompleted
	if !slip.Completed() {
		t.Error("completed slip not reported as completed")
	}
}

package main

import (
	"testing"

	"github.com/exceltravels/duty-track/internal/model"
	"github.com/exceltravels/duty-track/internal/validator"
)

func completeRequest() model.Completion {
	start, end := 100.0, 150.0
	return model.Completion{
		StartKM:      &start,
		EndKM:        &end,
		StartKMPhoto: "http://localhost:8080/uploads/duty-slips/DS100/start-km.jpg",
		EndKMPhoto:   "http://localhost:8080/uploads/duty-slips/DS100/end-km.jpg",
	}
}

func TestValidateCompletionAccepts(t *testing.T) {
	var v validator.Validator
	validateCompletion(&v, completeRequest())
	if v.HasErrors() {
		t.Errorf("complete payload rejected: %+v", v)
	}
}

func TestValidateCompletionRejectsPartialUnits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Completion)
		field  string
	}{
		{"missing start KM", func(c *model.Completion) { c.StartKM = nil }, "manualStartKm"},
		{"missing end KM", func(c *model.Completion) { c.EndKM = nil }, "manualEndKm"},
		{"missing start photo", func(c *model.Completion) { c.StartKMPhoto = "" }, "startKmImage"},
		{"missing end photo", func(c *model.Completion) { c.EndKMPhoto = "" }, "endKmImage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := completeRequest()
			tt.mutate(&c)

			var v validator.Validator
			validateCompletion(&v, c)

			if !v.HasErrors() {
				t.Fatal("partial completion accepted")
			}
			if _, ok := v.FieldErrors[tt.field]; !ok {
				t.Errorf("expected a field error for %q, got %+v", tt.field, v.FieldErrors)
			}
		})
	}
}

func TestValidateCompletionTimeFields(t *testing.T) {
	for _, valid := range []string{"", "09:30", "9:30", "23:59"} {
		c := completeRequest()
		c.StartTime = valid

		var v validator.Validator
		validateCompletion(&v, c)
		if v.HasErrors() {
			t.Errorf("time %q rejected: %+v", valid, v)
		}
	}

	for _, invalid := range []string{"24:00", "9:5", "abc"} {
		c := completeRequest()
		c.EndTime = invalid

		var v validator.Validator
		validateCompletion(&v, c)
		if !v.HasErrors() {
			t.Errorf("time %q accepted", invalid)
		}
	}
}

func TestValidateChangePassword(t *testing.T) {
	var v validator.Validator
	validateChangePassword(&v, "old-pass", "old-pass", 6, false)
	if _, ok := v.FieldErrors["newPassword"]; !ok {
		t.Error("unchanged password should be rejected on the change path")
	}

	v = validator.Validator{}
	validateChangePassword(&v, "old-pass", "short", 6, false)
	if _, ok := v.FieldErrors["newPassword"]; !ok {
		t.Error("too-short password should be rejected")
	}

	v = validator.Validator{}
	validateChangePassword(&v, "", "fresh-pass", 6, true)
	if v.HasErrors() {
		t.Errorf("reset path should not require the current password: %+v", v)
	}

	v = validator.Validator{}
	validateChangePassword(&v, "old-pass", "fresh-pass", 6, false)
	if v.HasErrors() {
		t.Errorf("valid change rejected: %+v", v)
	}
}

func TestEvidenceMarker(t *testing.T) {
	tests := []struct {
		filename string
		marker   string
		ok       bool
	}{
		{"start-km-1700000000.jpg", "start-km", true},
		{"DS100_END-KM.png", "end-km", true},
		{"customer-signature.webp", "signature", true},
		{"odometer.jpg", "", false},
	}

	for _, tt := range tests {
		marker, ok := evidenceMarker(tt.filename)
		if marker != tt.marker || ok != tt.ok {
			t.Errorf("evidenceMarker(%q) = %q, %v; want %q, %v", tt.filename, marker, ok, tt.marker, tt.ok)
		}
	}
}

func TestMergedCompletion(t *testing.T) {
	startKM := 100.0
	startPhoto := "http://localhost:8080/uploads/duty-slips/DS100/start-km.jpg"
	current := model.DutySlip{
		StartKM:      &startKM,
		StartKMPhoto: &startPhoto,
	}

	endKM := 150.0
	endPhoto := "http://localhost:8080/uploads/duty-slips/DS100/end-km.jpg"
	input := requestUpdateDutySlip{
		EndKM:      &endKM,
		EndKMPhoto: &endPhoto,
	}

	merged := mergedCompletion(current, input)

	var v validator.Validator
	validateCompletion(&v, merged)
	if v.HasErrors() {
		t.Errorf("merge of stored start and supplied end should complete: %+v", v)
	}

	// dropping the supplied end photo leaves the unit incomplete
	input.EndKMPhoto = nil
	merged = mergedCompletion(current, input)

	v = validator.Validator{}
	validateCompletion(&v, merged)
	if !v.HasErrors() {
		t.Error("incomplete merge accepted")
	}
}

func TestFormatDuration(t *testing.T) {
	d, ok := model.TripDuration("09:00", "12:30")
	if !ok {
		t.Fatal("expected parseable times")
	}
	if got := formatDuration(d); got != "3h 30m" {
		t.Errorf("got %q, want \"3h 30m\"", got)
	}
}

package main

import (
	"github.com/exceltravels/duty-track/internal/model"
	"github.com/exceltravels/duty-track/internal/validator"
)

// Validation rules

// validateCompletion enforces the atomic completion unit: both odometer
// readings and both photos together, plus well-formed optional times.
func validateCompletion(v *validator.Validator, c model.Completion) {
	validateCompletionEvidence(v, c, c.StartKMPhoto != "", c.EndKMPhoto != "")
}

// validateCompletionEvidence is the shared core for both wire encodings: the
// JSON body carries photo URLs, the multipart form carries the files
// themselves, so photo presence is passed in separately.
func validateCompletionEvidence(v *validator.Validator, c model.Completion, hasStartPhoto, hasEndPhoto bool) {
	v.CheckField(c.StartKM != nil, "manualStartKm", "missing KM data")
	v.CheckField(c.EndKM != nil, "manualEndKm", "missing KM data")
	v.CheckField(hasStartPhoto, "startKmImage", "missing image evidence")
	v.CheckField(hasEndPhoto, "endKmImage", "missing image evidence")

	if c.StartKM != nil && c.EndKM != nil {
		v.CheckField(*c.EndKM >= *c.StartKM, "manualEndKm", "end KM cannot be less than start KM")
	}

	validateClockTimeField(v, c.StartTime, "timestampStart")
	validateClockTimeField(v, c.EndTime, "timestampEnd")
}

func validateClockTimeField(v *validator.Validator, value, field string) {
	if value == "" {
		return
	}
	v.CheckField(model.ValidClockTime(value), field, "must be a 24-hour HH:MM time")
}

func validateChangePassword(v *validator.Validator, currentPassword, newPassword string, minLength int, isReset bool) {
	v.CheckField(validator.NotBlank(newPassword), "newPassword", "cannot be blank")
	v.CheckField(validator.MinRunes(newPassword, minLength), "newPassword", "too short")

	if !isReset {
		v.CheckField(validator.NotBlank(currentPassword), "currentPassword", "cannot be blank")
		v.CheckField(newPassword != currentPassword, "newPassword", "must differ from current password")
	}
}

func validateAddDriver(v *validator.Validator, req requestAddDriver) {
	v.CheckField(validator.NotBlank(req.Name), "name", "cannot be blank")
	v.CheckField(req.Age > 0, "age", "must be a positive number")
	v.CheckField(validator.IsEmail(req.Email), "email", "must be a valid email address")
	v.CheckField(validator.NotBlank(req.Contact), "contact", "cannot be blank")
	v.CheckField(validator.NotBlank(req.Address), "address", "cannot be blank")
	v.CheckField(validator.NotBlank(req.EmergencyName), "emergencyName", "cannot be blank")
	v.CheckField(validator.NotBlank(req.EmergencyContact), "emergencyContact", "cannot be blank")
	v.CheckField(validator.NotBlank(req.BankName), "bankName", "cannot be blank")
	v.CheckField(validator.NotBlank(req.AccountNumber), "accountNumber", "cannot be blank")
	v.CheckField(validator.NotBlank(req.IFSCCode), "ifscCode", "cannot be blank")
	v.CheckField(validator.NotBlank(req.Branch), "branch", "cannot be blank")
	v.CheckField(validator.NotBlank(req.AadharNumber), "aadharNumber", "cannot be blank")
	v.CheckField(validator.NotBlank(req.PANNumber), "panNumber", "cannot be blank")
	v.CheckField(validator.NotBlank(req.LicenseNumber), "licenseNumber", "cannot be blank")
}

func validateAddDutySlip(v *validator.Validator, req requestAddDutySlip) {
	v.CheckField(validator.NotBlank(req.DutySlipID), "dutySlipId", "cannot be blank")
	v.CheckField(validator.NotBlank(req.CompanyID), "companyId", "cannot be blank")
	v.CheckField(validator.NotBlank(req.CompanyName), "companyName", "cannot be blank")
	v.CheckField(validator.NotBlank(req.DriverID), "driverId", "cannot be blank")
	v.CheckField(validator.NotBlank(req.CustomerName), "customerName", "cannot be blank")
}

func validateUpdateDutySlip(v *validator.Validator, req requestUpdateDutySlip) {
	if req.Status != nil {
		v.CheckField((*req.Status).Valid(), "status", "must be pending, in-progress or completed")
	}
	if req.StartTime != nil {
		validateClockTimeField(v, *req.StartTime, "startTime")
	}
	if req.EndTime != nil {
		validateClockTimeField(v, *req.EndTime, "endTime")
	}
}

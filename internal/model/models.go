package model

import "time"

type ID = uint

type Driver struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	DriverID string `json:"driverId" db:"driver_id"`
	Name     string `json:"name" db:"name"`
	Age      int    `json:"age" db:"age"`
	Email    string `json:"email" db:"email"`
	Contact  string `json:"contact" db:"contact"`
	Address  string `json:"address" db:"address"`

	EmergencyName    string `json:"emergencyName" db:"emergency_name"`
	EmergencyContact string `json:"emergencyContact" db:"emergency_contact"`

	BankName      string `json:"bankName" db:"bank_name"`
	AccountNumber string `json:"accountNumber" db:"account_number"`
	IFSCCode      string `json:"ifscCode" db:"ifsc_code"`
	Branch        string `json:"branch" db:"branch"`

	AadharNumber  string `json:"aadharNumber" db:"aadhar_number"`
	PANNumber     string `json:"panNumber" db:"pan_number"`
	LicenseNumber string `json:"licenseNumber" db:"license_number"`

	PasswordHash []byte  `json:"-" db:"password_hash"`
	ProfilePic   *string `json:"profilePic,omitempty" db:"profile_pic"`
}

type DutySlip struct {
	ID         ID         `json:"id" db:"id"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	ModifiedAt *time.Time `json:"modifiedAt" db:"modified_at"`

	DutySlipID   string     `json:"dutySlipId" db:"duty_slip_id"`
	CompanyID    string     `json:"companyId" db:"company_id"`
	CompanyName  string     `json:"companyName" db:"company_name"`
	DriverID     string     `json:"driverId" db:"driver_id"`
	DriverName   string     `json:"driverName" db:"driver_name"`
	CustomerName string     `json:"customerName" db:"customer_name"`
	City         string     `json:"city" db:"city"`
	Address      string     `json:"address" db:"address"`
	CarBooked    string     `json:"carBooked" db:"car_booked"`
	CarNumber    string     `json:"carNumber" db:"car_number"`
	PhoneNumber  string     `json:"phoneNumber" db:"phone_number"`
	PickupTime   string     `json:"pickupTime" db:"pickup_time"`
	DutyType     string     `json:"dutyType" db:"duty_type"`
	TripRoute    string     `json:"tripRoute" db:"trip_route"`
	DateFrom     *time.Time `json:"dateFrom" db:"date_from"`
	DateTo       *time.Time `json:"dateTo" db:"date_to"`

	StartKM           *float64 `json:"startKM" db:"start_km"`
	StartKMPhoto      *string  `json:"startKMPhoto" db:"start_km_photo"`
	EndKM             *float64 `json:"endKM" db:"end_km"`
	EndKMPhoto        *string  `json:"endKMPhoto" db:"end_km_photo"`
	CustomerSignature *string  `json:"customerSignature" db:"customer_signature"`
	TollFees          float64  `json:"tollFees" db:"toll_fees"`
	ParkingFees       float64  `json:"parkingFees" db:"parking_fees"`
	StartTime         *string  `json:"startTime" db:"start_time"`
	EndTime           *string  `json:"endTime" db:"end_time"`

	Status SlipStatus `json:"status" db:"status"`
}

type OTPTicket struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Contact   string    `json:"contact" db:"contact"`
	Code      string    `json:"code" db:"code"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the ticket is past its expiry at the given instant.
// The background sweep prunes expired rows eventually, so an expired ticket
// can still be present in storage; validation must call this itself.
func (t OTPTicket) Expired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

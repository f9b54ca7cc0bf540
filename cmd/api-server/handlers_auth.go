package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/exceltravels/duty-track/internal/ctxstore"
	"github.com/exceltravels/duty-track/internal/database"
	"github.com/exceltravels/duty-track/internal/model"
	"github.com/exceltravels/duty-track/internal/observability"
	"github.com/exceltravels/duty-track/internal/otp"
	"github.com/exceltravels/duty-track/internal/password"
	"github.com/exceltravels/duty-track/internal/request"
	"github.com/exceltravels/duty-track/internal/response"
	"github.com/exceltravels/duty-track/internal/validator"
)

type requestLogin struct {
	Username string `json:"username"`
	Contact  string `json:"contact"`
	Password string `json:"password"`
}

func (app *application) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	var input requestLogin
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	if (input.Username == "" && input.Contact == "") || input.Password == "" {
		app.badRequest(w, r, errors.New("username and password are required"))
		return
	}

	dao := database.NewDriverDAO(logger, app.db)

	var (
		driver model.Driver
		err    error
	)
	if input.Contact != "" {
		driver, err = dao.GetByContact(ctx, input.Contact)
	} else {
		driver, err = dao.GetByName(ctx, input.Username)
	}
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if !password.Matches(input.Password, driver.PasswordHash) {
		app.errorMessage(w, r, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	sessionToken, err := app.tokens.Issue(driver.DriverID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	err = response.JSON(w, http.StatusOK, response.JSONObject{
		"message": "Login successful",
		"token":   sessionToken,
		"driver": response.JSONObject{
			"id":         driver.ID,
			"driverId":   driver.DriverID,
			"name":       driver.Name,
			"email":      driver.Email,
			"contact":    driver.Contact,
			"profilePic": driver.ProfilePic,
		},
	})
	if err != nil {
		app.serverError(w, r, err)
	}
}

type requestSendOTP struct {
	Contact string `json:"contact"`
}

func (app *application) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	var input requestSendOTP
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	v.Check(validator.NotBlank(input.Contact), "Contact cannot be blank")
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	driverDAO := database.NewDriverDAO(logger, app.db)

	driver, err := driverDAO.GetByContact(ctx, input.Contact)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, "No driver registered with this contact", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	code, err := otp.Generate(app.config.otp.length)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	otpDAO := database.NewOTPDAO(logger, app.db)

	_, err = otpDAO.Insert(ctx, database.InsertOTPDTO{
		Contact:   driver.Contact,
		Code:      code,
		ExpiresAt: time.Now().Add(app.config.otp.ttl),
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	body := fmt.Sprintf(
		"Your OTP for password reset is: %s. Valid for %d minutes.",
		code, int(app.config.otp.ttl.Minutes()),
	)
	if err := app.smsSender.Send(ctx, driver.Contact, body); err != nil {
		app.reportServerError(r, err)
		app.errorMessage(w, r, http.StatusInternalServerError, "Failed to send OTP", nil)
		return
	}

	observability.OTPIssuedTotal.Inc()

	err = response.JSON(w, http.StatusOK, response.JSONObject{
		"success": true,
		"message": "OTP sent successfully",
	})
	if err != nil {
		app.serverError(w, r, err)
	}
}

type requestVerifyOTP struct {
	Contact string `json:"contact"`
	OTP     string `json:"otp"`
}

func (app *application) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	var input requestVerifyOTP
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	if input.Contact == "" || input.OTP == "" {
		app.badRequest(w, r, errors.New("contact and otp are required"))
		return
	}

	otpDAO := database.NewOTPDAO(logger, app.db)

	// One message for both a wrong code and an expired ticket: the caller
	// must not learn which.
	ticket, err := otpDAO.GetByContactAndCode(ctx, input.Contact, input.OTP)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusForbidden, "Invalid or expired OTP", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	// The sweep runs out-of-band, so an expired ticket may still be stored.
	if ticket.Expired(time.Now()) {
		app.errorMessage(w, r, http.StatusForbidden, "Invalid or expired OTP", nil)
		return
	}

	// single-use
	if err := otpDAO.Delete(ctx, ticket.ID); err != nil {
		app.serverError(w, r, err)
		return
	}

	err = response.JSON(w, http.StatusOK, response.JSONObject{
		"success":                 true,
		"message":                 "OTP verified successfully",
		"showChangePasswordModal": true,
	})
	if err != nil {
		app.serverError(w, r, err)
	}
}

type requestChangePassword struct {
	Contact         string `json:"contact"`
	NewPassword     string `json:"newPassword"`
	CurrentPassword string `json:"currentPassword"`
	IsReset         bool   `json:"isReset"`
}

func (app *application) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	var input requestChangePassword
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	v.Check(validator.NotBlank(input.Contact), "Contact cannot be blank")
	validateChangePassword(&v, input.CurrentPassword, input.NewPassword, app.config.password.minLength, input.IsReset)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := database.NewDriverDAO(logger, app.db)

	driver, err := dao.GetByContact(ctx, input.Contact)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, "No driver registered with this contact", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	// The reset path rides on a freshly verified OTP instead of the current
	// password.
	if !input.IsReset && !password.Matches(input.CurrentPassword, driver.PasswordHash) {
		app.errorMessage(w, r, http.StatusUnauthorized, "Current password is incorrect", nil)
		return
	}

	hash, err := password.Hash(input.NewPassword)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := dao.UpdatePassword(ctx, driver.DriverID, hash); err != nil {
		app.serverError(w, r, err)
		return
	}

	err = response.JSON(w, http.StatusOK, response.JSONObject{
		"success": true,
		"message": "Password changed successfully",
	})
	if err != nil {
		app.serverError(w, r, err)
	}
}

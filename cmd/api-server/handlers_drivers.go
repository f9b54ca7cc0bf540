package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/exceltravels/duty-track/internal/ctxstore"
	"github.com/exceltravels/duty-track/internal/database"
	"github.com/exceltravels/duty-track/internal/driverid"
	"github.com/exceltravels/duty-track/internal/model"
	"github.com/exceltravels/duty-track/internal/password"
	"github.com/exceltravels/duty-track/internal/request"
	"github.com/exceltravels/duty-track/internal/response"
	"github.com/exceltravels/duty-track/internal/validator"
)

func (app *application) handleFindDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	dao := database.NewDriverDAO(logger, app.db)

	drivers, err := dao.Find(ctx)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, drivers); err != nil {
		app.serverError(w, r, err)
	}
}

type requestAddDriver struct {
	DriverID         string `json:"driverId"`
	Name             string `json:"name"`
	Age              int    `json:"age"`
	Email            string `json:"email"`
	Contact          string `json:"contact"`
	Address          string `json:"address"`
	EmergencyName    string `json:"emergencyName"`
	EmergencyContact string `json:"emergencyContact"`
	BankName         string `json:"bankName"`
	AccountNumber    string `json:"accountNumber"`
	IFSCCode         string `json:"ifscCode"`
	Branch           string `json:"branch"`
	AadharNumber     string `json:"aadharNumber"`
	PANNumber        string `json:"panNumber"`
	LicenseNumber    string `json:"licenseNumber"`
	Password         string `json:"password"`
}

func (app *application) handleAddDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	var input requestAddDriver
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateAddDriver(&v, input)
	if input.Password != "" {
		v.CheckField(
			password.Validate(input.Password, app.config.password.minLength) == nil,
			"password", "too short",
		)
	}
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	if input.DriverID == "" {
		id, err := app.allocator.Allocate(ctx)
		if err != nil {
			app.serverError(w, r, err)
			return
		}
		input.DriverID = id
	}

	// Legacy deployments authenticated drivers with their contact number;
	// registrations without an explicit password keep that behavior.
	plaintext := input.Password
	if plaintext == "" {
		plaintext = input.Contact
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	dao := database.NewDriverDAO(logger, app.db)

	_, err = dao.Insert(ctx, database.InsertDriverDTO{
		DriverID:         input.DriverID,
		Name:             input.Name,
		Age:              input.Age,
		Email:            input.Email,
		Contact:          input.Contact,
		Address:          input.Address,
		EmergencyName:    input.EmergencyName,
		EmergencyContact: input.EmergencyContact,
		BankName:         input.BankName,
		AccountNumber:    input.AccountNumber,
		IFSCCode:         input.IFSCCode,
		Branch:           input.Branch,
		AadharNumber:     input.AadharNumber,
		PANNumber:        input.PANNumber,
		LicenseNumber:    input.LicenseNumber,
		PasswordHash:     hash,
	})
	if err != nil {
		if errors.Is(err, model.ErrExists) {
			app.errorMessage(w, r, http.StatusConflict, err.Error(), nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	driver, err := dao.Get(ctx, input.DriverID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, driver); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleGetDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	dao := database.NewDriverDAO(logger, app.db)

	driver, err := dao.Get(ctx, driverIDFromRequest(r))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, err.Error(), nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, driver); err != nil {
		app.serverError(w, r, err)
	}
}

type requestUpdateDriver struct {
	Name             *string `json:"name"`
	Age              *int    `json:"age"`
	Email            *string `json:"email"`
	Contact          *string `json:"contact"`
	Address          *string `json:"address"`
	EmergencyName    *string `json:"emergencyName"`
	EmergencyContact *string `json:"emergencyContact"`
	BankName         *string `json:"bankName"`
	AccountNumber    *string `json:"accountNumber"`
	IFSCCode         *string `json:"ifscCode"`
	Branch           *string `json:"branch"`
	AadharNumber     *string `json:"aadharNumber"`
	PANNumber        *string `json:"panNumber"`
	LicenseNumber    *string `json:"licenseNumber"`
}

func (app *application) handleUpdateDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	driverID := driverIDFromRequest(r)

	var input requestUpdateDriver
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	dao := database.NewDriverDAO(logger, app.db)

	if _, err := dao.Get(ctx, driverID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, err.Error(), nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	err := dao.Update(ctx, driverID, database.UpdateDriverDTO{
		Name:             input.Name,
		Age:              input.Age,
		Email:            input.Email,
		Contact:          input.Contact,
		Address:          input.Address,
		EmergencyName:    input.EmergencyName,
		EmergencyContact: input.EmergencyContact,
		BankName:         input.BankName,
		AccountNumber:    input.AccountNumber,
		IFSCCode:         input.IFSCCode,
		Branch:           input.Branch,
		AadharNumber:     input.AadharNumber,
		PANNumber:        input.PANNumber,
		LicenseNumber:    input.LicenseNumber,
	})
	if err != nil {
		if errors.Is(err, model.ErrExists) {
			app.errorMessage(w, r, http.StatusConflict, err.Error(), nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	driver, err := dao.Get(ctx, driverID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, driver); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleDeleteDriver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	driverID := driverIDFromRequest(r)

	dao := database.NewDriverDAO(logger, app.db)

	if _, err := dao.Get(ctx, driverID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, "Driver not found", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if err := dao.Delete(ctx, driverID); err != nil {
		app.serverError(w, r, err)
		return
	}

	// best-effort cleanup of stored images; a failure here must not fail the
	// delete itself
	if err := app.blobs.DeletePrefix("drivers/" + driverID); err != nil {
		logger.Warn("failed to delete driver blobs", "driverId", driverID, "error", err)
	}

	err := response.JSON(w, http.StatusOK, response.JSONObject{"message": "Deleted Successfully"})
	if err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleGenerateDriverID(w http.ResponseWriter, r *http.Request) {
	id, err := app.allocator.Allocate(r.Context())
	if err != nil {
		if errors.Is(err, driverid.ErrExhausted) {
			app.errorMessage(w, r, http.StatusConflict, "Could not allocate a unique driver ID, try again", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusOK, response.JSONObject{"driverId": id}); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleUploadProfilePic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	driverID := driverIDFromRequest(r)

	dao := database.NewDriverDAO(logger, app.db)

	driver, err := dao.Get(ctx, driverID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, "Driver not found", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	img, err := imageFormFile(r, "profilePic")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	if img == nil {
		app.badRequest(w, r, errors.New("profilePic file is required"))
		return
	}

	key := fmt.Sprintf("drivers/%s/profile-%d%s", driverID, time.Now().Unix(), img.Ext)
	url, err := app.blobs.Save(key, bytes.NewReader(img.Data))
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := dao.UpdateProfilePic(ctx, driverID, url); err != nil {
		app.serverError(w, r, err)
		return
	}

	// the superseded picture is deleted best-effort
	if driver.ProfilePic != nil {
		if oldKey, ok := app.blobs.URLKey(*driver.ProfilePic); ok {
			if err := app.blobs.Delete(oldKey); err != nil {
				logger.Warn("failed to delete old profile pic", "key", oldKey, "error", err)
			}
		}
	}

	err = response.JSON(w, http.StatusOK, response.JSONObject{
		"message":    "Profile picture updated",
		"profilePic": url,
	})
	if err != nil {
		app.serverError(w, r, err)
	}
}

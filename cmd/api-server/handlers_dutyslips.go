package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/exceltravels/duty-track/internal/ctxstore"
	"github.com/exceltravels/duty-track/internal/database"
	"github.com/exceltravels/duty-track/internal/model"
	"github.com/exceltravels/duty-track/internal/observability"
	"github.com/exceltravels/duty-track/internal/request"
	"github.com/exceltravels/duty-track/internal/response"
	"github.com/exceltravels/duty-track/internal/validator"
)

// dutySlipStore is the storage surface the duty-slip handlers work against.
// database.DutySlipDAO implements it.
type dutySlipStore interface {
	Get(ctx context.Context, dutySlipID string) (model.DutySlip, error)
	Insert(ctx context.Context, dto database.InsertDutySlipDTO) (model.ID, error)
	Complete(ctx context.Context, dutySlipID string, c model.Completion) (model.DutySlip, error)
	Update(ctx context.Context, dutySlipID string, dto database.UpdateDutySlipDTO) (model.DutySlip, error)
	MarkInProgress(ctx context.Context, dutySlipID string) error
	FindCompleted(ctx context.Context, filter database.HistoryFilter) ([]model.DutySlip, error)
}

type requestAddDutySlip struct {
	DutySlipID   string     `json:"dutySlipId"`
	CompanyID    string     `json:"companyId"`
	CompanyName  string     `json:"companyName"`
	DriverID     string     `json:"driverId"`
	DriverName   string     `json:"driverName"`
	CustomerName string     `json:"customerName"`
	City         string     `json:"city"`
	Address      string     `json:"address"`
	CarBooked    string     `json:"carBooked"`
	CarNumber    string     `json:"carNumber"`
	PhoneNumber  string     `json:"phoneNumber"`
	PickupTime   string     `json:"pickupTime"`
	DutyType     string     `json:"dutyType"`
	TripRoute    string     `json:"tripRoute"`
	DateFrom     *time.Time `json:"dateFrom"`
	DateTo       *time.Time `json:"dateTo"`
}

func (app *application) handleAddDutySlip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	var input requestAddDutySlip
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateAddDutySlip(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := app.slips(logger)

	_, err := dao.Insert(ctx, database.InsertDutySlipDTO{
		DutySlipID:   input.DutySlipID,
		CompanyID:    input.CompanyID,
		CompanyName:  input.CompanyName,
		DriverID:     input.DriverID,
		DriverName:   input.DriverName,
		CustomerName: input.CustomerName,
		City:         input.City,
		Address:      input.Address,
		CarBooked:    input.CarBooked,
		CarNumber:    input.CarNumber,
		PhoneNumber:  input.PhoneNumber,
		PickupTime:   input.PickupTime,
		DutyType:     input.DutyType,
		TripRoute:    input.TripRoute,
		DateFrom:     input.DateFrom,
		DateTo:       input.DateTo,
	})
	if err != nil {
		if errors.Is(err, model.ErrExists) {
			app.errorMessage(w, r, http.StatusConflict, err.Error(), nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	slip, err := dao.Get(ctx, input.DutySlipID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	if err := response.JSON(w, http.StatusCreated, slip); err != nil {
		app.serverError(w, r, err)
	}
}

func (app *application) handleGetDutySlip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	dao := app.slips(logger)

	slip, err := dao.Get(ctx, dutySlipIDFromRequest(r))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, "Duty slip not found", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if app.config.dutySlip.strictCompletedFetch && slip.Completed() {
		app.errorMessage(w, r, http.StatusBadRequest, "Duty slip already completed", nil)
		return
	}

	// projected read view for the driver client
	address := slip.Address
	if slip.City != "" {
		address += ", " + slip.City
	}

	err = response.JSON(w, http.StatusOK, response.JSONObject{
		"id":         slip.DutySlipID,
		"party":      slip.CustomerName,
		"address":    address,
		"contact":    slip.PhoneNumber,
		"category":   slip.CarBooked,
		"pickupTime": slip.PickupTime,
		"driverName": slip.DriverName,
		"driverId":   slip.DriverID,
		"carNumber":  slip.CarNumber,
		"tripRoute":  slip.TripRoute,
		"status":     slip.Status,
	})
	if err != nil {
		app.serverError(w, r, err)
	}
}

type requestCompleteDutySlip struct {
	ManualStartKm        *float64 `json:"manualStartKm"`
	ManualEndKm          *float64 `json:"manualEndKm"`
	StartKmImageURL      string   `json:"startKmImageUrl"`
	EndKmImageURL        string   `json:"endKmImageUrl"`
	CustomerSignatureURL string   `json:"customerSignatureUrl"`
	TollFees             float64  `json:"tollFees"`
	ParkingFees          float64  `json:"parkingFees"`
	TimestampStart       string   `json:"timestampStart"`
	TimestampEnd         string   `json:"timestampEnd"`
}

func (app *application) handleCompleteDutySlip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	dutySlipID := dutySlipIDFromRequest(r)

	dao := app.slips(logger)

	// Checked up front: the multipart decoder persists evidence blobs, and a
	// completed or unknown slip must not accrue files. The guarded UPDATE
	// below still decides races.
	current, err := dao.Get(ctx, dutySlipID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, "Duty slip not found", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}
	if current.Completed() {
		app.errorMessage(w, r, http.StatusBadRequest, "Duty slip already completed", nil)
		return
	}

	var completion model.Completion
	if isMultipart(r) {
		completion, err = app.decodeCompletionMultipart(w, r, dutySlipID)
	} else {
		completion, err = app.decodeCompletionJSON(w, r)
	}
	if err != nil {
		return // the decoder has already written the response
	}

	slip, err := dao.Complete(ctx, dutySlipID, completion)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCompleted):
			app.errorMessage(w, r, http.StatusBadRequest, "Duty slip already completed", nil)
		case errors.Is(err, model.ErrNotFound):
			app.errorMessage(w, r, http.StatusNotFound, "Duty slip not found", nil)
		default:
			app.serverError(w, r, err)
		}
		return
	}

	observability.SlipsCompletedTotal.Inc()

	err = response.JSON(w, http.StatusOK, response.JSONObject{
		"message":  "Trip data saved successfully",
		"dutySlip": slip,
	})
	if err != nil {
		app.serverError(w, r, err)
	}
}

// errHandled signals that the decoder already wrote an HTTP error.
var errHandled = errors.New("request already handled")

func (app *application) decodeCompletionJSON(w http.ResponseWriter, r *http.Request) (model.Completion, error) {
	var input requestCompleteDutySlip
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return model.Completion{}, errHandled
	}

	completion := model.Completion{
		StartKM:           input.ManualStartKm,
		EndKM:             input.ManualEndKm,
		StartKMPhoto:      input.StartKmImageURL,
		EndKMPhoto:        input.EndKmImageURL,
		CustomerSignature: input.CustomerSignatureURL,
		TollFees:          input.TollFees,
		ParkingFees:       input.ParkingFees,
		StartTime:         input.TimestampStart,
		EndTime:           input.TimestampEnd,
	}

	var v validator.Validator
	validateCompletion(&v, completion)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return model.Completion{}, errHandled
	}

	return completion, nil
}

func (app *application) decodeCompletionMultipart(w http.ResponseWriter, r *http.Request, dutySlipID string) (model.Completion, error) {
	if err := r.ParseMultipartForm(_maxUploadBytes); err != nil {
		app.badRequest(w, r, err)
		return model.Completion{}, errHandled
	}

	var completion model.Completion
	var err error

	if completion.StartKM, err = optionalFloatFormValue(r, "manualStartKm"); err != nil {
		app.badRequest(w, r, err)
		return model.Completion{}, errHandled
	}
	if completion.EndKM, err = optionalFloatFormValue(r, "manualEndKm"); err != nil {
		app.badRequest(w, r, err)
		return model.Completion{}, errHandled
	}
	if completion.TollFees, err = floatFormValue(r, "tollFees", 0); err != nil {
		app.badRequest(w, r, err)
		return model.Completion{}, errHandled
	}
	if completion.ParkingFees, err = floatFormValue(r, "parkingFees", 0); err != nil {
		app.badRequest(w, r, err)
		return model.Completion{}, errHandled
	}
	completion.StartTime = r.FormValue("timestampStart")
	completion.EndTime = r.FormValue("timestampEnd")

	startImg, err := imageFormFile(r, "startKmImage")
	if err != nil {
		app.badRequest(w, r, err)
		return model.Completion{}, errHandled
	}
	endImg, err := imageFormFile(r, "endKmImage")
	if err != nil {
		app.badRequest(w, r, err)
		return model.Completion{}, errHandled
	}
	sigImg, err := imageFormFile(r, "signature")
	if err != nil {
		app.badRequest(w, r, err)
		return model.Completion{}, errHandled
	}

	var v validator.Validator
	validateCompletionEvidence(&v, completion, startImg != nil, endImg != nil)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return model.Completion{}, errHandled
	}

	// validation passed, persist the evidence blobs
	now := time.Now().Unix()

	completion.StartKMPhoto, err = app.blobs.Save(
		fmt.Sprintf("duty-slips/%s/start-km-%d%s", dutySlipID, now, startImg.Ext),
		bytes.NewReader(startImg.Data),
	)
	if err != nil {
		app.serverError(w, r, err)
		return model.Completion{}, errHandled
	}

	completion.EndKMPhoto, err = app.blobs.Save(
		fmt.Sprintf("duty-slips/%s/end-km-%d%s", dutySlipID, now, endImg.Ext),
		bytes.NewReader(endImg.Data),
	)
	if err != nil {
		app.serverError(w, r, err)
		return model.Completion{}, errHandled
	}

	if sigImg != nil {
		completion.CustomerSignature, err = app.blobs.Save(
			fmt.Sprintf("duty-slips/%s/signature-%d%s", dutySlipID, now, sigImg.Ext),
			bytes.NewReader(sigImg.Data),
		)
		if err != nil {
			app.serverError(w, r, err)
			return model.Completion{}, errHandled
		}
	}

	return completion, nil
}

type requestUpdateDutySlip struct {
	StartKM           *float64          `json:"startKM"`
	StartKMPhoto      *string           `json:"startKMPhoto"`
	EndKM             *float64          `json:"endKM"`
	EndKMPhoto        *string           `json:"endKMPhoto"`
	CustomerSignature *string           `json:"customerSignature"`
	TollFees          *float64          `json:"tollFees"`
	ParkingFees       *float64          `json:"parkingFees"`
	StartTime         *string           `json:"startTime"`
	EndTime           *string           `json:"endTime"`
	Status            *model.SlipStatus `json:"status"`
}

func (app *application) handleUpdateDutySlip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	dutySlipID := dutySlipIDFromRequest(r)

	var input requestUpdateDutySlip
	if err := request.DecodeJSONStrict(w, r, &input); err != nil {
		app.badRequest(w, r, err)
		return
	}

	var v validator.Validator
	validateUpdateDutySlip(&v, input)
	if v.HasErrors() {
		app.failedValidation(w, r, v)
		return
	}

	dao := app.slips(logger)

	current, err := dao.Get(ctx, dutySlipID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, "Duty slip not found", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if current.Completed() {
		app.errorMessage(w, r, http.StatusBadRequest, "Duty slip already completed", nil)
		return
	}

	// an update that itself completes the slip must carry the full
	// completion unit, merged over what the slip already holds
	if input.Status != nil && *input.Status == model.StatusCompleted {
		merged := mergedCompletion(current, input)

		var v validator.Validator
		validateCompletion(&v, merged)
		if v.HasErrors() {
			app.failedValidation(w, r, v)
			return
		}
	}

	slip, err := dao.Update(ctx, dutySlipID, database.UpdateDutySlipDTO{
		StartKM:           input.StartKM,
		StartKMPhoto:      input.StartKMPhoto,
		EndKM:             input.EndKM,
		EndKMPhoto:        input.EndKMPhoto,
		CustomerSignature: input.CustomerSignature,
		TollFees:          input.TollFees,
		ParkingFees:       input.ParkingFees,
		StartTime:         input.StartTime,
		EndTime:           input.EndTime,
		Status:            input.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCompleted):
			app.errorMessage(w, r, http.StatusBadRequest, "Duty slip already completed", nil)
		case errors.Is(err, model.ErrNotFound):
			app.errorMessage(w, r, http.StatusNotFound, "Duty slip not found", nil)
		default:
			app.serverError(w, r, err)
		}
		return
	}

	if slip.Completed() {
		observability.SlipsCompletedTotal.Inc()
	}

	if err := response.JSON(w, http.StatusOK, slip); err != nil {
		app.serverError(w, r, err)
	}
}

func mergedCompletion(current model.DutySlip, input requestUpdateDutySlip) model.Completion {
	merged := model.Completion{
		StartKM: current.StartKM,
		EndKM:   current.EndKM,
	}
	if current.StartKMPhoto != nil {
		merged.StartKMPhoto = *current.StartKMPhoto
	}
	if current.EndKMPhoto != nil {
		merged.EndKMPhoto = *current.EndKMPhoto
	}

	if input.StartKM != nil {
		merged.StartKM = input.StartKM
	}
	if input.EndKM != nil {
		merged.EndKM = input.EndKM
	}
	if input.StartKMPhoto != nil {
		merged.StartKMPhoto = *input.StartKMPhoto
	}
	if input.EndKMPhoto != nil {
		merged.EndKMPhoto = *input.EndKMPhoto
	}
	if input.StartTime != nil {
		merged.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		merged.EndTime = *input.EndTime
	}

	return merged
}

func (app *application) handleUploadDutySlipImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	dutySlipID := dutySlipIDFromRequest(r)

	dao := app.slips(logger)

	slip, err := dao.Get(ctx, dutySlipID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			app.errorMessage(w, r, http.StatusNotFound, "Duty slip not found", nil)
			return
		}

		app.serverError(w, r, err)
		return
	}

	if slip.Completed() {
		app.errorMessage(w, r, http.StatusBadRequest, "Duty slip already completed", nil)
		return
	}

	img, err := imageFormFile(r, "image")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	if img == nil {
		app.badRequest(w, r, errors.New("image file is required"))
		return
	}

	marker, ok := evidenceMarker(img.Filename)
	if !ok {
		app.badRequest(w, r, errors.New("filename must contain a start-km, end-km or signature marker"))
		return
	}

	key := fmt.Sprintf("duty-slips/%s/%s-%d%s", dutySlipID, marker, time.Now().Unix(), img.Ext)
	url, err := app.blobs.Save(key, bytes.NewReader(img.Data))
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	// first piece of evidence moves a pending slip to in-progress
	if err := dao.MarkInProgress(ctx, dutySlipID); err != nil {
		app.serverError(w, r, err)
		return
	}

	err = response.JSON(w, http.StatusOK, response.JSONObject{
		"message": "Image uploaded successfully",
		"url":     url,
	})
	if err != nil {
		app.serverError(w, r, err)
	}
}

func evidenceMarker(filename string) (string, bool) {
	lower := strings.ToLower(filename)
	for _, marker := range []string{"start-km", "end-km", "signature"} {
		if strings.Contains(lower, marker) {
			return marker, true
		}
	}
	return "", false
}

func (app *application) handleDutySlipHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := app.logger.With(
		_traceIDKey.String(), ctxstore.MustFrom[string](ctx, _traceIDKey),
	)

	startDate, err := dateQueryParams(r, "startDate")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	endDate, err := dateQueryParams(r, "endDate")
	if err != nil {
		app.badRequest(w, r, err)
		return
	}
	if endDate != nil {
		// the whole end day is included
		inclusive := endDate.Add(24*time.Hour - time.Second)
		endDate = &inclusive
	}

	dao := app.slips(logger)

	slips, err := dao.FindCompleted(ctx, database.HistoryFilter{
		StartDate: startDate,
		EndDate:   endDate,
		DriverID:  optionalStringQueryParams(r, "driverId"),
	})
	if err != nil {
		app.serverError(w, r, err)
		return
	}

	history := make([]response.JSONObject, 0, len(slips))
	for _, slip := range slips {
		item := response.JSONObject{
			"dutySlipId":   slip.DutySlipID,
			"customerName": slip.CustomerName,
			"driverId":     slip.DriverID,
			"driverName":   slip.DriverName,
			"carNumber":    slip.CarNumber,
			"tripRoute":    slip.TripRoute,
			"dateFrom":     slip.DateFrom,
			"dateTo":       slip.DateTo,
			"startKM":      slip.StartKM,
			"endKM":        slip.EndKM,
			"tollFees":     slip.TollFees,
			"parkingFees":  slip.ParkingFees,
			"startTime":    slip.StartTime,
			"endTime":      slip.EndTime,
			"completedAt":  slip.ModifiedAt,
		}

		if slip.StartKM != nil && slip.EndKM != nil {
			item["totalKM"] = *slip.EndKM - *slip.StartKM
		}
		if slip.StartTime != nil && slip.EndTime != nil {
			if d, ok := model.TripDuration(*slip.StartTime, *slip.EndTime); ok {
				item["duration"] = formatDuration(d)
			}
		}

		history = append(history, item)
	}

	if err := response.JSON(w, http.StatusOK, history); err != nil {
		app.serverError(w, r, err)
	}
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %02dm", hours, minutes)
}

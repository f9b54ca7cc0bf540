package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/exceltravels/duty-track/internal/model"
)

type DutySlipDAO struct {
	Logger *slog.Logger
	*DB
}

func NewDutySlipDAO(logger *slog.Logger, db *DB) *DutySlipDAO {
	return &DutySlipDAO{
		Logger: logger.With("dao", "dutySlip"),
		DB:     db,
	}
}

func (dao *DutySlipDAO) Get(ctx context.Context, dutySlipID string) (model.DutySlip, error) {
	logger := dao.Logger.With("query", "get")

	query, args, err := dao.Builder.
		Select("*").
		From("duty_slips").
		Where(squirrel.Eq{"duty_slip_id": dutySlipID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.DutySlip{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var slip model.DutySlip
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&slip); err != nil {
		if IsNoRows(err) {
			return model.DutySlip{}, model.NewError("duty slip", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.DutySlip{}, err
	}

	return slip, nil
}

type InsertDutySlipDTO struct {
	DutySlipID   string
	CompanyID    string
	CompanyName  string
	DriverID     string
	DriverName   string
	CustomerName string
	City         string
	Address      string
	CarBooked    string
	CarNumber    string
	PhoneNumber  string
	PickupTime   string
	DutyType     string
	TripRoute    string
	DateFrom     *time.Time
	DateTo       *time.Time
}

func (dao *DutySlipDAO) Insert(ctx context.Context, dto InsertDutySlipDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	query, args, err := dao.Builder.
		Insert("duty_slips").
		Columns(
			"duty_slip_id", "company_id", "company_name",
			"driver_id", "driver_name", "customer_name",
			"city", "address", "car_booked", "car_number",
			"phone_number", "pickup_time", "duty_type", "trip_route",
			"date_from", "date_to", "status",
		).
		Values(
			dto.DutySlipID, dto.CompanyID, dto.CompanyName,
			dto.DriverID, dto.DriverName, dto.CustomerName,
			dto.City, dto.Address, dto.CarBooked, dto.CarNumber,
			dto.PhoneNumber, dto.PickupTime, dto.DutyType, dto.TripRoute,
			dto.DateFrom, dto.DateTo, model.StatusPending,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var id model.ID
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&id); err != nil {
		logger.Warn("failed query execute", "error", err)

		if IsUniqueViolation(err) {
			return 0, model.NewError("duty slip", model.ErrExists)
		}

		return 0, err
	}

	logger.Debug("success query execute", "insertId", id)

	return id, nil
}

// Complete writes the whole completion unit and flips the status in one
// statement. The completed guard lives in the WHERE clause, so a concurrent
// second completion loses the race at the database rather than in Go.
func (dao *DutySlipDAO) Complete(ctx context.Context, dutySlipID string, c model.Completion) (model.DutySlip, error) {
	logger := dao.Logger.With("query", "complete")

	data := map[string]any{
		"start_km":       c.StartKM,
		"start_km_photo": c.StartKMPhoto,
		"end_km":         c.EndKM,
		"end_km_photo":   c.EndKMPhoto,
		"toll_fees":      c.TollFees,
		"parking_fees":   c.ParkingFees,
		"status":         model.StatusCompleted,
		"modified_at":    time.Now(),
	}
	if c.CustomerSignature != "" {
		data["customer_signature"] = c.CustomerSignature
	}
	if c.StartTime != "" {
		data["start_time"] = c.StartTime
	}
	if c.EndTime != "" {
		data["end_time"] = c.EndTime
	}

	query, args, err := dao.Builder.
		Update("duty_slips").
		SetMap(data).
		Where(squirrel.Eq{"duty_slip_id": dutySlipID}).
		Where(squirrel.NotEq{"status": model.StatusCompleted}).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return model.DutySlip{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var slip model.DutySlip
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&slip); err != nil {
		if IsNoRows(err) {
			return model.DutySlip{}, dao.classifyMiss(ctx, dutySlipID)
		}

		logger.Warn("failed query execute", "error", err)

		return model.DutySlip{}, err
	}

	logger.Debug("success query execute", "dutySlipId", dutySlipID)

	return slip, nil
}

type UpdateDutySlipDTO struct {
	StartKM           *float64
	StartKMPhoto      *string
	EndKM             *float64
	EndKMPhoto        *string
	CustomerSignature *string
	TollFees          *float64
	ParkingFees       *float64
	StartTime         *string
	EndTime           *string
	Status            *model.SlipStatus
}

func (dao *DutySlipDAO) Update(ctx context.Context, dutySlipID string, dto UpdateDutySlipDTO) (model.DutySlip, error) {
	logger := dao.Logger.With("query", "update")

	data := make(map[string]any, 11)
	data["modified_at"] = time.Now()
	if dto.StartKM != nil {
		data["start_km"] = *dto.StartKM
	}
	if dto.StartKMPhoto != nil {
		data["start_km_photo"] = *dto.StartKMPhoto
	}
	if dto.EndKM != nil {
		data["end_km"] = *dto.EndKM
	}
	if dto.EndKMPhoto != nil {
		data["end_km_photo"] = *dto.EndKMPhoto
	}
	if dto.CustomerSignature != nil {
		data["customer_signature"] = *dto.CustomerSignature
	}
	if dto.TollFees != nil {
		data["toll_fees"] = *dto.TollFees
	}
	if dto.ParkingFees != nil {
		data["parking_fees"] = *dto.ParkingFees
	}
	if dto.StartTime != nil {
		data["start_time"] = *dto.StartTime
	}
	if dto.EndTime != nil {
		data["end_time"] = *dto.EndTime
	}
	if dto.Status != nil {
		data["status"] = *dto.Status
	}

	query, args, err := dao.Builder.
		Update("duty_slips").
		SetMap(data).
		Where(squirrel.Eq{"duty_slip_id": dutySlipID}).
		Where(squirrel.NotEq{"status": model.StatusCompleted}).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return model.DutySlip{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var slip model.DutySlip
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&slip); err != nil {
		if IsNoRows(err) {
			return model.DutySlip{}, dao.classifyMiss(ctx, dutySlipID)
		}

		logger.Warn("failed query execute", "error", err)

		return model.DutySlip{}, err
	}

	logger.Debug("success query execute", "dutySlipId", dutySlipID, "countUpdatedFields", len(data))

	return slip, nil
}

// MarkInProgress moves a pending slip to in-progress. Called when the first
// piece of completion evidence is uploaded; a no-op for slips already past
// pending.
func (dao *DutySlipDAO) MarkInProgress(ctx context.Context, dutySlipID string) error {
	logger := dao.Logger.With("query", "markInProgress")

	query, args, err := dao.Builder.
		Update("duty_slips").
		SetMap(map[string]any{
			"status":      model.StatusInProgress,
			"modified_at": time.Now(),
		}).
		Where(squirrel.Eq{"duty_slip_id": dutySlipID}).
		Where(squirrel.Eq{"status": model.StatusPending}).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query, "args", args)

	if _, err := dao.ExecContext(ctx, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)
		return err
	}

	return nil
}

type HistoryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	DriverID  *string
}

func (dao *DutySlipDAO) FindCompleted(ctx context.Context, filter HistoryFilter) ([]model.DutySlip, error) {
	logger := dao.Logger.With("query", "findCompleted")

	builder := dao.Builder.
		Select("*").
		From("duty_slips").
		Where(squirrel.Eq{"status": model.StatusCompleted})

	if filter.StartDate != nil {
		builder = builder.Where(squirrel.GtOrEq{"modified_at": *filter.StartDate})
	}
	if filter.EndDate != nil {
		builder = builder.Where(squirrel.LtOrEq{"modified_at": *filter.EndDate})
	}
	if filter.DriverID != nil {
		builder = builder.Where(squirrel.Eq{"driver_id": *filter.DriverID})
	}

	query, args, err := builder.OrderBy("modified_at DESC").ToSql()
	if err != nil {
		return []model.DutySlip{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	slips := []model.DutySlip{}
	if err := dao.SelectContext(ctx, &slips, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)
		return []model.DutySlip{}, err
	}

	logger.Debug("success query execute", "countSlips", len(slips))

	return slips, nil
}

// classifyMiss distinguishes "no such slip" from "slip exists but is already
// completed" after a guarded update touched zero rows.
func (dao *DutySlipDAO) classifyMiss(ctx context.Context, dutySlipID string) error {
	slip, err := dao.Get(ctx, dutySlipID)
	if err != nil {
		return err
	}

	if slip.Completed() {
		return model.NewError("duty slip", model.ErrCompleted)
	}

	return model.NewError("duty slip", model.ErrNotFound)
}

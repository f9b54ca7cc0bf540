package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/exceltravels/duty-track/internal/model"
)

type DriverDAO struct {
	Logger *slog.Logger
	*DB
}

func NewDriverDAO(logger *slog.Logger, db *DB) *DriverDAO {
	return &DriverDAO{
		Logger: logger.With("dao", "driver"),
		DB:     db,
	}
}

func (dao *DriverDAO) Find(ctx context.Context) ([]model.Driver, error) {
	logger := dao.Logger.With("query", "find")

	query, args, err := dao.Builder.
		Select("*").
		From("drivers").
		OrderBy("driver_id ASC").
		ToSql()
	if err != nil {
		return []model.Driver{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	drivers := []model.Driver{}
	if err := dao.SelectContext(ctx, &drivers, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)
		return []model.Driver{}, err
	}

	logger.Debug("success query execute", "countDrivers", len(drivers))

	return drivers, nil
}

func (dao *DriverDAO) Get(ctx context.Context, driverID string) (model.Driver, error) {
	return dao.getWhere(ctx, "get", squirrel.Eq{"driver_id": driverID})
}

// GetByName resolves a login username case-insensitively.
func (dao *DriverDAO) GetByName(ctx context.Context, name string) (model.Driver, error) {
	return dao.getWhere(ctx, "getByName", squirrel.Expr("lower(name) = lower(?)", name))
}

func (dao *DriverDAO) GetByContact(ctx context.Context, contact string) (model.Driver, error) {
	return dao.getWhere(ctx, "getByContact", squirrel.Eq{"contact": contact})
}

func (dao *DriverDAO) getWhere(ctx context.Context, queryName string, pred any) (model.Driver, error) {
	logger := dao.Logger.With("query", queryName)

	query, args, err := dao.Builder.
		Select("*").
		From("drivers").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Driver{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var driver model.Driver
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&driver); err != nil {
		if IsNoRows(err) {
			return model.Driver{}, model.NewError("driver", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.Driver{}, err
	}

	return driver, nil
}

// LastDriverID returns the greatest stored driver identifier for the
// sequential allocator. Identifiers widen past the padding (D999, D1000), so
// plain text ordering would stop at D999; length orders first.
func (dao *DriverDAO) LastDriverID(ctx context.Context) (string, error) {
	logger := dao.Logger.With("query", "lastDriverID")

	query, args, err := dao.Builder.
		Select("driver_id").
		From("drivers").
		OrderBy("length(driver_id) DESC", "driver_id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var id string
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&id); err != nil {
		if IsNoRows(err) {
			return "", model.NewError("driver", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return "", err
	}

	return id, nil
}

func (dao *DriverDAO) DriverIDExists(ctx context.Context, driverID string) (bool, error) {
	logger := dao.Logger.With("query", "driverIDExists")

	query, args, err := dao.Builder.
		Select("count(*)").
		From("drivers").
		Where(squirrel.Eq{"driver_id": driverID}).
		ToSql()
	if err != nil {
		return false, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var count int
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&count); err != nil {
		logger.Warn("failed query execute", "error", err)
		return false, err
	}

	return count > 0, nil
}

type InsertDriverDTO struct {
	DriverID         string
	Name             string
	Age              int
	Email            string
	Contact          string
	Address          string
	EmergencyName    string
	EmergencyContact string
	BankName         string
	AccountNumber    string
	IFSCCode         string
	Branch           string
	AadharNumber     string
	PANNumber        string
	LicenseNumber    string
	PasswordHash     []byte
}

func (dao *DriverDAO) Insert(ctx context.Context, dto InsertDriverDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	query, args, err := dao.Builder.
		Insert("drivers").
		Columns(
			"driver_id", "name", "age", "email", "contact", "address",
			"emergency_name", "emergency_contact",
			"bank_name", "account_number", "ifsc_code", "branch",
			"aadhar_number", "pan_number", "license_number",
			"password_hash",
		).
		Values(
			dto.DriverID, dto.Name, dto.Age, dto.Email, dto.Contact, dto.Address,
			dto.EmergencyName, dto.EmergencyContact,
			dto.BankName, dto.AccountNumber, dto.IFSCCode, dto.Branch,
			dto.AadharNumber, dto.PANNumber, dto.LicenseNumber,
			dto.PasswordHash,
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
			return 0, model.NewError("driver", model.ErrExists)
		}

		return 0, err
	}

	logger.Debug("success query execute", "insertId", id)

	return id, nil
}

type UpdateDriverDTO struct {
	Name             *string
	Age              *int
	Email            *string
	Contact          *string
	Address          *string
	EmergencyName    *string
	EmergencyContact *string
	BankName         *string
	AccountNumber    *string
	IFSCCode         *string
	Branch           *string
	AadharNumber     *string
	PANNumber        *string
	LicenseNumber    *string
}

func (dao *DriverDAO) Update(ctx context.Context, driverID string, dto UpdateDriverDTO) error {
	logger := dao.Logger.With("query", "update")

	data := make(map[string]any, 14)
	data["updated_at"] = time.Now()
	if dto.Name != nil {
		data["name"] = *dto.Name
	}
	if dto.Age != nil {
		data["age"] = *dto.Age
	}
	if dto.Email != nil {
		data["email"] = *dto.Email
	}
	if dto.Contact != nil {
		data["contact"] = *dto.Contact
	}
	if dto.Address != nil {
		data["address"] = *dto.Address
	}
	if dto.EmergencyName != nil {
		data["emergency_name"] = *dto.EmergencyName
	}
	if dto.EmergencyContact != nil {
		data["emergency_contact"] = *dto.EmergencyContact
	}
	if dto.BankName != nil {
		data["bank_name"] = *dto.BankName
	}
	if dto.AccountNumber != nil {
		data["account_number"] = *dto.AccountNumber
	}
	if dto.IFSCCode != nil {
		data["ifsc_code"] = *dto.IFSCCode
	}
	if dto.Branch != nil {
		data["branch"] = *dto.Branch
	}
	if dto.AadharNumber != nil {
		data["aadhar_number"] = *dto.AadharNumber
	}
	if dto.PANNumber != nil {
		data["pan_number"] = *dto.PANNumber
	}
	if dto.LicenseNumber != nil {
		data["license_number"] = *dto.LicenseNumber
	}

	query, args, err := dao.Builder.
		Update("drivers").
		SetMap(data).
		Where(squirrel.Eq{"driver_id": driverID}).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query, "args", args)

	if _, err = dao.ExecContext(ctx, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		if IsUniqueViolation(err) {
			return model.NewError("driver", model.ErrExists)
		}

		return err
	}

	logger.Debug("success query execute", "updateId", driverID, "countUpdatedFields", len(data))

	return nil
}

func (dao *DriverDAO) UpdatePassword(ctx context.Context, driverID string, hash []byte) error {
	logger := dao.Logger.With("query", "updatePassword")

	query, args, err := dao.Builder.
		Update("drivers").
		SetMap(map[string]any{
			"password_hash": hash,
			"updated_at":    time.Now(),
		}).
		Where(squirrel.Eq{"driver_id": driverID}).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query, "args", args)

	if _, err = dao.ExecContext(ctx, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)
		return err
	}

	return nil
}

func (dao *DriverDAO) UpdateProfilePic(ctx context.Context, driverID string, url string) error {
	logger := dao.Logger.With("query", "updateProfilePic")

	query, args, err := dao.Builder.
		Update("drivers").
		SetMap(map[string]any{
			"profile_pic": url,
			"updated_at":  time.Now(),
		}).
		Where(squirrel.Eq{"driver_id": driverID}).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query, "args", args)

	if _, err = dao.ExecContext(ctx, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)
		return err
	}

	return nil
}

func (dao *DriverDAO) Delete(ctx context.Context, driverID string) error {
	logger := dao.Logger.With("query", "delete")

	query, args, err := dao.Builder.
		Delete("drivers").
		Where(squirrel.Eq{"driver_id": driverID}).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query, "args", args)

	if _, err = dao.ExecContext(ctx, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		return err
	}

	logger.Debug("success query execute", "deleteId", driverID)

	return nil
}

package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/exceltravels/duty-track/internal/model"
)

type OTPDAO struct {
	Logger *slog.Logger
	*DB
}

func NewOTPDAO(logger *slog.Logger, db *DB) *OTPDAO {
	return &OTPDAO{
		Logger: logger.With("dao", "otp"),
		DB:     db,
	}
}

type InsertOTPDTO struct {
	Contact   string
	Code      string
	ExpiresAt time.Time
}

// Insert stores a fresh ticket for the subject, deleting any earlier tickets
// first so at most one usable ticket exists per contact.
func (dao *OTPDAO) Insert(ctx context.Context, dto InsertOTPDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	if err := dao.DeleteByContact(ctx, dto.Contact); err != nil {
		return 0, err
	}

	query, args, err := dao.Builder.
		Insert("otp_tickets").
		Columns("contact", "code", "expires_at").
		Values(dto.Contact, dto.Code, dto.ExpiresAt).
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
		return 0, err
	}

	return id, nil
}

func (dao *OTPDAO) GetByContactAndCode(ctx context.Context, contact, code string) (model.OTPTicket, error) {
	logger := dao.Logger.With("query", "getByContactAndCode")

	query, args, err := dao.Builder.
		Select("*").
		From("otp_tickets").
		Where(squirrel.Eq{"contact": contact, "code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.OTPTicket{}, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	var ticket model.OTPTicket
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&ticket); err != nil {
		if IsNoRows(err) {
			return model.OTPTicket{}, model.NewError("otp ticket", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.OTPTicket{}, err
	}

	return ticket, nil
}

func (dao *OTPDAO) Delete(ctx context.Context, id model.ID) error {
	logger := dao.Logger.With("query", "delete")

	query, args, err := dao.Builder.
		Delete("otp_tickets").
		Where(squirrel.Eq{"id": id}).
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

func (dao *OTPDAO) DeleteByContact(ctx context.Context, contact string) error {
	logger := dao.Logger.With("query", "deleteByContact")

	query, args, err := dao.Builder.
		Delete("otp_tickets").
		Where(squirrel.Eq{"contact": contact}).
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

// DeleteExpired prunes every ticket past its expiry. Run from the background
// sweeper; validation never relies on the sweep having happened.
func (dao *OTPDAO) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	logger := dao.Logger.With("query", "deleteExpired")

	query, args, err := dao.Builder.
		Delete("otp_tickets").
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, err
	}

	logger.Debug("build query", "sql", query, "args", args)

	res, err := dao.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Warn("failed query execute", "error", err)
		return 0, err
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return count, nil
}

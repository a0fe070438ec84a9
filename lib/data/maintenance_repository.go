package data

import (
	"context"
	"database/sql"
	"fmt"

	"assetflow/lib/dates"
	"assetflow/lib/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// MaintenanceRepository defines the interface for maintenance log data
// operations. Logs are append-only; correcting a mistake means adding a new
// entry, not editing history.
type MaintenanceRepository interface {
	CreateMaintenanceLog(ctx context.Context, companyID int64, log *models.CreateMaintenanceLogRequest, userID int64) (*models.MaintenanceLog, error)
	GetLogsByCompany(ctx context.Context, companyID int64) ([]models.MaintenanceLog, error)
	GetLogsByUnit(ctx context.Context, companyID int64, unitKind string, unitID int64) ([]models.MaintenanceLog, error)
}

// MaintenanceDao implements MaintenanceRepository interface using PostgreSQL
type MaintenanceDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewMaintenanceRepository creates a new MaintenanceRepository instance
func NewMaintenanceRepository(db *sql.DB) MaintenanceRepository {
	return &MaintenanceDao{
		DB:     db,
		Logger: logrus.New(),
	}
}

const maintenanceLogColumns = `
	id, company_id, unit_kind, unit_id, maintenance_type, description,
	date_started, date_completed, service_reset, next_service_due,
	downtime_hours, cost, created_at, created_by
`

func scanMaintenanceLog(row interface{ Scan(...interface{}) error }) (*models.MaintenanceLog, error) {
	var log models.MaintenanceLog
	err := row.Scan(
		&log.LogID, &log.CompanyID, &log.UnitKind, &log.UnitID,
		&log.MaintenanceType, &log.Description,
		&log.DateStarted, &log.DateCompleted, &log.ServiceReset, &log.NextServiceDue,
		&log.DowntimeHours, &log.Cost, &log.CreatedAt, &log.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// CreateMaintenanceLog records a maintenance event against a machine or
// vehicle. The referenced unit must exist in the company's fleet.
func (dao *MaintenanceDao) CreateMaintenanceLog(ctx context.Context, companyID int64, request *models.CreateMaintenanceLogRequest, userID int64) (*models.MaintenanceLog, error) {
	dateStarted, err := dates.Parse(request.DateStarted)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}

	dateCompleted, err := parseOptionalDate(request.DateCompleted)
	if err != nil {
		return nil, fmt.Errorf("invalid completion date: %w", err)
	}

	nextServiceDue, err := parseOptionalDate(request.NextServiceDue)
	if err != nil {
		return nil, fmt.Errorf("invalid next service due date: %w", err)
	}

	cost := decimal.Zero
	if request.Cost != "" {
		cost, err = decimal.NewFromString(request.Cost)
		if err != nil {
			return nil, fmt.Errorf("invalid cost: %w", err)
		}
		if cost.IsNegative() {
			return nil, fmt.Errorf("cost cannot be negative")
		}
	}

	unitTable := "fleet.machines"
	if request.UnitKind == "vehicle" {
		unitTable = "fleet.vehicles"
	}
	var exists bool
	err = dao.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+unitTable+` WHERE id = $1 AND company_id = $2)`,
		request.UnitID, companyID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to verify unit: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%s not found", request.UnitKind)
	}

	description := sql.NullString{String: request.Description, Valid: request.Description != ""}

	query := `
		INSERT INTO fleet.maintenance_logs (
			company_id, unit_kind, unit_id, maintenance_type, description,
			date_started, date_completed, service_reset, next_service_due,
			downtime_hours, cost, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + maintenanceLogColumns + `
	`

	log, err := scanMaintenanceLog(dao.DB.QueryRowContext(ctx, query,
		companyID, request.UnitKind, request.UnitID, request.MaintenanceType, description,
		dateStarted, dateCompleted, request.ServiceReset, nextServiceDue,
		request.DowntimeHours, cost, userID,
	))
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"company_id": companyID,
			"unit_kind":  request.UnitKind,
			"unit_id":    request.UnitID,
			"error":      err.Error(),
		}).Error("Failed to create maintenance log")
		return nil, fmt.Errorf("failed to create maintenance log: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"log_id":    log.LogID,
		"unit_kind": log.UnitKind,
		"unit_id":   log.UnitID,
	}).Info("Successfully created maintenance log")

	return log, nil
}

// GetLogsByCompany retrieves every maintenance log for the company. The fleet
// service calculator and the dashboard both consume this full list.
func (dao *MaintenanceDao) GetLogsByCompany(ctx context.Context, companyID int64) ([]models.MaintenanceLog, error) {
	query := `
		SELECT ` + maintenanceLogColumns + `
		FROM fleet.maintenance_logs
		WHERE company_id = $1
		ORDER BY date_started DESC, id DESC
	`

	rows, err := dao.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get maintenance logs: %w", err)
	}
	defer rows.Close()

	var logs []models.MaintenanceLog
	for rows.Next() {
		log, err := scanMaintenanceLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan maintenance log: %w", err)
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate maintenance logs: %w", err)
	}

	return logs, nil
}

// GetLogsByUnit retrieves the maintenance history of a single machine or vehicle
func (dao *MaintenanceDao) GetLogsByUnit(ctx context.Context, companyID int64, unitKind string, unitID int64) ([]models.MaintenanceLog, error) {
	query := `
		SELECT ` + maintenanceLogColumns + `
		FROM fleet.maintenance_logs
		WHERE company_id = $1 AND unit_kind = $2 AND unit_id = $3
		ORDER BY date_started DESC, id DESC
	`

	rows, err := dao.DB.QueryContext(ctx, query, companyID, unitKind, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to get maintenance logs: %w", err)
	}
	defer rows.Close()

	var logs []models.MaintenanceLog
	for rows.Next() {
		log, err := scanMaintenanceLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan maintenance log: %w", err)
		}
		logs = append(logs, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate maintenance logs: %w", err)
	}

	return logs, nil
}

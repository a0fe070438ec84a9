package data

import (
	"context"
	"database/sql"
	"fmt"

	"assetflow/lib/dates"
	"assetflow/lib/models"

	"github.com/sirupsen/logrus"
)

// FleetRepository defines the interface for machine and vehicle data operations
type FleetRepository interface {
	CreateMachine(ctx context.Context, companyID int64, machine *models.CreateMachineRequest, userID int64) (*models.Machine, error)
	GetMachinesByCompany(ctx context.Context, companyID int64) ([]models.Machine, error)
	GetMachineByID(ctx context.Context, machineID, companyID int64) (*models.Machine, error)
	UpdateMachine(ctx context.Context, machineID, companyID int64, machine *models.UpdateMachineRequest, userID int64) (*models.Machine, error)
	DeleteMachine(ctx context.Context, machineID, companyID int64) error

	CreateVehicle(ctx context.Context, companyID int64, vehicle *models.CreateVehicleRequest, userID int64) (*models.Vehicle, error)
	GetVehiclesByCompany(ctx context.Context, companyID int64) ([]models.Vehicle, error)
	GetVehicleByID(ctx context.Context, vehicleID, companyID int64) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, vehicleID, companyID int64, vehicle *models.UpdateVehicleRequest, userID int64) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, vehicleID, companyID int64) error
}

// FleetDao implements FleetRepository interface using PostgreSQL
type FleetDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewFleetRepository creates a new FleetRepository instance
func NewFleetRepository(db *sql.DB) FleetRepository {
	return &FleetDao{
		DB:     db,
		Logger: logrus.New(),
	}
}

func parseOptionalDate(value string) (sql.NullTime, error) {
	if value == "" {
		return sql.NullTime{}, nil
	}
	parsed, err := dates.Parse(value)
	if err != nil {
		return sql.NullTime{}, err
	}
	return sql.NullTime{Time: parsed, Valid: true}, nil
}

const machineColumns = `
	id, company_id, name, status, service_interval_months, deployment_date,
	operating_pattern, site_id, created_at, created_by, updated_at, updated_by
`

func scanMachine(row interface{ Scan(...interface{}) error }) (*models.Machine, error) {
	var machine models.Machine
	err := row.Scan(
		&machine.MachineID, &machine.CompanyID, &machine.Name, &machine.Status,
		&machine.ServiceIntervalMonths, &machine.DeploymentDate,
		&machine.OperatingPattern, &machine.SiteID,
		&machine.CreatedAt, &machine.CreatedBy, &machine.UpdatedAt, &machine.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &machine, nil
}

// CreateMachine creates a new machine for the company
func (dao *FleetDao) CreateMachine(ctx context.Context, companyID int64, request *models.CreateMachineRequest, userID int64) (*models.Machine, error) {
	deploymentDate, err := parseOptionalDate(request.DeploymentDate)
	if err != nil {
		return nil, fmt.Errorf("invalid deployment date: %w", err)
	}

	status := request.Status
	if status == "" {
		status = "active"
	}

	operatingPattern := sql.NullString{String: request.OperatingPattern, Valid: request.OperatingPattern != ""}
	siteID := sql.NullInt64{Int64: request.SiteID, Valid: request.SiteID != 0}

	query := `
		INSERT INTO fleet.machines (
			company_id, name, status, service_interval_months, deployment_date,
			operating_pattern, site_id, created_by, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`

	var machineID int64
	err = dao.DB.QueryRowContext(ctx, query,
		companyID, request.Name, status, request.ServiceIntervalMonths,
		deploymentDate, operatingPattern, siteID, userID,
	).Scan(&machineID)

	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"company_id": companyID,
			"name":       request.Name,
			"error":      err.Error(),
		}).Error("Failed to create machine")
		return nil, fmt.Errorf("failed to create machine: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"machine_id": machineID,
		"company_id": companyID,
		"name":       request.Name,
	}).Info("Successfully created machine")

	return dao.GetMachineByID(ctx, machineID, companyID)
}

// GetMachinesByCompany retrieves all machines for a company
func (dao *FleetDao) GetMachinesByCompany(ctx context.Context, companyID int64) ([]models.Machine, error) {
	query := `SELECT ` + machineColumns + ` FROM fleet.machines WHERE company_id = $1 ORDER BY name`

	rows, err := dao.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get machines: %w", err)
	}
	defer rows.Close()

	var machines []models.Machine
	for rows.Next() {
		machine, err := scanMachine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan machine: %w", err)
		}
		machines = append(machines, *machine)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate machines: %w", err)
	}

	return machines, nil
}

// GetMachineByID retrieves a single machine scoped to the company
func (dao *FleetDao) GetMachineByID(ctx context.Context, machineID, companyID int64) (*models.Machine, error) {
	query := `SELECT ` + machineColumns + ` FROM fleet.machines WHERE id = $1 AND company_id = $2`

	machine, err := scanMachine(dao.DB.QueryRowContext(ctx, query, machineID, companyID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("machine not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get machine: %w", err)
	}
	return machine, nil
}

// UpdateMachine updates machine metadata and lifecycle status
func (dao *FleetDao) UpdateMachine(ctx context.Context, machineID, companyID int64, request *models.UpdateMachineRequest, userID int64) (*models.Machine, error) {
	deploymentDate, err := parseOptionalDate(request.DeploymentDate)
	if err != nil {
		return nil, fmt.Errorf("invalid deployment date: %w", err)
	}

	query := `
		UPDATE fleet.machines SET
			name = COALESCE(NULLIF($3, ''), name),
			status = COALESCE(NULLIF($4, ''), status),
			service_interval_months = CASE WHEN $5 > 0 THEN $5 ELSE service_interval_months END,
			deployment_date = COALESCE($6, deployment_date),
			operating_pattern = COALESCE(NULLIF($7, ''), operating_pattern),
			site_id = CASE WHEN $8 > 0 THEN $8 ELSE site_id END,
			updated_at = NOW(),
			updated_by = $9
		WHERE id = $1 AND company_id = $2
	`

	result, err := dao.DB.ExecContext(ctx, query,
		machineID, companyID, request.Name, request.Status, request.ServiceIntervalMonths,
		deploymentDate, request.OperatingPattern, request.SiteID, userID,
	)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"machine_id": machineID,
			"error":      err.Error(),
		}).Error("Failed to update machine")
		return nil, fmt.Errorf("failed to update machine: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("machine not found")
	}

	return dao.GetMachineByID(ctx, machineID, companyID)
}

// DeleteMachine removes a machine. Maintenance logs referencing it are kept
// as historical records.
func (dao *FleetDao) DeleteMachine(ctx context.Context, machineID, companyID int64) error {
	result, err := dao.DB.ExecContext(ctx,
		`DELETE FROM fleet.machines WHERE id = $1 AND company_id = $2`,
		machineID, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete machine: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("machine not found")
	}

	dao.Logger.WithFields(logrus.Fields{
		"machine_id": machineID,
		"company_id": companyID,
	}).Info("Successfully deleted machine")
	return nil
}

const vehicleColumns = `
	id, company_id, name, registration, status, deployment_date,
	created_at, created_by, updated_at, updated_by
`

func scanVehicle(row interface{ Scan(...interface{}) error }) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := row.Scan(
		&vehicle.VehicleID, &vehicle.CompanyID, &vehicle.Name, &vehicle.Registration,
		&vehicle.Status, &vehicle.DeploymentDate,
		&vehicle.CreatedAt, &vehicle.CreatedBy, &vehicle.UpdatedAt, &vehicle.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// CreateVehicle creates a new vehicle for the company
func (dao *FleetDao) CreateVehicle(ctx context.Context, companyID int64, request *models.CreateVehicleRequest, userID int64) (*models.Vehicle, error) {
	deploymentDate, err := parseOptionalDate(request.DeploymentDate)
	if err != nil {
		return nil, fmt.Errorf("invalid deployment date: %w", err)
	}

	status := request.Status
	if status == "" {
		status = "active"
	}

	registration := sql.NullString{String: request.Registration, Valid: request.Registration != ""}

	query := `
		INSERT INTO fleet.vehicles (company_id, name, registration, status, deployment_date, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`

	var vehicleID int64
	err = dao.DB.QueryRowContext(ctx, query,
		companyID, request.Name, registration, status, deploymentDate, userID,
	).Scan(&vehicleID)

	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"company_id": companyID,
			"name":       request.Name,
			"error":      err.Error(),
		}).Error("Failed to create vehicle")
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"vehicle_id": vehicleID,
		"company_id": companyID,
		"name":       request.Name,
	}).Info("Successfully created vehicle")

	return dao.GetVehicleByID(ctx, vehicleID, companyID)
}

// GetVehiclesByCompany retrieves all vehicles for a company
func (dao *FleetDao) GetVehiclesByCompany(ctx context.Context, companyID int64) ([]models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM fleet.vehicles WHERE company_id = $1 ORDER BY name`

	rows, err := dao.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *vehicle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicles: %w", err)
	}

	return vehicles, nil
}

// GetVehicleByID retrieves a single vehicle scoped to the company
func (dao *FleetDao) GetVehicleByID(ctx context.Context, vehicleID, companyID int64) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM fleet.vehicles WHERE id = $1 AND company_id = $2`

	vehicle, err := scanVehicle(dao.DB.QueryRowContext(ctx, query, vehicleID, companyID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vehicle not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return vehicle, nil
}

// UpdateVehicle updates vehicle metadata and lifecycle status
func (dao *FleetDao) UpdateVehicle(ctx context.Context, vehicleID, companyID int64, request *models.UpdateVehicleRequest, userID int64) (*models.Vehicle, error) {
	deploymentDate, err := parseOptionalDate(request.DeploymentDate)
	if err != nil {
		return nil, fmt.Errorf("invalid deployment date: %w", err)
	}

	query := `
		UPDATE fleet.vehicles SET
			name = COALESCE(NULLIF($3, ''), name),
			registration = COALESCE(NULLIF($4, ''), registration),
			status = COALESCE(NULLIF($5, ''), status),
			deployment_date = COALESCE($6, deployment_date),
			updated_at = NOW(),
			updated_by = $7
		WHERE id = $1 AND company_id = $2
	`

	result, err := dao.DB.ExecContext(ctx, query,
		vehicleID, companyID, request.Name, request.Registration, request.Status,
		deploymentDate, userID,
	)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"vehicle_id": vehicleID,
			"error":      err.Error(),
		}).Error("Failed to update vehicle")
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("vehicle not found")
	}

	return dao.GetVehicleByID(ctx, vehicleID, companyID)
}

// DeleteVehicle removes a vehicle, keeping its maintenance logs
func (dao *FleetDao) DeleteVehicle(ctx context.Context, vehicleID, companyID int64) error {
	result, err := dao.DB.ExecContext(ctx,
		`DELETE FROM fleet.vehicles WHERE id = $1 AND company_id = $2`,
		vehicleID, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("vehicle not found")
	}

	dao.Logger.WithFields(logrus.Fields{
		"vehicle_id": vehicleID,
		"company_id": companyID,
	}).Info("Successfully deleted vehicle")
	return nil
}

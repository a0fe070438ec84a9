package models

import (
	"database/sql"
	"time"
)

// Machine represents a serviceable unit based on the fleet.machines table
type Machine struct {
	MachineID             int64          `json:"machine_id"`
	CompanyID             int64          `json:"company_id"`
	Name                  string         `json:"name"`
	Status                string         `json:"status"`
	ServiceIntervalMonths int            `json:"service_interval_months"`
	DeploymentDate        sql.NullTime   `json:"deployment_date,omitempty"`
	OperatingPattern      sql.NullString `json:"operating_pattern,omitempty"`
	SiteID                sql.NullInt64  `json:"site_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	CreatedBy             int64          `json:"created_by"`
	UpdatedAt             time.Time      `json:"updated_at"`
	UpdatedBy             int64          `json:"updated_by"`
}

// Vehicle represents a company vehicle based on the fleet.vehicles table.
// Vehicles are serviced on a fixed two-month interval and are projected into
// the same fleet service view as machines.
type Vehicle struct {
	VehicleID      int64          `json:"vehicle_id"`
	CompanyID      int64          `json:"company_id"`
	Name           string         `json:"name"`
	Registration   sql.NullString `json:"registration,omitempty"`
	Status         string         `json:"status"`
	DeploymentDate sql.NullTime   `json:"deployment_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CreatedBy      int64          `json:"created_by"`
	UpdatedAt      time.Time      `json:"updated_at"`
	UpdatedBy      int64          `json:"updated_by"`
}

// CreateMachineRequest represents the request payload for creating a new machine
type CreateMachineRequest struct {
	Name                  string `json:"name" validate:"required,min=2,max=255"`
	Status                string `json:"status,omitempty" validate:"omitempty,oneof=active idle maintenance standby missing retired"`
	ServiceIntervalMonths int    `json:"service_interval_months" validate:"required,min=1,max=60"`
	DeploymentDate        string `json:"deployment_date,omitempty"`
	OperatingPattern      string `json:"operating_pattern,omitempty" validate:"max=50"`
	SiteID                int64  `json:"site_id,omitempty"`
}

// UpdateMachineRequest represents the request payload for updating an existing machine
type UpdateMachineRequest struct {
	Name                  string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Status                string `json:"status,omitempty" validate:"omitempty,oneof=active idle maintenance standby missing retired"`
	ServiceIntervalMonths int    `json:"service_interval_months,omitempty" validate:"omitempty,min=1,max=60"`
	DeploymentDate        string `json:"deployment_date,omitempty"`
	OperatingPattern      string `json:"operating_pattern,omitempty" validate:"max=50"`
	SiteID                int64  `json:"site_id,omitempty"`
}

// CreateVehicleRequest represents the request payload for creating a new vehicle
type CreateVehicleRequest struct {
	Name           string `json:"name" validate:"required,min=2,max=255"`
	Registration   string `json:"registration,omitempty" validate:"max=50"`
	Status         string `json:"status,omitempty" validate:"omitempty,oneof=active idle maintenance standby missing retired"`
	DeploymentDate string `json:"deployment_date,omitempty"`
}

// UpdateVehicleRequest represents the request payload for updating an existing vehicle
type UpdateVehicleRequest struct {
	Name           string `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Registration   string `json:"registration,omitempty" validate:"max=50"`
	Status         string `json:"status,omitempty" validate:"omitempty,oneof=active idle maintenance standby missing retired"`
	DeploymentDate string `json:"deployment_date,omitempty"`
}

// MachineListResponse represents the response for listing machines
type MachineListResponse struct {
	Machines []Machine `json:"machines"`
	Total    int       `json:"total"`
}

// VehicleListResponse represents the response for listing vehicles
type VehicleListResponse struct {
	Vehicles []Vehicle `json:"vehicles"`
	Total    int       `json:"total"`
}

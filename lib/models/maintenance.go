package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// MaintenanceLog is an append-only record of a maintenance event on a machine
// or vehicle, based on the fleet.maintenance_logs table. UnitKind + UnitID
// form the typed cross-reference to the serviced unit.
type MaintenanceLog struct {
	LogID           int64           `json:"log_id"`
	CompanyID       int64           `json:"company_id"`
	UnitKind        string          `json:"unit_kind"`
	UnitID          int64           `json:"unit_id"`
	MaintenanceType string          `json:"maintenance_type"`
	Description     sql.NullString  `json:"description,omitempty"`
	DateStarted     sql.NullTime    `json:"date_started,omitempty"`
	DateCompleted   sql.NullTime    `json:"date_completed,omitempty"`
	ServiceReset    bool            `json:"service_reset"`
	NextServiceDue  sql.NullTime    `json:"next_service_due,omitempty"`
	DowntimeHours   float64         `json:"downtime_hours"`
	Cost            decimal.Decimal `json:"cost"`
	CreatedAt       time.Time       `json:"created_at"`
	CreatedBy       int64           `json:"created_by"`
}

// CreateMaintenanceLogRequest represents the request payload for logging a
// maintenance event. Date fields accept ISO-8601 values; an unparseable date
// is rejected at the API boundary rather than defaulted.
type CreateMaintenanceLogRequest struct {
	UnitKind        string  `json:"unit_kind" validate:"required,oneof=machine vehicle"`
	UnitID          int64   `json:"unit_id" validate:"required"`
	MaintenanceType string  `json:"maintenance_type" validate:"required,oneof=scheduled unscheduled emergency"`
	Description     string  `json:"description,omitempty" validate:"max=1000"`
	DateStarted     string  `json:"date_started" validate:"required"`
	DateCompleted   string  `json:"date_completed,omitempty"`
	ServiceReset    bool    `json:"service_reset"`
	NextServiceDue  string  `json:"next_service_due,omitempty"`
	DowntimeHours   float64 `json:"downtime_hours,omitempty" validate:"min=0"`
	Cost            string  `json:"cost,omitempty"`
}

// MaintenanceLogListResponse represents the response for listing maintenance logs
type MaintenanceLogListResponse struct {
	Logs  []MaintenanceLog `json:"logs"`
	Total int              `json:"total"`
}

package dashboard

import (
	"time"

	"assetflow/lib/constants"
	"assetflow/lib/dates"
	"assetflow/lib/models"
	"assetflow/lib/servicedue"

	"github.com/shopspring/decimal"
)

// Metrics is the dashboard roll-up over the fleet service view and the raw
// maintenance log set. Monthly figures cover the calendar month containing
// the evaluation time, not a rolling window.
type Metrics struct {
	TotalUnits             int             `json:"total_units"`
	ActiveUnits            int             `json:"active_units"`
	DueSoon                int             `json:"due_soon"`
	Overdue                int             `json:"overdue"`
	MonthDowntimeHours     float64         `json:"month_downtime_hours"`
	MonthMaintenanceCost   decimal.Decimal `json:"month_maintenance_cost"`
	MonthUnscheduledEvents int             `json:"month_unscheduled_events"`
}

// Build computes the dashboard counters. Statuses come from
// servicedue.BuildFleetStatus over the same unit set; absent cost or downtime
// on a log counts as zero. Logs without a valid start date are excluded from
// the monthly sums.
func Build(units []servicedue.ServiceableUnit, statuses map[servicedue.UnitRef]servicedue.Status, logs []models.MaintenanceLog, now time.Time) Metrics {
	metrics := Metrics{
		TotalUnits:           len(units),
		MonthMaintenanceCost: decimal.Zero,
	}

	for _, unit := range units {
		if unit.Status == constants.UnitStatusActive {
			metrics.ActiveUnits++
		}
		status, ok := statuses[unit.Ref]
		if !ok {
			continue
		}
		switch status.Urgency {
		case servicedue.UrgencyDueSoon:
			metrics.DueSoon++
		case servicedue.UrgencyOverdue:
			metrics.Overdue++
		}
	}

	for _, log := range logs {
		if !log.DateStarted.Valid || !dates.SameMonth(log.DateStarted.Time, now) {
			continue
		}
		metrics.MonthDowntimeHours += log.DowntimeHours
		metrics.MonthMaintenanceCost = metrics.MonthMaintenanceCost.Add(log.Cost)
		if log.MaintenanceType == constants.MaintenanceUnscheduled || log.MaintenanceType == constants.MaintenanceEmergency {
			metrics.MonthUnscheduledEvents++
		}
	}

	return metrics
}

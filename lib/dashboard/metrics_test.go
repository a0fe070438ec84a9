package dashboard

import (
	"database/sql"
	"testing"
	"time"

	"assetflow/lib/constants"
	"assetflow/lib/models"
	"assetflow/lib/servicedue"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func machine(id int64, status string, intervalMonths int, deployed time.Time) servicedue.ServiceableUnit {
	return servicedue.MachineUnit(models.Machine{
		MachineID:             id,
		Name:                  "Unit",
		Status:                status,
		ServiceIntervalMonths: intervalMonths,
		DeploymentDate:        sql.NullTime{Time: deployed, Valid: true},
	})
}

func TestBuild_CountsAndMonthlySums(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	units := []servicedue.ServiceableUnit{
		machine(1, constants.UnitStatusActive, 2, jan1),  // due 2024-03-01, overdue
		machine(2, constants.UnitStatusActive, 3, jan1),  // due 2024-04-01, ok
		machine(3, constants.UnitStatusRetired, 2, jan1), // overdue by date math but retired
	}

	logs := []models.MaintenanceLog{
		{
			UnitKind:        "machine",
			UnitID:          2,
			MaintenanceType: constants.MaintenanceUnscheduled,
			DateStarted:     sql.NullTime{Time: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Valid: true},
			DowntimeHours:   6.5,
			Cost:            decimal.NewFromInt(1200),
		},
		{
			UnitKind:        "machine",
			UnitID:          1,
			MaintenanceType: constants.MaintenanceScheduled,
			DateStarted:     sql.NullTime{Time: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), Valid: true},
			DowntimeHours:   2,
			Cost:            decimal.NewFromInt(300),
		},
		{
			// Prior month, must be excluded from monthly sums
			UnitKind:        "machine",
			UnitID:          1,
			MaintenanceType: constants.MaintenanceEmergency,
			DateStarted:     sql.NullTime{Time: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), Valid: true},
			DowntimeHours:   10,
			Cost:            decimal.NewFromInt(5000),
		},
		{
			// No usable date, excluded
			UnitKind:        "machine",
			UnitID:          2,
			MaintenanceType: constants.MaintenanceEmergency,
			DowntimeHours:   4,
			Cost:            decimal.NewFromInt(999),
		},
	}

	statuses := servicedue.BuildFleetStatus(units, nil, now)
	metrics := Build(units, statuses, logs, now)

	assert.Equal(t, 3, metrics.TotalUnits)
	assert.Equal(t, 2, metrics.ActiveUnits)
	assert.Equal(t, 1, metrics.Overdue)
	assert.Equal(t, 0, metrics.DueSoon)
	assert.InDelta(t, 8.5, metrics.MonthDowntimeHours, 0.001)
	assert.True(t, metrics.MonthMaintenanceCost.Equal(decimal.NewFromInt(1500)), "got %s", metrics.MonthMaintenanceCost)
	assert.Equal(t, 1, metrics.MonthUnscheduledEvents)
}

func TestBuild_EmptyInput(t *testing.T) {
	metrics := Build(nil, nil, nil, time.Now())

	assert.Equal(t, 0, metrics.TotalUnits)
	assert.True(t, metrics.MonthMaintenanceCost.Equal(decimal.Zero))
}

func TestBuild_DueSoonCount(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	units := []servicedue.ServiceableUnit{
		machine(1, constants.UnitStatusActive, 2, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), // due 2024-03-15
	}

	statuses := servicedue.BuildFleetStatus(units, nil, now)
	metrics := Build(units, statuses, nil, now)

	assert.Equal(t, 1, metrics.DueSoon)
	assert.Equal(t, 0, metrics.Overdue)
}

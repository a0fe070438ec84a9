package servicedue

import (
	"database/sql"
	"testing"
	"time"

	"assetflow/lib/constants"
	"assetflow/lib/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func activeMachine(id int64, intervalMonths int, deployed time.Time) ServiceableUnit {
	return MachineUnit(models.Machine{
		MachineID:             id,
		Name:                  "Excavator",
		Status:                constants.UnitStatusActive,
		ServiceIntervalMonths: intervalMonths,
		DeploymentDate:        nullTime(deployed),
	})
}

func resetLog(ref UnitRef, started time.Time) models.MaintenanceLog {
	return models.MaintenanceLog{
		UnitKind:        string(ref.Kind),
		UnitID:          ref.ID,
		MaintenanceType: constants.MaintenanceScheduled,
		DateStarted:     nullTime(started),
		ServiceReset:    true,
	}
}

func TestBuildFleetStatus_NoHistoryUsesDeploymentBaseline(t *testing.T) {
	// Machine deployed 2024-01-01, interval 2 months, evaluated 2024-03-10:
	// due 2024-03-01, nine days overdue.
	unit := activeMachine(1, 2, day(2024, time.January, 1))
	now := day(2024, time.March, 10)

	statuses := BuildFleetStatus([]ServiceableUnit{unit}, nil, now)

	status := statuses[unit.Ref]
	require.NotNil(t, status.NextServiceDue)
	assert.True(t, status.NextServiceDue.Equal(day(2024, time.March, 1)))
	assert.Equal(t, -9, status.DaysRemaining)
	assert.Equal(t, UrgencyOverdue, status.Urgency)
	assert.Nil(t, status.LastServiceDate)
}

func TestBuildFleetStatus_LastResetLogPlusInterval(t *testing.T) {
	unit := activeMachine(1, 3, day(2023, time.January, 1))
	logs := []models.MaintenanceLog{
		resetLog(unit.Ref, day(2024, time.February, 1)),
		resetLog(unit.Ref, day(2024, time.April, 1)),
		{
			// Non-reset events never move the service clock
			UnitKind:        string(unit.Ref.Kind),
			UnitID:          unit.Ref.ID,
			MaintenanceType: constants.MaintenanceUnscheduled,
			DateStarted:     nullTime(day(2024, time.May, 1)),
			ServiceReset:    false,
		},
	}
	now := day(2024, time.April, 15)

	statuses := BuildFleetStatus([]ServiceableUnit{unit}, logs, now)

	status := statuses[unit.Ref]
	require.NotNil(t, status.LastServiceDate)
	assert.True(t, status.LastServiceDate.Equal(day(2024, time.April, 1)), "most recent reset log wins")
	require.NotNil(t, status.NextServiceDue)
	assert.True(t, status.NextServiceDue.Equal(day(2024, time.July, 1)))
	assert.Equal(t, UrgencyOK, status.Urgency)
}

func TestBuildFleetStatus_ExplicitOverrideWins(t *testing.T) {
	unit := activeMachine(1, 6, day(2023, time.January, 1))
	log := resetLog(unit.Ref, day(2024, time.January, 10))
	log.NextServiceDue = nullTime(day(2024, time.February, 1))
	now := day(2024, time.January, 20)

	statuses := BuildFleetStatus([]ServiceableUnit{unit}, []models.MaintenanceLog{log}, now)

	status := statuses[unit.Ref]
	require.NotNil(t, status.NextServiceDue)
	assert.True(t, status.NextServiceDue.Equal(day(2024, time.February, 1)), "user override beats interval arithmetic")
	assert.Equal(t, 12, status.DaysRemaining)
	assert.Equal(t, UrgencyDueSoon, status.Urgency)
}

func TestBuildFleetStatus_UrgencyBoundaries(t *testing.T) {
	now := day(2024, time.June, 1)

	tests := []struct {
		name          string
		daysRemaining int
		want          Urgency
	}{
		{"one day overdue", -1, UrgencyOverdue},
		{"due today", 0, UrgencyDueSoon},
		{"due in fourteen days", 14, UrgencyDueSoon},
		{"due in fifteen days", 15, UrgencyOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := activeMachine(1, 1, day(2024, time.January, 1))
			log := resetLog(unit.Ref, day(2024, time.January, 1))
			log.NextServiceDue = nullTime(now.AddDate(0, 0, tt.daysRemaining))

			statuses := BuildFleetStatus([]ServiceableUnit{unit}, []models.MaintenanceLog{log}, now)

			status := statuses[unit.Ref]
			assert.Equal(t, tt.daysRemaining, status.DaysRemaining)
			assert.Equal(t, tt.want, status.Urgency)
		})
	}
}

func TestBuildFleetStatus_InactiveUnitsAlwaysOK(t *testing.T) {
	for _, unitStatus := range []string{
		constants.UnitStatusIdle,
		constants.UnitStatusMaintenance,
		constants.UnitStatusStandby,
		constants.UnitStatusMissing,
		constants.UnitStatusRetired,
	} {
		t.Run(unitStatus, func(t *testing.T) {
			unit := activeMachine(1, 2, day(2024, time.January, 1))
			unit.Status = unitStatus
			now := day(2024, time.June, 10) // deeply overdue by date math

			statuses := BuildFleetStatus([]ServiceableUnit{unit}, nil, now)

			status := statuses[unit.Ref]
			assert.Equal(t, UrgencyOK, status.Urgency)
			assert.Less(t, status.DaysRemaining, -90)
		})
	}
}

func TestBuildFleetStatus_UnknownDueDate(t *testing.T) {
	// No deployment date and no service history: the due date cannot be
	// derived and must surface as unknown, not ok or overdue.
	unit := MachineUnit(models.Machine{
		MachineID:             1,
		Name:                  "Compressor",
		Status:                constants.UnitStatusActive,
		ServiceIntervalMonths: 2,
	})
	now := day(2024, time.June, 1)

	statuses := BuildFleetStatus([]ServiceableUnit{unit}, nil, now)

	status := statuses[unit.Ref]
	assert.Nil(t, status.NextServiceDue)
	assert.Equal(t, UrgencyUnknown, status.Urgency)
}

func TestBuildFleetStatus_ResetLogWithInvalidDate(t *testing.T) {
	unit := MachineUnit(models.Machine{
		MachineID:             1,
		Name:                  "Compressor",
		Status:                constants.UnitStatusActive,
		ServiceIntervalMonths: 2,
	})
	logs := []models.MaintenanceLog{
		{
			UnitKind:     string(unit.Ref.Kind),
			UnitID:       unit.Ref.ID,
			ServiceReset: true,
			// DateStarted missing
		},
	}
	now := day(2024, time.June, 1)

	statuses := BuildFleetStatus([]ServiceableUnit{unit}, logs, now)

	status := statuses[unit.Ref]
	assert.Nil(t, status.NextServiceDue)
	assert.Nil(t, status.LastServiceDate)
	assert.Equal(t, UrgencyUnknown, status.Urgency)
}

func TestBuildFleetStatus_VehiclesUnifiedWithFixedInterval(t *testing.T) {
	vehicle := VehicleUnit(models.Vehicle{
		VehicleID:      7,
		Name:           "Tipper Truck",
		Status:         constants.UnitStatusActive,
		DeploymentDate: nullTime(day(2024, time.January, 1)),
	})
	assert.Equal(t, constants.VehicleServiceIntervalMonths, vehicle.ServiceIntervalMonths)
	assert.Equal(t, constants.VehicleOperatingPattern, vehicle.OperatingPattern)

	// A machine log with the same numeric id must not bleed into the vehicle
	machineLog := resetLog(UnitRef{Kind: UnitKindMachine, ID: 7}, day(2024, time.February, 15))
	now := day(2024, time.February, 20)

	statuses := BuildFleetStatus([]ServiceableUnit{vehicle}, []models.MaintenanceLog{machineLog}, now)

	status := statuses[vehicle.Ref]
	require.NotNil(t, status.NextServiceDue)
	assert.True(t, status.NextServiceDue.Equal(day(2024, time.March, 1)), "vehicle due from deployment, not the machine's log")
	assert.Nil(t, status.LastServiceDate)
}

func TestBuildFleetStatus_MonotonicDueFromDeployment(t *testing.T) {
	deployed := day(2024, time.January, 1)
	var previous time.Time
	for interval := 1; interval <= 6; interval++ {
		unit := activeMachine(1, interval, deployed)
		statuses := BuildFleetStatus([]ServiceableUnit{unit}, nil, day(2024, time.January, 15))
		due := statuses[unit.Ref].NextServiceDue
		require.NotNil(t, due)
		assert.True(t, due.Equal(deployed.AddDate(0, interval, 0)))
		if interval > 1 {
			assert.True(t, due.After(previous), "due date must strictly increase with the interval")
		}
		previous = *due
	}
}

package servicedue

import (
	"sort"
	"time"

	"assetflow/lib/constants"
	"assetflow/lib/dates"
	"assetflow/lib/models"
)

// UnitKind discriminates the two serviceable entity types
type UnitKind string

const (
	UnitKindMachine UnitKind = "machine"
	UnitKindVehicle UnitKind = "vehicle"
)

// UnitRef is the typed join key between a serviceable unit and its
// maintenance logs
type UnitRef struct {
	Kind UnitKind `json:"kind"`
	ID   int64    `json:"id"`
}

// ServiceableUnit is the shared projection of machines and vehicles consumed
// by the due calculator. Vehicles always project with a fixed two-month
// service interval and a 24/7 operating pattern.
type ServiceableUnit struct {
	Ref                   UnitRef    `json:"ref"`
	Name                  string     `json:"name"`
	Status                string     `json:"status"`
	ServiceIntervalMonths int        `json:"service_interval_months"`
	DeploymentDate        *time.Time `json:"deployment_date,omitempty"`
	OperatingPattern      string     `json:"operating_pattern,omitempty"`
}

// MachineUnit projects a machine into the fleet service view
func MachineUnit(m models.Machine) ServiceableUnit {
	unit := ServiceableUnit{
		Ref:                   UnitRef{Kind: UnitKindMachine, ID: m.MachineID},
		Name:                  m.Name,
		Status:                m.Status,
		ServiceIntervalMonths: m.ServiceIntervalMonths,
	}
	if m.DeploymentDate.Valid {
		deployed := m.DeploymentDate.Time
		unit.DeploymentDate = &deployed
	}
	if m.OperatingPattern.Valid {
		unit.OperatingPattern = m.OperatingPattern.String
	}
	return unit
}

// VehicleUnit projects a vehicle into the fleet service view
func VehicleUnit(v models.Vehicle) ServiceableUnit {
	unit := ServiceableUnit{
		Ref:                   UnitRef{Kind: UnitKindVehicle, ID: v.VehicleID},
		Name:                  v.Name,
		Status:                v.Status,
		ServiceIntervalMonths: constants.VehicleServiceIntervalMonths,
		OperatingPattern:      constants.VehicleOperatingPattern,
	}
	if v.DeploymentDate.Valid {
		deployed := v.DeploymentDate.Time
		unit.DeploymentDate = &deployed
	}
	return unit
}

// Urgency buckets a unit's service position
type Urgency string

const (
	UrgencyOK      Urgency = "ok"
	UrgencyDueSoon Urgency = "due-soon"
	UrgencyOverdue Urgency = "overdue"
	// UrgencyUnknown marks an active unit whose due date cannot be computed
	// (missing or malformed log dates). It is deliberately distinct from both
	// ok and overdue so consumers render N/A instead of a misleading state.
	UrgencyUnknown Urgency = "unknown"
)

// DueSoonWindowDays is the inclusive upper bound of the due-soon bucket
const DueSoonWindowDays = 14

// Status is the derived maintenance position of one serviceable unit.
// DaysRemaining is meaningful only when NextServiceDue is set.
type Status struct {
	Unit            UnitRef    `json:"unit"`
	Name            string     `json:"name"`
	UnitStatus      string     `json:"unit_status"`
	LastServiceDate *time.Time `json:"last_service_date,omitempty"`
	NextServiceDue  *time.Time `json:"next_service_due,omitempty"`
	DaysRemaining   int        `json:"days_remaining"`
	Urgency         Urgency    `json:"urgency"`
}

// BuildFleetStatus computes the service position of every unit from the full
// maintenance log set. The log set is sorted once, descending by start date,
// and each unit takes its first service-reset match; per-unit re-sorting would
// be quadratic over a large fleet.
func BuildFleetStatus(units []ServiceableUnit, logs []models.MaintenanceLog, now time.Time) map[UnitRef]Status {
	sorted := make([]models.MaintenanceLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		// Logs without a valid start date sort last; they can never be the
		// most recent service.
		if !sorted[i].DateStarted.Valid {
			return false
		}
		if !sorted[j].DateStarted.Valid {
			return true
		}
		return sorted[i].DateStarted.Time.After(sorted[j].DateStarted.Time)
	})

	lastReset := make(map[UnitRef]models.MaintenanceLog)
	for _, log := range sorted {
		if !log.ServiceReset {
			continue
		}
		ref := UnitRef{Kind: UnitKind(log.UnitKind), ID: log.UnitID}
		if _, seen := lastReset[ref]; !seen {
			lastReset[ref] = log
		}
	}

	statuses := make(map[UnitRef]Status, len(units))
	for _, unit := range units {
		statuses[unit.Ref] = unitStatus(unit, lastReset, now)
	}
	return statuses
}

func unitStatus(unit ServiceableUnit, lastReset map[UnitRef]models.MaintenanceLog, now time.Time) Status {
	status := Status{
		Unit:       unit.Ref,
		Name:       unit.Name,
		UnitStatus: unit.Status,
	}

	lastLog, hasLog := lastReset[unit.Ref]
	if hasLog && lastLog.DateStarted.Valid {
		started := lastLog.DateStarted.Time
		status.LastServiceDate = &started
	}

	// Due date resolution order: explicit override on the last service log,
	// else last service date plus interval, else deployment date plus
	// interval. Anything unresolvable stays unknown rather than defaulted.
	switch {
	case hasLog && lastLog.NextServiceDue.Valid:
		due := lastLog.NextServiceDue.Time
		status.NextServiceDue = &due
	case hasLog && lastLog.DateStarted.Valid:
		due := dates.AddMonths(lastLog.DateStarted.Time, unit.ServiceIntervalMonths)
		status.NextServiceDue = &due
	case !hasLog && unit.DeploymentDate != nil:
		due := dates.AddMonths(*unit.DeploymentDate, unit.ServiceIntervalMonths)
		status.NextServiceDue = &due
	}

	if status.NextServiceDue != nil {
		status.DaysRemaining = dates.DaysBetween(now, *status.NextServiceDue)
	}

	status.Urgency = classify(unit.Status, status.NextServiceDue, status.DaysRemaining)
	return status
}

// classify applies urgency only to active units; a unit out of service cannot
// be due
func classify(unitStatus string, due *time.Time, daysRemaining int) Urgency {
	if unitStatus != constants.UnitStatusActive {
		return UrgencyOK
	}
	if due == nil {
		return UrgencyUnknown
	}
	switch {
	case daysRemaining < 0:
		return UrgencyOverdue
	case daysRemaining <= DueSoonWindowDays:
		return UrgencyDueSoon
	default:
		return UrgencyOK
	}
}

package export

import (
	"bytes"
	"testing"
	"time"

	"assetflow/lib/inventory"
	"assetflow/lib/servicedue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSiteInventoryWorkbook(t *testing.T) {
	items := []inventory.SiteInventoryItem{
		{
			SiteID:      1,
			ItemID:      7,
			ItemName:    "Scaffolding Frame",
			Quantity:    42,
			Unit:        "pcs",
			Category:    "equipment",
			LastUpdated: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		},
		{
			SiteID:      1,
			ItemID:      9,
			ItemName:    "Cement Bag 50kg",
			Quantity:    120,
			Unit:        "bags",
			Category:    "consumable",
			LastUpdated: time.Date(2024, 3, 7, 9, 30, 0, 0, time.UTC),
		},
	}

	data, err := SiteInventoryWorkbook("Riverside Plant", items)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Site Inventory", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Scaffolding Frame", name)

	quantity, err := f.GetCellValue("Site Inventory", "C3")
	require.NoError(t, err)
	assert.Equal(t, "120", quantity)

	updated, err := f.GetCellValue("Site Inventory", "F3")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-07", updated)
}

func TestFleetServiceWorkbook_UnknownDueRendersNA(t *testing.T) {
	due := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	statuses := []servicedue.Status{
		{
			Unit:           servicedue.UnitRef{Kind: servicedue.UnitKindMachine, ID: 3},
			Name:           "Tower Crane",
			UnitStatus:     "active",
			NextServiceDue: &due,
			DaysRemaining:  10,
			Urgency:        servicedue.UrgencyDueSoon,
		},
		{
			Unit:       servicedue.UnitRef{Kind: servicedue.UnitKindVehicle, ID: 5},
			Name:       "Tipper Truck",
			UnitStatus: "active",
			Urgency:    servicedue.UrgencyUnknown,
		},
	}

	data, err := FleetServiceWorkbook(statuses)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	dueCell, err := f.GetCellValue("Fleet Service", "F2")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", dueCell)

	naDue, err := f.GetCellValue("Fleet Service", "F3")
	require.NoError(t, err)
	assert.Equal(t, "N/A", naDue)

	naDays, err := f.GetCellValue("Fleet Service", "G3")
	require.NoError(t, err)
	assert.Equal(t, "N/A", naDays)

	urgency, err := f.GetCellValue("Fleet Service", "H3")
	require.NoError(t, err)
	assert.Equal(t, "unknown", urgency)
}

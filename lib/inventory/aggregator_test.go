package inventory

import (
	"database/sql"
	"testing"
	"time"

	"assetflow/lib/constants"
	"assetflow/lib/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	siteS int64 = 100
	siteT int64 = 200

	assetA = models.Asset{AssetID: 1, Name: "Scaffolding Frame", Unit: "pcs", Category: "equipment"}
	assetB = models.Asset{AssetID: 2, Name: "Safety Harness", Unit: "pcs", Category: "safety"}
)

func outbound(id int64, siteID int64, issued time.Time, items ...models.WaybillItem) models.Waybill {
	return models.Waybill{
		WaybillID: id,
		Type:      constants.WaybillTypeOutbound,
		SiteID:    siteID,
		Status:    constants.WaybillStatusOutstanding,
		IssueDate: issued,
		UpdatedAt: issued,
		Items:     items,
	}
}

func TestBuildSiteInventory_SingleOutboundWaybill(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	waybills := []models.Waybill{
		outbound(1, siteS, issued, models.WaybillItem{AssetID: assetA.AssetID, AssetName: "Scaffolding Frame", Quantity: 10}),
	}

	snapshot := BuildSiteInventory(waybills, []models.Asset{assetA})

	item, ok := snapshot.Items[SiteAssetKey{siteS, assetA.AssetID}]
	require.True(t, ok)
	assert.Equal(t, int64(10), item.Quantity)
	assert.Equal(t, "Scaffolding Frame", item.ItemName)
	assert.Equal(t, "pcs", item.Unit)
	assert.Equal(t, "equipment", item.Category)
	assert.Empty(t, snapshot.Warnings)
}

func TestBuildSiteInventory_PartialReturnOnOriginalItem(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	waybill := outbound(1, siteS, issued, models.WaybillItem{AssetID: assetA.AssetID, AssetName: "Scaffolding Frame", Quantity: 10, ReturnedQuantity: 4})
	waybill.Status = constants.WaybillStatusPartialReturned

	snapshot := BuildSiteInventory([]models.Waybill{waybill}, []models.Asset{assetA})

	item, ok := snapshot.Items[SiteAssetKey{siteS, assetA.AssetID}]
	require.True(t, ok)
	assert.Equal(t, int64(6), item.Quantity)
}

func TestBuildSiteInventory_FullyReturnedItemDropped(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	waybill := outbound(1, siteS, issued, models.WaybillItem{AssetID: assetA.AssetID, Quantity: 10, ReturnedQuantity: 10})
	waybill.Status = constants.WaybillStatusReturnCompleted

	snapshot := BuildSiteInventory([]models.Waybill{waybill}, []models.Asset{assetA})

	assert.Empty(t, snapshot.Items)
}

func TestBuildSiteInventory_SumsAcrossWaybills(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	waybills := []models.Waybill{
		outbound(3, siteS, jan, models.WaybillItem{AssetID: assetB.AssetID, AssetName: "Safety Harness", Quantity: 5}),
		outbound(4, siteS, feb, models.WaybillItem{AssetID: assetB.AssetID, AssetName: "Safety Harness", Quantity: 3}),
	}

	snapshot := BuildSiteInventory(waybills, []models.Asset{assetB})

	item, ok := snapshot.Items[SiteAssetKey{siteS, assetB.AssetID}]
	require.True(t, ok)
	assert.Equal(t, int64(8), item.Quantity, "quantities from multiple waybills must sum, not overwrite")
	assert.True(t, item.LastUpdated.Equal(feb), "lastUpdated must be the most recent contributing waybill")
}

func TestBuildSiteInventory_DraftWaybillsExcluded(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	waybill := outbound(1, siteS, issued, models.WaybillItem{AssetID: assetA.AssetID, Quantity: 10})
	waybill.Status = constants.WaybillStatusDraft

	snapshot := BuildSiteInventory([]models.Waybill{waybill}, []models.Asset{assetA})

	assert.Empty(t, snapshot.Items)
}

func TestBuildSiteInventory_ReturnToDifferentSite(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	returnWaybill := models.Waybill{
		WaybillID:      2,
		Type:           constants.WaybillTypeReturn,
		SiteID:         siteS,
		ReturnToSiteID: sql.NullInt64{Int64: siteT, Valid: true},
		Status:         constants.WaybillStatusOutstanding,
		IssueDate:      mar,
		UpdatedAt:      mar,
		Items:          []models.WaybillItem{{AssetID: assetA.AssetID, AssetName: "Scaffolding Frame", Quantity: 4}},
	}

	waybills := []models.Waybill{
		outbound(1, siteS, jan, models.WaybillItem{AssetID: assetA.AssetID, AssetName: "Scaffolding Frame", Quantity: 10}),
		returnWaybill,
	}

	snapshot := BuildSiteInventory(waybills, []models.Asset{assetA})

	source, ok := snapshot.Items[SiteAssetKey{siteS, assetA.AssetID}]
	require.True(t, ok)
	assert.Equal(t, int64(6), source.Quantity, "source site must be decremented")

	dest, ok := snapshot.Items[SiteAssetKey{siteT, assetA.AssetID}]
	require.True(t, ok)
	assert.Equal(t, int64(4), dest.Quantity, "destination site must be incremented")
}

func TestBuildSiteInventory_ClampsNegativeNetWithWarning(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	waybill := outbound(7, siteS, issued, models.WaybillItem{AssetID: assetA.AssetID, Quantity: 10, ReturnedQuantity: 12})

	snapshot := BuildSiteInventory([]models.Waybill{waybill}, []models.Asset{assetA})

	assert.Empty(t, snapshot.Items, "clamped contribution must not go negative")
	require.Len(t, snapshot.Warnings, 1)
	assert.Equal(t, int64(7), snapshot.Warnings[0].WaybillID)
	assert.Equal(t, assetA.AssetID, snapshot.Warnings[0].AssetID)
}

func TestBuildSiteInventory_DanglingAssetFallsBackToSnapshotName(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	waybills := []models.Waybill{
		outbound(1, siteS, issued, models.WaybillItem{AssetID: 999, AssetName: "Old Generator", Quantity: 2}),
	}

	snapshot := BuildSiteInventory(waybills, []models.Asset{assetA})

	item, ok := snapshot.Items[SiteAssetKey{siteS, 999}]
	require.True(t, ok)
	assert.Equal(t, "Old Generator", item.ItemName)
	assert.Empty(t, item.Unit)
}

func TestBuildSiteInventory_PrefersLiveAssetName(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	waybills := []models.Waybill{
		outbound(1, siteS, issued, models.WaybillItem{AssetID: assetA.AssetID, AssetName: "Stale Name", Quantity: 2}),
	}

	snapshot := BuildSiteInventory(waybills, []models.Asset{assetA})

	item := snapshot.Items[SiteAssetKey{siteS, assetA.AssetID}]
	assert.Equal(t, "Scaffolding Frame", item.ItemName)
}

func TestBuildSiteInventory_Idempotent(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	waybills := []models.Waybill{
		outbound(1, siteS, jan, models.WaybillItem{AssetID: assetA.AssetID, AssetName: "Scaffolding Frame", Quantity: 10, ReturnedQuantity: 4}),
		outbound(2, siteT, feb, models.WaybillItem{AssetID: assetB.AssetID, AssetName: "Safety Harness", Quantity: 3}),
	}
	assets := []models.Asset{assetA, assetB}

	first := BuildSiteInventory(waybills, assets)
	second := BuildSiteInventory(waybills, assets)

	assert.Equal(t, first, second, "re-running the fold over unchanged input must be idempotent")
}

func TestBuildSiteInventory_Conservation(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	waybills := []models.Waybill{
		outbound(1, siteS, jan, models.WaybillItem{AssetID: assetA.AssetID, Quantity: 10, ReturnedQuantity: 3}),
		outbound(2, siteT, jan, models.WaybillItem{AssetID: assetA.AssetID, Quantity: 5, ReturnedQuantity: 5}),
	}

	snapshot := BuildSiteInventory(waybills, []models.Asset{assetA})

	var onSite, shippedNet int64
	for key, item := range snapshot.Items {
		if key.AssetID == assetA.AssetID {
			onSite += item.Quantity
		}
	}
	for _, waybill := range waybills {
		for _, item := range waybill.Items {
			shippedNet += item.Quantity - item.ReturnedQuantity
		}
	}
	assert.LessOrEqual(t, onSite, shippedNet, "on-site stock can never exceed shipped minus returned")
}

func TestSiteInventory_FiltersAndSorts(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	waybills := []models.Waybill{
		outbound(1, siteS, jan,
			models.WaybillItem{AssetID: assetB.AssetID, AssetName: "Safety Harness", Quantity: 3},
			models.WaybillItem{AssetID: assetA.AssetID, AssetName: "Scaffolding Frame", Quantity: 10},
		),
		outbound(2, siteT, jan, models.WaybillItem{AssetID: assetA.AssetID, AssetName: "Scaffolding Frame", Quantity: 1}),
	}

	snapshot := BuildSiteInventory(waybills, []models.Asset{assetA, assetB})

	items := snapshot.SiteInventory(siteS)
	require.Len(t, items, 2)
	assert.Equal(t, assetA.AssetID, items[0].ItemID)
	assert.Equal(t, assetB.AssetID, items[1].ItemID)

	assert.Empty(t, snapshot.SiteInventory(999), "unknown site yields no items")
}

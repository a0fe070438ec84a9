package inventory

import (
	"sort"
	"time"

	"assetflow/lib/constants"
	"assetflow/lib/models"
)

// SiteAssetKey identifies one (site, asset) stock position
type SiteAssetKey struct {
	SiteID  int64
	AssetID int64
}

// SiteInventoryItem is the derived current on-site stock for one asset at one
// site. Unit and Category are joined from the live asset record at build time;
// ItemName prefers the live asset name and falls back to the name snapshot
// captured on the waybill line when the asset record no longer resolves.
type SiteInventoryItem struct {
	SiteID      int64     `json:"site_id"`
	ItemID      int64     `json:"item_id"`
	ItemName    string    `json:"item_name"`
	Quantity    int64     `json:"quantity"`
	Unit        string    `json:"unit"`
	Category    string    `json:"category"`
	LastUpdated time.Time `json:"last_updated"`
}

// Warning flags a data inconsistency encountered during aggregation. The
// aggregation itself proceeds with a clamped contribution; callers are
// expected to log warnings for audit.
type Warning struct {
	WaybillID int64  `json:"waybill_id"`
	AssetID   int64  `json:"asset_id"`
	Message   string `json:"message"`
}

// Snapshot is a complete derived site-inventory view. It is a pure value:
// rebuilding from the same record set yields an identical snapshot, so callers
// recompute after any waybill mutation instead of patching incrementally.
type Snapshot struct {
	Items    map[SiteAssetKey]SiteInventoryItem `json:"items"`
	Warnings []Warning                          `json:"warnings,omitempty"`
}

type group struct {
	quantity    int64
	name        string
	lastUpdated time.Time
}

// BuildSiteInventory folds the full waybill history into current on-site
// stock per (site, asset). Draft waybills are excluded; each issued outbound
// line contributes quantity minus returned quantity, and a return waybill
// moves its quantities from the source site to the return destination. Lines
// whose returned quantity exceeds the issued quantity are clamped to zero and
// surfaced as warnings. Groups that net to zero or below are dropped.
func BuildSiteInventory(waybills []models.Waybill, assets []models.Asset) Snapshot {
	assetsByID := make(map[int64]models.Asset, len(assets))
	for _, asset := range assets {
		assetsByID[asset.AssetID] = asset
	}

	groups := make(map[SiteAssetKey]*group)
	var warnings []Warning

	touch := func(key SiteAssetKey, delta int64, name string, at time.Time) {
		g, ok := groups[key]
		if !ok {
			g = &group{name: name}
			groups[key] = g
		}
		g.quantity += delta
		if at.After(g.lastUpdated) {
			g.lastUpdated = at
		}
	}

	for _, waybill := range waybills {
		if !waybill.Issued() {
			continue
		}

		// lastUpdated reflects the most recent contributing waybill, not
		// the aggregation time
		updatedAt := waybill.IssueDate
		if waybill.UpdatedAt.After(updatedAt) {
			updatedAt = waybill.UpdatedAt
		}

		for _, item := range waybill.Items {
			switch waybill.Type {
			case constants.WaybillTypeReturn:
				// The return leg drains the source site; when the goods land
				// at another site rather than the office, that site gains the
				// same quantity.
				touch(SiteAssetKey{waybill.SiteID, item.AssetID}, -item.Quantity, item.AssetName, updatedAt)
				if waybill.ReturnToSiteID.Valid {
					touch(SiteAssetKey{waybill.ReturnToSiteID.Int64, item.AssetID}, item.Quantity, item.AssetName, updatedAt)
				}

			default:
				net := item.Quantity - item.ReturnedQuantity
				if net < 0 {
					warnings = append(warnings, Warning{
						WaybillID: waybill.WaybillID,
						AssetID:   item.AssetID,
						Message:   "returned quantity exceeds issued quantity, contribution clamped to zero",
					})
					net = 0
				}
				touch(SiteAssetKey{waybill.SiteID, item.AssetID}, net, item.AssetName, updatedAt)
			}
		}
	}

	items := make(map[SiteAssetKey]SiteInventoryItem, len(groups))
	for key, g := range groups {
		if g.quantity <= 0 {
			continue
		}

		item := SiteInventoryItem{
			SiteID:      key.SiteID,
			ItemID:      key.AssetID,
			ItemName:    g.name,
			Quantity:    g.quantity,
			LastUpdated: g.lastUpdated,
		}
		if asset, ok := assetsByID[key.AssetID]; ok {
			item.ItemName = asset.Name
			item.Unit = asset.Unit
			item.Category = asset.Category
		}
		items[key] = item
	}

	return Snapshot{Items: items, Warnings: warnings}
}

// SiteInventory returns the snapshot entries for one site, ordered by asset id.
// The snapshot map is built once per recompute; callers filter it here rather
// than re-scanning the waybill history per site.
func (s Snapshot) SiteInventory(siteID int64) []SiteInventoryItem {
	var items []SiteInventoryItem
	for key, item := range s.Items {
		if key.SiteID == siteID {
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items
}

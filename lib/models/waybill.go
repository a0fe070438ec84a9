package models

import (
	"database/sql"
	"time"

	"assetflow/lib/constants"
)

// Waybill is an immutable-once-issued record of an asset movement based on
// the inventory.waybills table. Outbound waybills move assets to a site;
// return waybills record the return leg of previously issued materials.
type Waybill struct {
	WaybillID          int64          `json:"waybill_id"`
	CompanyID          int64          `json:"company_id"`
	WaybillNumber      string         `json:"waybill_number"`
	Type               string         `json:"type"`
	SiteID             int64          `json:"site_id"`
	ReturnToSiteID     sql.NullInt64  `json:"return_to_site_id,omitempty"`
	Status             string         `json:"status"`
	Driver             sql.NullString `json:"driver,omitempty"`
	Vehicle            sql.NullString `json:"vehicle,omitempty"`
	Purpose            sql.NullString `json:"purpose,omitempty"`
	IssueDate          time.Time      `json:"issue_date"`
	ExpectedReturnDate sql.NullTime   `json:"expected_return_date,omitempty"`
	SentToSiteDate     sql.NullTime   `json:"sent_to_site_date,omitempty"`
	Items              []WaybillItem  `json:"items"`
	CreatedAt          time.Time      `json:"created_at"`
	CreatedBy          int64          `json:"created_by"`
	UpdatedAt          time.Time      `json:"updated_at"`
	UpdatedBy          int64          `json:"updated_by"`
}

// WaybillItem is one line of a waybill based on the inventory.waybill_items
// table. AssetName is a point-in-time snapshot of the asset name at issue
// time; consumers prefer the live asset record and fall back to this snapshot
// when the asset reference no longer resolves.
type WaybillItem struct {
	ItemID           int64  `json:"item_id"`
	WaybillID        int64  `json:"waybill_id"`
	AssetID          int64  `json:"asset_id"`
	AssetName        string `json:"asset_name"`
	Quantity         int64  `json:"quantity"`
	ReturnedQuantity int64  `json:"returned_quantity"`
	Status           string `json:"status"`
}

// DeriveStatus computes a waybill's status from its item statuses and the
// sent-to-site marker. Item-level invariant: returned_quantity <= quantity.
func (w *Waybill) DeriveStatus() string {
	if w.Status == constants.WaybillStatusDraft {
		return constants.WaybillStatusDraft
	}

	if len(w.Items) == 0 {
		return constants.WaybillStatusOutstanding
	}

	allReturned := true
	anyReturned := false
	for _, item := range w.Items {
		if item.ReturnedQuantity > 0 {
			anyReturned = true
		}
		if item.ReturnedQuantity < item.Quantity {
			allReturned = false
		}
	}

	switch {
	case allReturned:
		return constants.WaybillStatusReturnCompleted
	case anyReturned:
		return constants.WaybillStatusPartialReturned
	case w.SentToSiteDate.Valid:
		return constants.WaybillStatusSentToSite
	default:
		return constants.WaybillStatusOutstanding
	}
}

// Issued reports whether the goods on this waybill have left the source, i.e.
// the waybill is past any pre-issue draft state.
func (w *Waybill) Issued() bool {
	return w.Status != constants.WaybillStatusDraft
}

// CreateWaybillRequest represents the request payload for creating a new waybill
type CreateWaybillRequest struct {
	Type               string                     `json:"type" validate:"required,oneof=waybill return"`
	SiteID             int64                      `json:"site_id" validate:"required"`
	ReturnToSiteID     int64                      `json:"return_to_site_id,omitempty"`
	Driver             string                     `json:"driver,omitempty" validate:"max=255"`
	Vehicle            string                     `json:"vehicle,omitempty" validate:"max=255"`
	Purpose            string                     `json:"purpose,omitempty" validate:"max=1000"`
	IssueDate          string                     `json:"issue_date" validate:"required"`
	ExpectedReturnDate string                     `json:"expected_return_date,omitempty"`
	Draft              bool                       `json:"draft,omitempty"`
	Items              []CreateWaybillItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateWaybillItemRequest represents one line on a waybill creation request
type CreateWaybillItemRequest struct {
	AssetID  int64 `json:"asset_id" validate:"required"`
	Quantity int64 `json:"quantity" validate:"required,min=1"`
}

// ReturnWaybillItemsRequest records returned quantities against the items of
// an issued waybill
type ReturnWaybillItemsRequest struct {
	ReturnToSiteID int64                      `json:"return_to_site_id,omitempty"`
	ReturnDate     string                     `json:"return_date,omitempty"`
	Items          []ReturnWaybillItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ReturnWaybillItemRequest represents one returned line quantity
type ReturnWaybillItemRequest struct {
	ItemID   int64 `json:"item_id" validate:"required"`
	Quantity int64 `json:"quantity" validate:"required,min=1"`
}

// WaybillListResponse represents the response for listing waybills
type WaybillListResponse struct {
	Waybills []Waybill `json:"waybills"`
	Total    int       `json:"total"`
}

package models

import (
	"database/sql"
	"time"
)

// Asset represents a trackable item (equipment, consumable, tool) based on
// the inventory.assets table
type Asset struct {
	AssetID            int64           `json:"asset_id"`
	CompanyID          int64           `json:"company_id"`
	Name               string          `json:"name"`
	Description        sql.NullString  `json:"description,omitempty"`
	Category           string          `json:"category"`
	Unit               string          `json:"unit"`
	Quantity           int64           `json:"quantity"`
	ReservedQuantity   int64           `json:"reserved_quantity"`
	DamagedCount       int64           `json:"damaged_count"`
	MissingCount       int64           `json:"missing_count"`
	AvailableQuantity  int64           `json:"available_quantity"`
	LowStockLevel      int64           `json:"low_stock_level"`
	CriticalStockLevel int64           `json:"critical_stock_level"`
	SiteID             sql.NullInt64   `json:"site_id,omitempty"`
	Location           sql.NullString  `json:"location,omitempty"`
	SiteQuantities     map[int64]int64 `json:"site_quantities,omitempty"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	CreatedBy          int64           `json:"created_by"`
	UpdatedAt          time.Time       `json:"updated_at"`
	UpdatedBy          int64           `json:"updated_by"`
}

// ComputeAvailable derives the available quantity from its operands. The
// stored available_quantity column is never authoritative on its own and is
// recomputed whenever quantity, reservations, damage or loss counts change.
func (a *Asset) ComputeAvailable() int64 {
	return a.Quantity - a.ReservedQuantity - a.DamagedCount - a.MissingCount
}

// CreateAssetRequest represents the request payload for creating a new asset
type CreateAssetRequest struct {
	Name               string `json:"name" validate:"required,max=255"`
	Description        string `json:"description,omitempty" validate:"max=1000"`
	Category           string `json:"category" validate:"required,max=100"`
	Unit               string `json:"unit" validate:"required,max=50"`
	Quantity           int64  `json:"quantity" validate:"min=0"`
	LowStockLevel      int64  `json:"low_stock_level,omitempty" validate:"min=0"`
	CriticalStockLevel int64  `json:"critical_stock_level,omitempty" validate:"min=0"`
	SiteID             int64  `json:"site_id,omitempty"`
	Location           string `json:"location,omitempty" validate:"max=255"`
}

// UpdateAssetRequest represents the request payload for updating an existing asset
type UpdateAssetRequest struct {
	Name               string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description        string `json:"description,omitempty" validate:"max=1000"`
	Category           string `json:"category,omitempty" validate:"omitempty,max=100"`
	Unit               string `json:"unit,omitempty" validate:"omitempty,max=50"`
	LowStockLevel      int64  `json:"low_stock_level,omitempty" validate:"min=0"`
	CriticalStockLevel int64  `json:"critical_stock_level,omitempty" validate:"min=0"`
	SiteID             int64  `json:"site_id,omitempty"`
	Location           string `json:"location,omitempty" validate:"max=255"`
	Status             string `json:"status,omitempty" validate:"omitempty,oneof=active inactive retired"`
}

// RestockAssetRequest represents the request payload for restocking an asset
type RestockAssetRequest struct {
	Quantity int64  `json:"quantity" validate:"required,min=1"`
	Notes    string `json:"notes,omitempty" validate:"max=500"`
}

// AdjustAssetCountsRequest adjusts damaged or missing counts on an asset
type AdjustAssetCountsRequest struct {
	DamagedDelta int64  `json:"damaged_delta,omitempty"`
	MissingDelta int64  `json:"missing_delta,omitempty"`
	Notes        string `json:"notes,omitempty" validate:"max=500"`
}

// AssetListResponse represents the response for listing assets
type AssetListResponse struct {
	Assets []Asset `json:"assets"`
	Total  int     `json:"total"`
}

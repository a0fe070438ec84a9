package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Site represents a physical project location based on the inventory.sites table
type Site struct {
	SiteID      int64          `json:"site_id"`
	CompanyID   int64          `json:"company_id"`
	Name        string         `json:"name"`
	Location    sql.NullString `json:"location,omitempty"`
	Status      string         `json:"status"`
	ServiceTags pq.StringArray `json:"service_tags,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CreatedBy   int64          `json:"created_by"`
	UpdatedAt   time.Time      `json:"updated_at"`
	UpdatedBy   int64          `json:"updated_by"`
}

// CreateSiteRequest represents the request payload for creating a new site
type CreateSiteRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=255"`
	Location    string   `json:"location,omitempty" validate:"max=500"`
	Status      string   `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	ServiceTags []string `json:"service_tags,omitempty"`
}

// UpdateSiteRequest represents the request payload for updating an existing site
type UpdateSiteRequest struct {
	Name        string   `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Location    string   `json:"location,omitempty" validate:"max=500"`
	Status      string   `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	ServiceTags []string `json:"service_tags,omitempty"`
}

// SiteListResponse represents the response for listing sites
type SiteListResponse struct {
	Sites []Site `json:"sites"`
	Total int    `json:"total"`
}

// SiteTransaction is an append-only ledger entry of material moving in or out
// of a site, based on the inventory.site_transactions table. Entries are never
// mutated or deleted in normal operation.
type SiteTransaction struct {
	TransactionID int64          `json:"transaction_id"`
	SiteID        int64          `json:"site_id"`
	AssetName     string         `json:"asset_name"`
	Type          string         `json:"type"`
	Quantity      int64          `json:"quantity"`
	ReferenceID   sql.NullInt64  `json:"reference_id,omitempty"`
	Notes         sql.NullString `json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	CreatedBy     int64          `json:"created_by"`
}

// CreateSiteTransactionRequest represents the request payload for recording a
// site transaction
type CreateSiteTransactionRequest struct {
	AssetName   string `json:"asset_name" validate:"required,max=255"`
	Type        string `json:"type" validate:"required,oneof=in out"`
	Quantity    int64  `json:"quantity" validate:"required,min=1"`
	ReferenceID int64  `json:"reference_id,omitempty"`
	Notes       string `json:"notes,omitempty" validate:"max=1000"`
}

// SiteTransactionListResponse represents the response for listing site transactions
type SiteTransactionListResponse struct {
	Transactions []SiteTransaction `json:"transactions"`
	Total        int               `json:"total"`
}

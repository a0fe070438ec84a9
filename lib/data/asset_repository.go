package data

import (
	"context"
	"database/sql"
	"fmt"

	"assetflow/lib/models"

	"github.com/sirupsen/logrus"
)

// AssetRepository defines the interface for asset data operations
type AssetRepository interface {
	CreateAsset(ctx context.Context, companyID int64, asset *models.CreateAssetRequest, userID int64) (*models.Asset, error)
	GetAssetsByCompany(ctx context.Context, companyID int64) ([]models.Asset, error)
	GetAssetByID(ctx context.Context, assetID, companyID int64) (*models.Asset, error)
	UpdateAsset(ctx context.Context, assetID, companyID int64, asset *models.UpdateAssetRequest, userID int64) (*models.Asset, error)
	DeleteAsset(ctx context.Context, assetID, companyID int64, userID int64) error
	RestockAsset(ctx context.Context, assetID, companyID int64, request *models.RestockAssetRequest, userID int64) (*models.Asset, error)
	AdjustAssetCounts(ctx context.Context, assetID, companyID int64, request *models.AdjustAssetCountsRequest, userID int64) (*models.Asset, error)
}

// AssetDao implements AssetRepository interface using PostgreSQL
type AssetDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewAssetRepository creates a new AssetRepository instance
func NewAssetRepository(db *sql.DB) AssetRepository {
	return &AssetDao{
		DB:     db,
		Logger: logrus.New(),
	}
}

const assetColumns = `
	id, company_id, name, description, category, unit,
	quantity, reserved_quantity, damaged_count, missing_count, available_quantity,
	low_stock_level, critical_stock_level, site_id, location, status,
	created_at, created_by, updated_at, updated_by
`

func scanAsset(row interface{ Scan(...interface{}) error }) (*models.Asset, error) {
	var asset models.Asset
	err := row.Scan(
		&asset.AssetID, &asset.CompanyID, &asset.Name, &asset.Description, &asset.Category, &asset.Unit,
		&asset.Quantity, &asset.ReservedQuantity, &asset.DamagedCount, &asset.MissingCount, &asset.AvailableQuantity,
		&asset.LowStockLevel, &asset.CriticalStockLevel, &asset.SiteID, &asset.Location, &asset.Status,
		&asset.CreatedAt, &asset.CreatedBy, &asset.UpdatedAt, &asset.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// CreateAsset creates a new asset for the company. available_quantity is
// computed from its operands, never accepted from the caller.
func (dao *AssetDao) CreateAsset(ctx context.Context, companyID int64, request *models.CreateAssetRequest, userID int64) (*models.Asset, error) {
	description := sql.NullString{String: request.Description, Valid: request.Description != ""}
	siteID := sql.NullInt64{Int64: request.SiteID, Valid: request.SiteID != 0}
	location := sql.NullString{String: request.Location, Valid: request.Location != ""}

	query := `
		INSERT INTO inventory.assets (
			company_id, name, description, category, unit, quantity,
			available_quantity, low_stock_level, critical_stock_level,
			site_id, location, status, created_by, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8, $9, $10, 'active', $11, $11)
		RETURNING id
	`

	var assetID int64
	err := dao.DB.QueryRowContext(ctx, query,
		companyID, request.Name, description, request.Category, request.Unit, request.Quantity,
		request.LowStockLevel, request.CriticalStockLevel, siteID, location, userID,
	).Scan(&assetID)

	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"company_id": companyID,
			"name":       request.Name,
			"error":      err.Error(),
		}).Error("Failed to create asset")
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"asset_id":   assetID,
		"company_id": companyID,
		"name":       request.Name,
	}).Info("Successfully created asset")

	return dao.GetAssetByID(ctx, assetID, companyID)
}

// GetAssetsByCompany retrieves all assets for a company, including per-site
// quantity splits for consumables spread across sites
func (dao *AssetDao) GetAssetsByCompany(ctx context.Context, companyID int64) ([]models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM inventory.assets WHERE company_id = $1 ORDER BY name`

	rows, err := dao.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}

	if err := dao.attachSiteQuantities(ctx, companyID, assets); err != nil {
		return nil, err
	}

	return assets, nil
}

// attachSiteQuantities joins the site-quantity split table onto the asset list
func (dao *AssetDao) attachSiteQuantities(ctx context.Context, companyID int64, assets []models.Asset) error {
	query := `
		SELECT q.asset_id, q.site_id, q.quantity
		FROM inventory.asset_site_quantities q
		JOIN inventory.assets a ON a.id = q.asset_id
		WHERE a.company_id = $1
	`

	rows, err := dao.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return fmt.Errorf("failed to get asset site quantities: %w", err)
	}
	defer rows.Close()

	splits := make(map[int64]map[int64]int64)
	for rows.Next() {
		var assetID, siteID, quantity int64
		if err := rows.Scan(&assetID, &siteID, &quantity); err != nil {
			return fmt.Errorf("failed to scan asset site quantity: %w", err)
		}
		if splits[assetID] == nil {
			splits[assetID] = make(map[int64]int64)
		}
		splits[assetID][siteID] = quantity
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate asset site quantities: %w", err)
	}

	for i := range assets {
		if split, ok := splits[assets[i].AssetID]; ok {
			assets[i].SiteQuantities = split
		}
	}
	return nil
}

// GetAssetByID retrieves a single asset scoped to the company
func (dao *AssetDao) GetAssetByID(ctx context.Context, assetID, companyID int64) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM inventory.assets WHERE id = $1 AND company_id = $2`

	asset, err := scanAsset(dao.DB.QueryRowContext(ctx, query, assetID, companyID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("asset not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	assets := []models.Asset{*asset}
	if err := dao.attachSiteQuantities(ctx, companyID, assets); err != nil {
		return nil, err
	}
	return &assets[0], nil
}

// UpdateAsset updates asset metadata. Quantity operands change only through
// restock, adjustment and waybill operations so the derived availability
// cannot be desynced by a plain edit.
func (dao *AssetDao) UpdateAsset(ctx context.Context, assetID, companyID int64, request *models.UpdateAssetRequest, userID int64) (*models.Asset, error) {
	query := `
		UPDATE inventory.assets SET
			name = COALESCE(NULLIF($3, ''), name),
			description = COALESCE(NULLIF($4, ''), description),
			category = COALESCE(NULLIF($5, ''), category),
			unit = COALESCE(NULLIF($6, ''), unit),
			low_stock_level = CASE WHEN $7 > 0 THEN $7 ELSE low_stock_level END,
			critical_stock_level = CASE WHEN $8 > 0 THEN $8 ELSE critical_stock_level END,
			site_id = CASE WHEN $9 > 0 THEN $9 ELSE site_id END,
			location = COALESCE(NULLIF($10, ''), location),
			status = COALESCE(NULLIF($11, ''), status),
			updated_at = NOW(),
			updated_by = $12
		WHERE id = $1 AND company_id = $2
	`

	result, err := dao.DB.ExecContext(ctx, query,
		assetID, companyID, request.Name, request.Description, request.Category, request.Unit,
		request.LowStockLevel, request.CriticalStockLevel, request.SiteID, request.Location,
		request.Status, userID,
	)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"asset_id": assetID,
			"error":    err.Error(),
		}).Error("Failed to update asset")
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("asset not found")
	}

	return dao.GetAssetByID(ctx, assetID, companyID)
}

// DeleteAsset removes an asset. An asset with quantity reserved on an
// outstanding waybill cannot be deleted; the reservation must be reversed
// first through the waybill flow.
func (dao *AssetDao) DeleteAsset(ctx context.Context, assetID, companyID int64, userID int64) error {
	var reserved int64
	err := dao.DB.QueryRowContext(ctx,
		`SELECT reserved_quantity FROM inventory.assets WHERE id = $1 AND company_id = $2`,
		assetID, companyID,
	).Scan(&reserved)
	if err == sql.ErrNoRows {
		return fmt.Errorf("asset not found")
	}
	if err != nil {
		return fmt.Errorf("failed to check asset reservations: %w", err)
	}

	if reserved > 0 {
		return fmt.Errorf("asset has outstanding waybill reservations")
	}

	_, err = dao.DB.ExecContext(ctx,
		`DELETE FROM inventory.assets WHERE id = $1 AND company_id = $2`,
		assetID, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"asset_id": assetID,
		"user_id":  userID,
	}).Info("Successfully deleted asset")
	return nil
}

// RestockAsset increases total quantity and recomputes availability
func (dao *AssetDao) RestockAsset(ctx context.Context, assetID, companyID int64, request *models.RestockAssetRequest, userID int64) (*models.Asset, error) {
	query := `
		UPDATE inventory.assets SET
			quantity = quantity + $3,
			available_quantity = quantity + $3 - reserved_quantity - damaged_count - missing_count,
			updated_at = NOW(),
			updated_by = $4
		WHERE id = $1 AND company_id = $2
	`

	result, err := dao.DB.ExecContext(ctx, query, assetID, companyID, request.Quantity, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to restock asset: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("asset not found")
	}

	dao.Logger.WithFields(logrus.Fields{
		"asset_id": assetID,
		"quantity": request.Quantity,
		"user_id":  userID,
	}).Info("Successfully restocked asset")

	return dao.GetAssetByID(ctx, assetID, companyID)
}

// AdjustAssetCounts applies damaged/missing deltas and recomputes availability
func (dao *AssetDao) AdjustAssetCounts(ctx context.Context, assetID, companyID int64, request *models.AdjustAssetCountsRequest, userID int64) (*models.Asset, error) {
	query := `
		UPDATE inventory.assets SET
			damaged_count = GREATEST(damaged_count + $3, 0),
			missing_count = GREATEST(missing_count + $4, 0),
			available_quantity = quantity - reserved_quantity - GREATEST(damaged_count + $3, 0) - GREATEST(missing_count + $4, 0),
			updated_at = NOW(),
			updated_by = $5
		WHERE id = $1 AND company_id = $2
	`

	result, err := dao.DB.ExecContext(ctx, query, assetID, companyID, request.DamagedDelta, request.MissingDelta, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust asset counts: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("asset not found")
	}

	return dao.GetAssetByID(ctx, assetID, companyID)
}

package data

import (
	"context"
	"database/sql"
	"fmt"

	"assetflow/lib/models"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// SiteRepository defines the interface for site and site-transaction data operations
type SiteRepository interface {
	CreateSite(ctx context.Context, companyID int64, site *models.CreateSiteRequest, userID int64) (*models.Site, error)
	GetSitesByCompany(ctx context.Context, companyID int64) ([]models.Site, error)
	GetSiteByID(ctx context.Context, siteID, companyID int64) (*models.Site, error)
	UpdateSite(ctx context.Context, siteID, companyID int64, site *models.UpdateSiteRequest, userID int64) (*models.Site, error)
	DeleteSite(ctx context.Context, siteID, companyID int64, userID int64) error

	// Site transactions are an append-only ledger: no update or delete.
	CreateSiteTransaction(ctx context.Context, siteID int64, transaction *models.CreateSiteTransactionRequest, userID int64) (*models.SiteTransaction, error)
	GetSiteTransactions(ctx context.Context, siteID int64) ([]models.SiteTransaction, error)
}

// SiteDao implements SiteRepository interface using PostgreSQL
type SiteDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewSiteRepository creates a new SiteRepository instance
func NewSiteRepository(db *sql.DB) SiteRepository {
	return &SiteDao{
		DB:     db,
		Logger: logrus.New(),
	}
}

const siteColumns = `
	id, company_id, name, location, status, service_tags,
	created_at, created_by, updated_at, updated_by
`

func scanSite(row interface{ Scan(...interface{}) error }) (*models.Site, error) {
	var site models.Site
	err := row.Scan(
		&site.SiteID, &site.CompanyID, &site.Name, &site.Location, &site.Status, &site.ServiceTags,
		&site.CreatedAt, &site.CreatedBy, &site.UpdatedAt, &site.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// CreateSite creates a new site for the company
func (dao *SiteDao) CreateSite(ctx context.Context, companyID int64, request *models.CreateSiteRequest, userID int64) (*models.Site, error) {
	location := sql.NullString{String: request.Location, Valid: request.Location != ""}

	status := request.Status
	if status == "" {
		status = "active"
	}

	query := `
		INSERT INTO inventory.sites (company_id, name, location, status, service_tags, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`

	var siteID int64
	err := dao.DB.QueryRowContext(ctx, query,
		companyID, request.Name, location, status, pq.Array(request.ServiceTags), userID,
	).Scan(&siteID)

	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"company_id": companyID,
			"name":       request.Name,
			"error":      err.Error(),
		}).Error("Failed to create site")
		return nil, fmt.Errorf("failed to create site: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"site_id":    siteID,
		"company_id": companyID,
		"name":       request.Name,
	}).Info("Successfully created site")

	return dao.GetSiteByID(ctx, siteID, companyID)
}

// GetSitesByCompany retrieves all sites for a company
func (dao *SiteDao) GetSitesByCompany(ctx context.Context, companyID int64) ([]models.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM inventory.sites WHERE company_id = $1 ORDER BY name`

	rows, err := dao.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sites: %w", err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sites: %w", err)
	}

	return sites, nil
}

// GetSiteByID retrieves a single site scoped to the company
func (dao *SiteDao) GetSiteByID(ctx context.Context, siteID, companyID int64) (*models.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM inventory.sites WHERE id = $1 AND company_id = $2`

	site, err := scanSite(dao.DB.QueryRowContext(ctx, query, siteID, companyID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("site not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

// UpdateSite updates site metadata
func (dao *SiteDao) UpdateSite(ctx context.Context, siteID, companyID int64, request *models.UpdateSiteRequest, userID int64) (*models.Site, error) {
	query := `
		UPDATE inventory.sites SET
			name = COALESCE(NULLIF($3, ''), name),
			location = COALESCE(NULLIF($4, ''), location),
			status = COALESCE(NULLIF($5, ''), status),
			service_tags = CASE WHEN $6::text[] IS NOT NULL THEN $6::text[] ELSE service_tags END,
			updated_at = NOW(),
			updated_by = $7
		WHERE id = $1 AND company_id = $2
	`

	var tags interface{}
	if request.ServiceTags != nil {
		tags = pq.Array(request.ServiceTags)
	}

	result, err := dao.DB.ExecContext(ctx, query,
		siteID, companyID, request.Name, request.Location, request.Status, tags, userID,
	)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"site_id": siteID,
			"error":   err.Error(),
		}).Error("Failed to update site")
		return nil, fmt.Errorf("failed to update site: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("site not found")
	}

	return dao.GetSiteByID(ctx, siteID, companyID)
}

// DeleteSite removes a site. Assets, waybills and transactions referencing
// the site keep their historical site id.
func (dao *SiteDao) DeleteSite(ctx context.Context, siteID, companyID int64, userID int64) error {
	result, err := dao.DB.ExecContext(ctx,
		`DELETE FROM inventory.sites WHERE id = $1 AND company_id = $2`,
		siteID, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("site not found")
	}

	dao.Logger.WithFields(logrus.Fields{
		"site_id": siteID,
		"user_id": userID,
	}).Info("Successfully deleted site")
	return nil
}

// CreateSiteTransaction appends a ledger entry for material moving in or out
// of a site
func (dao *SiteDao) CreateSiteTransaction(ctx context.Context, siteID int64, request *models.CreateSiteTransactionRequest, userID int64) (*models.SiteTransaction, error) {
	referenceID := sql.NullInt64{Int64: request.ReferenceID, Valid: request.ReferenceID != 0}
	notes := sql.NullString{String: request.Notes, Valid: request.Notes != ""}

	query := `
		INSERT INTO inventory.site_transactions (site_id, asset_name, type, quantity, reference_id, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, site_id, asset_name, type, quantity, reference_id, notes, created_at, created_by
	`

	var transaction models.SiteTransaction
	err := dao.DB.QueryRowContext(ctx, query,
		siteID, request.AssetName, request.Type, request.Quantity, referenceID, notes, userID,
	).Scan(
		&transaction.TransactionID, &transaction.SiteID, &transaction.AssetName, &transaction.Type,
		&transaction.Quantity, &transaction.ReferenceID, &transaction.Notes,
		&transaction.CreatedAt, &transaction.CreatedBy,
	)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"site_id": siteID,
			"error":   err.Error(),
		}).Error("Failed to create site transaction")
		return nil, fmt.Errorf("failed to create site transaction: %w", err)
	}

	return &transaction, nil
}

// GetSiteTransactions retrieves the ledger for a site, most recent first
func (dao *SiteDao) GetSiteTransactions(ctx context.Context, siteID int64) ([]models.SiteTransaction, error) {
	query := `
		SELECT id, site_id, asset_name, type, quantity, reference_id, notes, created_at, created_by
		FROM inventory.site_transactions
		WHERE site_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := dao.DB.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to get site transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.SiteTransaction
	for rows.Next() {
		var transaction models.SiteTransaction
		err := rows.Scan(
			&transaction.TransactionID, &transaction.SiteID, &transaction.AssetName, &transaction.Type,
			&transaction.Quantity, &transaction.ReferenceID, &transaction.Notes,
			&transaction.CreatedAt, &transaction.CreatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site transaction: %w", err)
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate site transactions: %w", err)
	}

	return transactions, nil
}

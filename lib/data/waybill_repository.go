package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"assetflow/lib/constants"
	"assetflow/lib/dates"
	"assetflow/lib/models"

	"github.com/sirupsen/logrus"
)

// WaybillRepository defines the interface for waybill data operations
type WaybillRepository interface {
	CreateWaybill(ctx context.Context, companyID int64, waybill *models.CreateWaybillRequest, userID int64) (*models.Waybill, error)
	GetWaybillsByCompany(ctx context.Context, companyID int64) ([]models.Waybill, error)
	GetWaybillByID(ctx context.Context, waybillID, companyID int64) (*models.Waybill, error)
	SendWaybillToSite(ctx context.Context, waybillID, companyID int64, userID int64) (*models.Waybill, error)
	ReturnWaybillItems(ctx context.Context, waybillID, companyID int64, request *models.ReturnWaybillItemsRequest, userID int64) (*models.Waybill, error)
	DeleteWaybill(ctx context.Context, waybillID, companyID int64, userID int64) error
}

// WaybillDao implements WaybillRepository interface using PostgreSQL
type WaybillDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewWaybillRepository creates a new WaybillRepository instance
func NewWaybillRepository(db *sql.DB) WaybillRepository {
	return &WaybillDao{
		DB:     db,
		Logger: logrus.New(),
	}
}

// generateWaybillNumber produces a WB-YYYY-NNNN document number, sequential
// per company and year
func (dao *WaybillDao) generateWaybillNumber(ctx context.Context, tx *sql.Tx, companyID int64) (string, error) {
	year := time.Now().Year()

	var count int64
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inventory.waybills WHERE company_id = $1 AND EXTRACT(YEAR FROM created_at) = $2`,
		companyID, year,
	).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to count waybills: %w", err)
	}

	return fmt.Sprintf("WB-%d-%04d", year, count+1), nil
}

// CreateWaybill creates a waybill and its items in one transaction. Issuing a
// non-draft waybill reserves the requested quantity on every referenced asset;
// the reservation is released only by returns or deletion.
func (dao *WaybillDao) CreateWaybill(ctx context.Context, companyID int64, request *models.CreateWaybillRequest, userID int64) (*models.Waybill, error) {
	issueDate, err := dates.Parse(request.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid issue date: %w", err)
	}

	expectedReturn := sql.NullTime{}
	if request.ExpectedReturnDate != "" {
		parsed, err := dates.Parse(request.ExpectedReturnDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expected return date: %w", err)
		}
		expectedReturn = sql.NullTime{Time: parsed, Valid: true}
	}

	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	waybillNumber, err := dao.generateWaybillNumber(ctx, tx, companyID)
	if err != nil {
		return nil, err
	}

	status := constants.WaybillStatusOutstanding
	if request.Draft {
		status = constants.WaybillStatusDraft
	}

	returnToSiteID := sql.NullInt64{Int64: request.ReturnToSiteID, Valid: request.ReturnToSiteID != 0}
	driver := sql.NullString{String: request.Driver, Valid: request.Driver != ""}
	vehicle := sql.NullString{String: request.Vehicle, Valid: request.Vehicle != ""}
	purpose := sql.NullString{String: request.Purpose, Valid: request.Purpose != ""}

	var waybillID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO inventory.waybills (
			company_id, waybill_number, type, site_id, return_to_site_id, status,
			driver, vehicle, purpose, issue_date, expected_return_date, created_by, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id
	`,
		companyID, waybillNumber, request.Type, request.SiteID, returnToSiteID, status,
		driver, vehicle, purpose, issueDate, expectedReturn, userID,
	).Scan(&waybillID)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"company_id": companyID,
			"error":      err.Error(),
		}).Error("Failed to create waybill")
		return nil, fmt.Errorf("failed to create waybill: %w", err)
	}

	for _, item := range request.Items {
		// The asset name is snapshotted onto the line so the waybill stays
		// readable even if the asset record is later renamed or deleted.
		var assetName string
		err = tx.QueryRowContext(ctx,
			`SELECT name FROM inventory.assets WHERE id = $1 AND company_id = $2`,
			item.AssetID, companyID,
		).Scan(&assetName)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("asset %d not found", item.AssetID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up asset %d: %w", item.AssetID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory.waybill_items (waybill_id, asset_id, asset_name, quantity, status)
			VALUES ($1, $2, $3, $4, 'issued')
		`, waybillID, item.AssetID, assetName, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to create waybill item: %w", err)
		}

		if !request.Draft {
			result, err := tx.ExecContext(ctx, `
				UPDATE inventory.assets SET
					reserved_quantity = reserved_quantity + $3,
					available_quantity = quantity - (reserved_quantity + $3) - damaged_count - missing_count,
					updated_at = NOW(),
					updated_by = $4
				WHERE id = $1 AND company_id = $2
				  AND quantity - (reserved_quantity + $3) - damaged_count - missing_count >= 0
			`, item.AssetID, companyID, item.Quantity, userID)
			if err != nil {
				return nil, fmt.Errorf("failed to reserve asset %d: %w", item.AssetID, err)
			}
			rowsAffected, _ := result.RowsAffected()
			if rowsAffected == 0 {
				return nil, fmt.Errorf("insufficient available quantity for asset %d", item.AssetID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit waybill creation: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"waybill_id":     waybillID,
		"waybill_number": waybillNumber,
		"company_id":     companyID,
	}).Info("Successfully created waybill")

	return dao.GetWaybillByID(ctx, waybillID, companyID)
}

const waybillColumns = `
	id, company_id, waybill_number, type, site_id, return_to_site_id, status,
	driver, vehicle, purpose, issue_date, expected_return_date, sent_to_site_date,
	created_at, created_by, updated_at, updated_by
`

func scanWaybill(row interface{ Scan(...interface{}) error }) (*models.Waybill, error) {
	var waybill models.Waybill
	err := row.Scan(
		&waybill.WaybillID, &waybill.CompanyID, &waybill.WaybillNumber, &waybill.Type,
		&waybill.SiteID, &waybill.ReturnToSiteID, &waybill.Status,
		&waybill.Driver, &waybill.Vehicle, &waybill.Purpose,
		&waybill.IssueDate, &waybill.ExpectedReturnDate, &waybill.SentToSiteDate,
		&waybill.CreatedAt, &waybill.CreatedBy, &waybill.UpdatedAt, &waybill.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &waybill, nil
}

// GetWaybillsByCompany retrieves all waybills with their items, most recent
// first. Callers hand this full materialized list to the site inventory
// aggregator.
func (dao *WaybillDao) GetWaybillsByCompany(ctx context.Context, companyID int64) ([]models.Waybill, error) {
	rows, err := dao.DB.QueryContext(ctx,
		`SELECT `+waybillColumns+` FROM inventory.waybills WHERE company_id = $1 ORDER BY issue_date DESC, id DESC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get waybills: %w", err)
	}
	defer rows.Close()

	var waybills []models.Waybill
	byID := make(map[int64]int)
	for rows.Next() {
		waybill, err := scanWaybill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan waybill: %w", err)
		}
		byID[waybill.WaybillID] = len(waybills)
		waybills = append(waybills, *waybill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate waybills: %w", err)
	}

	itemRows, err := dao.DB.QueryContext(ctx, `
		SELECT i.id, i.waybill_id, i.asset_id, i.asset_name, i.quantity, i.returned_quantity, i.status
		FROM inventory.waybill_items i
		JOIN inventory.waybills w ON w.id = i.waybill_id
		WHERE w.company_id = $1
		ORDER BY i.id
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get waybill items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.WaybillItem
		err := itemRows.Scan(
			&item.ItemID, &item.WaybillID, &item.AssetID, &item.AssetName,
			&item.Quantity, &item.ReturnedQuantity, &item.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan waybill item: %w", err)
		}
		if idx, ok := byID[item.WaybillID]; ok {
			waybills[idx].Items = append(waybills[idx].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate waybill items: %w", err)
	}

	return waybills, nil
}

// GetWaybillByID retrieves a single waybill with its items
func (dao *WaybillDao) GetWaybillByID(ctx context.Context, waybillID, companyID int64) (*models.Waybill, error) {
	waybill, err := scanWaybill(dao.DB.QueryRowContext(ctx,
		`SELECT `+waybillColumns+` FROM inventory.waybills WHERE id = $1 AND company_id = $2`,
		waybillID, companyID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("waybill not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waybill: %w", err)
	}

	rows, err := dao.DB.QueryContext(ctx, `
		SELECT id, waybill_id, asset_id, asset_name, quantity, returned_quantity, status
		FROM inventory.waybill_items WHERE waybill_id = $1 ORDER BY id
	`, waybillID)
	if err != nil {
		return nil, fmt.Errorf("failed to get waybill items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.WaybillItem
		err := rows.Scan(
			&item.ItemID, &item.WaybillID, &item.AssetID, &item.AssetName,
			&item.Quantity, &item.ReturnedQuantity, &item.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan waybill item: %w", err)
		}
		waybill.Items = append(waybill.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate waybill items: %w", err)
	}

	return waybill, nil
}

// SendWaybillToSite marks the goods as delivered and appends an "in" ledger
// entry per item at the destination site
func (dao *WaybillDao) SendWaybillToSite(ctx context.Context, waybillID, companyID int64, userID int64) (*models.Waybill, error) {
	waybill, err := dao.GetWaybillByID(ctx, waybillID, companyID)
	if err != nil {
		return nil, err
	}
	if waybill.Status == constants.WaybillStatusDraft {
		return nil, fmt.Errorf("draft waybill cannot be sent")
	}
	if waybill.SentToSiteDate.Valid {
		return nil, fmt.Errorf("waybill already sent to site")
	}

	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	waybill.SentToSiteDate = sql.NullTime{Time: time.Now(), Valid: true}
	_, err = tx.ExecContext(ctx, `
		UPDATE inventory.waybills SET
			sent_to_site_date = $3, status = $4, updated_at = NOW(), updated_by = $5
		WHERE id = $1 AND company_id = $2
	`, waybillID, companyID, waybill.SentToSiteDate.Time, waybill.DeriveStatus(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark waybill sent: %w", err)
	}

	for _, item := range waybill.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory.site_transactions (site_id, asset_name, type, quantity, reference_id, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, waybill.SiteID, item.AssetName, constants.SiteTransactionIn, item.Quantity, waybillID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to record site transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit send to site: %w", err)
	}

	return dao.GetWaybillByID(ctx, waybillID, companyID)
}

// ReturnWaybillItems records returned quantities against an issued waybill's
// items, releases the matching reservations and appends the ledger entries.
// The waybill status is re-derived from the updated item set.
func (dao *WaybillDao) ReturnWaybillItems(ctx context.Context, waybillID, companyID int64, request *models.ReturnWaybillItemsRequest, userID int64) (*models.Waybill, error) {
	waybill, err := dao.GetWaybillByID(ctx, waybillID, companyID)
	if err != nil {
		return nil, err
	}
	if waybill.Status == constants.WaybillStatusDraft {
		return nil, fmt.Errorf("draft waybill has nothing to return")
	}

	itemsByID := make(map[int64]models.WaybillItem, len(waybill.Items))
	for _, item := range waybill.Items {
		itemsByID[item.ItemID] = item
	}

	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	returnToSiteID := sql.NullInt64{Int64: request.ReturnToSiteID, Valid: request.ReturnToSiteID != 0}

	for _, returned := range request.Items {
		item, ok := itemsByID[returned.ItemID]
		if !ok {
			return nil, fmt.Errorf("waybill item %d not found", returned.ItemID)
		}
		if item.ReturnedQuantity+returned.Quantity > item.Quantity {
			return nil, fmt.Errorf("return of %d exceeds outstanding quantity on item %d", returned.Quantity, returned.ItemID)
		}

		newReturned := item.ReturnedQuantity + returned.Quantity
		itemStatus := "issued"
		if newReturned == item.Quantity {
			itemStatus = "returned"
		} else if newReturned > 0 {
			itemStatus = "partial"
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE inventory.waybill_items SET returned_quantity = $2, status = $3 WHERE id = $1
		`, returned.ItemID, newReturned, itemStatus)
		if err != nil {
			return nil, fmt.Errorf("failed to update waybill item %d: %w", returned.ItemID, err)
		}

		// Returned goods free up the reservation on the source asset
		_, err = tx.ExecContext(ctx, `
			UPDATE inventory.assets SET
				reserved_quantity = GREATEST(reserved_quantity - $3, 0),
				available_quantity = quantity - GREATEST(reserved_quantity - $3, 0) - damaged_count - missing_count,
				updated_at = NOW(),
				updated_by = $4
			WHERE id = $1 AND company_id = $2
		`, item.AssetID, companyID, returned.Quantity, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to release reservation for asset %d: %w", item.AssetID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory.site_transactions (site_id, asset_name, type, quantity, reference_id, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, waybill.SiteID, item.AssetName, constants.SiteTransactionOut, returned.Quantity, waybillID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to record return transaction: %w", err)
		}

		// A return to a different site lands the goods there instead of the office
		if returnToSiteID.Valid {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO inventory.site_transactions (site_id, asset_name, type, quantity, reference_id, created_by)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, returnToSiteID.Int64, item.AssetName, constants.SiteTransactionIn, returned.Quantity, waybillID, userID)
			if err != nil {
				return nil, fmt.Errorf("failed to record destination transaction: %w", err)
			}
		}

		item.ReturnedQuantity = newReturned
		itemsByID[returned.ItemID] = item
	}

	updated := *waybill
	updated.Items = updated.Items[:0]
	for _, item := range waybill.Items {
		updated.Items = append(updated.Items, itemsByID[item.ItemID])
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE inventory.waybills SET
			return_to_site_id = COALESCE($3, return_to_site_id),
			status = $4, updated_at = NOW(), updated_by = $5
		WHERE id = $1 AND company_id = $2
	`, waybillID, companyID, returnToSiteID, updated.DeriveStatus(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update waybill status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit waybill return: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"waybill_id": waybillID,
		"company_id": companyID,
		"user_id":    userID,
	}).Info("Successfully recorded waybill return")

	return dao.GetWaybillByID(ctx, waybillID, companyID)
}

// DeleteWaybill removes a waybill after reversing any outstanding
// reservations it still holds. A waybill is never deleted while it is the
// sole record of a live reservation.
func (dao *WaybillDao) DeleteWaybill(ctx context.Context, waybillID, companyID int64, userID int64) error {
	waybill, err := dao.GetWaybillByID(ctx, waybillID, companyID)
	if err != nil {
		return err
	}

	tx, err := dao.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if waybill.Status != constants.WaybillStatusDraft {
		for _, item := range waybill.Items {
			outstanding := item.Quantity - item.ReturnedQuantity
			if outstanding <= 0 {
				continue
			}
			_, err = tx.ExecContext(ctx, `
				UPDATE inventory.assets SET
					reserved_quantity = GREATEST(reserved_quantity - $3, 0),
					available_quantity = quantity - GREATEST(reserved_quantity - $3, 0) - damaged_count - missing_count,
					updated_at = NOW(),
					updated_by = $4
				WHERE id = $1 AND company_id = $2
			`, item.AssetID, companyID, outstanding, userID)
			if err != nil {
				return fmt.Errorf("failed to reverse reservation for asset %d: %w", item.AssetID, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM inventory.waybill_items WHERE waybill_id = $1`, waybillID)
	if err != nil {
		return fmt.Errorf("failed to delete waybill items: %w", err)
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM inventory.waybills WHERE id = $1 AND company_id = $2`, waybillID, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete waybill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit waybill deletion: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"waybill_id": waybillID,
		"user_id":    userID,
	}).Info("Successfully deleted waybill")
	return nil
}

// Package data provides the data access layer for the asset management
// system. It contains repository interfaces and their PostgreSQL
// implementations for inventory, fleet and IAM data.
//
// All repositories follow the interface pattern for better testability and
// dependency injection throughout the application.
package data

import (
	"context"
	"database/sql"
	"fmt"

	"assetflow/lib/models"

	"github.com/sirupsen/logrus"
)

// UserRepository defines the interface for user profile data operations.
// Credentials live in Cognito; this repository owns the profile rows only.
type UserRepository interface {
	CreateUser(ctx context.Context, companyID int64, cognitoID string, user *models.CreateUserRequest, createdBy int64) (*models.User, error)
	GetUsersByCompany(ctx context.Context, companyID int64) ([]models.User, error)
	GetUserByID(ctx context.Context, userID, companyID int64) (*models.User, error)
	GetUserByCognitoID(ctx context.Context, cognitoID string) (*models.User, error)
	UpdateUser(ctx context.Context, userID, companyID int64, user *models.UpdateUserRequest, updatedBy int64) (*models.User, error)
	DeleteUser(ctx context.Context, userID, companyID int64) error
}

// UserDao implements UserRepository interface using PostgreSQL
type UserDao struct {
	DB     *sql.DB
	Logger *logrus.Logger
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *sql.DB) UserRepository {
	return &UserDao{
		DB:     db,
		Logger: logrus.New(),
	}
}

const userColumns = `
	id, company_id, cognito_id, email, first_name, last_name, phone, role, status,
	created_at, created_by, updated_at, updated_by
`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.UserID, &user.CompanyID, &user.CognitoID, &user.Email,
		&user.FirstName, &user.LastName, &user.Phone, &user.Role, &user.Status,
		&user.CreatedAt, &user.CreatedBy, &user.UpdatedAt, &user.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser stores the profile row for a user already provisioned in Cognito
func (dao *UserDao) CreateUser(ctx context.Context, companyID int64, cognitoID string, request *models.CreateUserRequest, createdBy int64) (*models.User, error) {
	phone := sql.NullString{String: request.Phone, Valid: request.Phone != ""}

	query := `
		INSERT INTO iam.users (company_id, cognito_id, email, first_name, last_name, phone, role, status, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'active', $8, $8)
		RETURNING id
	`

	var userID int64
	err := dao.DB.QueryRowContext(ctx, query,
		companyID, cognitoID, request.Email, request.FirstName, request.LastName,
		phone, request.Role, createdBy,
	).Scan(&userID)

	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"company_id": companyID,
			"email":      request.Email,
			"error":      err.Error(),
		}).Error("Failed to create user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	dao.Logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"company_id": companyID,
		"email":      request.Email,
	}).Info("Successfully created user")

	return dao.GetUserByID(ctx, userID, companyID)
}

// GetUsersByCompany retrieves all users for a company
func (dao *UserDao) GetUsersByCompany(ctx context.Context, companyID int64) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM iam.users WHERE company_id = $1 ORDER BY last_name, first_name`

	rows, err := dao.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// GetUserByID retrieves a single user scoped to the company
func (dao *UserDao) GetUserByID(ctx context.Context, userID, companyID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM iam.users WHERE id = $1 AND company_id = $2`

	user, err := scanUser(dao.DB.QueryRowContext(ctx, query, userID, companyID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByCognitoID resolves the profile row for an authenticated principal
func (dao *UserDao) GetUserByCognitoID(ctx context.Context, cognitoID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM iam.users WHERE cognito_id = $1`

	user, err := scanUser(dao.DB.QueryRowContext(ctx, query, cognitoID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUser updates profile fields and role
func (dao *UserDao) UpdateUser(ctx context.Context, userID, companyID int64, request *models.UpdateUserRequest, updatedBy int64) (*models.User, error) {
	query := `
		UPDATE iam.users SET
			first_name = COALESCE(NULLIF($3, ''), first_name),
			last_name = COALESCE(NULLIF($4, ''), last_name),
			phone = COALESCE(NULLIF($5, ''), phone),
			role = COALESCE(NULLIF($6, ''), role),
			status = COALESCE(NULLIF($7, ''), status),
			updated_at = NOW(),
			updated_by = $8
		WHERE id = $1 AND company_id = $2
	`

	result, err := dao.DB.ExecContext(ctx, query,
		userID, companyID, request.FirstName, request.LastName, request.Phone,
		request.Role, request.Status, updatedBy,
	)
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("Failed to update user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, fmt.Errorf("user not found")
	}

	return dao.GetUserByID(ctx, userID, companyID)
}

// DeleteUser removes the profile row. The caller disables or deletes the
// Cognito account separately.
func (dao *UserDao) DeleteUser(ctx context.Context, userID, companyID int64) error {
	result, err := dao.DB.ExecContext(ctx,
		`DELETE FROM iam.users WHERE id = $1 AND company_id = $2`,
		userID, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	dao.Logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"company_id": companyID,
	}).Info("Successfully deleted user")
	return nil
}

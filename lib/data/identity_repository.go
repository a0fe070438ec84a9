package data

import (
	"context"
	"database/sql"
	"fmt"

	"assetflow/lib/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
)

// IdentityRepository combines Cognito account provisioning with the profile
// rows in iam.users. Invitations create the Cognito account first; if the
// profile insert then fails the Cognito account is rolled back so the two
// stores never diverge.
type IdentityRepository interface {
	InviteUser(ctx context.Context, companyID int64, request *models.CreateUserRequest, createdBy int64) (*models.User, error)
	DisableUser(ctx context.Context, userID, companyID int64, updatedBy int64) (*models.User, error)
	SendPasswordResetEmail(ctx context.Context, userID, companyID int64) error
}

// CognitoClientInterface is the subset of the Cognito identity provider API
// used by the identity repository
type CognitoClientInterface interface {
	AdminCreateUser(ctx context.Context, params *cognitoidentityprovider.AdminCreateUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminCreateUserOutput, error)
	AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error)
	AdminDisableUser(ctx context.Context, params *cognitoidentityprovider.AdminDisableUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDisableUserOutput, error)
	AdminResetUserPassword(ctx context.Context, params *cognitoidentityprovider.AdminResetUserPasswordInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminResetUserPasswordOutput, error)
}

// IdentityDao implements IdentityRepository against Cognito and PostgreSQL
type IdentityDao struct {
	DB            *sql.DB
	Logger        *logrus.Logger
	CognitoClient CognitoClientInterface
	UserPoolID    string
	Users         UserRepository
}

// InviteUser provisions a Cognito account with a generated temporary password
// (Cognito emails the invitation) and stores the profile row
func (dao *IdentityDao) InviteUser(ctx context.Context, companyID int64, request *models.CreateUserRequest, createdBy int64) (*models.User, error) {
	output, err := dao.CognitoClient.AdminCreateUser(ctx, &cognitoidentityprovider.AdminCreateUserInput{
		UserPoolId: aws.String(dao.UserPoolID),
		Username:   aws.String(request.Email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(request.Email)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
			{Name: aws.String("given_name"), Value: aws.String(request.FirstName)},
			{Name: aws.String("family_name"), Value: aws.String(request.LastName)},
		},
		DesiredDeliveryMediums: []types.DeliveryMediumType{types.DeliveryMediumTypeEmail},
	})
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"email":     request.Email,
			"error":     err.Error(),
			"operation": "InviteUser",
		}).Error("Failed to create Cognito user")
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	var cognitoID string
	for _, attribute := range output.User.Attributes {
		if aws.ToString(attribute.Name) == "sub" {
			cognitoID = aws.ToString(attribute.Value)
			break
		}
	}
	if cognitoID == "" {
		return nil, fmt.Errorf("cognito user created without sub attribute")
	}

	user, err := dao.Users.CreateUser(ctx, companyID, cognitoID, request, createdBy)
	if err != nil {
		// Roll back the identity so a retry of the invite is clean
		if _, deleteErr := dao.CognitoClient.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
			UserPoolId: aws.String(dao.UserPoolID),
			Username:   aws.String(request.Email),
		}); deleteErr != nil {
			dao.Logger.WithFields(logrus.Fields{
				"email":     request.Email,
				"error":     deleteErr.Error(),
				"operation": "InviteUser",
			}).Error("Failed to roll back Cognito user after profile insert failure")
		}
		return nil, err
	}

	dao.Logger.WithFields(logrus.Fields{
		"user_id":    user.UserID,
		"cognito_id": cognitoID,
		"operation":  "InviteUser",
	}).Info("Successfully invited user")

	return user, nil
}

// DisableUser disables the Cognito account and marks the profile disabled
func (dao *IdentityDao) DisableUser(ctx context.Context, userID, companyID int64, updatedBy int64) (*models.User, error) {
	user, err := dao.Users.GetUserByID(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}

	_, err = dao.CognitoClient.AdminDisableUser(ctx, &cognitoidentityprovider.AdminDisableUserInput{
		UserPoolId: aws.String(dao.UserPoolID),
		Username:   aws.String(user.Email),
	})
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"error":     err.Error(),
			"operation": "DisableUser",
		}).Error("Failed to disable Cognito user")
		return nil, fmt.Errorf("failed to disable identity: %w", err)
	}

	return dao.Users.UpdateUser(ctx, userID, companyID, &models.UpdateUserRequest{Status: "disabled"}, updatedBy)
}

// SendPasswordResetEmail triggers a Cognito password reset for the user
func (dao *IdentityDao) SendPasswordResetEmail(ctx context.Context, userID, companyID int64) error {
	user, err := dao.Users.GetUserByID(ctx, userID, companyID)
	if err != nil {
		return err
	}

	_, err = dao.CognitoClient.AdminResetUserPassword(ctx, &cognitoidentityprovider.AdminResetUserPasswordInput{
		UserPoolId: aws.String(dao.UserPoolID),
		Username:   aws.String(user.Email),
	})
	if err != nil {
		dao.Logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"error":     err.Error(),
			"operation": "SendPasswordResetEmail",
		}).Error("Failed to trigger password reset")
		return fmt.Errorf("failed to send password reset: %w", err)
	}
	return nil
}

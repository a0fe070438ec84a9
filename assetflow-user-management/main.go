package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"assetflow/lib/api"
	"assetflow/lib/auth"
	"assetflow/lib/clients"
	"assetflow/lib/config"
	"assetflow/lib/constants"
	"assetflow/lib/data"
	"assetflow/lib/models"
	"assetflow/lib/util"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/sirupsen/logrus"
)

// Global variables for Lambda cold start optimization
var (
	logger             *logrus.Logger
	isLocal            bool
	ssmRepository      data.SSMRepository
	ssmParams          map[string]string
	sqlDB              *sql.DB
	userRepository     data.UserRepository
	identityRepository data.IdentityRepository
	cognitoClient      *cognitoidentityprovider.Client
	userPoolID         string
)

func LambdaHandler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"operation": "LambdaHandler",
		"method":    request.HTTPMethod,
		"path":      request.Path,
		"resource":  request.Resource,
	}).Info("User management request received")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithError(err).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	// Only admins manage users; anyone can read their own profile
	if request.Resource != "/users/me" && !claims.IsAdmin {
		logger.WithField("user_id", claims.UserID).Warn("User is not an admin")
		return api.ErrorResponse(http.StatusForbidden, "Forbidden: Only admins can manage users", logger), nil
	}

	switch {
	case request.Resource == "/users" && request.HTTPMethod == "POST":
		return handleInviteUser(ctx, request, claims), nil
	case request.Resource == "/users" && request.HTTPMethod == "GET":
		return handleGetUsers(ctx, request, claims), nil
	case request.Resource == "/users/me" && request.HTTPMethod == "GET":
		return handleGetOwnProfile(ctx, request, claims), nil
	case request.Resource == "/users/{userId}" && request.HTTPMethod == "GET":
		return handleGetUser(ctx, request, claims), nil
	case request.Resource == "/users/{userId}" && request.HTTPMethod == "PUT":
		return handleUpdateUser(ctx, request, claims), nil
	case request.Resource == "/users/{userId}/disable" && request.HTTPMethod == "PATCH":
		return handleDisableUser(ctx, request, claims), nil
	case request.Resource == "/users/{userId}/reset-password" && request.HTTPMethod == "PATCH":
		return handlePasswordReset(ctx, request, claims), nil
	default:
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

// handleInviteUser handles POST /users
func handleInviteUser(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) events.APIGatewayProxyResponse {
	var createRequest models.CreateUserRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for invite user")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger)
	}

	user, err := identityRepository.InviteUser(ctx, claims.CompanyID, &createRequest, claims.UserID)
	if err != nil {
		logger.WithError(err).Error("Failed to invite user")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to invite user", logger)
	}

	return api.SuccessResponse(http.StatusCreated, user, logger)
}

// handleGetUsers handles GET /users
func handleGetUsers(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) events.APIGatewayProxyResponse {
	users, err := userRepository.GetUsersByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get users")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get users", logger)
	}

	response := models.UserListResponse{
		Users: users,
		Total: len(users),
	}

	return api.SuccessResponse(http.StatusOK, response, logger)
}

// handleGetOwnProfile handles GET /users/me
func handleGetOwnProfile(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) events.APIGatewayProxyResponse {
	user, err := userRepository.GetUserByCognitoID(ctx, claims.CognitoID)
	if err != nil {
		logger.WithError(err).Error("Failed to get own profile")
		return api.ErrorResponse(http.StatusNotFound, "User not found", logger)
	}

	return api.SuccessResponse(http.StatusOK, user, logger)
}

// handleGetUser handles GET /users/{userId}
func handleGetUser(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) events.APIGatewayProxyResponse {
	userID, err := strconv.ParseInt(request.PathParameters["userId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid user ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid user ID", logger)
	}

	user, err := userRepository.GetUserByID(ctx, userID, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get user")
		return api.ErrorResponse(http.StatusNotFound, "User not found", logger)
	}

	return api.SuccessResponse(http.StatusOK, user, logger)
}

// handleUpdateUser handles PUT /users/{userId}
func handleUpdateUser(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) events.APIGatewayProxyResponse {
	userID, err := strconv.ParseInt(request.PathParameters["userId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid user ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid user ID", logger)
	}

	var updateRequest models.UpdateUserRequest
	if err := api.ParseJSONBody(request.Body, &updateRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for update user")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger)
	}

	user, err := userRepository.UpdateUser(ctx, userID, claims.CompanyID, &updateRequest, claims.UserID)
	if err != nil {
		if err.Error() == "user not found" {
			return api.ErrorResponse(http.StatusNotFound, "User not found", logger)
		}
		logger.WithError(err).Error("Failed to update user")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update user", logger)
	}

	return api.SuccessResponse(http.StatusOK, user, logger)
}

// handleDisableUser handles PATCH /users/{userId}/disable
func handleDisableUser(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) events.APIGatewayProxyResponse {
	userID, err := strconv.ParseInt(request.PathParameters["userId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid user ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid user ID", logger)
	}

	if userID == claims.UserID {
		return api.ErrorResponse(http.StatusConflict, "Cannot disable your own account", logger)
	}

	user, err := identityRepository.DisableUser(ctx, userID, claims.CompanyID, claims.UserID)
	if err != nil {
		if err.Error() == "user not found" {
			return api.ErrorResponse(http.StatusNotFound, "User not found", logger)
		}
		logger.WithError(err).Error("Failed to disable user")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to disable user", logger)
	}

	return api.SuccessResponse(http.StatusOK, user, logger)
}

// handlePasswordReset handles PATCH /users/{userId}/reset-password
func handlePasswordReset(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) events.APIGatewayProxyResponse {
	userID, err := strconv.ParseInt(request.PathParameters["userId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid user ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid user ID", logger)
	}

	err = identityRepository.SendPasswordResetEmail(ctx, userID, claims.CompanyID)
	if err != nil {
		if err.Error() == "user not found" {
			return api.ErrorResponse(http.StatusNotFound, "User not found", logger)
		}
		logger.WithError(err).Error("Failed to send password reset email")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to send password reset email", logger)
	}

	return api.SuccessResponse(http.StatusOK, map[string]string{"message": "Password reset email sent successfully"}, logger)
}

func main() {
	lambda.Start(LambdaHandler)
}

func init() {
	var err error

	config.LoadDotEnv()
	isLocal = parseIsLocal()

	logger = setupLogger(isLocal)

	ssmClient := clients.NewSSMClient(isLocal)
	ssmRepository = &data.SSMDao{
		SSM:    ssmClient,
		Logger: logger,
	}

	ssmParams, err = ssmRepository.GetParameters()
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error while getting SSM params from parameter store")
	}

	err = setupPostgresSQLClient(ssmParams)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"operation": "init",
			"error":     err.Error(),
		}).Fatal("Error setting up PostgreSQL client")
	}

	cognitoClient = clients.NewCognitoClient(isLocal)

	userPoolID = ssmParams[constants.COGNITO_USER_POOL_ID]
	if userPoolID == "" {
		logger.Fatal("COGNITO_USER_POOL_ID not found in SSM parameters")
	}

	userRepository = data.NewUserRepository(sqlDB)
	identityRepository = &data.IdentityDao{
		DB:            sqlDB,
		Logger:        logger,
		CognitoClient: cognitoClient,
		UserPoolID:    userPoolID,
		Users:         userRepository,
	}

	logger.WithField("operation", "init").Info("User Management Lambda initialization completed successfully")
}

func parseIsLocal() bool {
	isLocal, _ := strconv.ParseBool(os.Getenv("IS_LOCAL"))
	return isLocal
}

func setupLogger(isLocal bool) *logrus.Logger {
	logger := logrus.New()
	util.SetLogLevel(logger, os.Getenv("LOG_LEVEL"))
	logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: isLocal})
	return logger
}

func setupPostgresSQLClient(ssmParams map[string]string) error {
	var err error

	sqlDB, err = clients.NewPostgresSQLClient(
		ssmParams[constants.DATABASE_RDS_ENDPOINT],
		ssmParams[constants.DATABASE_PORT],
		ssmParams[constants.DATABASE_NAME],
		ssmParams[constants.DATABASE_USERNAME],
		ssmParams[constants.DATABASE_PASSWORD],
		ssmParams[constants.SSL_MODE],
	)
	if err != nil {
		return fmt.Errorf("error creating PostgreSQL client: %w", err)
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		logger.WithField("operation", "setupPostgresSQLClient").Debug("PostgreSQL client initialized successfully")
	}
	return nil
}

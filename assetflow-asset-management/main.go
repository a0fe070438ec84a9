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

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var (
	logger          *logrus.Logger
	isLocal         bool
	ssmRepository   data.SSMRepository
	ssmParams       map[string]string
	sqlDB           *sql.DB
	assetRepository data.AssetRepository
)

// Handler processes API Gateway requests for asset management operations
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"method":      request.HTTPMethod,
		"path":        request.Path,
		"resource":    request.Resource,
		"path_params": request.PathParameters,
		"operation":   "Handler",
	}).Debug("Processing asset management request")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":     err.Error(),
			"operation": "Handler",
		}).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch {
	case request.Resource == "/assets" && request.HTTPMethod == "POST":
		return handleCreateAsset(ctx, request, claims)
	case request.Resource == "/assets" && request.HTTPMethod == "GET":
		return handleGetAssets(ctx, request, claims)
	case request.Resource == "/assets/{assetId}" && request.HTTPMethod == "GET":
		return handleGetAsset(ctx, request, claims)
	case request.Resource == "/assets/{assetId}" && request.HTTPMethod == "PUT":
		return handleUpdateAsset(ctx, request, claims)
	case request.Resource == "/assets/{assetId}" && request.HTTPMethod == "DELETE":
		return handleDeleteAsset(ctx, request, claims)
	case request.Resource == "/assets/{assetId}/restock" && request.HTTPMethod == "POST":
		return handleRestockAsset(ctx, request, claims)
	case request.Resource == "/assets/{assetId}/adjust" && request.HTTPMethod == "POST":
		return handleAdjustAssetCounts(ctx, request, claims)

	default:
		logger.WithFields(logrus.Fields{
			"method":    request.HTTPMethod,
			"resource":  request.Resource,
			"operation": "Handler",
		}).Warn("Endpoint not found")
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

func parseAssetID(request events.APIGatewayProxyRequest) (int64, error) {
	return strconv.ParseInt(request.PathParameters["assetId"], 10, 64)
}

// handleCreateAsset handles POST /assets
func handleCreateAsset(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateAssetRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for create asset")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	asset, err := assetRepository.CreateAsset(ctx, claims.CompanyID, &createRequest, claims.UserID)
	if err != nil {
		logger.WithError(err).Error("Failed to create asset")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create asset", logger), nil
	}

	return api.SuccessResponse(http.StatusCreated, asset, logger), nil
}

// handleGetAssets handles GET /assets
func handleGetAssets(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	assets, err := assetRepository.GetAssetsByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get assets")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get assets", logger), nil
	}

	response := models.AssetListResponse{
		Assets: assets,
		Total:  len(assets),
	}

	return api.SuccessResponse(http.StatusOK, response, logger), nil
}

// handleGetAsset handles GET /assets/{assetId}
func handleGetAsset(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	assetID, err := parseAssetID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid asset ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid asset ID", logger), nil
	}

	asset, err := assetRepository.GetAssetByID(ctx, assetID, claims.CompanyID)
	if err != nil {
		if err.Error() == "asset not found" {
			return api.ErrorResponse(http.StatusNotFound, "Asset not found", logger), nil
		}
		logger.WithError(err).Error("Failed to get asset")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get asset", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, asset, logger), nil
}

// handleUpdateAsset handles PUT /assets/{assetId}
func handleUpdateAsset(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	assetID, err := parseAssetID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid asset ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid asset ID", logger), nil
	}

	var updateRequest models.UpdateAssetRequest
	if err := api.ParseJSONBody(request.Body, &updateRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for update asset")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	asset, err := assetRepository.UpdateAsset(ctx, assetID, claims.CompanyID, &updateRequest, claims.UserID)
	if err != nil {
		if err.Error() == "asset not found" {
			return api.ErrorResponse(http.StatusNotFound, "Asset not found", logger), nil
		}
		logger.WithError(err).Error("Failed to update asset")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update asset", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, asset, logger), nil
}

// handleDeleteAsset handles DELETE /assets/{assetId}
func handleDeleteAsset(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	assetID, err := parseAssetID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid asset ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid asset ID", logger), nil
	}

	err = assetRepository.DeleteAsset(ctx, assetID, claims.CompanyID, claims.UserID)
	if err != nil {
		if err.Error() == "asset not found" {
			return api.ErrorResponse(http.StatusNotFound, "Asset not found", logger), nil
		}
		if err.Error() == "asset has outstanding waybill reservations" {
			return api.ErrorResponse(http.StatusConflict, "Asset has outstanding waybill reservations", logger), nil
		}
		logger.WithError(err).Error("Failed to delete asset")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to delete asset", logger), nil
	}

	return api.SuccessResponse(http.StatusNoContent, nil, logger), nil
}

// handleRestockAsset handles POST /assets/{assetId}/restock
func handleRestockAsset(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	assetID, err := parseAssetID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid asset ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid asset ID", logger), nil
	}

	var restockRequest models.RestockAssetRequest
	if err := api.ParseJSONBody(request.Body, &restockRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for restock asset")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	asset, err := assetRepository.RestockAsset(ctx, assetID, claims.CompanyID, &restockRequest, claims.UserID)
	if err != nil {
		if err.Error() == "asset not found" {
			return api.ErrorResponse(http.StatusNotFound, "Asset not found", logger), nil
		}
		logger.WithError(err).Error("Failed to restock asset")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to restock asset", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, asset, logger), nil
}

// handleAdjustAssetCounts handles POST /assets/{assetId}/adjust
func handleAdjustAssetCounts(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	assetID, err := parseAssetID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid asset ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid asset ID", logger), nil
	}

	var adjustRequest models.AdjustAssetCountsRequest
	if err := api.ParseJSONBody(request.Body, &adjustRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for adjust asset counts")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	asset, err := assetRepository.AdjustAssetCounts(ctx, assetID, claims.CompanyID, &adjustRequest, claims.UserID)
	if err != nil {
		if err.Error() == "asset not found" {
			return api.ErrorResponse(http.StatusNotFound, "Asset not found", logger), nil
		}
		logger.WithError(err).Error("Failed to adjust asset counts")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to adjust asset counts", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, asset, logger), nil
}

// setupPostgresSQLClient initializes the PostgreSQL database connection
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

// main is the Lambda function entry point
func main() {
	lambda.Start(Handler)
}

// init initializes the Lambda function during cold start
func init() {
	var err error

	config.LoadDotEnv()
	isLocal, _ = strconv.ParseBool(os.Getenv("IS_LOCAL"))

	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if os.Getenv("LOG_LEVEL") == "DEBUG" {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.ErrorLevel)
	}

	logger.WithField("operation", "init").Error("Initializing Asset Management Lambda")

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

	assetRepository = data.NewAssetRepository(sqlDB)

	logger.WithField("operation", "init").Error("Asset Management Lambda initialization completed successfully")
}

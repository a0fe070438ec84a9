package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

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
	logger            *logrus.Logger
	isLocal           bool
	ssmRepository     data.SSMRepository
	ssmParams         map[string]string
	sqlDB             *sql.DB
	waybillRepository data.WaybillRepository
)

// Handler processes API Gateway requests for waybill management operations
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"method":      request.HTTPMethod,
		"path":        request.Path,
		"resource":    request.Resource,
		"path_params": request.PathParameters,
		"operation":   "Handler",
	}).Debug("Processing waybill management request")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":     err.Error(),
			"operation": "Handler",
		}).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch {
	case request.Resource == "/waybills" && request.HTTPMethod == "POST":
		return handleCreateWaybill(ctx, request, claims)
	case request.Resource == "/waybills" && request.HTTPMethod == "GET":
		return handleGetWaybills(ctx, request, claims)
	case request.Resource == "/waybills/{waybillId}" && request.HTTPMethod == "GET":
		return handleGetWaybill(ctx, request, claims)
	case request.Resource == "/waybills/{waybillId}" && request.HTTPMethod == "DELETE":
		return handleDeleteWaybill(ctx, request, claims)
	case request.Resource == "/waybills/{waybillId}/send" && request.HTTPMethod == "POST":
		return handleSendWaybillToSite(ctx, request, claims)
	case request.Resource == "/waybills/{waybillId}/returns" && request.HTTPMethod == "POST":
		return handleReturnWaybillItems(ctx, request, claims)

	default:
		logger.WithFields(logrus.Fields{
			"method":    request.HTTPMethod,
			"resource":  request.Resource,
			"operation": "Handler",
		}).Warn("Endpoint not found")
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

func parseWaybillID(request events.APIGatewayProxyRequest) (int64, error) {
	return strconv.ParseInt(request.PathParameters["waybillId"], 10, 64)
}

// handleCreateWaybill handles POST /waybills
func handleCreateWaybill(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateWaybillRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for create waybill")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	if createRequest.Type == constants.WaybillTypeReturn && createRequest.ReturnToSiteID == 0 {
		return api.ErrorResponse(http.StatusBadRequest, "Return waybill requires a destination site", logger), nil
	}

	waybill, err := waybillRepository.CreateWaybill(ctx, claims.CompanyID, &createRequest, claims.UserID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return api.ErrorResponse(http.StatusNotFound, err.Error(), logger), nil
		}
		if strings.Contains(err.Error(), "insufficient available quantity") {
			return api.ErrorResponse(http.StatusConflict, err.Error(), logger), nil
		}
		if strings.Contains(err.Error(), "invalid") {
			return api.ErrorResponse(http.StatusBadRequest, err.Error(), logger), nil
		}
		logger.WithError(err).Error("Failed to create waybill")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create waybill", logger), nil
	}

	return api.SuccessResponse(http.StatusCreated, waybill, logger), nil
}

// handleGetWaybills handles GET /waybills with optional status and type filters
func handleGetWaybills(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	waybills, err := waybillRepository.GetWaybillsByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get waybills")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get waybills", logger), nil
	}

	statusFilter := request.QueryStringParameters["status"]
	typeFilter := request.QueryStringParameters["type"]
	if statusFilter != "" || typeFilter != "" {
		filtered := waybills[:0]
		for _, waybill := range waybills {
			if statusFilter != "" && waybill.Status != statusFilter {
				continue
			}
			if typeFilter != "" && waybill.Type != typeFilter {
				continue
			}
			filtered = append(filtered, waybill)
		}
		waybills = filtered
	}

	response := models.WaybillListResponse{
		Waybills: waybills,
		Total:    len(waybills),
	}

	return api.SuccessResponse(http.StatusOK, response, logger), nil
}

// handleGetWaybill handles GET /waybills/{waybillId}
func handleGetWaybill(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	waybillID, err := parseWaybillID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid waybill ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid waybill ID", logger), nil
	}

	waybill, err := waybillRepository.GetWaybillByID(ctx, waybillID, claims.CompanyID)
	if err != nil {
		if err.Error() == "waybill not found" {
			return api.ErrorResponse(http.StatusNotFound, "Waybill not found", logger), nil
		}
		logger.WithError(err).Error("Failed to get waybill")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get waybill", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, waybill, logger), nil
}

// handleDeleteWaybill handles DELETE /waybills/{waybillId}
func handleDeleteWaybill(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	waybillID, err := parseWaybillID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid waybill ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid waybill ID", logger), nil
	}

	err = waybillRepository.DeleteWaybill(ctx, waybillID, claims.CompanyID, claims.UserID)
	if err != nil {
		if err.Error() == "waybill not found" {
			return api.ErrorResponse(http.StatusNotFound, "Waybill not found", logger), nil
		}
		logger.WithError(err).Error("Failed to delete waybill")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to delete waybill", logger), nil
	}

	return api.SuccessResponse(http.StatusNoContent, nil, logger), nil
}

// handleSendWaybillToSite handles POST /waybills/{waybillId}/send
func handleSendWaybillToSite(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	waybillID, err := parseWaybillID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid waybill ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid waybill ID", logger), nil
	}

	waybill, err := waybillRepository.SendWaybillToSite(ctx, waybillID, claims.CompanyID, claims.UserID)
	if err != nil {
		switch err.Error() {
		case "waybill not found":
			return api.ErrorResponse(http.StatusNotFound, "Waybill not found", logger), nil
		case "draft waybill cannot be sent":
			return api.ErrorResponse(http.StatusConflict, "Draft waybill cannot be sent", logger), nil
		case "waybill already sent to site":
			return api.ErrorResponse(http.StatusConflict, "Waybill already sent to site", logger), nil
		}
		logger.WithError(err).Error("Failed to send waybill to site")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to send waybill to site", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, waybill, logger), nil
}

// handleReturnWaybillItems handles POST /waybills/{waybillId}/returns
func handleReturnWaybillItems(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	waybillID, err := parseWaybillID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid waybill ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid waybill ID", logger), nil
	}

	var returnRequest models.ReturnWaybillItemsRequest
	if err := api.ParseJSONBody(request.Body, &returnRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for waybill return")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	waybill, err := waybillRepository.ReturnWaybillItems(ctx, waybillID, claims.CompanyID, &returnRequest, claims.UserID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return api.ErrorResponse(http.StatusNotFound, err.Error(), logger), nil
		}
		if strings.Contains(err.Error(), "exceeds outstanding quantity") {
			return api.ErrorResponse(http.StatusConflict, err.Error(), logger), nil
		}
		if err.Error() == "draft waybill has nothing to return" {
			return api.ErrorResponse(http.StatusConflict, "Draft waybill has nothing to return", logger), nil
		}
		logger.WithError(err).Error("Failed to record waybill return")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to record waybill return", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, waybill, logger), nil
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

	logger.WithField("operation", "init").Error("Initializing Waybill Management Lambda")

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

	waybillRepository = data.NewWaybillRepository(sqlDB)

	logger.WithField("operation", "init").Error("Waybill Management Lambda initialization completed successfully")
}

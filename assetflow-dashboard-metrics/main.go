package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"assetflow/lib/api"
	"assetflow/lib/auth"
	"assetflow/lib/clients"
	"assetflow/lib/config"
	"assetflow/lib/constants"
	"assetflow/lib/dashboard"
	"assetflow/lib/data"
	"assetflow/lib/dates"
	"assetflow/lib/servicedue"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

var (
	logger                *logrus.Logger
	isLocal               bool
	ssmRepository         data.SSMRepository
	ssmParams             map[string]string
	sqlDB                 *sql.DB
	fleetRepository       data.FleetRepository
	maintenanceRepository data.MaintenanceRepository
)

// Handler processes API Gateway requests for dashboard metrics
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
		"operation": "Handler",
	}).Debug("Processing dashboard metrics request")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":     err.Error(),
			"operation": "Handler",
		}).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch {
	case request.Resource == "/dashboard/metrics" && request.HTTPMethod == "GET":
		return handleGetDashboardMetrics(ctx, request, claims)

	default:
		logger.WithFields(logrus.Fields{
			"method":    request.HTTPMethod,
			"resource":  request.Resource,
			"operation": "Handler",
		}).Warn("Endpoint not found")
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

// handleGetDashboardMetrics handles GET /dashboard/metrics. Monthly figures
// cover the calendar month of the evaluation time; an optional "month"
// parameter (any date within the target month) evaluates a past month.
func handleGetDashboardMetrics(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	now := time.Now().UTC()
	if monthParam := request.QueryStringParameters["month"]; monthParam != "" {
		parsed, err := dates.Parse(monthParam)
		if err != nil {
			logger.WithError(err).Error("Invalid month parameter")
			return api.ErrorResponse(http.StatusBadRequest, "Invalid month parameter", logger), nil
		}
		now = parsed
	}

	machines, err := fleetRepository.GetMachinesByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get machines")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get machines", logger), nil
	}
	vehicles, err := fleetRepository.GetVehiclesByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get vehicles")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get vehicles", logger), nil
	}
	logs, err := maintenanceRepository.GetLogsByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get maintenance logs")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get maintenance logs", logger), nil
	}

	units := make([]servicedue.ServiceableUnit, 0, len(machines)+len(vehicles))
	for _, machine := range machines {
		units = append(units, servicedue.MachineUnit(machine))
	}
	for _, vehicle := range vehicles {
		units = append(units, servicedue.VehicleUnit(vehicle))
	}

	statuses := servicedue.BuildFleetStatus(units, logs, now)
	metrics := dashboard.Build(units, statuses, logs, now)

	return api.SuccessResponse(http.StatusOK, metrics, logger), nil
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

	logger.WithField("operation", "init").Error("Initializing Dashboard Metrics Lambda")

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

	fleetRepository = data.NewFleetRepository(sqlDB)
	maintenanceRepository = data.NewMaintenanceRepository(sqlDB)

	logger.WithField("operation", "init").Error("Dashboard Metrics Lambda initialization completed successfully")
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"assetflow/lib/api"
	"assetflow/lib/auth"
	"assetflow/lib/clients"
	"assetflow/lib/config"
	"assetflow/lib/constants"
	"assetflow/lib/data"
	"assetflow/lib/export"
	"assetflow/lib/inventory"
	"assetflow/lib/servicedue"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	downloadURLExpiry = 15 * time.Minute
)

var (
	logger                *logrus.Logger
	isLocal               bool
	ssmRepository         data.SSMRepository
	ssmParams             map[string]string
	sqlDB                 *sql.DB
	s3Client              clients.S3ClientInterface
	siteRepository        data.SiteRepository
	assetRepository       data.AssetRepository
	waybillRepository     data.WaybillRepository
	fleetRepository       data.FleetRepository
	maintenanceRepository data.MaintenanceRepository
)

// Handler processes API Gateway requests for report exports. Each export
// renders an xlsx workbook, stores it under a random key and answers with a
// short-lived presigned download URL.
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"method":    request.HTTPMethod,
		"resource":  request.Resource,
		"operation": "Handler",
	}).Debug("Processing report export request")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":     err.Error(),
			"operation": "Handler",
		}).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch {
	case request.Resource == "/exports/site-inventory/{siteId}" && request.HTTPMethod == "POST":
		return handleExportSiteInventory(ctx, request, claims)
	case request.Resource == "/exports/fleet-service" && request.HTTPMethod == "POST":
		return handleExportFleetService(ctx, request, claims)

	default:
		logger.WithFields(logrus.Fields{
			"method":    request.HTTPMethod,
			"resource":  request.Resource,
			"operation": "Handler",
		}).Warn("Endpoint not found")
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

// uploadWorkbook stores the workbook under a per-company random key and
// returns a presigned download URL
func uploadWorkbook(companyID int64, prefix string, workbook []byte) (string, string, error) {
	key := fmt.Sprintf("exports/%d/%s-%s.xlsx", companyID, prefix, uuid.New().String())

	if err := s3Client.PutObject(key, workbook, xlsxContentType); err != nil {
		return "", "", fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s3Client.GenerateDownloadURL(key, downloadURLExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to presign download URL: %w", err)
	}
	return key, url, nil
}

// handleExportSiteInventory handles POST /exports/site-inventory/{siteId}
func handleExportSiteInventory(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	siteID, err := strconv.ParseInt(request.PathParameters["siteId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid site ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid site ID", logger), nil
	}

	site, err := siteRepository.GetSiteByID(ctx, siteID, claims.CompanyID)
	if err != nil {
		if err.Error() == "site not found" {
			return api.ErrorResponse(http.StatusNotFound, "Site not found", logger), nil
		}
		logger.WithError(err).Error("Failed to get site")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get site", logger), nil
	}

	waybills, err := waybillRepository.GetWaybillsByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to load waybills")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to load waybills", logger), nil
	}
	assets, err := assetRepository.GetAssetsByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to load assets")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to load assets", logger), nil
	}

	snapshot := inventory.BuildSiteInventory(waybills, assets)
	items := snapshot.SiteInventory(siteID)

	workbook, err := export.SiteInventoryWorkbook(site.Name, items)
	if err != nil {
		logger.WithError(err).Error("Failed to build site inventory workbook")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to build export", logger), nil
	}

	key, url, err := uploadWorkbook(claims.CompanyID, fmt.Sprintf("site-%d-inventory", siteID), workbook)
	if err != nil {
		logger.WithError(err).Error("Failed to store site inventory export")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to store export", logger), nil
	}

	logger.WithFields(logrus.Fields{
		"site_id":   siteID,
		"key":       key,
		"items":     len(items),
		"operation": "handleExportSiteInventory",
	}).Info("Successfully exported site inventory")

	response := map[string]interface{}{
		"key":          key,
		"download_url": url,
		"expires_in":   int(downloadURLExpiry.Seconds()),
	}
	return api.SuccessResponse(http.StatusCreated, response, logger), nil
}

// handleExportFleetService handles POST /exports/fleet-service
func handleExportFleetService(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
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

	statusMap := servicedue.BuildFleetStatus(units, logs, time.Now().UTC())
	statuses := make([]servicedue.Status, 0, len(statusMap))
	for _, status := range statusMap {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	workbook, err := export.FleetServiceWorkbook(statuses)
	if err != nil {
		logger.WithError(err).Error("Failed to build fleet service workbook")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to build export", logger), nil
	}

	key, url, err := uploadWorkbook(claims.CompanyID, "fleet-service", workbook)
	if err != nil {
		logger.WithError(err).Error("Failed to store fleet service export")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to store export", logger), nil
	}

	logger.WithFields(logrus.Fields{
		"key":       key,
		"units":     len(statuses),
		"operation": "handleExportFleetService",
	}).Info("Successfully exported fleet service report")

	response := map[string]interface{}{
		"key":          key,
		"download_url": url,
		"expires_in":   int(downloadURLExpiry.Seconds()),
	}
	return api.SuccessResponse(http.StatusCreated, response, logger), nil
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

	logger.WithField("operation", "init").Error("Initializing Report Export Lambda")

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

	s3Client = clients.NewS3Client(isLocal, ssmParams[constants.EXPORT_BUCKET])

	siteRepository = data.NewSiteRepository(sqlDB)
	assetRepository = data.NewAssetRepository(sqlDB)
	waybillRepository = data.NewWaybillRepository(sqlDB)
	fleetRepository = data.NewFleetRepository(sqlDB)
	maintenanceRepository = data.NewMaintenanceRepository(sqlDB)

	logger.WithField("operation", "init").Error("Report Export Lambda initialization completed successfully")
}

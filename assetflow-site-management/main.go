package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"

	"assetflow/lib/api"
	"assetflow/lib/auth"
	"assetflow/lib/clients"
	"assetflow/lib/config"
	"assetflow/lib/constants"
	"assetflow/lib/data"
	"assetflow/lib/inventory"
	"assetflow/lib/models"
	"assetflow/lib/refresh"

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
	siteRepository    data.SiteRepository
	assetRepository   data.AssetRepository
	waybillRepository data.WaybillRepository
	notifier          *refresh.Notifier
	snapshotCache     *inventoryCache
)

// inventoryCache memoizes the derived site inventory snapshot per warm
// container and per company. Any mutation observed through the notifier marks
// the cache dirty; the next read rebuilds from the full waybill history.
type inventoryCache struct {
	mu        sync.Mutex
	snapshots map[int64]inventory.Snapshot
	dirty     bool
}

func newInventoryCache(n *refresh.Notifier) *inventoryCache {
	cache := &inventoryCache{
		snapshots: make(map[int64]inventory.Snapshot),
		dirty:     true,
	}
	invalidate := func() {
		cache.mu.Lock()
		cache.dirty = true
		cache.mu.Unlock()
	}
	n.Subscribe(refresh.TopicAssets, invalidate)
	n.Subscribe(refresh.TopicSites, invalidate)
	n.Subscribe(refresh.TopicWaybills, invalidate)
	return cache
}

// get returns the cached snapshot for a company, rebuilding it when dirty or
// when forceRefresh is set. Other services mutate waybills out of process, so
// callers that need read-after-write consistency pass refresh=true.
func (c *inventoryCache) get(ctx context.Context, companyID int64, forceRefresh bool) (inventory.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty && !forceRefresh {
		if snapshot, ok := c.snapshots[companyID]; ok {
			return snapshot, nil
		}
	}

	waybills, err := waybillRepository.GetWaybillsByCompany(ctx, companyID)
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("failed to load waybills: %w", err)
	}
	assets, err := assetRepository.GetAssetsByCompany(ctx, companyID)
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("failed to load assets: %w", err)
	}

	snapshot := inventory.BuildSiteInventory(waybills, assets)
	for _, warning := range snapshot.Warnings {
		logger.WithFields(logrus.Fields{
			"waybill_id": warning.WaybillID,
			"asset_id":   warning.AssetID,
			"operation":  "BuildSiteInventory",
		}).Warn(warning.Message)
	}

	c.snapshots[companyID] = snapshot
	c.dirty = false
	return snapshot, nil
}

// Handler processes API Gateway requests for site management operations
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"method":      request.HTTPMethod,
		"path":        request.Path,
		"resource":    request.Resource,
		"path_params": request.PathParameters,
		"operation":   "Handler",
	}).Debug("Processing site management request")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":     err.Error(),
			"operation": "Handler",
		}).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch {
	case request.Resource == "/sites" && request.HTTPMethod == "POST":
		return handleCreateSite(ctx, request, claims)
	case request.Resource == "/sites" && request.HTTPMethod == "GET":
		return handleGetSites(ctx, request, claims)
	case request.Resource == "/sites/{siteId}" && request.HTTPMethod == "GET":
		return handleGetSite(ctx, request, claims)
	case request.Resource == "/sites/{siteId}" && request.HTTPMethod == "PUT":
		return handleUpdateSite(ctx, request, claims)
	case request.Resource == "/sites/{siteId}" && request.HTTPMethod == "DELETE":
		return handleDeleteSite(ctx, request, claims)

	case request.Resource == "/sites/{siteId}/inventory" && request.HTTPMethod == "GET":
		return handleGetSiteInventory(ctx, request, claims)

	case request.Resource == "/sites/{siteId}/transactions" && request.HTTPMethod == "POST":
		return handleCreateSiteTransaction(ctx, request, claims)
	case request.Resource == "/sites/{siteId}/transactions" && request.HTTPMethod == "GET":
		return handleGetSiteTransactions(ctx, request, claims)

	default:
		logger.WithFields(logrus.Fields{
			"method":    request.HTTPMethod,
			"resource":  request.Resource,
			"operation": "Handler",
		}).Warn("Endpoint not found")
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

func parseSiteID(request events.APIGatewayProxyRequest) (int64, error) {
	return strconv.ParseInt(request.PathParameters["siteId"], 10, 64)
}

// handleCreateSite handles POST /sites
func handleCreateSite(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateSiteRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for create site")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	site, err := siteRepository.CreateSite(ctx, claims.CompanyID, &createRequest, claims.UserID)
	if err != nil {
		logger.WithError(err).Error("Failed to create site")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create site", logger), nil
	}

	notifier.Notify(refresh.TopicSites)
	return api.SuccessResponse(http.StatusCreated, site, logger), nil
}

// handleGetSites handles GET /sites
func handleGetSites(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	sites, err := siteRepository.GetSitesByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get sites")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get sites", logger), nil
	}

	response := models.SiteListResponse{
		Sites: sites,
		Total: len(sites),
	}

	return api.SuccessResponse(http.StatusOK, response, logger), nil
}

// handleGetSite handles GET /sites/{siteId}
func handleGetSite(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	siteID, err := parseSiteID(request)
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

	return api.SuccessResponse(http.StatusOK, site, logger), nil
}

// handleUpdateSite handles PUT /sites/{siteId}
func handleUpdateSite(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	siteID, err := parseSiteID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid site ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid site ID", logger), nil
	}

	var updateRequest models.UpdateSiteRequest
	if err := api.ParseJSONBody(request.Body, &updateRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for update site")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	site, err := siteRepository.UpdateSite(ctx, siteID, claims.CompanyID, &updateRequest, claims.UserID)
	if err != nil {
		if err.Error() == "site not found" {
			return api.ErrorResponse(http.StatusNotFound, "Site not found", logger), nil
		}
		logger.WithError(err).Error("Failed to update site")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update site", logger), nil
	}

	notifier.Notify(refresh.TopicSites)
	return api.SuccessResponse(http.StatusOK, site, logger), nil
}

// handleDeleteSite handles DELETE /sites/{siteId}
func handleDeleteSite(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	siteID, err := parseSiteID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid site ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid site ID", logger), nil
	}

	err = siteRepository.DeleteSite(ctx, siteID, claims.CompanyID, claims.UserID)
	if err != nil {
		if err.Error() == "site not found" {
			return api.ErrorResponse(http.StatusNotFound, "Site not found", logger), nil
		}
		logger.WithError(err).Error("Failed to delete site")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to delete site", logger), nil
	}

	notifier.Notify(refresh.TopicSites)
	return api.SuccessResponse(http.StatusNoContent, nil, logger), nil
}

// handleGetSiteInventory handles GET /sites/{siteId}/inventory. The response
// is derived entirely from the waybill history; pass refresh=true to bypass
// the warm-container cache.
func handleGetSiteInventory(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	siteID, err := parseSiteID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid site ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid site ID", logger), nil
	}

	if _, err := siteRepository.GetSiteByID(ctx, siteID, claims.CompanyID); err != nil {
		if err.Error() == "site not found" {
			return api.ErrorResponse(http.StatusNotFound, "Site not found", logger), nil
		}
		logger.WithError(err).Error("Failed to get site")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get site", logger), nil
	}

	forceRefresh := request.QueryStringParameters["refresh"] == "true"
	snapshot, err := snapshotCache.get(ctx, claims.CompanyID, forceRefresh)
	if err != nil {
		logger.WithError(err).Error("Failed to build site inventory")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to build site inventory", logger), nil
	}

	items := snapshot.SiteInventory(siteID)
	response := map[string]interface{}{
		"site_id": siteID,
		"items":   items,
		"total":   len(items),
	}

	return api.SuccessResponse(http.StatusOK, response, logger), nil
}

// handleCreateSiteTransaction handles POST /sites/{siteId}/transactions
func handleCreateSiteTransaction(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	siteID, err := parseSiteID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid site ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid site ID", logger), nil
	}

	if _, err := siteRepository.GetSiteByID(ctx, siteID, claims.CompanyID); err != nil {
		if err.Error() == "site not found" {
			return api.ErrorResponse(http.StatusNotFound, "Site not found", logger), nil
		}
		logger.WithError(err).Error("Failed to get site")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get site", logger), nil
	}

	var createRequest models.CreateSiteTransactionRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for create site transaction")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	transaction, err := siteRepository.CreateSiteTransaction(ctx, siteID, &createRequest, claims.UserID)
	if err != nil {
		logger.WithError(err).Error("Failed to create site transaction")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create site transaction", logger), nil
	}

	notifier.Notify(refresh.TopicSites)
	return api.SuccessResponse(http.StatusCreated, transaction, logger), nil
}

// handleGetSiteTransactions handles GET /sites/{siteId}/transactions
func handleGetSiteTransactions(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	siteID, err := parseSiteID(request)
	if err != nil {
		logger.WithError(err).Error("Invalid site ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid site ID", logger), nil
	}

	if _, err := siteRepository.GetSiteByID(ctx, siteID, claims.CompanyID); err != nil {
		if err.Error() == "site not found" {
			return api.ErrorResponse(http.StatusNotFound, "Site not found", logger), nil
		}
		logger.WithError(err).Error("Failed to get site")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get site", logger), nil
	}

	transactions, err := siteRepository.GetSiteTransactions(ctx, siteID)
	if err != nil {
		logger.WithError(err).Error("Failed to get site transactions")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get site transactions", logger), nil
	}

	response := models.SiteTransactionListResponse{
		Transactions: transactions,
		Total:        len(transactions),
	}

	return api.SuccessResponse(http.StatusOK, response, logger), nil
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

	logger.WithField("operation", "init").Error("Initializing Site Management Lambda")

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

	siteRepository = data.NewSiteRepository(sqlDB)
	assetRepository = data.NewAssetRepository(sqlDB)
	waybillRepository = data.NewWaybillRepository(sqlDB)

	notifier = refresh.NewNotifier()
	snapshotCache = newInventoryCache(notifier)

	logger.WithField("operation", "init").Error("Site Management Lambda initialization completed successfully")
}

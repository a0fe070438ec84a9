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
	"assetflow/lib/models"
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

// Handler processes API Gateway requests for fleet and maintenance operations
func Handler(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger.WithFields(logrus.Fields{
		"method":      request.HTTPMethod,
		"path":        request.Path,
		"resource":    request.Resource,
		"path_params": request.PathParameters,
		"operation":   "Handler",
	}).Debug("Processing maintenance management request")

	claims, err := auth.ExtractClaimsFromRequest(request)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error":     err.Error(),
			"operation": "Handler",
		}).Error("Authentication failed")
		return api.ErrorResponse(http.StatusUnauthorized, "Authentication failed", logger), nil
	}

	switch {
	// Machine CRUD operations
	case request.Resource == "/machines" && request.HTTPMethod == "POST":
		return handleCreateMachine(ctx, request, claims)
	case request.Resource == "/machines" && request.HTTPMethod == "GET":
		return handleGetMachines(ctx, request, claims)
	case request.Resource == "/machines/{machineId}" && request.HTTPMethod == "GET":
		return handleGetMachine(ctx, request, claims)
	case request.Resource == "/machines/{machineId}" && request.HTTPMethod == "PUT":
		return handleUpdateMachine(ctx, request, claims)
	case request.Resource == "/machines/{machineId}" && request.HTTPMethod == "DELETE":
		return handleDeleteMachine(ctx, request, claims)

	// Vehicle CRUD operations
	case request.Resource == "/vehicles" && request.HTTPMethod == "POST":
		return handleCreateVehicle(ctx, request, claims)
	case request.Resource == "/vehicles" && request.HTTPMethod == "GET":
		return handleGetVehicles(ctx, request, claims)
	case request.Resource == "/vehicles/{vehicleId}" && request.HTTPMethod == "GET":
		return handleGetVehicle(ctx, request, claims)
	case request.Resource == "/vehicles/{vehicleId}" && request.HTTPMethod == "PUT":
		return handleUpdateVehicle(ctx, request, claims)
	case request.Resource == "/vehicles/{vehicleId}" && request.HTTPMethod == "DELETE":
		return handleDeleteVehicle(ctx, request, claims)

	// Maintenance log operations
	case request.Resource == "/maintenance-logs" && request.HTTPMethod == "POST":
		return handleCreateMaintenanceLog(ctx, request, claims)
	case request.Resource == "/maintenance-logs" && request.HTTPMethod == "GET":
		return handleGetMaintenanceLogs(ctx, request, claims)

	// Derived fleet service view
	case request.Resource == "/fleet/service-status" && request.HTTPMethod == "GET":
		return handleGetFleetServiceStatus(ctx, request, claims)

	default:
		logger.WithFields(logrus.Fields{
			"method":    request.HTTPMethod,
			"resource":  request.Resource,
			"operation": "Handler",
		}).Warn("Endpoint not found")
		return api.ErrorResponse(http.StatusNotFound, "Endpoint not found", logger), nil
	}
}

// handleCreateMachine handles POST /machines
func handleCreateMachine(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateMachineRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for create machine")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	machine, err := fleetRepository.CreateMachine(ctx, claims.CompanyID, &createRequest, claims.UserID)
	if err != nil {
		logger.WithError(err).Error("Failed to create machine")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create machine", logger), nil
	}

	return api.SuccessResponse(http.StatusCreated, machine, logger), nil
}

// handleGetMachines handles GET /machines
func handleGetMachines(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	machines, err := fleetRepository.GetMachinesByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get machines")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get machines", logger), nil
	}

	response := models.MachineListResponse{
		Machines: machines,
		Total:    len(machines),
	}

	return api.SuccessResponse(http.StatusOK, response, logger), nil
}

// handleGetMachine handles GET /machines/{machineId}
func handleGetMachine(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	machineID, err := strconv.ParseInt(request.PathParameters["machineId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid machine ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid machine ID", logger), nil
	}

	machine, err := fleetRepository.GetMachineByID(ctx, machineID, claims.CompanyID)
	if err != nil {
		if err.Error() == "machine not found" {
			return api.ErrorResponse(http.StatusNotFound, "Machine not found", logger), nil
		}
		logger.WithError(err).Error("Failed to get machine")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get machine", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, machine, logger), nil
}

// handleUpdateMachine handles PUT /machines/{machineId}
func handleUpdateMachine(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	machineID, err := strconv.ParseInt(request.PathParameters["machineId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid machine ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid machine ID", logger), nil
	}

	var updateRequest models.UpdateMachineRequest
	if err := api.ParseJSONBody(request.Body, &updateRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for update machine")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	machine, err := fleetRepository.UpdateMachine(ctx, machineID, claims.CompanyID, &updateRequest, claims.UserID)
	if err != nil {
		if err.Error() == "machine not found" {
			return api.ErrorResponse(http.StatusNotFound, "Machine not found", logger), nil
		}
		logger.WithError(err).Error("Failed to update machine")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update machine", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, machine, logger), nil
}

// handleDeleteMachine handles DELETE /machines/{machineId}
func handleDeleteMachine(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	machineID, err := strconv.ParseInt(request.PathParameters["machineId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid machine ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid machine ID", logger), nil
	}

	err = fleetRepository.DeleteMachine(ctx, machineID, claims.CompanyID)
	if err != nil {
		if err.Error() == "machine not found" {
			return api.ErrorResponse(http.StatusNotFound, "Machine not found", logger), nil
		}
		logger.WithError(err).Error("Failed to delete machine")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to delete machine", logger), nil
	}

	return api.SuccessResponse(http.StatusNoContent, nil, logger), nil
}

// handleCreateVehicle handles POST /vehicles
func handleCreateVehicle(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateVehicleRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for create vehicle")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	vehicle, err := fleetRepository.CreateVehicle(ctx, claims.CompanyID, &createRequest, claims.UserID)
	if err != nil {
		logger.WithError(err).Error("Failed to create vehicle")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create vehicle", logger), nil
	}

	return api.SuccessResponse(http.StatusCreated, vehicle, logger), nil
}

// handleGetVehicles handles GET /vehicles
func handleGetVehicles(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	vehicles, err := fleetRepository.GetVehiclesByCompany(ctx, claims.CompanyID)
	if err != nil {
		logger.WithError(err).Error("Failed to get vehicles")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get vehicles", logger), nil
	}

	response := models.VehicleListResponse{
		Vehicles: vehicles,
		Total:    len(vehicles),
	}

	return api.SuccessResponse(http.StatusOK, response, logger), nil
}

// handleGetVehicle handles GET /vehicles/{vehicleId}
func handleGetVehicle(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	vehicleID, err := strconv.ParseInt(request.PathParameters["vehicleId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid vehicle ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid vehicle ID", logger), nil
	}

	vehicle, err := fleetRepository.GetVehicleByID(ctx, vehicleID, claims.CompanyID)
	if err != nil {
		if err.Error() == "vehicle not found" {
			return api.ErrorResponse(http.StatusNotFound, "Vehicle not found", logger), nil
		}
		logger.WithError(err).Error("Failed to get vehicle")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get vehicle", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, vehicle, logger), nil
}

// handleUpdateVehicle handles PUT /vehicles/{vehicleId}
func handleUpdateVehicle(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	vehicleID, err := strconv.ParseInt(request.PathParameters["vehicleId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid vehicle ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid vehicle ID", logger), nil
	}

	var updateRequest models.UpdateVehicleRequest
	if err := api.ParseJSONBody(request.Body, &updateRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for update vehicle")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	vehicle, err := fleetRepository.UpdateVehicle(ctx, vehicleID, claims.CompanyID, &updateRequest, claims.UserID)
	if err != nil {
		if err.Error() == "vehicle not found" {
			return api.ErrorResponse(http.StatusNotFound, "Vehicle not found", logger), nil
		}
		logger.WithError(err).Error("Failed to update vehicle")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to update vehicle", logger), nil
	}

	return api.SuccessResponse(http.StatusOK, vehicle, logger), nil
}

// handleDeleteVehicle handles DELETE /vehicles/{vehicleId}
func handleDeleteVehicle(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	vehicleID, err := strconv.ParseInt(request.PathParameters["vehicleId"], 10, 64)
	if err != nil {
		logger.WithError(err).Error("Invalid vehicle ID")
		return api.ErrorResponse(http.StatusBadRequest, "Invalid vehicle ID", logger), nil
	}

	err = fleetRepository.DeleteVehicle(ctx, vehicleID, claims.CompanyID)
	if err != nil {
		if err.Error() == "vehicle not found" {
			return api.ErrorResponse(http.StatusNotFound, "Vehicle not found", logger), nil
		}
		logger.WithError(err).Error("Failed to delete vehicle")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to delete vehicle", logger), nil
	}

	return api.SuccessResponse(http.StatusNoContent, nil, logger), nil
}

// handleCreateMaintenanceLog handles POST /maintenance-logs
func handleCreateMaintenanceLog(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	var createRequest models.CreateMaintenanceLogRequest
	if err := api.ParseJSONBody(request.Body, &createRequest); err != nil {
		logger.WithError(err).Error("Invalid request body for create maintenance log")
		return api.ValidationErrorResponse("Invalid request body", api.ValidationErrors(err), logger), nil
	}

	log, err := maintenanceRepository.CreateMaintenanceLog(ctx, claims.CompanyID, &createRequest, claims.UserID)
	if err != nil {
		if err.Error() == "machine not found" || err.Error() == "vehicle not found" {
			return api.ErrorResponse(http.StatusNotFound, err.Error(), logger), nil
		}
		logger.WithError(err).Error("Failed to create maintenance log")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to create maintenance log", logger), nil
	}

	return api.SuccessResponse(http.StatusCreated, log, logger), nil
}

// handleGetMaintenanceLogs handles GET /maintenance-logs with optional
// unit_kind and unit_id filters
func handleGetMaintenanceLogs(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
	unitKind := request.QueryStringParameters["unit_kind"]
	unitIDStr := request.QueryStringParameters["unit_id"]

	var logs []models.MaintenanceLog
	var err error

	if unitKind != "" && unitIDStr != "" {
		unitID, parseErr := strconv.ParseInt(unitIDStr, 10, 64)
		if parseErr != nil {
			logger.WithError(parseErr).Error("Invalid unit_id parameter")
			return api.ErrorResponse(http.StatusBadRequest, "Invalid unit_id parameter", logger), nil
		}
		logs, err = maintenanceRepository.GetLogsByUnit(ctx, claims.CompanyID, unitKind, unitID)
	} else {
		logs, err = maintenanceRepository.GetLogsByCompany(ctx, claims.CompanyID)
	}
	if err != nil {
		logger.WithError(err).Error("Failed to get maintenance logs")
		return api.ErrorResponse(http.StatusInternalServerError, "Failed to get maintenance logs", logger), nil
	}

	response := models.MaintenanceLogListResponse{
		Logs:  logs,
		Total: len(logs),
	}

	return api.SuccessResponse(http.StatusOK, response, logger), nil
}

// handleGetFleetServiceStatus handles GET /fleet/service-status. Machines and
// vehicles are projected into one serviceable view and their due positions
// derived from the full maintenance history.
func handleGetFleetServiceStatus(ctx context.Context, request events.APIGatewayProxyRequest, claims *auth.Claims) (events.APIGatewayProxyResponse, error) {
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

	statuses := servicedue.BuildFleetStatus(units, logs, time.Now().UTC())

	// Most urgent first, then by name for a stable listing
	list := make([]servicedue.Status, 0, len(statuses))
	for _, status := range statuses {
		list = append(list, status)
	}
	rank := map[servicedue.Urgency]int{
		servicedue.UrgencyOverdue: 0,
		servicedue.UrgencyDueSoon: 1,
		servicedue.UrgencyUnknown: 2,
		servicedue.UrgencyOK:      3,
	}
	sort.Slice(list, func(i, j int) bool {
		if rank[list[i].Urgency] != rank[list[j].Urgency] {
			return rank[list[i].Urgency] < rank[list[j].Urgency]
		}
		return list[i].Name < list[j].Name
	})

	urgencyFilter := servicedue.Urgency(request.QueryStringParameters["urgency"])
	if urgencyFilter != "" {
		filtered := list[:0]
		for _, status := range list {
			if status.Urgency == urgencyFilter {
				filtered = append(filtered, status)
			}
		}
		list = filtered
	}

	response := map[string]interface{}{
		"units": list,
		"total": len(list),
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

	logger.WithField("operation", "init").Error("Initializing Maintenance Management Lambda")

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

	logger.WithField("operation", "init").Error("Maintenance Management Lambda initialization completed successfully")
}

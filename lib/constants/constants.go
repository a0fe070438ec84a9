package constants

const (
	ALLOWED_ORIGINS       = "/assetflow/ALLOWED_ORIGINS"
	DATABASE_RDS_ENDPOINT = "/assetflow/DATABASE_RDS_ENDPOINT"
	DATABASE_PORT         = "/assetflow/DATABASE_PORT"
	DATABASE_NAME         = "/assetflow/DATABASE_NAME"
	DATABASE_USERNAME     = "/assetflow/DATABASE_USERNAME"
	DATABASE_PASSWORD     = "/assetflow/DATABASE_PASSWORD"
	SSL_MODE              = "/assetflow/SSL_MODE"
	EXPORT_BUCKET         = "/assetflow/EXPORT_BUCKET"
	COGNITO_USER_POOL_ID  = "/assetflow/COGNITO_USER_POOL_ID"
	DRIVER_NAME           = "postgres"
)

// Waybill lifecycle statuses. A waybill's status is always derived from its
// item statuses, never set directly by a caller.
const (
	WaybillStatusDraft           = "draft"
	WaybillStatusOutstanding     = "outstanding"
	WaybillStatusSentToSite      = "sent_to_site"
	WaybillStatusPartialReturned = "partial_returned"
	WaybillStatusReturnCompleted = "return_completed"
)

// Waybill document types.
const (
	WaybillTypeOutbound = "waybill"
	WaybillTypeReturn   = "return"
)

// Site transaction directions.
const (
	SiteTransactionIn  = "in"
	SiteTransactionOut = "out"
)

// Machine and vehicle statuses. Only active units participate in service
// urgency classification.
const (
	UnitStatusActive      = "active"
	UnitStatusIdle        = "idle"
	UnitStatusMaintenance = "maintenance"
	UnitStatusStandby     = "standby"
	UnitStatusMissing     = "missing"
	UnitStatusRetired     = "retired"
)

// Maintenance event types.
const (
	MaintenanceScheduled   = "scheduled"
	MaintenanceUnscheduled = "unscheduled"
	MaintenanceEmergency   = "emergency"
)

// Vehicles carry a fixed service interval and operating pattern when projected
// into the fleet service view.
const (
	VehicleServiceIntervalMonths = 2
	VehicleOperatingPattern      = "24/7"
)

package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"
	// GeneralRepositoryError represents a generic repository error.
	GeneralRepositoryError ErrorCode = "general_repository_error"

	// ReplayQueryError represents an error when querying the historical event store.
	ReplayQueryError ErrorCode = "replay_query_error"
	// ReplayScanError represents an error when decoding a historical event row.
	ReplayScanError ErrorCode = "replay_scan_error"
	// ReplayLoadError represents an error when loading historical data into the event store.
	ReplayLoadError ErrorCode = "replay_load_error"

	// TradePublishError represents an error when publishing a trade to the trade log.
	TradePublishError ErrorCode = "trade_publish_error"
	// TradeCloseError represents an error when flushing and closing the trade log.
	TradeCloseError ErrorCode = "trade_close_error"

	// SnapshotMarshalError represents an error when serializing an order book snapshot.
	SnapshotMarshalError ErrorCode = "snapshot_marshal_error"
	// SnapshotStoreError represents an error when persisting an order book snapshot.
	SnapshotStoreError ErrorCode = "snapshot_store_error"
	// SnapshotLoadError represents an error when reading an order book snapshot.
	SnapshotLoadError ErrorCode = "snapshot_load_error"
	// SnapshotUnmarshalError represents an error when deserializing an order book snapshot.
	SnapshotUnmarshalError ErrorCode = "snapshot_unmarshal_error"
	// SnapshotNotFoundError represents a missing snapshot for the requested symbol.
	SnapshotNotFoundError ErrorCode = "snapshot_not_found_error"

	// GatewaySendError represents an error when writing a message to a client session.
	GatewaySendError ErrorCode = "gateway_send_error"
	// GatewayDecodeError represents an error when decoding an inbound client message.
	GatewayDecodeError ErrorCode = "gateway_decode_error"
	// GatewayValidationError represents an outbound message that failed validation.
	GatewayValidationError ErrorCode = "gateway_validation_error"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
)

// Severity represents the severity level of an error.
type Severity string

const (
	// SeverityCritical indicates a critical error that requires immediate attention.
	SeverityCritical Severity = "critical"
	// SeverityHigh indicates a high severity error that should be addressed promptly.
	SeverityHigh Severity = "high"
	// SeverityMedium indicates a medium severity error that should be addressed in due course.
	SeverityMedium Severity = "medium"
	// SeverityLow indicates a low severity error that can be addressed at a later time.
	SeverityLow Severity = "low"
)

// Category represents the category of an error.
type Category string

const (
	// CategoryDatabase indicates an error related to database operations.
	CategoryDatabase Category = "database"
	// CategoryNetwork indicates an error related to network operations.
	CategoryNetwork Category = "network"
	// CategoryValidation indicates an error related to validation of input data.
	CategoryValidation Category = "validation"
	// CategoryBusinessLogic indicates an error related to business logic processing.
	CategoryBusinessLogic Category = "business_logic"
	// CategoryUnknown indicates an unknown error category.
	CategoryUnknown Category = "unknown"
)
